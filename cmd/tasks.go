package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newTasksCmd() *cobra.Command {
	tasksCmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage tasks the timer can be bound to",
	}

	addCmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			task, err := store.AddTask(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), task.ID)
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			tasks, err := store.ListTasks(cmd.Context())
			if err != nil {
				return err
			}
			for _, task := range tasks {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-11s  %3d min  %s\n",
					task.ID, task.Status, task.DurationMinutes, task.Title)
			}
			return nil
		},
	}

	var days int
	logCmd := &cobra.Command{
		Use:   "log",
		Short: "Show logged focus sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			since := time.Now().AddDate(0, 0, -days)
			sessions, err := store.ListFocusSessions(cmd.Context(), since)
			if err != nil {
				return err
			}
			total := 0
			for _, session := range sessions {
				total += session.Minutes
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-5s  %3d min\n",
					session.LoggedAt.Local().Format("2006-01-02 15:04"), session.Kind, session.Minutes)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "total: %d min\n", total)
			return nil
		},
	}
	logCmd.Flags().IntVar(&days, "days", 7, "how many days back to show")

	tasksCmd.AddCommand(addCmd, listCmd, logCmd)
	return tasksCmd
}
