package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change timer preferences",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the current preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "focus_minutes: %d\n", settings.FocusMinutes)
			fmt.Fprintf(out, "break_minutes: %d\n", settings.BreakMinutes)
			fmt.Fprintf(out, "auto_start_break: %v\n", settings.AutoStartBreak)
			fmt.Fprintf(out, "hide_seconds: %v\n", settings.HideSeconds)
			return nil
		},
	}

	var (
		focusMinutes   int
		breakMinutes   int
		autoStartBreak bool
		hideSeconds    bool
	)
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Change preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("focus") {
				settings.FocusMinutes = focusMinutes
			}
			if flags.Changed("break") {
				settings.BreakMinutes = breakMinutes
			}
			if flags.Changed("auto-break") {
				settings.AutoStartBreak = autoStartBreak
			}
			if flags.Changed("hide-seconds") {
				settings.HideSeconds = hideSeconds
			}
			return saveSettings(settings)
		},
	}
	setCmd.Flags().IntVar(&focusMinutes, "focus", 25, "focus length in minutes (1-120)")
	setCmd.Flags().IntVar(&breakMinutes, "break", 5, "break length in minutes (1-60)")
	setCmd.Flags().BoolVar(&autoStartBreak, "auto-break", false, "start a break when focus ends")
	setCmd.Flags().BoolVar(&hideSeconds, "hide-seconds", false, "show whole minutes only")

	configCmd.AddCommand(showCmd, setCmd)
	return configCmd
}
