package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"focustimer/internal/core/clock"
	"focustimer/internal/core/dispatch"
	"focustimer/internal/core/model"
	"focustimer/internal/core/timekeeper"
	"focustimer/internal/platform"
	"focustimer/internal/storage"
	"focustimer/internal/ui/tray"
)

func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the timer in the system tray",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimer(viper.GetString("task"), viper.GetInt("minutes"), viper.GetBool("no-notify"))
		},
	}
	runCmd.Flags().String("task", "", "bind the timer to this task id")
	runCmd.Flags().Int("minutes", 0, "task countdown length in minutes, 0 for a stopwatch")
	runCmd.Flags().Bool("no-notify", false, "disable desktop notifications")
	_ = viper.BindPFlag("task", runCmd.Flags().Lookup("task"))
	_ = viper.BindPFlag("minutes", runCmd.Flags().Lookup("minutes"))
	_ = viper.BindPFlag("no-notify", runCmd.Flags().Lookup("no-notify"))
	return runCmd
}

func runTimer(taskID string, minutes int, noNotify bool) error {
	dbPath, err := databasePath()
	if err != nil {
		return err
	}
	guard, err := platform.AcquireOwner(appName, dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = guard.Release()
	}()

	settings, err := loadSettings()
	if err != nil {
		log.Printf("settings: %v", err)
	}

	store, err := openStoreAt(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	fyneApp := app.NewWithID("com.focustimer.app")
	desktopApp, ok := fyneApp.(desktop.App)
	if !ok {
		return errors.New("system tray unsupported on this platform")
	}

	trayWindow := fyneApp.NewWindow("Focus Timer")
	trayWindow.SetContent(widget.NewLabel("Focus Timer is running in the system tray."))
	trayWindow.SetCloseIntercept(func() {
		trayWindow.Hide()
	})
	trayWindow.Hide()
	desktopApp.SetSystemTrayWindow(trayWindow)

	var notifier dispatch.Notifier
	if !noNotify {
		notifier = platform.NewNotifier(fyneApp)
	}
	dispatcher := dispatch.New(store, store, notifier, dispatch.Config{Timeout: 10 * time.Second})
	defer dispatcher.Close()

	keeper := timekeeper.New(settings, timekeeper.Config{
		Clock:      clock.NewTicker(time.Second),
		Dispatcher: dispatcher,
		Store:      store,
	})
	defer keeper.Close()

	ctx := context.Background()
	if _, err := keeper.Restore(ctx); err != nil {
		log.Printf("restore: %v", err)
	}
	if taskID != "" {
		if err := bindTask(ctx, keeper, store, taskID, minutes); err != nil {
			log.Printf("bind task %s: %v", taskID, err)
		}
	}

	trayManager := tray.New(desktopApp, tray.Callbacks{
		OnStartPause: func() {
			if keeper.State().IsRunning {
				_ = keeper.Pause()
				return
			}
			_ = keeper.Start()
		},
		OnReset: func() {
			_ = keeper.Reset()
			if err := reloadSettings(keeper); err != nil {
				log.Printf("settings: %v", err)
			}
		},
		OnAddFive: func() {
			_ = keeper.AddTime(5 * 60)
		},
		OnToggleCountUp: func() {
			_ = keeper.ToggleCountUp()
		},
		OnCompleteTask: func() {
			_ = keeper.CompleteTask()
		},
		OnQuit: func() {
			fyneApp.Quit()
		},
	})
	trayManager.Update(keeper.State(), keeper.Display())

	events := keeper.Subscribe(16)
	go func() {
		for event := range events {
			handleEvent(event, keeper, trayManager)
		}
	}()

	var flushOnce sync.Once
	flush := func() {
		flushOnce.Do(func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := keeper.Flush(flushCtx); err != nil {
				log.Printf("flush: %v", err)
			}
		})
	}
	fyneApp.Lifecycle().SetOnStopped(flush)

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-signalCtx.Done()
		fyne.Do(fyneApp.Quit)
	}()

	fyneApp.Run()
	flush()
	return nil
}

func bindTask(ctx context.Context, keeper *timekeeper.TimeKeeper, store *storage.SQLiteStore, taskID string, minutes int) error {
	task, err := store.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	if err := keeper.BindTask(model.BoundTask{ID: task.ID, Title: task.Title}, minutes*60); err != nil {
		return err
	}
	if _, err := store.MarkTaskStarted(ctx, task.ID); err != nil {
		return err
	}
	return nil
}

// reloadSettings applies the preferences file to a running keeper. An idle
// Focus or Break timer picks up a changed preset.
func reloadSettings(keeper *timekeeper.TimeKeeper) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	return keeper.UpdateConfig(settings)
}

func handleEvent(event timekeeper.Event, keeper *timekeeper.TimeKeeper, trayManager *tray.Manager) {
	session := event.Session
	value := session.RemainingSeconds
	if session.Mode.IsCountUp() {
		value = session.ElapsedSeconds
	}
	display := timekeeper.Format(value, keeper.Config().HideSeconds)

	switch event.Type {
	case timekeeper.EventTaskCompleted:
		log.Printf("task %s completed, %d min credited", event.Task.ID, event.Minutes)
	case timekeeper.EventTaskCancelled:
		log.Printf("task %s cancelled", event.Task.ID)
	case timekeeper.EventDispatchResult:
		if event.Message != "" {
			log.Printf("task update failed: %s", event.Message)
		}
	}

	fyne.Do(func() {
		trayManager.Update(session, display)
	})
}
