package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"focustimer/internal/core/model"
	"focustimer/internal/storage"
)

const appName = "focustimer"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           appName,
		Short:         "Focus timer with task tracking",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("db", "", "path to the task database")
	rootCmd.PersistentFlags().String("settings", "", "path to the settings file")
	_ = viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("settings", rootCmd.PersistentFlags().Lookup("settings"))
	viper.SetEnvPrefix(appName)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newTasksCmd())
	rootCmd.AddCommand(newConfigCmd())
	return rootCmd
}

// loadSettings reads the preferences from --settings, or from the user's
// config directory when no path is given.
func loadSettings() (model.PomodoroConfig, error) {
	if path := viper.GetString("settings"); path != "" {
		return storage.LoadSettingsFile(path)
	}
	return storage.LoadSettings(appName)
}

func saveSettings(settings model.PomodoroConfig) error {
	if path := viper.GetString("settings"); path != "" {
		return storage.SaveSettingsFile(path, settings)
	}
	return storage.SaveSettings(appName, settings)
}

func databasePath() (string, error) {
	if path := viper.GetString("db"); path != "" {
		return path, nil
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	dir := filepath.Join(configDir, appName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return filepath.Join(dir, appName+".db"), nil
}

func openStore() (*storage.SQLiteStore, error) {
	path, err := databasePath()
	if err != nil {
		return nil, err
	}
	return openStoreAt(path)
}

func openStoreAt(path string) (*storage.SQLiteStore, error) {
	store, err := storage.NewSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	return store, nil
}
