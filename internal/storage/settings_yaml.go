package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"focustimer/internal/core/model"
)

const settingsFileName = "settings.yaml"

type yamlSettings struct {
	FocusMinutes   int  `yaml:"focus_minutes"`
	BreakMinutes   int  `yaml:"break_minutes"`
	AutoStartBreak bool `yaml:"auto_start_break"`
	HideSeconds    bool `yaml:"hide_seconds"`
}

// LoadSettings reads timer preferences from the user's config directory.
// If the config file does not exist, default settings are returned.
func LoadSettings(appName string) (model.PomodoroConfig, error) {
	configPath, err := SettingsPath(appName)
	if err != nil {
		return model.DefaultPomodoroConfig(), err
	}
	return LoadSettingsFile(configPath)
}

// LoadSettingsFile reads timer preferences from configPath.
// Out-of-range values fall back to their defaults.
func LoadSettingsFile(configPath string) (model.PomodoroConfig, error) {
	settings := model.DefaultPomodoroConfig()

	rawData, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("parse settings yaml: %w", err)
	}

	applyYamlSettings(&settings, fileData)
	return settings, nil
}

// SaveSettings writes timer preferences to the user's config directory.
func SaveSettings(appName string, settings model.PomodoroConfig) error {
	configPath, err := SettingsPath(appName)
	if err != nil {
		return err
	}
	return SaveSettingsFile(configPath, settings)
}

// SaveSettingsFile writes timer preferences to configPath.
func SaveSettingsFile(configPath string, settings model.PomodoroConfig) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	fileData := yamlSettings{
		FocusMinutes:   settings.FocusMinutes,
		BreakMinutes:   settings.BreakMinutes,
		AutoStartBreak: settings.AutoStartBreak,
		HideSeconds:    settings.HideSeconds,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := os.WriteFile(configPath, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	return nil
}

// SettingsPath returns the settings file location for appName.
func SettingsPath(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, settingsFileName), nil
}

func applyYamlSettings(settings *model.PomodoroConfig, fileData yamlSettings) {
	if fileData.FocusMinutes >= model.MinFocusMinutes && fileData.FocusMinutes <= model.MaxFocusMinutes {
		settings.FocusMinutes = fileData.FocusMinutes
	}
	if fileData.BreakMinutes >= model.MinBreakMinutes && fileData.BreakMinutes <= model.MaxBreakMinutes {
		settings.BreakMinutes = fileData.BreakMinutes
	}

	settings.AutoStartBreak = fileData.AutoStartBreak
	settings.HideSeconds = fileData.HideSeconds
}
