package model

import (
	"errors"
	"fmt"
)

const (
	MinFocusMinutes = 1
	MaxFocusMinutes = 120
	MinBreakMinutes = 1
	MaxBreakMinutes = 60
)

// ErrInvalidConfig indicates a PomodoroConfig outside of the supported ranges.
var ErrInvalidConfig = errors.New("invalid pomodoro config")

// PomodoroConfig contains the user's long-lived timer preferences.
type PomodoroConfig struct {
	FocusMinutes   int
	BreakMinutes   int
	AutoStartBreak bool
	HideSeconds    bool
}

// DefaultPomodoroConfig returns the preferences used when none were saved.
func DefaultPomodoroConfig() PomodoroConfig {
	return PomodoroConfig{
		FocusMinutes:   25,
		BreakMinutes:   5,
		AutoStartBreak: false,
		HideSeconds:    false,
	}
}

// Validate reports whether the configured durations are in range.
func (config PomodoroConfig) Validate() error {
	if config.FocusMinutes < MinFocusMinutes || config.FocusMinutes > MaxFocusMinutes {
		return fmt.Errorf("%w: focus minutes %d not in [%d,%d]",
			ErrInvalidConfig, config.FocusMinutes, MinFocusMinutes, MaxFocusMinutes)
	}
	if config.BreakMinutes < MinBreakMinutes || config.BreakMinutes > MaxBreakMinutes {
		return fmt.Errorf("%w: break minutes %d not in [%d,%d]",
			ErrInvalidConfig, config.BreakMinutes, MinBreakMinutes, MaxBreakMinutes)
	}
	return nil
}

// FocusSeconds returns the focus preset in seconds.
func (config PomodoroConfig) FocusSeconds() int {
	return config.FocusMinutes * 60
}

// BreakSeconds returns the break preset in seconds.
func (config PomodoroConfig) BreakSeconds() int {
	return config.BreakMinutes * 60
}
