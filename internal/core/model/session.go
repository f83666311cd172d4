package model

import "time"

// Mode is the active timer mode. Exactly one is active at a time.
type Mode string

const (
	ModeFocus         Mode = "focus"
	ModeBreak         Mode = "break"
	ModeCustom        Mode = "custom"
	ModeCountUp       Mode = "count_up"
	ModeTaskCountdown Mode = "task_countdown"
	ModeTaskCountUp   Mode = "task_count_up"
)

// Valid reports whether mode is one of the known modes.
func (mode Mode) Valid() bool {
	switch mode {
	case ModeFocus, ModeBreak, ModeCustom, ModeCountUp, ModeTaskCountdown, ModeTaskCountUp:
		return true
	}
	return false
}

// IsCountUp reports whether the mode counts elapsed time upwards.
func (mode Mode) IsCountUp() bool {
	return mode == ModeCountUp || mode == ModeTaskCountUp
}

// IsTaskBound reports whether the mode carries a bound task.
func (mode Mode) IsTaskBound() bool {
	return mode == ModeTaskCountdown || mode == ModeTaskCountUp
}

// IsPlainCountdown reports whether the mode is an unbound countdown.
func (mode Mode) IsPlainCountdown() bool {
	return mode == ModeFocus || mode == ModeBreak || mode == ModeCustom
}

// BoundTask identifies the task a session is tracking.
type BoundTask struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Session is the in-memory record of the current timer.
//
// BoundTask is non-nil exactly when Mode is task-bound. In countdown modes
// RemainingSeconds stays within [0, TotalSeconds]. StartedAt and EndsAt are the
// wall-clock anchors of a countdown and are zero when unset.
type Session struct {
	ID               string
	Mode             Mode
	RemainingSeconds int
	ElapsedSeconds   int
	TotalSeconds     int
	IsRunning        bool
	StartedAt        time.Time
	EndsAt           time.Time
	BoundTask        *BoundTask

	// LastCompletedTaskID latches the completion of the bound task so a
	// terminal event is dispatched at most once per binding.
	LastCompletedTaskID string
}

// Clone returns a deep copy of the session.
func (session Session) Clone() Session {
	if session.BoundTask != nil {
		task := *session.BoundTask
		session.BoundTask = &task
	}
	return session
}

// ScheduledSeconds returns the length of the countdown as anchored at start.
// It falls back to TotalSeconds when the session has no anchors.
func (session Session) ScheduledSeconds() int {
	if session.StartedAt.IsZero() || session.EndsAt.IsZero() || !session.EndsAt.After(session.StartedAt) {
		return session.TotalSeconds
	}
	return int(session.EndsAt.Sub(session.StartedAt) / time.Second)
}

// Snapshot is the durable record of a session written before the process exits.
type Snapshot struct {
	RemainingOrElapsedSeconds int        `json:"remaining_or_elapsed_seconds"`
	TotalSeconds              int        `json:"total_seconds"`
	Mode                      Mode       `json:"mode"`
	WasRunning                bool       `json:"was_running"`
	BoundTask                 *BoundTask `json:"bound_task,omitempty"`
	SavedAt                   time.Time  `json:"saved_at"`
}
