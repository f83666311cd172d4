package model

import "time"

// TaskStatus is the lifecycle status of a user task.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// Task is a user task as seen by the timer's collaborators.
type Task struct {
	ID              string
	Title           string
	Status          TaskStatus
	DurationMinutes int
	StartedAt       time.Time
	CompletedAt     time.Time
}

// TaskPatch is a partial task update. Nil fields are left unchanged.
type TaskPatch struct {
	Status          *TaskStatus
	DurationMinutes *int
}

// TaskResult is returned by task collaborators.
type TaskResult struct {
	Success bool
	Task    Task
}

// SessionKind labels a logged focus interval.
type SessionKind string

const SessionKindFocus SessionKind = "focus"

// FocusSession is a completed, logged focus interval. SessionID names the
// timer session instance it came from; a session is logged at most once.
type FocusSession struct {
	ID        string
	SessionID string
	Minutes   int
	Kind      SessionKind
	LoggedAt  time.Time
}
