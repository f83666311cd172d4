package timekeeper

import (
	"time"

	"focustimer/internal/core/model"
)

// EventType defines the type of TimeKeeper event.
type EventType string

const (
	EventStateChange    EventType = "state_change"
	EventTick           EventType = "tick"
	EventTimeUp         EventType = "time_up"
	EventAutoBreak      EventType = "auto_break"
	EventTaskCompleted  EventType = "task_completed"
	EventTaskCancelled  EventType = "task_cancelled"
	EventDispatchResult EventType = "dispatch_result"
)

// Event represents a TimeKeeper update for observers.
type Event struct {
	Type    EventType
	Session model.Session
	Task    *model.BoundTask
	Minutes int
	Message string
	At      time.Time
}
