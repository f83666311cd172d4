package timekeeper

import (
	"fmt"

	"github.com/google/uuid"

	"focustimer/internal/core/dispatch"
	"focustimer/internal/core/model"
)

// BindTask ties task to the timer and starts it. A positive duration gives a
// task countdown, zero an open-ended task stopwatch. Only one task can be bound;
// the current one must be completed or cancelled first.
func (keeper *TimeKeeper) BindTask(task model.BoundTask, seconds int) error {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	if keeper.closed {
		return ErrClosed
	}
	if keeper.session.BoundTask != nil {
		return ErrTaskAlreadyBound
	}
	if task.ID == "" {
		return ErrInvalidTask
	}
	if seconds < 0 {
		return ErrInvalidDuration
	}

	keeper.disarmLocked()
	bound := task
	session := model.Session{
		ID:        uuid.NewString(),
		Mode:      model.ModeTaskCountUp,
		BoundTask: &bound,
	}
	if seconds > 0 {
		session.Mode = model.ModeTaskCountdown
		session.TotalSeconds = seconds
		session.RemainingSeconds = seconds
	}
	keeper.session = session
	keeper.startLocked(keeper.clock.Now())
	keeper.emitStateLocked(EventStateChange)
	return nil
}

// CompleteTask completes the bound task with the time spent on it so far.
func (keeper *TimeKeeper) CompleteTask() error {
	keeper.mu.Lock()
	task := keeper.session.BoundTask
	if task == nil {
		keeper.mu.Unlock()
		return ErrNoTask
	}
	if keeper.session.LastCompletedTaskID == task.ID {
		keeper.mu.Unlock()
		return nil
	}

	session := keeper.session
	keeper.session.LastCompletedTaskID = task.ID
	job := &dispatch.Job{
		SessionID: session.ID,
		Task:      task,
	}
	if session.Mode == model.ModeTaskCountUp {
		minutes := roundMinutes(session.ElapsedSeconds)
		status := model.TaskStatusCompleted
		job.Action = dispatch.ActionUpdate
		job.Minutes = minutes
		job.Patch = model.TaskPatch{Status: &status, DurationMinutes: &minutes}
		job.LogMinutes = minutes
		job.LogKind = model.SessionKindFocus
	} else {
		job.Action = dispatch.ActionComplete
		job.Minutes = roundMinutes(session.ScheduledSeconds() - session.RemainingSeconds)
	}
	job.Notification = completionNotification(task, job.Minutes)

	keeper.finishTaskLocked(EventTaskCompleted, task, job.Minutes)
	keeper.mu.Unlock()

	keeper.dispatch(job)
	return nil
}

// CancelTask unbinds the task without completing it and reverts the task to
// its state before the timer.
func (keeper *TimeKeeper) CancelTask() error {
	keeper.mu.Lock()
	if keeper.session.BoundTask == nil {
		keeper.mu.Unlock()
		return ErrNoTask
	}
	job := keeper.cancelLocked()
	keeper.mu.Unlock()

	keeper.dispatch(job)
	return nil
}

// autoCompleteLocked credits the scheduled duration, so pausing during the
// session does not shorten it.
func (keeper *TimeKeeper) autoCompleteLocked() *dispatch.Job {
	session := keeper.session
	task := session.BoundTask
	if task == nil || session.LastCompletedTaskID == task.ID {
		return nil
	}
	keeper.session.LastCompletedTaskID = task.ID

	minutes := roundMinutes(session.ScheduledSeconds())
	job := &dispatch.Job{
		SessionID:    session.ID,
		Task:         task,
		Action:       dispatch.ActionComplete,
		Minutes:      minutes,
		Notification: completionNotification(task, minutes),
	}
	keeper.finishTaskLocked(EventTaskCompleted, task, minutes)
	return job
}

func (keeper *TimeKeeper) cancelLocked() *dispatch.Job {
	session := keeper.session
	job := &dispatch.Job{
		SessionID: session.ID,
		Task:      session.BoundTask,
		Action:    dispatch.ActionCancel,
	}
	keeper.finishTaskLocked(EventTaskCancelled, session.BoundTask, 0)
	return job
}

func (keeper *TimeKeeper) finishTaskLocked(eventType EventType, task *model.BoundTask, minutes int) {
	keeper.resetToIdleLocked()
	keeper.emitLocked(Event{
		Type:    eventType,
		Session: keeper.session.Clone(),
		Task:    task,
		Minutes: minutes,
		At:      keeper.clock.Now(),
	})
}

func completionNotification(task *model.BoundTask, minutes int) *dispatch.Notification {
	return &dispatch.Notification{
		Title: "Task completed",
		Body:  fmt.Sprintf("%s (%d min)", task.Title, minutes),
		Tag:   "task-" + task.ID,
	}
}
