package timekeeper

import (
	"context"
	"sync"
	"testing"
	"time"

	"focustimer/internal/core/clock"
	"focustimer/internal/core/dispatch"
	"focustimer/internal/core/model"
)

type taskCall struct {
	action  string
	taskID  string
	minutes int
	patch   model.TaskPatch
}

type logCall struct {
	sessionID string
	minutes   int
	kind      model.SessionKind
}

type collaborators struct {
	mu            sync.Mutex
	tasks         []taskCall
	logs          []logCall
	notifications []string
	taskErr       error
}

func (c *collaborators) CompleteTask(_ context.Context, taskID string, minutes int) (model.TaskResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = append(c.tasks, taskCall{action: "complete", taskID: taskID, minutes: minutes})
	return model.TaskResult{Success: c.taskErr == nil, Task: model.Task{ID: taskID}}, c.taskErr
}

func (c *collaborators) CancelTask(_ context.Context, taskID string) (model.TaskResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = append(c.tasks, taskCall{action: "cancel", taskID: taskID})
	return model.TaskResult{Success: c.taskErr == nil, Task: model.Task{ID: taskID}}, c.taskErr
}

func (c *collaborators) UpdateTask(_ context.Context, taskID string, patch model.TaskPatch) (model.TaskResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = append(c.tasks, taskCall{action: "update", taskID: taskID, patch: patch})
	return model.TaskResult{Success: c.taskErr == nil, Task: model.Task{ID: taskID}}, c.taskErr
}

func (c *collaborators) LogFocusSession(_ context.Context, sessionID string, minutes int, kind model.SessionKind) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logs = append(c.logs, logCall{sessionID: sessionID, minutes: minutes, kind: kind})
	return nil
}

func (c *collaborators) NotifyUser(_, _, tag string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifications = append(c.notifications, tag)
	return nil
}

func (c *collaborators) taskCalls() []taskCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]taskCall(nil), c.tasks...)
}

func (c *collaborators) logCalls() []logCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]logCall(nil), c.logs...)
}

func (c *collaborators) notifyCalls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.notifications...)
}

type harness struct {
	keeper     *TimeKeeper
	clock      *clock.Manual
	dispatcher *dispatch.Dispatcher
	collab     *collaborators
}

var testStart = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newHarness(t *testing.T, config model.PomodoroConfig, store SnapshotStore) *harness {
	t.Helper()
	collab := &collaborators{}
	manual := clock.NewManual(testStart)
	dispatcher := dispatch.New(collab, collab, collab, dispatch.Config{})
	keeper := New(config, Config{Clock: manual, Dispatcher: dispatcher, Store: store})
	t.Cleanup(func() {
		keeper.Close()
		dispatcher.Close()
	})
	return &harness{keeper: keeper, clock: manual, dispatcher: dispatcher, collab: collab}
}

// settle waits for every dispatched side effect to finish.
func (h *harness) settle() {
	h.dispatcher.Wait()
}

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
