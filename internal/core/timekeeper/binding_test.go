package timekeeper

import (
	"errors"
	"testing"
	"time"

	"focustimer/internal/core/model"
)

var taskT = model.BoundTask{ID: "T", Title: "Write report"}

func assertIdle(t *testing.T, h *harness) {
	t.Helper()
	state := h.keeper.State()
	if state.Mode != model.ModeFocus || state.BoundTask != nil || state.IsRunning {
		t.Fatalf("expected idle unbound focus, got %+v", state)
	}
	if state.TotalSeconds != 1500 || state.RemainingSeconds != 1500 {
		t.Fatalf("expected default duration, got %d/%d", state.RemainingSeconds, state.TotalSeconds)
	}
	if h.clock.Armed() {
		t.Fatalf("expected clock disarmed")
	}
}

func TestBindTaskStartsTimer(t *testing.T) {
	tests := []struct {
		name    string
		seconds int
		mode    model.Mode
	}{
		{name: "countdown", seconds: 300, mode: model.ModeTaskCountdown},
		{name: "count up", seconds: 0, mode: model.ModeTaskCountUp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, model.DefaultPomodoroConfig(), nil)
			mustNoErr(t, h.keeper.BindTask(taskT, tt.seconds))

			state := h.keeper.State()
			if state.Mode != tt.mode || !state.IsRunning {
				t.Fatalf("unexpected state: %+v", state)
			}
			if state.BoundTask == nil || state.BoundTask.ID != "T" {
				t.Fatalf("bound task = %+v, want T", state.BoundTask)
			}
			if state.TotalSeconds != tt.seconds || state.RemainingSeconds != tt.seconds {
				t.Fatalf("duration = %d/%d, want %d", state.RemainingSeconds, state.TotalSeconds, tt.seconds)
			}
		})
	}
}

func TestBindTaskRejections(t *testing.T) {
	h := newHarness(t, model.DefaultPomodoroConfig(), nil)

	if err := h.keeper.BindTask(model.BoundTask{}, 60); !errors.Is(err, ErrInvalidTask) {
		t.Fatalf("BindTask without id = %v, want ErrInvalidTask", err)
	}
	if err := h.keeper.BindTask(taskT, -1); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("BindTask negative = %v, want ErrInvalidDuration", err)
	}

	mustNoErr(t, h.keeper.BindTask(taskT, 300))
	if err := h.keeper.BindTask(model.BoundTask{ID: "U"}, 300); !errors.Is(err, ErrTaskAlreadyBound) {
		t.Fatalf("second BindTask = %v, want ErrTaskAlreadyBound", err)
	}
	if got := h.keeper.State().BoundTask.ID; got != "T" {
		t.Fatalf("bound task changed to %s", got)
	}

	mustNoErr(t, h.keeper.CancelTask())
	mustNoErr(t, h.keeper.BindTask(model.BoundTask{ID: "U"}, 300))
	if got := h.keeper.State().BoundTask.ID; got != "U" {
		t.Fatalf("bound task = %s, want U", got)
	}
}

func TestTaskCountdownAutoCompletesOnce(t *testing.T) {
	h := newHarness(t, model.DefaultPomodoroConfig(), nil)
	events := h.keeper.Subscribe(1024)

	mustNoErr(t, h.keeper.BindTask(taskT, 300))
	mustNoErr(t, h.keeper.Start())
	h.clock.Advance(300)
	h.clock.Advance(10)
	h.settle()

	calls := h.collab.taskCalls()
	if len(calls) != 1 {
		t.Fatalf("task calls = %+v, want exactly one", calls)
	}
	if calls[0].action != "complete" || calls[0].taskID != "T" || calls[0].minutes != 5 {
		t.Fatalf("task call = %+v, want complete(T, 5)", calls[0])
	}
	if notes := h.collab.notifyCalls(); len(notes) != 1 || notes[0] != "task-T" {
		t.Fatalf("notifications = %v, want one for T", notes)
	}
	if len(h.collab.logCalls()) != 0 {
		t.Fatalf("countdown completion must not log a focus session")
	}
	assertIdle(t, h)
	if got := h.keeper.State().LastCompletedTaskID; got != "T" {
		t.Fatalf("completion latch = %q, want T", got)
	}

	completed := 0
	for len(events) > 0 {
		if event := <-events; event.Type == EventTaskCompleted {
			completed++
			if event.Minutes != 5 || event.Task == nil || event.Task.ID != "T" {
				t.Fatalf("unexpected completion event: %+v", event)
			}
		}
	}
	if completed != 1 {
		t.Fatalf("completion events = %d, want 1", completed)
	}
}

func TestAutoCompleteCreditsScheduleDespitePauses(t *testing.T) {
	h := newHarness(t, model.DefaultPomodoroConfig(), nil)
	mustNoErr(t, h.keeper.BindTask(taskT, 300))
	startedAt := h.keeper.State().StartedAt

	for i := 0; i < 3; i++ {
		h.clock.Advance(50)
		mustNoErr(t, h.keeper.Pause())
		h.clock.Skip(10 * time.Minute)
		mustNoErr(t, h.keeper.Start())
		if got := h.keeper.State().StartedAt; !got.Equal(startedAt) {
			t.Fatalf("StartedAt moved on resume: %v -> %v", startedAt, got)
		}
	}
	h.clock.Advance(150)
	h.settle()

	calls := h.collab.taskCalls()
	if len(calls) != 1 || calls[0].minutes != 5 {
		t.Fatalf("task calls = %+v, want complete(T, 5)", calls)
	}
}

func TestManualCompleteCountdownCreditsTimeSpent(t *testing.T) {
	h := newHarness(t, model.DefaultPomodoroConfig(), nil)
	mustNoErr(t, h.keeper.BindTask(taskT, 600))
	h.clock.Advance(150)

	mustNoErr(t, h.keeper.CompleteTask())
	h.settle()

	calls := h.collab.taskCalls()
	if len(calls) != 1 || calls[0].action != "complete" || calls[0].minutes != 3 {
		t.Fatalf("task calls = %+v, want complete(T, 3)", calls)
	}
	assertIdle(t, h)
}

func TestManualCompleteCountUpUpdatesAndLogs(t *testing.T) {
	h := newHarness(t, model.DefaultPomodoroConfig(), nil)
	mustNoErr(t, h.keeper.BindTask(taskT, 0))
	h.clock.Advance(125)
	sessionID := h.keeper.State().ID

	mustNoErr(t, h.keeper.CompleteTask())
	if err := h.keeper.CompleteTask(); !errors.Is(err, ErrNoTask) {
		t.Fatalf("second CompleteTask = %v, want ErrNoTask", err)
	}
	h.settle()

	calls := h.collab.taskCalls()
	if len(calls) != 1 || calls[0].action != "update" || calls[0].taskID != "T" {
		t.Fatalf("task calls = %+v, want update(T)", calls)
	}
	patch := calls[0].patch
	if patch.Status == nil || *patch.Status != model.TaskStatusCompleted {
		t.Fatalf("patch status = %v, want completed", patch.Status)
	}
	if patch.DurationMinutes == nil || *patch.DurationMinutes != 2 {
		t.Fatalf("patch duration = %v, want 2", patch.DurationMinutes)
	}
	logs := h.collab.logCalls()
	if len(logs) != 1 || logs[0].minutes != 2 || logs[0].kind != model.SessionKindFocus {
		t.Fatalf("log calls = %+v, want log(2, focus)", logs)
	}
	if logs[0].sessionID != sessionID {
		t.Fatalf("logged session = %q, want %q", logs[0].sessionID, sessionID)
	}
	if h.keeper.State().ID == sessionID {
		t.Fatalf("idle session reused the completed session id")
	}
	assertIdle(t, h)
}

func TestManualCompleteCountUpUnderAMinuteSkipsLog(t *testing.T) {
	h := newHarness(t, model.DefaultPomodoroConfig(), nil)
	mustNoErr(t, h.keeper.BindTask(taskT, 0))
	h.clock.Advance(20)

	mustNoErr(t, h.keeper.CompleteTask())
	h.settle()

	if calls := h.collab.taskCalls(); len(calls) != 1 || calls[0].action != "update" {
		t.Fatalf("task calls = %+v, want one update", calls)
	}
	if logs := h.collab.logCalls(); len(logs) != 0 {
		t.Fatalf("log calls = %+v, want none", logs)
	}
}

func TestResetCancelsBoundTask(t *testing.T) {
	h := newHarness(t, model.DefaultPomodoroConfig(), nil)
	mustNoErr(t, h.keeper.BindTask(taskT, 300))
	h.clock.Advance(10)

	mustNoErr(t, h.keeper.Reset())
	h.clock.Advance(5)
	h.settle()

	calls := h.collab.taskCalls()
	if len(calls) != 1 || calls[0].action != "cancel" || calls[0].taskID != "T" {
		t.Fatalf("task calls = %+v, want cancel(T)", calls)
	}
	if len(h.collab.logCalls()) != 0 || len(h.collab.notifyCalls()) != 0 {
		t.Fatalf("cancel must not log or notify")
	}
	assertIdle(t, h)
}

func TestCancelWithoutTask(t *testing.T) {
	h := newHarness(t, model.DefaultPomodoroConfig(), nil)
	if err := h.keeper.CancelTask(); !errors.Is(err, ErrNoTask) {
		t.Fatalf("CancelTask = %v, want ErrNoTask", err)
	}
	if err := h.keeper.CompleteTask(); !errors.Is(err, ErrNoTask) {
		t.Fatalf("CompleteTask = %v, want ErrNoTask", err)
	}
}

func TestCollaboratorFailureStillReturnsToIdle(t *testing.T) {
	h := newHarness(t, model.DefaultPomodoroConfig(), nil)
	h.collab.taskErr = errors.New("store offline")
	events := h.keeper.Subscribe(1024)

	mustNoErr(t, h.keeper.BindTask(taskT, 60))
	h.clock.Advance(60)
	assertIdle(t, h)
	h.settle()

	if err := h.keeper.LastDispatchError(); err == nil {
		t.Fatalf("expected dispatch error to be kept")
	}
	var result *Event
	for len(events) > 0 {
		event := <-events
		if event.Type == EventDispatchResult {
			result = &event
		}
	}
	if result == nil || result.Message == "" {
		t.Fatalf("expected failed dispatch result event, got %+v", result)
	}

	h.collab.taskErr = nil
	mustNoErr(t, h.keeper.BindTask(model.BoundTask{ID: "U"}, 60))
	h.clock.Advance(60)
	h.settle()
	if err := h.keeper.LastDispatchError(); err != nil {
		t.Fatalf("LastDispatchError after success = %v", err)
	}
}

func TestRebindClearsCompletionLatch(t *testing.T) {
	h := newHarness(t, model.DefaultPomodoroConfig(), nil)

	for i := 0; i < 2; i++ {
		mustNoErr(t, h.keeper.BindTask(taskT, 60))
		if got := h.keeper.State().LastCompletedTaskID; got != "" {
			t.Fatalf("latch = %q after bind, want empty", got)
		}
		h.clock.Advance(60)
	}
	h.settle()

	if calls := h.collab.taskCalls(); len(calls) != 2 {
		t.Fatalf("task calls = %+v, want two completions", calls)
	}
}
