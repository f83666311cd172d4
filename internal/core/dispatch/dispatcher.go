package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"focustimer/internal/core/model"
)

var (
	// ErrClosed is returned by Dispatch after Close.
	ErrClosed = errors.New("dispatcher closed")
	// ErrTaskRejected indicates a task collaborator answered without success.
	ErrTaskRejected = errors.New("task update rejected")
)

// TaskService mutates tasks on behalf of the timer.
type TaskService interface {
	CompleteTask(ctx context.Context, taskID string, durationMinutes int) (model.TaskResult, error)
	CancelTask(ctx context.Context, taskID string) (model.TaskResult, error)
	UpdateTask(ctx context.Context, taskID string, patch model.TaskPatch) (model.TaskResult, error)
}

// FocusLogger records finished focus intervals. sessionID identifies the timer
// session instance so a repeated log of the same session can be dropped.
type FocusLogger interface {
	LogFocusSession(ctx context.Context, sessionID string, minutes int, kind model.SessionKind) error
}

// Notifier shows a local notification to the user.
type Notifier interface {
	NotifyUser(title, body, tag string) error
}

// TaskAction selects the task collaborator call made for a Job.
type TaskAction int

const (
	ActionNone TaskAction = iota
	ActionComplete
	ActionCancel
	ActionUpdate
)

func (action TaskAction) String() string {
	switch action {
	case ActionComplete:
		return "complete"
	case ActionCancel:
		return "cancel"
	case ActionUpdate:
		return "update"
	default:
		return "none"
	}
}

// Notification is a user-facing message.
type Notification struct {
	Title string
	Body  string
	Tag   string
}

// Job describes the side effects of one terminal event of the session
// instance SessionID.
type Job struct {
	SessionID    string
	Task         *model.BoundTask
	Action       TaskAction
	Minutes      int
	Patch        model.TaskPatch
	LogMinutes   int
	LogKind      model.SessionKind
	Notification *Notification
}

// Result reports the outcome of a Job. Err only carries task update failures;
// logging and notification failures are logged and swallowed.
type Result struct {
	Job  Job
	Task *model.Task
	Err  error
}

// Config contains runtime options for the Dispatcher.
type Config struct {
	Timeout   time.Duration
	QueueSize int
}

// Dispatcher runs Jobs in order on a single worker goroutine.
type Dispatcher struct {
	mu       sync.Mutex
	tasks    TaskService
	logger   FocusLogger
	notifier Notifier
	options  Config
	queue    chan Job
	pending  sync.WaitGroup
	done     chan struct{}
	closed   bool

	handlerMu sync.Mutex
	onResult  func(Result)
}

// New creates a Dispatcher and starts its worker. Nil collaborators are skipped.
func New(tasks TaskService, logger FocusLogger, notifier Notifier, options Config) *Dispatcher {
	if options.Timeout <= 0 {
		options.Timeout = 10 * time.Second
	}
	if options.QueueSize <= 0 {
		options.QueueSize = 16
	}

	dispatcher := &Dispatcher{
		tasks:    tasks,
		logger:   logger,
		notifier: notifier,
		options:  options,
		queue:    make(chan Job, options.QueueSize),
		done:     make(chan struct{}),
	}
	go dispatcher.run()
	return dispatcher
}

// OnResult registers the handler called after every Job.
func (dispatcher *Dispatcher) OnResult(handler func(Result)) {
	dispatcher.handlerMu.Lock()
	defer dispatcher.handlerMu.Unlock()
	dispatcher.onResult = handler
}

// Dispatch queues job for execution.
func (dispatcher *Dispatcher) Dispatch(job Job) error {
	dispatcher.mu.Lock()
	defer dispatcher.mu.Unlock()
	if dispatcher.closed {
		return ErrClosed
	}
	dispatcher.pending.Add(1)
	dispatcher.queue <- job
	return nil
}

// Wait blocks until every queued Job has been handled.
func (dispatcher *Dispatcher) Wait() {
	dispatcher.pending.Wait()
}

// Close stops accepting Jobs and waits for the queue to drain.
func (dispatcher *Dispatcher) Close() {
	dispatcher.mu.Lock()
	if dispatcher.closed {
		dispatcher.mu.Unlock()
		return
	}
	dispatcher.closed = true
	close(dispatcher.queue)
	dispatcher.mu.Unlock()

	<-dispatcher.done
}

func (dispatcher *Dispatcher) run() {
	defer close(dispatcher.done)
	for job := range dispatcher.queue {
		result := dispatcher.execute(job)

		dispatcher.handlerMu.Lock()
		handler := dispatcher.onResult
		dispatcher.handlerMu.Unlock()
		if handler != nil {
			handler(result)
		}
		dispatcher.pending.Done()
	}
}

func (dispatcher *Dispatcher) execute(job Job) Result {
	ctx, cancel := context.WithTimeout(context.Background(), dispatcher.options.Timeout)
	defer cancel()

	result := Result{Job: job}

	if job.Action != ActionNone && job.Task != nil && dispatcher.tasks != nil {
		task, err := dispatcher.updateTask(ctx, job)
		if err != nil {
			log.Printf("dispatch: session %s: %s task %s: %v", job.SessionID, job.Action, job.Task.ID, err)
			result.Err = err
		} else {
			result.Task = task
		}
	}

	if job.LogMinutes >= 1 && dispatcher.logger != nil {
		kind := job.LogKind
		if kind == "" {
			kind = model.SessionKindFocus
		}
		if err := dispatcher.logger.LogFocusSession(ctx, job.SessionID, job.LogMinutes, kind); err != nil {
			log.Printf("dispatch: session %s: log focus session: %v", job.SessionID, err)
		}
	}

	if job.Notification != nil && dispatcher.notifier != nil {
		notification := job.Notification
		if err := dispatcher.notifier.NotifyUser(notification.Title, notification.Body, notification.Tag); err != nil {
			log.Printf("dispatch: session %s: notify user: %v", job.SessionID, err)
		}
	}

	return result
}

func (dispatcher *Dispatcher) updateTask(ctx context.Context, job Job) (*model.Task, error) {
	var (
		taskResult model.TaskResult
		err        error
	)
	switch job.Action {
	case ActionComplete:
		taskResult, err = dispatcher.tasks.CompleteTask(ctx, job.Task.ID, job.Minutes)
	case ActionCancel:
		taskResult, err = dispatcher.tasks.CancelTask(ctx, job.Task.ID)
	case ActionUpdate:
		taskResult, err = dispatcher.tasks.UpdateTask(ctx, job.Task.ID, job.Patch)
	default:
		return nil, fmt.Errorf("unknown task action %d", job.Action)
	}
	if err != nil {
		return nil, err
	}
	if !taskResult.Success {
		return nil, ErrTaskRejected
	}
	task := taskResult.Task
	return &task, nil
}
