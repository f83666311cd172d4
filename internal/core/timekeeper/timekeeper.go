package timekeeper

import (
	"errors"
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"focustimer/internal/core/clock"
	"focustimer/internal/core/dispatch"
	"focustimer/internal/core/model"
)

var (
	ErrRunning          = errors.New("timer is running")
	ErrTaskBound        = errors.New("a task is bound to the timer")
	ErrTaskAlreadyBound = errors.New("another task is already bound")
	ErrNoTask           = errors.New("no task is bound")
	ErrInvalidTask      = errors.New("task id is empty")
	ErrInvalidDuration  = errors.New("duration must be positive")
	ErrInvalidMode      = errors.New("mode not selectable")
	ErrCountUp          = errors.New("not available in count-up mode")
	ErrClosed           = errors.New("timekeeper closed")
)

// Dispatcher runs the side effects of terminal events.
type Dispatcher interface {
	Dispatch(job dispatch.Job) error
	OnResult(handler func(dispatch.Result))
	Wait()
}

// Config contains the collaborators of a TimeKeeper. Nil fields are optional,
// except Clock which defaults to a one second Ticker.
type Config struct {
	Clock      clock.Clock
	Dispatcher Dispatcher
	Store      SnapshotStore
}

// TimeKeeper owns the timer session and is the only place it is mutated.
type TimeKeeper struct {
	mu          sync.Mutex
	config      model.PomodoroConfig
	clock       clock.Clock
	dispatcher  Dispatcher
	store       SnapshotStore
	session     model.Session
	generation  uint64
	zeroLatched bool
	lastErr     error
	events      []chan Event
	closed      bool
}

// New creates an idle TimeKeeper in Focus mode. An invalid config is replaced
// by the defaults.
func New(config model.PomodoroConfig, options Config) *TimeKeeper {
	if err := config.Validate(); err != nil {
		log.Printf("timekeeper: %v, using defaults", err)
		config = model.DefaultPomodoroConfig()
	}
	if options.Clock == nil {
		options.Clock = clock.NewTicker(time.Second)
	}

	keeper := &TimeKeeper{
		config:     config,
		clock:      options.Clock,
		dispatcher: options.Dispatcher,
		store:      options.Store,
	}
	keeper.session = keeper.idleSessionLocked()
	if keeper.dispatcher != nil {
		keeper.dispatcher.OnResult(keeper.handleResult)
	}
	return keeper
}

// Subscribe registers a new observer channel.
func (keeper *TimeKeeper) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	keeper.mu.Lock()
	if keeper.closed {
		keeper.mu.Unlock()
		close(ch)
		return ch
	}
	keeper.events = append(keeper.events, ch)
	keeper.mu.Unlock()
	return ch
}

// Close disarms the clock, closes observers and waits until side effects
// already handed to the dispatcher have run. The dispatcher itself stays open;
// its owner closes it. Close must not be called from a result handler.
func (keeper *TimeKeeper) Close() {
	keeper.mu.Lock()
	if keeper.closed {
		keeper.mu.Unlock()
		return
	}
	keeper.closed = true
	keeper.disarmLocked()
	events := keeper.events
	keeper.events = nil
	keeper.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
	if keeper.dispatcher != nil {
		keeper.dispatcher.Wait()
	}
}

// State returns a copy of the current session.
func (keeper *TimeKeeper) State() model.Session {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.session.Clone()
}

// Config returns the active preferences.
func (keeper *TimeKeeper) Config() model.PomodoroConfig {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.config
}

// LastDispatchError returns the task update failure of the latest terminal
// event, or nil when it succeeded.
func (keeper *TimeKeeper) LastDispatchError() error {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.lastErr
}

// UpdateConfig replaces the preferences. An idle unbound Focus or Break timer
// sitting at its full duration picks up the new preset.
func (keeper *TimeKeeper) UpdateConfig(config model.PomodoroConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}

	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	keeper.config = config

	session := &keeper.session
	if session.IsRunning || session.BoundTask != nil || session.RemainingSeconds != session.TotalSeconds {
		return nil
	}
	switch session.Mode {
	case model.ModeFocus:
		keeper.setDurationLocked(config.FocusSeconds())
	case model.ModeBreak:
		keeper.setDurationLocked(config.BreakSeconds())
	default:
		return nil
	}
	keeper.emitStateLocked(EventStateChange)
	return nil
}

// SetDuration sets the countdown length of the unbound timer.
func (keeper *TimeKeeper) SetDuration(seconds int) error {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	if err := keeper.checkEditableLocked(); err != nil {
		return err
	}
	if keeper.session.Mode.IsCountUp() {
		return ErrCountUp
	}
	if seconds <= 0 {
		return ErrInvalidDuration
	}
	keeper.setDurationLocked(seconds)
	keeper.emitStateLocked(EventStateChange)
	return nil
}

// SelectMode switches the unbound, stopped timer between Focus, Break, Custom
// and CountUp. Focus and Break load their preset durations.
func (keeper *TimeKeeper) SelectMode(mode model.Mode) error {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	if err := keeper.checkEditableLocked(); err != nil {
		return err
	}

	session := &keeper.session
	switch mode {
	case model.ModeFocus:
		session.Mode = mode
		keeper.setDurationLocked(keeper.config.FocusSeconds())
	case model.ModeBreak:
		session.Mode = mode
		keeper.setDurationLocked(keeper.config.BreakSeconds())
	case model.ModeCustom:
		total := session.TotalSeconds
		if session.Mode.IsCountUp() || total <= 0 {
			total = keeper.config.FocusSeconds()
		}
		session.Mode = mode
		keeper.setDurationLocked(total)
	case model.ModeCountUp:
		keeper.enterCountUpLocked()
	default:
		return ErrInvalidMode
	}
	keeper.emitStateLocked(EventStateChange)
	return nil
}

// Start runs the timer. A finished plain countdown restarts from its total.
// Starting a running timer is a no-op unless its countdown has finished.
func (keeper *TimeKeeper) Start() error {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	if keeper.closed {
		return ErrClosed
	}

	session := &keeper.session
	finished := session.Mode.IsPlainCountdown() && session.RemainingSeconds == 0
	if session.IsRunning && !finished {
		return nil
	}
	if !session.Mode.IsCountUp() {
		if session.TotalSeconds <= 0 {
			return ErrInvalidDuration
		}
		if session.RemainingSeconds == 0 {
			if !finished {
				return nil
			}
			session.RemainingSeconds = session.TotalSeconds
			session.StartedAt = time.Time{}
			session.EndsAt = time.Time{}
		}
	}

	keeper.startLocked(keeper.clock.Now())
	keeper.emitStateLocked(EventStateChange)
	return nil
}

// Pause stops the clock. Remaining and elapsed values stay at their last tick.
func (keeper *TimeKeeper) Pause() error {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	if !keeper.session.IsRunning {
		return nil
	}
	keeper.session.IsRunning = false
	keeper.disarmLocked()
	keeper.emitStateLocked(EventStateChange)
	return nil
}

// Reset stops the timer and restores its starting value. A task-bound timer is
// cancelled instead.
func (keeper *TimeKeeper) Reset() error {
	keeper.mu.Lock()
	if keeper.session.BoundTask != nil {
		job := keeper.cancelLocked()
		keeper.mu.Unlock()
		keeper.dispatch(job)
		return nil
	}
	defer keeper.mu.Unlock()

	keeper.disarmLocked()
	session := &keeper.session
	session.ID = uuid.NewString()
	session.IsRunning = false
	session.StartedAt = time.Time{}
	session.EndsAt = time.Time{}
	if session.Mode.IsCountUp() {
		session.ElapsedSeconds = 0
	} else {
		session.RemainingSeconds = session.TotalSeconds
	}
	keeper.zeroLatched = false
	keeper.emitStateLocked(EventStateChange)
	return nil
}

// AddTime extends an unbound countdown, also while it runs.
func (keeper *TimeKeeper) AddTime(deltaSeconds int) error {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	session := &keeper.session
	if session.BoundTask != nil {
		return ErrTaskBound
	}
	if session.Mode.IsCountUp() {
		return ErrCountUp
	}
	if deltaSeconds <= 0 {
		return ErrInvalidDuration
	}

	session.RemainingSeconds += deltaSeconds
	session.TotalSeconds += deltaSeconds
	if session.IsRunning && !session.EndsAt.IsZero() {
		session.EndsAt = session.EndsAt.Add(time.Duration(deltaSeconds) * time.Second)
	}
	keeper.zeroLatched = false
	keeper.emitStateLocked(EventStateChange)
	return nil
}

// ToggleCountUp switches the unbound timer between stopwatch and Focus
// countdown. The timer is stopped by the switch.
func (keeper *TimeKeeper) ToggleCountUp() error {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	if keeper.session.BoundTask != nil {
		return ErrTaskBound
	}

	keeper.disarmLocked()
	keeper.session.IsRunning = false
	if keeper.session.Mode.IsCountUp() {
		keeper.session.Mode = model.ModeFocus
		keeper.setDurationLocked(keeper.config.FocusSeconds())
	} else {
		keeper.enterCountUpLocked()
	}
	keeper.emitStateLocked(EventStateChange)
	return nil
}

func (keeper *TimeKeeper) tick(generation uint64, now time.Time) {
	keeper.mu.Lock()
	if keeper.closed || generation != keeper.generation || !keeper.session.IsRunning {
		keeper.mu.Unlock()
		return
	}

	var job *dispatch.Job
	session := &keeper.session
	if session.Mode.IsCountUp() {
		session.ElapsedSeconds++
		keeper.emitStateLocked(EventTick)
	} else {
		if session.RemainingSeconds > 0 {
			session.RemainingSeconds--
		}
		keeper.emitStateLocked(EventTick)
		if session.RemainingSeconds == 0 {
			job = keeper.handleZeroLocked(now)
		}
	}
	keeper.mu.Unlock()

	keeper.dispatch(job)
}

func (keeper *TimeKeeper) handleZeroLocked(now time.Time) *dispatch.Job {
	if keeper.session.Mode == model.ModeTaskCountdown {
		return keeper.autoCompleteLocked()
	}
	if keeper.zeroLatched {
		return nil
	}
	keeper.zeroLatched = true
	keeper.emitStateLocked(EventTimeUp)
	if keeper.session.Mode == model.ModeFocus && keeper.config.AutoStartBreak {
		return keeper.autoBreakLocked(now)
	}
	return nil
}

func (keeper *TimeKeeper) startLocked(now time.Time) {
	session := &keeper.session
	session.IsRunning = true
	switch {
	case session.Mode.IsCountUp():
		if session.StartedAt.IsZero() {
			session.StartedAt = now
		}
	case session.BoundTask != nil:
		if session.StartedAt.IsZero() || session.EndsAt.IsZero() {
			spent := time.Duration(session.TotalSeconds-session.RemainingSeconds) * time.Second
			session.StartedAt = now.Add(-spent)
			session.EndsAt = session.StartedAt.Add(time.Duration(session.TotalSeconds) * time.Second)
		}
	default:
		session.StartedAt = now
		session.EndsAt = now.Add(time.Duration(session.RemainingSeconds) * time.Second)
	}
	keeper.zeroLatched = false
	keeper.armLocked()
}

func (keeper *TimeKeeper) armLocked() {
	keeper.clock.Disarm()
	keeper.generation++
	generation := keeper.generation
	keeper.clock.Arm(func(now time.Time) {
		keeper.tick(generation, now)
	})
}

func (keeper *TimeKeeper) disarmLocked() {
	keeper.generation++
	keeper.clock.Disarm()
}

func (keeper *TimeKeeper) checkEditableLocked() error {
	if keeper.session.BoundTask != nil {
		return ErrTaskBound
	}
	if keeper.session.IsRunning {
		return ErrRunning
	}
	return nil
}

func (keeper *TimeKeeper) setDurationLocked(seconds int) {
	session := &keeper.session
	session.TotalSeconds = seconds
	session.RemainingSeconds = seconds
	session.ElapsedSeconds = 0
	session.StartedAt = time.Time{}
	session.EndsAt = time.Time{}
	keeper.zeroLatched = false
}

func (keeper *TimeKeeper) enterCountUpLocked() {
	session := &keeper.session
	session.Mode = model.ModeCountUp
	session.TotalSeconds = 0
	session.RemainingSeconds = 0
	session.ElapsedSeconds = 0
	session.StartedAt = time.Time{}
	session.EndsAt = time.Time{}
	keeper.zeroLatched = false
}

func (keeper *TimeKeeper) idleSessionLocked() model.Session {
	seconds := keeper.config.FocusSeconds()
	return model.Session{
		ID:               uuid.NewString(),
		Mode:             model.ModeFocus,
		TotalSeconds:     seconds,
		RemainingSeconds: seconds,
	}
}

// resetToIdleLocked disarms the clock and returns to the default Focus
// session. The completion latch is carried over.
func (keeper *TimeKeeper) resetToIdleLocked() {
	keeper.disarmLocked()
	latch := keeper.session.LastCompletedTaskID
	keeper.session = keeper.idleSessionLocked()
	keeper.session.LastCompletedTaskID = latch
	keeper.zeroLatched = false
}

func (keeper *TimeKeeper) dispatch(job *dispatch.Job) {
	if job == nil || keeper.dispatcher == nil {
		return
	}
	if err := keeper.dispatcher.Dispatch(*job); err != nil {
		log.Printf("timekeeper: dispatch %s: %v", job.Action, err)
	}
}

func (keeper *TimeKeeper) handleResult(result dispatch.Result) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	if result.Job.Action != dispatch.ActionNone {
		keeper.lastErr = result.Err
	}
	message := ""
	if result.Err != nil {
		message = result.Err.Error()
	}
	keeper.emitLocked(Event{
		Type:    EventDispatchResult,
		Session: keeper.session.Clone(),
		Task:    result.Job.Task,
		Minutes: result.Job.Minutes,
		Message: message,
		At:      keeper.clock.Now(),
	})
}

func (keeper *TimeKeeper) emitStateLocked(eventType EventType) {
	session := keeper.session.Clone()
	keeper.emitLocked(Event{
		Type:    eventType,
		Session: session,
		Task:    session.BoundTask,
		At:      keeper.clock.Now(),
	})
}

func (keeper *TimeKeeper) emitLocked(event Event) {
	events := append([]chan Event(nil), keeper.events...)
	for _, ch := range events {
		select {
		case ch <- event:
		default:
		}
	}
}

func roundMinutes(seconds int) int {
	if seconds <= 0 {
		return 0
	}
	return int(math.Round(float64(seconds) / 60))
}
