package clock

import (
	"sync"
	"time"
)

// Clock is the single repeating tick source of the timer. Arm replaces any
// previously armed callback, so at most one callback is ever live.
type Clock interface {
	Arm(callback func(time.Time))
	Disarm()
	Now() time.Time
}

// Ticker drives the armed callback from a time.Ticker.
type Ticker struct {
	mu       sync.Mutex
	interval time.Duration
	stopCh   chan struct{}
}

// NewTicker creates a Ticker. A non-positive interval defaults to one second.
func NewTicker(interval time.Duration) *Ticker {
	if interval <= 0 {
		interval = time.Second
	}
	return &Ticker{interval: interval}
}

// Arm starts a ticking loop for callback, stopping the previous one first.
func (ticker *Ticker) Arm(callback func(time.Time)) {
	ticker.mu.Lock()
	defer ticker.mu.Unlock()
	ticker.stopLocked()
	stopCh := make(chan struct{})
	ticker.stopCh = stopCh
	go run(ticker.interval, stopCh, callback)
}

// Disarm stops the ticking loop, if any.
func (ticker *Ticker) Disarm() {
	ticker.mu.Lock()
	defer ticker.mu.Unlock()
	ticker.stopLocked()
}

// Now returns the wall-clock time.
func (ticker *Ticker) Now() time.Time {
	return time.Now()
}

func (ticker *Ticker) stopLocked() {
	if ticker.stopCh != nil {
		close(ticker.stopCh)
		ticker.stopCh = nil
	}
}

func run(interval time.Duration, stopCh <-chan struct{}, callback func(time.Time)) {
	timer := time.NewTicker(interval)
	defer timer.Stop()

	for {
		select {
		case <-stopCh:
			return
		case tickTime := <-timer.C:
			select {
			case <-stopCh:
				return
			default:
			}
			callback(tickTime)
		}
	}
}

// Manual is a Clock advanced explicitly by the caller.
type Manual struct {
	mu       sync.Mutex
	now      time.Time
	callback func(time.Time)
	arms     int
}

// NewManual creates a Manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Arm stores callback as the live callback.
func (manual *Manual) Arm(callback func(time.Time)) {
	manual.mu.Lock()
	defer manual.mu.Unlock()
	manual.callback = callback
	manual.arms++
}

// Disarm drops the live callback.
func (manual *Manual) Disarm() {
	manual.mu.Lock()
	defer manual.mu.Unlock()
	manual.callback = nil
}

// Now returns the manual time.
func (manual *Manual) Now() time.Time {
	manual.mu.Lock()
	defer manual.mu.Unlock()
	return manual.now
}

// Armed reports whether a callback is live.
func (manual *Manual) Armed() bool {
	manual.mu.Lock()
	defer manual.mu.Unlock()
	return manual.callback != nil
}

// Arms returns how many times Arm was called.
func (manual *Manual) Arms() int {
	manual.mu.Lock()
	defer manual.mu.Unlock()
	return manual.arms
}

// Advance moves time forward one second at a time, firing the live callback
// after every step. The callback is re-read each step so a callback that
// disarms the clock stops further ticks.
func (manual *Manual) Advance(seconds int) {
	for i := 0; i < seconds; i++ {
		manual.mu.Lock()
		manual.now = manual.now.Add(time.Second)
		now := manual.now
		callback := manual.callback
		manual.mu.Unlock()

		if callback != nil {
			callback(now)
		}
	}
}

// Skip moves time forward without firing any callback.
func (manual *Manual) Skip(duration time.Duration) {
	manual.mu.Lock()
	defer manual.mu.Unlock()
	manual.now = manual.now.Add(duration)
}
