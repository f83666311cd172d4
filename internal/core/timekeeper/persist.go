package timekeeper

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"focustimer/internal/core/model"
)

// SnapshotStore is the durable slot a session is flushed to before the process
// goes away.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snapshot model.Snapshot) error
	LoadSnapshot(ctx context.Context) (*model.Snapshot, error)
}

// Flush writes the current session to the store. It is best-effort: the timer
// works the same whether or not a flush ever happens.
func (keeper *TimeKeeper) Flush(ctx context.Context) error {
	if keeper.store == nil {
		return nil
	}

	keeper.mu.Lock()
	session := keeper.session.Clone()
	now := keeper.clock.Now()
	keeper.mu.Unlock()

	value := session.RemainingSeconds
	if session.Mode.IsCountUp() {
		value = session.ElapsedSeconds
	}
	snapshot := model.Snapshot{
		RemainingOrElapsedSeconds: value,
		TotalSeconds:              session.TotalSeconds,
		Mode:                      session.Mode,
		WasRunning:                session.IsRunning,
		BoundTask:                 session.BoundTask,
		SavedAt:                   now,
	}
	if err := keeper.store.SaveSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Restore loads the stored snapshot into an idle timer. The session is always
// restored paused; wall-clock time since the snapshot is not applied. It
// reports whether a snapshot was applied.
func (keeper *TimeKeeper) Restore(ctx context.Context) (bool, error) {
	if keeper.store == nil {
		return false, nil
	}

	snapshot, err := keeper.store.LoadSnapshot(ctx)
	if err != nil {
		return false, fmt.Errorf("load snapshot: %w", err)
	}
	if snapshot == nil {
		return false, nil
	}
	if err := validateSnapshot(*snapshot); err != nil {
		log.Printf("timekeeper: ignoring snapshot: %v", err)
		return false, nil
	}

	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	if keeper.session.IsRunning || keeper.session.BoundTask != nil {
		return false, ErrRunning
	}

	keeper.disarmLocked()
	session := model.Session{
		ID:           uuid.NewString(),
		Mode:         snapshot.Mode,
		TotalSeconds: snapshot.TotalSeconds,
	}
	if snapshot.Mode.IsCountUp() {
		session.ElapsedSeconds = snapshot.RemainingOrElapsedSeconds
	} else {
		session.RemainingSeconds = snapshot.RemainingOrElapsedSeconds
	}
	if snapshot.BoundTask != nil {
		task := *snapshot.BoundTask
		session.BoundTask = &task
	}
	keeper.session = session
	keeper.zeroLatched = false
	log.Printf("timekeeper: restored %s session saved %s ago",
		session.Mode, snapshotAge(*snapshot, keeper.clock.Now()).Round(time.Second))
	keeper.emitStateLocked(EventStateChange)
	return true, nil
}

func validateSnapshot(snapshot model.Snapshot) error {
	if !snapshot.Mode.Valid() {
		return fmt.Errorf("unknown mode %q", snapshot.Mode)
	}
	if snapshot.RemainingOrElapsedSeconds < 0 || snapshot.TotalSeconds < 0 {
		return fmt.Errorf("negative duration")
	}
	bound := snapshot.BoundTask != nil && snapshot.BoundTask.ID != ""
	if bound != snapshot.Mode.IsTaskBound() {
		return fmt.Errorf("mode %q does not match task binding", snapshot.Mode)
	}
	if snapshot.Mode.IsCountUp() {
		return nil
	}
	if snapshot.TotalSeconds == 0 {
		return fmt.Errorf("countdown without duration")
	}
	if snapshot.RemainingOrElapsedSeconds > snapshot.TotalSeconds {
		return fmt.Errorf("remaining %d exceeds total %d", snapshot.RemainingOrElapsedSeconds, snapshot.TotalSeconds)
	}
	if snapshot.Mode == model.ModeTaskCountdown && snapshot.RemainingOrElapsedSeconds == 0 {
		return fmt.Errorf("finished task countdown")
	}
	return nil
}

// snapshotAge reports how long ago the snapshot was saved.
func snapshotAge(snapshot model.Snapshot, now time.Time) time.Duration {
	if snapshot.SavedAt.IsZero() {
		return 0
	}
	return now.Sub(snapshot.SavedAt)
}
