package timekeeper

import (
	"fmt"
	"time"

	"focustimer/internal/core/dispatch"
	"focustimer/internal/core/model"
)

// autoBreakLocked turns a finished Focus countdown into a running Break.
// Callers guard it with the zero-crossing latch.
func (keeper *TimeKeeper) autoBreakLocked(now time.Time) *dispatch.Job {
	session := &keeper.session
	session.Mode = model.ModeBreak
	keeper.setDurationLocked(keeper.config.BreakSeconds())
	keeper.startLocked(now)
	keeper.emitStateLocked(EventAutoBreak)

	return &dispatch.Job{
		SessionID: session.ID,
		Notification: &dispatch.Notification{
			Title: "Break time",
			Body:  fmt.Sprintf("Focus finished. Take a %d minute break.", keeper.config.BreakMinutes),
			Tag:   "auto-break",
		},
	}
}
