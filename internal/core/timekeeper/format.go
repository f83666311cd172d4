package timekeeper

import "fmt"

// Format renders seconds as MM:SS, or H:MM:SS past an hour. With hideSeconds
// only whole minutes are shown, rounded up so a running countdown never reads 0
// before it ends.
func Format(seconds int, hideSeconds bool) string {
	if seconds < 0 {
		seconds = 0
	}
	if hideSeconds {
		minutes := (seconds + 59) / 60
		return fmt.Sprintf("%d min", minutes)
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	seconds = seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// Display formats the session's relevant value with the active preferences.
func (keeper *TimeKeeper) Display() string {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	value := keeper.session.RemainingSeconds
	if keeper.session.Mode.IsCountUp() {
		value = keeper.session.ElapsedSeconds
	}
	return Format(value, keeper.config.HideSeconds)
}
