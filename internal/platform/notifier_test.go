package platform

import (
	"errors"
	"testing"
	"time"

	"fyne.io/fyne/v2"
)

type recordingSender struct {
	sent []*fyne.Notification
}

func (sender *recordingSender) SendNotification(notification *fyne.Notification) {
	sender.sent = append(sender.sent, notification)
}

func TestNotifierSendsNotification(t *testing.T) {
	sender := &recordingSender{}
	notifier := NewNotifier(sender)

	if err := notifier.NotifyUser("Task completed", "Write report (5 min)", "task-T"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(sender.sent))
	}
	if sender.sent[0].Title != "Task completed" || sender.sent[0].Content != "Write report (5 min)" {
		t.Fatalf("unexpected notification: %+v", sender.sent[0])
	}
}

func TestNotifierDropsRepeatedTag(t *testing.T) {
	sender := &recordingSender{}
	notifier := NewNotifier(sender)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	notifier.now = func() time.Time { return now }

	tests := []struct {
		name    string
		advance time.Duration
		tag     string
		sent    int
	}{
		{name: "first", tag: "auto-break", sent: 1},
		{name: "same tag inside window", advance: time.Second, tag: "auto-break", sent: 1},
		{name: "other tag", tag: "task-T", sent: 2},
		{name: "same tag after window", advance: 3 * time.Second, tag: "task-T", sent: 3},
		{name: "untagged never dropped", tag: "", sent: 4},
		{name: "untagged again", tag: "", sent: 5},
	}
	for _, tt := range tests {
		now = now.Add(tt.advance)
		if err := notifier.NotifyUser("title", "body", tt.tag); err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if len(sender.sent) != tt.sent {
			t.Fatalf("%s: sent %d notifications, want %d", tt.name, len(sender.sent), tt.sent)
		}
	}
}

func TestNotifierWithoutSender(t *testing.T) {
	if err := NewNotifier(nil).NotifyUser("t", "b", ""); !errors.Is(err, ErrNotificationsUnavailable) {
		t.Fatalf("NotifyUser without sender = %v, want ErrNotificationsUnavailable", err)
	}
}
