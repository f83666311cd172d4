package platform

import (
	"errors"
	"sync"
	"time"

	"fyne.io/fyne/v2"
)

// ErrNotificationsUnavailable indicates there is no app to deliver notifications.
var ErrNotificationsUnavailable = errors.New("notifications unavailable")

// NotificationSender is the part of fyne.App used to show notifications.
type NotificationSender interface {
	SendNotification(notification *fyne.Notification)
}

// Notifier delivers timer notifications through the desktop notification
// service. A notification with the same tag as the previous one is dropped if
// it arrives within the replace window.
type Notifier struct {
	mu            sync.Mutex
	sender        NotificationSender
	replaceWindow time.Duration
	lastTag       string
	lastSent      time.Time
	now           func() time.Time
}

// NewNotifier creates a Notifier for sender. A nil sender yields a Notifier that
// reports ErrNotificationsUnavailable.
func NewNotifier(sender NotificationSender) *Notifier {
	return &Notifier{
		sender:        sender,
		replaceWindow: 2 * time.Second,
		now:           time.Now,
	}
}

// NotifyUser shows a notification.
func (notifier *Notifier) NotifyUser(title, body, tag string) error {
	if notifier == nil || notifier.sender == nil {
		return ErrNotificationsUnavailable
	}

	notifier.mu.Lock()
	now := notifier.now()
	if tag != "" && tag == notifier.lastTag && now.Sub(notifier.lastSent) < notifier.replaceWindow {
		notifier.mu.Unlock()
		return nil
	}
	notifier.lastTag = tag
	notifier.lastSent = now
	notifier.mu.Unlock()

	notifier.sender.SendNotification(fyne.NewNotification(title, body))
	return nil
}
