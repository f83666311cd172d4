package tray

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"focustimer/internal/core/model"
)

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnStartPause    func()
	OnReset         func()
	OnAddFive       func()
	OnToggleCountUp func()
	OnCompleteTask  func()
	OnQuit          func()
}

// Manager handles system tray state.
type Manager struct {
	app          desktop.App
	callbacks    Callbacks
	statusItem   *fyne.MenuItem
	startItem    *fyne.MenuItem
	resetItem    *fyne.MenuItem
	addItem      *fyne.MenuItem
	countUpItem  *fyne.MenuItem
	completeItem *fyne.MenuItem
	quitItem     *fyne.MenuItem
}

// New creates a tray manager with the provided callbacks.
func New(app desktop.App, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:       app,
		callbacks: callbacks,
	}

	manager.statusItem = fyne.NewMenuItem("Status: idle", nil)
	manager.statusItem.Disabled = true
	manager.startItem = fyne.NewMenuItem("Start", invoke(&manager.callbacks.OnStartPause))
	manager.resetItem = fyne.NewMenuItem("Reset", invoke(&manager.callbacks.OnReset))
	manager.addItem = fyne.NewMenuItem("+5 minutes", invoke(&manager.callbacks.OnAddFive))
	manager.countUpItem = fyne.NewMenuItem("Stopwatch", invoke(&manager.callbacks.OnToggleCountUp))
	manager.completeItem = fyne.NewMenuItem("Complete task", invoke(&manager.callbacks.OnCompleteTask))
	manager.completeItem.Disabled = true
	manager.quitItem = fyne.NewMenuItem("Quit", invoke(&manager.callbacks.OnQuit))

	manager.refreshMenu()
	return manager
}

// Update reflects session in the menu. display is the formatted timer value.
func (manager *Manager) Update(session model.Session, display string) {
	label := string(session.Mode)
	if session.BoundTask != nil {
		label = session.BoundTask.Title
	}
	status := fmt.Sprintf("%s %s", label, display)
	if !session.IsRunning {
		status += " (paused)"
	}
	manager.statusItem.Label = "Status: " + status

	if session.IsRunning {
		manager.startItem.Label = "Pause"
	} else {
		manager.startItem.Label = "Start"
	}
	if session.BoundTask != nil {
		manager.resetItem.Label = "Cancel task"
	} else {
		manager.resetItem.Label = "Reset"
	}
	if session.Mode.IsCountUp() {
		manager.countUpItem.Label = "Countdown"
	} else {
		manager.countUpItem.Label = "Stopwatch"
	}

	bound := session.BoundTask != nil
	manager.addItem.Disabled = bound || session.Mode.IsCountUp()
	manager.countUpItem.Disabled = bound
	manager.completeItem.Disabled = !bound

	manager.refreshMenu()
}

func (manager *Manager) refreshMenu() {
	if manager.app == nil {
		return
	}
	manager.app.SetSystemTrayMenu(fyne.NewMenu("Focus Timer",
		manager.statusItem,
		manager.startItem,
		manager.resetItem,
		manager.addItem,
		manager.countUpItem,
		manager.completeItem,
		fyne.NewMenuItemSeparator(),
		manager.quitItem,
	))
}

func invoke(callback *func()) func() {
	return func() {
		if *callback != nil {
			(*callback)()
		}
	}
}
