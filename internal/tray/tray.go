// Package tray provides a system tray interface for the mudra engine.
package tray

import (
	"context"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/mudra/internal/arbiter"
)

// Tray represents the desktop system tray application.
type Tray struct {
	onToggle func(enabled bool)
	onOpenUI func()
	onQuit   func()
	enabled  bool
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle     *systray.MenuItem
	menuGesture    *systray.MenuItem
	menuExpression *systray.MenuItem
}

// New creates a new Tray whose actions toggle starts at enabled.
func New(enabled bool) *Tray {
	return &Tray{
		enabled: enabled,
	}
}

// OnToggle sets the callback function to be called when actions are toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpenUI sets the callback function to be called when the web UI item is clicked.
func (t *Tray) OnOpenUI(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpenUI = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray from outside the menu loop.
func (t *Tray) Quit() {
	systray.Quit()
}

// Follow mirrors every state published on pub into the menu until ctx ends.
func (t *Tray) Follow(ctx context.Context, pub *arbiter.Publisher) {
	states, cancel := pub.Subscribe()
	defer cancel()

	t.SetState(pub.Current())
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-states:
			if !ok {
				return
			}
			t.SetState(s)
		}
	}
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra gesture and expression engine")

	t.mu.Lock()
	t.menuGesture = systray.AddMenuItem(gestureTitle(arbiter.Initial()), "Current gesture")
	t.menuGesture.Disable()
	t.menuExpression = systray.AddMenuItem(expressionTitle(arbiter.Initial()), "Current expression")
	t.menuExpression.Disable()
	systray.AddSeparator()

	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle snapshots and hooks")
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Viewer...", "Open the viewer in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.handleOpenUI()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleOpenUI() {
	t.mu.RLock()
	callback := t.onOpenUI
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetState updates the gesture and expression lines of the menu.
func (t *Tray) SetState(s arbiter.State) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuGesture != nil {
		t.menuGesture.SetTitle(gestureTitle(s))
	}
	if t.menuExpression != nil {
		t.menuExpression.SetTitle(expressionTitle(s))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Actions enabled"
	}
	return "○ Actions disabled"
}

func gestureTitle(s arbiter.State) string {
	return "Gesture: " + s.WinnerText
}

func expressionTitle(s arbiter.State) string {
	return "Expression: " + s.Expression.String()
}
