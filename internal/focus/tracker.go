// Package focus detects when the managed window loses input focus.
package focus

import (
	"sync"

	"github.com/1broseidon/dropterm/internal/platform"
)

// Tracker turns active-window changes into a single focus-lost signal per
// focus period of the managed window.
type Tracker struct {
	mu      sync.Mutex
	window  platform.WindowID
	focused bool
	// seen is set once the WM has reported window as active. Before that
	// an active window of 0 is the WM mid-switch, not a loss of focus.
	seen    bool
	onLost  func()
}

// NewTracker creates a tracker that calls onLost when the managed window
// loses focus. onLost must not block.
func NewTracker(onLost func()) *Tracker {
	return &Tracker{onLost: onLost}
}

// FocusGained records that window has just been given focus.
func (t *Tracker) FocusGained(window platform.WindowID) {
	t.mu.Lock()
	t.window = window
	t.focused = true
	t.seen = false
	t.mu.Unlock()
}

// ActiveWindowChanged is fed from the window system whenever the active
// window changes. An active window of 0 means nothing has focus; it only
// counts as lost once the managed window was seen active.
func (t *Tracker) ActiveWindowChanged(active platform.WindowID) {
	t.mu.Lock()
	if t.focused && active == t.window {
		t.seen = true
	}
	lost := t.focused && active != t.window && (active != 0 || t.seen)
	if lost {
		t.focused = false
	}
	t.mu.Unlock()

	if lost && t.onLost != nil {
		t.onLost()
	}
}

// Focused reports whether the managed window is believed to hold focus.
func (t *Tracker) Focused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.focused
}
