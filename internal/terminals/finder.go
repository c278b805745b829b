// Package terminals locates the terminal window managed as the dropdown.
package terminals

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/1broseidon/dropterm/internal/config"
	"github.com/1broseidon/dropterm/internal/platform"
)

// ErrNotFound is returned when no client window matches the terminal matcher.
var ErrNotFound = errors.New("terminal window not found")

// WindowSource lists client windows and checks whether a window is still alive.
type WindowSource interface {
	ListWindows() ([]platform.Window, error)
	WindowExists(windowID platform.WindowID) bool
}

// Settings provides the live configuration.
type Settings interface {
	Current() *config.Config
}

// Finder resolves the managed window on every use. The last match is
// remembered because a hidden window drops out of the client list; it is
// reused as long as the window exists and the matcher is unchanged.
type Finder struct {
	mu          sync.Mutex
	source      WindowSource
	settings    Settings
	cached      platform.WindowID
	cachedMatch config.TerminalMatch
}

// NewFinder creates a finder.
func NewFinder(source WindowSource, settings Settings) *Finder {
	return &Finder{source: source, settings: settings}
}

// TargetWindow returns the managed window.
func (f *Finder) TargetWindow() (platform.WindowID, error) {
	match := f.settings.Current().Terminal

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cached != 0 && f.cachedMatch == match && f.source.WindowExists(f.cached) {
		return f.cached, nil
	}
	f.cached = 0

	windows, err := f.source.ListWindows()
	if err != nil {
		return 0, fmt.Errorf("failed to list windows: %w", err)
	}
	for _, w := range windows {
		if Matches(w, match) {
			f.cached = w.ID
			f.cachedMatch = match
			return w.ID, nil
		}
	}
	return 0, fmt.Errorf("%w (%s)", ErrNotFound, describe(match))
}

// Forget drops the remembered window so the next lookup rescans.
func (f *Finder) Forget() {
	f.mu.Lock()
	f.cached = 0
	f.mu.Unlock()
}

// Matches reports whether w is selected by match. The class compares
// case-insensitively against WM_CLASS; the title is a case-insensitive
// substring match. Either criterion is enough.
func Matches(w platform.Window, match config.TerminalMatch) bool {
	if match.Class != "" && strings.EqualFold(w.AppID, match.Class) {
		return true
	}
	if match.Title != "" && strings.Contains(strings.ToLower(w.Title), strings.ToLower(match.Title)) {
		return true
	}
	return false
}

func describe(match config.TerminalMatch) string {
	var parts []string
	if match.Class != "" {
		parts = append(parts, fmt.Sprintf("class %q", match.Class))
	}
	if match.Title != "" {
		parts = append(parts, fmt.Sprintf("title containing %q", match.Title))
	}
	return strings.Join(parts, " or ")
}
