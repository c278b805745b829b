// Package display picks the monitor a dropdown run is anchored to.
package display

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/1broseidon/dropterm/internal/platform"
)

// ErrNoDisplays is returned when the window system reports no displays at all.
var ErrNoDisplays = errors.New("no displays found")

// Source provides the raw display and pointer data.
type Source interface {
	Displays() ([]platform.Display, error)
	PointerPosition() (x, y int, err error)
}

// Selector resolves the display under the pointer.
type Selector struct {
	source Source
	logger *slog.Logger
}

// NewSelector creates a selector backed by source.
func NewSelector(source Source, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{source: source, logger: logger}
}

// Active returns the display containing the pointer. When the pointer cannot
// be read or sits outside every display (for example during a display
// configuration change) the primary display is returned instead.
func (s *Selector) Active() (platform.Display, error) {
	displays, err := s.source.Displays()
	if err != nil {
		return platform.Display{}, fmt.Errorf("failed to list displays: %w", err)
	}
	if len(displays) == 0 {
		return platform.Display{}, ErrNoDisplays
	}

	x, y, err := s.source.PointerPosition()
	if err != nil {
		s.logger.Debug("pointer query failed, using primary display", "error", err)
		return Primary(displays), nil
	}

	if d, ok := Select(displays, x, y); ok {
		return d, nil
	}

	s.logger.Debug("pointer outside known displays, using primary display", "x", x, "y", y)
	return Primary(displays), nil
}

// Select returns the display whose bounds contain (x, y).
func Select(displays []platform.Display, x, y int) (platform.Display, bool) {
	for _, d := range displays {
		if d.Bounds.Contains(x, y) {
			return d, true
		}
	}
	return platform.Display{}, false
}

// Primary returns the display at the root origin, or the lowest-ID display
// when none covers the origin. displays must not be empty.
func Primary(displays []platform.Display) platform.Display {
	if d, ok := Select(displays, 0, 0); ok {
		return d
	}
	sorted := append([]platform.Display(nil), displays...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return sorted[0]
}
