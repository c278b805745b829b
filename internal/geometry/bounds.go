// Package geometry computes the per-frame rectangle of the dropdown window.
package geometry

import (
	"math"
	"strings"
	"time"

	"github.com/1broseidon/dropterm/internal/platform"
)

// FrameBudget is the nominal time slice of one animation step.
const FrameBudget = 25 * time.Millisecond

// Align is the horizontal placement of the window on its screen.
type Align string

const (
	AlignLeft   Align = "left"
	AlignRight  Align = "right"
	AlignCenter Align = "center"
)

// ParseAlign maps a case-insensitive name to an Align. Unknown names report
// false.
func ParseAlign(s string) (Align, bool) {
	switch a := Align(strings.ToLower(strings.TrimSpace(s))); a {
	case AlignLeft, AlignRight, AlignCenter:
		return a, true
	}
	return AlignCenter, false
}

// Layout is the alignment configuration for the docked window.
// Coverages are percentages of the screen dimension; VerticalOffset is a
// signed pixel adjustment added to both the height and the y position.
type Layout struct {
	Align              Align
	HorizontalCoverage float64
	VerticalCoverage   float64
	VerticalOffset     int
}

// FullCoverage reports whether the layout asks for the whole screen.
func (l Layout) FullCoverage() bool {
	return l.HorizontalCoverage >= 100 && l.VerticalCoverage >= 100
}

// Size returns the docked width and height for a screen.
func (l Layout) Size(screen platform.Rect) (width, height int) {
	width = int(math.Ceil(float64(screen.Width) * l.HorizontalCoverage / 100))
	height = int(math.Ceil(float64(screen.Height)*l.VerticalCoverage/100)) + l.VerticalOffset
	return width, height
}

// ComputeBounds returns the window rectangle for frame step of stepCount.
// Step 0 places the window just above the top edge of the screen, step
// stepCount docks it at the top. stepCount below 1 counts as 1 and step is
// clamped into [0, stepCount].
func ComputeBounds(screen platform.Rect, layout Layout, stepCount, step int) platform.Rect {
	if stepCount < 1 {
		stepCount = 1
	}
	step = min(max(step, 0), stepCount)

	width, height := layout.Size(screen)

	var x int
	switch layout.Align {
	case AlignLeft:
		x = screen.X
	case AlignRight:
		x = screen.X + screen.Width - width
	default:
		x = screen.X + int(math.Ceil(float64(screen.Width)/2-float64(width)/2))
	}

	y := screen.Y - height + height*step/stepCount + layout.VerticalOffset

	return platform.Rect{X: x, Y: y, Width: width, Height: height}
}

// Plan splits an animation of the given duration into frames of roughly
// FrameBudget. There is always at least one step so the final frame is
// applied even for instant toggles.
func Plan(duration time.Duration) (steps int, delay time.Duration) {
	ms := max(duration.Milliseconds(), 0)
	budget := FrameBudget.Milliseconds()

	steps = int((ms + budget - 1) / budget)
	if steps < 1 {
		steps = 1
	}
	delay = time.Duration(ms/int64(steps)) * time.Millisecond
	return steps, delay
}
