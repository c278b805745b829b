package x11

import (
	"testing"

	"github.com/BurntSushi/xgbutil/ewmh"
)

func TestWorkArea_TopPanelOnlyHitsOverlappingMonitor(t *testing.T) {
	left := Monitor{X: 0, Y: 0, Width: 1920, Height: 1080}
	right := Monitor{X: 1920, Y: 0, Width: 1920, Height: 1080}

	// 32px panel across the left monitor only.
	reserved := strutReservations(&ewmh.WmStrutPartial{Top: 32, TopStartX: 0, TopEndX: 1919}, 3840, 1080)

	if got := workArea(left, reserved); got != (Area{X: 0, Y: 32, Width: 1920, Height: 1048}) {
		t.Fatalf("left work area = %+v", got)
	}
	if got := workArea(right, reserved); got != (Area{X: 1920, Y: 0, Width: 1920, Height: 1080}) {
		t.Fatalf("right monitor should be untouched, got %+v", got)
	}
}

func TestWorkArea_BottomAndRight(t *testing.T) {
	mon := Monitor{X: 0, Y: 0, Width: 1280, Height: 1024}
	reserved := strutReservations(&ewmh.WmStrutPartial{
		Bottom: 40, BottomStartX: 0, BottomEndX: 1279,
		Right: 64, RightStartY: 0, RightEndY: 1023,
	}, 1280, 1024)

	if got := workArea(mon, reserved); got != (Area{X: 0, Y: 0, Width: 1216, Height: 984}) {
		t.Fatalf("work area = %+v", got)
	}
}

func TestWorkArea_StackedMonitorsMeasureFromOwnEdge(t *testing.T) {
	// Monitor below a taller one: a bottom panel on the lower monitor only.
	lower := Monitor{X: 0, Y: 1440, Width: 1920, Height: 1080}
	reserved := strutReservations(&ewmh.WmStrutPartial{Bottom: 48, BottomStartX: 0, BottomEndX: 1919}, 2560, 2520)

	if got := workArea(lower, reserved); got != (Area{X: 0, Y: 1440, Width: 1920, Height: 1032}) {
		t.Fatalf("work area = %+v", got)
	}
}

func TestWorkArea_LargestReservationWins(t *testing.T) {
	mon := Monitor{Width: 1920, Height: 1080}
	reserved := append(
		strutReservations(&ewmh.WmStrutPartial{Top: 24, TopEndX: 1919}, 1920, 1080),
		strutReservations(&ewmh.WmStrutPartial{Top: 36, TopStartX: 100, TopEndX: 400}, 1920, 1080)...,
	)

	if got := workArea(mon, reserved); got.Y != 36 || got.Height != 1044 {
		t.Fatalf("work area = %+v", got)
	}
}

func TestAreaIntersect(t *testing.T) {
	a := Area{Width: 10, Height: 10}
	if got := a.intersect(Area{X: 10, Width: 10, Height: 10}); !got.empty() {
		t.Fatalf("expected empty intersection, got %+v", got)
	}
	if got := a.intersect(Area{X: 5, Y: 5, Width: 15, Height: 15}); got != (Area{X: 5, Y: 5, Width: 5, Height: 5}) {
		t.Fatalf("expected 5x5 at 5,5, got %+v", got)
	}
}

func TestHasAtom(t *testing.T) {
	states := []string{StateAbove, stateMaxVert}
	if !hasAtom(states, StateAbove) || hasAtom(states, stateHidden) {
		t.Fatalf("hasAtom mismatch for %v", states)
	}
}
