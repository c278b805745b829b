package platform

import "fmt"

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Contains reports whether the point lies inside the rectangle.
// The right and bottom edges are exclusive.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Display describes a physical display and its usable work area.
type Display struct {
	ID     int
	Name   string
	Bounds Rect
	Usable Rect
}

// Window contains metadata and geometry for a top-level window.
type Window struct {
	ID     WindowID
	PID    int
	AppID  string
	Title  string
	Bounds Rect
}

// ShowMode selects the visibility change requested from the window manager.
type ShowMode int

const (
	ShowRestore ShowMode = iota
	ShowMaximize
	ShowMinimize
	ShowHide
)

func (m ShowMode) String() string {
	switch m {
	case ShowRestore:
		return "restore"
	case ShowMaximize:
		return "maximize"
	case ShowMinimize:
		return "minimize"
	case ShowHide:
		return "hide"
	default:
		return fmt.Sprintf("ShowMode(%d)", int(m))
	}
}

// Style holds the window-manager hints that keep the dropdown out of the way.
// Sticky=false leaves the window's desktop assignment untouched.
type Style struct {
	SkipTaskbar bool
	Above       bool
	Sticky      bool
}

// WindowManager issues commands against a live top-level window.
// Every method may fail; failures are reported as *CommandError.
type WindowManager interface {
	Show(windowID WindowID, mode ShowMode) error
	MoveResize(windowID WindowID, bounds Rect) error
	Activate(windowID WindowID) error
	ExtendedStyle(windowID WindowID) (Style, error)
	SetExtendedStyle(windowID WindowID, style Style) error
}

// Backend abstracts window-system operations across platforms.
type Backend interface {
	WindowManager
	Displays() ([]Display, error)
	PointerPosition() (x, y int, err error)
	ActiveWindow() (WindowID, error)
	ListWindows() ([]Window, error)
}
