//go:build linux

package platform

import (
	"errors"
	"fmt"
	"sort"

	"github.com/1broseidon/dropterm/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// LinuxBackend wraps an existing X11 connection behind the platform Backend interface.
type LinuxBackend struct {
	conn *x11.Connection
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{conn: conn}
}

// NewLinuxBackendFromDisplay creates a new Linux backend by opening a fresh
// X11 connection to display (empty means $DISPLAY).
func NewLinuxBackendFromDisplay(display string) (*LinuxBackend, error) {
	conn, err := x11.NewConnectionDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &LinuxBackend{conn: conn}, nil
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// EventLoop starts the X11 event loop (blocking).
func (b *LinuxBackend) EventLoop() {
	if b != nil && b.conn != nil {
		b.conn.EventLoop()
	}
}

// StopEventLoop makes a running EventLoop return.
func (b *LinuxBackend) StopEventLoop() {
	if b != nil && b.conn != nil {
		b.conn.Quit()
	}
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// RootWindow returns the X11 root window ID.
func (b *LinuxBackend) RootWindow() xproto.Window {
	if b == nil || b.conn == nil {
		return 0
	}
	return b.conn.Root
}

// WatchActiveWindow forwards _NET_ACTIVE_WINDOW changes to fn.
func (b *LinuxBackend) WatchActiveWindow(fn func(WindowID)) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.WatchActiveWindow(func(w xproto.Window) {
		fn(WindowID(w))
	})
}

// Displays returns all active displays.
func (b *LinuxBackend) Displays() ([]Display, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	monitors, err := conn.GetMonitors()
	if err != nil {
		return nil, err
	}

	displays := make([]Display, 0, len(monitors))
	for _, m := range monitors {
		displays = append(displays, displayFromMonitor(m))
	}

	sort.Slice(displays, func(i, j int) bool {
		return displays[i].ID < displays[j].ID
	})

	return displays, nil
}

// PointerPosition returns the pointer location in root coordinates.
func (b *LinuxBackend) PointerPosition() (int, int, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, 0, err
	}
	return conn.PointerPosition()
}

// ActiveWindow returns the currently active/focused window ID.
func (b *LinuxBackend) ActiveWindow() (WindowID, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}

	wid, err := conn.GetActiveWindow()
	if err != nil {
		return 0, err
	}
	return WindowID(wid), nil
}

// ListWindows lists the WM's client windows with class, title and geometry.
// Windows whose geometry can no longer be read are skipped.
func (b *LinuxBackend) ListWindows() ([]Window, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	clients, err := conn.ClientWindows()
	if err != nil {
		return nil, err
	}

	windows := make([]Window, 0, len(clients))
	for _, windowID := range clients {
		area, err := conn.WindowRect(windowID)
		if err != nil {
			continue
		}
		windows = append(windows, Window{
			ID:     WindowID(windowID),
			PID:    conn.WindowPID(windowID),
			AppID:  conn.WindowClass(windowID),
			Title:  conn.WindowTitle(windowID),
			Bounds: Rect{X: area.X, Y: area.Y, Width: area.Width, Height: area.Height},
		})
	}
	return windows, nil
}

// WindowExists reports whether windowID still refers to a live window,
// mapped or not.
func (b *LinuxBackend) WindowExists(windowID WindowID) bool {
	conn, err := b.connection()
	if err != nil {
		return false
	}
	return conn.WindowExists(xproto.Window(windowID))
}

// MoveResize moves and resizes a window to the specified bounds.
func (b *LinuxBackend) MoveResize(windowID WindowID, bounds Rect) error {
	conn, err := b.connection()
	if err != nil {
		return commandErr("move_resize", windowID, err)
	}

	return commandErr("move_resize", windowID, conn.MoveResizeWindow(
		xproto.Window(windowID),
		bounds.X,
		bounds.Y,
		bounds.Width,
		bounds.Height,
	))
}

// Show changes the window's visibility.
func (b *LinuxBackend) Show(windowID WindowID, mode ShowMode) error {
	conn, err := b.connection()
	if err != nil {
		return commandErr("show "+mode.String(), windowID, err)
	}

	win := xproto.Window(windowID)
	switch mode {
	case ShowRestore:
		err = conn.MapWindow(win)
	case ShowMaximize:
		err = conn.MaximizeWindow(win)
	case ShowMinimize:
		err = conn.MinimizeWindow(win)
	case ShowHide:
		err = conn.UnmapWindow(win)
	default:
		err = fmt.Errorf("unsupported show mode %d", int(mode))
	}
	return commandErr("show "+mode.String(), windowID, err)
}

// Activate raises the window and gives it input focus.
func (b *LinuxBackend) Activate(windowID WindowID) error {
	conn, err := b.connection()
	if err != nil {
		return commandErr("activate", windowID, err)
	}
	return commandErr("activate", windowID, conn.FocusWindow(xproto.Window(windowID)))
}

// ExtendedStyle reads the taskbar/stacking hints and desktop stickiness.
func (b *LinuxBackend) ExtendedStyle(windowID WindowID) (Style, error) {
	conn, err := b.connection()
	if err != nil {
		return Style{}, commandErr("get_style", windowID, err)
	}

	states, err := conn.WindowStates(xproto.Window(windowID))
	if err != nil {
		return Style{}, commandErr("get_style", windowID, err)
	}

	var style Style
	for _, s := range states {
		switch s {
		case x11.StateSkipTaskbar:
			style.SkipTaskbar = true
		case x11.StateAbove:
			style.Above = true
		}
	}
	if desktop, err := conn.WindowDesktop(xproto.Window(windowID)); err == nil {
		style.Sticky = desktop == x11.AllDesktops
	}
	return style, nil
}

// SetExtendedStyle applies the taskbar/stacking hints. SkipTaskbar also
// controls the pager entry; clearing Sticky moves a pinned window to the
// current desktop.
func (b *LinuxBackend) SetExtendedStyle(windowID WindowID, style Style) error {
	conn, err := b.connection()
	if err != nil {
		return commandErr("set_style", windowID, err)
	}

	win := xproto.Window(windowID)
	var errs []error
	errs = append(errs,
		conn.SetWindowState(win, x11.StateSkipTaskbar, style.SkipTaskbar),
		conn.SetWindowState(win, x11.StateSkipPager, style.SkipTaskbar),
		conn.SetWindowState(win, x11.StateAbove, style.Above),
	)
	if style.Sticky {
		errs = append(errs, conn.SetWindowDesktop(win, x11.AllDesktops))
	} else if desktop, err := conn.WindowDesktop(win); err == nil && desktop == x11.AllDesktops {
		// Unpin onto the desktop the user is looking at.
		if current, err := conn.CurrentDesktop(); err == nil {
			errs = append(errs, conn.SetWindowDesktop(win, current))
		}
	}
	return commandErr("set_style", windowID, errors.Join(errs...))
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}

func displayFromMonitor(m x11.Monitor) Display {
	return Display{
		ID:   m.ID,
		Name: m.Name,
		Bounds: Rect{
			X:      m.X,
			Y:      m.Y,
			Width:  m.Width,
			Height: m.Height,
		},
		Usable: Rect{
			X:      m.Usable.X,
			Y:      m.Usable.Y,
			Width:  m.Usable.Width,
			Height: m.Usable.Height,
		},
	}
}
