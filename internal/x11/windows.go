package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
)

const (
	stateMaxHorz     = "_NET_WM_STATE_MAXIMIZED_HORZ"
	stateMaxVert     = "_NET_WM_STATE_MAXIMIZED_VERT"
	stateHidden      = "_NET_WM_STATE_HIDDEN"
	StateSkipTaskbar = "_NET_WM_STATE_SKIP_TASKBAR"
	StateSkipPager   = "_NET_WM_STATE_SKIP_PAGER"
	StateAbove       = "_NET_WM_STATE_ABOVE"
)

// geometryRequests is the slice of the X connection that MoveResizeWindow
// drives.
type geometryRequests interface {
	unmaximize(windowID xproto.Window) error
	requestMoveResize(windowID xproto.Window, x, y, width, height int) error
	configure(windowID xproto.Window, x, y, width, height int) error
	checkAlive(windowID xproto.Window) error
}

// MoveResizeWindow moves and resizes a window to the specified geometry.
func (c *Connection) MoveResizeWindow(windowID xproto.Window, x, y, width, height int) error {
	return moveResize(c, windowID, x, y, width, height)
}

// moveResize asks the WM to place the window and falls back to configuring
// it directly. The EWMH request goes to the root window and succeeds for
// any window ID, so the window is checked afterwards: a window destroyed
// before or during the request is an error.
func moveResize(r geometryRequests, windowID xproto.Window, x, y, width, height int) error {
	// A maximized window ignores geometry requests on most WMs. Windows
	// without _NET_WM_STATE have nothing to unmaximize.
	_ = r.unmaximize(windowID)

	if err := r.requestMoveResize(windowID, x, y, width, height); err != nil {
		if err := r.configure(windowID, x, y, width, height); err != nil {
			return fmt.Errorf("failed to move window 0x%x: %w", uint32(windowID), err)
		}
	}
	if err := r.checkAlive(windowID); err != nil {
		return fmt.Errorf("window 0x%x is gone: %w", uint32(windowID), err)
	}
	return nil
}

func (c *Connection) requestMoveResize(windowID xproto.Window, x, y, width, height int) error {
	return ewmh.MoveresizeWindow(c.XUtil, windowID, x, y, width, height)
}

func (c *Connection) configure(windowID xproto.Window, x, y, width, height int) error {
	mask := uint16(xproto.ConfigWindowX | xproto.ConfigWindowY | xproto.ConfigWindowWidth | xproto.ConfigWindowHeight)
	values := []uint32{uint32(x), uint32(y), uint32(width), uint32(height)}
	return xproto.ConfigureWindowChecked(c.XUtil.Conn(), windowID, mask, values).Check()
}

func (c *Connection) checkAlive(windowID xproto.Window) error {
	_, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	return err
}

// unmaximize removes maximized state from a window.
func (c *Connection) unmaximize(windowID xproto.Window) error {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return err
	}

	hasMaxH := hasAtom(states, stateMaxHorz)
	hasMaxV := hasAtom(states, stateMaxVert)

	if hasMaxH && hasMaxV {
		return ewmh.WmStateReqExtra(c.XUtil, windowID, ewmh.StateRemove, stateMaxVert, stateMaxHorz, 2)
	}
	if hasMaxH {
		return ewmh.WmStateReq(c.XUtil, windowID, ewmh.StateRemove, stateMaxHorz)
	}
	if hasMaxV {
		return ewmh.WmStateReq(c.XUtil, windowID, ewmh.StateRemove, stateMaxVert)
	}
	return nil
}

// MaximizeWindow asks the WM to maximize the window in both directions.
func (c *Connection) MaximizeWindow(windowID xproto.Window) error {
	return ewmh.WmStateReqExtra(c.XUtil, windowID, ewmh.StateAdd, stateMaxVert, stateMaxHorz, 2)
}

// MapWindow makes the window viewable again and clears the hidden state left
// behind by an earlier minimize.
func (c *Connection) MapWindow(windowID xproto.Window) error {
	if err := xproto.MapWindowChecked(c.XUtil.Conn(), windowID).Check(); err != nil {
		return err
	}
	if states, err := ewmh.WmStateGet(c.XUtil, windowID); err == nil && hasAtom(states, stateHidden) {
		return ewmh.WmStateReq(c.XUtil, windowID, ewmh.StateRemove, stateHidden)
	}
	return nil
}

// UnmapWindow withdraws the window from the screen.
func (c *Connection) UnmapWindow(windowID xproto.Window) error {
	return xproto.UnmapWindowChecked(c.XUtil.Conn(), windowID).Check()
}

// MinimizeWindow iconifies a window via WM_CHANGE_STATE.
func (c *Connection) MinimizeWindow(windowID xproto.Window) error {
	const iconicState = 3
	return c.sendRootMessage(windowID, "WM_CHANGE_STATE", iconicState)
}

// FocusWindow activates and raises a window using _NET_ACTIVE_WINDOW.
func (c *Connection) FocusWindow(windowID xproto.Window) error {
	return c.sendRootMessage(windowID, "_NET_ACTIVE_WINDOW", sourcePager)
}

// WindowStates returns the window's _NET_WM_STATE atoms.
func (c *Connection) WindowStates(windowID xproto.Window) ([]string, error) {
	return ewmh.WmStateGet(c.XUtil, windowID)
}

// SetWindowState adds or removes a single _NET_WM_STATE atom.
func (c *Connection) SetWindowState(windowID xproto.Window, state string, on bool) error {
	action := ewmh.StateRemove
	if on {
		action = ewmh.StateAdd
	}
	return ewmh.WmStateReq(c.XUtil, windowID, action, state)
}

// ClientWindows lists the top-level windows managed by the WM.
func (c *Connection) ClientWindows() ([]xproto.Window, error) {
	return ewmh.ClientListGet(c.XUtil)
}

// WindowExists reports whether the window ID still refers to a live window.
// Withdrawn (hidden) windows are not in the client list, so geometry is used.
func (c *Connection) WindowExists(windowID xproto.Window) bool {
	return c.checkAlive(windowID) == nil
}

// WindowClass returns the WM_CLASS class part.
func (c *Connection) WindowClass(windowID xproto.Window) string {
	wmClass, err := icccm.WmClassGet(c.XUtil, windowID)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(wmClass.Class)
}

// WindowTitle returns _NET_WM_NAME, falling back to WM_NAME.
func (c *Connection) WindowTitle(windowID xproto.Window) string {
	if title, err := ewmh.WmNameGet(c.XUtil, windowID); err == nil {
		if title = strings.TrimSpace(title); title != "" {
			return title
		}
	}
	if title, err := icccm.WmNameGet(c.XUtil, windowID); err == nil {
		return strings.TrimSpace(title)
	}
	return ""
}

// WindowPID returns _NET_WM_PID, or 0 when unset.
func (c *Connection) WindowPID(windowID xproto.Window) int {
	pid, err := ewmh.WmPidGet(c.XUtil, windowID)
	if err != nil {
		return 0
	}
	return int(pid)
}

// WindowRect returns the window geometry in root coordinates.
func (c *Connection) WindowRect(windowID xproto.Window) (Area, error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	if err != nil {
		return Area{}, err
	}

	translate, err := xproto.TranslateCoordinates(c.XUtil.Conn(), windowID, c.Root, 0, 0).Reply()
	if err != nil {
		return Area{}, err
	}

	return Area{
		X:      int(translate.DstX),
		Y:      int(translate.DstY),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}, nil
}

// GetActiveWindow returns the window holding _NET_ACTIVE_WINDOW.
func (c *Connection) GetActiveWindow() (xproto.Window, error) {
	return ewmh.ActiveWindowGet(c.XUtil)
}

func hasAtom(states []string, want string) bool {
	for _, s := range states {
		if s == want {
			return true
		}
	}
	return false
}
