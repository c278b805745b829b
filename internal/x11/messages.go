package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xprop"
)

// AllDesktops is the _NET_WM_DESKTOP value for windows shown on every
// virtual desktop.
const AllDesktops = 0xFFFFFFFF

// sourcePager marks EWMH requests as coming from a pager, which WMs honour
// without focus-stealing prevention.
const sourcePager = 2

// sendRootMessage delivers a 32-bit client message about win to the root
// window, where the WM picks it up. The ewmh request helpers are avoided
// because several panic on this xgbutil version (uint vs int assertions).
func (c *Connection) sendRootMessage(win xproto.Window, atomName string, data ...uint32) error {
	atom, err := xprop.Atm(c.XUtil, atomName)
	if err != nil {
		return fmt.Errorf("failed to intern %s: %w", atomName, err)
	}

	payload := make([]uint32, 5)
	copy(payload, data)
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   atom,
		Data:   xproto.ClientMessageDataUnionData32New(payload),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}

// WindowDesktop returns the raw _NET_WM_DESKTOP value of a window.
func (c *Connection) WindowDesktop(windowID xproto.Window) (uint32, error) {
	desktop, err := ewmh.WmDesktopGet(c.XUtil, windowID)
	if err != nil {
		return 0, fmt.Errorf("failed to get window desktop: %w", err)
	}
	return uint32(desktop), nil
}

// SetWindowDesktop moves a window to desktop, or pins it to all of them
// with AllDesktops.
func (c *Connection) SetWindowDesktop(windowID xproto.Window, desktop uint32) error {
	return c.sendRootMessage(windowID, "_NET_WM_DESKTOP", desktop, sourcePager)
}

// CurrentDesktop returns the index of the visible virtual desktop.
func (c *Connection) CurrentDesktop() (uint32, error) {
	desktop, err := ewmh.CurrentDesktopGet(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("failed to get current desktop: %w", err)
	}
	return uint32(desktop), nil
}
