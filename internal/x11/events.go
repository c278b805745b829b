package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// WatchActiveWindow calls fn with the new active window every time the WM
// updates _NET_ACTIVE_WINDOW on the root window. fn runs on the event loop
// goroutine and must not block.
func (c *Connection) WatchActiveWindow(fn func(xproto.Window)) error {
	root := xwindow.New(c.XUtil, c.Root)
	if err := root.Listen(xproto.EventMaskPropertyChange); err != nil {
		return fmt.Errorf("failed to listen for root property changes: %w", err)
	}

	activeAtom, err := xprop.Atm(c.XUtil, "_NET_ACTIVE_WINDOW")
	if err != nil {
		return fmt.Errorf("failed to intern _NET_ACTIVE_WINDOW: %w", err)
	}

	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		if ev.Atom != activeAtom {
			return
		}
		active, err := ewmh.ActiveWindowGet(xu)
		if err != nil {
			// The property is briefly absent while some WMs switch focus.
			active = 0
		}
		fn(active)
	}).Connect(c.XUtil, c.Root)

	return nil
}
