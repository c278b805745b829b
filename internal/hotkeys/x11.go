package hotkeys

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// x11Accessor is implemented by backends that expose X11 internals.
type x11Accessor interface {
	XUtil() *xgbutil.XUtil
	RootWindow() xproto.Window
}

// X11Binder grabs keys on the root window through xgbutil's keybind.
type X11Binder struct {
	xu   *xgbutil.XUtil
	root xproto.Window
}

var ignoreModsOnce sync.Once

// NewX11Binder creates a binder from a backend exposing an X11 connection.
func NewX11Binder(backend any) (*X11Binder, error) {
	accessor, ok := backend.(x11Accessor)
	if !ok || accessor.XUtil() == nil {
		return nil, fmt.Errorf("hotkeys require an X11 backend")
	}
	xu := accessor.XUtil()

	ignoreModsOnce.Do(func() {
		configureIgnoreMods(xu)
	})

	return &X11Binder{xu: xu, root: accessor.RootWindow()}, nil
}

func (b *X11Binder) Bind(sequence string, fn func()) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		fn()
	}).Connect(b.xu, b.root, sequence, true)
}

func (b *X11Binder) Grab(sequence string) error {
	mods, keycodes, err := keybind.ParseString(b.xu, sequence)
	if err != nil {
		return err
	}
	for _, kc := range keycodes {
		if err := keybind.GrabChecked(b.xu, b.root, mods, kc); err != nil {
			if _, ok := err.(xproto.AccessError); ok {
				return fmt.Errorf("%s is already grabbed by another client", sequence)
			}
			return err
		}
	}
	return nil
}

func (b *X11Binder) Ungrab(sequence string) error {
	mods, keycodes, err := keybind.ParseString(b.xu, sequence)
	if err != nil {
		return err
	}
	for _, kc := range keycodes {
		keybind.Ungrab(b.xu, b.root, mods, kc)
	}
	return nil
}

// configureIgnoreMods makes grabs fire regardless of CapsLock, NumLock and
// ScrollLock.
func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	xevent.IgnoreMods = ignoreMasks(caps, numLock, scrollLock)
}

// ignoreMasks returns every combination of the distinct non-zero lock masks,
// including the empty one.
func ignoreMasks(locks ...uint16) []uint16 {
	var base []uint16
	for _, m := range locks {
		if m == 0 {
			continue
		}
		dup := false
		for _, b := range base {
			if b == m {
				dup = true
				break
			}
		}
		if !dup {
			base = append(base, m)
		}
	}

	out := make([]uint16, 0, 1<<len(base))
	for subset := 0; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		out = append(out, mask)
	}
	return out
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
