package x11

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/BurntSushi/xgb/xproto"
)

type fakeRequests struct {
	calls      []string
	requestErr error
	configErr  error
	// alive is consulted after the geometry request has been sent.
	alive bool
}

func (f *fakeRequests) unmaximize(xproto.Window) error {
	f.calls = append(f.calls, "unmaximize")
	return errors.New("property _NET_WM_STATE not found")
}

func (f *fakeRequests) requestMoveResize(xproto.Window, int, int, int, int) error {
	f.calls = append(f.calls, "request")
	return f.requestErr
}

func (f *fakeRequests) configure(xproto.Window, int, int, int, int) error {
	f.calls = append(f.calls, "configure")
	return f.configErr
}

func (f *fakeRequests) checkAlive(xproto.Window) error {
	f.calls = append(f.calls, "alive")
	if !f.alive {
		return errors.New("BadDrawable")
	}
	return nil
}

func TestMoveResize_LiveWindow(t *testing.T) {
	r := &fakeRequests{alive: true}
	if err := moveResize(r, 0x2a00007, 0, -432, 1920, 432); err != nil {
		t.Fatalf("moveResize: %v", err)
	}
	want := []string{"unmaximize", "request", "alive"}
	if !reflect.DeepEqual(r.calls, want) {
		t.Fatalf("calls = %v, want %v", r.calls, want)
	}
}

func TestMoveResize_DestroyedWindowFails(t *testing.T) {
	r := &fakeRequests{alive: false}
	err := moveResize(r, 0x2a00007, 0, -432, 1920, 432)
	if err == nil {
		t.Fatal("expected an error for a destroyed window")
	}
	if !strings.Contains(err.Error(), "0x2a00007 is gone") {
		t.Fatalf("unexpected error %q", err)
	}
}

func TestMoveResize_FallsBackToConfigure(t *testing.T) {
	r := &fakeRequests{alive: true, requestErr: errors.New("no WM")}
	if err := moveResize(r, 0x2a00007, 10, 20, 300, 200); err != nil {
		t.Fatalf("moveResize: %v", err)
	}
	want := []string{"unmaximize", "request", "configure", "alive"}
	if !reflect.DeepEqual(r.calls, want) {
		t.Fatalf("calls = %v, want %v", r.calls, want)
	}
}

func TestMoveResize_ConfigureErrorIsReturned(t *testing.T) {
	r := &fakeRequests{alive: true, requestErr: errors.New("no WM"), configErr: errors.New("BadWindow")}
	err := moveResize(r, 0x2a00007, 10, 20, 300, 200)
	if err == nil || !strings.Contains(err.Error(), "BadWindow") {
		t.Fatalf("expected configure error, got %v", err)
	}
}
