package ipc

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/dropterm/internal/hotkeys"
	"github.com/1broseidon/dropterm/internal/platform"
	"github.com/1broseidon/dropterm/internal/toggle"
	"github.com/1broseidon/dropterm/internal/trigger"
)

type fakeController struct {
	mu      sync.Mutex
	actions []trigger.Action
	state   *fakeState
	err     error
}

func (f *fakeController) Request(_ context.Context, action trigger.Action) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
	if f.err != nil {
		return f.err
	}
	switch action {
	case trigger.ActionOpen:
		f.state.set(toggle.Open)
	case trigger.ActionClose:
		f.state.set(toggle.Closed)
	case trigger.ActionToggle:
		if f.state.State() == toggle.Open {
			f.state.set(toggle.Closed)
		} else {
			f.state.set(toggle.Open)
		}
	}
	return nil
}

type fakeState struct {
	mu    sync.Mutex
	state toggle.State
	run   *toggle.Run
}

func (f *fakeState) set(s toggle.State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

func (f *fakeState) State() toggle.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeState) LastRun() *toggle.Run {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.run
}

type fakeTargets struct {
	window platform.WindowID
	err    error
}

func (f fakeTargets) TargetWindow() (platform.WindowID, error) { return f.window, f.err }

type fakeDisplays struct {
	displays []platform.Display
	active   int
}

func (f fakeDisplays) Displays() ([]platform.Display, error) { return f.displays, nil }

func (f fakeDisplays) Active() (platform.Display, error) {
	for _, d := range f.displays {
		if d.ID == f.active {
			return d, nil
		}
	}
	return platform.Display{}, errors.New("no active display")
}

type fakeHotkeys []hotkeys.Registration

func (f fakeHotkeys) Registrations() []hotkeys.Registration { return f }

type fakeReloader struct {
	calls int
	err   error
}

func (f *fakeReloader) Reload() error {
	f.calls++
	return f.err
}

func startServer(t *testing.T, deps Deps) *Client {
	t.Helper()
	// Unix socket paths are limited to ~108 bytes; t.TempDir can exceed it.
	dir, err := os.MkdirTemp("", "dropterm-ipc")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	path := filepath.Join(dir, "d.sock")
	srv := NewServerAt(path, deps)
	require.NoError(t, srv.Start())
	t.Cleanup(srv.Stop)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	return NewClientAt(path)
}

func TestParseRequest(t *testing.T) {
	req, err := ParseRequest([]byte(`{"command":"TOGGLE"}`))
	require.NoError(t, err)
	assert.Equal(t, CommandToggle, req.Command)

	_, err = ParseRequest([]byte(`{not json`))
	assert.Error(t, err)
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse("boom")
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "boom", resp.Error)
}

func TestServer_ToggleOpenClose(t *testing.T) {
	state := &fakeState{state: toggle.Closed}
	ctrl := &fakeController{state: state}
	client := startServer(t, Deps{
		Controller: ctrl,
		State:      state,
		Targets:    fakeTargets{window: 0x2a00003},
	})

	status, err := client.Toggle()
	require.NoError(t, err)
	assert.Equal(t, "open", status.State)
	assert.True(t, status.Open)
	assert.Equal(t, uint32(0x2a00003), status.Window)

	status, err = client.Close()
	require.NoError(t, err)
	assert.Equal(t, "closed", status.State)
	assert.False(t, status.Open)

	_, err = client.Open()
	require.NoError(t, err)

	assert.Equal(t, []trigger.Action{trigger.ActionToggle, trigger.ActionClose, trigger.ActionOpen}, ctrl.actions)
}

func TestServer_ActionErrorIsReported(t *testing.T) {
	state := &fakeState{}
	client := startServer(t, Deps{
		Controller: &fakeController{state: state, err: errors.New("window vanished")},
		State:      state,
	})

	_, err := client.Toggle()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "window vanished")
}

func TestServer_GetStatus(t *testing.T) {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	state := &fakeState{
		state: toggle.Closing,
		run: &toggle.Run{
			ID:       "01HZXRUN",
			Open:     false,
			Duration: 250 * time.Millisecond,
			Steps:    10,
			Delay:    25 * time.Millisecond,
			Screen:   platform.Display{Name: "DP-1"},
			Started:  started,
			Err:      errors.New("step 3/10: bad window"),
		},
	}
	client := startServer(t, Deps{
		State:   state,
		Targets: fakeTargets{err: errors.New("no window matches class \"kitty\"")},
		Hotkeys: fakeHotkeys{{Handle: 1, Sequence: "Control-grave"}, {Handle: 2, Sequence: "F12"}},
	})

	status, err := client.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "closing", status.State)
	assert.False(t, status.Open)
	assert.Zero(t, status.Window)
	assert.Contains(t, status.WindowError, "kitty")
	assert.Equal(t, []string{"Control-grave", "F12"}, status.Hotkeys)

	require.NotNil(t, status.LastRun)
	assert.Equal(t, "01HZXRUN", status.LastRun.ID)
	assert.Equal(t, 10, status.LastRun.Steps)
	assert.Equal(t, int64(25), status.LastRun.DelayMS)
	assert.Equal(t, int64(250), status.LastRun.DurationMS)
	assert.Equal(t, "DP-1", status.LastRun.Display)
	assert.Equal(t, started.Unix(), status.LastRun.StartedAt)
	assert.Contains(t, status.LastRun.Error, "bad window")

	require.NoError(t, client.Ping())
}

func TestServer_GetDisplaysMarksActive(t *testing.T) {
	displays := fakeDisplays{
		displays: []platform.Display{
			{ID: 0, Name: "eDP-1", Bounds: platform.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}},
			{ID: 1, Name: "HDMI-1", Bounds: platform.Rect{X: 1920, Y: 0, Width: 2560, Height: 1440}},
		},
		active: 1,
	}
	client := startServer(t, Deps{Displays: displays, Screens: displays})

	data, err := client.GetDisplays()
	require.NoError(t, err)
	require.Len(t, data.Displays, 2)
	assert.False(t, data.Displays[0].Active)
	assert.True(t, data.Displays[1].Active)
	assert.Equal(t, 2560, data.Displays[1].Width)
	assert.Equal(t, 1920, data.Displays[1].X)
}

func TestServer_Reload(t *testing.T) {
	reloader := &fakeReloader{}
	client := startServer(t, Deps{Reloader: reloader})

	require.NoError(t, client.Reload())
	assert.Equal(t, 1, reloader.calls)

	reloader.err = errors.New("hotkeys.0: key is required")
	err := client.Reload()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key is required")
}

func TestServer_MissingDependencies(t *testing.T) {
	client := startServer(t, Deps{})

	_, err := client.Toggle()
	assert.Error(t, err)
	assert.Error(t, client.Reload())
	_, err = client.GetDisplays()
	assert.Error(t, err)

	status, err := client.GetStatus()
	require.NoError(t, err)
	assert.Empty(t, status.Hotkeys)
}

func TestClient_NoDaemon(t *testing.T) {
	client := NewClientAt(filepath.Join(t.TempDir(), "missing.sock"))
	err := client.Ping()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is the daemon running")
}
