package toggle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/dropterm/internal/config"
	"github.com/1broseidon/dropterm/internal/platform"
)

const testWindow platform.WindowID = 0x2a00007

type fakeWM struct {
	mu       sync.Mutex
	calls    []string
	moves    []platform.Rect
	styles   []platform.Style
	current  platform.Style // returned by ExtendedStyle
	styleErr error
	failMove int // fail the n-th MoveResize (1-based); 0 never fails
	failShow platform.ShowMode
	showErr  error
}

func (f *fakeWM) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeWM) Show(w platform.WindowID, mode platform.ShowMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("show " + mode.String())
	if f.showErr != nil && mode == f.failShow {
		return &platform.CommandError{Op: "show " + mode.String(), Window: w, Err: f.showErr}
	}
	return nil
}

func (f *fakeWM) MoveResize(w platform.WindowID, r platform.Rect) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("move")
	f.moves = append(f.moves, r)
	if f.failMove > 0 && len(f.moves) == f.failMove {
		return &platform.CommandError{Op: "move_resize", Window: w, Err: errors.New("BadWindow")}
	}
	return nil
}

func (f *fakeWM) Activate(platform.WindowID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("activate")
	return nil
}

func (f *fakeWM) ExtendedStyle(w platform.WindowID) (platform.Style, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.styleErr != nil {
		return platform.Style{}, &platform.CommandError{Op: "get_style", Window: w, Err: f.styleErr}
	}
	return f.current, nil
}

func (f *fakeWM) SetExtendedStyle(_ platform.WindowID, s platform.Style) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("style")
	f.styles = append(f.styles, s)
	f.current = s
	return nil
}

func (f *fakeWM) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fixedScreen struct {
	display platform.Display
	err     error
}

func (s fixedScreen) Active() (platform.Display, error) { return s.display, s.err }

type fixedTarget struct {
	id  platform.WindowID
	err error
}

func (t fixedTarget) TargetWindow() (platform.WindowID, error) { return t.id, t.err }

type staticSettings struct{ cfg *config.Config }

func (s staticSettings) Current() *config.Config { return s.cfg }

type recordingSleeper struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.sleeps = append(r.sleeps, d)
	r.mu.Unlock()
	return ctx.Err()
}

type focusRecorder struct{ gained []platform.WindowID }

func (f *focusRecorder) FocusGained(w platform.WindowID) { f.gained = append(f.gained, w) }

type harness struct {
	m       *Machine
	wm      *fakeWM
	sleeper *recordingSleeper
	focus   *focusRecorder
	cfg     *config.Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.HorizontalScreenCoverage = 100
	cfg.VerticalScreenCoverage = 40
	h := &harness{
		wm:      &fakeWM{},
		sleeper: &recordingSleeper{},
		focus:   &focusRecorder{},
		cfg:     cfg,
	}
	h.m = NewMachine(Deps{
		Windows:  h.wm,
		Screens:  fixedScreen{display: platform.Display{ID: 0, Name: "eDP-1", Bounds: platform.Rect{Width: 1920, Height: 1080}}},
		Targets:  fixedTarget{id: testWindow},
		Settings: staticSettings{cfg: cfg},
		Focus:    h.focus,
		Sleeper:  h.sleeper,
	})
	return h
}

func TestToggle_OpenSequence(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.m.Toggle(context.Background(), true, 250*time.Millisecond))

	calls := h.wm.Calls()
	require.Len(t, calls, 2+10)
	assert.Equal(t, []string{"show restore", "activate"}, calls[:2])
	for _, c := range calls[2:] {
		assert.Equal(t, "move", c)
	}
	assert.Equal(t, platform.Rect{X: 0, Y: -432 + 43, Width: 1920, Height: 432}, h.wm.moves[0])
	assert.Equal(t, platform.Rect{X: 0, Y: 0, Width: 1920, Height: 432}, h.wm.moves[9])
	assert.Len(t, h.sleeper.sleeps, 10)
	assert.Equal(t, 25*time.Millisecond, h.sleeper.sleeps[0])
	assert.Equal(t, []platform.WindowID{testWindow}, h.focus.gained)
	assert.Equal(t, Open, h.m.State())
	assert.True(t, h.m.IsOpen())
}

func TestToggle_CloseSequence(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.m.Toggle(context.Background(), false, 100*time.Millisecond))

	calls := h.wm.Calls()
	assert.Equal(t, []string{"show restore", "activate", "move", "move", "move", "move", "show minimize", "show hide"}, calls)
	// Descending n-1..0, ending fully above the screen.
	assert.Equal(t, platform.Rect{X: 0, Y: -432 + 324, Width: 1920, Height: 432}, h.wm.moves[0])
	assert.Equal(t, platform.Rect{X: 0, Y: -432, Width: 1920, Height: 432}, h.wm.moves[3])
	assert.Empty(t, h.focus.gained)
	assert.Equal(t, Closed, h.m.State())
}

func TestToggle_FullCoverageMaximizesAfterOpening(t *testing.T) {
	h := newHarness(t)
	h.cfg.VerticalScreenCoverage = 100

	require.NoError(t, h.m.Toggle(context.Background(), true, 0))

	assert.Equal(t, []string{"show restore", "activate", "move", "show maximize"}, h.wm.Calls())
	assert.Equal(t, platform.Rect{Width: 1920, Height: 1080}, h.wm.moves[0])
}

func TestToggle_UseWorkAreaAnchorsBelowPanel(t *testing.T) {
	h := newHarness(t)
	h.cfg.UseWorkArea = true
	h.m.screens = fixedScreen{display: platform.Display{
		Name:   "eDP-1",
		Bounds: platform.Rect{Width: 1920, Height: 1080},
		Usable: platform.Rect{Y: 30, Width: 1920, Height: 1050},
	}}

	require.NoError(t, h.m.Toggle(context.Background(), true, 0))

	// 40% of the usable height, docked at the bottom edge of the top panel.
	assert.Equal(t, platform.Rect{X: 0, Y: 30, Width: 1920, Height: 420}, h.wm.moves[0])
	assert.Equal(t, platform.Rect{Y: 30, Width: 1920, Height: 1050}, h.m.LastRun().Area)
}

func TestToggle_InstantIsSingleStepWithoutDelay(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.m.Toggle(context.Background(), false, 0))

	require.Len(t, h.wm.moves, 1)
	assert.Equal(t, []time.Duration{0}, h.sleeper.sleeps)
	run := h.m.LastRun()
	require.NotNil(t, run)
	assert.Equal(t, 1, run.Steps)
	assert.Equal(t, time.Duration(0), run.Delay)
	assert.False(t, run.Open)
	assert.Equal(t, testWindow, run.Window)
	assert.Len(t, run.ID, 26)
}

func TestToggle_AlreadyOpenReaffirmsOpenRectangle(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.m.Toggle(context.Background(), true, 50*time.Millisecond))
	first := append([]platform.Rect(nil), h.wm.moves...)

	require.NoError(t, h.m.Toggle(context.Background(), true, 50*time.Millisecond))

	assert.Equal(t, first, h.wm.moves[len(first):])
	assert.Equal(t, Open, h.m.State())
}

func TestToggle_FailedMoveAbortsAndKeepsAttemptedState(t *testing.T) {
	h := newHarness(t)
	h.wm.failMove = 3

	err := h.m.Toggle(context.Background(), true, 250*time.Millisecond)
	require.Error(t, err)

	var cmdErr *platform.CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, "move_resize", cmdErr.Op)
	assert.Contains(t, err.Error(), "open step 3/10")
	assert.Len(t, h.wm.moves, 3, "no further frames after the failure")
	assert.NotContains(t, h.wm.Calls(), "show maximize")
	assert.Equal(t, Open, h.m.State(), "state is not rolled back")

	run := h.m.LastRun()
	require.NotNil(t, run)
	assert.ErrorIs(t, run.Err, cmdErr)
	assert.Contains(t, err.Error(), run.ID)
}

func TestToggle_FailedHideLeavesClosed(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.m.Toggle(context.Background(), true, 0))
	h.wm.failShow = platform.ShowHide
	h.wm.showErr = errors.New("BadMatch")

	err := h.m.Toggle(context.Background(), false, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "close hide")
	assert.Equal(t, Closed, h.m.State())
	assert.False(t, h.m.IsOpen())
}

func TestToggle_ResolutionFailureLeavesStateUntouched(t *testing.T) {
	h := newHarness(t)
	h.m.targets = fixedTarget{err: errors.New("not found")}

	err := h.m.Toggle(context.Background(), true, 0)
	require.Error(t, err)
	assert.Equal(t, Closed, h.m.State())
	assert.Empty(t, h.wm.Calls())
	assert.Nil(t, h.m.LastRun())

	h.m.targets = fixedTarget{id: testWindow}
	h.m.screens = fixedScreen{err: errors.New("no displays found")}
	require.Error(t, h.m.Toggle(context.Background(), true, 0))
	assert.Equal(t, Closed, h.m.State())
}

func TestToggle_DegenerateLayoutIsRejected(t *testing.T) {
	h := newHarness(t)
	h.cfg.VerticalScreenCoverage = 1
	h.cfg.VerticalOffset = -500

	err := h.m.Toggle(context.Background(), true, 100*time.Millisecond)
	require.ErrorContains(t, err, "x-489 window")
	assert.Equal(t, Closed, h.m.State())
	assert.Empty(t, h.wm.Calls())
	assert.Nil(t, h.m.LastRun())
}

func TestToggle_CancelledContextAbortsRun(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.m.Toggle(ctx, true, 250*time.Millisecond)
	require.Error(t, err)
	assert.True(t, IsCanceled(err))
	assert.Len(t, h.wm.moves, 1)
	assert.Equal(t, Open, h.m.State())
}

func TestToggle_ReadsLayoutPerRun(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.m.Toggle(context.Background(), true, 0))

	h.cfg.HorizontalScreenCoverage = 50
	h.cfg.HorizontalAlign = "right"
	require.NoError(t, h.m.Toggle(context.Background(), true, 0))

	assert.Equal(t, platform.Rect{X: 960, Y: 0, Width: 960, Height: 432}, h.wm.moves[1])
}

type blockingSleeper struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingSleeper) Sleep(ctx context.Context, _ time.Duration) error {
	b.entered <- struct{}{}
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestToggle_ConcurrentCallsAreSerialized(t *testing.T) {
	h := newHarness(t)
	bs := &blockingSleeper{entered: make(chan struct{}), release: make(chan struct{})}
	h.m.sleeper = bs

	done := make(chan error, 2)
	go func() { done <- h.m.Toggle(context.Background(), true, 0) }()
	<-bs.entered

	// The state is readable while the run is in flight.
	assert.Equal(t, Opening, h.m.State())
	assert.True(t, h.m.IsOpen())

	go func() { done <- h.m.Toggle(context.Background(), false, 0) }()
	select {
	case <-bs.entered:
		t.Fatal("second run started before the first finished")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Len(t, h.wm.moves, 1)

	bs.release <- struct{}{}
	<-bs.entered
	bs.release <- struct{}{}
	require.NoError(t, <-done)
	require.NoError(t, <-done)
	assert.Equal(t, Closed, h.m.State())
}

func TestAttach_StylesThenClosesInstantly(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.m.Attach(context.Background()))

	calls := h.wm.Calls()
	assert.Equal(t, "style", calls[0])
	assert.Equal(t, platform.Style{SkipTaskbar: true, Above: true, Sticky: true}, h.wm.styles[0])
	assert.Equal(t, "show hide", calls[len(calls)-1])
	assert.Equal(t, Closed, h.m.State())
}

func TestAttach_StartOpen(t *testing.T) {
	h := newHarness(t)
	h.cfg.StartOpen = true

	require.NoError(t, h.m.Attach(context.Background()))
	assert.Equal(t, Open, h.m.State())
	assert.Equal(t, []platform.WindowID{testWindow}, h.focus.gained)
}

func TestReattach_KeepsCurrentState(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.m.Toggle(context.Background(), true, 0))

	require.NoError(t, h.m.Reattach(context.Background()))
	assert.Equal(t, Open, h.m.State())
	assert.Contains(t, h.wm.Calls(), "style")
}

func TestReset_RestoresWindow(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.m.Attach(context.Background()))
	before := len(h.wm.Calls())

	require.NoError(t, h.m.Reset(context.Background()))

	assert.Equal(t, []string{"style", "show restore", "move", "show maximize"}, h.wm.Calls()[before:])
	assert.Equal(t, platform.Style{}, h.wm.styles[len(h.wm.styles)-1])
	assert.Equal(t, platform.Rect{Width: 1920, Height: 1080}, h.wm.moves[len(h.wm.moves)-1])
	assert.Equal(t, Open, h.m.State())
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{Closed: "closed", Opening: "opening", Open: "open", Closing: "closing"} {
		assert.Equal(t, want, s.String())
	}
	assert.Equal(t, fmt.Sprintf("State(%d)", 9), State(9).String())
}

func TestAttach_FailsWhenStyleUnreadable(t *testing.T) {
	h := newHarness(t)
	h.wm.styleErr = errors.New("BadWindow")

	err := h.m.Attach(context.Background())
	var cmdErr *platform.CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, "get_style", cmdErr.Op)
	assert.Empty(t, h.wm.Calls())
	assert.Equal(t, Closed, h.m.State())
}

func TestReset_RestoresStyleFromBeforeAttach(t *testing.T) {
	h := newHarness(t)
	h.wm.current = platform.Style{Above: true}

	require.NoError(t, h.m.Attach(context.Background()))
	assert.Equal(t, platform.Style{SkipTaskbar: true, Above: true, Sticky: true}, h.wm.current)

	// A second attach of the same window must not mistake the dropdown
	// style for the user's own.
	require.NoError(t, h.m.Reattach(context.Background()))

	require.NoError(t, h.m.Reset(context.Background()))
	assert.Equal(t, platform.Style{Above: true}, h.wm.current)
}
