// Package toggle animates the managed window between its hidden and docked
// positions.
package toggle

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/1broseidon/dropterm/internal/config"
	"github.com/1broseidon/dropterm/internal/geometry"
	"github.com/1broseidon/dropterm/internal/platform"
)

// State is the accepted visibility of the managed window.
type State int32

const (
	Closed State = iota
	Opening
	Open
	Closing
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Opening:
		return "opening"
	case Open:
		return "open"
	case Closing:
		return "closing"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Settings provides the live configuration.
type Settings interface {
	Current() *config.Config
}

// TargetProvider resolves the managed window.
type TargetProvider interface {
	TargetWindow() (platform.WindowID, error)
}

// ScreenSelector picks the display a run is anchored to.
type ScreenSelector interface {
	Active() (platform.Display, error)
}

// FocusNotifier is told when the machine hands focus to the window.
type FocusNotifier interface {
	FocusGained(window platform.WindowID)
}

// Sleeper suspends a run between frames. It returns early with ctx.Err()
// when ctx is cancelled.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type timerSleeper struct{}

func (timerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run describes one animation.
type Run struct {
	ID       string
	Open     bool
	Duration time.Duration
	Steps    int
	Delay    time.Duration
	Screen   platform.Display
	Area     platform.Rect
	Window   platform.WindowID
	Started  time.Time
	Err      error
}

// Deps are the collaborators of a Machine. Focus, Sleeper and Logger are
// optional.
type Deps struct {
	Windows  platform.WindowManager
	Screens  ScreenSelector
	Targets  TargetProvider
	Settings Settings
	Focus    FocusNotifier
	Sleeper  Sleeper
	Logger   *slog.Logger
}

// Machine serializes animation runs against the managed window. A run holds
// the machine for its whole duration, sleeps included; a second caller
// waits for it to finish.
type Machine struct {
	runMu sync.Mutex

	// Style of styledWindow before Attach changed it; guarded by runMu.
	styledWindow platform.WindowID
	origStyle    platform.Style

	mu      sync.Mutex
	state   State
	lastRun *Run

	windows  platform.WindowManager
	screens  ScreenSelector
	targets  TargetProvider
	settings Settings
	focus    FocusNotifier
	sleeper  Sleeper
	logger   *slog.Logger
	now      func() time.Time
}

// NewMachine creates a machine in the Closed state.
func NewMachine(d Deps) *Machine {
	if d.Sleeper == nil {
		d.Sleeper = timerSleeper{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Machine{
		state:    Closed,
		windows:  d.Windows,
		screens:  d.Screens,
		targets:  d.Targets,
		settings: d.Settings,
		focus:    d.Focus,
		sleeper:  d.Sleeper,
		logger:   d.Logger,
		now:      time.Now,
	}
}

// State returns the current state. It never waits for a running animation.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsOpen reports whether the accepted target state is open.
func (m *Machine) IsOpen() bool {
	s := m.State()
	return s == Opening || s == Open
}

// LastRun returns a copy of the most recent run, or nil before the first.
func (m *Machine) LastRun() *Run {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastRun == nil {
		return nil
	}
	r := *m.lastRun
	return &r
}

// Toggle slides the window open or closed over duration. Any window-system
// failure aborts the run; the state is then left at the attempted target.
// Failing to resolve the window or screen rejects the run and leaves the
// state untouched.
func (m *Machine) Toggle(ctx context.Context, open bool, duration time.Duration) error {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	return m.toggleLocked(ctx, open, duration)
}

// Attach prepares a freshly found window: its current style is extended so
// it is hidden from the taskbar and pager and kept above other windows on
// every desktop, then it is snapped to the configured start state without
// animation.
func (m *Machine) Attach(ctx context.Context) error {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	return m.attachLocked(ctx, m.settings.Current().StartOpen)
}

// Reattach re-applies the window style and snaps the window to the current
// state. Used when the managed window was replaced.
func (m *Machine) Reattach(ctx context.Context) error {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	return m.attachLocked(ctx, m.IsOpen())
}

// Reset gives the window back to the user: the style it had before Attach,
// covering the active display and maximized. The state becomes Open.
func (m *Machine) Reset(ctx context.Context) error {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	window, err := m.targets.TargetWindow()
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	screen, err := m.screens.Active()
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	m.setState(Open)
	m.logger.Info("resetting window", "window", fmt.Sprintf("0x%x", uint32(window)), "screen", screen.Name)

	var style platform.Style
	if window == m.styledWindow {
		style = m.origStyle
	}
	if err := m.windows.SetExtendedStyle(window, style); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	if err := m.windows.Show(window, platform.ShowRestore); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	if err := m.windows.MoveResize(window, m.settings.Current().Area(screen)); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	if err := m.windows.Show(window, platform.ShowMaximize); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}

func (m *Machine) attachLocked(ctx context.Context, open bool) error {
	window, err := m.targets.TargetWindow()
	if err != nil {
		return fmt.Errorf("attach: %w", err)
	}
	style, err := m.windows.ExtendedStyle(window)
	if err != nil {
		return fmt.Errorf("attach: %w", err)
	}
	if window != m.styledWindow {
		m.styledWindow = window
		m.origStyle = style
	}
	style.SkipTaskbar = true
	style.Above = true
	style.Sticky = true
	if err := m.windows.SetExtendedStyle(window, style); err != nil {
		return fmt.Errorf("attach: %w", err)
	}
	return m.toggleLocked(ctx, open, 0)
}

func (m *Machine) toggleLocked(ctx context.Context, open bool, duration time.Duration) error {
	window, err := m.targets.TargetWindow()
	if err != nil {
		return fmt.Errorf("resolve target window: %w", err)
	}
	screen, err := m.screens.Active()
	if err != nil {
		return fmt.Errorf("resolve screen: %w", err)
	}
	cfg := m.settings.Current()
	layout := cfg.Layout()
	area := cfg.Area(screen)
	if w, h := layout.Size(area); w <= 0 || h <= 0 {
		return fmt.Errorf("layout gives a %dx%d window on %s", w, h, screen.Name)
	}
	steps, delay := geometry.Plan(duration)

	id, err := ulid.New(ulid.Timestamp(m.now()), rand.Reader)
	if err != nil {
		return fmt.Errorf("failed to generate run ID: %w", err)
	}
	run := &Run{
		ID:       id.String(),
		Open:     open,
		Duration: duration,
		Steps:    steps,
		Delay:    delay,
		Screen:   screen,
		Area:     area,
		Window:   window,
		Started:  m.now(),
	}

	m.mu.Lock()
	if open {
		m.state = Opening
	} else {
		m.state = Closing
	}
	m.lastRun = run
	m.mu.Unlock()

	log := m.logger.With("run", run.ID, "window", fmt.Sprintf("0x%x", uint32(window)))
	log.Debug("animation started",
		"open", open,
		"screen", screen.Name,
		"steps", steps,
		"delay", delay)

	if open {
		err = m.open(ctx, run, layout)
	} else {
		err = m.close(ctx, run, layout)
	}

	m.mu.Lock()
	if open {
		m.state = Open
	} else {
		m.state = Closed
	}
	run.Err = err
	m.mu.Unlock()

	if err != nil {
		log.Warn("animation aborted", "open", open, "error", err)
		return err
	}
	log.Debug("animation finished", "open", open, "elapsed", m.now().Sub(run.Started))
	return nil
}

func (m *Machine) open(ctx context.Context, run *Run, layout geometry.Layout) error {
	if m.focus != nil {
		m.focus.FocusGained(run.Window)
	}
	if err := m.windows.Show(run.Window, platform.ShowRestore); err != nil {
		return runErr(run, "restore", err)
	}
	if err := m.windows.Activate(run.Window); err != nil {
		return runErr(run, "activate", err)
	}

	for i := 1; i <= run.Steps; i++ {
		if err := m.step(ctx, run, layout, i); err != nil {
			return err
		}
	}

	if layout.FullCoverage() {
		if err := m.windows.Show(run.Window, platform.ShowMaximize); err != nil {
			return runErr(run, "maximize", err)
		}
	}
	return nil
}

func (m *Machine) close(ctx context.Context, run *Run, layout geometry.Layout) error {
	if err := m.windows.Show(run.Window, platform.ShowRestore); err != nil {
		return runErr(run, "restore", err)
	}
	if err := m.windows.Activate(run.Window); err != nil {
		return runErr(run, "activate", err)
	}

	for i := run.Steps - 1; i >= 0; i-- {
		if err := m.step(ctx, run, layout, i); err != nil {
			return err
		}
	}

	// Minimize first so the window manager hands focus to the previous
	// window, then unmap so nothing lingers on the desktop.
	if err := m.windows.Show(run.Window, platform.ShowMinimize); err != nil {
		return runErr(run, "minimize", err)
	}
	if err := m.windows.Show(run.Window, platform.ShowHide); err != nil {
		return runErr(run, "hide", err)
	}
	return nil
}

func (m *Machine) step(ctx context.Context, run *Run, layout geometry.Layout, i int) error {
	bounds := geometry.ComputeBounds(run.Area, layout, run.Steps, i)
	if err := m.windows.MoveResize(run.Window, bounds); err != nil {
		return runErr(run, fmt.Sprintf("step %d/%d", i, run.Steps), err)
	}
	if err := m.sleeper.Sleep(ctx, run.Delay); err != nil {
		return runErr(run, fmt.Sprintf("step %d/%d", i, run.Steps), err)
	}
	return nil
}

func (m *Machine) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func runErr(run *Run, stage string, err error) error {
	dir := "close"
	if run.Open {
		dir = "open"
	}
	return fmt.Errorf("run %s: %s %s: %w", run.ID, dir, stage, err)
}

// IsCanceled reports whether err aborted a run because its context ended.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
