// Package trigger reconciles hotkeys, focus changes, control requests and
// settings reloads into sequential toggle runs.
package trigger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/dropterm/internal/config"
	"github.com/1broseidon/dropterm/internal/hotkeys"
	"github.com/1broseidon/dropterm/internal/toggle"
)

// QueueSize bounds the number of pending triggers.
const QueueSize = 16

// ErrQueueFull is returned by Request when the trigger queue is saturated.
var ErrQueueFull = errors.New("trigger queue full")

// Machine runs the animations.
type Machine interface {
	Toggle(ctx context.Context, open bool, duration time.Duration) error
	IsOpen() bool
}

// Registrar grabs global hotkeys.
type Registrar interface {
	Register(hk config.Hotkey) (hotkeys.Handle, error)
	Unregister(h hotkeys.Handle) error
}

// Settings provides the live configuration.
type Settings interface {
	Current() *config.Config
}

// Action is an explicit control request.
type Action int

const (
	ActionToggle Action = iota
	ActionOpen
	ActionClose
)

func (a Action) String() string {
	switch a {
	case ActionToggle:
		return "toggle"
	case ActionOpen:
		return "open"
	case ActionClose:
		return "close"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

type eventKind int

const (
	hotkeyPressed eventKind = iota
	focusLost
	settingsChanged
	request
)

func (k eventKind) String() string {
	switch k {
	case hotkeyPressed:
		return "hotkey"
	case focusLost:
		return "focus_lost"
	case settingsChanged:
		return "settings_changed"
	case request:
		return "request"
	default:
		return fmt.Sprintf("eventKind(%d)", int(k))
	}
}

type event struct {
	kind   eventKind
	handle hotkeys.Handle
	action Action
	done   chan error
}

// Coordinator owns the trigger queue. All triggers are handled one at a
// time on the goroutine running Run, so a trigger arriving mid-animation
// waits for the animation to finish.
type Coordinator struct {
	machine   Machine
	registrar Registrar
	settings  Settings
	logger    *slog.Logger
	events    chan event

	mu      sync.Mutex
	handles []hotkeys.Handle
}

// NewCoordinator creates a coordinator.
func NewCoordinator(machine Machine, registrar Registrar, settings Settings, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		machine:   machine,
		registrar: registrar,
		settings:  settings,
		logger:    logger,
		events:    make(chan event, QueueSize),
	}
}

// Start registers the configured hotkeys. Hotkeys that fail to register are
// skipped and reported in the returned error.
func (c *Coordinator) Start() error {
	handles, err := c.registerAll(c.settings.Current().Hotkeys)
	c.mu.Lock()
	c.handles = handles
	c.mu.Unlock()
	return err
}

// Handles returns the hotkey handles currently held.
func (c *Coordinator) Handles() []hotkeys.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]hotkeys.Handle(nil), c.handles...)
}

// HotkeyPressed queues a hotkey press. Safe to call from the X event loop.
func (c *Coordinator) HotkeyPressed(h hotkeys.Handle) {
	c.enqueue(event{kind: hotkeyPressed, handle: h})
}

// FocusLost queues a focus-lost notification.
func (c *Coordinator) FocusLost() {
	c.enqueue(event{kind: focusLost})
}

// SettingsChanged queues a hotkey re-registration.
func (c *Coordinator) SettingsChanged() {
	c.enqueue(event{kind: settingsChanged})
}

// Request queues an explicit action and waits until it has been handled.
// Open and close requests that match the current state are no-ops.
func (c *Coordinator) Request(ctx context.Context, action Action) error {
	done := make(chan error, 1)
	if !c.enqueue(event{kind: request, action: action, done: done}) {
		return ErrQueueFull
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run dispatches triggers until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) {
	c.logger.Debug("trigger coordinator started")
	for {
		select {
		case <-ctx.Done():
			c.logger.Debug("trigger coordinator stopped")
			return
		case ev := <-c.events:
			c.dispatch(ctx, ev)
		}
	}
}

// Close releases every held hotkey.
func (c *Coordinator) Close() {
	c.mu.Lock()
	handles := c.handles
	c.handles = nil
	c.mu.Unlock()
	c.unregisterAll(handles)
}

func (c *Coordinator) enqueue(ev event) bool {
	select {
	case c.events <- ev:
		return true
	default:
		c.logger.Warn("trigger queue full, dropping event", "kind", ev.kind)
		return false
	}
}

func (c *Coordinator) dispatch(ctx context.Context, ev event) {
	switch ev.kind {
	case hotkeyPressed:
		if !c.holds(ev.handle) {
			c.logger.Debug("ignoring press of released hotkey", "handle", ev.handle)
			return
		}
		c.toggle(ctx, !c.machine.IsOpen(), c.settings.Current().ToggleDuration(), "hotkey")

	case focusLost:
		if !c.settings.Current().HideOnFocusLost || !c.machine.IsOpen() {
			return
		}
		c.toggle(ctx, false, 0, "focus lost")

	case settingsChanged:
		c.reloadHotkeys()

	case request:
		ev.done <- c.handleRequest(ctx, ev.action)
	}
}

func (c *Coordinator) handleRequest(ctx context.Context, action Action) error {
	isOpen := c.machine.IsOpen()
	var open bool
	switch action {
	case ActionToggle:
		open = !isOpen
	case ActionOpen:
		open = true
	case ActionClose:
		open = false
	default:
		return fmt.Errorf("unknown action %d", int(action))
	}
	if action != ActionToggle && open == isOpen {
		c.logger.Debug("ignoring duplicate request", "action", action)
		return nil
	}
	return c.toggle(ctx, open, c.settings.Current().ToggleDuration(), action.String())
}

func (c *Coordinator) toggle(ctx context.Context, open bool, duration time.Duration, cause string) error {
	err := c.machine.Toggle(ctx, open, duration)
	if err != nil && !toggle.IsCanceled(err) {
		c.logger.Error("toggle failed", "cause", cause, "open", open, "error", err)
	}
	return err
}

func (c *Coordinator) holds(h hotkeys.Handle) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, held := range c.handles {
		if held == h {
			return true
		}
	}
	return false
}

// reloadHotkeys replaces the held registrations with the configured set.
// It runs on the dispatcher goroutine, so no press is handled in between.
func (c *Coordinator) reloadHotkeys() {
	c.mu.Lock()
	old := c.handles
	c.mu.Unlock()

	c.unregisterAll(old)
	handles, err := c.registerAll(c.settings.Current().Hotkeys)
	if err != nil {
		c.logger.Error("hotkey reload incomplete", "error", err)
	}

	c.mu.Lock()
	c.handles = handles
	c.mu.Unlock()
	c.logger.Info("hotkeys reloaded", "count", len(handles))
}

func (c *Coordinator) registerAll(hks []config.Hotkey) ([]hotkeys.Handle, error) {
	handles := make([]hotkeys.Handle, 0, len(hks))
	var errs []error
	for _, hk := range hks {
		h, err := c.registrar.Register(hk)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		handles = append(handles, h)
	}
	return handles, errors.Join(errs...)
}

func (c *Coordinator) unregisterAll(handles []hotkeys.Handle) {
	for _, h := range handles {
		if err := c.registrar.Unregister(h); err != nil {
			c.logger.Warn("failed to unregister hotkey", "handle", h, "error", err)
		}
	}
}
