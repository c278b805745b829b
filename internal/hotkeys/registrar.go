// Package hotkeys manages global key bindings as handles that can be
// released and re-registered while the daemon runs.
package hotkeys

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/1broseidon/dropterm/internal/config"
)

// ErrUnknownHandle is returned when unregistering a handle that is not active.
var ErrUnknownHandle = errors.New("unknown hotkey handle")

// Handle identifies one registration. Handles are never reused.
type Handle uint64

// Registration is an active hotkey.
type Registration struct {
	Handle   Handle
	Hotkey   config.Hotkey
	Sequence string
}

// Binder performs the window-system side of key grabbing. Bind is called
// once per key sequence and installs fn as its press callback; afterwards
// the sequence is switched on and off with Grab and Ungrab.
type Binder interface {
	Bind(sequence string, fn func()) error
	Grab(sequence string) error
	Ungrab(sequence string) error
}

// Registrar hands out handles for hotkeys and reports presses by handle.
type Registrar struct {
	mu      sync.Mutex
	binder  Binder
	onPress func(Handle)
	next    Handle
	active  map[Handle]Registration
	bySeq   map[string]Handle
	bound   map[string]bool
	logger  *slog.Logger
}

// NewRegistrar creates a registrar. onPress runs on the window-system event
// goroutine and must not block.
func NewRegistrar(binder Binder, onPress func(Handle), logger *slog.Logger) *Registrar {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registrar{
		binder:  binder,
		onPress: onPress,
		active:  make(map[Handle]Registration),
		bySeq:   make(map[string]Handle),
		bound:   make(map[string]bool),
		logger:  logger,
	}
}

// Register grabs hk globally and returns its handle.
func (r *Registrar) Register(hk config.Hotkey) (Handle, error) {
	seq := hk.String()

	r.mu.Lock()
	defer r.mu.Unlock()

	if h, taken := r.bySeq[seq]; taken {
		return 0, fmt.Errorf("hotkey %s already registered (handle %d)", seq, h)
	}

	if r.bound[seq] {
		if err := r.binder.Grab(seq); err != nil {
			return 0, fmt.Errorf("failed to grab hotkey %s: %w", seq, err)
		}
	} else {
		if err := r.binder.Bind(seq, func() { r.fire(seq) }); err != nil {
			return 0, fmt.Errorf("failed to bind hotkey %s: %w", seq, err)
		}
		r.bound[seq] = true
	}

	r.next++
	h := r.next
	r.active[h] = Registration{Handle: h, Hotkey: hk, Sequence: seq}
	r.bySeq[seq] = h
	r.logger.Info("registered hotkey", "hotkey", seq, "handle", h)
	return h, nil
}

// Unregister releases the grab behind h.
func (r *Registrar) Unregister(h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.active[h]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	delete(r.active, h)
	delete(r.bySeq, reg.Sequence)

	if err := r.binder.Ungrab(reg.Sequence); err != nil {
		return fmt.Errorf("failed to ungrab hotkey %s: %w", reg.Sequence, err)
	}
	r.logger.Debug("unregistered hotkey", "hotkey", reg.Sequence, "handle", h)
	return nil
}

// Registrations lists the active hotkeys ordered by handle.
func (r *Registrar) Registrations() []Registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Registration, 0, len(r.active))
	for _, reg := range r.active {
		out = append(out, reg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out
}

func (r *Registrar) fire(seq string) {
	r.mu.Lock()
	h, ok := r.bySeq[seq]
	r.mu.Unlock()
	if !ok {
		// Released sequence; a press can still be in flight.
		return
	}
	if r.onPress != nil {
		r.onPress(h)
	}
}
