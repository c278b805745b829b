package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/dropterm/internal/platform"
)

// DefaultInterval is how often the managed window is re-resolved.
const DefaultInterval = 5 * time.Second

// TargetResolver resolves the managed window.
type TargetResolver interface {
	TargetWindow() (platform.WindowID, error)
}

// Attacher prepares a window for dropdown use.
type Attacher interface {
	Attach(ctx context.Context) error
	Reattach(ctx context.Context) error
}

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Reconciler periodically checks whether the managed window was replaced,
// for example after the terminal was restarted, and prepares the new one.
type Reconciler struct {
	interval time.Duration
	targets  TargetResolver
	attacher Attacher
	logger   *slog.Logger

	mu    sync.Mutex
	known platform.WindowID
}

// NewReconciler creates a new reconciler with the given configuration.
func NewReconciler(cfg ReconcilerConfig, targets TargetResolver, attacher Attacher) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Reconciler{
		interval: interval,
		targets:  targets,
		attacher: attacher,
		logger:   logger,
	}
}

// SetKnown records a window that has already been attached.
func (r *Reconciler) SetKnown(window platform.WindowID) {
	r.mu.Lock()
	r.known = window
	r.mu.Unlock()
}

// Known returns the last window the reconciler attached or was told about.
func (r *Reconciler) Known() platform.WindowID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.known
}

// Run starts the reconciliation loop. Blocks until context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			r.reconcile(ctx)
		}
	}
}

// reconcile performs a single reconciliation pass.
func (r *Reconciler) reconcile(ctx context.Context) {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	window, err := r.targets.TargetWindow()
	if err != nil {
		r.mu.Lock()
		lost := r.known != 0
		r.known = 0
		r.mu.Unlock()
		if lost {
			r.logger.Info("reconciler: managed window gone", "error", err)
		} else {
			r.logger.Debug("reconciler: no managed window", "error", err)
		}
		return
	}

	r.mu.Lock()
	previous := r.known
	r.mu.Unlock()
	if window == previous {
		return
	}

	// A window seen for the first time gets the configured start state; a
	// replacement inherits the current one.
	if previous == 0 {
		err = r.attacher.Attach(ctx)
	} else {
		err = r.attacher.Reattach(ctx)
	}
	if err != nil {
		r.logger.Warn("reconciler: failed to attach window",
			"window", fmt.Sprintf("0x%x", uint32(window)),
			"error", err)
		return
	}

	r.logger.Info("reconciler: attached window",
		"window", fmt.Sprintf("0x%x", uint32(window)),
		"previous", fmt.Sprintf("0x%x", uint32(previous)))
	r.SetKnown(window)
}

// ReconcileNow triggers an immediate reconciliation pass.
func (r *Reconciler) ReconcileNow(ctx context.Context) {
	r.reconcile(ctx)
}
