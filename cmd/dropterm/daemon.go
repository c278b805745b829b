package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/1broseidon/dropterm/internal/config"
	"github.com/1broseidon/dropterm/internal/daemon"
	"github.com/1broseidon/dropterm/internal/display"
	"github.com/1broseidon/dropterm/internal/focus"
	"github.com/1broseidon/dropterm/internal/hotkeys"
	"github.com/1broseidon/dropterm/internal/ipc"
	"github.com/1broseidon/dropterm/internal/platform"
	"github.com/1broseidon/dropterm/internal/terminals"
	"github.com/1broseidon/dropterm/internal/toggle"
	"github.com/1broseidon/dropterm/internal/trigger"
)

// shutdownTimeout bounds the window restore on exit.
const shutdownTimeout = 5 * time.Second

// parseLevel maps a log_level value to a slog level. Validation has
// already rejected anything else.
func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newHandler picks a text handler for interactive use and JSON otherwise, so
// journald and log collectors get structured records.
func newHandler(w io.Writer, tty bool, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if tty {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/dropterm/config.yaml)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: dropterm daemon [--path PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Run the dropdown daemon in the foreground.")
	}
	if code, ok := parseNoArgs(fs, args); !ok {
		return code
	}

	configPath := *path
	if configPath == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			log.Printf("Failed to resolve config path: %v", err)
			return 1
		}
		configPath = p
	}

	// Load configuration
	res, err := config.LoadFromPath(configPath)
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return 1
	}
	cfg := res.Config

	level := new(slog.LevelVar)
	level.Set(parseLevel(cfg.LogLevel))
	logger := slog.New(newHandler(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())), level))
	slog.SetDefault(logger)

	log.Printf("Configuration loaded (terminal: %+v, duration: %dms)", cfg.Terminal, cfg.ToggleDurationMS)

	if cfg.XAuthority != "" {
		os.Setenv("XAUTHORITY", cfg.XAuthority)
	}

	// Connect to display server
	backend, err := platform.NewLinuxBackendFromDisplay(cfg.Display)
	if err != nil {
		log.Printf("Failed to connect to display: %v", err)
		return 1
	}
	defer backend.Disconnect()

	store := config.NewStore(configPath, cfg, logger)
	selector := display.NewSelector(backend, logger)
	finder := terminals.NewFinder(backend, store)

	// coordinator is assigned below; the callbacks only fire once the event
	// loop is running.
	var coordinator *trigger.Coordinator
	tracker := focus.NewTracker(func() { coordinator.FocusLost() })

	machine := toggle.NewMachine(toggle.Deps{
		Windows:  backend,
		Screens:  selector,
		Targets:  finder,
		Settings: store,
		Focus:    tracker,
		Logger:   logger,
	})

	binder, err := hotkeys.NewX11Binder(backend)
	if err != nil {
		log.Printf("Failed to set up hotkeys: %v", err)
		return 1
	}
	registrar := hotkeys.NewRegistrar(binder, func(h hotkeys.Handle) {
		coordinator.HotkeyPressed(h)
	}, logger)

	coordinator = trigger.NewCoordinator(machine, registrar, store, logger)
	if err := coordinator.Start(); err != nil {
		log.Printf("Warning: some hotkeys could not be registered: %v", err)
	}
	for _, reg := range registrar.Registrations() {
		log.Printf("Hotkey registered: %s", reg.Sequence)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reconciler := daemon.NewReconciler(daemon.ReconcilerConfig{Logger: logger}, finder, machine)

	// Attach now when the terminal is already running; otherwise the
	// reconciler picks it up once it appears.
	if err := machine.Attach(ctx); err != nil {
		log.Printf("Terminal not attached yet: %v", err)
	} else if window, err := finder.TargetWindow(); err == nil {
		reconciler.SetKnown(window)
		log.Printf("Managed window: 0x%x", uint32(window))
	}

	if err := backend.WatchActiveWindow(tracker.ActiveWindowChanged); err != nil {
		log.Printf("Warning: focus tracking unavailable: %v", err)
	}

	go coordinator.Run(ctx)
	go reconciler.Run(ctx)

	watcher, err := config.NewWatcher(store, logger)
	if err != nil {
		log.Printf("Warning: config watcher unavailable: %v", err)
	} else {
		go func() {
			if err := watcher.Run(ctx); err != nil {
				logger.Warn("config watcher stopped", "error", err)
			}
		}()
	}

	// Forward configuration changes from every reload path.
	changes := store.Subscribe()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-changes:
				level.Set(parseLevel(store.Current().LogLevel))
				coordinator.SettingsChanged()
			}
		}
	}()

	// Start IPC server
	ipcServer, err := ipc.NewServer(ipc.Deps{
		Controller: coordinator,
		State:      machine,
		Targets:    finder,
		Displays:   backend,
		Screens:    selector,
		Hotkeys:    registrar,
		Reloader:   store,
	})
	if err != nil {
		log.Printf("Failed to create IPC server: %v", err)
		return 1
	}
	if err := ipcServer.Start(); err != nil {
		log.Printf("Failed to start IPC server: %v", err)
		return 1
	}
	defer ipcServer.Stop()

	// Setup signal handlers
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	go func() {
		for sig := range sigCh {
			switch sig {
			case syscall.SIGHUP:
				log.Println("Received SIGHUP, reloading config...")
				if err := store.Reload(); err != nil {
					log.Printf("Config reload failed: %v", err)
				}

			case os.Interrupt, syscall.SIGTERM:
				log.Println("Shutting down dropterm daemon...")
				cancel()

				resetCtx, resetCancel := context.WithTimeout(context.Background(), shutdownTimeout)
				if err := machine.Reset(resetCtx); err != nil {
					log.Printf("Failed to restore terminal window: %v", err)
				}
				resetCancel()

				coordinator.Close()
				ipcServer.Stop()
				backend.StopEventLoop()
				return
			}
		}
	}()

	log.Println("dropterm daemon started successfully")

	// Start event loop (blocking)
	log.Println("Entering event loop...")
	backend.EventLoop()

	log.Println("dropterm daemon stopped")
	return 0
}
