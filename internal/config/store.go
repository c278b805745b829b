package config

import (
	"log/slog"
	"sync"
)

// Store holds the live configuration and notifies subscribers when it is
// replaced. Readers get a snapshot that is never mutated afterwards.
type Store struct {
	mu          sync.RWMutex
	path        string
	cfg         *Config
	subscribers []chan struct{}
	logger      *slog.Logger
}

// NewStore creates a store seeded with cfg, reloading from path.
func NewStore(path string, cfg *Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Store{path: path, cfg: cfg, logger: logger}
}

// Path returns the file the store reloads from.
func (s *Store) Path() string {
	return s.path
}

// Current returns the active configuration snapshot.
func (s *Store) Current() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Update replaces the configuration and notifies subscribers.
func (s *Store) Update(cfg *Config) {
	s.mu.Lock()
	s.cfg = cfg.Clone()
	subs := append([]chan struct{}(nil), s.subscribers...)
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
			// A change is already pending for this subscriber.
		}
	}
}

// Reload re-reads the config file. On error the current configuration is
// kept and the error returned.
func (s *Store) Reload() error {
	res, err := LoadFromPath(s.path)
	if err != nil {
		return err
	}
	s.Update(res.Config)
	s.logger.Info("configuration reloaded", "path", s.path)
	return nil
}

// Subscribe returns a channel that receives a value after every Update.
// Bursts of updates coalesce into one pending notification.
func (s *Store) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.mu.Unlock()
	return ch
}
