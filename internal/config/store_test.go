package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_UpdateNotifiesAndCoalesces(t *testing.T) {
	s := NewStore("", nil, nil)
	ch := s.Subscribe()

	next := DefaultConfig()
	next.ToggleDurationMS = 500
	s.Update(next)
	s.Update(next)

	select {
	case <-ch:
	default:
		t.Fatal("expected a pending notification")
	}
	select {
	case <-ch:
		t.Fatal("expected bursts to coalesce into one notification")
	default:
	}
	assert.Equal(t, 500, s.Current().ToggleDurationMS)

	// The store keeps its own copy.
	next.ToggleDurationMS = 1
	assert.Equal(t, 500, s.Current().ToggleDurationMS)
}

func TestStore_ReloadKeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("vertical_offset: 7\n"), 0644))

	s := NewStore(path, nil, nil)
	require.NoError(t, s.Reload())
	assert.Equal(t, 7, s.Current().VerticalOffset)

	require.NoError(t, os.WriteFile(path, []byte("vertical_offset: [\n"), 0644))
	assert.Error(t, s.Reload())
	assert.Equal(t, 7, s.Current().VerticalOffset)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("vertical_offset: 1\n"), 0644))

	s := NewStore(path, nil, nil)
	require.NoError(t, s.Reload())
	changes := s.Subscribe()

	w, err := NewWatcher(s, nil)
	require.NoError(t, err)
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("vertical_offset: 9\n"), 0644))

	select {
	case <-changes:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
	assert.Equal(t, 9, s.Current().VerticalOffset)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	s := NewStore(path, nil, nil)
	changes := s.Subscribe()

	w, err := NewWatcher(s, nil)
	require.NoError(t, err)
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	select {
	case <-changes:
		t.Fatal("unexpected reload for unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
	cancel()
	assert.NoError(t, <-done)
}
