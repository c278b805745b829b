// Package runtimepath locates the per-user directory that holds the daemon
// socket.
package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const socketName = "dropterm.sock"

// Dir returns the runtime directory, trying in order $XDG_RUNTIME_DIR,
// /run/user/<uid>, and finally a private directory under /tmp which is
// created on demand.
func Dir() (string, error) {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir, nil
	}

	uid := strconv.Itoa(os.Getuid())
	if dir := filepath.Join("/run/user", uid); isDir(dir) {
		return dir, nil
	}

	dir := filepath.Join(os.TempDir(), "dropterm-runtime-"+uid)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	return dir, nil
}

// SocketPath returns the daemon IPC socket path. DROPTERM_SOCKET overrides
// the default location.
func SocketPath() (string, error) {
	if path := os.Getenv("DROPTERM_SOCKET"); path != "" {
		return path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, socketName), nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
