package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/1broseidon/dropterm/internal/config"
	"github.com/1broseidon/dropterm/internal/ipc"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewHandler_JSONWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	slog.New(newHandler(&buf, false, slog.LevelInfo)).Info("hello", "window", "0x1")
	if !strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), `"window":"0x1"`) {
		t.Fatalf("expected JSON record, got %q", buf.String())
	}

	buf.Reset()
	slog.New(newHandler(&buf, true, slog.LevelInfo)).Info("hello", "window", "0x1")
	if !strings.Contains(buf.String(), "window=0x1") {
		t.Fatalf("expected text record, got %q", buf.String())
	}
}

func TestNewHandler_HonoursLevelVar(t *testing.T) {
	var buf bytes.Buffer
	level := new(slog.LevelVar)
	level.Set(slog.LevelWarn)
	logger := slog.New(newHandler(&buf, true, level))

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %q", buf.String())
	}
	level.Set(slog.LevelDebug)
	logger.Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("expected debug record after level change, got %q", buf.String())
	}
}

func TestFormatSource(t *testing.T) {
	cases := []struct {
		src  config.Source
		want string
	}{
		{config.Source{Kind: config.SourceDefault}, "default"},
		{config.Source{Kind: config.SourceFile}, "file"},
		{config.Source{Kind: config.SourceFile, File: "/c.yaml"}, "file:/c.yaml"},
		{config.Source{Kind: config.SourceFile, File: "/c.yaml", Line: 3, Column: 5}, "file:/c.yaml:3:5"},
	}
	for _, tc := range cases {
		if got := formatSource(tc.src); got != tc.want {
			t.Fatalf("formatSource(%+v) = %q, want %q", tc.src, got, tc.want)
		}
	}
}

func TestWriteStatus(t *testing.T) {
	var buf bytes.Buffer
	writeStatus(&buf, &ipc.StatusData{
		State:   "open",
		Window:  0x2a00003,
		Hotkeys: []string{"Control-grave"},
		LastRun: &ipc.RunInfo{ID: "01J", Open: true, Display: "DP-1", Steps: 10, DelayMS: 25},
	})
	out := buf.String()
	for _, want := range []string{"state:          open", "0x2a00003", "Control-grave", "01J open on DP-1 (10 steps, 25ms delay)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	buf.Reset()
	writeStatus(&buf, &ipc.StatusData{State: "closed", WindowError: "terminal window not found"})
	if !strings.Contains(buf.String(), "none (terminal window not found)") {
		t.Fatalf("expected window error in output:\n%s", buf.String())
	}
}

func TestRunConfigValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(good, []byte("vertical_screen_coverage: 50\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(bad, []byte("horizontal_align: middle\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if code := runConfig([]string{"validate", "--path", good}); code != 0 {
		t.Fatalf("expected valid config to exit 0, got %d", code)
	}
	if code := runConfig([]string{"validate", "--path", bad}); code != 1 {
		t.Fatalf("expected invalid config to exit 1, got %d", code)
	}
	if code := runConfig([]string{"frobnicate"}); code != 2 {
		t.Fatalf("expected unknown subcommand to exit 2, got %d", code)
	}
	if code := runConfig([]string{"explain", "--path", good}); code != 2 {
		t.Fatalf("expected missing explain path to exit 2, got %d", code)
	}
}

func TestClientCommandsWithoutDaemon(t *testing.T) {
	t.Setenv("DROPTERM_SOCKET", filepath.Join(t.TempDir(), "missing.sock"))

	if code := runAction("toggle", nil); code != 1 {
		t.Fatalf("expected toggle without daemon to exit 1, got %d", code)
	}
	if code := runStatus(nil); code != 1 {
		t.Fatalf("expected status without daemon to exit 1, got %d", code)
	}
	if code := runReload([]string{"extra"}); code != 2 {
		t.Fatalf("expected extra argument to exit 2, got %d", code)
	}
}
