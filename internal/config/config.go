package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/1broseidon/dropterm/internal/geometry"
	"github.com/1broseidon/dropterm/internal/platform"
	"gopkg.in/yaml.v3"
)

// MaxVerticalOffset bounds vertical_offset in either direction.
const MaxVerticalOffset = 10000

// Hotkey is one global key binding, e.g. {modifiers: [ctrl], key: grave}.
type Hotkey struct {
	Modifiers []string `yaml:"modifiers,omitempty"`
	Key       string   `yaml:"key"`
}

// modifierNames maps accepted modifier spellings to X11 modifier names.
var modifierNames = map[string]string{
	"ctrl":    "Control",
	"control": "Control",
	"shift":   "Shift",
	"alt":     "Mod1",
	"mod1":    "Mod1",
	"super":   "Mod4",
	"win":     "Mod4",
	"mod4":    "Mod4",
	"mod3":    "Mod3",
	"mod5":    "Mod5",
}

// String renders the binding as an X11 key sequence ("Control-Mod1-grave").
// Unknown modifiers are passed through so Validate can report them.
func (h Hotkey) String() string {
	parts := make([]string, 0, len(h.Modifiers)+1)
	for _, mod := range h.Modifiers {
		if name, ok := modifierNames[strings.ToLower(strings.TrimSpace(mod))]; ok {
			parts = append(parts, name)
			continue
		}
		parts = append(parts, mod)
	}
	parts = append(parts, strings.TrimSpace(h.Key))
	return strings.Join(parts, "-")
}

func (h Hotkey) validate() error {
	key := strings.TrimSpace(h.Key)
	if key == "" {
		return fmt.Errorf("key is required")
	}
	if strings.Contains(key, "-") {
		return fmt.Errorf("key %q must be a single keysym name (use \"minus\" for -)", key)
	}
	if _, ok := modifierNames[strings.ToLower(key)]; ok {
		return fmt.Errorf("key %q is a modifier", key)
	}
	seen := make(map[string]struct{}, len(h.Modifiers))
	for _, mod := range h.Modifiers {
		name, ok := modifierNames[strings.ToLower(strings.TrimSpace(mod))]
		if !ok {
			return fmt.Errorf("unknown modifier %q (expected ctrl, shift, alt, super, mod3 or mod5)", mod)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate modifier %q", mod)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// TerminalMatch selects the managed window by WM_CLASS class name or by a
// title substring. Either one matching is enough.
type TerminalMatch struct {
	Class string `yaml:"class,omitempty"`
	Title string `yaml:"title,omitempty"`
}

// Config holds the application configuration.
type Config struct {
	Hotkeys                  []Hotkey      `yaml:"hotkeys"`
	ToggleDurationMS         int           `yaml:"toggle_duration_ms"`
	HideOnFocusLost          bool          `yaml:"hide_on_focus_lost"`
	HorizontalScreenCoverage float64       `yaml:"horizontal_screen_coverage"`
	VerticalScreenCoverage   float64       `yaml:"vertical_screen_coverage"`
	VerticalOffset           int           `yaml:"vertical_offset"`
	HorizontalAlign          string        `yaml:"horizontal_align"`
	StartOpen                bool          `yaml:"start_open"`
	UseWorkArea              bool          `yaml:"use_work_area"`
	Terminal                 TerminalMatch `yaml:"terminal"`
	LogLevel                 string        `yaml:"log_level"`
	Display                  string        `yaml:"display,omitempty"`
	XAuthority               string        `yaml:"xauthority,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Hotkeys: []Hotkey{
			{Modifiers: []string{"ctrl"}, Key: "grave"},
		},
		ToggleDurationMS:         250,
		HideOnFocusLost:          true,
		HorizontalScreenCoverage: 100,
		VerticalScreenCoverage:   40,
		VerticalOffset:           0,
		HorizontalAlign:          string(geometry.AlignCenter),
		StartOpen:                false,
		Terminal:                 TerminalMatch{Class: "Alacritty"},
		LogLevel:                 "info",
	}
}

// Area returns the part of display the dropdown is laid out in: the whole
// monitor, or with use_work_area the monitor minus panels and docks.
func (c *Config) Area(display platform.Display) platform.Rect {
	if c.UseWorkArea && display.Usable.Width > 0 && display.Usable.Height > 0 {
		return display.Usable
	}
	return display.Bounds
}

// ToggleDuration is the configured hotkey animation length.
func (c *Config) ToggleDuration() time.Duration {
	return time.Duration(c.ToggleDurationMS) * time.Millisecond
}

// Layout converts the positioning keys into the geometry layout.
func (c *Config) Layout() geometry.Layout {
	align, _ := geometry.ParseAlign(c.HorizontalAlign)
	return geometry.Layout{
		Align:              align,
		HorizontalCoverage: c.HorizontalScreenCoverage,
		VerticalCoverage:   c.VerticalScreenCoverage,
		VerticalOffset:     c.VerticalOffset,
	}
}

// Clone returns a deep copy safe to hand to other goroutines.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := *c
	out.Hotkeys = make([]Hotkey, len(c.Hotkeys))
	for i, hk := range c.Hotkeys {
		out.Hotkeys[i] = Hotkey{
			Modifiers: append([]string(nil), hk.Modifiers...),
			Key:       hk.Key,
		}
	}
	return &out
}

// Normalize clamps the coverage percentages into [0, 100] and trims
// string fields. The geometry code relies on this and never clamps itself.
func (c *Config) Normalize() {
	c.HorizontalScreenCoverage = clampPercent(c.HorizontalScreenCoverage)
	c.VerticalScreenCoverage = clampPercent(c.VerticalScreenCoverage)
	c.HorizontalAlign = strings.ToLower(strings.TrimSpace(c.HorizontalAlign))
	c.Terminal.Class = strings.TrimSpace(c.Terminal.Class)
	c.Terminal.Title = strings.TrimSpace(c.Terminal.Title)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
}

func clampPercent(v float64) float64 {
	if v != v { // NaN
		return 0
	}
	return max(0, min(100, v))
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	if len(c.Hotkeys) == 0 {
		return &ValidationError{Path: "hotkeys", Err: fmt.Errorf("at least one hotkey is required")}
	}
	seen := make(map[string]int, len(c.Hotkeys))
	for i, hk := range c.Hotkeys {
		path := fmt.Sprintf("hotkeys.%d", i)
		if err := hk.validate(); err != nil {
			return &ValidationError{Path: path, Err: err}
		}
		seq := strings.ToLower(hk.String())
		if prev, dup := seen[seq]; dup {
			return &ValidationError{Path: path, Err: fmt.Errorf("duplicates hotkeys.%d (%s)", prev, hk)}
		}
		seen[seq] = i
	}
	if c.ToggleDurationMS < 0 {
		return &ValidationError{Path: "toggle_duration_ms", Err: fmt.Errorf("toggle_duration_ms must be >= 0")}
	}
	if c.ToggleDurationMS > 10000 {
		return &ValidationError{Path: "toggle_duration_ms", Err: fmt.Errorf("toggle_duration_ms must be <= 10000")}
	}
	if c.HorizontalScreenCoverage <= 0 || c.HorizontalScreenCoverage > 100 {
		return &ValidationError{Path: "horizontal_screen_coverage", Err: fmt.Errorf("horizontal_screen_coverage must be greater than 0 and at most 100")}
	}
	if c.VerticalScreenCoverage <= 0 || c.VerticalScreenCoverage > 100 {
		return &ValidationError{Path: "vertical_screen_coverage", Err: fmt.Errorf("vertical_screen_coverage must be greater than 0 and at most 100")}
	}
	// The offset is added to the window height; whether a negative offset
	// leaves a positive height depends on the screen and is checked per run.
	if c.VerticalOffset < -MaxVerticalOffset || c.VerticalOffset > MaxVerticalOffset {
		return &ValidationError{Path: "vertical_offset", Err: fmt.Errorf("vertical_offset must be within -%d..%d", MaxVerticalOffset, MaxVerticalOffset)}
	}
	if _, ok := geometry.ParseAlign(c.HorizontalAlign); !ok {
		return &ValidationError{Path: "horizontal_align", Err: fmt.Errorf("horizontal_align must be one of: left, center, right")}
	}
	if c.Terminal.Class == "" && c.Terminal.Title == "" {
		return &ValidationError{Path: "terminal", Err: fmt.Errorf("terminal.class or terminal.title is required")}
	}
	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	return nil
}

// Save writes the configuration as YAML to the default config path.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration as YAML to path, creating parent
// directories as needed.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
