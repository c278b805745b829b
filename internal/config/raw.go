package config

// RawConfig mirrors Config with optional fields so that keys absent from the
// file keep their defaults while present keys replace them whole.
type RawConfig struct {
	Hotkeys                  *[]Hotkey      `yaml:"hotkeys"`
	ToggleDurationMS         *int           `yaml:"toggle_duration_ms"`
	HideOnFocusLost          *bool          `yaml:"hide_on_focus_lost"`
	HorizontalScreenCoverage *float64       `yaml:"horizontal_screen_coverage"`
	VerticalScreenCoverage   *float64       `yaml:"vertical_screen_coverage"`
	VerticalOffset           *int           `yaml:"vertical_offset"`
	HorizontalAlign          *string        `yaml:"horizontal_align"`
	StartOpen                *bool          `yaml:"start_open"`
	UseWorkArea              *bool          `yaml:"use_work_area"`
	Terminal                 *TerminalMatch `yaml:"terminal"`
	LogLevel                 *string        `yaml:"log_level"`
	Display                  *string        `yaml:"display"`
	XAuthority               *string        `yaml:"xauthority"`
}
