package config

import "fmt"

// ValidationError reports an invalid configuration value. Source is filled
// in when the offending key came from a file.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BuildEffectiveConfig applies raw over the defaults, then normalizes.
// The result is not validated.
func BuildEffectiveConfig(raw RawConfig) *Config {
	cfg := DefaultConfig()

	if raw.Hotkeys != nil {
		cfg.Hotkeys = *raw.Hotkeys
	}
	if raw.ToggleDurationMS != nil {
		cfg.ToggleDurationMS = *raw.ToggleDurationMS
	}
	if raw.HideOnFocusLost != nil {
		cfg.HideOnFocusLost = *raw.HideOnFocusLost
	}
	if raw.HorizontalScreenCoverage != nil {
		cfg.HorizontalScreenCoverage = *raw.HorizontalScreenCoverage
	}
	if raw.VerticalScreenCoverage != nil {
		cfg.VerticalScreenCoverage = *raw.VerticalScreenCoverage
	}
	if raw.VerticalOffset != nil {
		cfg.VerticalOffset = *raw.VerticalOffset
	}
	if raw.HorizontalAlign != nil {
		cfg.HorizontalAlign = *raw.HorizontalAlign
	}
	if raw.StartOpen != nil {
		cfg.StartOpen = *raw.StartOpen
	}
	if raw.UseWorkArea != nil {
		cfg.UseWorkArea = *raw.UseWorkArea
	}
	// A terminal block replaces the default matcher entirely, so setting only
	// a title does not keep matching the default class.
	if raw.Terminal != nil {
		cfg.Terminal = *raw.Terminal
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.XAuthority != nil {
		cfg.XAuthority = *raw.XAuthority
	}

	cfg.Normalize()
	return cfg
}
