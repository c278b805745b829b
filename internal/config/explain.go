package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths include:
//
//	hotkeys
//	hotkeys.<index>
//	toggle_duration_ms
//	hide_on_focus_lost
//	horizontal_screen_coverage
//	vertical_screen_coverage
//	vertical_offset
//	horizontal_align
//	start_open
//	use_work_area
//	terminal
//	terminal.class
//	terminal.title
//	log_level
//	display
//	xauthority
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	// terminal.class inherits the position of a user-supplied terminal block.
	if parent, _, found := strings.Cut(path, "."); found {
		if src, ok := res.Sources[parent]; ok {
			return value, src, nil
		}
	}
	return value, Source{Kind: SourceDefault}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	scalar := func(v any) (any, error) {
		if len(parts) != 1 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		return v, nil
	}

	switch parts[0] {
	case "hotkeys":
		switch len(parts) {
		case 1:
			out := make([]string, 0, len(cfg.Hotkeys))
			for _, hk := range cfg.Hotkeys {
				out = append(out, hk.String())
			}
			return out, nil
		case 2:
			idx, err := strconv.Atoi(parts[1])
			if err != nil || idx < 0 || idx >= len(cfg.Hotkeys) {
				return nil, fmt.Errorf("unknown path: %s", path)
			}
			return cfg.Hotkeys[idx].String(), nil
		}
		return nil, fmt.Errorf("unknown path: %s", path)
	case "toggle_duration_ms":
		return scalar(cfg.ToggleDurationMS)
	case "hide_on_focus_lost":
		return scalar(cfg.HideOnFocusLost)
	case "horizontal_screen_coverage":
		return scalar(cfg.HorizontalScreenCoverage)
	case "vertical_screen_coverage":
		return scalar(cfg.VerticalScreenCoverage)
	case "vertical_offset":
		return scalar(cfg.VerticalOffset)
	case "horizontal_align":
		return scalar(cfg.HorizontalAlign)
	case "start_open":
		return scalar(cfg.StartOpen)
	case "use_work_area":
		return scalar(cfg.UseWorkArea)
	case "log_level":
		return scalar(cfg.LogLevel)
	case "display":
		return scalar(cfg.Display)
	case "xauthority":
		return scalar(cfg.XAuthority)
	case "terminal":
		if len(parts) == 1 {
			return cfg.Terminal, nil
		}
		if len(parts) == 2 {
			switch parts[1] {
			case "class":
				return cfg.Terminal.Class, nil
			case "title":
				return cfg.Terminal.Title, nil
			}
		}
		return nil, fmt.Errorf("unknown path: %s", path)
	default:
		return nil, fmt.Errorf("unknown path: %s", path)
	}
}
