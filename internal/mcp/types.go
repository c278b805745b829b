package mcp

// ToggleInput is the input for the toggle_terminal, open_terminal and
// close_terminal tools.
type ToggleInput struct{}

// StatusInput is the input for the terminal_status tool.
type StatusInput struct{}

// DisplaysInput is the input for the list_displays tool.
type DisplaysInput struct{}

// StatusOutput is returned by every tool that reports the dropdown state.
type StatusOutput struct {
	State       string   `json:"state" jsonschema:"One of closed, opening, open, closing"`
	Open        bool     `json:"open" jsonschema:"True when the terminal is open or opening"`
	Window      string   `json:"window,omitempty" jsonschema:"Managed X11 window ID in hex"`
	WindowError string   `json:"window_error,omitempty" jsonschema:"Why no terminal window could be resolved"`
	Hotkeys     []string `json:"hotkeys"`
	LastRun     *RunInfo `json:"last_run,omitempty"`
}

// RunInfo describes the most recent animation.
type RunInfo struct {
	ID      string `json:"id"`
	Open    bool   `json:"open"`
	Steps   int    `json:"steps"`
	DelayMS int64  `json:"delay_ms"`
	Display string `json:"display"`
	Error   string `json:"error,omitempty"`
}

// DisplaysOutput is the output for the list_displays tool.
type DisplaysOutput struct {
	Displays []DisplayInfo `json:"displays"`
}

// DisplayInfo is a single display.
type DisplayInfo struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Active bool   `json:"active" jsonschema:"True for the display under the pointer"`
}
