package ipc

import (
	"encoding/json"
	"fmt"
)

// Requests and responses are single JSON objects, one per line. A client
// sends one request per connection and reads one response.

// CommandType names an IPC command.
type CommandType string

const (
	CommandToggle      CommandType = "TOGGLE"
	CommandOpen        CommandType = "OPEN"
	CommandClose       CommandType = "CLOSE"
	CommandReload      CommandType = "RELOAD"
	CommandGetStatus   CommandType = "GET_STATUS"
	CommandGetDisplays CommandType = "GET_DISPLAYS"
)

// Response statuses.
const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Response struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// RunInfo summarizes the most recent animation run.
type RunInfo struct {
	ID         string `json:"id"`
	Open       bool   `json:"open"`
	Steps      int    `json:"steps"`
	DelayMS    int64  `json:"delay_ms"`
	DurationMS int64  `json:"duration_ms"`
	Display    string `json:"display"`
	StartedAt  int64  `json:"started_at"`
	Error      string `json:"error,omitempty"`
}

// StatusData is the payload of GET_STATUS and of every action command.
type StatusData struct {
	State         string   `json:"state"`
	Open          bool     `json:"open"`
	Window        uint32   `json:"window,omitempty"`
	WindowError   string   `json:"window_error,omitempty"`
	Hotkeys       []string `json:"hotkeys"`
	UptimeSeconds int64    `json:"uptime_seconds"`
	LastRun       *RunInfo `json:"last_run,omitempty"`
}

// DisplayInfo describes one display. Active marks the display under the
// pointer, which is where the next open would land.
type DisplayInfo struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Active bool   `json:"active,omitempty"`
}

type DisplaysData struct {
	Displays []DisplayInfo `json:"displays"`
}

// NewOKResponse wraps data, which may be nil, in a successful response.
func NewOKResponse(data any) (*Response, error) {
	resp := &Response{Status: StatusOK}
	if data == nil {
		return resp, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response data: %w", err)
	}
	resp.Data = raw
	return resp, nil
}

func NewErrorResponse(msg string) *Response {
	return &Response{Status: StatusError, Error: msg}
}

// ParseRequest decodes one request line. Commands are not validated here;
// the server rejects unknown ones.
func ParseRequest(line []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal encodes r without the trailing newline.
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
