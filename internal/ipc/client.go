package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/dropterm/internal/runtimepath"
)

// actionTimeout covers the longest animation plus any queued ahead of it.
const actionTimeout = 35 * time.Second

// Client talks to the daemon over its Unix socket. Each call opens a fresh
// connection and sends exactly one request.
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient returns a client for the default socket. A socket path that
// cannot be resolved surfaces as a connection error on first use.
func NewClient() *Client {
	path, _ := runtimepath.SocketPath()
	return NewClientAt(path)
}

// NewClientAt creates a client for an explicit socket path.
func NewClientAt(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    actionTimeout,
	}
}

func (c *Client) roundTrip(cmd CommandType) (*Response, error) {
	if c.socketPath == "" {
		return nil, errors.New("failed to connect to daemon: no socket path (is XDG_RUNTIME_DIR set?)")
	}
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(c.timeout))

	// The encoder terminates each value with a newline, which is the frame
	// delimiter the server reads on.
	if err := json.NewEncoder(conn).Encode(&Request{Command: cmd}); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.Status == StatusError {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}
	return &resp, nil
}

// call sends cmd and decodes the response payload into T.
func call[T any](c *Client, cmd CommandType) (*T, error) {
	resp, err := c.roundTrip(cmd)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(resp.Data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse %s response: %w", cmd, err)
	}
	return &out, nil
}

// Reload asks the daemon to re-read its config file.
func (c *Client) Reload() error {
	_, err := c.roundTrip(CommandReload)
	return err
}

// Toggle flips the dropdown and returns the resulting status.
func (c *Client) Toggle() (*StatusData, error) {
	return call[StatusData](c, CommandToggle)
}

// Open slides the dropdown in; a no-op when already open.
func (c *Client) Open() (*StatusData, error) {
	return call[StatusData](c, CommandOpen)
}

// Close slides the dropdown out; a no-op when already closed.
func (c *Client) Close() (*StatusData, error) {
	return call[StatusData](c, CommandClose)
}

func (c *Client) GetStatus() (*StatusData, error) {
	return call[StatusData](c, CommandGetStatus)
}

func (c *Client) GetDisplays() (*DisplaysData, error) {
	return call[DisplaysData](c, CommandGetDisplays)
}

// Ping checks if the daemon is responding.
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
