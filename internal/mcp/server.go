// Package mcp exposes the dropdown terminal to MCP clients over stdio. Every
// tool forwards to the running daemon over IPC.
package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/dropterm/internal/ipc"
)

const (
	ServerName    = "dropterm"
	ServerVersion = "0.1.0"
)

// Daemon is the subset of the IPC client the tools use.
type Daemon interface {
	Toggle() (*ipc.StatusData, error)
	Open() (*ipc.StatusData, error)
	Close() (*ipc.StatusData, error)
	GetStatus() (*ipc.StatusData, error)
	GetDisplays() (*ipc.DisplaysData, error)
}

// Server is the MCP server for dropterm.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
}

// NewServer creates a new MCP server that talks to daemon.
func NewServer(daemon Daemon) *Server {
	s := &Server{daemon: daemon}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "toggle_terminal",
		Description: "Slide the dropdown terminal in if it is closed, or out if it is open. Returns once the animation has finished.",
	}, s.handleToggle)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "open_terminal",
		Description: "Slide the dropdown terminal in. Does nothing when it is already open.",
	}, s.handleOpen)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_terminal",
		Description: "Slide the dropdown terminal out. Does nothing when it is already closed.",
	}, s.handleClose)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "terminal_status",
		Description: "Report whether the dropdown terminal is open, which window is managed, the registered hotkeys and the last animation.",
	}, s.handleStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_displays",
		Description: "List the displays the terminal can drop down on. The display under the pointer is marked active.",
	}, s.handleListDisplays)
}
