package ipc

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/dropterm/internal/hotkeys"
	"github.com/1broseidon/dropterm/internal/platform"
	"github.com/1broseidon/dropterm/internal/runtimepath"
	"github.com/1broseidon/dropterm/internal/toggle"
	"github.com/1broseidon/dropterm/internal/trigger"
)

// requestTimeout bounds how long a control request may wait for its
// animation, including animations queued ahead of it.
const requestTimeout = 30 * time.Second

// Controller accepts explicit open/close/toggle requests.
type Controller interface {
	Request(ctx context.Context, action trigger.Action) error
}

// StateReporter exposes the toggle state.
type StateReporter interface {
	State() toggle.State
	LastRun() *toggle.Run
}

// WindowResolver resolves the managed window.
type WindowResolver interface {
	TargetWindow() (platform.WindowID, error)
}

// DisplayLister lists the physical displays.
type DisplayLister interface {
	Displays() ([]platform.Display, error)
}

// ActiveDisplayer picks the display under the pointer.
type ActiveDisplayer interface {
	Active() (platform.Display, error)
}

// HotkeyLister reports the registered hotkeys.
type HotkeyLister interface {
	Registrations() []hotkeys.Registration
}

// Reloader re-reads the configuration file.
type Reloader interface {
	Reload() error
}

// Deps wires the server to the daemon's components. Screens and Hotkeys are
// optional.
type Deps struct {
	Controller Controller
	State      StateReporter
	Targets    WindowResolver
	Displays   DisplayLister
	Screens    ActiveDisplayer
	Hotkeys    HotkeyLister
	Reloader   Reloader
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	deps         Deps
	startTime    time.Time
	ctx          context.Context
	cancel       context.CancelFunc
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server on the default socket path.
func NewServer(deps Deps) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}
	return NewServerAt(socketPath, deps), nil
}

// NewServerAt creates a new IPC server listening on socketPath.
func NewServerAt(socketPath string, deps Deps) *Server {
	// Remove existing socket if present
	os.Remove(socketPath)

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		socketPath: socketPath,
		deps:       deps,
		startTime:  time.Now(),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Printf("IPC server listening on %s", s.socketPath)

	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			log.Printf("IPC accept error: %v", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		log.Printf("IPC read error: %v", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandToggle:
		return s.handleAction(trigger.ActionToggle)
	case CommandOpen:
		return s.handleAction(trigger.ActionOpen)
	case CommandClose:
		return s.handleAction(trigger.ActionClose)
	case CommandReload:
		return s.handleReload()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandGetDisplays:
		return s.handleGetDisplays()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleAction(action trigger.Action) *Response {
	if s.deps.Controller == nil {
		return NewErrorResponse("controller unavailable")
	}
	ctx, cancel := context.WithTimeout(s.ctx, requestTimeout)
	defer cancel()

	if err := s.deps.Controller.Request(ctx, action); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to %s: %v", action, err))
	}
	return s.handleGetStatus()
}

// handleReload reloads the configuration
func (s *Server) handleReload() *Response {
	log.Println("IPC: Received RELOAD command")

	if s.deps.Reloader == nil {
		return NewErrorResponse("reload unavailable")
	}
	if err := s.deps.Reloader.Reload(); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}

	log.Println("IPC: Config reloaded successfully")

	resp, _ := NewOKResponse(nil)
	return resp
}

// handleGetStatus returns current daemon status
func (s *Server) handleGetStatus() *Response {
	status := StatusData{
		Hotkeys:       []string{},
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	}

	if s.deps.State != nil {
		state := s.deps.State.State()
		status.State = state.String()
		status.Open = state == toggle.Opening || state == toggle.Open
		if run := s.deps.State.LastRun(); run != nil {
			status.LastRun = runInfo(run)
		}
	}
	if s.deps.Targets != nil {
		if window, err := s.deps.Targets.TargetWindow(); err != nil {
			status.WindowError = err.Error()
		} else {
			status.Window = uint32(window)
		}
	}
	if s.deps.Hotkeys != nil {
		for _, reg := range s.deps.Hotkeys.Registrations() {
			status.Hotkeys = append(status.Hotkeys, reg.Sequence)
		}
	}

	resp, err := NewOKResponse(status)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

// handleGetDisplays returns information about all displays
func (s *Server) handleGetDisplays() *Response {
	if s.deps.Displays == nil {
		return NewErrorResponse("display listing unavailable")
	}
	displays, err := s.deps.Displays.Displays()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get displays: %v", err))
	}

	activeID := -1
	if s.deps.Screens != nil {
		if active, err := s.deps.Screens.Active(); err == nil {
			activeID = active.ID
		}
	}

	infos := make([]DisplayInfo, len(displays))
	for i, d := range displays {
		infos[i] = DisplayInfo{
			ID:     d.ID,
			Name:   d.Name,
			X:      d.Bounds.X,
			Y:      d.Bounds.Y,
			Width:  d.Bounds.Width,
			Height: d.Bounds.Height,
			Active: d.ID == activeID,
		}
	}

	resp, _ := NewOKResponse(DisplaysData{Displays: infos})
	return resp
}

func runInfo(run *toggle.Run) *RunInfo {
	info := &RunInfo{
		ID:         run.ID,
		Open:       run.Open,
		Steps:      run.Steps,
		DelayMS:    run.Delay.Milliseconds(),
		DurationMS: run.Duration.Milliseconds(),
		Display:    run.Screen.Name,
		StartedAt:  run.Started.Unix(),
	}
	if run.Err != nil {
		info.Error = run.Err.Error()
	}
	return info
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	s.cancel()
	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}
