package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/dropterm/internal/ipc"
)

func (s *Server) handleToggle(_ context.Context, _ *mcpsdk.CallToolRequest, _ ToggleInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	return statusResult(s.daemon.Toggle())
}

func (s *Server) handleOpen(_ context.Context, _ *mcpsdk.CallToolRequest, _ ToggleInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	return statusResult(s.daemon.Open())
}

func (s *Server) handleClose(_ context.Context, _ *mcpsdk.CallToolRequest, _ ToggleInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	return statusResult(s.daemon.Close())
}

func (s *Server) handleStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ StatusInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	return statusResult(s.daemon.GetStatus())
}

func (s *Server) handleListDisplays(_ context.Context, _ *mcpsdk.CallToolRequest, _ DisplaysInput) (*mcpsdk.CallToolResult, DisplaysOutput, error) {
	data, err := s.daemon.GetDisplays()
	if err != nil {
		return nil, DisplaysOutput{}, err
	}
	out := DisplaysOutput{Displays: make([]DisplayInfo, 0, len(data.Displays))}
	for _, d := range data.Displays {
		out.Displays = append(out.Displays, DisplayInfo{
			ID:     d.ID,
			Name:   d.Name,
			X:      d.X,
			Y:      d.Y,
			Width:  d.Width,
			Height: d.Height,
			Active: d.Active,
		})
	}
	return nil, out, nil
}

func statusResult(status *ipc.StatusData, err error) (*mcpsdk.CallToolResult, StatusOutput, error) {
	if err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, toStatusOutput(status), nil
}

func toStatusOutput(status *ipc.StatusData) StatusOutput {
	out := StatusOutput{
		State:       status.State,
		Open:        status.Open,
		WindowError: status.WindowError,
		Hotkeys:     append([]string{}, status.Hotkeys...),
	}
	if status.Window != 0 {
		out.Window = fmt.Sprintf("0x%x", status.Window)
	}
	if run := status.LastRun; run != nil {
		out.LastRun = &RunInfo{
			ID:      run.ID,
			Open:    run.Open,
			Steps:   run.Steps,
			DelayMS: run.DelayMS,
			Display: run.Display,
			Error:   run.Error,
		}
	}
	return out
}
