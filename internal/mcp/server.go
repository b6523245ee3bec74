// Package mcp exposes greenhouse window position management as MCP tools
// over stdio, so AI assistants can save and restore window layouts.
package mcp

import (
	"context"
	"fmt"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/greenhouse-wm/greenhouse/internal/control"
	"github.com/greenhouse-wm/greenhouse/internal/platform"
	"github.com/greenhouse-wm/greenhouse/internal/position"
)

const (
	ServerName    = "greenhouse"
	ServerVersion = "0.1.0"
)

// Server is the MCP server for window position management.
type Server struct {
	mcpServer *mcpsdk.Server
	ctrl      control.Controller
	logger    *slog.Logger
}

// NewServer creates an MCP server on top of a controller.
func NewServer(ctrl control.Controller, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		ctrl:   ctrl,
		logger: logger,
	}

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
		Name:        "list_windows",
		Description: "List all visible top-level windows with their process, class, title, geometry, and owning monitor. Window IDs from this list can be passed to save_positions.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_topology",
		Description: "Get the current monitor topology: each monitor's identifier, bounds in virtual desktop coordinates, and DPI scale factor.",
	}, s.handleGetTopology)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "save_positions",
		Description: "Save the current position and size of windows so they can be restored later. Omit window_ids to save every visible window.",
	}, s.handleSavePositions)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_positions",
		Description: "List all saved window positions in save order, including the monitor and DPI context each was captured under.",
	}, s.handleListPositions)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "restore_all",
		Description: "Restore every saved window position. Windows are matched by process, class, and title; geometry is rescaled when the monitor layout or DPI has changed. Returns a per-position outcome.",
	}, s.handleRestoreAll)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "restore_position",
		Description: "Restore a single saved window position, identified by process name (plus class and title hint when several positions share the process).",
	}, s.handleRestorePosition)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "remove_position",
		Description: "Delete a saved window position, identified by process name (plus class and title hint when several positions share the process).",
	}, s.handleRemovePosition)
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	windows, err := s.ctrl.ListWindows()
	if err != nil {
		return nil, ListWindowsOutput{}, fmt.Errorf("failed to list windows: %w", err)
	}

	out := ListWindowsOutput{Windows: make([]WindowInfo, len(windows))}
	for i, w := range windows {
		out.Windows[i] = WindowInfo{
			WindowID:  uint32(w.ID),
			Process:   w.Process,
			Class:     w.Class,
			Title:     w.Title,
			X:         w.Bounds.X,
			Y:         w.Bounds.Y,
			Width:     w.Bounds.Width,
			Height:    w.Bounds.Height,
			MonitorID: w.MonitorID,
		}
	}
	return nil, out, nil
}

func (s *Server) handleGetTopology(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetTopologyInput) (*mcpsdk.CallToolResult, GetTopologyOutput, error) {
	monitors, err := s.ctrl.Topology()
	if err != nil {
		return nil, GetTopologyOutput{}, fmt.Errorf("failed to read topology: %w", err)
	}

	out := GetTopologyOutput{Monitors: make([]MonitorInfo, len(monitors))}
	for i, m := range monitors {
		out.Monitors[i] = MonitorInfo{
			MonitorID: m.ID,
			X:         m.Bounds.X,
			Y:         m.Bounds.Y,
			Width:     m.Bounds.Width,
			Height:    m.Bounds.Height,
			DPIScale:  m.DPIScale,
		}
	}
	return nil, out, nil
}

func (s *Server) handleSavePositions(_ context.Context, _ *mcpsdk.CallToolRequest, args SavePositionsInput) (*mcpsdk.CallToolResult, SavePositionsOutput, error) {
	windowIDs := make([]platform.WindowID, len(args.WindowIDs))
	for i, id := range args.WindowIDs {
		windowIDs[i] = platform.WindowID(id)
	}

	records, err := s.ctrl.Save(windowIDs, len(args.WindowIDs) == 0)
	if err != nil {
		return nil, SavePositionsOutput{}, fmt.Errorf("save failed: %w", err)
	}

	s.logger.Info("saved positions", "count", len(records))

	out := SavePositionsOutput{Saved: recordInfos(records)}
	return nil, out, nil
}

func (s *Server) handleListPositions(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListPositionsInput) (*mcpsdk.CallToolResult, ListPositionsOutput, error) {
	records, err := s.ctrl.Records()
	if err != nil {
		return nil, ListPositionsOutput{}, fmt.Errorf("failed to read saved positions: %w", err)
	}
	return nil, ListPositionsOutput{Positions: recordInfos(records)}, nil
}

func (s *Server) handleRestoreAll(ctx context.Context, _ *mcpsdk.CallToolRequest, _ RestoreAllInput) (*mcpsdk.CallToolResult, RestoreAllOutput, error) {
	outcomes, err := s.ctrl.RestoreAll(ctx)
	if err != nil {
		return nil, RestoreAllOutput{}, fmt.Errorf("restore failed: %w", err)
	}

	out := RestoreAllOutput{Outcomes: make([]OutcomeInfo, len(outcomes))}
	for i, o := range outcomes {
		out.Outcomes[i] = outcomeInfo(o)
		if o.Kind == position.OutcomeRestored {
			out.Restored++
		}
	}
	s.logger.Info("restore_all finished", "restored", out.Restored, "total", len(outcomes))
	return nil, out, nil
}

func (s *Server) handleRestorePosition(_ context.Context, _ *mcpsdk.CallToolRequest, args RestorePositionInput) (*mcpsdk.CallToolResult, RestorePositionOutput, error) {
	id, err := s.resolveIdentity(args.Process, args.Class, args.TitleHint)
	if err != nil {
		return nil, RestorePositionOutput{}, err
	}

	outcome, err := s.ctrl.RestoreOne(id)
	if err != nil {
		return nil, RestorePositionOutput{}, fmt.Errorf("restore failed: %w", err)
	}
	return nil, RestorePositionOutput{Outcome: outcomeInfo(outcome)}, nil
}

func (s *Server) handleRemovePosition(_ context.Context, _ *mcpsdk.CallToolRequest, args RemovePositionInput) (*mcpsdk.CallToolResult, RemovePositionOutput, error) {
	id, err := s.resolveIdentity(args.Process, args.Class, args.TitleHint)
	if err != nil {
		return nil, RemovePositionOutput{}, err
	}

	removed, err := s.ctrl.Remove(id)
	if err != nil {
		return nil, RemovePositionOutput{}, fmt.Errorf("remove failed: %w", err)
	}
	return nil, RemovePositionOutput{Removed: removed}, nil
}

// resolveIdentity finds the saved identity the given fields point at. Partial
// identities are accepted as long as they are unambiguous among the saved
// records.
func (s *Server) resolveIdentity(process, class, titleHint string) (position.Identity, error) {
	if process == "" {
		return position.Identity{}, fmt.Errorf("process is required")
	}

	records, err := s.ctrl.Records()
	if err != nil {
		return position.Identity{}, fmt.Errorf("failed to read saved positions: %w", err)
	}

	var matches []position.Identity
	for _, rec := range records {
		id := rec.Identity
		if id.Process != process {
			continue
		}
		if class != "" && id.Class != class {
			continue
		}
		if titleHint != "" && id.TitleHint != titleHint {
			continue
		}
		matches = append(matches, id)
	}

	switch len(matches) {
	case 0:
		return position.Identity{}, fmt.Errorf("no saved position for process %q", process)
	case 1:
		return matches[0], nil
	default:
		return position.Identity{}, fmt.Errorf("%d saved positions match process %q; add class or title_hint", len(matches), process)
	}
}

func recordInfos(records []position.Record) []RecordInfo {
	infos := make([]RecordInfo, len(records))
	for i, rec := range records {
		infos[i] = RecordInfo{
			Process:   rec.Identity.Process,
			Class:     rec.Identity.Class,
			TitleHint: rec.Identity.TitleHint,
			X:         rec.Geometry.Rect.X,
			Y:         rec.Geometry.Rect.Y,
			Width:     rec.Geometry.Rect.Width,
			Height:    rec.Geometry.Rect.Height,
			MonitorID: rec.Geometry.MonitorID,
			DPIScale:  rec.Geometry.DPIScale,
			SavedAt:   rec.SavedAt,
		}
	}
	return infos
}

func outcomeInfo(o position.Outcome) OutcomeInfo {
	return OutcomeInfo{
		Process:   o.Identity.Process,
		Class:     o.Identity.Class,
		TitleHint: o.Identity.TitleHint,
		Outcome:   string(o.Kind),
		Detail:    o.Detail,
	}
}
