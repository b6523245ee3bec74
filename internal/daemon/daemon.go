// Package daemon runs the long-lived greenhouse process: it owns the position
// manager, serializes IPC requests onto one control goroutine, and polls the
// desktop for monitor and window changes.
package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/greenhouse-wm/greenhouse/internal/config"
	"github.com/greenhouse-wm/greenhouse/internal/ipc"
	"github.com/greenhouse-wm/greenhouse/internal/platform"
	"github.com/greenhouse-wm/greenhouse/internal/position"
	"github.com/greenhouse-wm/greenhouse/internal/store"
)

type task struct {
	req  *ipc.Request
	resp chan *ipc.Response
}

// Daemon drives the control loop. All window operations run on the goroutine
// inside Run; IPC handlers and the poll watcher never touch the backend
// concurrently.
type Daemon struct {
	cfg       *config.Config
	manager   *position.Manager
	storePath string
	logger    *slog.Logger
	startTime time.Time

	requests chan task
	done     chan struct{}

	// watcher state, only touched from the control goroutine
	primed           bool
	lastMonitorCount int
	pendingKeys      map[string]position.Identity
}

// New builds a daemon around a backend. Previously saved positions are loaded
// from the store so restores survive daemon restarts.
func New(cfg *config.Config, backend platform.Backend, logger *slog.Logger) (*Daemon, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	storePath := cfg.StorePath
	if storePath == "" {
		var err error
		storePath, err = store.DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	backend = platform.NewFilteredBackend(backend, cfg.Ignored)
	manager := position.NewManager(backend, logger)

	records, err := store.Read(storePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load saved positions: %w", err)
	}
	manager.LoadRecords(records)
	if len(records) > 0 {
		logger.Info("loaded saved positions", "count", len(records), "path", storePath)
	}

	return &Daemon{
		cfg:         cfg,
		manager:     manager,
		storePath:   storePath,
		logger:      logger,
		startTime:   time.Now(),
		requests:    make(chan task),
		done:        make(chan struct{}),
		pendingKeys: make(map[string]position.Identity),
	}, nil
}

// Manager exposes the position manager for surfaces that run in-process with
// the control loop (tests, one-shot mode).
func (d *Daemon) Manager() *position.Manager {
	return d.manager
}

// Handler returns the IPC handler. It forwards each request onto the control
// goroutine and blocks until that goroutine has produced the response. Once
// Run has returned, requests are answered with an error instead of blocking
// on a loop that no longer drains them.
func (d *Daemon) Handler() ipc.Handler {
	return func(req *ipc.Request) *ipc.Response {
		t := task{req: req, resp: make(chan *ipc.Response, 1)}
		select {
		case d.requests <- t:
		case <-d.done:
			return ipc.NewErrorResponse("Daemon is shutting down")
		}
		select {
		case resp := <-t.resp:
			return resp
		case <-d.done:
			// The control loop may have answered just before exiting.
			select {
			case resp := <-t.resp:
				return resp
			default:
			}
			return ipc.NewErrorResponse("Daemon is shutting down")
		}
	}
}

// Run executes the control loop until the context is cancelled. The poll
// ticker and IPC requests are multiplexed here so every backend call happens
// on this goroutine.
func (d *Daemon) Run(ctx context.Context) error {
	defer close(d.done)

	ticker := time.NewTicker(d.cfg.PollInterval())
	defer ticker.Stop()

	d.logger.Info("daemon started",
		"poll_interval", d.cfg.PollInterval(),
		"auto_restore", d.cfg.GetAutoRestore(),
		"launch_detection", d.cfg.GetLaunchDetection())

	// Prime the watcher baseline before the first tick.
	d.pollPass(ctx)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("daemon stopped")
			return nil
		case <-ticker.C:
			d.pollPass(ctx)
		case t := <-d.requests:
			t.resp <- d.handleCommand(ctx, t.req)
		}
	}
}

func (d *Daemon) handleCommand(ctx context.Context, req *ipc.Request) *ipc.Response {
	switch req.Command {
	case ipc.CommandGetStatus:
		return d.handleGetStatus()
	case ipc.CommandListWindows:
		return d.handleListWindows()
	case ipc.CommandGetTopology:
		return d.handleGetTopology()
	case ipc.CommandSave:
		return d.handleSave(req.Payload)
	case ipc.CommandGetRecords:
		return d.handleGetRecords()
	case ipc.CommandRestoreAll:
		return d.handleRestoreAll(ctx)
	case ipc.CommandRestoreOne:
		return d.handleRestoreOne(req.Payload)
	case ipc.CommandRemove:
		return d.handleRemove(req.Payload)
	default:
		return ipc.NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (d *Daemon) handleGetStatus() *ipc.Response {
	status := ipc.StatusData{
		DaemonRunning: true,
		RecordCount:   len(d.manager.Records()),
		UptimeSeconds: int64(time.Since(d.startTime).Seconds()),
	}
	if topology, err := d.manager.Topology(); err == nil {
		status.MonitorCount = len(topology)
	}
	if windows, err := d.manager.ListWindows(); err == nil {
		status.PendingCount = len(d.manager.Pending(windows))
	}

	resp, _ := ipc.NewOKResponse(status)
	return resp
}

func (d *Daemon) handleListWindows() *ipc.Response {
	windows, err := d.manager.ListWindows()
	if err != nil {
		return ipc.NewErrorResponse(fmt.Sprintf("Failed to list windows: %v", err))
	}
	resp, _ := ipc.NewOKResponse(ipc.WindowsData{Windows: windows})
	return resp
}

func (d *Daemon) handleGetTopology() *ipc.Response {
	topology, err := d.manager.Topology()
	if err != nil {
		return ipc.NewErrorResponse(fmt.Sprintf("Failed to read topology: %v", err))
	}
	resp, _ := ipc.NewOKResponse(ipc.TopologyData{Monitors: topology})
	return resp
}

func (d *Daemon) handleSave(payload json.RawMessage) *ipc.Response {
	var save ipc.SavePayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &save); err != nil {
			return ipc.NewErrorResponse(fmt.Sprintf("Invalid save payload: %v", err))
		}
	}

	var records []position.Record
	var err error
	if save.All || len(save.WindowIDs) == 0 {
		records, err = d.manager.SaveAll()
	} else {
		ids := make([]platform.WindowID, len(save.WindowIDs))
		for i, id := range save.WindowIDs {
			ids[i] = platform.WindowID(id)
		}
		records, err = d.manager.SaveWindows(ids)
	}
	// A partial failure (stale window IDs) still saved the known windows;
	// those must reach disk before the error is reported.
	if len(records) > 0 {
		d.persist()
	}
	if err != nil {
		return ipc.NewErrorResponse(fmt.Sprintf("Save failed: %v", err))
	}

	resp, _ := ipc.NewOKResponse(ipc.RecordsData{Records: records})
	return resp
}

func (d *Daemon) handleGetRecords() *ipc.Response {
	resp, _ := ipc.NewOKResponse(ipc.RecordsData{Records: d.manager.Records()})
	return resp
}

func (d *Daemon) handleRestoreAll(ctx context.Context) *ipc.Response {
	outcomes, err := d.manager.RestoreAll(ctx)
	if err != nil {
		return ipc.NewErrorResponse(fmt.Sprintf("Restore failed: %v", err))
	}
	resp, _ := ipc.NewOKResponse(ipc.OutcomesData{Outcomes: outcomes})
	return resp
}

func (d *Daemon) handleRestoreOne(payload json.RawMessage) *ipc.Response {
	var p ipc.IdentityPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return ipc.NewErrorResponse(fmt.Sprintf("Invalid restore payload: %v", err))
	}

	outcome, err := d.manager.RestoreOne(p.Identity)
	if err != nil {
		return ipc.NewErrorResponse(fmt.Sprintf("Restore failed: %v", err))
	}
	resp, _ := ipc.NewOKResponse(ipc.OutcomesData{Outcomes: []position.Outcome{outcome}})
	return resp
}

func (d *Daemon) handleRemove(payload json.RawMessage) *ipc.Response {
	var p ipc.IdentityPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return ipc.NewErrorResponse(fmt.Sprintf("Invalid remove payload: %v", err))
	}

	removed := d.manager.Remove(p.Identity)
	if removed {
		d.persist()
	}
	resp, _ := ipc.NewOKResponse(ipc.RemoveData{Removed: removed})
	return resp
}

// persist writes the store through to disk after every mutation, so a daemon
// crash never loses a save.
func (d *Daemon) persist() {
	if err := store.Write(d.storePath, d.manager.Records()); err != nil {
		d.logger.Warn("failed to persist positions", "path", d.storePath, "error", err)
	}
}
