// Package control gives one-shot surfaces (CLI, MCP) a uniform way to drive
// greenhouse: through the daemon over IPC when one is running, or directly
// against the display server when not.
package control

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/greenhouse-wm/greenhouse/internal/config"
	"github.com/greenhouse-wm/greenhouse/internal/ipc"
	"github.com/greenhouse-wm/greenhouse/internal/platform"
	"github.com/greenhouse-wm/greenhouse/internal/position"
	"github.com/greenhouse-wm/greenhouse/internal/store"
)

// Controller is the operation surface shared by the CLI and the MCP server.
type Controller interface {
	ListWindows() ([]platform.Window, error)
	Topology() ([]platform.Monitor, error)
	Save(ids []platform.WindowID, all bool) ([]position.Record, error)
	Records() ([]position.Record, error)
	RestoreAll(ctx context.Context) ([]position.Outcome, error)
	RestoreOne(id position.Identity) (position.Outcome, error)
	Remove(id position.Identity) (bool, error)
}

// Connect returns a controller for the current environment: the daemon when
// it answers on its socket, a direct display connection otherwise. The
// returned cleanup func releases the direct connection (a no-op for the
// daemon path).
func Connect(cfg *config.Config, logger *slog.Logger) (Controller, func(), error) {
	client := ipc.NewClient()
	if err := client.Ping(); err == nil {
		return NewDaemonController(client), func() {}, nil
	}

	backend, err := platform.NewLinuxBackendFromDisplay(cfg.Display)
	if err != nil {
		return nil, nil, err
	}
	ctrl, err := NewLocalController(cfg, backend, logger)
	if err != nil {
		backend.Disconnect()
		return nil, nil, err
	}
	return ctrl, backend.Disconnect, nil
}

// daemonController forwards every operation to the daemon over IPC, so the
// daemon's control goroutine stays the only place backend calls happen.
type daemonController struct {
	client *ipc.Client
}

// NewDaemonController wraps an IPC client as a controller.
func NewDaemonController(client *ipc.Client) Controller {
	return &daemonController{client: client}
}

func (c *daemonController) ListWindows() ([]platform.Window, error) {
	data, err := c.client.ListWindows()
	if err != nil {
		return nil, err
	}
	return data.Windows, nil
}

func (c *daemonController) Topology() ([]platform.Monitor, error) {
	data, err := c.client.GetTopology()
	if err != nil {
		return nil, err
	}
	return data.Monitors, nil
}

func (c *daemonController) Save(ids []platform.WindowID, all bool) ([]position.Record, error) {
	raw := make([]uint32, len(ids))
	for i, id := range ids {
		raw[i] = uint32(id)
	}
	data, err := c.client.Save(raw, all)
	if err != nil {
		return nil, err
	}
	return data.Records, nil
}

func (c *daemonController) Records() ([]position.Record, error) {
	data, err := c.client.GetRecords()
	if err != nil {
		return nil, err
	}
	return data.Records, nil
}

func (c *daemonController) RestoreAll(ctx context.Context) ([]position.Outcome, error) {
	data, err := c.client.RestoreAll()
	if err != nil {
		return nil, err
	}
	return data.Outcomes, nil
}

func (c *daemonController) RestoreOne(id position.Identity) (position.Outcome, error) {
	data, err := c.client.RestoreOne(id)
	if err != nil {
		return position.Outcome{}, err
	}
	if len(data.Outcomes) == 0 {
		return position.Outcome{}, fmt.Errorf("daemon returned no outcome")
	}
	return data.Outcomes[0], nil
}

func (c *daemonController) Remove(id position.Identity) (bool, error) {
	return c.client.Remove(id)
}

// localController drives a backend directly and persists the store after
// every mutation, mirroring the daemon's write-through behavior.
type localController struct {
	manager   *position.Manager
	storePath string
	logger    *slog.Logger
}

// NewLocalController builds a controller around a backend, loading previously
// saved positions from the store.
func NewLocalController(cfg *config.Config, backend platform.Backend, logger *slog.Logger) (Controller, error) {
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

	return &localController{
		manager:   manager,
		storePath: storePath,
		logger:    logger,
	}, nil
}

func (c *localController) ListWindows() ([]platform.Window, error) {
	return c.manager.ListWindows()
}

func (c *localController) Topology() ([]platform.Monitor, error) {
	return c.manager.Topology()
}

func (c *localController) Save(ids []platform.WindowID, all bool) ([]position.Record, error) {
	var records []position.Record
	var err error
	if all || len(ids) == 0 {
		records, err = c.manager.SaveAll()
	} else {
		records, err = c.manager.SaveWindows(ids)
	}

	// A partial failure (stale window IDs) still saved the known windows;
	// those must reach disk before the error is reported.
	if len(records) > 0 {
		if perr := c.persist(); perr != nil {
			return records, perr
		}
	}
	return records, err
}

func (c *localController) Records() ([]position.Record, error) {
	return c.manager.Records(), nil
}

func (c *localController) RestoreAll(ctx context.Context) ([]position.Outcome, error) {
	return c.manager.RestoreAll(ctx)
}

func (c *localController) RestoreOne(id position.Identity) (position.Outcome, error) {
	return c.manager.RestoreOne(id)
}

func (c *localController) Remove(id position.Identity) (bool, error) {
	removed := c.manager.Remove(id)
	if !removed {
		return false, nil
	}
	return true, c.persist()
}

func (c *localController) persist() error {
	if err := store.Write(c.storePath, c.manager.Records()); err != nil {
		return fmt.Errorf("failed to persist positions: %w", err)
	}
	return nil
}
