package position

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/greenhouse-wm/greenhouse/internal/platform"
)

// Manager owns the position store and drives save/restore operations against
// a backend. It is the single entry point the daemon, CLI, and MCP surfaces
// go through; all calls are expected on one control goroutine (OS window
// APIs are not safely reentrant across threads).
type Manager struct {
	backend platform.Backend
	store   *Store
	logger  *slog.Logger

	now func() time.Time
}

// NewManager creates a manager around an empty store.
func NewManager(backend platform.Backend, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		backend: backend,
		store:   NewStore(),
		logger:  logger,
		now:     time.Now,
	}
}

// ListWindows returns a fresh enumeration snapshot from the backend.
func (m *Manager) ListWindows() ([]platform.Window, error) {
	return m.backend.ListWindows()
}

// Topology returns the current monitor topology from the backend.
func (m *Manager) Topology() ([]platform.Monitor, error) {
	return m.backend.Topology()
}

// SaveWindows records the current geometry of the given windows. IDs must
// come from a fresh ListWindows snapshot; unknown IDs are reported as an
// error after the known ones have been saved.
func (m *Manager) SaveWindows(ids []platform.WindowID) ([]Record, error) {
	windows, err := m.backend.ListWindows()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate windows: %w", err)
	}
	topology, err := m.backend.Topology()
	if err != nil {
		return nil, fmt.Errorf("topology read failed: %w", err)
	}

	byID := make(map[platform.WindowID]platform.Window, len(windows))
	for _, w := range windows {
		byID[w.ID] = w
	}

	var saved []Record
	var missing []platform.WindowID
	for _, id := range ids {
		w, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		saved = append(saved, m.saveWindow(w, topology))
	}

	if len(missing) > 0 {
		return saved, fmt.Errorf("windows not found in current enumeration: %v", missing)
	}
	return saved, nil
}

// SaveAll records the current geometry of every visible window.
func (m *Manager) SaveAll() ([]Record, error) {
	windows, err := m.backend.ListWindows()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate windows: %w", err)
	}
	topology, err := m.backend.Topology()
	if err != nil {
		return nil, fmt.Errorf("topology read failed: %w", err)
	}

	saved := make([]Record, 0, len(windows))
	for _, w := range windows {
		saved = append(saved, m.saveWindow(w, topology))
	}
	return saved, nil
}

func (m *Manager) saveWindow(w platform.Window, topology []platform.Monitor) Record {
	rec := Record{
		Identity: IdentityOf(w),
		Geometry: GeometryOf(w, topology),
		SavedAt:  m.now(),
	}
	m.store.Save(rec)
	m.logger.Debug("saved window position",
		"identity", rec.Identity.String(),
		"monitor", rec.Geometry.MonitorID,
		"rect", rec.Geometry.Rect)
	return rec
}

// Remove deletes the saved record for an identity.
func (m *Manager) Remove(id Identity) bool {
	return m.store.Remove(id)
}

// Records returns all saved records in save order, ready for serialization
// by the persistence layer.
func (m *Manager) Records() []Record {
	return m.store.All()
}

// LoadRecords repopulates the store from a deserialized record sequence.
func (m *Manager) LoadRecords(records []Record) {
	m.store.Load(records)
}

// Pending returns the identities of saved records with no matching window in
// the given snapshot — the "not currently running" set the launch-detection
// watcher retries.
func (m *Manager) Pending(snapshot []platform.Window) []Identity {
	var pending []Identity
	for _, rec := range m.store.All() {
		if _, ok := Match(rec.Identity, snapshot); !ok {
			pending = append(pending, rec.Identity)
		}
	}
	return pending
}
