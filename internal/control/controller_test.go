package control

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/greenhouse-wm/greenhouse/internal/config"
	"github.com/greenhouse-wm/greenhouse/internal/platform"
	"github.com/greenhouse-wm/greenhouse/internal/store"
)

// fakeBackend is a minimal platform.Backend for local controller tests.
type fakeBackend struct {
	windows  []platform.Window
	monitors []platform.Monitor
	moves    int
}

func (b *fakeBackend) ListWindows() ([]platform.Window, error) { return b.windows, nil }
func (b *fakeBackend) Topology() ([]platform.Monitor, error)   { return b.monitors, nil }
func (b *fakeBackend) MoveResize(platform.WindowID, platform.Rect) error {
	b.moves++
	return nil
}

func newBackend() *fakeBackend {
	return &fakeBackend{
		monitors: []platform.Monitor{
			{ID: "DP-1", Bounds: platform.Rect{Width: 1920, Height: 1080}, DPIScale: 1.0},
		},
		windows: []platform.Window{{
			ID: 7, Process: "firefox", Class: "Navigator", Title: "Docs",
			Bounds: platform.Rect{X: 10, Y: 20, Width: 800, Height: 600}, MonitorID: "DP-1",
		}},
	}
}

func TestLocalController_SaveAndRemovePersist(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.StorePath = filepath.Join(t.TempDir(), "positions.json")

	ctrl, err := NewLocalController(cfg, newBackend(), nil)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}

	if _, err := ctrl.Save(nil, true); err != nil {
		t.Fatalf("save: %v", err)
	}

	onDisk, err := store.Read(cfg.StorePath)
	if err != nil {
		t.Fatalf("read store: %v", err)
	}
	if len(onDisk) != 1 || onDisk[0].Identity.Process != "firefox" {
		t.Fatalf("store not persisted: %+v", onDisk)
	}

	removed, err := ctrl.Remove(onDisk[0].Identity)
	if err != nil || !removed {
		t.Fatalf("remove: removed=%v err=%v", removed, err)
	}
	onDisk, err = store.Read(cfg.StorePath)
	if err != nil {
		t.Fatalf("read store: %v", err)
	}
	if len(onDisk) != 0 {
		t.Fatalf("remove not persisted: %+v", onDisk)
	}
}

func TestLocalController_PartialSavePersists(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.StorePath = filepath.Join(t.TempDir(), "positions.json")

	ctrl, err := NewLocalController(cfg, newBackend(), nil)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}

	// Window 99 is a stale handle; the save errors but window 7 was still
	// recorded and must reach disk.
	records, err := ctrl.Save([]platform.WindowID{7, 99}, false)
	if err == nil {
		t.Fatal("expected error for stale window id")
	}
	if len(records) != 1 || records[0].Identity.Process != "firefox" {
		t.Fatalf("expected known window saved, got %+v", records)
	}

	onDisk, err := store.Read(cfg.StorePath)
	if err != nil {
		t.Fatalf("read store: %v", err)
	}
	if len(onDisk) != 1 || onDisk[0].Identity.Process != "firefox" {
		t.Fatalf("partial save not persisted: %+v", onDisk)
	}
}

func TestLocalController_LoadsExistingStore(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.StorePath = filepath.Join(t.TempDir(), "positions.json")

	// First controller saves; second must see the record at startup.
	first, err := NewLocalController(cfg, newBackend(), nil)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	if _, err := first.Save(nil, true); err != nil {
		t.Fatalf("save: %v", err)
	}

	second, err := NewLocalController(cfg, newBackend(), nil)
	if err != nil {
		t.Fatalf("second controller: %v", err)
	}
	records, err := second.Records()
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(records) != 1 || records[0].Identity.Process != "firefox" {
		t.Fatalf("store not loaded: %+v", records)
	}
}

func TestLocalController_RestoreAppliesMoves(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.StorePath = filepath.Join(t.TempDir(), "positions.json")

	backend := newBackend()
	ctrl, err := NewLocalController(cfg, backend, nil)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	if _, err := ctrl.Save(nil, true); err != nil {
		t.Fatalf("save: %v", err)
	}

	outcomes, err := ctrl.RestoreAll(context.Background())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if len(outcomes) != 1 || backend.moves != 1 {
		t.Fatalf("expected 1 outcome and 1 move, got %d/%d", len(outcomes), backend.moves)
	}
}

func TestLocalController_IgnoreListFiltersSave(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.StorePath = filepath.Join(t.TempDir(), "positions.json")
	cfg.IgnoreProcesses = []string{"firefox"}

	ctrl, err := NewLocalController(cfg, newBackend(), nil)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}

	records, err := ctrl.Save(nil, true)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("ignored process was saved: %+v", records)
	}
}
