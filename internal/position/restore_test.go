package position

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/greenhouse-wm/greenhouse/internal/platform"
)

// fakeBackend satisfies platform.Backend with canned data so the manager can
// be exercised without an X server.
type fakeBackend struct {
	monitors    []platform.Monitor
	windows     []platform.Window
	topologyErr error
	listErr     error
	moveErr     map[platform.WindowID]error
	// failMoveAt makes the Nth MoveResize call (1-based) fail, for
	// exercising the re-apply after a cross-scale move.
	failMoveAt   int
	moveAttempts int
	moves        []moveCall
}

type moveCall struct {
	id     platform.WindowID
	bounds platform.Rect
}

func (f *fakeBackend) Topology() ([]platform.Monitor, error) {
	if f.topologyErr != nil {
		return nil, f.topologyErr
	}
	return f.monitors, nil
}

func (f *fakeBackend) ListWindows() ([]platform.Window, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.windows, nil
}

func (f *fakeBackend) MoveResize(id platform.WindowID, bounds platform.Rect) error {
	f.moveAttempts++
	if err, ok := f.moveErr[id]; ok && err != nil {
		return err
	}
	if f.failMoveAt > 0 && f.moveAttempts == f.failMoveAt {
		return errors.New("move rejected")
	}
	f.moves = append(f.moves, moveCall{id: id, bounds: bounds})
	return nil
}

func newTestManager(b *fakeBackend) *Manager {
	return NewManager(b, slog.New(slog.DiscardHandler))
}

func singleMonitor() []platform.Monitor {
	return []platform.Monitor{
		{ID: "DP-1", Bounds: platform.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}, DPIScale: 1.0},
	}
}

func TestRestoreAll_BatchResilience(t *testing.T) {
	backend := &fakeBackend{
		monitors: singleMonitor(),
		windows: []platform.Window{
			win(1, "firefox", "Navigator", "Docs"),
			win(2, "kitty", "kitty", "~"),
		},
		moveErr: map[platform.WindowID]error{
			2: errors.New("window gone"),
		},
	}
	backend.windows[0].MonitorID = "DP-1"
	backend.windows[1].MonitorID = "DP-1"

	m := newTestManager(backend)
	m.LoadRecords([]Record{
		rec("firefox", "Navigator", "Docs", 100),
		rec("kitty", "kitty", "~", 200),
		rec("gimp", "Gimp", "image.png", 300),
	})

	outcomes, err := m.RestoreAll(context.Background())
	if err != nil {
		t.Fatalf("RestoreAll: %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}

	want := []OutcomeKind{OutcomeRestored, OutcomeApplyFailed, OutcomeNotFound}
	for i, kind := range want {
		if outcomes[i].Kind != kind {
			t.Errorf("record %d: expected %s, got %s", i, kind, outcomes[i].Kind)
		}
	}

	// The successful record must actually have been applied.
	if len(backend.moves) != 1 || backend.moves[0].id != 1 {
		t.Fatalf("expected exactly one applied move for window 1, got %+v", backend.moves)
	}
	if got := backend.moves[0].bounds.X; got != 100 {
		t.Fatalf("expected saved rect applied, got x=%d", got)
	}
}

func TestRestoreAll_TopologyFailureAbortsBatch(t *testing.T) {
	backend := &fakeBackend{topologyErr: errors.New("randr unavailable")}
	m := newTestManager(backend)
	m.LoadRecords([]Record{rec("firefox", "Navigator", "Docs", 0)})

	outcomes, err := m.RestoreAll(context.Background())
	if err == nil {
		t.Fatal("expected topology failure to surface as an error")
	}
	if len(outcomes) != 0 {
		t.Fatalf("expected no outcomes on aborted batch, got %d", len(outcomes))
	}
}

func TestRestoreAll_CancelledBetweenRecords(t *testing.T) {
	backend := &fakeBackend{monitors: singleMonitor()}
	m := newTestManager(backend)
	m.LoadRecords([]Record{
		rec("firefox", "Navigator", "Docs", 0),
		rec("kitty", "kitty", "~", 0),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes, err := m.RestoreAll(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(outcomes) != 0 {
		t.Fatalf("expected no records attempted after cancellation, got %d", len(outcomes))
	}
	if len(backend.moves) != 0 {
		t.Fatalf("expected no moves after cancellation, got %+v", backend.moves)
	}
}

func TestRestoreOne_UnknownIdentity(t *testing.T) {
	m := newTestManager(&fakeBackend{monitors: singleMonitor()})
	if _, err := m.RestoreOne(Identity{Process: "nope"}); err == nil {
		t.Fatal("expected error for unknown identity")
	}
}

func TestRestoreOne_AppliesSavedGeometry(t *testing.T) {
	backend := &fakeBackend{
		monitors: singleMonitor(),
		windows:  []platform.Window{win(9, "gimp", "Gimp", "image.png")},
	}
	backend.windows[0].MonitorID = "DP-1"

	m := newTestManager(backend)
	m.LoadRecords([]Record{rec("gimp", "Gimp", "image.png", 640)})

	out, err := m.RestoreOne(Identity{Process: "gimp", Class: "Gimp", TitleHint: "image.png"})
	if err != nil {
		t.Fatalf("RestoreOne: %v", err)
	}
	if out.Kind != OutcomeRestored {
		t.Fatalf("expected restored, got %s (%s)", out.Kind, out.Detail)
	}
	if len(backend.moves) != 1 || backend.moves[0].bounds.X != 640 {
		t.Fatalf("expected move to x=640, got %+v", backend.moves)
	}
}

func dualScaleMonitors() []platform.Monitor {
	return []platform.Monitor{
		{ID: "DP-1", Bounds: platform.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}, DPIScale: 1.0},
		{ID: "HDMI-1", Bounds: platform.Rect{X: 1920, Y: 0, Width: 3840, Height: 2160}, DPIScale: 2.0},
	}
}

func crossScaleRecord() Record {
	return Record{
		Identity: Identity{Process: "gimp", Class: "Gimp", TitleHint: "image.png"},
		Geometry: Geometry{
			Rect:      platform.Rect{X: 2200, Y: 100, Width: 1600, Height: 1200},
			MonitorID: "HDMI-1",
			DPIScale:  2.0,
		},
	}
}

func TestRestoreOne_CrossScaleMoveAppliedTwice(t *testing.T) {
	backend := &fakeBackend{
		monitors: dualScaleMonitors(),
		windows:  []platform.Window{win(5, "gimp", "Gimp", "image.png")},
	}
	backend.windows[0].MonitorID = "DP-1"

	m := newTestManager(backend)
	m.LoadRecords([]Record{crossScaleRecord()})

	out, err := m.RestoreOne(Identity{Process: "gimp", Class: "Gimp", TitleHint: "image.png"})
	if err != nil {
		t.Fatalf("RestoreOne: %v", err)
	}
	if out.Kind != OutcomeRestored {
		t.Fatalf("expected restored, got %s (%s)", out.Kind, out.Detail)
	}

	// The window left a 1.0-scale monitor for a 2.0-scale one, so the
	// geometry is applied a second time to pin it after the WM settles.
	if len(backend.moves) != 2 {
		t.Fatalf("expected 2 applies for cross-scale move, got %d: %+v", len(backend.moves), backend.moves)
	}
	for i, mv := range backend.moves {
		if mv.bounds != out.Target {
			t.Errorf("apply %d: expected target %+v, got %+v", i, out.Target, mv.bounds)
		}
	}
}

func TestRestoreOne_SecondApplyFailureReported(t *testing.T) {
	backend := &fakeBackend{
		monitors:   dualScaleMonitors(),
		windows:    []platform.Window{win(5, "gimp", "Gimp", "image.png")},
		failMoveAt: 2,
	}
	backend.windows[0].MonitorID = "DP-1"

	m := newTestManager(backend)
	m.LoadRecords([]Record{crossScaleRecord()})

	out, err := m.RestoreOne(Identity{Process: "gimp", Class: "Gimp", TitleHint: "image.png"})
	if err != nil {
		t.Fatalf("RestoreOne: %v", err)
	}
	if out.Kind != OutcomeApplyFailed {
		t.Fatalf("expected apply_failed when the second apply is rejected, got %s", out.Kind)
	}
	if len(backend.moves) != 1 {
		t.Fatalf("expected only the first apply to land, got %d", len(backend.moves))
	}
}

func TestRestoreOne_SameScaleMoveAppliedOnce(t *testing.T) {
	backend := &fakeBackend{
		monitors: dualScaleMonitors(),
		windows:  []platform.Window{win(9, "gimp", "Gimp", "image.png")},
	}
	backend.windows[0].MonitorID = "DP-1"

	m := newTestManager(backend)
	m.LoadRecords([]Record{rec("gimp", "Gimp", "image.png", 640)})

	if _, err := m.RestoreOne(Identity{Process: "gimp", Class: "Gimp", TitleHint: "image.png"}); err != nil {
		t.Fatalf("RestoreOne: %v", err)
	}
	if len(backend.moves) != 1 {
		t.Fatalf("expected a single apply within one scale, got %d", len(backend.moves))
	}
}

func TestRestoreAll_EnumerationFailureIsApplyFailure(t *testing.T) {
	backend := &fakeBackend{
		monitors: singleMonitor(),
		listErr:  errors.New("display connection lost"),
	}
	m := newTestManager(backend)
	m.LoadRecords([]Record{rec("firefox", "Navigator", "Docs", 100)})

	outcomes, err := m.RestoreAll(context.Background())
	if err != nil {
		t.Fatalf("RestoreAll: %v", err)
	}
	if len(outcomes) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(outcomes))
	}

	// A broken enumeration says nothing about whether the window runs, so
	// the record must not be classified as not_found.
	if outcomes[0].Kind != OutcomeApplyFailed {
		t.Fatalf("expected apply_failed, got %s", outcomes[0].Kind)
	}
	if !strings.Contains(outcomes[0].Detail, "enumeration") {
		t.Fatalf("expected enumeration failure detail, got %q", outcomes[0].Detail)
	}
}

func TestSaveWindows_RecordsGeometryWithMonitorContext(t *testing.T) {
	backend := &fakeBackend{
		monitors: []platform.Monitor{
			{ID: "DP-1", Bounds: platform.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}, DPIScale: 1.0},
			{ID: "HDMI-1", Bounds: platform.Rect{X: 1920, Y: 0, Width: 3840, Height: 2160}, DPIScale: 2.0},
		},
		windows: []platform.Window{
			{
				ID: 4, Process: "firefox", Class: "Navigator", Title: "Docs",
				Bounds:    platform.Rect{X: 2000, Y: 100, Width: 1600, Height: 1200},
				MonitorID: "HDMI-1",
			},
		},
	}

	m := newTestManager(backend)
	saved, err := m.SaveWindows([]platform.WindowID{4})
	if err != nil {
		t.Fatalf("SaveWindows: %v", err)
	}
	if len(saved) != 1 {
		t.Fatalf("expected 1 record, got %d", len(saved))
	}
	got := saved[0].Geometry
	if got.MonitorID != "HDMI-1" || got.DPIScale != 2.0 {
		t.Fatalf("expected HDMI-1 @ 2.0 context, got %+v", got)
	}
	if m.store.Len() != 1 {
		t.Fatalf("expected record in store, got %d", m.store.Len())
	}
}

func TestSaveWindows_UnknownIDReported(t *testing.T) {
	backend := &fakeBackend{
		monitors: singleMonitor(),
		windows:  []platform.Window{win(1, "kitty", "kitty", "~")},
	}
	m := newTestManager(backend)

	saved, err := m.SaveWindows([]platform.WindowID{1, 99})
	if err == nil {
		t.Fatal("expected error for unknown window id")
	}
	if len(saved) != 1 {
		t.Fatalf("expected known window still saved, got %d records", len(saved))
	}
}

func TestPending_ListsUnmatchedIdentities(t *testing.T) {
	backend := &fakeBackend{
		monitors: singleMonitor(),
		windows:  []platform.Window{win(1, "kitty", "kitty", "~")},
	}
	m := newTestManager(backend)
	m.LoadRecords([]Record{
		rec("kitty", "kitty", "~", 0),
		rec("firefox", "Navigator", "Docs", 0),
	})

	pending := m.Pending(backend.windows)
	if len(pending) != 1 || pending[0].Process != "firefox" {
		t.Fatalf("expected firefox pending, got %+v", pending)
	}
}
