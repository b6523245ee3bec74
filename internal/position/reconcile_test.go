package position

import (
	"errors"
	"testing"

	"github.com/greenhouse-wm/greenhouse/internal/platform"
)

func mon(id string, x, y, w, h int, scale float64) platform.Monitor {
	return platform.Monitor{
		ID:       id,
		Bounds:   platform.Rect{X: x, Y: y, Width: w, Height: h},
		DPIScale: scale,
	}
}

func TestReconcile_FastPathReturnsRectUnchanged(t *testing.T) {
	topology := []platform.Monitor{
		mon("DP-1", 0, 0, 1920, 1080, 1.0),
		mon("HDMI-1", 1920, 0, 2560, 1440, 1.25),
	}
	saved := Geometry{
		Rect:      platform.Rect{X: 100, Y: 200, Width: 800, Height: 600},
		MonitorID: "DP-1",
		DPIScale:  1.0,
	}

	got, err := Reconcile(saved, topology)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if got != saved.Rect {
		t.Fatalf("expected rect unchanged, got %+v", got)
	}
}

func TestReconcile_DPIScaleInvariance(t *testing.T) {
	// Saved at scale 1.0; the same monitor is now at 2.0. Position and size
	// must be exactly doubled relative to the monitor's origin.
	topology := []platform.Monitor{mon("DP-1", 100, 50, 3840, 2160, 2.0)}
	saved := Geometry{
		Rect:      platform.Rect{X: 100 + 200, Y: 50 + 100, Width: 400, Height: 300},
		MonitorID: "DP-1",
		DPIScale:  1.0,
	}

	got, err := Reconcile(saved, topology)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	want := platform.Rect{X: 100 + 400, Y: 50 + 200, Width: 800, Height: 600}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestReconcile_DPIDownscale(t *testing.T) {
	topology := []platform.Monitor{mon("eDP-1", 0, 0, 1920, 1080, 1.0)}
	saved := Geometry{
		Rect:      platform.Rect{X: 400, Y: 200, Width: 800, Height: 600},
		MonitorID: "eDP-1",
		DPIScale:  2.0,
	}

	got, err := Reconcile(saved, topology)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	want := platform.Rect{X: 200, Y: 100, Width: 400, Height: 300}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestReconcile_FallbackPicksGreatestOverlap(t *testing.T) {
	topology := []platform.Monitor{
		mon("DP-1", 0, 0, 1920, 1080, 1.0),
		mon("HDMI-1", 1920, 0, 1920, 1080, 1.0),
	}
	// Saved monitor is gone; the rect straddles both monitors but mostly
	// sits on HDMI-1.
	saved := Geometry{
		Rect:      platform.Rect{X: 1800, Y: 100, Width: 800, Height: 600},
		MonitorID: "DVI-0",
		DPIScale:  1.0,
	}

	got, err := Reconcile(saved, topology)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !insideBounds(got, topology[1].Bounds) {
		t.Fatalf("expected rect clamped inside HDMI-1 %+v, got %+v", topology[1].Bounds, got)
	}
}

func TestReconcile_FallbackNoOverlapUsesFirstMonitor(t *testing.T) {
	topology := []platform.Monitor{
		mon("DP-1", 0, 0, 1920, 1080, 1.0),
		mon("HDMI-1", 1920, 0, 1920, 1080, 1.0),
	}
	// Saved on a monitor that used to sit left of the primary.
	saved := Geometry{
		Rect:      platform.Rect{X: -1500, Y: 0, Width: 800, Height: 600},
		MonitorID: "DVI-0",
		DPIScale:  1.0,
	}

	got, err := Reconcile(saved, topology)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !insideBounds(got, topology[0].Bounds) {
		t.Fatalf("expected rect clamped inside first monitor, got %+v", got)
	}
	if got.Width != 800 || got.Height != 600 {
		t.Fatalf("expected size preserved by clamping, got %+v", got)
	}
}

func TestReconcile_ClampCapsOversizedRect(t *testing.T) {
	topology := []platform.Monitor{mon("DP-1", 0, 0, 1280, 720, 1.0)}
	saved := Geometry{
		Rect:      platform.Rect{X: -200, Y: -100, Width: 2000, Height: 1500},
		MonitorID: "gone",
		DPIScale:  1.0,
	}

	got, err := Reconcile(saved, topology)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	want := platform.Rect{X: 0, Y: 0, Width: 1280, Height: 720}
	if got != want {
		t.Fatalf("expected rect capped to monitor bounds %+v, got %+v", want, got)
	}
}

func TestReconcile_ClampMovesPositionBeforeShrinkingSize(t *testing.T) {
	topology := []platform.Monitor{mon("DP-1", 0, 0, 1920, 1080, 2.0)}
	// Same monitor, scale changed 1.0 -> 2.0; doubling pushes the rect past
	// the right edge, so it must slide back in without shrinking.
	saved := Geometry{
		Rect:      platform.Rect{X: 700, Y: 100, Width: 400, Height: 300},
		MonitorID: "DP-1",
		DPIScale:  1.0,
	}

	got, err := Reconcile(saved, topology)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if got.Width != 800 || got.Height != 600 {
		t.Fatalf("expected scaled size 800x600 preserved, got %+v", got)
	}
	if !insideBounds(got, topology[0].Bounds) {
		t.Fatalf("expected rect inside monitor after clamping, got %+v", got)
	}
	if got.X != 1920-800 {
		t.Fatalf("expected x slid to right edge (1120), got %d", got.X)
	}
}

func TestReconcile_EmptyTopology(t *testing.T) {
	saved := Geometry{
		Rect:      platform.Rect{X: 0, Y: 0, Width: 800, Height: 600},
		MonitorID: "DP-1",
		DPIScale:  1.0,
	}
	_, err := Reconcile(saved, nil)
	if !errors.Is(err, ErrNoMonitors) {
		t.Fatalf("expected ErrNoMonitors, got %v", err)
	}
}

func insideBounds(r, bounds platform.Rect) bool {
	return r.X >= bounds.X && r.Y >= bounds.Y &&
		r.X+r.Width <= bounds.X+bounds.Width &&
		r.Y+r.Height <= bounds.Y+bounds.Height
}
