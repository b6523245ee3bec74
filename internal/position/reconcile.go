package position

import (
	"errors"
	"math"

	"github.com/greenhouse-wm/greenhouse/internal/platform"
)

// ErrNoMonitors is returned when reconciliation is asked to place a window
// against an empty topology. The OS always reports at least one monitor, so
// this marks the record as skipped rather than failing the batch.
var ErrNoMonitors = errors.New("no monitors available")

// Reconcile maps a saved geometry onto the current topology and returns the
// corrected target rectangle:
//
//   - saved monitor present with unchanged DPI: the rect is returned as-is.
//   - saved monitor present with changed DPI: the rect is rescaled by
//     current/saved scale, anchored at the monitor's origin.
//   - saved monitor gone: the monitor with the greatest overlap with the
//     saved rect takes over; with no overlap anywhere, the first monitor in
//     topology order does. The rect is rescaled if that monitor's scale
//     differs from the saved one.
//
// Outside the fast path the result is clamped fully inside the chosen
// monitor's bounds, shrinking the size only when it exceeds the monitor.
func Reconcile(saved Geometry, topology []platform.Monitor) (platform.Rect, error) {
	if len(topology) == 0 {
		return platform.Rect{}, ErrNoMonitors
	}

	var target *platform.Monitor
	for i := range topology {
		if topology[i].ID == saved.MonitorID {
			target = &topology[i]
			break
		}
	}

	if target != nil && target.DPIScale == saved.DPIScale {
		return saved.Rect, nil
	}

	if target == nil {
		target = fallbackMonitor(saved.Rect, topology)
	}

	rect := saved.Rect
	if saved.DPIScale > 0 && target.DPIScale != saved.DPIScale {
		rect = rescale(rect, target.Bounds, target.DPIScale/saved.DPIScale)
	}

	return clampToBounds(rect, target.Bounds), nil
}

// fallbackMonitor picks the monitor with the greatest overlap area with the
// saved rect, or the first monitor when nothing overlaps.
func fallbackMonitor(rect platform.Rect, topology []platform.Monitor) *platform.Monitor {
	best := &topology[0]
	bestArea := 0
	for i := range topology {
		if area := topology[i].Bounds.OverlapArea(rect); area > bestArea {
			best = &topology[i]
			bestArea = area
		}
	}
	return best
}

// rescale scales a rect by factor, anchored at the monitor origin: the rect
// is translated into monitor-local coordinates, scaled, and translated back.
func rescale(rect, bounds platform.Rect, factor float64) platform.Rect {
	scale := func(v int) int { return int(math.Round(float64(v) * factor)) }
	return platform.Rect{
		X:      bounds.X + scale(rect.X-bounds.X),
		Y:      bounds.Y + scale(rect.Y-bounds.Y),
		Width:  scale(rect.Width),
		Height: scale(rect.Height),
	}
}

// clampToBounds moves rect fully inside bounds. Position gives way first;
// size is capped only when it exceeds the monitor itself.
func clampToBounds(rect, bounds platform.Rect) platform.Rect {
	if rect.Width > bounds.Width {
		rect.Width = bounds.Width
	}
	if rect.Height > bounds.Height {
		rect.Height = bounds.Height
	}

	if rect.X < bounds.X {
		rect.X = bounds.X
	} else if rect.X+rect.Width > bounds.X+bounds.Width {
		rect.X = bounds.X + bounds.Width - rect.Width
	}

	if rect.Y < bounds.Y {
		rect.Y = bounds.Y
	} else if rect.Y+rect.Height > bounds.Y+bounds.Height {
		rect.Y = bounds.Y + bounds.Height - rect.Height
	}

	return rect
}
