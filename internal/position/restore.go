package position

import (
	"context"
	"errors"
	"fmt"

	"github.com/greenhouse-wm/greenhouse/internal/platform"
)

// OutcomeKind classifies the result of one record's restore attempt.
type OutcomeKind string

const (
	// OutcomeRestored means the window was matched and its geometry applied.
	OutcomeRestored OutcomeKind = "restored"
	// OutcomeNotFound means no live window matched the saved identity; the
	// record stays pending for the launch-detection watcher.
	OutcomeNotFound OutcomeKind = "not_found"
	// OutcomeApplyFailed means the restore could not be carried out: the OS
	// rejected the move (typically the window closed between match and
	// apply) or a required read failed mid-record.
	OutcomeApplyFailed OutcomeKind = "apply_failed"
	// OutcomeMonitorUnavailable means no usable target monitor existed for
	// the record.
	OutcomeMonitorUnavailable OutcomeKind = "monitor_unavailable"
)

// Outcome is the per-record result of a restore batch. Failures are data,
// not errors: the batch carries on and the caller decides what to surface.
type Outcome struct {
	Identity Identity      `json:"identity"`
	Kind     OutcomeKind   `json:"kind"`
	Target   platform.Rect `json:"target,omitempty"`
	Detail   string        `json:"detail,omitempty"`
}

// RestoreAll restores every stored record in save order. Topology is read
// once up front; its failure aborts the whole batch since no geometry math
// is possible without it. Everything else — unmatched windows, vanished
// handles, missing monitors — is reported per record and never stops the
// batch. The context is checked between records, so cancellation never
// leaves a record half-applied.
func (m *Manager) RestoreAll(ctx context.Context) ([]Outcome, error) {
	topology, err := m.backend.Topology()
	if err != nil {
		return nil, fmt.Errorf("topology read failed: %w", err)
	}

	records := m.store.All()
	outcomes := make([]Outcome, 0, len(records))
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, m.restoreRecord(rec, topology))
	}
	return outcomes, nil
}

// RestoreOne re-attempts a single identity, the hook the launch-detection
// watcher calls when a new matching process appears.
func (m *Manager) RestoreOne(id Identity) (Outcome, error) {
	rec, ok := m.store.Get(id)
	if !ok {
		return Outcome{}, fmt.Errorf("no saved position for %s", id)
	}
	topology, err := m.backend.Topology()
	if err != nil {
		return Outcome{}, fmt.Errorf("topology read failed: %w", err)
	}
	return m.restoreRecord(rec, topology), nil
}

func (m *Manager) restoreRecord(rec Record, topology []platform.Monitor) Outcome {
	out := Outcome{Identity: rec.Identity, Kind: OutcomeNotFound}

	// Fresh enumeration per record: windows may have opened or closed since
	// the previous record was applied. A failed enumeration is not evidence
	// the window is gone, so it reports as a failed apply, not a miss.
	windows, err := m.backend.ListWindows()
	if err != nil {
		out.Kind = OutcomeApplyFailed
		out.Detail = fmt.Sprintf("window enumeration failed: %v", err)
		return out
	}

	id, ok := Match(rec.Identity, windows)
	if !ok {
		m.logger.Debug("window not running", "identity", rec.Identity.String())
		return out
	}

	target, err := Reconcile(rec.Geometry, topology)
	if err != nil {
		if errors.Is(err, ErrNoMonitors) {
			out.Kind = OutcomeMonitorUnavailable
		} else {
			out.Kind = OutcomeApplyFailed
		}
		out.Detail = err.Error()
		return out
	}
	out.Target = target

	if err := m.backend.MoveResize(id, target); err != nil {
		m.logger.Warn("failed to apply geometry",
			"identity", rec.Identity.String(),
			"error", err)
		out.Kind = OutcomeApplyFailed
		out.Detail = err.Error()
		return out
	}

	// When the window crossed to a monitor with a different scale, some
	// window managers re-adjust placement after the move settles. A second
	// idempotent apply pins the final geometry.
	if crossedScales(id, windows, target, topology) {
		if err := m.backend.MoveResize(id, target); err != nil {
			out.Kind = OutcomeApplyFailed
			out.Detail = err.Error()
			return out
		}
	}

	m.logger.Info("restored window",
		"identity", rec.Identity.String(),
		"rect", target)
	out.Kind = OutcomeRestored
	return out
}

// crossedScales reports whether applying target moved the window between
// monitors whose DPI scales differ.
func crossedScales(id platform.WindowID, snapshot []platform.Window, target platform.Rect, topology []platform.Monitor) bool {
	var fromID string
	for _, w := range snapshot {
		if w.ID == id {
			fromID = w.MonitorID
			break
		}
	}
	toID := platform.OwnerMonitor(target, topology)
	if fromID == "" || toID == "" || fromID == toID {
		return false
	}
	return monitorScale(topology, fromID) != monitorScale(topology, toID)
}

func monitorScale(topology []platform.Monitor, id string) float64 {
	for _, m := range topology {
		if m.ID == id {
			return m.DPIScale
		}
	}
	return 1.0
}
