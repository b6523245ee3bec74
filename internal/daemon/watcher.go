package daemon

import (
	"context"

	"github.com/greenhouse-wm/greenhouse/internal/position"
)

// pollPass performs one watcher pass: detect monitor topology growth and
// newly launched windows, and re-apply saved positions for either. The first
// pass only records a baseline so a daemon start never moves windows on its
// own.
func (d *Daemon) pollPass(ctx context.Context) {
	// A poll failure must not take the daemon down.
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("watcher panic recovered", "error", r)
		}
	}()

	topology, err := d.manager.Topology()
	if err != nil {
		d.logger.Warn("watcher: topology read failed", "error", err)
		return
	}

	grew := d.primed && len(topology) > d.lastMonitorCount
	d.lastMonitorCount = len(topology)

	if grew && d.cfg.GetAutoRestore() {
		d.logger.Info("monitor attached, restoring saved positions",
			"monitors", len(topology))
		outcomes, err := d.manager.RestoreAll(ctx)
		if err != nil {
			d.logger.Warn("watcher: auto-restore failed", "error", err)
		} else {
			d.logger.Info("auto-restore finished", "outcomes", len(outcomes))
		}
	}

	if d.cfg.GetLaunchDetection() {
		d.detectLaunches()
	}

	d.primed = true
}

// detectLaunches re-applies saved positions for identities that were pending
// on the previous pass and have a matching window now.
func (d *Daemon) detectLaunches() {
	windows, err := d.manager.ListWindows()
	if err != nil {
		d.logger.Warn("watcher: window enumeration failed", "error", err)
		return
	}

	pending := d.manager.Pending(windows)
	nowPending := make(map[string]struct{}, len(pending))
	for _, id := range pending {
		nowPending[id.Key()] = struct{}{}
	}

	if d.primed {
		for key, id := range d.pendingKeys {
			if _, stillPending := nowPending[key]; stillPending {
				continue
			}
			d.logger.Info("detected launched window, restoring", "identity", id.String())
			outcome, err := d.manager.RestoreOne(id)
			if err != nil {
				d.logger.Warn("watcher: launch restore failed",
					"identity", id.String(), "error", err)
				continue
			}
			d.logger.Debug("launch restore outcome",
				"identity", id.String(), "kind", string(outcome.Kind))
		}
	}

	d.pendingKeys = make(map[string]position.Identity, len(pending))
	for _, id := range pending {
		d.pendingKeys[id.Key()] = id
	}
}
