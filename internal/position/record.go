// Package position implements the core of greenhouse: stable window
// identities, DPI-aware geometry records, the matching cascade that finds a
// saved window among live ones, and the reconciliation math that maps a saved
// rectangle onto the current monitor topology.
package position

import (
	"time"

	"github.com/greenhouse-wm/greenhouse/internal/platform"
)

// Identity is the stable fingerprint used to recognize the same logical
// window across process restarts. Process and Class are the primary match
// keys; TitleHint disambiguates between windows of the same application but
// is expected to drift (documents, browser tabs).
type Identity struct {
	Process   string `json:"process"`
	Class     string `json:"class"`
	TitleHint string `json:"title_hint"`
}

// IdentityOf derives an Identity from an enumerated window. No OS handle is
// needed: the fingerprint is built purely from enumeration metadata.
func IdentityOf(w platform.Window) Identity {
	return Identity{
		Process:   w.Process,
		Class:     w.Class,
		TitleHint: w.Title,
	}
}

// Key returns the unique store key for this identity.
func (id Identity) Key() string {
	return id.Process + "\x00" + id.Class + "\x00" + id.TitleHint
}

// String renders the identity for logs and CLI output.
func (id Identity) String() string {
	s := id.Process
	if id.Class != "" {
		s += "/" + id.Class
	}
	if id.TitleHint != "" {
		s += " (" + id.TitleHint + ")"
	}
	return s
}

// Geometry is a window rectangle together with the monitor/DPI context it
// was captured under. The raw rectangle is meaningless without that context:
// pixel coordinates do not survive DPI changes.
type Geometry struct {
	Rect      platform.Rect `json:"rect"`
	MonitorID string        `json:"monitor_id"`
	DPIScale  float64       `json:"dpi_scale"`
}

// Record pairs an identity with its saved geometry. Records live in the
// Store until explicitly removed.
type Record struct {
	Identity Identity  `json:"identity"`
	Geometry Geometry  `json:"geometry"`
	SavedAt  time.Time `json:"saved_at"`
}

// GeometryOf captures a window's current geometry against the given
// topology: owning monitor plus that monitor's DPI scale.
func GeometryOf(w platform.Window, topology []platform.Monitor) Geometry {
	scale := 1.0
	for _, m := range topology {
		if m.ID == w.MonitorID {
			scale = m.DPIScale
			break
		}
	}
	return Geometry{
		Rect:      w.Bounds,
		MonitorID: w.MonitorID,
		DPIScale:  scale,
	}
}
