package platform

// WindowID is a platform-neutral window identifier. IDs are volatile: they
// are only valid against the enumeration snapshot they came from.
type WindowID uint32

// Rect describes a rectangular region in virtual-desktop coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Contains reports whether the point (x, y) lies inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// OverlapArea returns the area of the intersection of two rectangles, or 0
// when they don't intersect.
func (r Rect) OverlapArea(other Rect) int {
	x1 := max(r.X, other.X)
	y1 := max(r.Y, other.Y)
	x2 := min(r.X+r.Width, other.X+other.Width)
	y2 := min(r.Y+r.Height, other.Y+other.Height)
	if x2 <= x1 || y2 <= y1 {
		return 0
	}
	return (x2 - x1) * (y2 - y1)
}

// Monitor describes a connected display and its DPI scale. ID is the output
// name (e.g. "DP-1"), stable across sessions on the same hardware.
type Monitor struct {
	ID       string  `json:"id"`
	Bounds   Rect    `json:"bounds"`
	DPIScale float64 `json:"dpi_scale"`
}

// Window contains metadata and geometry for a visible top-level window, as
// captured by a single enumeration pass.
type Window struct {
	ID        WindowID `json:"id"`
	Process   string   `json:"process"`
	Class     string   `json:"class"`
	Title     string   `json:"title"`
	Bounds    Rect     `json:"bounds"`
	MonitorID string   `json:"monitor_id"`
}

// OwnerMonitor returns the ID of the monitor owning a window rectangle:
// the one containing its center, else the one with the greatest overlap,
// else the first monitor. Returns "" only for an empty topology.
func OwnerMonitor(rect Rect, monitors []Monitor) string {
	cx := rect.X + rect.Width/2
	cy := rect.Y + rect.Height/2
	for _, m := range monitors {
		if m.Bounds.Contains(cx, cy) {
			return m.ID
		}
	}

	bestArea := 0
	bestID := ""
	for _, m := range monitors {
		if area := m.Bounds.OverlapArea(rect); area > bestArea {
			bestArea = area
			bestID = m.ID
		}
	}
	if bestID != "" {
		return bestID
	}

	if len(monitors) > 0 {
		return monitors[0].ID
	}
	return ""
}

// Backend abstracts the window-system operations the core needs: monitor
// topology, window enumeration, and geometry application. Each call is a
// fresh read of OS state; implementations hold no snapshot of their own.
type Backend interface {
	// Topology returns connected monitors in OS enumeration order.
	Topology() ([]Monitor, error)
	// ListWindows returns visible, non-minimized, titled top-level windows.
	ListWindows() ([]Window, error)
	// MoveResize applies bounds to a window. Fails if the window is gone.
	MoveResize(id WindowID, bounds Rect) error
}
