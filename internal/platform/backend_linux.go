//go:build linux

package platform

import (
	"fmt"
	"os"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/greenhouse-wm/greenhouse/internal/x11"
)

// LinuxBackend implements Backend on top of an X11 connection.
type LinuxBackend struct {
	conn *x11.Connection
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend wraps an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{conn: conn}
}

// NewLinuxBackendFromDisplay opens a fresh X11 connection to the given
// display (empty = $DISPLAY).
func NewLinuxBackendFromDisplay(display string) (*LinuxBackend, error) {
	conn, err := x11.NewConnection(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &LinuxBackend{conn: conn}, nil
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// Topology returns all active monitors in RandR enumeration order.
func (b *LinuxBackend) Topology() ([]Monitor, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	mons, err := conn.GetMonitors()
	if err != nil {
		return nil, err
	}

	monitors := make([]Monitor, 0, len(mons))
	for _, m := range mons {
		monitors = append(monitors, Monitor{
			ID: m.Name,
			Bounds: Rect{
				X:      m.X,
				Y:      m.Y,
				Width:  m.Width,
				Height: m.Height,
			},
			DPIScale: m.DPIScale,
		})
	}

	return monitors, nil
}

// ListWindows returns a fresh snapshot of visible top-level windows.
// Minimized, hidden, untitled, and zero-area windows are skipped, as are
// non-normal windows (docks, splash screens) and this process's own windows.
func (b *LinuxBackend) ListWindows() ([]Window, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	clients, err := conn.ClientWindows()
	if err != nil {
		return nil, err
	}

	monitors, err := b.Topology()
	if err != nil {
		return nil, err
	}

	ownPID := os.Getpid()

	windows := make([]Window, 0, len(clients))
	for _, windowID := range clients {
		if !conn.IsNormalWindow(windowID) {
			continue
		}
		if !conn.IsViewable(windowID) {
			continue
		}

		title := conn.WindowTitle(windowID)
		if title == "" {
			continue
		}

		x, y, w, h, err := conn.WindowRect(windowID)
		if err != nil || w <= 0 || h <= 0 {
			continue
		}

		pid := conn.WindowPID(windowID)
		if pid == ownPID {
			continue
		}

		rect := Rect{X: x, Y: y, Width: w, Height: h}
		windows = append(windows, Window{
			ID:        WindowID(windowID),
			Process:   x11.ProcessName(pid),
			Class:     conn.WindowClass(windowID),
			Title:     title,
			Bounds:    rect,
			MonitorID: OwnerMonitor(rect, monitors),
		})
	}

	return windows, nil
}

// MoveResize applies bounds to a window via EWMH.
func (b *LinuxBackend) MoveResize(id WindowID, bounds Rect) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}

	return conn.MoveResizeWindow(
		xproto.Window(id),
		bounds.X,
		bounds.Y,
		bounds.Width,
		bounds.Height,
	)
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}
