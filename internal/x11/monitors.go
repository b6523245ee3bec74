package x11

import (
	"fmt"
	"math"

	"github.com/BurntSushi/xgb/randr"
)

// Monitor represents a physical display in virtual-desktop coordinates.
type Monitor struct {
	Name     string
	X        int
	Y        int
	Width    int
	Height   int
	DPIScale float64
}

const baseDPI = 96.0

// GetMonitors retrieves all active monitors using XRandR, in server
// enumeration order. The order is stable within a session but may change
// across sessions; callers identify monitors by Name, not position.
func (c *Connection) GetMonitors() ([]Monitor, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor

	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		name := fmt.Sprintf("Monitor%d", i)
		scale := 1.0
		if outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply(); err == nil {
			if n := string(outputInfo.Name); n != "" {
				name = n
			}
			scale = scaleFromPhysicalSize(int(crtcInfo.Width), int(outputInfo.MmWidth))
		}

		monitors = append(monitors, Monitor{
			Name:     name,
			X:        int(crtcInfo.X),
			Y:        int(crtcInfo.Y),
			Width:    int(crtcInfo.Width),
			Height:   int(crtcInfo.Height),
			DPIScale: scale,
		})
	}

	return monitors, nil
}

// scaleFromPhysicalSize derives a DPI scale factor from the output's pixel
// width and reported physical width. EDID millimetre data is rounded, so the
// raw ratio is snapped to the usual quarter steps (1.0, 1.25, 1.5, ...).
// Outputs with no physical size (projectors, some virtual outputs) report
// zero and get scale 1.0.
func scaleFromPhysicalSize(widthPx, widthMm int) float64 {
	if widthPx <= 0 || widthMm <= 0 {
		return 1.0
	}
	dpi := float64(widthPx) / (float64(widthMm) / 25.4)
	scale := math.Round(dpi/baseDPI*4) / 4
	if scale < 0.5 {
		scale = 0.5
	}
	if scale > 4.0 {
		scale = 4.0
	}
	return scale
}
