package mcp

import "time"

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct{}

// WindowInfo describes a single visible window.
type WindowInfo struct {
	WindowID  uint32 `json:"window_id"`
	Process   string `json:"process"`
	Class     string `json:"class"`
	Title     string `json:"title"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	MonitorID string `json:"monitor_id"`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []WindowInfo `json:"windows"`
}

// GetTopologyInput is the input for the get_topology tool.
type GetTopologyInput struct{}

// MonitorInfo describes a single connected monitor.
type MonitorInfo struct {
	MonitorID string  `json:"monitor_id"`
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	DPIScale  float64 `json:"dpi_scale"`
}

// GetTopologyOutput is the output for the get_topology tool.
type GetTopologyOutput struct {
	Monitors []MonitorInfo `json:"monitors"`
}

// SavePositionsInput is the input for the save_positions tool.
type SavePositionsInput struct {
	WindowIDs []uint32 `json:"window_ids,omitempty" jsonschema:"Window IDs from list_windows to save. Omit to save every visible window."`
}

// RecordInfo describes one saved position.
type RecordInfo struct {
	Process   string    `json:"process"`
	Class     string    `json:"class"`
	TitleHint string    `json:"title_hint"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	MonitorID string    `json:"monitor_id"`
	DPIScale  float64   `json:"dpi_scale"`
	SavedAt   time.Time `json:"saved_at"`
}

// SavePositionsOutput is the output for the save_positions tool.
type SavePositionsOutput struct {
	Saved []RecordInfo `json:"saved"`
}

// ListPositionsInput is the input for the list_positions tool.
type ListPositionsInput struct{}

// ListPositionsOutput is the output for the list_positions tool.
type ListPositionsOutput struct {
	Positions []RecordInfo `json:"positions"`
}

// RestoreAllInput is the input for the restore_all tool.
type RestoreAllInput struct{}

// OutcomeInfo describes the result of one record's restore attempt.
type OutcomeInfo struct {
	Process   string `json:"process"`
	Class     string `json:"class"`
	TitleHint string `json:"title_hint"`
	Outcome   string `json:"outcome"`
	Detail    string `json:"detail,omitempty"`
}

// RestoreAllOutput is the output for the restore_all tool.
type RestoreAllOutput struct {
	Restored int           `json:"restored"`
	Outcomes []OutcomeInfo `json:"outcomes"`
}

// RestorePositionInput is the input for the restore_position tool.
type RestorePositionInput struct {
	Process   string `json:"process" jsonschema:"required,Process name of the saved position"`
	Class     string `json:"class,omitempty" jsonschema:"Window class of the saved position"`
	TitleHint string `json:"title_hint,omitempty" jsonschema:"Title hint of the saved position"`
}

// RestorePositionOutput is the output for the restore_position tool.
type RestorePositionOutput struct {
	Outcome OutcomeInfo `json:"outcome"`
}

// RemovePositionInput is the input for the remove_position tool.
type RemovePositionInput struct {
	Process   string `json:"process" jsonschema:"required,Process name of the saved position"`
	Class     string `json:"class,omitempty" jsonschema:"Window class of the saved position"`
	TitleHint string `json:"title_hint,omitempty" jsonschema:"Title hint of the saved position"`
}

// RemovePositionOutput is the output for the remove_position tool.
type RemovePositionOutput struct {
	Removed bool `json:"removed"`
}
