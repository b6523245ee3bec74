// Package ipc implements the JSON-over-unix-socket control channel between
// the greenhouse CLI and the daemon.
package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/greenhouse-wm/greenhouse/internal/platform"
	"github.com/greenhouse-wm/greenhouse/internal/position"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandGetStatus   CommandType = "GET_STATUS"
	CommandListWindows CommandType = "LIST_WINDOWS"
	CommandGetTopology CommandType = "GET_TOPOLOGY"
	CommandSave        CommandType = "SAVE"
	CommandGetRecords  CommandType = "GET_RECORDS"
	CommandRestoreAll  CommandType = "RESTORE_ALL"
	CommandRestoreOne  CommandType = "RESTORE_ONE"
	CommandRemove      CommandType = "REMOVE"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	DaemonRunning bool  `json:"daemon_running"`
	RecordCount   int   `json:"record_count"`
	PendingCount  int   `json:"pending_count"`
	MonitorCount  int   `json:"monitor_count"`
	UptimeSeconds int64 `json:"uptime_seconds"`
}

// WindowsData represents the data returned by LIST_WINDOWS
type WindowsData struct {
	Windows []platform.Window `json:"windows"`
}

// TopologyData represents the data returned by GET_TOPOLOGY
type TopologyData struct {
	Monitors []platform.Monitor `json:"monitors"`
}

// SavePayload represents the payload for SAVE. An empty WindowIDs list with
// All set saves every visible window.
type SavePayload struct {
	WindowIDs []uint32 `json:"window_ids,omitempty"`
	All       bool     `json:"all,omitempty"`
}

// RecordsData represents the data returned by SAVE and GET_RECORDS
type RecordsData struct {
	Records []position.Record `json:"records"`
}

// OutcomesData represents the data returned by RESTORE_ALL and RESTORE_ONE
type OutcomesData struct {
	Outcomes []position.Outcome `json:"outcomes"`
}

// IdentityPayload represents the payload for RESTORE_ONE and REMOVE
type IdentityPayload struct {
	Identity position.Identity `json:"identity"`
}

// RemoveData represents the data returned by REMOVE
type RemoveData struct {
	Removed bool `json:"removed"`
}

// ParseRequest parses a raw request line.
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	if req.Command == "" {
		return nil, fmt.Errorf("request has no command")
	}
	return &req, nil
}

// Marshal encodes the response for the wire.
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// DecodeData unmarshals the response data into out.
func (r *Response) DecodeData(out interface{}) error {
	if len(r.Data) == 0 {
		return fmt.Errorf("response has no data")
	}
	return json.Unmarshal(r.Data, out)
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = b
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}
