package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/greenhouse-wm/greenhouse/internal/position"
	"github.com/greenhouse-wm/greenhouse/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}

	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// NewClientAt creates a client for an explicit socket path.
func NewClientAt(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetStatus})
	if err != nil {
		return nil, err
	}

	var status StatusData
	if err := resp.DecodeData(&status); err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}
	return &status, nil
}

// ListWindows retrieves the daemon's view of manageable windows.
func (c *Client) ListWindows() (*WindowsData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandListWindows})
	if err != nil {
		return nil, err
	}

	var data WindowsData
	if err := resp.DecodeData(&data); err != nil {
		return nil, fmt.Errorf("failed to parse windows data: %w", err)
	}
	return &data, nil
}

// GetTopology retrieves the current monitor topology.
func (c *Client) GetTopology() (*TopologyData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetTopology})
	if err != nil {
		return nil, err
	}

	var data TopologyData
	if err := resp.DecodeData(&data); err != nil {
		return nil, fmt.Errorf("failed to parse topology data: %w", err)
	}
	return &data, nil
}

// Save records the positions of the given windows. An empty list with all set
// saves every visible window.
func (c *Client) Save(windowIDs []uint32, all bool) (*RecordsData, error) {
	payload, err := json.Marshal(SavePayload{WindowIDs: windowIDs, All: all})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal save payload: %w", err)
	}

	resp, err := c.sendRequest(&Request{Command: CommandSave, Payload: payload})
	if err != nil {
		return nil, err
	}

	var data RecordsData
	if err := resp.DecodeData(&data); err != nil {
		return nil, fmt.Errorf("failed to parse save data: %w", err)
	}
	return &data, nil
}

// GetRecords retrieves every saved position in save order.
func (c *Client) GetRecords() (*RecordsData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetRecords})
	if err != nil {
		return nil, err
	}

	var data RecordsData
	if err := resp.DecodeData(&data); err != nil {
		return nil, fmt.Errorf("failed to parse records data: %w", err)
	}
	return &data, nil
}

// RestoreAll restores every saved position and reports per-record outcomes.
func (c *Client) RestoreAll() (*OutcomesData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandRestoreAll})
	if err != nil {
		return nil, err
	}

	var data OutcomesData
	if err := resp.DecodeData(&data); err != nil {
		return nil, fmt.Errorf("failed to parse restore data: %w", err)
	}
	return &data, nil
}

// RestoreOne restores a single saved position by identity.
func (c *Client) RestoreOne(id position.Identity) (*OutcomesData, error) {
	payload, err := json.Marshal(IdentityPayload{Identity: id})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal restore payload: %w", err)
	}

	resp, err := c.sendRequest(&Request{Command: CommandRestoreOne, Payload: payload})
	if err != nil {
		return nil, err
	}

	var data OutcomesData
	if err := resp.DecodeData(&data); err != nil {
		return nil, fmt.Errorf("failed to parse restore data: %w", err)
	}
	return &data, nil
}

// Remove deletes a saved position by identity.
func (c *Client) Remove(id position.Identity) (bool, error) {
	payload, err := json.Marshal(IdentityPayload{Identity: id})
	if err != nil {
		return false, fmt.Errorf("failed to marshal remove payload: %w", err)
	}

	resp, err := c.sendRequest(&Request{Command: CommandRemove, Payload: payload})
	if err != nil {
		return false, err
	}

	var data RemoveData
	if err := resp.DecodeData(&data); err != nil {
		return false, fmt.Errorf("failed to parse remove data: %w", err)
	}
	return data.Removed, nil
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
