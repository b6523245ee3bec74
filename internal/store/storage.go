// Package store persists saved window positions as a JSON record sequence.
// The file is the boundary contract with the core: a plain, ordered list of
// records, human-inspectable and free of any format versioning.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/greenhouse-wm/greenhouse/internal/position"
)

// DefaultPath returns ~/.config/greenhouse/positions.json.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "greenhouse", "positions.json"), nil
}

// Write persists records to path, creating parent directories as needed.
// Record order is preserved; it is the restore order.
func Write(path string, records []position.Record) error {
	if path == "" {
		return fmt.Errorf("store path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	if records == nil {
		records = []position.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode positions: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write positions to %s: %w", path, err)
	}
	return nil
}

// Read loads records from path. A missing file is not an error: it means
// nothing has been saved yet.
func Read(path string) ([]position.Record, error) {
	if path == "" {
		return nil, fmt.Errorf("store path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read positions from %s: %w", path, err)
	}

	var records []position.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse positions in %s: %w", path, err)
	}
	return records, nil
}
