package notifications

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FilePersistence implements Persistence over a single JSON file.
type FilePersistence struct {
	path string
}

// NewFilePersistence creates a file-backed persistence layer, creating the
// parent directory if needed.
func NewFilePersistence(path string) (*FilePersistence, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &FilePersistence{path: path}, nil
}

// Load reads the snapshot. A missing file is an empty snapshot.
func (fp *FilePersistence) Load() (Snapshot, error) {
	data, err := os.ReadFile(fp.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, nil
		}
		return Snapshot{}, fmt.Errorf("failed to read state file: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return snap, nil
}

// Save rewrites the full snapshot.
func (fp *FilePersistence) Save(snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := os.WriteFile(fp.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}
