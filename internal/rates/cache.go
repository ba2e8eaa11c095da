package rates

import (
	"encoding/json"
	"os"
	"path/filepath"

	"PocketCalc/internal/model"
)

// SourceCache labels rates restored from the snapshot file.
const SourceCache = "cache"

// LoadSnapshot reads the last saved rates. Returns nil if the file doesn't exist.
func LoadSnapshot(filePath string) (*model.RateSnapshot, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var snap model.RateSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// SaveSnapshot writes the rates to a JSON file.
func SaveSnapshot(filePath string, snap model.RateSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(filePath, data, 0644)
}

// Restore overlays a saved snapshot on t. It reports whether anything was applied.
func Restore(t *Table, filePath string) (bool, error) {
	snap, err := LoadSnapshot(filePath)
	if err != nil || snap == nil {
		return false, err
	}
	return len(t.Apply(snap.Rates, SourceCache, snap.UpdatedAt)) > 0, nil
}
