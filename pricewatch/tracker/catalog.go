package tracker

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadItemsFile reads a catalog export, a JSON array of item records. The
// engine does not own the catalog; callers hand it whatever inventory they
// want revalued.
func LoadItemsFile(path string) ([]ItemRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer file.Close()

	var items []ItemRecord
	if err := json.NewDecoder(file).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode catalog file %s: %w", path, err)
	}
	return items, nil
}
