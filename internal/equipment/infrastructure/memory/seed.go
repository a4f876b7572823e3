package memory

import (
	"encoding/json"
	"fmt"
	"os"

	equipment "github.com/phunnicutt1/synapse-app-sub001/internal/equipment/domain"
)

// LoadFile builds a repository from a JSON array of equipment.
func LoadFile(path string) (*Repository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []equipment.Equipment
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("equipment seed %s: %w", path, err)
	}
	repo := NewRepository()
	for _, item := range items {
		if err := repo.Put(item); err != nil {
			return nil, fmt.Errorf("equipment seed %s: %w", path, err)
		}
	}
	return repo, nil
}
