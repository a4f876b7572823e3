package cli

import (
	"bytes"
	"encoding/json"
	"fmt"

	equipment "github.com/phunnicutt1/synapse-app-sub001/internal/equipment/domain"
	points "github.com/phunnicutt1/synapse-app-sub001/internal/points/domain"
)

// decodePoints accepts a bare array or an object with a "points" field.
func decodePoints(data []byte) ([]points.Point, error) {
	data = bytes.TrimSpace(data)
	var list []points.Point
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("parse points: %w", err)
		}
	} else {
		var wrapped struct {
			Points []points.Point `json:"points"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("parse points: %w", err)
		}
		list = wrapped.Points
	}
	for _, p := range list {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("point %s: %w", p.ID, err)
		}
	}
	return list, nil
}

// decodeEquipment accepts a single equipment object or an array of them.
func decodeEquipment(data []byte) ([]equipment.Equipment, error) {
	data = bytes.TrimSpace(data)
	var list []equipment.Equipment
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("parse equipment: %w", err)
		}
	} else {
		var item equipment.Equipment
		if err := json.Unmarshal(data, &item); err != nil {
			return nil, fmt.Errorf("parse equipment: %w", err)
		}
		list = []equipment.Equipment{item}
	}
	for _, item := range list {
		if err := item.Validate(); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func percent(ratio float64) string {
	return fmt.Sprintf("%.0f%%", ratio*100)
}
