package equipment

import (
	"context"
	"errors"
	"fmt"

	points "github.com/phunnicutt1/synapse-app-sub001/internal/points/domain"
)

// Equipment is a field equipment instance and its ordered point list.
type Equipment struct {
	ID            string         `json:"id"`
	EquipmentType string         `json:"equipment_type"`
	VendorName    string         `json:"vendor_name,omitempty"`
	ModelName     string         `json:"model_name,omitempty"`
	Points        []points.Point `json:"points"`
}

// Validate checks equipment invariants.
func (e Equipment) Validate() error {
	if e.ID == "" {
		return errors.New("equipment: empty id")
	}
	if e.EquipmentType == "" {
		return errors.New("equipment: empty equipment type")
	}
	for _, p := range e.Points {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("equipment %s point %s: %w", e.ID, p.ID, err)
		}
	}
	return nil
}

// PointKeys returns the key set of the equipment's points.
func (e Equipment) PointKeys() points.KeySet {
	return points.KeysOf(e.Points)
}

// Point finds a point by id.
func (e Equipment) Point(id string) (points.Point, bool) {
	for _, p := range e.Points {
		if p.ID == id {
			return p, true
		}
	}
	return points.Point{}, false
}

// NormalizationCorrection is a reviewer correction of one point.
type NormalizationCorrection struct {
	EquipmentID    string
	PointID        string
	NormalizedName string
	Confidence     *int
}

// Repository provides equipment records. Records are produced by ingestion;
// only normalization fields are writable here.
type Repository interface {
	Get(ctx context.Context, id string) (*Equipment, error)
	ListByType(ctx context.Context, equipmentType string) ([]Equipment, error)
	UpdateNormalization(ctx context.Context, correction NormalizationCorrection) error
}
