package signatures

import (
	"fmt"
	"strings"
	"time"

	points "github.com/phunnicutt1/synapse-app-sub001/internal/points/domain"
)

// Source records how a signature came to exist.
type Source string

const (
	SourceAutoGenerated Source = "auto-generated"
	SourceUserValidated Source = "user-validated"
	SourceUserCreated   Source = "user-created"
)

// ParseSource validates a source string.
func ParseSource(value string) (Source, error) {
	switch Source(value) {
	case SourceAutoGenerated, SourceUserValidated, SourceUserCreated:
		return Source(value), nil
	default:
		return "", fmt.Errorf("%w: unknown source %q", ErrValidation, value)
	}
}

// SignaturePoint is one templated point.
type SignaturePoint struct {
	Name string      `json:"name" yaml:"name"`
	Kind points.Kind `json:"kind" yaml:"kind"`
	Unit string      `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// Key returns the point identity key.
func (p SignaturePoint) Key() points.PointKey {
	return points.EncodeKey(p.Name, p.Kind, p.Unit)
}

// FromPoint builds a template point from a field point.
func FromPoint(p points.Point) SignaturePoint {
	return SignaturePoint{Name: p.DisplayName, Kind: p.Kind, Unit: p.Unit}
}

// Signature is a named template of expected points for an equipment class.
type Signature struct {
	ID                   string           `json:"id"`
	Name                 string           `json:"name"`
	EquipmentType        string           `json:"equipment_type"`
	Points               []SignaturePoint `json:"points"`
	Source               Source           `json:"source"`
	Confidence           int              `json:"confidence"`
	MatchingEquipmentIDs []string         `json:"matching_equipment_ids"`
	Version              int              `json:"version"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// Keys returns the key set of the templated points.
func (s Signature) Keys() points.KeySet {
	set := make(points.KeySet, len(s.Points))
	for _, p := range s.Points {
		set[p.Key()] = struct{}{}
	}
	return set
}

// Lists reports whether the equipment id is in MatchingEquipmentIDs.
func (s Signature) Lists(equipmentID string) bool {
	for _, id := range s.MatchingEquipmentIDs {
		if id == equipmentID {
			return true
		}
	}
	return false
}

// AddEquipment adds an equipment id once; returns false if already listed.
func (s *Signature) AddEquipment(equipmentID string) bool {
	if s.Lists(equipmentID) {
		return false
	}
	s.MatchingEquipmentIDs = append(s.MatchingEquipmentIDs, equipmentID)
	return true
}

// RemoveEquipment removes every occurrence of an equipment id.
func (s *Signature) RemoveEquipment(equipmentID string) bool {
	kept := s.MatchingEquipmentIDs[:0]
	removed := false
	for _, id := range s.MatchingEquipmentIDs {
		if id == equipmentID {
			removed = true
			continue
		}
		kept = append(kept, id)
	}
	s.MatchingEquipmentIDs = kept
	return removed
}

// Clone returns a deep copy.
func (s Signature) Clone() Signature {
	out := s
	out.Points = append([]SignaturePoint(nil), s.Points...)
	out.MatchingEquipmentIDs = append([]string(nil), s.MatchingEquipmentIDs...)
	return out
}

// ValidateName checks the name invariant.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is blank", ErrValidation)
	}
	return nil
}

// ValidatePoints checks the point-list invariants.
func ValidatePoints(list []SignaturePoint) error {
	if len(list) == 0 {
		return fmt.Errorf("%w: point signature is empty", ErrValidation)
	}
	for i, p := range list {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: point %d has a blank name", ErrValidation, i)
		}
		if _, err := points.ParseKind(string(p.Kind)); err != nil {
			return fmt.Errorf("%w: point %q has kind %q", ErrValidation, p.Name, p.Kind)
		}
		if err := points.ValidateUnit(p.Unit); err != nil {
			return fmt.Errorf("%w: point %q unit %q: %v", ErrValidation, p.Name, p.Unit, err)
		}
	}
	return nil
}

// Validate checks all signature invariants.
func (s Signature) Validate() error {
	if err := ValidateName(s.Name); err != nil {
		return err
	}
	if err := ValidatePoints(s.Points); err != nil {
		return err
	}
	if s.Confidence < 0 || s.Confidence > 100 {
		return fmt.Errorf("%w: confidence %d out of range", ErrValidation, s.Confidence)
	}
	return nil
}

// DedupePoints drops repeated keys, keeping the first occurrence.
func DedupePoints(list []SignaturePoint) []SignaturePoint {
	seen := make(points.KeySet, len(list))
	result := make([]SignaturePoint, 0, len(list))
	for _, p := range list {
		key := p.Key()
		if seen.Has(key) {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, p)
	}
	return result
}
