package points

import (
	"errors"
	"strings"
)

// Kind is the BACnet value kind of a point.
type Kind string

const (
	KindNumber Kind = "Number"
	KindBool   Kind = "Bool"
	KindString Kind = "String"
)

var (
	// ErrInvalidKind is returned when a kind string is not recognized.
	ErrInvalidKind = errors.New("points: invalid kind")
	// ErrInvalidUnit is returned when a unit contains the key separator.
	ErrInvalidUnit = errors.New("points: unit contains key separator")
)

// ParseKind validates a kind string.
func ParseKind(value string) (Kind, error) {
	switch Kind(value) {
	case KindNumber, KindBool, KindString:
		return Kind(value), nil
	default:
		return "", ErrInvalidKind
	}
}

// Point is a field point exposed by an equipment instance.
type Point struct {
	ID                      string   `json:"id"`
	DisplayName             string   `json:"dis"`
	FunctionalDescription   string   `json:"functional_description,omitempty"`
	Kind                    Kind     `json:"kind"`
	Unit                    string   `json:"unit,omitempty"`
	Writable                bool     `json:"writable"`
	NormalizedName          string   `json:"normalized_name,omitempty"`
	NormalizationConfidence *int     `json:"normalization_confidence,omitempty"`
	Tags                    []string `json:"tags,omitempty"`
	Reasoning               []string `json:"reasoning,omitempty"`
}

// Key returns the identity key used for matching.
func (p Point) Key() PointKey {
	return EncodeKey(p.DisplayName, p.Kind, p.Unit)
}

// ValidateUnit rejects units that cannot be told apart from the kind in a key.
func ValidateUnit(unit string) error {
	if strings.Contains(unit, keySeparator) {
		return ErrInvalidUnit
	}
	return nil
}

// Validate checks the identity fields that make up the key.
func (p Point) Validate() error {
	if _, err := ParseKind(string(p.Kind)); err != nil {
		return err
	}
	return ValidateUnit(p.Unit)
}

// IsNormalized reports whether a normalized name has been assigned.
func (p Point) IsNormalized() bool {
	return p.NormalizedName != ""
}

// Confidence returns a pointer to a clamped confidence value.
func Confidence(value int) *int {
	v := ClampConfidence(value)
	return &v
}

// ClampConfidence bounds a confidence score to [0,100].
func ClampConfidence(value int) int {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}
