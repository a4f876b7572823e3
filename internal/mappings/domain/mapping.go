package mappings

import (
	"context"
	"fmt"
	"time"

	signatures "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/domain"
)

// ExternalRecord is a CxAlloy equipment record, opaque beyond identity.
type ExternalRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type,omitempty"`
	ProjectID string `json:"project_id,omitempty"`
}

// Mapping binds one external record to one equipment instance. The relation
// is a bijection: a record and an equipment each appear in at most one mapping.
type Mapping struct {
	ExternalRecordID string    `json:"external_record_id"`
	EquipmentID      string    `json:"equipment_id"`
	SignatureID      string    `json:"signature_id,omitempty"`
	MappedAt         time.Time `json:"mapped_at"`
	MappedBy         string    `json:"mapped_by"`
}

// Validate checks mapping invariants.
func (m Mapping) Validate() error {
	if m.ExternalRecordID == "" {
		return fmt.Errorf("%w: empty external record id", ErrValidation)
	}
	if m.EquipmentID == "" {
		return fmt.Errorf("%w: empty equipment id", ErrValidation)
	}
	return nil
}

// Repository persists record mappings. Save replaces the mapping of the same
// record and returns ErrConflict if the equipment is mapped to another record.
type Repository interface {
	GetByEquipment(ctx context.Context, equipmentID string) (*Mapping, error)
	GetByRecord(ctx context.Context, recordID string) (*Mapping, error)
	Save(ctx context.Context, mapping *Mapping) error
	DeleteByEquipment(ctx context.Context, equipmentID string) (bool, error)
	DeleteByRecord(ctx context.Context, recordID string) (bool, error)
}

// Stores are the repositories visible inside a unit of work.
type Stores struct {
	Signatures signatures.Repository
	Mappings   Repository
}

// UnitOfWork runs fn atomically: either every write in fn is applied or none.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
}

// AssignmentStatus is the signature-mapping state of an equipment.
type AssignmentStatus string

const (
	StatusUnassigned AssignmentStatus = "unassigned"
	StatusAssigned   AssignmentStatus = "assigned"
)

// SignatureState is the equipment↔signature relation for one equipment.
type SignatureState struct {
	EquipmentID string           `json:"equipment_id"`
	Status      AssignmentStatus `json:"status"`
	SignatureID string           `json:"signature_id,omitempty"`
	// ListedBy holds every signature listing the equipment when the store
	// violates exclusivity; empty in a consistent store.
	ListedBy []string `json:"listed_by,omitempty"`
}

// MappingView is a mapping as read by callers. A mapped signature that no
// longer exists is reported, never hidden.
type MappingView struct {
	Mapping
	DanglingSignature bool `json:"dangling_signature"`
}
