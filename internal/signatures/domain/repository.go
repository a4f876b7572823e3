package signatures

import "context"

// Repository persists signatures.
//
// Save performs a compare-and-swap on Version: the stored version must equal
// the version the caller loaded, otherwise ErrVersionConflict. A zero version
// inserts. On success the signature's Version is advanced.
type Repository interface {
	Get(ctx context.Context, id string) (*Signature, error)
	List(ctx context.Context) ([]Signature, error)
	ListByEquipmentType(ctx context.Context, equipmentType string) ([]Signature, error)
	ListByEquipment(ctx context.Context, equipmentID string) ([]Signature, error)
	Save(ctx context.Context, signature *Signature) error
	Delete(ctx context.Context, id string) error
}
