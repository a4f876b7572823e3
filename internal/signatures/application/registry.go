package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	equipment "github.com/phunnicutt1/synapse-app-sub001/internal/equipment/domain"
	"github.com/phunnicutt1/synapse-app-sub001/internal/observability/metrics"
	points "github.com/phunnicutt1/synapse-app-sub001/internal/points/domain"
	signatures "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/domain"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Draft is the input for creating a signature. A new signature lists no
// equipment; listings are added through the mapping manager only.
type Draft struct {
	Name          string                      `json:"name"`
	EquipmentType string                      `json:"equipment_type"`
	Points        []signatures.SignaturePoint `json:"points"`
	Source        signatures.Source           `json:"source"`
	Confidence    *int                        `json:"confidence,omitempty"`
}

// Patch is a partial update; nil fields are left unchanged.
type Patch struct {
	Name          *string                      `json:"name,omitempty"`
	EquipmentType *string                      `json:"equipment_type,omitempty"`
	Points        *[]signatures.SignaturePoint `json:"points,omitempty"`
	Source        *signatures.Source           `json:"source,omitempty"`
	Confidence    *int                         `json:"confidence,omitempty"`
}

// Registry provides validated CRUD over signatures.
type Registry struct {
	repo  signatures.Repository
	clock Clock
	newID func() string
}

// RegistryOption customizes the registry.
type RegistryOption func(*Registry)

// WithClock assigns a clock.
func WithClock(clock Clock) RegistryOption {
	return func(r *Registry) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithIDGenerator overrides id generation.
func WithIDGenerator(fn func() string) RegistryOption {
	return func(r *Registry) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// NewRegistry constructs a signature registry.
func NewRegistry(repo signatures.Repository, opts ...RegistryOption) (*Registry, error) {
	if repo == nil {
		return nil, errors.New("signature registry: nil repository")
	}
	r := &Registry{repo: repo, clock: systemClock{}, newID: uuid.NewString}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Create validates a draft and stores a new signature.
func (r *Registry) Create(ctx context.Context, draft Draft) (sig *signatures.Signature, err error) {
	defer func() { metrics.IncSignatureOp("create", err) }()

	source := draft.Source
	if source == "" {
		source = signatures.SourceUserCreated
	}
	if _, err := signatures.ParseSource(string(source)); err != nil {
		return nil, err
	}
	confidence := 0
	switch {
	case draft.Confidence != nil:
		confidence = points.ClampConfidence(*draft.Confidence)
	case source == signatures.SourceUserCreated:
		confidence = 100
	}

	now := r.clock.Now()
	candidate := &signatures.Signature{
		ID:                   r.newID(),
		Name:                 strings.TrimSpace(draft.Name),
		EquipmentType:        draft.EquipmentType,
		Points:               signatures.DedupePoints(draft.Points),
		Source:               source,
		Confidence:           confidence,
		MatchingEquipmentIDs: []string{},
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := candidate.Validate(); err != nil {
		return nil, err
	}
	if err := r.repo.Save(ctx, candidate); err != nil {
		return nil, err
	}
	return candidate, nil
}

// Get loads a signature or returns ErrNotFound.
func (r *Registry) Get(ctx context.Context, id string) (*signatures.Signature, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: signature id required", signatures.ErrValidation)
	}
	sig, err := r.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sig == nil {
		return nil, fmt.Errorf("%w: %s", signatures.ErrNotFound, id)
	}
	return sig, nil
}

// List returns every signature ordered by name.
func (r *Registry) List(ctx context.Context) ([]signatures.Signature, error) {
	return r.repo.List(ctx)
}

// ListByEquipmentType returns signatures whose type equals equipmentType
// exactly (case-sensitive).
func (r *Registry) ListByEquipmentType(ctx context.Context, equipmentType string) ([]signatures.Signature, error) {
	return r.repo.ListByEquipmentType(ctx, equipmentType)
}

// Update merges a patch. Only fields present in the patch are validated.
func (r *Registry) Update(ctx context.Context, id string, patch Patch) (sig *signatures.Signature, err error) {
	defer func() { metrics.IncSignatureOp("update", err) }()

	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if err := signatures.ValidateName(name); err != nil {
			return nil, err
		}
		current.Name = name
	}
	if patch.EquipmentType != nil {
		current.EquipmentType = *patch.EquipmentType
	}
	if patch.Points != nil {
		list := signatures.DedupePoints(*patch.Points)
		if err := signatures.ValidatePoints(list); err != nil {
			return nil, err
		}
		current.Points = list
	}
	if patch.Source != nil {
		source, err := signatures.ParseSource(string(*patch.Source))
		if err != nil {
			return nil, err
		}
		current.Source = source
	}
	if patch.Confidence != nil {
		current.Confidence = points.ClampConfidence(*patch.Confidence)
	}
	current.UpdatedAt = r.clock.Now()
	if err := r.repo.Save(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

// Rename changes the signature name.
func (r *Registry) Rename(ctx context.Context, id, name string) (*signatures.Signature, error) {
	return r.Update(ctx, id, Patch{Name: &name})
}

// SetConfidence changes the confidence score, clamped to [0,100].
func (r *Registry) SetConfidence(ctx context.Context, id string, confidence int) (*signatures.Signature, error) {
	return r.Update(ctx, id, Patch{Confidence: &confidence})
}

// AddPoints appends template points not already present.
func (r *Registry) AddPoints(ctx context.Context, id string, add []signatures.SignaturePoint) (*signatures.Signature, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	merged := append(append([]signatures.SignaturePoint(nil), current.Points...), add...)
	return r.Update(ctx, id, Patch{Points: &merged})
}

// RemovePoints drops template points by key. Removing every point fails
// validation.
func (r *Registry) RemovePoints(ctx context.Context, id string, keys []points.PointKey) (*signatures.Signature, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	drop := make(points.KeySet, len(keys))
	for _, k := range keys {
		drop[k] = struct{}{}
	}
	kept := make([]signatures.SignaturePoint, 0, len(current.Points))
	for _, p := range current.Points {
		if drop.Has(p.Key()) {
			continue
		}
		kept = append(kept, p)
	}
	return r.Update(ctx, id, Patch{Points: &kept})
}

// RetypePoint changes the kind and unit of the point identified by key.
func (r *Registry) RetypePoint(ctx context.Context, id string, key points.PointKey, kind points.Kind, unit string) (*signatures.Signature, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	list := append([]signatures.SignaturePoint(nil), current.Points...)
	found := false
	for i := range list {
		if list[i].Key() == key {
			list[i].Kind = kind
			list[i].Unit = unit
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: point %s on signature %s", signatures.ErrNotFound, key, id)
	}
	return r.Update(ctx, id, Patch{Points: &list})
}

// Delete removes a signature. Deleting an unknown id, including a second
// delete, returns ErrNotFound.
func (r *Registry) Delete(ctx context.Context, id string) (err error) {
	defer func() { metrics.IncSignatureOp("delete", err) }()
	if id == "" {
		return fmt.Errorf("%w: signature id required", signatures.ErrValidation)
	}
	return r.repo.Delete(ctx, id)
}

// PromoteEquipment creates a user-created signature from a reviewed
// equipment's point universe. When keys is non-empty only those points are
// templated.
func (r *Registry) PromoteEquipment(ctx context.Context, item equipment.Equipment, name string, keys []points.PointKey) (*signatures.Signature, error) {
	universe := points.UniquePoints(item.Points)
	if len(keys) > 0 {
		selected := make(points.KeySet, len(keys))
		for _, k := range keys {
			selected[k] = struct{}{}
		}
		universe = points.SelectByKeys(universe, selected)
	}
	list := make([]signatures.SignaturePoint, 0, len(universe))
	for _, p := range universe {
		list = append(list, signatures.FromPoint(p))
	}
	confidence := 100
	return r.Create(ctx, Draft{
		Name:          name,
		EquipmentType: item.EquipmentType,
		Points:        list,
		Source:        signatures.SourceUserCreated,
		Confidence:    &confidence,
	})
}
