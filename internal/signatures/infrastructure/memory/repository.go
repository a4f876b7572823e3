package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	signatures "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/domain"
)

// Repository is an in-memory signature repository.
type Repository struct {
	// writeMu serializes writers, including whole transactions.
	writeMu sync.Mutex
	mu      sync.RWMutex
	data    map[string]signatures.Signature
}

// NewRepository constructs a repository.
func NewRepository() *Repository {
	return &Repository{data: make(map[string]signatures.Signature)}
}

// Get loads a signature by id; nil when absent.
func (r *Repository) Get(ctx context.Context, id string) (*signatures.Signature, error) {
	_ = ctx
	r.mu.RLock()
	sig, ok := r.data[id]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	c := sig.Clone()
	return &c, nil
}

// List returns all signatures ordered by name then id.
func (r *Repository) List(ctx context.Context) ([]signatures.Signature, error) {
	return r.filter(ctx, func(signatures.Signature) bool { return true })
}

// ListByEquipmentType returns signatures whose type equals equipmentType.
func (r *Repository) ListByEquipmentType(ctx context.Context, equipmentType string) ([]signatures.Signature, error) {
	return r.filter(ctx, func(sig signatures.Signature) bool { return sig.EquipmentType == equipmentType })
}

// ListByEquipment returns signatures listing the equipment id.
func (r *Repository) ListByEquipment(ctx context.Context, equipmentID string) ([]signatures.Signature, error) {
	return r.filter(ctx, func(sig signatures.Signature) bool { return sig.Lists(equipmentID) })
}

// Save inserts (Version 0) or compare-and-swaps on Version.
func (r *Repository) Save(ctx context.Context, sig *signatures.Signature) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return r.save(ctx, sig)
}

// Delete removes a signature; unknown ids return ErrNotFound.
func (r *Repository) Delete(ctx context.Context, id string) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return r.delete(ctx, id)
}

// Within runs fn against a transactional view. Other writers wait until fn
// returns; when fn fails every write it made is rolled back.
func (r *Repository) Within(fn func(repo signatures.Repository) error) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	snapshot := r.snapshot()
	if err := fn(txView{r}); err != nil {
		r.mu.Lock()
		r.data = snapshot
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *Repository) save(ctx context.Context, sig *signatures.Signature) error {
	_ = ctx
	if sig == nil {
		return fmt.Errorf("%w: nil signature", signatures.ErrValidation)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, exists := r.data[sig.ID]
	switch {
	case sig.Version == 0 && exists:
		return fmt.Errorf("%w: %s already exists", signatures.ErrVersionConflict, sig.ID)
	case sig.Version != 0 && !exists:
		return fmt.Errorf("%w: %s", signatures.ErrNotFound, sig.ID)
	case exists && stored.Version != sig.Version:
		return fmt.Errorf("%w: %s at version %d, have %d", signatures.ErrVersionConflict, sig.ID, stored.Version, sig.Version)
	}
	sig.Version++
	r.data[sig.ID] = sig.Clone()
	return nil
}

func (r *Repository) delete(ctx context.Context, id string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return fmt.Errorf("%w: %s", signatures.ErrNotFound, id)
	}
	delete(r.data, id)
	return nil
}

func (r *Repository) snapshot() map[string]signatures.Signature {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]signatures.Signature, len(r.data))
	for id, sig := range r.data {
		out[id] = sig.Clone()
	}
	return out
}

func (r *Repository) filter(ctx context.Context, keep func(signatures.Signature) bool) ([]signatures.Signature, error) {
	_ = ctx
	r.mu.RLock()
	result := make([]signatures.Signature, 0, len(r.data))
	for _, sig := range r.data {
		if keep(sig) {
			result = append(result, sig.Clone())
		}
	}
	r.mu.RUnlock()
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// txView writes without taking writeMu, which the transaction already holds.
type txView struct {
	r *Repository
}

func (t txView) Get(ctx context.Context, id string) (*signatures.Signature, error) {
	return t.r.Get(ctx, id)
}

func (t txView) List(ctx context.Context) ([]signatures.Signature, error) {
	return t.r.List(ctx)
}

func (t txView) ListByEquipmentType(ctx context.Context, equipmentType string) ([]signatures.Signature, error) {
	return t.r.ListByEquipmentType(ctx, equipmentType)
}

func (t txView) ListByEquipment(ctx context.Context, equipmentID string) ([]signatures.Signature, error) {
	return t.r.ListByEquipment(ctx, equipmentID)
}

func (t txView) Save(ctx context.Context, sig *signatures.Signature) error {
	return t.r.save(ctx, sig)
}

func (t txView) Delete(ctx context.Context, id string) error {
	return t.r.delete(ctx, id)
}
