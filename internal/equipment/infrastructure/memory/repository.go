package memory

import (
	"context"
	"sort"
	"sync"

	equipment "github.com/phunnicutt1/synapse-app-sub001/internal/equipment/domain"
	points "github.com/phunnicutt1/synapse-app-sub001/internal/points/domain"
)

// Repository is an in-memory equipment repository for tests and the CLI.
type Repository struct {
	mu   sync.RWMutex
	data map[string]equipment.Equipment
}

// NewRepository constructs a repository seeded with items.
func NewRepository(items ...equipment.Equipment) *Repository {
	repo := &Repository{data: make(map[string]equipment.Equipment, len(items))}
	for _, item := range items {
		repo.data[item.ID] = clone(item)
	}
	return repo
}

// Put stores or replaces an equipment record.
func (r *Repository) Put(item equipment.Equipment) error {
	if err := item.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	r.data[item.ID] = clone(item)
	r.mu.Unlock()
	return nil
}

// Get loads an equipment by id.
func (r *Repository) Get(ctx context.Context, id string) (*equipment.Equipment, error) {
	_ = ctx
	r.mu.RLock()
	item, ok := r.data[id]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	c := clone(item)
	return &c, nil
}

// ListByType returns equipment of a type ordered by id.
func (r *Repository) ListByType(ctx context.Context, equipmentType string) ([]equipment.Equipment, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []equipment.Equipment
	for _, item := range r.data {
		if equipmentType != "" && item.EquipmentType != equipmentType {
			continue
		}
		result = append(result, clone(item))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// UpdateNormalization applies a reviewer correction.
func (r *Repository) UpdateNormalization(ctx context.Context, correction equipment.NormalizationCorrection) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.data[correction.EquipmentID]
	if !ok {
		return equipment.ErrNotFound
	}
	for i := range item.Points {
		if item.Points[i].ID != correction.PointID {
			continue
		}
		item.Points[i].NormalizedName = correction.NormalizedName
		item.Points[i].NormalizationConfidence = copyInt(correction.Confidence)
		r.data[item.ID] = item
		return nil
	}
	return equipment.ErrNotFound
}

func clone(item equipment.Equipment) equipment.Equipment {
	out := item
	out.Points = make([]points.Point, len(item.Points))
	for i, p := range item.Points {
		p.Tags = append([]string(nil), p.Tags...)
		p.Reasoning = append([]string(nil), p.Reasoning...)
		p.NormalizationConfidence = copyInt(p.NormalizationConfidence)
		out.Points[i] = p
	}
	return out
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
