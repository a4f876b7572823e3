package memory

import (
	"context"
	"fmt"
	"sync"

	mappings "github.com/phunnicutt1/synapse-app-sub001/internal/mappings/domain"
)

// Store is an in-memory record mapping store keyed by record id, with a
// reverse index enforcing one record per equipment.
type Store struct {
	writeMu     sync.Mutex
	mu          sync.RWMutex
	byRecord    map[string]mappings.Mapping
	byEquipment map[string]string
}

// NewStore constructs a store.
func NewStore() *Store {
	return &Store{
		byRecord:    make(map[string]mappings.Mapping),
		byEquipment: make(map[string]string),
	}
}

// GetByEquipment loads the mapping of an equipment; nil when absent.
func (s *Store) GetByEquipment(ctx context.Context, equipmentID string) (*mappings.Mapping, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	recordID, ok := s.byEquipment[equipmentID]
	if !ok {
		return nil, nil
	}
	m := s.byRecord[recordID]
	return &m, nil
}

// GetByRecord loads the mapping of a record; nil when absent.
func (s *Store) GetByRecord(ctx context.Context, recordID string) (*mappings.Mapping, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.byRecord[recordID]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

// Save upserts by record id.
func (s *Store) Save(ctx context.Context, mapping *mappings.Mapping) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.save(ctx, mapping)
}

// DeleteByEquipment removes the mapping of an equipment.
func (s *Store) DeleteByEquipment(ctx context.Context, equipmentID string) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.deleteByEquipment(ctx, equipmentID)
}

// DeleteByRecord removes the mapping of a record.
func (s *Store) DeleteByRecord(ctx context.Context, recordID string) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.deleteByRecord(ctx, recordID)
}

// Within runs fn against a transactional view, rolling back on error.
func (s *Store) Within(fn func(repo mappings.Repository) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	byRecord, byEquipment := s.snapshot()
	if err := fn(storeTx{s}); err != nil {
		s.mu.Lock()
		s.byRecord = byRecord
		s.byEquipment = byEquipment
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) save(ctx context.Context, mapping *mappings.Mapping) error {
	_ = ctx
	if mapping == nil {
		return fmt.Errorf("%w: nil mapping", mappings.ErrValidation)
	}
	if err := mapping.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if recordID, ok := s.byEquipment[mapping.EquipmentID]; ok && recordID != mapping.ExternalRecordID {
		return fmt.Errorf("%w: equipment %s already mapped to record %s", mappings.ErrConflict, mapping.EquipmentID, recordID)
	}
	if previous, ok := s.byRecord[mapping.ExternalRecordID]; ok && previous.EquipmentID != mapping.EquipmentID {
		delete(s.byEquipment, previous.EquipmentID)
	}
	s.byRecord[mapping.ExternalRecordID] = *mapping
	s.byEquipment[mapping.EquipmentID] = mapping.ExternalRecordID
	return nil
}

func (s *Store) deleteByEquipment(ctx context.Context, equipmentID string) (bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	recordID, ok := s.byEquipment[equipmentID]
	if !ok {
		return false, nil
	}
	delete(s.byEquipment, equipmentID)
	delete(s.byRecord, recordID)
	return true, nil
}

func (s *Store) deleteByRecord(ctx context.Context, recordID string) (bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byRecord[recordID]
	if !ok {
		return false, nil
	}
	delete(s.byRecord, recordID)
	delete(s.byEquipment, m.EquipmentID)
	return true, nil
}

func (s *Store) snapshot() (map[string]mappings.Mapping, map[string]string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byRecord := make(map[string]mappings.Mapping, len(s.byRecord))
	for k, v := range s.byRecord {
		byRecord[k] = v
	}
	byEquipment := make(map[string]string, len(s.byEquipment))
	for k, v := range s.byEquipment {
		byEquipment[k] = v
	}
	return byRecord, byEquipment
}

type storeTx struct {
	s *Store
}

func (t storeTx) GetByEquipment(ctx context.Context, equipmentID string) (*mappings.Mapping, error) {
	return t.s.GetByEquipment(ctx, equipmentID)
}

func (t storeTx) GetByRecord(ctx context.Context, recordID string) (*mappings.Mapping, error) {
	return t.s.GetByRecord(ctx, recordID)
}

func (t storeTx) Save(ctx context.Context, mapping *mappings.Mapping) error {
	return t.s.save(ctx, mapping)
}

func (t storeTx) DeleteByEquipment(ctx context.Context, equipmentID string) (bool, error) {
	return t.s.deleteByEquipment(ctx, equipmentID)
}

func (t storeTx) DeleteByRecord(ctx context.Context, recordID string) (bool, error) {
	return t.s.deleteByRecord(ctx, recordID)
}
