package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	equipment "github.com/phunnicutt1/synapse-app-sub001/internal/equipment/domain"
	"github.com/phunnicutt1/synapse-app-sub001/internal/eventing"
	"github.com/phunnicutt1/synapse-app-sub001/internal/mappings/application/events"
	mappings "github.com/phunnicutt1/synapse-app-sub001/internal/mappings/domain"
	"github.com/phunnicutt1/synapse-app-sub001/internal/observability/metrics"
	signatures "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/domain"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// EquipmentLookup resolves equipment ids.
type EquipmentLookup interface {
	Get(ctx context.Context, id string) (*equipment.Equipment, error)
}

// Publisher publishes mapping events after commit.
type Publisher interface {
	Publish(ctx context.Context, event any) error
}

// Manager owns the equipment↔signature and equipment↔record relations.
// Every transition runs under per-key locks inside one unit of work.
type Manager struct {
	uow       mappings.UnitOfWork
	locks     *keyedLocker
	equipment EquipmentLookup
	publisher Publisher
	clock     Clock
	logger    *log.Logger
}

// ManagerOption customizes the manager.
type ManagerOption func(*Manager)

// WithEquipmentLookup makes unknown equipment ids fail with ErrNotFound.
func WithEquipmentLookup(lookup EquipmentLookup) ManagerOption {
	return func(m *Manager) {
		m.equipment = lookup
	}
}

// WithPublisher assigns an event publisher.
func WithPublisher(publisher Publisher) ManagerOption {
	return func(m *Manager) {
		m.publisher = publisher
	}
}

// WithClock assigns a clock.
func WithClock(clock Clock) ManagerOption {
	return func(m *Manager) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithLogger assigns a logger for post-commit failures.
func WithLogger(logger *log.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager constructs a mapping manager.
func NewManager(uow mappings.UnitOfWork, opts ...ManagerOption) (*Manager, error) {
	if uow == nil {
		return nil, errors.New("mapping manager: nil unit of work")
	}
	m := &Manager{uow: uow, locks: newKeyedLocker(), clock: systemClock{}}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// AssignSignature lists the equipment under signatureID and removes it from
// any other signature, atomically. Repeating the call is a no-op.
func (m *Manager) AssignSignature(ctx context.Context, equipmentID, signatureID, actor string) (state *mappings.SignatureState, err error) {
	defer func() { recordOp("assign_signature", err) }()
	if equipmentID == "" || signatureID == "" {
		return nil, fmt.Errorf("%w: equipment and signature id required", mappings.ErrValidation)
	}
	if err := m.ensureEquipment(ctx, equipmentID); err != nil {
		return nil, err
	}

	unlock := m.locks.Lock(equipmentKey(equipmentID))
	defer unlock()

	var previous string
	changed := false
	err = m.uow.Do(ctx, func(ctx context.Context, stores mappings.Stores) error {
		target, err := stores.Signatures.Get(ctx, signatureID)
		if err != nil {
			return err
		}
		if target == nil {
			return fmt.Errorf("%w: %s", signatures.ErrNotFound, signatureID)
		}

		listed, err := stores.Signatures.ListByEquipment(ctx, equipmentID)
		if err != nil {
			return err
		}
		// Remove from old signatures first; a failed remove aborts the add.
		for i := range listed {
			old := listed[i]
			if old.ID == signatureID {
				continue
			}
			previous = old.ID
			old.RemoveEquipment(equipmentID)
			if err := saveSignature(ctx, stores, &old); err != nil {
				return err
			}
			changed = true
		}
		if !target.Lists(equipmentID) {
			target.AddEquipment(equipmentID)
			if err := saveSignature(ctx, stores, target); err != nil {
				return err
			}
			changed = true
		}

		after, err := stores.Signatures.ListByEquipment(ctx, equipmentID)
		if err != nil {
			return err
		}
		if len(after) != 1 || after[0].ID != signatureID {
			return fmt.Errorf("%w: equipment %s listed by %d signatures after assign", mappings.ErrConflict, equipmentID, len(after))
		}
		if changed {
			return syncRecordSignature(ctx, stores, equipmentID, signatureID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		m.publish(ctx, events.SignatureAssigned{
			EventID:             eventing.NewEventID(),
			EquipmentID:         equipmentID,
			SignatureID:         signatureID,
			PreviousSignatureID: previous,
			Actor:               actor,
			OccurredAt:          m.clock.Now(),
		})
	}
	return &mappings.SignatureState{EquipmentID: equipmentID, Status: mappings.StatusAssigned, SignatureID: signatureID}, nil
}

// UnassignSignature removes the equipment from whichever signature lists it.
// It is a no-op for an unassigned equipment.
func (m *Manager) UnassignSignature(ctx context.Context, equipmentID, actor string) (state *mappings.SignatureState, err error) {
	defer func() { recordOp("unassign_signature", err) }()
	if equipmentID == "" {
		return nil, fmt.Errorf("%w: equipment id required", mappings.ErrValidation)
	}

	unlock := m.locks.Lock(equipmentKey(equipmentID))
	defer unlock()

	var removed []string
	err = m.uow.Do(ctx, func(ctx context.Context, stores mappings.Stores) error {
		listed, err := stores.Signatures.ListByEquipment(ctx, equipmentID)
		if err != nil {
			return err
		}
		for i := range listed {
			sig := listed[i]
			sig.RemoveEquipment(equipmentID)
			if err := saveSignature(ctx, stores, &sig); err != nil {
				return err
			}
			removed = append(removed, sig.ID)
		}
		if len(removed) == 0 {
			return nil
		}
		return syncRecordSignature(ctx, stores, equipmentID, "")
	})
	if err != nil {
		return nil, err
	}

	for _, signatureID := range removed {
		m.publish(ctx, events.SignatureUnassigned{
			EventID:     eventing.NewEventID(),
			EquipmentID: equipmentID,
			SignatureID: signatureID,
			Actor:       actor,
			OccurredAt:  m.clock.Now(),
		})
	}
	return &mappings.SignatureState{EquipmentID: equipmentID, Status: mappings.StatusUnassigned}, nil
}

// SignatureStateFor reads the equipment↔signature relation.
func (m *Manager) SignatureStateFor(ctx context.Context, equipmentID string) (*mappings.SignatureState, error) {
	if equipmentID == "" {
		return nil, fmt.Errorf("%w: equipment id required", mappings.ErrValidation)
	}
	state := &mappings.SignatureState{EquipmentID: equipmentID, Status: mappings.StatusUnassigned}
	err := m.uow.Do(ctx, func(ctx context.Context, stores mappings.Stores) error {
		listed, err := stores.Signatures.ListByEquipment(ctx, equipmentID)
		if err != nil {
			return err
		}
		switch len(listed) {
		case 0:
		case 1:
			state.Status = mappings.StatusAssigned
			state.SignatureID = listed[0].ID
		default:
			state.Status = mappings.StatusAssigned
			for _, sig := range listed {
				state.ListedBy = append(state.ListedBy, sig.ID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// AssignRecord binds the equipment to an external record. Any mapping of the
// record to another equipment, and of the equipment to another record, is
// cleared first so the relation stays a bijection.
func (m *Manager) AssignRecord(ctx context.Context, equipmentID, recordID, actor string) (view *mappings.MappingView, err error) {
	defer func() { recordOp("assign_record", err) }()
	if equipmentID == "" || recordID == "" {
		return nil, fmt.Errorf("%w: equipment and record id required", mappings.ErrValidation)
	}
	if err := m.ensureEquipment(ctx, equipmentID); err != nil {
		return nil, err
	}

	unlock := m.locks.Lock(equipmentKey(equipmentID), recordKey(recordID))
	defer unlock()

	var (
		result            mappings.Mapping
		dangling          bool
		changed           bool
		displacedEquip    string
		displacedRecordID string
	)
	err = m.uow.Do(ctx, func(ctx context.Context, stores mappings.Stores) error {
		byRecord, err := stores.Mappings.GetByRecord(ctx, recordID)
		if err != nil {
			return err
		}
		if byRecord != nil && byRecord.EquipmentID == equipmentID {
			result = *byRecord
			dangling, err = isDangling(ctx, stores, result.SignatureID)
			return err
		}
		if byRecord != nil {
			displacedEquip = byRecord.EquipmentID
			if _, err := stores.Mappings.DeleteByRecord(ctx, recordID); err != nil {
				return err
			}
		}
		byEquipment, err := stores.Mappings.GetByEquipment(ctx, equipmentID)
		if err != nil {
			return err
		}
		if byEquipment != nil {
			displacedRecordID = byEquipment.ExternalRecordID
			if _, err := stores.Mappings.DeleteByEquipment(ctx, equipmentID); err != nil {
				return err
			}
		}

		signatureID, err := currentSignature(ctx, stores, equipmentID)
		if err != nil {
			return err
		}
		result = mappings.Mapping{
			ExternalRecordID: recordID,
			EquipmentID:      equipmentID,
			SignatureID:      signatureID,
			MappedAt:         m.clock.Now(),
			MappedBy:         actor,
		}
		if err := stores.Mappings.Save(ctx, &result); err != nil {
			return err
		}
		changed = true

		if err := verifyBijection(ctx, stores, equipmentID, recordID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		m.publish(ctx, events.RecordMapped{
			EventID:              eventing.NewEventID(),
			EquipmentID:          equipmentID,
			ExternalRecordID:     recordID,
			DisplacedEquipmentID: displacedEquip,
			DisplacedRecordID:    displacedRecordID,
			Actor:                actor,
			OccurredAt:           m.clock.Now(),
		})
	}
	return &mappings.MappingView{Mapping: result, DanglingSignature: dangling}, nil
}

// UnassignRecord removes the record mapping of an equipment; no-op if none.
func (m *Manager) UnassignRecord(ctx context.Context, equipmentID, actor string) (err error) {
	defer func() { recordOp("unassign_record", err) }()
	if equipmentID == "" {
		return fmt.Errorf("%w: equipment id required", mappings.ErrValidation)
	}
	unlock := m.locks.Lock(equipmentKey(equipmentID))
	defer unlock()

	var removed *mappings.Mapping
	err = m.uow.Do(ctx, func(ctx context.Context, stores mappings.Stores) error {
		existing, err := stores.Mappings.GetByEquipment(ctx, equipmentID)
		if err != nil || existing == nil {
			return err
		}
		if _, err := stores.Mappings.DeleteByEquipment(ctx, equipmentID); err != nil {
			return err
		}
		removed = existing
		return nil
	})
	if err != nil {
		return err
	}
	m.publishUnmapped(ctx, removed, actor)
	return nil
}

// UnassignRecordByID removes the mapping of an external record; no-op if none.
func (m *Manager) UnassignRecordByID(ctx context.Context, recordID, actor string) (err error) {
	defer func() { recordOp("unassign_record", err) }()
	if recordID == "" {
		return fmt.Errorf("%w: record id required", mappings.ErrValidation)
	}
	unlock := m.locks.Lock(recordKey(recordID))
	defer unlock()

	var removed *mappings.Mapping
	err = m.uow.Do(ctx, func(ctx context.Context, stores mappings.Stores) error {
		existing, err := stores.Mappings.GetByRecord(ctx, recordID)
		if err != nil || existing == nil {
			return err
		}
		if _, err := stores.Mappings.DeleteByRecord(ctx, recordID); err != nil {
			return err
		}
		removed = existing
		return nil
	})
	if err != nil {
		return err
	}
	m.publishUnmapped(ctx, removed, actor)
	return nil
}

// MappingForEquipment reads the record mapping of an equipment.
func (m *Manager) MappingForEquipment(ctx context.Context, equipmentID string) (*mappings.MappingView, error) {
	return m.readMapping(ctx, func(ctx context.Context, repo mappings.Repository) (*mappings.Mapping, error) {
		return repo.GetByEquipment(ctx, equipmentID)
	}, "equipment "+equipmentID)
}

// MappingForRecord reads the mapping of an external record.
func (m *Manager) MappingForRecord(ctx context.Context, recordID string) (*mappings.MappingView, error) {
	return m.readMapping(ctx, func(ctx context.Context, repo mappings.Repository) (*mappings.Mapping, error) {
		return repo.GetByRecord(ctx, recordID)
	}, "record "+recordID)
}

func (m *Manager) readMapping(ctx context.Context, load func(context.Context, mappings.Repository) (*mappings.Mapping, error), subject string) (*mappings.MappingView, error) {
	var view *mappings.MappingView
	err := m.uow.Do(ctx, func(ctx context.Context, stores mappings.Stores) error {
		found, err := load(ctx, stores.Mappings)
		if err != nil || found == nil {
			return err
		}
		dangling, err := isDangling(ctx, stores, found.SignatureID)
		if err != nil {
			return err
		}
		view = &mappings.MappingView{Mapping: *found, DanglingSignature: dangling}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, fmt.Errorf("%w: %s", mappings.ErrNotFound, subject)
	}
	return view, nil
}

func (m *Manager) ensureEquipment(ctx context.Context, equipmentID string) error {
	if m.equipment == nil {
		return nil
	}
	item, err := m.equipment.Get(ctx, equipmentID)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("%w: %s", equipment.ErrNotFound, equipmentID)
	}
	return nil
}

func (m *Manager) publishUnmapped(ctx context.Context, removed *mappings.Mapping, actor string) {
	if removed == nil {
		return
	}
	m.publish(ctx, events.RecordUnmapped{
		EventID:          eventing.NewEventID(),
		EquipmentID:      removed.EquipmentID,
		ExternalRecordID: removed.ExternalRecordID,
		Actor:            actor,
		OccurredAt:       m.clock.Now(),
	})
}

func (m *Manager) publish(ctx context.Context, event any) {
	if m.publisher == nil {
		return
	}
	if err := m.publisher.Publish(ctx, event); err != nil && m.logger != nil {
		m.logger.Printf("mapping event publish failed: type=%s err=%v", eventing.EventType(event), err)
	}
}

func saveSignature(ctx context.Context, stores mappings.Stores, sig *signatures.Signature) error {
	if err := stores.Signatures.Save(ctx, sig); err != nil {
		if errors.Is(err, signatures.ErrVersionConflict) {
			return fmt.Errorf("%w: %w", mappings.ErrConflict, err)
		}
		return err
	}
	return nil
}

// syncRecordSignature keeps the record mapping's signature id current.
func syncRecordSignature(ctx context.Context, stores mappings.Stores, equipmentID, signatureID string) error {
	existing, err := stores.Mappings.GetByEquipment(ctx, equipmentID)
	if err != nil || existing == nil {
		return err
	}
	if existing.SignatureID == signatureID {
		return nil
	}
	existing.SignatureID = signatureID
	return stores.Mappings.Save(ctx, existing)
}

func currentSignature(ctx context.Context, stores mappings.Stores, equipmentID string) (string, error) {
	listed, err := stores.Signatures.ListByEquipment(ctx, equipmentID)
	if err != nil {
		return "", err
	}
	switch len(listed) {
	case 0:
		return "", nil
	case 1:
		return listed[0].ID, nil
	default:
		return "", fmt.Errorf("%w: equipment %s listed by %d signatures", mappings.ErrConflict, equipmentID, len(listed))
	}
}

func verifyBijection(ctx context.Context, stores mappings.Stores, equipmentID, recordID string) error {
	byRecord, err := stores.Mappings.GetByRecord(ctx, recordID)
	if err != nil {
		return err
	}
	byEquipment, err := stores.Mappings.GetByEquipment(ctx, equipmentID)
	if err != nil {
		return err
	}
	if byRecord == nil || byEquipment == nil ||
		byRecord.EquipmentID != equipmentID || byEquipment.ExternalRecordID != recordID {
		return fmt.Errorf("%w: record %s and equipment %s are not exclusively mapped", mappings.ErrConflict, recordID, equipmentID)
	}
	return nil
}

func isDangling(ctx context.Context, stores mappings.Stores, signatureID string) (bool, error) {
	if signatureID == "" {
		return false, nil
	}
	sig, err := stores.Signatures.Get(ctx, signatureID)
	if err != nil {
		return false, err
	}
	return sig == nil, nil
}

func recordOp(op string, err error) {
	metrics.IncMappingOp(op, err)
	switch {
	case err == nil:
	case errors.Is(err, mappings.ErrConflict):
		metrics.IncMappingError("conflict")
	case errors.Is(err, mappings.ErrValidation):
		metrics.IncMappingError("validation")
	case errors.Is(err, signatures.ErrNotFound), errors.Is(err, equipment.ErrNotFound):
		metrics.IncMappingError("not_found")
	default:
		metrics.IncMappingError("internal")
	}
}
