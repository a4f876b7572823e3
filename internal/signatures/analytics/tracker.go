// Package analytics maintains signature usage analytics from mapping events.
// The matching engine only reads what this package writes.
package analytics

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/phunnicutt1/synapse-app-sub001/internal/eventing"
	"github.com/phunnicutt1/synapse-app-sub001/internal/mappings/application/events"
	signatures "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/domain"
)

const consumerName = "signature-analytics"

// Tracker turns assignment events into analytics increments.
//
// An assignment counts as a match, a use and positive feedback. Moving an
// equipment away from a signature, or unassigning it, counts as negative
// feedback for the signature it left.
type Tracker struct {
	store  signatures.AnalyticsStore
	logger *log.Logger
}

// NewTracker constructs a tracker.
func NewTracker(store signatures.AnalyticsStore, logger *log.Logger) (*Tracker, error) {
	if store == nil {
		return nil, errors.New("analytics tracker: nil store")
	}
	return &Tracker{store: store, logger: logger}, nil
}

// Subscribe registers the tracker on the bus. A processed store makes
// redelivery idempotent.
func (t *Tracker) Subscribe(bus eventing.EventBus, processed eventing.ProcessedStore) {
	eventing.Subscribe(bus, eventing.EventTypeOf[events.SignatureAssigned](), consumerName, t.handleAssigned, processed)
	eventing.Subscribe(bus, eventing.EventTypeOf[events.SignatureUnassigned](), consumerName, t.handleUnassigned, processed)
}

// Get reads analytics for a signature.
func (t *Tracker) Get(ctx context.Context, signatureID string) (*signatures.Analytics, error) {
	return t.store.Get(ctx, signatureID)
}

func (t *Tracker) handleAssigned(ctx context.Context, event any) error {
	evt, ok := event.(events.SignatureAssigned)
	if !ok {
		return nil
	}
	deltas := []signatures.SignatureDelta{
		{SignatureID: evt.SignatureID, Delta: signatures.AnalyticsDelta{Matches: 1, Usage: 1, Positive: 1}},
	}
	if evt.PreviousSignatureID != "" {
		deltas = append(deltas, signatures.SignatureDelta{
			SignatureID: evt.PreviousSignatureID,
			Delta:       signatures.AnalyticsDelta{Usage: -1, Negative: 1},
		})
	}
	if err := t.store.Apply(ctx, deltas...); err != nil {
		t.logf("analytics apply failed: signature=%s previous=%s err=%v", evt.SignatureID, evt.PreviousSignatureID, err)
		return err
	}
	return nil
}

func (t *Tracker) handleUnassigned(ctx context.Context, event any) error {
	evt, ok := event.(events.SignatureUnassigned)
	if !ok {
		return nil
	}
	delta := signatures.SignatureDelta{SignatureID: evt.SignatureID, Delta: signatures.AnalyticsDelta{Usage: -1, Negative: 1}}
	if err := t.store.Apply(ctx, delta); err != nil {
		t.logf("analytics apply failed: signature=%s err=%v", evt.SignatureID, err)
		return err
	}
	return nil
}

func (t *Tracker) logf(format string, args ...any) {
	if t.logger != nil {
		t.logger.Printf(format, args...)
	}
}

// MemoryStore keeps analytics in memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]signatures.Analytics
}

// NewMemoryStore constructs an in-memory analytics store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]signatures.Analytics)}
}

// Get loads analytics; nil when none were recorded.
func (s *MemoryStore) Get(ctx context.Context, signatureID string) (*signatures.Analytics, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.data[signatureID]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// Apply adds the increments under one lock.
func (s *MemoryStore) Apply(ctx context.Context, deltas ...signatures.SignatureDelta) error {
	_ = ctx
	for _, d := range deltas {
		if d.SignatureID == "" {
			return errors.New("analytics: empty signature id")
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range deltas {
		a := s.data[d.SignatureID]
		a.SignatureID = d.SignatureID
		a.Apply(d.Delta)
		s.data[d.SignatureID] = a
	}
	return nil
}
