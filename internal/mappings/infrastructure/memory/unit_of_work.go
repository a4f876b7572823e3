package memory

import (
	"context"
	"errors"

	mappings "github.com/phunnicutt1/synapse-app-sub001/internal/mappings/domain"
	signatures "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/domain"
	sigmemory "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/infrastructure/memory"
)

// UnitOfWork spans the in-memory signature repository and mapping store.
// Locks are always taken signatures first, then mappings.
type UnitOfWork struct {
	signatures *sigmemory.Repository
	mappings   *Store
}

// NewUnitOfWork constructs a unit of work.
func NewUnitOfWork(sigRepo *sigmemory.Repository, store *Store) (*UnitOfWork, error) {
	if sigRepo == nil || store == nil {
		return nil, errors.New("mapping uow: nil store")
	}
	return &UnitOfWork{signatures: sigRepo, mappings: store}, nil
}

// Do runs fn with both stores locked; any error rolls both back.
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, stores mappings.Stores) error) error {
	return u.signatures.Within(func(sigTx signatures.Repository) error {
		return u.mappings.Within(func(mapTx mappings.Repository) error {
			return fn(ctx, mappings.Stores{Signatures: sigTx, Mappings: mapTx})
		})
	})
}
