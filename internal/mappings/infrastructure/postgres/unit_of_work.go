package postgres

import (
	"context"
	"database/sql"
	"errors"

	mappings "github.com/phunnicutt1/synapse-app-sub001/internal/mappings/domain"
	sigpostgres "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/infrastructure/postgres"
)

// UnitOfWork runs mapping operations in a serializable transaction.
type UnitOfWork struct {
	db *sql.DB
}

// NewUnitOfWork constructs a unit of work.
func NewUnitOfWork(db *sql.DB) (*UnitOfWork, error) {
	if db == nil {
		return nil, errors.New("mapping uow: nil db")
	}
	return &UnitOfWork{db: db}, nil
}

// Do begins a transaction, binds repositories to it and commits when fn
// succeeds.
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, stores mappings.Stores) error) error {
	tx, err := u.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	stores := mappings.Stores{
		Signatures: sigpostgres.NewRepository(tx),
		Mappings:   NewStore(tx),
	}
	if err := fn(ctx, stores); err != nil {
		_ = tx.Rollback()
		return TranslateError(err)
	}
	return TranslateError(tx.Commit())
}
