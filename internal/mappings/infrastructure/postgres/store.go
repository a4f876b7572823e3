package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	mappings "github.com/phunnicutt1/synapse-app-sub001/internal/mappings/domain"
)

const (
	defaultMappingsTable = "record_mappings"

	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is a Postgres implementation for record mappings. The table carries
// unique constraints on both external_record_id and equipment_id.
type Store struct {
	db    DBTX
	table string
}

// StoreOption configures the store.
type StoreOption func(*Store)

// WithMappingsTable overrides the table name.
func WithMappingsTable(table string) StoreOption {
	return func(s *Store) {
		if table != "" {
			s.table = table
		}
	}
}

// NewStore constructs a store.
func NewStore(db DBTX, opts ...StoreOption) *Store {
	s := &Store{db: db, table: defaultMappingsTable}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetByEquipment loads the mapping of an equipment; nil when absent.
func (s *Store) GetByEquipment(ctx context.Context, equipmentID string) (*mappings.Mapping, error) {
	return s.getBy(ctx, "equipment_id", equipmentID)
}

// GetByRecord loads the mapping of a record; nil when absent.
func (s *Store) GetByRecord(ctx context.Context, recordID string) (*mappings.Mapping, error) {
	return s.getBy(ctx, "external_record_id", recordID)
}

// Save upserts by record id. A unique violation on equipment_id means the
// equipment is mapped elsewhere and surfaces as ErrConflict.
func (s *Store) Save(ctx context.Context, mapping *mappings.Mapping) error {
	if s == nil || s.db == nil {
		return errors.New("mapping store: nil db")
	}
	if mapping == nil {
		return errors.New("mapping store: nil mapping")
	}
	if err := mapping.Validate(); err != nil {
		return err
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	external_record_id,
	equipment_id,
	signature_id,
	mapped_at,
	mapped_by
) VALUES (
	$1, $2, $3, $4, $5
)
ON CONFLICT (external_record_id)
DO UPDATE SET
	equipment_id = EXCLUDED.equipment_id,
	signature_id = EXCLUDED.signature_id,
	mapped_at = EXCLUDED.mapped_at,
	mapped_by = EXCLUDED.mapped_by`, s.table)

	var signatureID sql.NullString
	if mapping.SignatureID != "" {
		signatureID = sql.NullString{String: mapping.SignatureID, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, query,
		mapping.ExternalRecordID,
		mapping.EquipmentID,
		signatureID,
		mapping.MappedAt.UTC(),
		mapping.MappedBy,
	)
	return TranslateError(err)
}

// DeleteByEquipment removes the mapping of an equipment.
func (s *Store) DeleteByEquipment(ctx context.Context, equipmentID string) (bool, error) {
	return s.deleteBy(ctx, "equipment_id", equipmentID)
}

// DeleteByRecord removes the mapping of a record.
func (s *Store) DeleteByRecord(ctx context.Context, recordID string) (bool, error) {
	return s.deleteBy(ctx, "external_record_id", recordID)
}

func (s *Store) getBy(ctx context.Context, column, value string) (*mappings.Mapping, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("mapping store: nil db")
	}
	query := fmt.Sprintf(`
SELECT external_record_id, equipment_id, signature_id, mapped_at, mapped_by
FROM %s
WHERE %s = $1`, s.table, column)

	var m mappings.Mapping
	var signatureID sql.NullString
	if err := s.db.QueryRowContext(ctx, query, value).Scan(
		&m.ExternalRecordID,
		&m.EquipmentID,
		&signatureID,
		&m.MappedAt,
		&m.MappedBy,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	m.SignatureID = signatureID.String
	m.MappedAt = m.MappedAt.UTC()
	return &m, nil
}

func (s *Store) deleteBy(ctx context.Context, column, value string) (bool, error) {
	if s == nil || s.db == nil {
		return false, errors.New("mapping store: nil db")
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, s.table, column)
	res, err := s.db.ExecContext(ctx, query, value)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// TranslateError maps Postgres constraint and serialization failures to
// ErrConflict.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgSerializationFailure:
			return fmt.Errorf("%w: %s", mappings.ErrConflict, pgErr.Message)
		}
	}
	return err
}
