package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	signatures "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/domain"
)

const defaultSignaturesTable = "signatures"

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository is a Postgres implementation for signatures.
type Repository struct {
	db    DBTX
	table string
}

// Option configures the repository.
type Option func(*Repository)

// WithTable overrides the table name.
func WithTable(table string) Option {
	return func(repo *Repository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewRepository constructs a repository.
func NewRepository(db DBTX, opts ...Option) *Repository {
	repo := &Repository{db: db, table: defaultSignaturesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

const selectColumns = `id, name, equipment_type, points, source, confidence, matching_equipment_ids, version, created_at, updated_at`

// Get loads a signature by id; nil when absent.
func (r *Repository) Get(ctx context.Context, id string) (*signatures.Signature, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("signature repo: nil db")
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, selectColumns, r.table)
	sig, err := scanSignature(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return sig, nil
}

// List returns all signatures ordered by name.
func (r *Repository) List(ctx context.Context) ([]signatures.Signature, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY name ASC, id ASC`, selectColumns, r.table)
	return r.query(ctx, query)
}

// ListByEquipmentType returns signatures of an exact equipment type.
func (r *Repository) ListByEquipmentType(ctx context.Context, equipmentType string) ([]signatures.Signature, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE equipment_type = $1 ORDER BY name ASC, id ASC`, selectColumns, r.table)
	return r.query(ctx, query, equipmentType)
}

// ListByEquipment returns signatures listing the equipment id.
func (r *Repository) ListByEquipment(ctx context.Context, equipmentID string) ([]signatures.Signature, error) {
	query := fmt.Sprintf(`
SELECT %s FROM %s
WHERE matching_equipment_ids @> jsonb_build_array($1::text)
ORDER BY name ASC, id ASC`, selectColumns, r.table)
	return r.query(ctx, query, equipmentID)
}

// Save inserts when Version is 0, otherwise updates only if the stored
// version still matches.
func (r *Repository) Save(ctx context.Context, sig *signatures.Signature) error {
	if r == nil || r.db == nil {
		return errors.New("signature repo: nil db")
	}
	if sig == nil {
		return errors.New("signature repo: nil signature")
	}
	pointsJSON, err := json.Marshal(sig.Points)
	if err != nil {
		return err
	}
	ids := sig.MatchingEquipmentIDs
	if ids == nil {
		ids = []string{}
	}
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if sig.CreatedAt.IsZero() {
		sig.CreatedAt = now
	}
	if sig.UpdatedAt.IsZero() {
		sig.UpdatedAt = now
	}

	if sig.Version == 0 {
		query := fmt.Sprintf(`
INSERT INTO %s (
	id, name, equipment_type, points, source, confidence, matching_equipment_ids, version, created_at, updated_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, 1, $8, $9
)
ON CONFLICT (id) DO NOTHING`, r.table)
		res, err := r.db.ExecContext(ctx, query, sig.ID, sig.Name, sig.EquipmentType, pointsJSON, string(sig.Source), sig.Confidence, idsJSON, sig.CreatedAt, sig.UpdatedAt)
		if err != nil {
			return err
		}
		if err := expectOneRow(res, fmt.Errorf("%w: %s already exists", signatures.ErrVersionConflict, sig.ID)); err != nil {
			return err
		}
		sig.Version = 1
		return nil
	}

	query := fmt.Sprintf(`
UPDATE %s SET
	name = $2,
	equipment_type = $3,
	points = $4,
	source = $5,
	confidence = $6,
	matching_equipment_ids = $7,
	version = version + 1,
	updated_at = $8
WHERE id = $1 AND version = $9`, r.table)
	res, err := r.db.ExecContext(ctx, query, sig.ID, sig.Name, sig.EquipmentType, pointsJSON, string(sig.Source), sig.Confidence, idsJSON, sig.UpdatedAt, sig.Version)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		existing, err := r.Get(ctx, sig.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("%w: %s", signatures.ErrNotFound, sig.ID)
		}
		return fmt.Errorf("%w: %s at version %d, have %d", signatures.ErrVersionConflict, sig.ID, existing.Version, sig.Version)
	}
	sig.Version++
	return nil
}

// Delete removes a signature; unknown ids return ErrNotFound.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("signature repo: nil db")
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table)
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, fmt.Errorf("%w: %s", signatures.ErrNotFound, id))
}

func (r *Repository) query(ctx context.Context, query string, args ...any) ([]signatures.Signature, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("signature repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []signatures.Signature
	for rows.Next() {
		sig, err := scanSignature(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *sig)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSignature(row rowScanner) (*signatures.Signature, error) {
	var (
		sig        signatures.Signature
		source     string
		pointsJSON []byte
		idsJSON    []byte
	)
	if err := row.Scan(
		&sig.ID,
		&sig.Name,
		&sig.EquipmentType,
		&pointsJSON,
		&source,
		&sig.Confidence,
		&idsJSON,
		&sig.Version,
		&sig.CreatedAt,
		&sig.UpdatedAt,
	); err != nil {
		return nil, err
	}
	sig.Source = signatures.Source(source)
	if err := json.Unmarshal(pointsJSON, &sig.Points); err != nil {
		return nil, fmt.Errorf("signature repo: decode points of %s: %w", sig.ID, err)
	}
	if len(idsJSON) > 0 {
		if err := json.Unmarshal(idsJSON, &sig.MatchingEquipmentIDs); err != nil {
			return nil, fmt.Errorf("signature repo: decode equipment ids of %s: %w", sig.ID, err)
		}
	}
	sig.CreatedAt = sig.CreatedAt.UTC()
	sig.UpdatedAt = sig.UpdatedAt.UTC()
	return &sig, nil
}

func expectOneRow(res sql.Result, otherwise error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return otherwise
	}
	return nil
}
