package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	equipment "github.com/phunnicutt1/synapse-app-sub001/internal/equipment/domain"
	points "github.com/phunnicutt1/synapse-app-sub001/internal/points/domain"
)

const (
	defaultEquipmentTable = "equipment"
	defaultPointsTable    = "equipment_points"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository is a Postgres implementation for equipment records.
type Repository struct {
	db          DBTX
	table       string
	pointsTable string
}

// Option configures the repository.
type Option func(*Repository)

// WithTables overrides the table names.
func WithTables(equipmentTable, pointsTable string) Option {
	return func(repo *Repository) {
		if equipmentTable != "" {
			repo.table = equipmentTable
		}
		if pointsTable != "" {
			repo.pointsTable = pointsTable
		}
	}
}

// NewRepository constructs a repository.
func NewRepository(db DBTX, opts ...Option) *Repository {
	repo := &Repository{db: db, table: defaultEquipmentTable, pointsTable: defaultPointsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Get loads an equipment and its points in stored order.
func (r *Repository) Get(ctx context.Context, id string) (*equipment.Equipment, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("equipment repo: nil db")
	}
	if id == "" {
		return nil, errors.New("equipment repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT id, equipment_type, vendor_name, model_name
FROM %s
WHERE id = $1`, r.table)

	var item equipment.Equipment
	var vendor, model sql.NullString
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&item.ID, &item.EquipmentType, &vendor, &model); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	item.VendorName = vendor.String
	item.ModelName = model.String

	list, err := r.loadPoints(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	item.Points = list
	return &item, nil
}

// ListByType loads equipment of a type; an empty type lists all.
func (r *Repository) ListByType(ctx context.Context, equipmentType string) ([]equipment.Equipment, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("equipment repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, equipment_type, vendor_name, model_name
FROM %s
WHERE ($1 = '' OR equipment_type = $1)
ORDER BY id ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, equipmentType)
	if err != nil {
		return nil, err
	}
	var result []equipment.Equipment
	for rows.Next() {
		var item equipment.Equipment
		var vendor, model sql.NullString
		if err := rows.Scan(&item.ID, &item.EquipmentType, &vendor, &model); err != nil {
			rows.Close()
			return nil, err
		}
		item.VendorName = vendor.String
		item.ModelName = model.String
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range result {
		list, err := r.loadPoints(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Points = list
	}
	return result, nil
}

// UpdateNormalization writes a reviewer correction for one point.
func (r *Repository) UpdateNormalization(ctx context.Context, correction equipment.NormalizationCorrection) error {
	if r == nil || r.db == nil {
		return errors.New("equipment repo: nil db")
	}
	query := fmt.Sprintf(`
UPDATE %s
SET normalized_name = $3,
	normalization_confidence = $4,
	updated_at = NOW()
WHERE equipment_id = $1 AND id = $2`, r.pointsTable)

	var confidence sql.NullInt64
	if correction.Confidence != nil {
		confidence = sql.NullInt64{Int64: int64(*correction.Confidence), Valid: true}
	}
	res, err := r.db.ExecContext(ctx, query, correction.EquipmentID, correction.PointID, nullString(correction.NormalizedName), confidence)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return equipment.ErrNotFound
	}
	return nil
}

func (r *Repository) loadPoints(ctx context.Context, equipmentID string) ([]points.Point, error) {
	query := fmt.Sprintf(`
SELECT id, dis, functional_description, kind, unit, writable,
	normalized_name, normalization_confidence, tags, reasoning
FROM %s
WHERE equipment_id = $1
ORDER BY position ASC`, r.pointsTable)

	rows, err := r.db.QueryContext(ctx, query, equipmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []points.Point
	for rows.Next() {
		var (
			p          points.Point
			desc       sql.NullString
			kind       string
			unit       sql.NullString
			normalized sql.NullString
			confidence sql.NullInt64
			tags       []byte
			reasoning  []byte
		)
		if err := rows.Scan(&p.ID, &p.DisplayName, &desc, &kind, &unit, &p.Writable, &normalized, &confidence, &tags, &reasoning); err != nil {
			return nil, err
		}
		p.Kind, err = points.ParseKind(kind)
		if err != nil {
			return nil, fmt.Errorf("equipment repo: point %s: %w", p.ID, err)
		}
		p.FunctionalDescription = desc.String
		p.Unit = unit.String
		p.NormalizedName = normalized.String
		if confidence.Valid {
			p.NormalizationConfidence = points.Confidence(int(confidence.Int64))
		}
		if err := unmarshalList(tags, &p.Tags); err != nil {
			return nil, err
		}
		if err := unmarshalList(reasoning, &p.Reasoning); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func unmarshalList(data []byte, out *[]string) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
