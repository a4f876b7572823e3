package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	signatures "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/domain"
)

const defaultAnalyticsTable = "signature_analytics"

// AnalyticsStore keeps per-signature usage analytics.
type AnalyticsStore struct {
	db    DBTX
	table string
}

// NewAnalyticsStore constructs an analytics store.
func NewAnalyticsStore(db DBTX) *AnalyticsStore {
	return &AnalyticsStore{db: db, table: defaultAnalyticsTable}
}

// Get loads analytics for a signature; nil when none were recorded.
func (s *AnalyticsStore) Get(ctx context.Context, signatureID string) (*signatures.Analytics, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("signature analytics: nil db")
	}
	query := fmt.Sprintf(`
SELECT signature_id, total_matches, accuracy, usage_frequency, feedback_positive, feedback_negative
FROM %s
WHERE signature_id = $1`, s.table)

	var a signatures.Analytics
	if err := s.db.QueryRowContext(ctx, query, signatureID).Scan(
		&a.SignatureID,
		&a.TotalMatches,
		&a.Accuracy,
		&a.UsageFrequency,
		&a.UserFeedback.Positive,
		&a.UserFeedback.Negative,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

type txBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Apply upserts every increment in one transaction. When the store already
// runs on a transaction the caller owns commit and rollback.
func (s *AnalyticsStore) Apply(ctx context.Context, deltas ...signatures.SignatureDelta) error {
	if s == nil || s.db == nil {
		return errors.New("signature analytics: nil db")
	}
	beginner, ok := s.db.(txBeginner)
	if !ok {
		return s.applyAll(ctx, s.db, deltas)
	}
	tx, err := beginner.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := s.applyAll(ctx, tx, deltas); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *AnalyticsStore) applyAll(ctx context.Context, db DBTX, deltas []signatures.SignatureDelta) error {
	now := time.Now().UTC()
	for _, d := range deltas {
		if err := s.apply(ctx, db, d, now); err != nil {
			return fmt.Errorf("signature analytics %s: %w", d.SignatureID, err)
		}
	}
	return nil
}

// apply upserts one increment and recomputes accuracy in the same statement.
func (s *AnalyticsStore) apply(ctx context.Context, db DBTX, d signatures.SignatureDelta, now time.Time) error {
	query := fmt.Sprintf(`
INSERT INTO %[1]s AS a (
	signature_id, total_matches, usage_frequency, feedback_positive, feedback_negative, accuracy, updated_at
) VALUES (
	$1, $2, GREATEST($3::int, 0), $4::int, $5::int,
	CASE WHEN $4::int + $5::int > 0 THEN $4::int::float8 / ($4::int + $5::int) ELSE 0 END,
	$6
)
ON CONFLICT (signature_id) DO UPDATE SET
	total_matches = a.total_matches + EXCLUDED.total_matches,
	usage_frequency = GREATEST(a.usage_frequency + $3::int, 0),
	feedback_positive = a.feedback_positive + EXCLUDED.feedback_positive,
	feedback_negative = a.feedback_negative + EXCLUDED.feedback_negative,
	accuracy = CASE
		WHEN a.feedback_positive + a.feedback_negative + $4::int + $5::int > 0
		THEN (a.feedback_positive + $4::int)::float8 / (a.feedback_positive + a.feedback_negative + $4::int + $5::int)
		ELSE a.accuracy
	END,
	updated_at = EXCLUDED.updated_at`, s.table)

	_, err := db.ExecContext(ctx, query,
		d.SignatureID, d.Delta.Matches, d.Delta.Usage, d.Delta.Positive, d.Delta.Negative, now)
	return err
}
