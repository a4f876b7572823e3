package reports

import (
	"context"
	"errors"
	"time"

	equipment "github.com/phunnicutt1/synapse-app-sub001/internal/equipment/domain"
	points "github.com/phunnicutt1/synapse-app-sub001/internal/points/domain"
	sigapp "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/application"
)

// EquipmentSource lists equipment for a report.
type EquipmentSource interface {
	ListByType(ctx context.Context, equipmentType string) ([]equipment.Equipment, error)
}

// CandidateFinder ranks signatures for an equipment.
type CandidateFinder interface {
	CandidateSignatures(ctx context.Context, item equipment.Equipment) ([]sigapp.Candidate, error)
}

// PointRow is one reviewed point.
type PointRow struct {
	EquipmentID    string
	PointID        string
	DisplayName    string
	Kind           points.Kind
	Unit           string
	NormalizedName string
	Confidence     *int
	Category       points.Category
	Tier           points.Tier
	ReviewBucket   points.ReviewBucket
}

// EquipmentReview aggregates one equipment.
type EquipmentReview struct {
	EquipmentID   string
	EquipmentType string
	Summary       points.Summary
	BestSignature string
	BestCoverage  float64
	FullMatch     bool
}

// ReviewReport is the point review workbook content.
type ReviewReport struct {
	GeneratedAt   time.Time
	EquipmentType string
	ReviewHighMin int
	Equipment     []EquipmentReview
	Points        []PointRow
}

// Builder assembles review reports.
type Builder struct {
	source        EquipmentSource
	candidates    CandidateFinder
	reviewHighMin int
	now           func() time.Time
}

// NewBuilder constructs a Builder. candidates may be nil.
func NewBuilder(source EquipmentSource, candidates CandidateFinder, reviewHighMin int) (*Builder, error) {
	if source == nil {
		return nil, errors.New("review report: nil equipment source")
	}
	if reviewHighMin <= 0 {
		reviewHighMin = points.ReviewHighMin
	}
	return &Builder{
		source:        source,
		candidates:    candidates,
		reviewHighMin: reviewHighMin,
		now:           func() time.Time { return time.Now().UTC() },
	}, nil
}

// Build collects equipment of a type; an empty type includes all equipment.
func (b *Builder) Build(ctx context.Context, equipmentType string) (*ReviewReport, error) {
	list, err := b.source.ListByType(ctx, equipmentType)
	if err != nil {
		return nil, err
	}
	report := &ReviewReport{
		GeneratedAt:   b.now(),
		EquipmentType: equipmentType,
		ReviewHighMin: b.reviewHighMin,
	}
	for _, item := range list {
		review := EquipmentReview{
			EquipmentID:   item.ID,
			EquipmentType: item.EquipmentType,
			Summary:       points.Summarize(item.Points, b.reviewHighMin),
		}
		if b.candidates != nil {
			ranked, err := b.candidates.CandidateSignatures(ctx, item)
			if err != nil {
				return nil, err
			}
			if len(ranked) > 0 {
				review.BestSignature = ranked[0].Signature.Name
				review.BestCoverage = ranked[0].Coverage.Ratio()
				review.FullMatch = ranked[0].FullMatch
			}
		}
		report.Equipment = append(report.Equipment, review)

		for _, p := range item.Points {
			c := points.Classify(p, b.reviewHighMin)
			report.Points = append(report.Points, PointRow{
				EquipmentID:    item.ID,
				PointID:        p.ID,
				DisplayName:    p.DisplayName,
				Kind:           p.Kind,
				Unit:           p.Unit,
				NormalizedName: p.NormalizedName,
				Confidence:     p.NormalizationConfidence,
				Category:       c.Category,
				Tier:           c.Tier,
				ReviewBucket:   c.ReviewBucket,
			})
		}
	}
	return report, nil
}

// NeedsReview returns the rows outside the high-confidence bucket.
func (r *ReviewReport) NeedsReview() []PointRow {
	var rows []PointRow
	for _, row := range r.Points {
		if row.ReviewBucket != points.ReviewHighConfidence {
			rows = append(rows, row)
		}
	}
	return rows
}
