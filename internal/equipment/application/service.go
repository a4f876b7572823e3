package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	equipment "github.com/phunnicutt1/synapse-app-sub001/internal/equipment/domain"
	points "github.com/phunnicutt1/synapse-app-sub001/internal/points/domain"
)

// Service exposes equipment reads, reviewer corrections and point summaries.
type Service struct {
	repo          equipment.Repository
	reviewHighMin int
}

// ServiceOption customizes the service.
type ServiceOption func(*Service)

// WithReviewThreshold overrides the high-confidence review threshold.
func WithReviewThreshold(highMin int) ServiceOption {
	return func(s *Service) {
		if highMin > 0 {
			s.reviewHighMin = highMin
		}
	}
}

// NewService constructs an equipment service.
func NewService(repo equipment.Repository, opts ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("equipment service: nil repository")
	}
	s := &Service{repo: repo, reviewHighMin: points.ReviewHighMin}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Get loads an equipment or returns ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*equipment.Equipment, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: equipment id required", equipment.ErrValidation)
	}
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: %s", equipment.ErrNotFound, id)
	}
	return item, nil
}

// ListByType lists equipment of a type.
func (s *Service) ListByType(ctx context.Context, equipmentType string) ([]equipment.Equipment, error) {
	return s.repo.ListByType(ctx, equipmentType)
}

// CorrectNormalization applies a reviewer's normalized name and confidence.
func (s *Service) CorrectNormalization(ctx context.Context, correction equipment.NormalizationCorrection) (*points.Point, error) {
	correction.NormalizedName = strings.TrimSpace(correction.NormalizedName)
	if correction.EquipmentID == "" || correction.PointID == "" {
		return nil, fmt.Errorf("%w: equipment and point id required", equipment.ErrValidation)
	}
	if correction.Confidence != nil {
		if *correction.Confidence < 0 || *correction.Confidence > 100 {
			return nil, fmt.Errorf("%w: confidence must be within 0..100", equipment.ErrValidation)
		}
	}
	item, err := s.Get(ctx, correction.EquipmentID)
	if err != nil {
		return nil, err
	}
	if _, ok := item.Point(correction.PointID); !ok {
		return nil, fmt.Errorf("%w: point %s", equipment.ErrNotFound, correction.PointID)
	}
	if err := s.repo.UpdateNormalization(ctx, correction); err != nil {
		return nil, err
	}
	updated, err := s.Get(ctx, correction.EquipmentID)
	if err != nil {
		return nil, err
	}
	p, _ := updated.Point(correction.PointID)
	return &p, nil
}

// Classify classifies the equipment points passing the filter.
func (s *Service) Classify(item equipment.Equipment, filter points.PointFilter) []points.Classification {
	return points.ClassifyAll(filter.Apply(item.Points, s.reviewHighMin), s.reviewHighMin)
}

// Summarize aggregates point classifications for an equipment.
func (s *Service) Summarize(item equipment.Equipment) points.Summary {
	return points.Summarize(item.Points, s.reviewHighMin)
}

// ReviewHighMin returns the configured review threshold.
func (s *Service) ReviewHighMin() int {
	return s.reviewHighMin
}
