package application

import (
	"context"
	"errors"
	"sort"

	equipment "github.com/phunnicutt1/synapse-app-sub001/internal/equipment/domain"
	points "github.com/phunnicutt1/synapse-app-sub001/internal/points/domain"
	signatures "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/domain"
)

// Coverage describes how much of a signature an equipment satisfies.
type Coverage struct {
	SignatureID          string            `json:"signature_id"`
	MatchedCount         int               `json:"matched_count"`
	TotalSignaturePoints int               `json:"total_signature_points"`
	MatchedPointKeys     []points.PointKey `json:"matched_point_keys"`
}

// Ratio returns the matched fraction; an empty signature has ratio 0.
func (c Coverage) Ratio() float64 {
	if c.TotalSignaturePoints == 0 {
		return 0
	}
	return float64(c.MatchedCount) / float64(c.TotalSignaturePoints)
}

// Full reports whether every templated point is present. Stored signatures
// are never empty; an empty template is vacuously full.
func (c Coverage) Full() bool {
	return c.MatchedCount == c.TotalSignaturePoints
}

// ComputeCoverage matches signature keys against the equipment key set.
// Matched keys are reported in signature order.
func ComputeCoverage(item equipment.Equipment, sig signatures.Signature) Coverage {
	available := item.PointKeys()
	cov := Coverage{
		SignatureID:          sig.ID,
		TotalSignaturePoints: len(sig.Points),
		MatchedPointKeys:     []points.PointKey{},
	}
	for _, p := range sig.Points {
		key := p.Key()
		if available.Has(key) {
			cov.MatchedCount++
			cov.MatchedPointKeys = append(cov.MatchedPointKeys, key)
		}
	}
	return cov
}

// IsFullMatch reports whether every templated point is present on the
// equipment. Extra equipment points are ignored.
func IsFullMatch(item equipment.Equipment, sig signatures.Signature) bool {
	return ComputeCoverage(item, sig).Full()
}

// ApplyTemplate returns the equipment points matched by the signature, in
// equipment order. The equipment is not modified.
func ApplyTemplate(item equipment.Equipment, sig signatures.Signature) []points.Point {
	return points.SelectByKeys(item.Points, sig.Keys())
}

// Candidate is a ranked signature with its coverage.
type Candidate struct {
	Signature signatures.Signature `json:"signature"`
	Coverage  Coverage             `json:"coverage"`
	FullMatch bool                 `json:"full_match"`
}

// SignatureLister lists signatures by equipment type.
type SignatureLister interface {
	ListByEquipmentType(ctx context.Context, equipmentType string) ([]signatures.Signature, error)
}

// Matcher ranks candidate signatures for an equipment.
type Matcher struct {
	signatures SignatureLister
}

// NewMatcher constructs a matcher.
func NewMatcher(lister SignatureLister) (*Matcher, error) {
	if lister == nil {
		return nil, errors.New("signature matcher: nil lister")
	}
	return &Matcher{signatures: lister}, nil
}

// Coverage computes coverage of one signature.
func (m *Matcher) Coverage(item equipment.Equipment, sig signatures.Signature) Coverage {
	return ComputeCoverage(item, sig)
}

// CandidateSignatures returns signatures of the equipment's type ordered by
// matched count desc, confidence desc, then name asc.
func (m *Matcher) CandidateSignatures(ctx context.Context, item equipment.Equipment) ([]Candidate, error) {
	list, err := m.signatures.ListByEquipmentType(ctx, item.EquipmentType)
	if err != nil {
		return nil, err
	}
	return RankCandidates(item, list), nil
}

// RankCandidates ranks the given signatures against an equipment. Signatures
// of another equipment type are skipped.
func RankCandidates(item equipment.Equipment, list []signatures.Signature) []Candidate {
	result := make([]Candidate, 0, len(list))
	for _, sig := range list {
		if sig.EquipmentType != item.EquipmentType {
			continue
		}
		cov := ComputeCoverage(item, sig)
		result = append(result, Candidate{
			Signature: sig,
			Coverage:  cov,
			FullMatch: cov.Full(),
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.Coverage.MatchedCount != b.Coverage.MatchedCount {
			return a.Coverage.MatchedCount > b.Coverage.MatchedCount
		}
		if a.Signature.Confidence != b.Signature.Confidence {
			return a.Signature.Confidence > b.Signature.Confidence
		}
		return a.Signature.Name < b.Signature.Name
	})
	return result
}
