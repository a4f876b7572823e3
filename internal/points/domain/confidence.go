package points

import (
	"errors"
	"fmt"
)

// ErrUnknownBucket is returned for an unrecognized tier or review bucket name.
var ErrUnknownBucket = errors.New("points: unknown bucket")

// Tier is a coarse bucket over normalization confidence.
type Tier string

const (
	TierNone   Tier = "none"
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// Tier thresholds. Used by tier display and by tier-based filters.
const (
	TierMediumMin = 70
	TierHighMin   = 90
)

// ConfidenceTier buckets a confidence score; nil means unscored.
func ConfidenceTier(confidence *int) Tier {
	if confidence == nil {
		return TierNone
	}
	switch c := *confidence; {
	case c >= TierHighMin:
		return TierHigh
	case c >= TierMediumMin:
		return TierMedium
	default:
		return TierLow
	}
}

// ParseTier validates a tier name.
func ParseTier(value string) (Tier, error) {
	switch Tier(value) {
	case TierNone, TierLow, TierMedium, TierHigh:
		return Tier(value), nil
	default:
		return "", fmt.Errorf("%w: tier %q", ErrUnknownBucket, value)
	}
}

// ReviewBucket is the operator-facing manual review filter. It uses its own
// single threshold (ReviewHighMin) and never the tier thresholds above.
type ReviewBucket string

const (
	ReviewUnscored       ReviewBucket = "unscored"
	ReviewNeeded         ReviewBucket = "needs_review"
	ReviewHighConfidence ReviewBucket = "high_confidence"
)

// ParseReviewBucket validates a review bucket name.
func ParseReviewBucket(value string) (ReviewBucket, error) {
	switch ReviewBucket(value) {
	case ReviewUnscored, ReviewNeeded, ReviewHighConfidence:
		return ReviewBucket(value), nil
	default:
		return "", fmt.Errorf("%w: review bucket %q", ErrUnknownBucket, value)
	}
}

// ReviewHighMin is the minimum confidence of the high-confidence review bucket.
const ReviewHighMin = 80

// ReviewBucketFor buckets a confidence score for manual review.
func ReviewBucketFor(confidence *int) ReviewBucket {
	return ReviewBucketWithThreshold(confidence, ReviewHighMin)
}

// ReviewBucketWithThreshold buckets with a configured high threshold.
func ReviewBucketWithThreshold(confidence *int, highMin int) ReviewBucket {
	if confidence == nil {
		return ReviewUnscored
	}
	if *confidence >= highMin {
		return ReviewHighConfidence
	}
	return ReviewNeeded
}

// FilterByTier keeps points whose confidence falls in the tier.
func FilterByTier(list []Point, tier Tier) []Point {
	var result []Point
	for _, p := range list {
		if ConfidenceTier(p.NormalizationConfidence) == tier {
			result = append(result, p)
		}
	}
	return result
}

// FilterByReviewBucket keeps points in the review bucket, using highMin as the
// review threshold.
func FilterByReviewBucket(list []Point, bucket ReviewBucket, highMin int) []Point {
	var result []Point
	for _, p := range list {
		if ReviewBucketWithThreshold(p.NormalizationConfidence, highMin) == bucket {
			result = append(result, p)
		}
	}
	return result
}

// PointFilter narrows a point list by tier and review bucket. Empty fields
// match everything.
type PointFilter struct {
	Tier         Tier         `json:"tier,omitempty"`
	ReviewBucket ReviewBucket `json:"review,omitempty"`
}

// Apply returns the points passing both filters, keeping input order.
func (f PointFilter) Apply(list []Point, reviewHighMin int) []Point {
	if f.Tier != "" {
		list = FilterByTier(list, f.Tier)
	}
	if f.ReviewBucket != "" {
		list = FilterByReviewBucket(list, f.ReviewBucket, reviewHighMin)
	}
	return list
}

// ParsePointFilter builds a filter from optional tier and review names.
func ParsePointFilter(tier, review string) (PointFilter, error) {
	var f PointFilter
	var err error
	if tier != "" {
		if f.Tier, err = ParseTier(tier); err != nil {
			return PointFilter{}, err
		}
	}
	if review != "" {
		if f.ReviewBucket, err = ParseReviewBucket(review); err != nil {
			return PointFilter{}, err
		}
	}
	return f, nil
}
