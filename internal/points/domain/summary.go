package points

// Classification is the per-point categorization result.
type Classification struct {
	PointID      string       `json:"point_id"`
	Key          PointKey     `json:"key"`
	Category     Category     `json:"category"`
	Tier         Tier         `json:"tier"`
	ReviewBucket ReviewBucket `json:"review_bucket"`
}

// Classify categorizes a point and buckets its confidence.
func Classify(p Point, reviewHighMin int) Classification {
	return Classification{
		PointID:      p.ID,
		Key:          p.Key(),
		Category:     Categorize(p),
		Tier:         ConfidenceTier(p.NormalizationConfidence),
		ReviewBucket: ReviewBucketWithThreshold(p.NormalizationConfidence, reviewHighMin),
	}
}

// ClassifyAll classifies a batch of points in order.
func ClassifyAll(list []Point, reviewHighMin int) []Classification {
	result := make([]Classification, 0, len(list))
	for _, p := range list {
		result = append(result, Classify(p, reviewHighMin))
	}
	return result
}

// Summary aggregates classifications over a point set.
type Summary struct {
	TotalPoints       int                  `json:"total_points"`
	NormalizedPoints  int                  `json:"normalized_points"`
	NormalizationRate float64              `json:"normalization_rate"`
	ScoredPoints      int                  `json:"scored_points"`
	AverageConfidence float64              `json:"average_confidence"`
	ByCategory        map[Category]int     `json:"by_category"`
	ByTier            map[Tier]int         `json:"by_tier"`
	ByReviewBucket    map[ReviewBucket]int `json:"by_review_bucket"`
}

// Summarize computes aggregates. Average confidence is over scored points only.
func Summarize(list []Point, reviewHighMin int) Summary {
	summary := Summary{
		TotalPoints:    len(list),
		ByCategory:     make(map[Category]int),
		ByTier:         make(map[Tier]int),
		ByReviewBucket: make(map[ReviewBucket]int),
	}
	var confidenceSum int
	for _, p := range list {
		c := Classify(p, reviewHighMin)
		summary.ByCategory[c.Category]++
		summary.ByTier[c.Tier]++
		summary.ByReviewBucket[c.ReviewBucket]++
		if p.IsNormalized() {
			summary.NormalizedPoints++
		}
		if p.NormalizationConfidence != nil {
			summary.ScoredPoints++
			confidenceSum += *p.NormalizationConfidence
		}
	}
	if summary.TotalPoints > 0 {
		summary.NormalizationRate = float64(summary.NormalizedPoints) / float64(summary.TotalPoints)
	}
	if summary.ScoredPoints > 0 {
		summary.AverageConfidence = float64(confidenceSum) / float64(summary.ScoredPoints)
	}
	return summary
}
