package signatures

import "context"

// Feedback counts reviewer reactions to a signature.
type Feedback struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
}

// Analytics is derived usage data, read-only to the engine.
type Analytics struct {
	SignatureID    string   `json:"signature_id"`
	TotalMatches   int      `json:"total_matches"`
	Accuracy       float64  `json:"accuracy"`
	UsageFrequency int      `json:"usage_frequency"`
	UserFeedback   Feedback `json:"user_feedback"`
}

// AnalyticsReader reads signature analytics owned by another component.
type AnalyticsReader interface {
	Get(ctx context.Context, signatureID string) (*Analytics, error)
}

// AnalyticsDelta is an increment applied to a signature's analytics.
type AnalyticsDelta struct {
	Matches  int
	Usage    int
	Positive int
	Negative int
}

// Apply adds the delta and recomputes accuracy as the positive share of all
// feedback. Usage never drops below zero.
func (a *Analytics) Apply(d AnalyticsDelta) {
	a.TotalMatches += d.Matches
	a.UsageFrequency += d.Usage
	if a.UsageFrequency < 0 {
		a.UsageFrequency = 0
	}
	a.UserFeedback.Positive += d.Positive
	a.UserFeedback.Negative += d.Negative
	total := a.UserFeedback.Positive + a.UserFeedback.Negative
	if total > 0 {
		a.Accuracy = float64(a.UserFeedback.Positive) / float64(total)
	}
}

// SignatureDelta addresses an increment to one signature.
type SignatureDelta struct {
	SignatureID string
	Delta       AnalyticsDelta
}

// AnalyticsStore persists analytics increments.
type AnalyticsStore interface {
	AnalyticsReader
	// Apply stores every increment or none of them.
	Apply(ctx context.Context, deltas ...SignatureDelta) error
}
