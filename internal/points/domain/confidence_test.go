package points

import (
	"errors"
	"testing"
)

func TestFilters(t *testing.T) {
	list := []Point{
		{ID: "a"},
		{ID: "b", NormalizationConfidence: intPtr(50)},
		{ID: "c", NormalizationConfidence: intPtr(75)},
		{ID: "d", NormalizationConfidence: intPtr(95)},
	}
	if got := FilterByTier(list, TierMedium); len(got) != 1 || got[0].ID != "c" {
		t.Fatalf("unexpected medium filter: %+v", got)
	}
	if got := FilterByTier(list, TierNone); len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("unexpected none filter: %+v", got)
	}
	if got := FilterByReviewBucket(list, ReviewNeeded, ReviewHighMin); len(got) != 2 {
		t.Fatalf("unexpected needs-review filter: %+v", got)
	}
}

func TestClampConfidence(t *testing.T) {
	if ClampConfidence(-3) != 0 || ClampConfidence(130) != 100 || ClampConfidence(42) != 42 {
		t.Fatalf("clamp out of range")
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, ReviewHighMin)
	if s.TotalPoints != 0 || s.NormalizationRate != 0 || s.AverageConfidence != 0 {
		t.Fatalf("unexpected empty summary: %+v", s)
	}
}

func TestParsePointFilter(t *testing.T) {
	f, err := ParsePointFilter("medium", "needs_review")
	if err != nil || f.Tier != TierMedium || f.ReviewBucket != ReviewNeeded {
		t.Fatalf("unexpected filter %+v %v", f, err)
	}
	if f, err := ParsePointFilter("", ""); err != nil || f != (PointFilter{}) {
		t.Fatalf("expected empty filter, got %+v %v", f, err)
	}
	if _, err := ParsePointFilter("urgent", ""); !errors.Is(err, ErrUnknownBucket) {
		t.Fatalf("expected ErrUnknownBucket, got %v", err)
	}
	list := []Point{
		{ID: "a", NormalizationConfidence: Confidence(75)},
		{ID: "b", NormalizationConfidence: Confidence(85)},
		{ID: "c"},
	}
	got := PointFilter{Tier: TierMedium, ReviewBucket: ReviewHighConfidence}.Apply(list, 80)
	if len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("unexpected filtered points %+v", got)
	}
}
