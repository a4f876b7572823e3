package cli

import (
	"github.com/fatih/color"

	points "github.com/phunnicutt1/synapse-app-sub001/internal/points/domain"
)

var (
	good = color.New(color.FgGreen).SprintFunc()
	warn = color.New(color.FgYellow).SprintFunc()
	bad  = color.New(color.FgRed).SprintFunc()
	dim  = color.New(color.Faint).SprintFunc()
)

func paintTier(tier points.Tier) string {
	switch tier {
	case points.TierHigh:
		return good(string(tier))
	case points.TierMedium:
		return warn(string(tier))
	case points.TierLow:
		return bad(string(tier))
	default:
		return dim(string(tier))
	}
}

func paintBucket(bucket points.ReviewBucket) string {
	if bucket == points.ReviewHighConfidence {
		return good(string(bucket))
	}
	return warn(string(bucket))
}

func paintRatio(ratio float64, full bool) string {
	switch {
	case full:
		return good("full")
	case ratio >= 0.5:
		return warn(percent(ratio))
	default:
		return bad(percent(ratio))
	}
}
