package check

import (
	"math"
	"time"
)

// Scoring constants. Enforcement scales a result's weight, risk tier divides
// the aggregated score so higher-risk controls are held to a stricter bar.
const (
	multiplierMandatory   = 1.5
	multiplierRecommended = 1.0
	multiplierOptional    = 0.5

	riskMultiplierHigh   = 1.5
	riskMultiplierMedium = 1.0
	riskMultiplierLow    = 0.75

	passingThreshold        = 0.85
	needsAttentionThreshold = 0.60
)

// ScoreValue maps a result outcome to its contribution to the numerator.
// PENDING_REVIEW results never reach scoring and map to 0 here.
func ScoreValue(status ResultStatus) float64 {
	switch status {
	case ResultPass:
		return 1
	case ResultWarning:
		return 0.5
	default:
		return 0
	}
}

func EnforcementMultiplier(level EnforcementLevel) float64 {
	switch level {
	case EnforcementMandatory:
		return multiplierMandatory
	case EnforcementOptional:
		return multiplierOptional
	default:
		return multiplierRecommended
	}
}

func RiskMultiplier(tier RiskTier) float64 {
	switch tier {
	case RiskHigh:
		return riskMultiplierHigh
	case RiskLow:
		return riskMultiplierLow
	default:
		return riskMultiplierMedium
	}
}

// WindowSizeDays is the nominal bucket width used for lookback computation.
func WindowSizeDays(granularity Granularity) int {
	switch granularity {
	case GranularityWeekly:
		return 7
	case GranularityMonthly:
		return 30
	default:
		return 1
	}
}

// BucketStart snaps a timestamp to the start of its granularity bucket, in
// UTC: midnight for DAILY, the Monday of the ISO week for WEEKLY (Sunday
// counts as offset 6), the first of the month for MONTHLY.
func BucketStart(t time.Time, granularity Granularity) time.Time {
	u := t.UTC()
	switch granularity {
	case GranularityWeekly:
		offset := (int(u.Weekday()) + 6) % 7
		day := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
		return day.AddDate(0, 0, -offset)
	case GranularityMonthly:
		return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	}
}

// BucketEnd returns the exclusive end of the bucket starting at start.
func BucketEnd(start time.Time, granularity Granularity) time.Time {
	switch granularity {
	case GranularityWeekly:
		return start.AddDate(0, 0, 7)
	case GranularityMonthly:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// AdjustScore divides the raw score by the control's risk multiplier, clamps
// to [0,1], and rounds to 4 decimal places.
func AdjustScore(raw float64, tier RiskTier) float64 {
	adjusted := raw / RiskMultiplier(tier)
	if adjusted < 0 {
		adjusted = 0
	}
	if adjusted > 1 {
		adjusted = 1
	}
	return Round4(adjusted)
}

func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// Classify bands a score: >=0.85 PASSING, >=0.60 NEEDS_ATTENTION, else
// FAILING. Lower bounds are inclusive.
func Classify(score float64) Classification {
	switch {
	case score >= passingThreshold:
		return ClassificationPassing
	case score >= needsAttentionThreshold:
		return ClassificationNeedsAttention
	default:
		return ClassificationFailing
	}
}
