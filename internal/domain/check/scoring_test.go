package check

import (
	"testing"
	"time"
)

func TestScoreValue(t *testing.T) {
	cases := map[ResultStatus]float64{
		ResultPass:          1,
		ResultWarning:       0.5,
		ResultFail:          0,
		ResultError:         0,
		ResultPendingReview: 0,
	}
	for status, want := range cases {
		if got := ScoreValue(status); got != want {
			t.Errorf("ScoreValue(%s) = %v, want %v", status, got, want)
		}
	}
}

func TestEnforcementMultiplier(t *testing.T) {
	if got := EnforcementMultiplier(EnforcementMandatory); got != 1.5 {
		t.Errorf("MANDATORY multiplier = %v", got)
	}
	if got := EnforcementMultiplier(EnforcementRecommended); got != 1.0 {
		t.Errorf("RECOMMENDED multiplier = %v", got)
	}
	if got := EnforcementMultiplier(EnforcementOptional); got != 0.5 {
		t.Errorf("OPTIONAL multiplier = %v", got)
	}
}

func TestAdjustScoreByRiskTier(t *testing.T) {
	// High-risk controls divide by 1.5; a perfect raw score lands below the
	// passing band.
	if got := AdjustScore(1, RiskHigh); got != 0.6667 {
		t.Errorf("AdjustScore(1, HIGH) = %v, want 0.6667", got)
	}
	if got := AdjustScore(1, RiskMedium); got != 1 {
		t.Errorf("AdjustScore(1, MEDIUM) = %v, want 1", got)
	}
	// Low risk divides by 0.75 and clamps at 1.
	if got := AdjustScore(0.9, RiskLow); got != 1 {
		t.Errorf("AdjustScore(0.9, LOW) = %v, want clamp to 1", got)
	}
	if got := AdjustScore(0, RiskHigh); got != 0 {
		t.Errorf("AdjustScore(0, HIGH) = %v, want 0", got)
	}
}

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  Classification
	}{
		{1.0, ClassificationPassing},
		{0.85, ClassificationPassing},
		{0.8499, ClassificationNeedsAttention},
		{0.6, ClassificationNeedsAttention},
		{0.599999, ClassificationFailing},
		{0.0, ClassificationFailing},
	}
	for _, tc := range cases {
		if got := Classify(tc.score); got != tc.want {
			t.Errorf("Classify(%v) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestBucketStartDaily(t *testing.T) {
	at := time.Date(2026, 3, 14, 17, 45, 12, 0, time.UTC)
	want := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	if got := BucketStart(at, GranularityDaily); !got.Equal(want) {
		t.Fatalf("daily bucket start = %v, want %v", got, want)
	}
}

func TestBucketStartWeeklySnapsToMonday(t *testing.T) {
	// 2026-03-14 is a Saturday; its ISO week starts Monday 2026-03-09.
	sat := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	monday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	if got := BucketStart(sat, GranularityWeekly); !got.Equal(monday) {
		t.Fatalf("weekly bucket start for Saturday = %v, want %v", got, monday)
	}

	// Sunday normalizes to offset 6, landing on the preceding Monday.
	sun := time.Date(2026, 3, 15, 3, 0, 0, 0, time.UTC)
	if got := BucketStart(sun, GranularityWeekly); !got.Equal(monday) {
		t.Fatalf("weekly bucket start for Sunday = %v, want %v", got, monday)
	}

	// Monday snaps to itself.
	if got := BucketStart(monday.Add(5*time.Hour), GranularityWeekly); !got.Equal(monday) {
		t.Fatalf("weekly bucket start for Monday = %v, want %v", got, monday)
	}
}

func TestBucketStartMonthly(t *testing.T) {
	at := time.Date(2026, 3, 14, 23, 59, 59, 0, time.UTC)
	want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if got := BucketStart(at, GranularityMonthly); !got.Equal(want) {
		t.Fatalf("monthly bucket start = %v, want %v", got, want)
	}
}

func TestBucketEnd(t *testing.T) {
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	if got := BucketEnd(start, GranularityDaily); !got.Equal(start.AddDate(0, 0, 1)) {
		t.Errorf("daily bucket end = %v", got)
	}
	if got := BucketEnd(start, GranularityWeekly); !got.Equal(start.AddDate(0, 0, 7)) {
		t.Errorf("weekly bucket end = %v", got)
	}
	if got := BucketEnd(start, GranularityMonthly); !got.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("monthly bucket end = %v", got)
	}
}

func TestWindowSizeDays(t *testing.T) {
	if WindowSizeDays(GranularityDaily) != 1 ||
		WindowSizeDays(GranularityWeekly) != 7 ||
		WindowSizeDays(GranularityMonthly) != 30 {
		t.Fatalf("unexpected window sizes: %d %d %d",
			WindowSizeDays(GranularityDaily),
			WindowSizeDays(GranularityWeekly),
			WindowSizeDays(GranularityMonthly))
	}
}
