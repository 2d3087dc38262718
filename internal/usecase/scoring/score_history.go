package scoring

import (
	"context"
	"errors"
	"sort"
	"time"

	"postura/internal/domain/check"
	"postura/internal/errs"
	"postura/internal/ports"
)

const (
	defaultHistoryLimit = 30
	maxHistoryLimit     = 365
)

// GetControlScoreHistory returns up to limit score snapshots for a control.
// When fewer snapshots exist than requested, the lookback window is
// recomputed from eligible results and upserted; recomputation over the same
// inputs is idempotent.
func (s *Service) GetControlScoreHistory(ctx context.Context, controlID string, granularityRaw string, limit int) (ScoreHistoryOutput, error) {
	if ctx == nil {
		return ScoreHistoryOutput{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ScoreHistoryOutput{}, errs.Wrap(err, "check context")
	}

	granularity, err := check.NormalizeGranularity(granularityRaw)
	if err != nil {
		return ScoreHistoryOutput{}, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	control, err := s.controls.GetControl(ctx, controlID)
	if err != nil {
		return ScoreHistoryOutput{}, err
	}

	existing, err := s.scores.ListScores(ctx, controlID, granularity, limit)
	if err != nil {
		return ScoreHistoryOutput{}, err
	}
	if len(existing) >= limit {
		return s.buildOutput(ctx, control.ID, granularity, existing), nil
	}

	links, err := s.checks.ListLinksForControl(ctx, controlID)
	if err != nil {
		return ScoreHistoryOutput{}, err
	}
	if len(links) == 0 {
		// A control with no checks has no computable score.
		return s.buildOutput(ctx, control.ID, granularity, existing), nil
	}

	if err := s.recomputeWindows(ctx, control, granularity, limit, links); err != nil {
		return ScoreHistoryOutput{}, err
	}

	refreshed, err := s.scores.ListScores(ctx, controlID, granularity, limit)
	if err != nil {
		return ScoreHistoryOutput{}, err
	}
	return s.buildOutput(ctx, control.ID, granularity, refreshed), nil
}

type bucketAccumulator struct {
	numerator   float64
	denominator float64
	sampleSize  int
}

func (s *Service) recomputeWindows(
	ctx context.Context,
	control ports.Control,
	granularity check.Granularity,
	limit int,
	links []ports.CheckControlLink,
) error {
	weightByCheck := make(map[string]float64, len(links))
	checkIDs := make([]string, 0, len(links))
	for _, link := range links {
		weight := link.Weight * check.EnforcementMultiplier(link.EnforcementLevel)
		weightByCheck[link.CheckID] = weight
		checkIDs = append(checkIDs, link.CheckID)
	}

	now := time.Now().UTC()
	lookback := time.Duration(check.WindowSizeDays(granularity)*limit) * 24 * time.Hour
	results, err := s.results.ListScorable(ctx, checkIDs, now.Add(-lookback))
	if err != nil {
		return err
	}

	buckets := map[time.Time]*bucketAccumulator{}
	for _, result := range results {
		weight, ok := weightByCheck[result.CheckID]
		if !ok || weight <= 0 {
			// Non-positive weight excludes the result entirely.
			continue
		}

		start := check.BucketStart(result.ExecutedAt, granularity)
		acc := buckets[start]
		if acc == nil {
			acc = &bucketAccumulator{}
			buckets[start] = acc
		}
		acc.numerator += check.ScoreValue(result.Status) * weight
		acc.denominator += weight
		acc.sampleSize++
	}

	starts := make([]time.Time, 0, len(buckets))
	for start := range buckets {
		starts = append(starts, start)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	for _, start := range starts {
		acc := buckets[start]
		if acc.denominator <= 0 {
			// Zero eligible weight: drop the bucket rather than store a
			// manufactured 0.0.
			continue
		}

		raw := acc.numerator / acc.denominator
		score := check.AdjustScore(raw, control.RiskTier)

		if err := s.scores.UpsertScore(ctx, ports.ControlScore{
			ControlID:      control.ID,
			Granularity:    granularity,
			WindowStart:    start,
			WindowEnd:      check.BucketEnd(start, granularity),
			Score:          score,
			Classification: check.Classify(score),
			SampleSize:     acc.sampleSize,
			Numerator:      acc.numerator,
			Denominator:    acc.denominator,
			ComputedAt:     now,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) buildOutput(ctx context.Context, controlID string, granularity check.Granularity, history []ports.ControlScore) ScoreHistoryOutput {
	out := ScoreHistoryOutput{
		ControlID:   controlID,
		Granularity: string(granularity),
		History:     make([]ScoreView, 0, len(history)),
	}
	for _, snapshot := range history {
		out.History = append(out.History, projectScore(snapshot))
	}

	if len(history) > 0 {
		var sum float64
		for _, snapshot := range history {
			sum += snapshot.Score
		}
		avg := check.Round4(sum / float64(len(history)))
		out.Summary.AverageScore = &avg

		latest := history[len(history)-1]
		out.Summary.LatestClassification = string(latest.Classification)
		s.setCacheBestEffort(ctx, cacheClassificationKey(controlID, string(granularity)), string(latest.Classification))
	}
	return out
}

func (s *Service) setCacheBestEffort(ctx context.Context, key string, value string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Set(ctx, key, value, 0)
}
