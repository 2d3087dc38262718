package scoring

import (
	"time"

	"postura/internal/ports"
)

// Service rolls published results up into time-windowed posture scores per
// control.
type Service struct {
	checks   ports.CheckRepository
	controls ports.ControlRepository
	results  ports.ResultRepository
	scores   ports.ScoreRepository
	cache    ports.Cache
}

func NewService(
	checks ports.CheckRepository,
	controls ports.ControlRepository,
	results ports.ResultRepository,
	scores ports.ScoreRepository,
	cache ports.Cache,
) *Service {
	return &Service{
		checks:   checks,
		controls: controls,
		results:  results,
		scores:   scores,
		cache:    cache,
	}
}

type ScoreView struct {
	ControlID      string    `json:"controlId"`
	Granularity    string    `json:"granularity"`
	WindowStart    time.Time `json:"windowStart"`
	WindowEnd      time.Time `json:"windowEnd"`
	Score          float64   `json:"score"`
	Classification string    `json:"classification"`
	SampleSize     int       `json:"sampleSize"`
	Numerator      float64   `json:"numerator"`
	Denominator    float64   `json:"denominator"`
}

// ScoreSummary aggregates the returned history. AverageScore is nil, not 0,
// when there is no history at all.
type ScoreSummary struct {
	AverageScore         *float64 `json:"averageScore"`
	LatestClassification string   `json:"latestClassification,omitempty"`
}

type ScoreHistoryOutput struct {
	ControlID   string       `json:"controlId"`
	Granularity string       `json:"granularity"`
	History     []ScoreView  `json:"history"`
	Summary     ScoreSummary `json:"summary"`
}

func projectScore(s ports.ControlScore) ScoreView {
	return ScoreView{
		ControlID:      s.ControlID,
		Granularity:    string(s.Granularity),
		WindowStart:    s.WindowStart,
		WindowEnd:      s.WindowEnd,
		Score:          s.Score,
		Classification: string(s.Classification),
		SampleSize:     s.SampleSize,
		Numerator:      s.Numerator,
		Denominator:    s.Denominator,
	}
}

func cacheClassificationKey(controlID string, granularity string) string {
	return "control_classification:" + controlID + ":" + granularity
}
