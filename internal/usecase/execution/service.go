package execution

import (
	"context"
	"log/slog"
	"time"

	"postura/internal/bootstrap/logging"
	"postura/internal/errs"
	"postura/internal/ports"
)

// Service records externally-executed check runs and routes outcomes to
// review or alerting.
type Service struct {
	checks  ports.CheckRepository
	results ports.ResultRepository
	reviews ports.ReviewRepository
	uow     ports.UnitOfWork
	events  ports.EventPublisher
}

func NewService(
	checks ports.CheckRepository,
	results ports.ResultRepository,
	reviews ports.ReviewRepository,
	uow ports.UnitOfWork,
	events ports.EventPublisher,
) *Service {
	return &Service{
		checks:  checks,
		results: results,
		reviews: reviews,
		uow:     uow,
		events:  events,
	}
}

type RunCheckInput struct {
	Status           string
	Severity         string
	Notes            string
	ControlID        string
	RequiresReview   bool
	Priority         string
	AssignedTo       string
	DueAt            *time.Time
	EvidenceLinkID   string
	EvidenceBundleID string
	Actor            string
}

// ResultView is the serialized result shape shared by run and list outputs.
type ResultView struct {
	ID               string     `json:"id"`
	CheckID          string     `json:"checkId"`
	ControlID        *string    `json:"controlId"`
	Status           string     `json:"status"`
	Severity         string     `json:"severity"`
	Notes            string     `json:"notes,omitempty"`
	EvidenceLinkID   *string    `json:"evidenceLinkId,omitempty"`
	PublicationState string     `json:"publicationState"`
	ExecutedAt       time.Time  `json:"executedAt"`
	ValidatedAt      *time.Time `json:"validatedAt"`
	PublishedAt      *time.Time `json:"publishedAt"`
}

type RunCheckOutput struct {
	Result       ResultView `json:"result"`
	ReviewQueued bool       `json:"reviewQueued"`
	NextRunAt    time.Time  `json:"nextRunAt"`
}

func projectResult(r ports.Result) ResultView {
	return ResultView{
		ID:               r.ID,
		CheckID:          r.CheckID,
		ControlID:        r.ControlID,
		Status:           string(r.Status),
		Severity:         string(r.Severity),
		Notes:            r.Notes,
		EvidenceLinkID:   r.EvidenceLinkID,
		PublicationState: string(r.PublicationState),
		ExecutedAt:       r.ExecutedAt,
		ValidatedAt:      r.ValidatedAt,
		PublishedAt:      r.PublishedAt,
	}
}

// publishBestEffort logs and discards delivery failures; event emission must
// never fail the triggering operation.
func (s *Service) publishBestEffort(ctx context.Context, topic string, payload any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, topic, payload); err != nil {
		logging.Warn(ctx, "event publish failed",
			slog.String("topic", topic),
			slog.Any("err", errs.Loggable(err)))
	}
}
