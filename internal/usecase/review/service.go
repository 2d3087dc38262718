package review

import (
	"context"
	"log/slog"
	"time"

	"postura/internal/bootstrap/logging"
	"postura/internal/errs"
	"postura/internal/ports"
)

// Service owns the human-review queue and the transitions that finalize a
// result. Completing a task and mutating its result happen in one
// transaction: a completed review without a settled result would leave
// scoring permanently blind to that run.
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

type PublishResultInput struct {
	Severity string
	Notes    string
	Actor    string
}

type ReviewDecisionInput struct {
	Status   string
	Severity string
	Notes    string
	Reviewer string
	Publish  bool
}

type QueueItemView struct {
	ID          string         `json:"id"`
	CheckID     string         `json:"checkId"`
	ResultID    string         `json:"resultId"`
	State       string         `json:"state"`
	Priority    string         `json:"priority"`
	AssignedTo  *string        `json:"assignedTo"`
	DueAt       *time.Time     `json:"dueAt"`
	Metadata    map[string]any `json:"metadata"`
	CompletedAt *time.Time     `json:"completedAt"`
	CreatedAt   time.Time      `json:"createdAt"`
}

type ResultView struct {
	ID               string     `json:"id"`
	CheckID          string     `json:"checkId"`
	ControlID        *string    `json:"controlId"`
	Status           string     `json:"status"`
	Severity         string     `json:"severity"`
	Notes            string     `json:"notes,omitempty"`
	PublicationState string     `json:"publicationState"`
	ExecutedAt       time.Time  `json:"executedAt"`
	ValidatedAt      *time.Time `json:"validatedAt"`
	PublishedAt      *time.Time `json:"publishedAt"`
}

type CompleteReviewOutput struct {
	Item   QueueItemView `json:"item"`
	Result ResultView    `json:"result"`
}

func projectItem(item ports.ReviewQueueItem) QueueItemView {
	return QueueItemView{
		ID:          item.ID,
		CheckID:     item.CheckID,
		ResultID:    item.ResultID,
		State:       string(item.State),
		Priority:    string(item.Priority),
		AssignedTo:  item.AssignedTo,
		DueAt:       item.DueAt,
		Metadata:    item.Metadata,
		CompletedAt: item.CompletedAt,
		CreatedAt:   item.CreatedAt,
	}
}

func projectResult(r ports.Result) ResultView {
	return ResultView{
		ID:               r.ID,
		CheckID:          r.CheckID,
		ControlID:        r.ControlID,
		Status:           string(r.Status),
		Severity:         string(r.Severity),
		Notes:            r.Notes,
		PublicationState: string(r.PublicationState),
		ExecutedAt:       r.ExecutedAt,
		ValidatedAt:      r.ValidatedAt,
		PublishedAt:      r.PublishedAt,
	}
}

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
