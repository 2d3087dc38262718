package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"postura/internal/bootstrap/logging"
	"postura/internal/domain/check"
	"postura/internal/errs"
	"postura/internal/ports"
)

// Service advances schedule bookkeeping for due checks. It never triggers
// execution itself; that belongs to an external runner.
type Service struct {
	checks ports.CheckRepository
}

func NewService(checks ports.CheckRepository) *Service {
	return &Service{checks: checks}
}

// PollDueChecks stamps lastRunAt and the next due time on every ACTIVE check
// whose nextRunAt has passed. Advancement is conditional per row, so
// concurrent pollers touch each row at most once. Returns the number of
// checks advanced.
func (s *Service) PollDueChecks(ctx context.Context, now time.Time) (int, error) {
	if ctx == nil {
		return 0, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return 0, errs.Wrap(err, "check context")
	}

	due, err := s.checks.ListDueChecks(ctx, now)
	if err != nil {
		return 0, err
	}

	touched := 0
	for _, chk := range due {
		if chk.NextRunAt == nil {
			continue
		}

		next := check.CalculateNextRunAt(chk.Frequency, now)
		advanced, err := s.checks.AdvanceSchedule(ctx, chk.ID, *chk.NextRunAt, now, next)
		if err != nil {
			return touched, err
		}
		if advanced {
			touched++
		}
	}
	return touched, nil
}

// RunLoop polls on the given interval until the context is cancelled.
func (s *Service) RunLoop(ctx context.Context, interval time.Duration) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			touched, err := s.PollDueChecks(ctx, time.Now().UTC())
			if err != nil {
				logging.Error(ctx, "scheduler poll failed", slog.Any("err", errs.Loggable(err)))
				continue
			}
			if touched > 0 {
				logging.Info(ctx, "scheduler advanced due checks", slog.Int("touched", touched))
			}
		}
	}
}
