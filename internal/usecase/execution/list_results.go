package execution

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"postura/internal/domain/check"
	"postura/internal/errs"
	"postura/internal/ports"
)

const (
	defaultResultLimit = 25
	maxResultLimit     = 100
)

type ListResultsInput struct {
	CheckID          string
	ControlID        string
	Status           string
	PublicationState string
	Limit            int
	Offset           int
}

type ListResultsOutput struct {
	Items  []ResultView `json:"items"`
	Total  int64        `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

func (s *Service) ListResults(ctx context.Context, input ListResultsInput) (ListResultsOutput, error) {
	if ctx == nil {
		return ListResultsOutput{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ListResultsOutput{}, errs.Wrap(err, "check context")
	}

	filter := ports.ResultFilter{
		CheckID:   strings.TrimSpace(input.CheckID),
		ControlID: strings.TrimSpace(input.ControlID),
	}
	if strings.TrimSpace(input.Status) != "" {
		status, err := check.NormalizeResultStatus(input.Status)
		if err != nil {
			return ListResultsOutput{}, err
		}
		filter.Status = status
	}
	if raw := strings.TrimSpace(input.PublicationState); raw != "" {
		switch check.PublicationState(strings.ToUpper(raw)) {
		case check.PublicationPending, check.PublicationValidated, check.PublicationPublished:
			filter.PublicationState = check.PublicationState(strings.ToUpper(raw))
		default:
			return ListResultsOutput{}, fmt.Errorf("%w: unknown publication state %q", check.ErrValidation, raw)
		}
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultResultLimit
	}
	if limit > maxResultLimit {
		limit = maxResultLimit
	}
	filter.Limit = limit

	if input.Offset < 0 {
		return ListResultsOutput{}, fmt.Errorf("%w: offset must be >= 0", check.ErrValidation)
	}
	filter.Offset = input.Offset

	results, total, err := s.results.ListResults(ctx, filter)
	if err != nil {
		return ListResultsOutput{}, err
	}

	out := ListResultsOutput{
		Items:  make([]ResultView, 0, len(results)),
		Total:  total,
		Limit:  limit,
		Offset: filter.Offset,
	}
	for _, r := range results {
		out.Items = append(out.Items, projectResult(r))
	}
	return out, nil
}
