package registry

import (
	"context"
	"errors"

	"postura/internal/errs"
)

// GetCheck returns the detail projection with links and version timeline.
func (s *Service) GetCheck(ctx context.Context, id string) (CheckDetail, error) {
	if ctx == nil {
		return CheckDetail{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return CheckDetail{}, errs.Wrap(err, "check context")
	}

	entity, err := s.checks.GetCheck(ctx, id)
	if err != nil {
		return CheckDetail{}, err
	}

	links, err := s.checks.ListControlLinks(ctx, id)
	if err != nil {
		return CheckDetail{}, err
	}

	versions, err := s.checks.ListVersionSnapshots(ctx, id)
	if err != nil {
		return CheckDetail{}, err
	}

	return projectDetail(entity, links, versions), nil
}
