package registry

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
	defaultListLimit = 25
	maxListLimit     = 100
)

// ListChecks returns a filtered, paginated page of checks plus aggregate
// counts and a control-coverage summary.
func (s *Service) ListChecks(ctx context.Context, input ListChecksInput) (ListChecksOutput, error) {
	if ctx == nil {
		return ListChecksOutput{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ListChecksOutput{}, errs.Wrap(err, "check context")
	}

	filter, err := buildCheckFilter(input)
	if err != nil {
		return ListChecksOutput{}, err
	}

	items, total, err := s.checks.ListChecks(ctx, filter)
	if err != nil {
		return ListChecksOutput{}, err
	}

	aggregates, err := s.checks.AggregateChecks(ctx, filter)
	if err != nil {
		return ListChecksOutput{}, err
	}

	coverage, err := s.controlCoverage(ctx)
	if err != nil {
		return ListChecksOutput{}, err
	}

	out := ListChecksOutput{
		Items:           make([]CheckListItem, 0, len(items)),
		Total:           total,
		Limit:           filter.Limit,
		Offset:          filter.Offset,
		CountsByStatus:  map[string]int64{},
		CountsByType:    map[string]int64{},
		CountsBySev:     map[string]int64{},
		ControlCoverage: coverage,
	}
	for _, item := range items {
		out.Items = append(out.Items, projectListItem(item))
	}
	for status, count := range aggregates.ByStatus {
		out.CountsByStatus[string(status)] = count
	}
	for checkType, count := range aggregates.ByType {
		out.CountsByType[string(checkType)] = count
	}
	for severity, count := range aggregates.BySeverity {
		out.CountsBySev[string(severity)] = count
	}
	return out, nil
}

func buildCheckFilter(input ListChecksInput) (ports.CheckFilter, error) {
	filter := ports.CheckFilter{
		ControlID: strings.TrimSpace(input.ControlID),
		ProbeID:   strings.TrimSpace(input.ProbeID),
		Search:    strings.TrimSpace(input.Search),
	}

	if strings.TrimSpace(input.Status) != "" {
		status, err := check.NormalizeStatus(input.Status)
		if err != nil {
			return ports.CheckFilter{}, err
		}
		filter.Status = status
	}
	if strings.TrimSpace(input.Type) != "" {
		checkType, err := check.NormalizeType(input.Type)
		if err != nil {
			return ports.CheckFilter{}, err
		}
		filter.Type = checkType
	}
	if strings.TrimSpace(input.Severity) != "" {
		severity, err := check.NormalizeSeverity(input.Severity)
		if err != nil {
			return ports.CheckFilter{}, err
		}
		filter.Severity = severity
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	filter.Limit = limit

	if input.Offset < 0 {
		return ports.CheckFilter{}, fmt.Errorf("%w: offset must be >= 0", check.ErrValidation)
	}
	filter.Offset = input.Offset

	return filter, nil
}

// controlCoverage groups every link by control and counts each control once
// under the strongest enforcement level present.
func (s *Service) controlCoverage(ctx context.Context) (CoverageSummary, error) {
	links, err := s.checks.ListAllLinks(ctx)
	if err != nil {
		return CoverageSummary{}, err
	}

	strongest := make(map[string]check.EnforcementLevel, len(links))
	for _, link := range links {
		current, ok := strongest[link.ControlID]
		if !ok {
			strongest[link.ControlID] = link.EnforcementLevel
			continue
		}
		strongest[link.ControlID] = strongestEnforcement(current, link.EnforcementLevel)
	}

	var summary CoverageSummary
	for _, level := range strongest {
		switch level {
		case check.EnforcementMandatory:
			summary.Mandatory++
		case check.EnforcementRecommended:
			summary.Recommended++
		default:
			summary.Optional++
		}
	}
	return summary, nil
}
