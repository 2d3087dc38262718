package ports

import (
	"context"
	"errors"
	"time"

	"postura/internal/domain/check"
)

var ErrResultNotFound = errors.New("result not found")

type Result struct {
	ID               string
	CheckID          string
	ControlID        *string
	Status           check.ResultStatus
	Severity         check.Severity
	Notes            string
	EvidenceLinkID   *string
	EvidenceBundleID *string
	RecordedBy       string
	PublicationState check.PublicationState
	ExecutedAt       time.Time
	ValidatedAt      *time.Time
	PublishedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type ResultFilter struct {
	CheckID          string
	ControlID        string
	Status           check.ResultStatus
	PublicationState check.PublicationState
	Limit            int
	Offset           int
}

type ResultRepository interface {
	CreateResult(ctx context.Context, r Result) (Result, error)
	GetResult(ctx context.Context, id string) (Result, error)
	UpdateResult(ctx context.Context, r Result) error
	ListResults(ctx context.Context, filter ResultFilter) ([]Result, int64, error)
	// ListScorable returns VALIDATED/PUBLISHED results with a settled outcome
	// (PASS/FAIL/WARNING/ERROR) executed at or after since, for the given
	// checks. Pending reviews never appear here.
	ListScorable(ctx context.Context, checkIDs []string, since time.Time) ([]Result, error)
}
