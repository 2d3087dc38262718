package ports

import (
	"context"
	"errors"
	"time"

	"postura/internal/domain/check"
)

var ErrCheckNotFound = errors.New("check not found")

type Check struct {
	ID              string
	Name            string
	Description     string
	Type            check.Type
	Status          check.Status
	SeverityDefault check.Severity
	Frequency       string
	ProbeID         string
	Version         int
	Tags            []string
	Metadata        map[string]any
	CreatedBy       string
	LastRunAt       *time.Time
	NextRunAt       *time.Time
	ReadyAt         *time.Time
	ActivatedAt     *time.Time
	RetiredAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CheckControlLink ties a check to a control with a scoring weight. LinkOrder
// is the insertion sequence; the first link by order is the default control
// for results recorded without one.
type CheckControlLink struct {
	LinkOrder        uint64
	CheckID          string
	ControlID        string
	Weight           float64
	EnforcementLevel check.EnforcementLevel
}

// CheckVersion is a durable snapshot written on every version bump.
type CheckVersion struct {
	ID             string
	CheckID        string
	Version        int
	Status         check.Status
	DefinitionJSON string
	DiffJSON       string
	Actor          string
	CreatedAt      time.Time
}

type CheckFilter struct {
	Status    check.Status
	Type      check.Type
	Severity  check.Severity
	ControlID string
	ProbeID   string
	Search    string
	Limit     int
	Offset    int
}

// CheckAggregates carries grouped counts for the list endpoint.
type CheckAggregates struct {
	ByStatus   map[check.Status]int64
	ByType     map[check.Type]int64
	BySeverity map[check.Severity]int64
}

type CheckRepository interface {
	CreateCheck(ctx context.Context, c Check) (Check, error)
	GetCheck(ctx context.Context, id string) (Check, error)
	UpdateCheck(ctx context.Context, c Check) error
	ListChecks(ctx context.Context, filter CheckFilter) ([]Check, int64, error)
	AggregateChecks(ctx context.Context, filter CheckFilter) (CheckAggregates, error)

	ReplaceControlLinks(ctx context.Context, checkID string, links []CheckControlLink) error
	ListControlLinks(ctx context.Context, checkID string) ([]CheckControlLink, error)
	ListLinksForControl(ctx context.Context, controlID string) ([]CheckControlLink, error)
	ListAllLinks(ctx context.Context) ([]CheckControlLink, error)

	CreateVersionSnapshot(ctx context.Context, snapshot CheckVersion) error
	ListVersionSnapshots(ctx context.Context, checkID string) ([]CheckVersion, error)

	ListDueChecks(ctx context.Context, now time.Time) ([]Check, error)
	// AdvanceSchedule applies the poll bookkeeping only if nextRunAt still
	// matches the observed value, so concurrent pollers cannot double-advance.
	AdvanceSchedule(ctx context.Context, checkID string, observedNextRunAt time.Time, lastRunAt time.Time, nextRunAt time.Time) (bool, error)
}
