package registry

import (
	"encoding/json"
	"time"

	"postura/internal/domain/check"
	"postura/internal/ports"
)

// Service is the check registry: definition CRUD, lifecycle transitions, and
// version snapshots.
type Service struct {
	checks   ports.CheckRepository
	controls ports.ControlRepository
	uow      ports.UnitOfWork
}

func NewService(checks ports.CheckRepository, controls ports.ControlRepository, uow ports.UnitOfWork) *Service {
	return &Service{
		checks:   checks,
		controls: controls,
		uow:      uow,
	}
}

type ControlLinkInput struct {
	ControlID        string
	Weight           float64
	EnforcementLevel string
}

type CreateCheckInput struct {
	Name        string
	Description string
	Type        string
	Severity    string
	Frequency   string
	ProbeID     string
	Tags        []string
	Metadata    map[string]any
	Links       []ControlLinkInput
	Actor       string
}

// UpdateCheckInput is a patch; nil pointer fields leave the check untouched.
// Links replace the full link set when non-nil.
type UpdateCheckInput struct {
	Name        *string
	Description *string
	Status      *string
	Severity    *string
	Frequency   *string
	ProbeID     *string
	Tags        []string
	Metadata    map[string]any
	Links       *[]ControlLinkInput
	BumpVersion bool
	Actor       string
}

type ListChecksInput struct {
	Status    string
	Type      string
	Severity  string
	ControlID string
	ProbeID   string
	Search    string
	Limit     int
	Offset    int
}

// CheckListItem is the compact list projection.
type CheckListItem struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Type            string     `json:"type"`
	Status          string     `json:"status"`
	SeverityDefault string     `json:"severityDefault"`
	Frequency       string     `json:"frequency"`
	Version         int        `json:"version"`
	LastRunAt       *time.Time `json:"lastRunAt"`
	NextRunAt       *time.Time `json:"nextRunAt"`
	Tags            []string   `json:"tags"`
}

// ControlLinkView mirrors a stored link in responses.
type ControlLinkView struct {
	ControlID        string  `json:"controlId"`
	Weight           float64 `json:"weight"`
	EnforcementLevel string  `json:"enforcementLevel"`
}

type VersionView struct {
	Version   int       `json:"version"`
	Status    string    `json:"status"`
	Actor     string    `json:"actor,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// CheckDetail is the full projection, including links and version timeline.
type CheckDetail struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	Type            string            `json:"type"`
	Status          string            `json:"status"`
	SeverityDefault string            `json:"severityDefault"`
	Frequency       string            `json:"frequency"`
	ProbeID         string            `json:"probeId,omitempty"`
	Version         int               `json:"version"`
	Tags            []string          `json:"tags"`
	Metadata        map[string]any    `json:"metadata"`
	LastRunAt       *time.Time        `json:"lastRunAt"`
	NextRunAt       *time.Time        `json:"nextRunAt"`
	ReadyAt         *time.Time        `json:"readyAt"`
	ActivatedAt     *time.Time        `json:"activatedAt"`
	RetiredAt       *time.Time        `json:"retiredAt"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
	Links           []ControlLinkView `json:"controlLinks"`
	Versions        []VersionView     `json:"versions"`
}

// CoverageSummary counts controls by the strongest enforcement level of any
// link pointing to them.
type CoverageSummary struct {
	Mandatory   int `json:"mandatory"`
	Recommended int `json:"recommended"`
	Optional    int `json:"optional"`
}

type ListChecksOutput struct {
	Items           []CheckListItem  `json:"items"`
	Total           int64            `json:"total"`
	Limit           int              `json:"limit"`
	Offset          int              `json:"offset"`
	CountsByStatus  map[string]int64 `json:"countsByStatus"`
	CountsByType    map[string]int64 `json:"countsByType"`
	CountsBySev     map[string]int64 `json:"countsBySeverity"`
	ControlCoverage CoverageSummary  `json:"controlCoverage"`
}

func projectListItem(c ports.Check) CheckListItem {
	return CheckListItem{
		ID:              c.ID,
		Name:            c.Name,
		Type:            string(c.Type),
		Status:          string(c.Status),
		SeverityDefault: string(c.SeverityDefault),
		Frequency:       c.Frequency,
		Version:         c.Version,
		LastRunAt:       c.LastRunAt,
		NextRunAt:       c.NextRunAt,
		Tags:            c.Tags,
	}
}

func projectDetail(c ports.Check, links []ports.CheckControlLink, versions []ports.CheckVersion) CheckDetail {
	linkViews := make([]ControlLinkView, 0, len(links))
	for _, link := range links {
		linkViews = append(linkViews, ControlLinkView{
			ControlID:        link.ControlID,
			Weight:           link.Weight,
			EnforcementLevel: string(link.EnforcementLevel),
		})
	}

	versionViews := make([]VersionView, 0, len(versions))
	for _, v := range versions {
		versionViews = append(versionViews, VersionView{
			Version:   v.Version,
			Status:    string(v.Status),
			Actor:     v.Actor,
			CreatedAt: v.CreatedAt,
		})
	}

	return CheckDetail{
		ID:              c.ID,
		Name:            c.Name,
		Description:     c.Description,
		Type:            string(c.Type),
		Status:          string(c.Status),
		SeverityDefault: string(c.SeverityDefault),
		Frequency:       c.Frequency,
		ProbeID:         c.ProbeID,
		Version:         c.Version,
		Tags:            c.Tags,
		Metadata:        c.Metadata,
		LastRunAt:       c.LastRunAt,
		NextRunAt:       c.NextRunAt,
		ReadyAt:         c.ReadyAt,
		ActivatedAt:     c.ActivatedAt,
		RetiredAt:       c.RetiredAt,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
		Links:           linkViews,
		Versions:        versionViews,
	}
}

// serializeDefinition captures the full check for a version snapshot.
func serializeDefinition(c ports.Check) string {
	data, err := json.Marshal(projectDetail(c, nil, nil))
	if err != nil {
		return "{}"
	}
	return string(data)
}

func serializeDiff(previousVersion int, updatedVersion int) string {
	data, _ := json.Marshal(map[string]int{
		"previousVersion": previousVersion,
		"updatedVersion":  updatedVersion,
	})
	return string(data)
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

// strongestEnforcement orders MANDATORY > RECOMMENDED > OPTIONAL.
func strongestEnforcement(a check.EnforcementLevel, b check.EnforcementLevel) check.EnforcementLevel {
	rank := func(level check.EnforcementLevel) int {
		switch level {
		case check.EnforcementMandatory:
			return 2
		case check.EnforcementRecommended:
			return 1
		default:
			return 0
		}
	}
	if rank(b) > rank(a) {
		return b
	}
	return a
}
