package check

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a check definition.
type Status string

const (
	StatusDraft              Status = "DRAFT"
	StatusReadyForValidation Status = "READY_FOR_VALIDATION"
	StatusActive             Status = "ACTIVE"
	StatusRetired            Status = "RETIRED"
)

// Type describes how a check is executed.
type Type string

const (
	TypeAutomated Type = "AUTOMATED"
	TypeManual    Type = "MANUAL"
	TypeHybrid    Type = "HYBRID"
)

type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// ResultStatus is the recorded outcome of one check execution.
type ResultStatus string

const (
	ResultPass          ResultStatus = "PASS"
	ResultFail          ResultStatus = "FAIL"
	ResultWarning       ResultStatus = "WARNING"
	ResultPendingReview ResultStatus = "PENDING_REVIEW"
	ResultError         ResultStatus = "ERROR"
)

// PublicationState gates which results feed scoring. It only moves forward.
type PublicationState string

const (
	PublicationPending   PublicationState = "PENDING"
	PublicationValidated PublicationState = "VALIDATED"
	PublicationPublished PublicationState = "PUBLISHED"
)

type ReviewState string

const (
	ReviewOpen       ReviewState = "OPEN"
	ReviewInProgress ReviewState = "IN_PROGRESS"
	ReviewCompleted  ReviewState = "COMPLETED"
)

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// EnforcementLevel is the strength of a check-to-control link, used as a
// scoring multiplier.
type EnforcementLevel string

const (
	EnforcementOptional    EnforcementLevel = "OPTIONAL"
	EnforcementRecommended EnforcementLevel = "RECOMMENDED"
	EnforcementMandatory   EnforcementLevel = "MANDATORY"
)

// RiskTier is a control's risk classification, used as a scoring divisor.
type RiskTier string

const (
	RiskLow    RiskTier = "LOW"
	RiskMedium RiskTier = "MEDIUM"
	RiskHigh   RiskTier = "HIGH"
)

type Granularity string

const (
	GranularityDaily   Granularity = "DAILY"
	GranularityWeekly  Granularity = "WEEKLY"
	GranularityMonthly Granularity = "MONTHLY"
)

type Classification string

const (
	ClassificationPassing        Classification = "PASSING"
	ClassificationNeedsAttention Classification = "NEEDS_ATTENTION"
	ClassificationFailing        Classification = "FAILING"
)

func NormalizeStatus(raw string) (Status, error) {
	switch Status(normalize(raw)) {
	case StatusDraft, StatusReadyForValidation, StatusActive, StatusRetired:
		return Status(normalize(raw)), nil
	}
	return "", invalidEnum("check status", raw)
}

func NormalizeType(raw string) (Type, error) {
	switch Type(normalize(raw)) {
	case TypeAutomated, TypeManual, TypeHybrid:
		return Type(normalize(raw)), nil
	}
	return "", invalidEnum("check type", raw)
}

func NormalizeSeverity(raw string) (Severity, error) {
	switch Severity(normalize(raw)) {
	case SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return Severity(normalize(raw)), nil
	}
	return "", invalidEnum("severity", raw)
}

func NormalizeResultStatus(raw string) (ResultStatus, error) {
	switch ResultStatus(normalize(raw)) {
	case ResultPass, ResultFail, ResultWarning, ResultPendingReview, ResultError:
		return ResultStatus(normalize(raw)), nil
	}
	return "", invalidEnum("result status", raw)
}

func NormalizePriority(raw string) (Priority, error) {
	switch Priority(normalize(raw)) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return Priority(normalize(raw)), nil
	}
	return "", invalidEnum("priority", raw)
}

func NormalizeEnforcementLevel(raw string) (EnforcementLevel, error) {
	switch EnforcementLevel(normalize(raw)) {
	case EnforcementOptional, EnforcementRecommended, EnforcementMandatory:
		return EnforcementLevel(normalize(raw)), nil
	}
	return "", invalidEnum("enforcement level", raw)
}

func NormalizeRiskTier(raw string) (RiskTier, error) {
	switch RiskTier(normalize(raw)) {
	case RiskLow, RiskMedium, RiskHigh:
		return RiskTier(normalize(raw)), nil
	}
	return "", invalidEnum("risk tier", raw)
}

func NormalizeGranularity(raw string) (Granularity, error) {
	switch Granularity(normalize(raw)) {
	case GranularityDaily, GranularityWeekly, GranularityMonthly:
		return Granularity(normalize(raw)), nil
	}
	return "", invalidEnum("granularity", raw)
}

func normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

func invalidEnum(kind string, raw string) error {
	return fmt.Errorf("%w: unknown %s %q", ErrValidation, kind, raw)
}
