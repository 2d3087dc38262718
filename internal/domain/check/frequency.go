package check

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// FrequencyKind tags how a frequency string was understood.
type FrequencyKind string

const (
	FrequencyHourly       FrequencyKind = "HOURLY"
	FrequencyDaily        FrequencyKind = "DAILY"
	FrequencyWeekly       FrequencyKind = "WEEKLY"
	FrequencyCustom       FrequencyKind = "CUSTOM"
	FrequencyUnrecognized FrequencyKind = "UNRECOGNIZED"
)

// Frequency is the parsed form of a free-form frequency string.
// Unrecognized input resolves to a daily interval rather than an error;
// existing callers rely on that permissive fallback.
type Frequency struct {
	Kind     FrequencyKind
	Interval time.Duration
}

var (
	isoDurationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?$`)
	shorthandRe   = regexp.MustCompile(`^(\d+)([HD])$`)
)

const dayInterval = 24 * time.Hour

// ParseFrequency understands "hourly"/"daily"/"weekly", ISO-8601-like
// "PT{h}H{m}M", and shorthand "{n}h"/"{n}d", case-insensitively. Anything
// else parses as Unrecognized with a daily interval.
func ParseFrequency(raw string) Frequency {
	spec := strings.ToUpper(strings.TrimSpace(raw))

	switch spec {
	case "HOURLY":
		return Frequency{Kind: FrequencyHourly, Interval: time.Hour}
	case "DAILY":
		return Frequency{Kind: FrequencyDaily, Interval: dayInterval}
	case "WEEKLY":
		return Frequency{Kind: FrequencyWeekly, Interval: 7 * dayInterval}
	}

	if m := isoDurationRe.FindStringSubmatch(spec); m != nil {
		hours, _ := strconv.Atoi(m[1])
		minutes, _ := strconv.Atoi(m[2])
		interval := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute
		if interval > 0 {
			return Frequency{Kind: FrequencyCustom, Interval: interval}
		}
		// PT with zero total falls back to daily.
		return Frequency{Kind: FrequencyUnrecognized, Interval: dayInterval}
	}

	if m := shorthandRe.FindStringSubmatch(spec); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n < 1 {
			n = 1
		}
		switch m[2] {
		case "H":
			return Frequency{Kind: FrequencyHourly, Interval: time.Duration(n) * time.Hour}
		case "D":
			return Frequency{Kind: FrequencyDaily, Interval: time.Duration(n) * dayInterval}
		}
	}

	return Frequency{Kind: FrequencyUnrecognized, Interval: dayInterval}
}

// CalculateNextRunAt resolves the frequency string and advances from by one
// interval.
func CalculateNextRunAt(frequency string, from time.Time) time.Time {
	return from.Add(ParseFrequency(frequency).Interval)
}
