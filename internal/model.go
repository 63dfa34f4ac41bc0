package internal

import "time"

// Mood weights are signed integers on a fixed scale: -2 (very bad) to
// +2 (very good). Daily averages stay inside the same range, or are nil
// when a day has no events. nil means "no data", never neutral.
const (
	MinMoodWeight = -2
	MaxMoodWeight = 2
)

type User struct {
	ID           string    `json:"id"`
	Token        string    `json:"token"`
	Name         string    `json:"name"`
	RegisteredAt time.Time `json:"registered_at"`
}

// MoodEvent is one timestamped mood observation. Immutable once written;
// a user may log many events on the same calendar day.
type MoodEvent struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Mood       string    `json:"mood"`
	Weight     int       `json:"weight"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// DailyAverage is the roll-up of one user's events on one calendar day.
// Written only by the aggregator. Day carries no time component (UTC
// midnight).
type DailyAverage struct {
	UserID    string    `json:"user_id"`
	Day       time.Time `json:"day"`
	AvgWeight *int      `json:"avg_weight"`
}

// MonthlyAverage is one bucket of the year-granularity query: the mean
// of a month's non-null daily averages. Avg is nil when every row of the
// month was null.
type MonthlyAverage struct {
	Month int
	Avg   *float64
}

// MoodCatalog is the global mood label to weight table. Per-user
// personal moods override it at submission time.
var MoodCatalog = map[string]int{
	"happy":       2,
	"perfect":     2,
	"fighty":      2,
	"good":        1,
	"confident":   1,
	"normal":      0,
	"sad":         -1,
	"unconfident": -1,
	"bad":         -2,
	"down":        -2,
}

type Granularity int

const (
	GranularityDay Granularity = iota
	GranularityMonth
	GranularityYear
	GranularityMultiYear
)

// Label is the bucket-size name reported to callers. Multi-year ranges
// are labeled "year" even though their buckets are per-day rows; that
// quirk is load-bearing for existing callers.
func (g Granularity) Label() string {
	switch g {
	case GranularityDay:
		return "day"
	case GranularityMonth:
		return "month"
	default:
		return "year"
	}
}

// Period is a validated inclusive date range, Start <= End, both UTC
// midnights. Produced by service.ResolvePeriod.
type Period struct {
	Start time.Time
	End   time.Time
}

// Granularity classifies the period once; the statistics engine switches
// on the result instead of re-deriving the bucket size per branch.
func (p Period) Granularity() Granularity {
	switch {
	case p.Start.Equal(p.End):
		return GranularityDay
	case p.Start.Year() == p.End.Year() && p.Start.Month() == p.End.Month():
		return GranularityMonth
	case p.Start.Year() == p.End.Year():
		return GranularityYear
	default:
		return GranularityMultiYear
	}
}
