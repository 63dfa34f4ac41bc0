package service

import (
	"context"
	"strconv"
	"time"

	"github.com/yourname/moodtracker/internal"
	"github.com/yourname/moodtracker/internal/storage"
)

// MoodStatistics is one bucketed statistics result. Bucket keys and
// value types depend on the granularity:
//
//	day        "HH:MM"       -> int weight
//	month      day of month  -> *int average (null rows preserved)
//	year       month 1..12   -> *float64 monthly average
//	multi-year "YYYY-MM-DD"  -> *int average
//
// The multi-year branch is labeled "year" but buckets by calendar day;
// existing callers depend on that shape.
type MoodStatistics struct {
	Granularity string         `json:"granularity"`
	Buckets     map[string]any `json:"buckets"`
}

// MoodDetail is one mood label's latest event on a requested day.
type MoodDetail struct {
	Time   string `json:"time"`
	Weight int    `json:"weight"`
	Reason string `json:"reason,omitempty"`
}

// Statistics answers period queries over raw events and daily averages.
// Day granularity reads raw events; everything coarser reads the
// aggregator's output.
type Statistics struct {
	events   storage.EventRepository
	averages storage.AverageRepository
	logger   internal.Logger
}

func NewStatistics(events storage.EventRepository, averages storage.AverageRepository, logger internal.Logger) *Statistics {
	return &Statistics{events: events, averages: averages, logger: logger}
}

// GetStatistics buckets the user's mood data over the period at the
// granularity the period classifies to. A period with no stored data
// yields (nil, nil), never an empty mapping.
func (s *Statistics) GetStatistics(ctx context.Context, userID string, period internal.Period) (*MoodStatistics, error) {
	switch period.Granularity() {
	case internal.GranularityDay:
		return s.dayStatistics(ctx, userID, period.Start)
	case internal.GranularityMonth:
		return s.monthStatistics(ctx, userID, period.Start)
	case internal.GranularityYear:
		return s.yearStatistics(ctx, userID, period.Start.Year())
	default:
		return s.rangeStatistics(ctx, userID, period.Start.Year(), period.End.Year())
	}
}

func (s *Statistics) dayStatistics(ctx context.Context, userID string, day time.Time) (*MoodStatistics, error) {
	events, err := s.events.ListEventsBetween(ctx, userID, day, day.Add(24*time.Hour))
	if err != nil {
		return nil, &internal.QueryError{Op: "list events", Err: err}
	}
	if len(events) == 0 {
		return nil, nil
	}

	buckets := make(map[string]any, len(events))
	for _, e := range events {
		// Events arrive in timestamp order; on a shared minute the later
		// event wins.
		buckets[e.OccurredAt.UTC().Format("15:04")] = e.Weight
	}
	return &MoodStatistics{Granularity: internal.GranularityDay.Label(), Buckets: buckets}, nil
}

func (s *Statistics) monthStatistics(ctx context.Context, userID string, day time.Time) (*MoodStatistics, error) {
	// Expand the requested range to the full calendar month.
	lastDay, _ := DaysInMonth(day.Year(), int(day.Month()))
	from := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(day.Year(), day.Month(), lastDay, 0, 0, 0, 0, time.UTC)

	rows, err := s.averages.ListDailyAverages(ctx, userID, from, to)
	if err != nil {
		return nil, &internal.QueryError{Op: "list daily averages", Err: err}
	}
	if len(rows) == 0 {
		return nil, nil
	}

	// Days with no row stay absent; the caller renders them as blank,
	// not zero.
	buckets := make(map[string]any, len(rows))
	for _, r := range rows {
		buckets[strconv.Itoa(r.Day.Day())] = r.AvgWeight
	}
	return &MoodStatistics{Granularity: internal.GranularityMonth.Label(), Buckets: buckets}, nil
}

func (s *Statistics) yearStatistics(ctx context.Context, userID string, year int) (*MoodStatistics, error) {
	months, err := s.averages.ListMonthlyAverages(ctx, userID, year)
	if err != nil {
		return nil, &internal.QueryError{Op: "list monthly averages", Err: err}
	}
	if len(months) == 0 {
		return nil, nil
	}

	buckets := make(map[string]any, len(months))
	for _, m := range months {
		buckets[strconv.Itoa(m.Month)] = m.Avg
	}
	return &MoodStatistics{Granularity: internal.GranularityYear.Label(), Buckets: buckets}, nil
}

func (s *Statistics) rangeStatistics(ctx context.Context, userID string, startYear, endYear int) (*MoodStatistics, error) {
	from := time.Date(startYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(endYear, time.December, 31, 0, 0, 0, 0, time.UTC)

	rows, err := s.averages.ListDailyAverages(ctx, userID, from, to)
	if err != nil {
		return nil, &internal.QueryError{Op: "list daily averages", Err: err}
	}
	if len(rows) == 0 {
		return nil, nil
	}

	buckets := make(map[string]any, len(rows))
	for _, r := range rows {
		buckets[r.Day.Format("2006-01-02")] = r.AvgWeight
	}
	return &MoodStatistics{Granularity: internal.GranularityMultiYear.Label(), Buckets: buckets}, nil
}

// GetDayDetail returns the user's events for one day keyed by mood
// label. A nil target defaults to yesterday (UTC). When several events
// share a label, the latest one wins. nil when the day has no events.
func (s *Statistics) GetDayDetail(ctx context.Context, userID string, target *time.Time) (map[string]MoodDetail, error) {
	day := time.Now().UTC().Truncate(24 * time.Hour).Add(-24 * time.Hour)
	if target != nil {
		t := target.UTC()
		day = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}

	events, err := s.events.ListEventsBetween(ctx, userID, day, day.Add(24*time.Hour))
	if err != nil {
		return nil, &internal.QueryError{Op: "list events", Err: err}
	}
	if len(events) == 0 {
		s.logger.Infof("no mood records for user %s on %s", userID, day.Format("2006-01-02"))
		return nil, nil
	}

	details := make(map[string]MoodDetail, len(events))
	for _, e := range events {
		d := MoodDetail{Time: e.OccurredAt.UTC().Format("15:04"), Weight: e.Weight, Reason: e.Reason}
		details[e.Mood] = d
		s.logger.Infof("user %s: %s mood %q weight %d reason %q", userID, d.Time, e.Mood, e.Weight, e.Reason)
	}
	s.logger.Infof("user %s: extracted %d records on %s", userID, len(events), day.Format("2006-01-02"))
	return details, nil
}
