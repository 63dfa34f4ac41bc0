package storage

import (
	"context"
	"time"

	"github.com/yourname/moodtracker/internal"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *internal.User) error
	GetUserByToken(ctx context.Context, token string) (*internal.User, error)
	ListUserIDs(ctx context.Context) ([]string, error)
}

type EventRepository interface {
	SaveMoodEvent(ctx context.Context, event *internal.MoodEvent) error
	// ListEventsBetween returns the user's events with
	// from <= occurred_at < to, ascending by timestamp.
	ListEventsBetween(ctx context.Context, userID string, from, to time.Time) ([]internal.MoodEvent, error)
	// ListDistinctEventDays returns every calendar day (UTC midnight) on
	// which the user has at least one event, ascending.
	ListDistinctEventDays(ctx context.Context, userID string) ([]time.Time, error)
	// ListActiveUserIDs returns the distinct users with at least one
	// event in [from, to).
	ListActiveUserIDs(ctx context.Context, from, to time.Time) ([]string, error)
	// AverageWeightBetween computes the integer mean weight of the user's
	// events in [from, to), truncated toward zero; nil when the window has
	// no events.
	AverageWeightBetween(ctx context.Context, userID string, from, to time.Time) (*int, error)
}

type AverageRepository interface {
	// UpsertDailyAverages writes the whole batch in a single transaction.
	// A given (user, day) keeps at most one current row.
	UpsertDailyAverages(ctx context.Context, rows []internal.DailyAverage) error
	// ListDailyAverages returns rows with from <= day <= to, ascending.
	ListDailyAverages(ctx context.Context, userID string, from, to time.Time) ([]internal.DailyAverage, error)
	// ListMonthlyAverages averages the non-null daily rows of each month
	// of the given year; months without any row are absent.
	ListMonthlyAverages(ctx context.Context, userID string, year int) ([]internal.MonthlyAverage, error)
}

type PersonalMoodRepository interface {
	SetPersonalMood(ctx context.Context, userID, mood string, weight int) error
	GetPersonalMoods(ctx context.Context, userID string) (map[string]int, error)
}

// Repositories bundles one backend's view of every repository.
type Repositories struct {
	Users    UserRepository
	Events   EventRepository
	Averages AverageRepository
	Personal PersonalMoodRepository

	closer func() error
}

// Close flushes pending writes and releases the backend. Callers must
// close before exiting: the file backend persists on a delay, and rows
// still in memory are lost otherwise.
func (r *Repositories) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}
