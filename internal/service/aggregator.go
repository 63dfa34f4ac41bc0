package service

import (
	"context"
	"sync"
	"time"

	"github.com/yourname/moodtracker/internal"
	"github.com/yourname/moodtracker/internal/storage"
)

// failurePolicy decides what a per-entry storage failure does to the
// rest of a scan. The daily run aborts, the backfill skips; that
// asymmetry is intentional and must survive refactors.
type failurePolicy int

const (
	abortRun failurePolicy = iota
	skipEntry
)

// UserRunReport records one (user, day) roll-up: wall-clock bounds of
// the computation and the average that was written.
type UserRunReport struct {
	UserID  string    `json:"user_id"`
	Day     time.Time `json:"day"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Average *int      `json:"average"`
}

// RunReport summarizes one aggregator run. On failure the report still
// carries the partial counts accumulated before the abort. Skipped
// counts individual (user, day) roll-ups; UsersSkipped counts users
// whose whole history could not be enumerated. Elapsed is a
// human-readable duration ("1.2s"), not nanoseconds.
type RunReport struct {
	Mode         string          `json:"mode"`
	Users        []UserRunReport `json:"users,omitempty"`
	RowsWritten  int             `json:"rows_written"`
	Skipped      int             `json:"skipped,omitempty"`
	UsersSkipped int             `json:"users_skipped,omitempty"`
	Elapsed      string          `json:"elapsed"`
}

// Aggregator rolls raw mood events up into daily averages. Runs are
// serialized by an internal lock: the storage layer is not assumed to
// enforce (user, day) uniqueness against concurrent writers.
type Aggregator struct {
	users    storage.UserRepository
	events   storage.EventRepository
	averages storage.AverageRepository
	logger   internal.Logger
	mu       sync.Mutex
}

func NewAggregator(users storage.UserRepository, events storage.EventRepository, averages storage.AverageRepository, logger internal.Logger) *Aggregator {
	return &Aggregator{users: users, events: events, averages: averages, logger: logger}
}

type rollUpTask struct {
	userID string
	day    time.Time
}

// RunDaily rolls up yesterday (relative to now, UTC) for every user that
// logged at least one event in that window. Any per-user failure aborts
// the whole run before anything is committed.
func (a *Aggregator) RunDaily(ctx context.Context, now time.Time) (*RunReport, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	started := time.Now()
	report := &RunReport{Mode: "daily"}
	defer func() { report.Elapsed = time.Since(started).String() }()

	today := now.UTC().Truncate(24 * time.Hour)
	yesterday := today.Add(-24 * time.Hour)

	userIDs, err := a.events.ListActiveUserIDs(ctx, yesterday, today)
	if err != nil {
		a.logger.Errorf("daily run: failed to enumerate active users: %v", err)
		return report, &internal.AggregationError{Op: "list active users", Err: err}
	}
	a.logger.Infof("daily run: found %d users with events on %s", len(userIDs), yesterday.Format("2006-01-02"))

	tasks := make([]rollUpTask, 0, len(userIDs))
	for _, userID := range userIDs {
		tasks = append(tasks, rollUpTask{userID: userID, day: yesterday})
	}

	rows, err := a.scan(ctx, tasks, abortRun, report)
	if err != nil {
		return report, err
	}
	if err := a.commit(ctx, rows, report); err != nil {
		return report, err
	}
	a.logger.Infof("daily run: wrote %d rows", report.RowsWritten)
	return report, nil
}

// RunBackfill recomputes the daily average for every known user on every
// calendar day that has at least one event. Per-(user, day) failures are
// logged and skipped; the rest of the scan continues.
func (a *Aggregator) RunBackfill(ctx context.Context) (*RunReport, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	started := time.Now()
	report := &RunReport{Mode: "backfill"}
	defer func() { report.Elapsed = time.Since(started).String() }()

	userIDs, err := a.users.ListUserIDs(ctx)
	if err != nil {
		a.logger.Errorf("backfill: failed to enumerate users: %v", err)
		return report, &internal.AggregationError{Op: "list users", Err: err}
	}
	if len(userIDs) == 0 {
		a.logger.Infof("backfill: no users found")
		return report, nil
	}
	a.logger.Infof("backfill: found %d users", len(userIDs))

	var tasks []rollUpTask
	for _, userID := range userIDs {
		days, err := a.events.ListDistinctEventDays(ctx, userID)
		if err != nil {
			report.UsersSkipped++
			a.logger.Errorf("backfill: user %s: failed to list event days, skipping user: %v", userID, err)
			continue
		}
		for _, day := range days {
			tasks = append(tasks, rollUpTask{userID: userID, day: day})
		}
	}

	rows, err := a.scan(ctx, tasks, skipEntry, report)
	if err != nil {
		return report, err
	}
	if err := a.commit(ctx, rows, report); err != nil {
		return report, err
	}
	a.logger.Infof("backfill: wrote %d rows, skipped %d days and %d users", report.RowsWritten, report.Skipped, report.UsersSkipped)
	return report, nil
}

// scan computes one average per task and collects the rows to write.
// policy decides whether a task failure aborts the scan or only skips
// the task.
func (a *Aggregator) scan(ctx context.Context, tasks []rollUpTask, policy failurePolicy, report *RunReport) ([]internal.DailyAverage, error) {
	rows := make([]internal.DailyAverage, 0, len(tasks))
	for _, t := range tasks {
		entry := UserRunReport{UserID: t.userID, Day: t.day, Start: time.Now()}
		avg, err := a.events.AverageWeightBetween(ctx, t.userID, t.day, t.day.Add(24*time.Hour))
		entry.End = time.Now()
		if err != nil {
			if policy == skipEntry {
				report.Skipped++
				a.logger.Errorf("aggregation: user %s day %s skipped: %v", t.userID, t.day.Format("2006-01-02"), err)
				continue
			}
			a.logger.Errorf("aggregation: user %s day %s: %v", t.userID, t.day.Format("2006-01-02"), err)
			return nil, &internal.AggregationError{Op: "average weight", Err: err}
		}
		entry.Average = avg
		report.Users = append(report.Users, entry)
		rows = append(rows, internal.DailyAverage{UserID: t.userID, Day: t.day, AvgWeight: avg})
		a.logger.Infof("aggregation: user %s day %s average %v (took %s)",
			t.userID, t.day.Format("2006-01-02"), formatAvg(avg), entry.End.Sub(entry.Start))
	}
	return rows, nil
}

// commit writes the accumulated rows in one storage transaction.
func (a *Aggregator) commit(ctx context.Context, rows []internal.DailyAverage, report *RunReport) error {
	if err := a.averages.UpsertDailyAverages(ctx, rows); err != nil {
		a.logger.Errorf("aggregation: failed to commit %d rows: %v", len(rows), err)
		return &internal.AggregationError{Op: "upsert daily averages", Err: err}
	}
	report.RowsWritten = len(rows)
	return nil
}

func formatAvg(avg *int) interface{} {
	if avg == nil {
		return "null"
	}
	return *avg
}
