package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/yourname/moodtracker/internal"
)

// fakeStore is an in-memory backend with injectable failures, shared by
// the aggregator and statistics tests.
type fakeStore struct {
	userIDs  []string
	users    map[string]*internal.User
	events   map[string][]internal.MoodEvent
	averages map[string]map[string]internal.DailyAverage // userID -> day key -> row
	personal map[string]map[string]int

	failAvgFor      map[string]error // "<userID>/<YYYY-MM-DD>" -> error
	failListEvents  error
	failListDaysFor map[string]error // userID -> error
	failUpsert      error
	failListAvgs    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:           make(map[string]*internal.User),
		events:          make(map[string][]internal.MoodEvent),
		averages:        make(map[string]map[string]internal.DailyAverage),
		personal:        make(map[string]map[string]int),
		failAvgFor:      make(map[string]error),
		failListDaysFor: make(map[string]error),
	}
}

func (f *fakeStore) addUser(id string) {
	f.userIDs = append(f.userIDs, id)
	f.users["token-"+id] = &internal.User{ID: id, Token: "token-" + id, Name: id}
}

func (f *fakeStore) addEvent(userID string, at time.Time, mood string, weight int, reason string) {
	f.events[userID] = append(f.events[userID], internal.MoodEvent{
		ID: userID + at.Format(time.RFC3339Nano), UserID: userID,
		Mood: mood, Weight: weight, Reason: reason, OccurredAt: at,
	})
	sort.Slice(f.events[userID], func(i, j int) bool {
		return f.events[userID][i].OccurredAt.Before(f.events[userID][j].OccurredAt)
	})
}

func (f *fakeStore) addAverage(userID string, day time.Time, avg *int) {
	if f.averages[userID] == nil {
		f.averages[userID] = make(map[string]internal.DailyAverage)
	}
	f.averages[userID][day.Format("2006-01-02")] = internal.DailyAverage{UserID: userID, Day: day, AvgWeight: avg}
}

func (f *fakeStore) storedAverages(userID string) []internal.DailyAverage {
	rows := make([]internal.DailyAverage, 0, len(f.averages[userID]))
	for _, r := range f.averages[userID] {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Day.Before(rows[j].Day) })
	return rows
}

// --- UserRepository ---

func (f *fakeStore) CreateUser(ctx context.Context, user *internal.User) error {
	for _, id := range f.userIDs {
		if id == user.ID {
			return errors.New("user already exists")
		}
	}
	f.userIDs = append(f.userIDs, user.ID)
	f.users[user.Token] = user
	return nil
}

func (f *fakeStore) GetUserByToken(ctx context.Context, token string) (*internal.User, error) {
	u, ok := f.users[token]
	if !ok {
		return nil, errors.New("user not found")
	}
	return u, nil
}

func (f *fakeStore) ListUserIDs(ctx context.Context) ([]string, error) {
	ids := append([]string(nil), f.userIDs...)
	sort.Strings(ids)
	return ids, nil
}

// --- EventRepository ---

func (f *fakeStore) SaveMoodEvent(ctx context.Context, event *internal.MoodEvent) error {
	f.addEvent(event.UserID, event.OccurredAt, event.Mood, event.Weight, event.Reason)
	return nil
}

func (f *fakeStore) ListEventsBetween(ctx context.Context, userID string, from, to time.Time) ([]internal.MoodEvent, error) {
	if f.failListEvents != nil {
		return nil, f.failListEvents
	}
	var events []internal.MoodEvent
	for _, e := range f.events[userID] {
		if !e.OccurredAt.Before(from) && e.OccurredAt.Before(to) {
			events = append(events, e)
		}
	}
	return events, nil
}

func (f *fakeStore) ListDistinctEventDays(ctx context.Context, userID string) ([]time.Time, error) {
	if err := f.failListDaysFor[userID]; err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var days []time.Time
	for _, e := range f.events[userID] {
		key := e.OccurredAt.UTC().Format("2006-01-02")
		if !seen[key] {
			seen[key] = true
			d := e.OccurredAt.UTC()
			days = append(days, time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC))
		}
	}
	return days, nil
}

func (f *fakeStore) ListActiveUserIDs(ctx context.Context, from, to time.Time) ([]string, error) {
	var ids []string
	for userID, list := range f.events {
		for _, e := range list {
			if !e.OccurredAt.Before(from) && e.OccurredAt.Before(to) {
				ids = append(ids, userID)
				break
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeStore) AverageWeightBetween(ctx context.Context, userID string, from, to time.Time) (*int, error) {
	if err := f.failAvgFor[userID+"/"+from.Format("2006-01-02")]; err != nil {
		return nil, err
	}
	sum, count := 0, 0
	for _, e := range f.events[userID] {
		if !e.OccurredAt.Before(from) && e.OccurredAt.Before(to) {
			sum += e.Weight
			count++
		}
	}
	if count == 0 {
		return nil, nil
	}
	avg := sum / count
	return &avg, nil
}

// --- AverageRepository ---

func (f *fakeStore) UpsertDailyAverages(ctx context.Context, rows []internal.DailyAverage) error {
	if f.failUpsert != nil {
		return f.failUpsert
	}
	for _, r := range rows {
		f.addAverage(r.UserID, r.Day, r.AvgWeight)
	}
	return nil
}

func (f *fakeStore) ListDailyAverages(ctx context.Context, userID string, from, to time.Time) ([]internal.DailyAverage, error) {
	if f.failListAvgs != nil {
		return nil, f.failListAvgs
	}
	var rows []internal.DailyAverage
	for _, r := range f.averages[userID] {
		if !r.Day.Before(from) && !r.Day.After(to) {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Day.Before(rows[j].Day) })
	return rows, nil
}

func (f *fakeStore) ListMonthlyAverages(ctx context.Context, userID string, year int) ([]internal.MonthlyAverage, error) {
	if f.failListAvgs != nil {
		return nil, f.failListAvgs
	}
	sums := make(map[int]float64)
	counts := make(map[int]int)
	seen := make(map[int]bool)
	for _, r := range f.averages[userID] {
		if r.Day.Year() != year {
			continue
		}
		month := int(r.Day.Month())
		seen[month] = true
		if r.AvgWeight != nil {
			sums[month] += float64(*r.AvgWeight)
			counts[month]++
		}
	}
	var result []internal.MonthlyAverage
	for month := 1; month <= 12; month++ {
		if !seen[month] {
			continue
		}
		m := internal.MonthlyAverage{Month: month}
		if counts[month] > 0 {
			avg := sums[month] / float64(counts[month])
			m.Avg = &avg
		}
		result = append(result, m)
	}
	return result, nil
}

// --- PersonalMoodRepository ---

func (f *fakeStore) SetPersonalMood(ctx context.Context, userID, mood string, weight int) error {
	if f.personal[userID] == nil {
		f.personal[userID] = make(map[string]int)
	}
	f.personal[userID][mood] = weight
	return nil
}

func (f *fakeStore) GetPersonalMoods(ctx context.Context, userID string) (map[string]int, error) {
	moods := make(map[string]int, len(f.personal[userID]))
	for mood, weight := range f.personal[userID] {
		moods[mood] = weight
	}
	return moods, nil
}

func intPtr(v int) *int { return &v }
