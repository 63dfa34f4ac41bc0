package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/yourname/moodtracker/internal"
)

const dayLayout = "2006-01-02"

// FileStorage is the JSON-file backend used for development and tests.
// Everything lives in memory under one RWMutex; each collection has a
// debounced save worker that rewrites its file atomically.
type FileStorage struct {
	users        map[string]*internal.User                    // token -> user
	events       map[string][]*internal.MoodEvent             // userID -> events, ascending by OccurredAt
	averages     map[string]map[string]*internal.DailyAverage // userID -> day key -> row
	personal     map[string]map[string]int                    // userID -> mood -> weight
	mu           sync.RWMutex
	usersFile    string
	eventsFile   string
	averagesFile string
	personalFile string
	saveChans    map[string]chan struct{}
	shutdownChan chan struct{}
	saveDelay    time.Duration
	logger       internal.Logger
}

func NewFileStorage(usersFile, eventsFile, averagesFile, personalFile string, logger internal.Logger) (*FileStorage, error) {
	s := &FileStorage{
		users:        make(map[string]*internal.User),
		events:       make(map[string][]*internal.MoodEvent),
		averages:     make(map[string]map[string]*internal.DailyAverage),
		personal:     make(map[string]map[string]int),
		usersFile:    usersFile,
		eventsFile:   eventsFile,
		averagesFile: averagesFile,
		personalFile: personalFile,
		saveChans:    make(map[string]chan struct{}),
		shutdownChan: make(chan struct{}),
		saveDelay:    500 * time.Millisecond,
		logger:       logger,
	}

	if err := s.loadAll(); err != nil {
		logger.Errorf("storage: failed to load data files: %v", err)
		return nil, err
	}

	for name, save := range map[string]func() error{
		"users":    s.saveUsers,
		"events":   s.saveEvents,
		"averages": s.saveAverages,
		"personal": s.savePersonal,
	} {
		ch := make(chan struct{}, 1)
		s.saveChans[name] = ch
		go s.saveWorker(ch, save)
	}

	return s, nil
}

func (s *FileStorage) loadAll() error {
	var users []*internal.User
	if err := loadJSON(s.usersFile, &users); err != nil {
		return fmt.Errorf("users: %w", err)
	}
	for _, u := range users {
		s.users[u.Token] = u
	}

	var events []*internal.MoodEvent
	if err := loadJSON(s.eventsFile, &events); err != nil {
		return fmt.Errorf("events: %w", err)
	}
	for _, e := range events {
		s.events[e.UserID] = append(s.events[e.UserID], e)
	}
	for userID := range s.events {
		sort.Slice(s.events[userID], func(i, j int) bool {
			return s.events[userID][i].OccurredAt.Before(s.events[userID][j].OccurredAt)
		})
	}

	var averages []*internal.DailyAverage
	if err := loadJSON(s.averagesFile, &averages); err != nil {
		return fmt.Errorf("averages: %w", err)
	}
	for _, a := range averages {
		if s.averages[a.UserID] == nil {
			s.averages[a.UserID] = make(map[string]*internal.DailyAverage)
		}
		s.averages[a.UserID][dayKey(a.Day)] = a
	}

	var personal []personalMoodRecord
	if err := loadJSON(s.personalFile, &personal); err != nil {
		return fmt.Errorf("personal moods: %w", err)
	}
	for _, p := range personal {
		if s.personal[p.UserID] == nil {
			s.personal[p.UserID] = make(map[string]int)
		}
		s.personal[p.UserID][p.Mood] = p.Weight
	}

	return nil
}

type personalMoodRecord struct {
	UserID string `json:"user_id"`
	Mood   string `json:"mood"`
	Weight int    `json:"weight"`
}

func loadJSON(path string, out interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func atomicWriteFileJSON(filePath string, data interface{}) error {
	tempFile := filePath + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, filePath)
}

// saveWorker batches save signals to avoid rewriting a file on every
// single mutation.
func (s *FileStorage) saveWorker(signal chan struct{}, save func() error) {
	timer := time.NewTimer(s.saveDelay)
	defer timer.Stop()

	for {
		select {
		case <-signal:
			timer.Reset(s.saveDelay)
		case <-timer.C:
			if err := save(); err != nil {
				s.logger.Errorf("storage: save failed: %v", err)
			}
		case <-s.shutdownChan:
			return
		}
	}
}

func (s *FileStorage) signalSave(name string) {
	select {
	case s.saveChans[name] <- struct{}{}:
	default:
	}
}

func (s *FileStorage) saveUsers() error {
	s.mu.RLock()
	users := make([]*internal.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	s.mu.RUnlock()
	return atomicWriteFileJSON(s.usersFile, users)
}

func (s *FileStorage) saveEvents() error {
	s.mu.RLock()
	var events []*internal.MoodEvent
	for _, list := range s.events {
		events = append(events, list...)
	}
	s.mu.RUnlock()
	return atomicWriteFileJSON(s.eventsFile, events)
}

func (s *FileStorage) saveAverages() error {
	s.mu.RLock()
	var averages []*internal.DailyAverage
	for _, byDay := range s.averages {
		for _, a := range byDay {
			averages = append(averages, a)
		}
	}
	s.mu.RUnlock()
	return atomicWriteFileJSON(s.averagesFile, averages)
}

func (s *FileStorage) savePersonal() error {
	s.mu.RLock()
	var records []personalMoodRecord
	for userID, moods := range s.personal {
		for mood, weight := range moods {
			records = append(records, personalMoodRecord{UserID: userID, Mood: mood, Weight: weight})
		}
	}
	s.mu.RUnlock()
	return atomicWriteFileJSON(s.personalFile, records)
}

// Close stops the save workers and flushes pending data synchronously.
func (s *FileStorage) Close() error {
	close(s.shutdownChan)

	for _, save := range []func() error{s.saveUsers, s.saveEvents, s.saveAverages, s.savePersonal} {
		if err := save(); err != nil {
			return err
		}
	}
	return nil
}

func dayKey(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

// --- UserRepository ---

func (s *FileStorage) CreateUser(ctx context.Context, user *internal.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == user.ID {
			return fmt.Errorf("storage: user %s already exists", user.ID)
		}
	}
	s.users[user.Token] = user
	s.signalSave("users")
	return nil
}

func (s *FileStorage) GetUserByToken(ctx context.Context, token string) (*internal.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[token]
	if !ok {
		return nil, fmt.Errorf("storage: user not found")
	}
	return u, nil
}

func (s *FileStorage) ListUserIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.users))
	for _, u := range s.users {
		ids = append(ids, u.ID)
	}
	sort.Strings(ids)
	return ids, nil
}

// --- EventRepository ---

func (s *FileStorage) SaveMoodEvent(ctx context.Context, event *internal.MoodEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Insert maintaining ascending order by timestamp.
	list := s.events[event.UserID]
	pos := sort.Search(len(list), func(i int) bool {
		return list[i].OccurredAt.After(event.OccurredAt)
	})
	list = append(list, nil)
	copy(list[pos+1:], list[pos:])
	list[pos] = event
	s.events[event.UserID] = list

	s.signalSave("events")
	return nil
}

func (s *FileStorage) ListEventsBetween(ctx context.Context, userID string, from, to time.Time) ([]internal.MoodEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []internal.MoodEvent
	for _, e := range s.events[userID] {
		if !e.OccurredAt.Before(from) && e.OccurredAt.Before(to) {
			events = append(events, *e)
		}
	}
	return events, nil
}

func (s *FileStorage) ListDistinctEventDays(ctx context.Context, userID string) ([]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var days []time.Time
	for _, e := range s.events[userID] {
		key := dayKey(e.OccurredAt)
		if !seen[key] {
			seen[key] = true
			d := e.OccurredAt.UTC()
			days = append(days, time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC))
		}
	}
	return days, nil
}

func (s *FileStorage) ListActiveUserIDs(ctx context.Context, from, to time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for userID, list := range s.events {
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

func (s *FileStorage) AverageWeightBetween(ctx context.Context, userID string, from, to time.Time) (*int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum, count := 0, 0
	for _, e := range s.events[userID] {
		if !e.OccurredAt.Before(from) && e.OccurredAt.Before(to) {
			sum += e.Weight
			count++
		}
	}
	if count == 0 {
		return nil, nil
	}
	avg := sum / count // truncation toward zero, same as the SQL backend
	return &avg, nil
}

// --- AverageRepository ---

func (s *FileStorage) UpsertDailyAverages(ctx context.Context, rows []internal.DailyAverage) error {
	if len(rows) == 0 {
		return nil
	}
	s.mu.Lock()
	for i := range rows {
		r := rows[i]
		if s.averages[r.UserID] == nil {
			s.averages[r.UserID] = make(map[string]*internal.DailyAverage)
		}
		s.averages[r.UserID][dayKey(r.Day)] = &r
	}
	s.mu.Unlock()

	// Aggregation runs commit once and may exit right after; this write
	// must be on disk before the call returns, not behind the debounce.
	return s.saveAverages()
}

func (s *FileStorage) ListDailyAverages(ctx context.Context, userID string, from, to time.Time) ([]internal.DailyAverage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []internal.DailyAverage
	for _, a := range s.averages[userID] {
		if !a.Day.Before(from) && !a.Day.After(to) {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Day.Before(result[j].Day) })
	return result, nil
}

func (s *FileStorage) ListMonthlyAverages(ctx context.Context, userID string, year int) ([]internal.MonthlyAverage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sums := make(map[int]float64)
	counts := make(map[int]int)
	seen := make(map[int]bool)
	for _, a := range s.averages[userID] {
		if a.Day.Year() != year {
			continue
		}
		month := int(a.Day.Month())
		seen[month] = true
		if a.AvgWeight != nil {
			sums[month] += float64(*a.AvgWeight)
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

func (s *FileStorage) SetPersonalMood(ctx context.Context, userID, mood string, weight int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.personal[userID] == nil {
		s.personal[userID] = make(map[string]int)
	}
	s.personal[userID][mood] = weight
	s.signalSave("personal")
	return nil
}

func (s *FileStorage) GetPersonalMoods(ctx context.Context, userID string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	moods := make(map[string]int, len(s.personal[userID]))
	for mood, weight := range s.personal[userID] {
		moods[mood] = weight
	}
	return moods, nil
}

// --- Compile-time assertions ---
var _ UserRepository = (*FileStorage)(nil)
var _ EventRepository = (*FileStorage)(nil)
var _ AverageRepository = (*FileStorage)(nil)
var _ PersonalMoodRepository = (*FileStorage)(nil)
