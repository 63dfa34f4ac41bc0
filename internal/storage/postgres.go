package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yourname/moodtracker/internal"
)

// PostgresStorage implements every repository on a pgx connection pool.
// Table layout is documented in db/schema.sql; the (user_id, day) unique
// index on daily_averages is what makes the aggregator's upsert
// idempotent.
type PostgresStorage struct {
	pool   *pgxpool.Pool
	logger internal.Logger
}

func NewPostgresStorage(dsn string, logger internal.Logger) (*PostgresStorage, error) {
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		logger.Errorf("failed to connect to postgres: %v", err)
		return nil, err
	}
	return &PostgresStorage{pool: pool, logger: logger}, nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

// --- UserRepository ---

func (p *PostgresStorage) CreateUser(ctx context.Context, user *internal.User) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO users (id, token, name, registered_at) VALUES ($1, $2, $3, $4)`,
		user.ID, user.Token, user.Name, user.RegisteredAt)
	if err != nil {
		p.logger.Errorf("failed to insert user: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) GetUserByToken(ctx context.Context, token string) (*internal.User, error) {
	row := p.pool.QueryRow(ctx, `SELECT id, token, name, registered_at FROM users WHERE token = $1`, token)
	var u internal.User
	if err := row.Scan(&u.ID, &u.Token, &u.Name, &u.RegisteredAt); err != nil {
		p.logger.Errorf("user not found: %v", err)
		return nil, err
	}
	return &u, nil
}

func (p *PostgresStorage) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		p.logger.Errorf("failed to query users: %v", err)
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// --- EventRepository ---

func (p *PostgresStorage) SaveMoodEvent(ctx context.Context, event *internal.MoodEvent) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO mood_events (id, user_id, mood, weight, reason, occurred_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID, event.UserID, event.Mood, event.Weight, event.Reason, event.OccurredAt)
	if err != nil {
		p.logger.Errorf("failed to insert mood event: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) ListEventsBetween(ctx context.Context, userID string, from, to time.Time) ([]internal.MoodEvent, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, user_id, mood, weight, reason, occurred_at FROM mood_events
		 WHERE user_id = $1 AND occurred_at >= $2 AND occurred_at < $3
		 ORDER BY occurred_at`, userID, from, to)
	if err != nil {
		p.logger.Errorf("failed to query mood events: %v", err)
		return nil, err
	}
	defer rows.Close()

	var events []internal.MoodEvent
	for rows.Next() {
		var e internal.MoodEvent
		if err := rows.Scan(&e.ID, &e.UserID, &e.Mood, &e.Weight, &e.Reason, &e.OccurredAt); err != nil {
			p.logger.Errorf("failed to scan mood event: %v", err)
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (p *PostgresStorage) ListDistinctEventDays(ctx context.Context, userID string) ([]time.Time, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT DISTINCT date_trunc('day', occurred_at AT TIME ZONE 'UTC') FROM mood_events
		 WHERE user_id = $1 ORDER BY 1`, userID)
	if err != nil {
		p.logger.Errorf("failed to query event days: %v", err)
		return nil, err
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		days = append(days, time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC))
	}
	return days, rows.Err()
}

func (p *PostgresStorage) ListActiveUserIDs(ctx context.Context, from, to time.Time) ([]string, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT DISTINCT user_id FROM mood_events WHERE occurred_at >= $1 AND occurred_at < $2 ORDER BY user_id`,
		from, to)
	if err != nil {
		p.logger.Errorf("failed to query active users: %v", err)
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (p *PostgresStorage) AverageWeightBetween(ctx context.Context, userID string, from, to time.Time) (*int, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT trunc(avg(weight))::int FROM mood_events
		 WHERE user_id = $1 AND occurred_at >= $2 AND occurred_at < $3`, userID, from, to)
	var avg *int
	if err := row.Scan(&avg); err != nil {
		p.logger.Errorf("failed to compute average weight: %v", err)
		return nil, err
	}
	return avg, nil
}

// --- AverageRepository ---

func (p *PostgresStorage) UpsertDailyAverages(ctx context.Context, rows []internal.DailyAverage) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		p.logger.Errorf("failed to begin transaction: %v", err)
		return err
	}
	defer tx.Rollback(ctx)

	for _, r := range rows {
		_, err := tx.Exec(ctx,
			`INSERT INTO daily_averages (user_id, day, avg_weight) VALUES ($1, $2, $3)
			 ON CONFLICT (user_id, day) DO UPDATE SET avg_weight = EXCLUDED.avg_weight`,
			r.UserID, r.Day, r.AvgWeight)
		if err != nil {
			p.logger.Errorf("failed to upsert daily average: %v", err)
			return err
		}
	}
	return tx.Commit(ctx)
}

func (p *PostgresStorage) ListDailyAverages(ctx context.Context, userID string, from, to time.Time) ([]internal.DailyAverage, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT user_id, day, avg_weight FROM daily_averages
		 WHERE user_id = $1 AND day >= $2 AND day <= $3 ORDER BY day`, userID, from, to)
	if err != nil {
		p.logger.Errorf("failed to query daily averages: %v", err)
		return nil, err
	}
	defer rows.Close()

	var result []internal.DailyAverage
	for rows.Next() {
		var a internal.DailyAverage
		if err := rows.Scan(&a.UserID, &a.Day, &a.AvgWeight); err != nil {
			p.logger.Errorf("failed to scan daily average: %v", err)
			return nil, err
		}
		a.Day = time.Date(a.Day.Year(), a.Day.Month(), a.Day.Day(), 0, 0, 0, 0, time.UTC)
		result = append(result, a)
	}
	return result, rows.Err()
}

func (p *PostgresStorage) ListMonthlyAverages(ctx context.Context, userID string, year int) ([]internal.MonthlyAverage, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT extract(month FROM day)::int AS month, avg(avg_weight) FROM daily_averages
		 WHERE user_id = $1 AND day >= make_date($2, 1, 1) AND day <= make_date($2, 12, 31)
		 GROUP BY month ORDER BY month`, userID, year)
	if err != nil {
		p.logger.Errorf("failed to query monthly averages: %v", err)
		return nil, err
	}
	defer rows.Close()

	var result []internal.MonthlyAverage
	for rows.Next() {
		var m internal.MonthlyAverage
		if err := rows.Scan(&m.Month, &m.Avg); err != nil {
			p.logger.Errorf("failed to scan monthly average: %v", err)
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// --- PersonalMoodRepository ---

func (p *PostgresStorage) SetPersonalMood(ctx context.Context, userID, mood string, weight int) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO personal_moods (user_id, mood, weight) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, mood) DO UPDATE SET weight = EXCLUDED.weight`, userID, mood, weight)
	if err != nil {
		p.logger.Errorf("failed to upsert personal mood: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) GetPersonalMoods(ctx context.Context, userID string) (map[string]int, error) {
	rows, err := p.pool.Query(ctx, `SELECT mood, weight FROM personal_moods WHERE user_id = $1`, userID)
	if err != nil {
		p.logger.Errorf("failed to query personal moods: %v", err)
		return nil, err
	}
	defer rows.Close()

	moods := make(map[string]int)
	for rows.Next() {
		var mood string
		var weight int
		if err := rows.Scan(&mood, &weight); err != nil {
			return nil, err
		}
		moods[mood] = weight
	}
	return moods, rows.Err()
}

// --- Compile-time assertions ---
var _ UserRepository = (*PostgresStorage)(nil)
var _ EventRepository = (*PostgresStorage)(nil)
var _ AverageRepository = (*PostgresStorage)(nil)
var _ PersonalMoodRepository = (*PostgresStorage)(nil)
