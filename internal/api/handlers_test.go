package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/yourname/moodtracker/internal"
	"github.com/yourname/moodtracker/internal/auth"
	"github.com/yourname/moodtracker/internal/config"
	"github.com/yourname/moodtracker/internal/service"
	"github.com/yourname/moodtracker/internal/storage"
)

type testApp struct {
	logger internal.Logger
	repos  *storage.Repositories
	stats  *service.Statistics
	agg    *service.Aggregator
}

func (a *testApp) Logger() internal.Logger                  { return a.logger }
func (a *testApp) Users() storage.UserRepository            { return a.repos.Users }
func (a *testApp) Events() storage.EventRepository          { return a.repos.Events }
func (a *testApp) Personal() storage.PersonalMoodRepository { return a.repos.Personal }
func (a *testApp) Stats() *service.Statistics               { return a.stats }
func (a *testApp) Aggregator() *service.Aggregator          { return a.agg }

func setupRouter(t *testing.T) (*gin.Engine, *testApp) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	logger := internal.NewNopLogger()
	repos, err := storage.NewFileRepositories(
		filepath.Join(dir, "users.json"),
		filepath.Join(dir, "events.json"),
		filepath.Join(dir, "averages.json"),
		filepath.Join(dir, "personal.json"),
		logger,
	)
	assert.NoError(t, err)

	app := &testApp{
		logger: logger,
		repos:  repos,
		stats:  service.NewStatistics(repos.Events, repos.Averages, logger),
		agg:    service.NewAggregator(repos.Users, repos.Events, repos.Averages, logger),
	}

	cfg := &config.Config{Env: "development"}
	provider := auth.NewLocalAuthProvider(repos.Users, logger)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.POST("/users", RegisterUser(app))

	authed := r.Group("/", auth.AuthMiddleware(provider, cfg))
	authed.GET("/moods/catalog", GetMoodCatalog(app))
	authed.POST("/moods", PostMood(app))
	authed.PUT("/moods/personal", PutPersonalMood(app))
	authed.GET("/moods/statistics", GetStatistics(app))
	authed.GET("/moods/day", GetDayDetail(app))
	authed.POST("/admin/aggregate/daily", AggregateDaily(app))
	authed.POST("/admin/aggregate/backfill", AggregateBackfill(app))

	return r, app
}

func doJSON(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req, _ = http.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(rec, req)
	return rec
}

func registerTestUser(t *testing.T, r *gin.Engine) string {
	t.Helper()
	rec := doJSON(r, "POST", "/users", "", `{"user_id":"u1","name":"Test User"}`)
	assert.Equal(t, 200, rec.Code)

	var resp struct {
		Data internal.User `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.Token)
	return resp.Data.Token
}

func TestRegisterUser_DuplicateRejected(t *testing.T) {
	r, _ := setupRouter(t)
	registerTestUser(t, r)
	rec := doJSON(r, "POST", "/users", "", `{"user_id":"u1","name":"Again"}`)
	assert.Equal(t, 409, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	r, _ := setupRouter(t)
	rec := doJSON(r, "GET", "/moods/catalog", "", "")
	assert.Equal(t, 401, rec.Code)

	rec = doJSON(r, "GET", "/moods/catalog", "bogus-token", "")
	assert.Equal(t, 401, rec.Code)
}

func TestPostMood_ValidAndInvalid(t *testing.T) {
	r, _ := setupRouter(t)
	token := registerTestUser(t, r)

	rec := doJSON(r, "POST", "/moods", token, `{"mood":"happy","reason":"sunshine"}`)
	assert.Equal(t, 200, rec.Code)

	// unknown label is a validation failure
	rec = doJSON(r, "POST", "/moods", token, `{"mood":"ecstatic"}`)
	assert.Equal(t, 400, rec.Code)

	// missing mood
	rec = doJSON(r, "POST", "/moods", token, `{"reason":"no mood"}`)
	assert.Equal(t, 400, rec.Code)
}

func TestPostMood_PersonalOverride(t *testing.T) {
	r, _ := setupRouter(t)
	token := registerTestUser(t, r)

	rec := doJSON(r, "PUT", "/moods/personal", token, `{"mood":"sad","weight":-2}`)
	assert.Equal(t, 200, rec.Code)

	rec = doJSON(r, "POST", "/moods", token, `{"mood":"sad"}`)
	assert.Equal(t, 200, rec.Code)

	var resp struct {
		Data internal.MoodEvent `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, -2, resp.Data.Weight)
}

func TestGetStatistics_BadQuery(t *testing.T) {
	r, _ := setupRouter(t)
	token := registerTestUser(t, r)

	// non-integer component
	rec := doJSON(r, "GET", "/moods/statistics?start_year=abc&start_month=1&start_day=1&end_year=2024&end_month=1&end_day=1", token, "")
	assert.Equal(t, 400, rec.Code)

	// day out of range
	rec = doJSON(r, "GET", "/moods/statistics?start_year=2024&start_month=1&start_day=32&end_year=2024&end_month=1&end_day=32", token, "")
	assert.Equal(t, 400, rec.Code)

	// start after end
	rec = doJSON(r, "GET", "/moods/statistics?start_year=2024&start_month=3&start_day=1&end_year=2024&end_month=1&end_day=1", token, "")
	assert.Equal(t, 400, rec.Code)
}

func TestGetStatistics_DayFlow(t *testing.T) {
	r, _ := setupRouter(t)
	token := registerTestUser(t, r)

	today := time.Now().UTC()
	query := fmt.Sprintf(
		"/moods/statistics?start_year=%d&start_month=%d&start_day=%d&end_year=%d&end_month=%d&end_day=%d",
		today.Year(), int(today.Month()), today.Day(),
		today.Year(), int(today.Month()), today.Day(),
	)

	// no data yet
	rec := doJSON(r, "GET", query, token, "")
	assert.Equal(t, 404, rec.Code)

	rec = doJSON(r, "POST", "/moods", token, `{"mood":"good"}`)
	assert.Equal(t, 200, rec.Code)

	rec = doJSON(r, "GET", query, token, "")
	assert.Equal(t, 200, rec.Code)

	var resp struct {
		Data service.MoodStatistics `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "day", resp.Data.Granularity)
	assert.Len(t, resp.Data.Buckets, 1)
}

func TestGetDayDetail_BadDateAndMissing(t *testing.T) {
	r, _ := setupRouter(t)
	token := registerTestUser(t, r)

	rec := doJSON(r, "GET", "/moods/day?date=20-05-2024", token, "")
	assert.Equal(t, 400, rec.Code)

	rec = doJSON(r, "GET", "/moods/day?date=2024-05-09", token, "")
	assert.Equal(t, 404, rec.Code)
}

func TestAggregateEndpoints(t *testing.T) {
	r, _ := setupRouter(t)
	token := registerTestUser(t, r)

	rec := doJSON(r, "POST", "/moods", token, `{"mood":"happy"}`)
	assert.Equal(t, 200, rec.Code)

	// today's event is outside the daily window, so the run writes nothing
	rec = doJSON(r, "POST", "/admin/aggregate/daily", token, "")
	assert.Equal(t, 200, rec.Code)

	rec = doJSON(r, "POST", "/admin/aggregate/backfill", token, "")
	assert.Equal(t, 200, rec.Code)

	var resp struct {
		Data service.RunReport `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "backfill", resp.Data.Mode)
	assert.Equal(t, 1, resp.Data.RowsWritten)
}
