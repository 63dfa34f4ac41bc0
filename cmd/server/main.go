package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/yourname/moodtracker/internal"
	"github.com/yourname/moodtracker/internal/api"
	"github.com/yourname/moodtracker/internal/auth"
	"github.com/yourname/moodtracker/internal/config"
	"github.com/yourname/moodtracker/internal/service"
	"github.com/yourname/moodtracker/internal/storage"
)

type app struct {
	logger internal.Logger
	repos  *storage.Repositories
	stats  *service.Statistics
	agg    *service.Aggregator
}

func (a *app) Logger() internal.Logger                  { return a.logger }
func (a *app) Users() storage.UserRepository            { return a.repos.Users }
func (a *app) Events() storage.EventRepository          { return a.repos.Events }
func (a *app) Personal() storage.PersonalMoodRepository { return a.repos.Personal }
func (a *app) Stats() *service.Statistics               { return a.stats }
func (a *app) Aggregator() *service.Aggregator          { return a.agg }

func buildRepositories(cfg *config.Config, logger internal.Logger) (*storage.Repositories, error) {
	if cfg.DBType == "postgres" {
		return storage.NewPostgresRepositories(cfg.DBDSN, logger)
	}
	return storage.NewFileRepositories(cfg.FileUsers, cfg.FileEvents, cfg.FileAverages, cfg.FilePersonal, logger)
}

func main() {
	cfg := config.Load()
	logger, err := internal.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}

	repos, err := buildRepositories(cfg, logger)
	if err != nil {
		logger.Fatalf("failed to init storage: %v", err)
	}

	a := &app{
		logger: logger,
		repos:  repos,
		stats:  service.NewStatistics(repos.Events, repos.Averages, logger),
		agg:    service.NewAggregator(repos.Users, repos.Events, repos.Averages, logger),
	}

	var provider auth.Provider
	if cfg.Env == "development" {
		provider = auth.NewLocalAuthProvider(repos.Users, logger)
	} else {
		provider = auth.NewRemoteAuthProvider(cfg.AuthURL, logger)
	}

	r := gin.Default()
	r.Use(api.RequestIDMiddleware())

	r.POST("/users", api.RegisterUser(a))

	authed := r.Group("/", auth.AuthMiddleware(provider, cfg))
	authed.GET("/moods/catalog", api.GetMoodCatalog(a))
	authed.GET("/moods/personal", api.GetPersonalMoods(a))
	authed.PUT("/moods/personal", api.PutPersonalMood(a))
	authed.POST("/moods", api.PostMood(a))
	authed.GET("/moods/statistics", api.GetStatistics(a))
	authed.GET("/moods/day", api.GetDayDetail(a))
	authed.POST("/admin/aggregate/daily", api.AggregateDaily(a))
	authed.POST("/admin/aggregate/backfill", api.AggregateBackfill(a))

	logger.Infof("server listening on %s", cfg.HTTPAddr)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		logger.Errorf("server stopped: %v", err)
	}
	if err := repos.Close(); err != nil {
		logger.Errorf("failed to close storage: %v", err)
	}
}
