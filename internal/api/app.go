package api

import (
	"github.com/yourname/moodtracker/internal"
	"github.com/yourname/moodtracker/internal/service"
	"github.com/yourname/moodtracker/internal/storage"
)

type App interface {
	Logger() internal.Logger
	Users() storage.UserRepository
	Events() storage.EventRepository
	Personal() storage.PersonalMoodRepository
	Stats() *service.Statistics
	Aggregator() *service.Aggregator
}
