package storage

import "github.com/yourname/moodtracker/internal"

func NewFileRepositories(usersFile, eventsFile, averagesFile, personalFile string, logger internal.Logger) (*Repositories, error) {
	s, err := NewFileStorage(usersFile, eventsFile, averagesFile, personalFile, logger)
	if err != nil {
		return nil, err
	}
	return &Repositories{Users: s, Events: s, Averages: s, Personal: s, closer: s.Close}, nil
}

func NewPostgresRepositories(dsn string, logger internal.Logger) (*Repositories, error) {
	s, err := NewPostgresStorage(dsn, logger)
	if err != nil {
		return nil, err
	}
	return &Repositories{Users: s, Events: s, Averages: s, Personal: s, closer: s.Close}, nil
}
