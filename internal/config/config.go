package config

import (
	"errors"
	"os"
	"sync"

	"github.com/joho/godotenv"
)

type Config struct {
	Env          string
	LogLevel     string
	HTTPAddr     string
	DBType       string
	DBDSN        string
	AuthURL      string
	FileUsers    string
	FileEvents   string
	FileAverages string
	FilePersonal string
}

var (
	cfg  *Config
	once sync.Once
)

func Load() *Config {
	once.Do(func() {
		_ = godotenv.Load()
		cfg = &Config{
			Env:          getEnv("APP_ENV", "development"),
			LogLevel:     getEnv("LOG_LEVEL", "info"),
			HTTPAddr:     getEnv("HTTP_ADDR", ":8088"),
			DBType:       getEnv("STORAGE_BACKEND", "file"),
			DBDSN:        getEnv("POSTGRES_DSN", ""),
			AuthURL:      getEnv("AUTH_URL", ""),
			FileUsers:    getEnv("USERS_FILE", "data/users.json"),
			FileEvents:   getEnv("EVENTS_FILE", "data/mood_events.json"),
			FileAverages: getEnv("AVERAGES_FILE", "data/daily_averages.json"),
			FilePersonal: getEnv("PERSONAL_MOODS_FILE", "data/personal_moods.json"),
		}
		if err := cfg.Validate(); err != nil {
			panic("Invalid config: " + err.Error())
		}
	})
	return cfg
}

func (c *Config) Validate() error {
	if c.DBType != "file" && c.DBType != "postgres" {
		return errors.New("STORAGE_BACKEND must be one of: file, postgres")
	}
	if c.DBType == "postgres" && c.DBDSN == "" {
		return errors.New("POSTGRES_DSN is required when STORAGE_BACKEND=postgres")
	}
	if c.DBType == "file" && (c.FileUsers == "" || c.FileEvents == "" || c.FileAverages == "" || c.FilePersonal == "") {
		return errors.New("file storage requires USERS_FILE, EVENTS_FILE, AVERAGES_FILE and PERSONAL_MOODS_FILE to be set")
	}
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return errors.New("APP_ENV must be one of: development, staging, production")
	}
	if c.Env != "development" && c.AuthURL == "" {
		return errors.New("AUTH_URL is required outside development")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
