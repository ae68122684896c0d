package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sosodev/duration"
)

const (
	StorageFile  = "file"
	StorageMySQL = "mysql"
	StorageRedis = "redis"
)

type (
	Config struct {
		BotToken      string
		StorageDriver string
		StoragePath   string
		MySQL         MySQL
		Redis         Redis
		Aladhan       Aladhan
		Reminder      Reminder
		StatusAddr    string
		PrintMessages bool
	}

	MySQL struct {
		Host            string
		Port            string
		User            string
		Password        string
		Database        string
		TLS             string
		IgnoreMigration bool
	}

	Redis struct {
		Addr     string
		Username string
		Password string
		DB       int
		Key      string
	}

	Aladhan struct {
		BaseURL string
		Method  int
		Timeout time.Duration
	}

	Reminder struct {
		Interval     time.Duration
		Lead         time.Duration
		Window       time.Duration
		RefreshDaily bool
	}
)

func env(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

// isoDuration reads an ISO-8601 duration such as "PT10M".
func isoDuration(key, fallback string) (time.Duration, error) {
	raw := env(key, fallback)
	d, err := duration.Parse(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid ISO-8601 duration %q: %w", key, raw, err)
	}
	return d.ToTimeDuration(), nil
}

func Load() (*Config, error) {
	cfg := &Config{
		BotToken:      strings.TrimSpace(os.Getenv("BOT_TOKEN")),
		StorageDriver: strings.ToLower(env("STORAGE_DRIVER", StorageFile)),
		StoragePath:   env("STORAGE_PATH", "storage.json"),
		StatusAddr:    strings.TrimSpace(os.Getenv("STATUS_ADDR")),
		MySQL: MySQL{
			Host:     env("MYSQL_HOST", "localhost"),
			Port:     env("MYSQL_PORT", "3306"),
			User:     strings.TrimSpace(os.Getenv("MYSQL_USER")),
			Password: strings.TrimSpace(os.Getenv("MYSQL_PASSWORD")),
			Database: strings.TrimSpace(os.Getenv("MYSQL_DB")),
			TLS:      env("MYSQL_TLS", "false"),
		},
		Redis: Redis{
			Addr:     env("REDIS_ADDR", "localhost:6379"),
			Username: strings.TrimSpace(os.Getenv("REDIS_USERNAME")),
			Password: strings.TrimSpace(os.Getenv("REDIS_PASSWORD")),
			Key:      env("REDIS_KEY", "prayerbot:subscriptions"),
		},
		Aladhan: Aladhan{
			BaseURL: strings.TrimSuffix(env("ALADHAN_URL", "http://api.aladhan.com/v1"), "/"),
		},
	}

	_, cfg.MySQL.IgnoreMigration = os.LookupEnv("IGNORE_SQL_MIGRATION")
	_, cfg.PrintMessages = os.LookupEnv("PRINT_MSGS")

	if cfg.BotToken == "" {
		return nil, errors.New("BOT_TOKEN is not set")
	}

	switch cfg.StorageDriver {
	case StorageFile, StorageMySQL, StorageRedis:
	default:
		return nil, fmt.Errorf("STORAGE_DRIVER: unknown driver %q", cfg.StorageDriver)
	}

	var err error

	cfg.Redis.DB, err = strconv.Atoi(env("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("REDIS_DB: %w", err)
	}

	cfg.Aladhan.Method, err = strconv.Atoi(env("ALADHAN_METHOD", "2"))
	if err != nil {
		return nil, fmt.Errorf("ALADHAN_METHOD: %w", err)
	}

	if cfg.Aladhan.Timeout, err = isoDuration("FETCH_TIMEOUT", "PT15S"); err != nil {
		return nil, err
	}
	if cfg.Reminder.Interval, err = isoDuration("REMINDER_INTERVAL", "PT1M"); err != nil {
		return nil, err
	}
	if cfg.Reminder.Lead, err = isoDuration("REMINDER_LEAD", "PT10M"); err != nil {
		return nil, err
	}
	if cfg.Reminder.Window, err = isoDuration("REMINDER_WINDOW", "PT0S"); err != nil {
		return nil, err
	}

	if cfg.Reminder.Interval <= 0 {
		return nil, errors.New("REMINDER_INTERVAL must be positive")
	}
	if cfg.Reminder.Lead < 0 || cfg.Reminder.Window < 0 {
		return nil, errors.New("REMINDER_LEAD and REMINDER_WINDOW must not be negative")
	}

	cfg.Reminder.RefreshDaily, err = strconv.ParseBool(env("REFRESH_DAILY", "true"))
	if err != nil {
		return nil, fmt.Errorf("REFRESH_DAILY: %w", err)
	}

	return cfg, nil
}
