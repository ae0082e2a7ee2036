package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the tracker.
type Config struct {
	DatabaseDriver string
	DatabaseURL    string
	HTTPAddr       string
	GinMode        string
	LogLevel       string
	LogFormat      string

	// DueSoonWindow is how far ahead a task still counts as upcoming.
	DueSoonWindow time.Duration
	// RecentMaintenanceWindow bounds the recent maintenance count in stats.
	RecentMaintenanceWindow time.Duration

	TelegramToken        string
	TelegramAllowedUsers []int64
}

const day = 24 * time.Hour

// Load reads configuration from environment variables (and an optional .env
// file) with sane defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		DatabaseDriver: strings.ToLower(getEnv("DATABASE_DRIVER", "sqlite")),
		DatabaseURL:    getEnv("DATABASE_URL", "aquarium.db"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":5000"),
		GinMode:        getEnv("GIN_MODE", "release"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "console"),
		TelegramToken:  strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
	}

	switch cfg.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return cfg, fmt.Errorf("DATABASE_DRIVER %q is not supported", cfg.DatabaseDriver)
	}

	dueSoon, err := parseDays("DUE_SOON_DAYS", 7)
	if err != nil {
		return cfg, err
	}
	cfg.DueSoonWindow = dueSoon

	recent, err := parseDays("RECENT_MAINTENANCE_DAYS", 30)
	if err != nil {
		return cfg, err
	}
	cfg.RecentMaintenanceWindow = recent

	users, err := parseIDs(os.Getenv("TELEGRAM_ALLOWED_USERS"))
	if err != nil {
		return cfg, err
	}
	cfg.TelegramAllowedUsers = users

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseDays(key string, fallback int) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return time.Duration(fallback) * day, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		return 0, fmt.Errorf("%s must be a positive number of days, got %q", key, raw)
	}
	return time.Duration(days) * day, nil
}

func parseIDs(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_ALLOWED_USERS: invalid user id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
