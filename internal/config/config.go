package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string

	RedisURL string

	// LeaderboardStaleness is the documented staleness bound for cached
	// leaderboard reads; the consistency sweep compares the redis index
	// against the ledger no less often than this.
	LeaderboardStaleness time.Duration

	// ConsistencySweepCron schedules the index consistency check.
	ConsistencySweepCron string
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		RedisURL: os.Getenv("REDIS_URL"),

		ConsistencySweepCron: getEnv("CONSISTENCY_SWEEP_CRON", "@every 10m"),
	}

	// Parsing durations
	var err error
	cfg.LeaderboardStaleness, err = parseDuration(getEnv("LEADERBOARD_STALENESS", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid LEADERBOARD_STALENESS: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}
