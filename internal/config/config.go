package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               string
	DatabaseURL        string
	CookieSecret       string
	CookieSecure       bool
	SessionTTL         time.Duration
	SessionSweep       time.Duration
	RateLimitPerMinute int
	RateLimitBurst     int
	SeedDemoData       bool
	SeedAdminPassword  string
}

func Load() Config {
	// Local development convenience; real deployments set the environment.
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return Config{
		Port:               port,
		DatabaseURL:        os.Getenv("DB_DSN"),
		CookieSecret:       os.Getenv("SESSION_SECRET"),
		CookieSecure:       readBool("COOKIE_SECURE", false),
		SessionTTL:         readDurationSeconds("SESSION_TTL_SECONDS", 8*60*60),
		SessionSweep:       readDurationSeconds("SESSION_SWEEP_INTERVAL_SECONDS", 600),
		RateLimitPerMinute: readInt("RATE_LIMIT_PER_MIN", 120),
		RateLimitBurst:     readInt("RATE_LIMIT_BURST", 30),
		SeedDemoData:       readBool("SEED_DEMO_DATA", true),
		SeedAdminPassword:  readString("SEED_ADMIN_PASSWORD", "admin"),
	}
}

func readString(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func readDurationSeconds(key string, fallback int) time.Duration {
	value := readInt(key, fallback)
	if value <= 0 {
		return 0
	}
	return time.Duration(value) * time.Second
}

func readInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func readBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}
