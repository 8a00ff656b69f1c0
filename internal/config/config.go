// internal/config/config.go
//
// Process configuration read from the environment (after godotenv has
// loaded any .env file). Every setting has a development default.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the server and game settings.
type Config struct {
	Port      string
	LogLevel  string
	LogFormat string // "json" or "console"

	GeneratorURL     string
	GeneratorTimeout time.Duration
	Language         string

	RoundSeconds int
	MaxAttempts  int

	DBPath     string
	TopicsFile string

	JWTSecret      string
	JWTExpires     time.Duration
	ClientOrigin   string
	DailySalt      string
	SessionIdleTTL time.Duration
	HandlerTimeout time.Duration
}

// Load reads the environment. Malformed numbers and durations fall back to
// their defaults.
func Load() Config {
	return Config{
		Port:      getEnv("PORT", "5175"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "json")),

		GeneratorURL:     getEnv("GENERATOR_URL", "http://localhost:5000"),
		GeneratorTimeout: envDuration("GENERATOR_TIMEOUT", 30*time.Second),
		Language:         getEnv("GAME_LANGUAGE", "english"),

		RoundSeconds: envInt("ROUND_SECONDS", 20),
		MaxAttempts:  envInt("MAX_ATTEMPTS", 5),

		DBPath:     getEnv("DB_PATH", "./data/taibu.db"),
		TopicsFile: os.Getenv("TOPICS_FILE"),

		JWTSecret:      getEnv("JWT_SECRET", "dev_secret_change_me"),
		JWTExpires:     time.Duration(envInt("JWT_EXPIRES_HOURS", 24)) * time.Hour,
		ClientOrigin:   getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		DailySalt:      getEnv("DAILY_SALT", "local_dev_salt"),
		SessionIdleTTL: envDuration("SESSION_IDLE_TTL", 30*time.Minute),
		HandlerTimeout: envDuration("HANDLER_TIMEOUT", 60*time.Second),
	}
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

// envInt parses a positive integer, or returns def.
func envInt(k string, def int) int {
	if n, err := strconv.Atoi(getEnv(k, "")); err == nil && n > 0 {
		return n
	}
	return def
}

// envDuration accepts Go durations ("90s") or plain seconds ("90").
func envDuration(k string, def time.Duration) time.Duration {
	v := getEnv(k, "")
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}
