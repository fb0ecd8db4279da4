package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment         string
	AppName             string
	Port                string
	LogLevel            slog.Level
	SourceBaseURL       string
	CDNHost             string
	SiteProfilePath     string
	SQLitePath          string
	CacheTTLMinutes     int
	FetchTimeoutSeconds int
	ProbeTimeoutSeconds int
	PollingEnabled      bool
	PollingMinutes      int
	APISecret           string
	WebhookURL          string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment:         getEnv("APP_ENV", "development"),
		AppName:             getEnv("APP_NAME", "mangabridge"),
		Port:                getEnv("APP_PORT", "8080"),
		SourceBaseURL:       getEnv("SOURCE_BASE_URL", "https://www.manhuako.com"),
		CDNHost:             getEnv("CDN_HOST", "cdn.manhuako.com"),
		SiteProfilePath:     getEnv("SITE_PROFILE_PATH", ""),
		SQLitePath:          getEnv("SQLITE_PATH", "./data/app.sqlite"),
		CacheTTLMinutes:     getEnvAsInt("CACHE_TTL_MINUTES", 60),
		FetchTimeoutSeconds: getEnvAsInt("FETCH_TIMEOUT_SECONDS", 20),
		ProbeTimeoutSeconds: getEnvAsInt("PROBE_TIMEOUT_SECONDS", 8),
		PollingEnabled:      getEnvAsBool("POLLING_ENABLED", true),
		PollingMinutes:      getEnvAsInt("POLLING_MINUTES", 30),
		APISecret:           getEnv("API_SECRET", ""),
		WebhookURL:          getEnv("WEBHOOK_URL", ""),
	}

	if cfg.PollingMinutes <= 0 {
		cfg.PollingMinutes = 30
	}
	if cfg.FetchTimeoutSeconds <= 0 {
		cfg.FetchTimeoutSeconds = 20
	}
	if cfg.ProbeTimeoutSeconds <= 0 {
		cfg.ProbeTimeoutSeconds = 8
	}

	level, err := parseLogLevel(getEnv("LOG_LEVEL", "INFO"))
	if err != nil {
		return Config{}, err
	}
	cfg.LogLevel = level

	return cfg, nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch raw {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "WARN":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q, expected DEBUG|INFO|WARN|ERROR", raw)
	}
}

func getEnv(key string, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvAsBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
