package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string
	LogLevel slog.Level

	// Upstream inference.
	CFAccountID string
	CFAPIToken  string
	CFBaseURL   string
	AIModels    []string
	LLMTimeout  time.Duration

	// Relay behavior.
	OracleBaseURL   string
	OracleStreaming bool
	StreamPaceDelay time.Duration
	ReadIdleTimeout time.Duration

	// Sessions and prompts.
	SessionTTL time.Duration
	Style      string
}

func Load() (Config, error) {
	// A local .env is optional; real deployments use the environment.
	_ = godotenv.Load()

	c := Config{
		HTTPAddr:        envOr("HTTP_ADDR", ":8080"),
		CFAccountID:     os.Getenv("CF_ACCOUNT_ID"),
		CFAPIToken:      os.Getenv("CF_API_TOKEN"),
		CFBaseURL:       envOr("CF_BASE_URL", "https://api.cloudflare.com/client/v4"),
		AIModels:        parseList(os.Getenv("AI_MODELS")),
		LLMTimeout:      2 * time.Minute,
		OracleBaseURL:   envOr("ORACLE_BASE_URL", "http://127.0.0.1:8080"),
		OracleStreaming: envOr("ORACLE_STREAMING", "true") == "true",
		StreamPaceDelay: 50 * time.Millisecond,
		ReadIdleTimeout: 30 * time.Second,
		SessionTTL:      2 * time.Hour,
		Style:           envOr("AUGUR_STYLE", "minimal"),
	}

	for env, dst := range map[string]*time.Duration{
		"LLM_TIMEOUT":       &c.LLMTimeout,
		"STREAM_PACE_DELAY": &c.StreamPaceDelay,
		"READ_IDLE_TIMEOUT": &c.ReadIdleTimeout,
		"SESSION_TTL":       &c.SessionTTL,
	} {
		if v := os.Getenv(env); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s %q: %w", env, v, err)
			}
			*dst = d
		}
	}

	level, err := parseLogLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}
	c.LogLevel = level

	if c.CFAccountID == "" {
		return Config{}, fmt.Errorf("CF_ACCOUNT_ID is required")
	}
	if c.CFAPIToken == "" {
		return Config{}, fmt.Errorf("CF_API_TOKEN is required")
	}

	return c, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(s, ",") {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
}
