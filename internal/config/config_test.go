package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CF_ACCOUNT_ID", "acct-1")
	t.Setenv("CF_API_TOKEN", "tok-1")

	c, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.HTTPAddr != ":8080" {
		t.Errorf("expected default addr :8080, got %s", c.HTTPAddr)
	}
	if c.LogLevel != slog.LevelInfo {
		t.Errorf("expected info level, got %v", c.LogLevel)
	}
	if !c.OracleStreaming {
		t.Error("streaming should default on")
	}
	if c.SessionTTL != 2*time.Hour {
		t.Errorf("expected 2h session ttl, got %v", c.SessionTTL)
	}
	if c.Style != "minimal" {
		t.Errorf("expected minimal style, got %s", c.Style)
	}
	if c.AIModels != nil {
		t.Errorf("expected no model override, got %v", c.AIModels)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CF_ACCOUNT_ID", "acct-1")
	t.Setenv("CF_API_TOKEN", "tok-1")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("AI_MODELS", "@cf/meta/llama-3.2-3b-instruct, @cf/meta/llama-3.1-8b-instruct ,")
	t.Setenv("SESSION_TTL", "45m")
	t.Setenv("ORACLE_STREAMING", "false")

	c, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.HTTPAddr != ":9090" {
		t.Errorf("expected :9090, got %s", c.HTTPAddr)
	}
	if c.LogLevel != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", c.LogLevel)
	}
	if len(c.AIModels) != 2 {
		t.Fatalf("expected 2 models, got %v", c.AIModels)
	}
	if c.AIModels[1] != "@cf/meta/llama-3.1-8b-instruct" {
		t.Errorf("expected trimmed model name, got %q", c.AIModels[1])
	}
	if c.SessionTTL != 45*time.Minute {
		t.Errorf("expected 45m ttl, got %v", c.SessionTTL)
	}
	if c.OracleStreaming {
		t.Error("streaming override ignored")
	}
}

func TestLoad_MissingCredentials(t *testing.T) {
	t.Setenv("CF_ACCOUNT_ID", "")
	t.Setenv("CF_API_TOKEN", "tok-1")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without account id")
	}

	t.Setenv("CF_ACCOUNT_ID", "acct-1")
	t.Setenv("CF_API_TOKEN", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without api token")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("CF_ACCOUNT_ID", "acct-1")
	t.Setenv("CF_API_TOKEN", "tok-1")

	t.Setenv("SESSION_TTL", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid duration")
	}
	t.Setenv("SESSION_TTL", "")

	t.Setenv("LOG_LEVEL", "loud")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid log level")
	}
}
