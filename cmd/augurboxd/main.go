package main

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sirsean/project-augurbox/internal/adapters/decks"
	httpadapter "github.com/sirsean/project-augurbox/internal/adapters/http"
	"github.com/sirsean/project-augurbox/internal/adapters/llm/workersai"
	"github.com/sirsean/project-augurbox/internal/adapters/sessions"
	"github.com/sirsean/project-augurbox/internal/adapters/spreads"
	"github.com/sirsean/project-augurbox/internal/app"
	"github.com/sirsean/project-augurbox/internal/augur"
	"github.com/sirsean/project-augurbox/internal/config"
	"github.com/sirsean/project-augurbox/internal/relay"
)

// stdRNG delegates to math/rand/v2 (auto-seeded).
type stdRNG struct{}

func (stdRNG) Intn(n int) int { return rand.IntN(n) }

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	cardStore := decks.NewEmbeddedStore()
	spreadStore := spreads.NewEmbeddedStore()

	models := workersai.DefaultModels()
	if len(cfg.AIModels) > 0 {
		models = workersai.ModelsFromNames(cfg.AIModels)
	}
	aiClient := workersai.NewClient(
		&http.Client{Timeout: cfg.LLMTimeout},
		cfg.CFBaseURL,
		cfg.CFAccountID,
		cfg.CFAPIToken,
		logger,
	)
	generator := workersai.NewRunner(aiClient, models, logger)

	oracle := relay.NewClient(
		&http.Client{Timeout: cfg.LLMTimeout},
		cfg.OracleBaseURL,
		logger,
		relay.WithStreaming(cfg.OracleStreaming),
		relay.WithReducer(relay.Reducer{
			PaceDelay:   cfg.StreamPaceDelay,
			IdleTimeout: cfg.ReadIdleTimeout,
		}),
	)

	sessionStore := sessions.NewStore(cfg.SessionTTL)
	svc := app.NewService(cardStore, spreadStore, oracle, sessionStore, stdRNG{}, logger)

	promptCfg := augur.DefaultConfig()
	if style, ok := augur.StyleByID(augur.StyleID(cfg.Style)); ok {
		promptCfg.Style = style
	} else {
		logger.Warn("unknown style, using default", "style", cfg.Style)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = httpadapter.NewValidator()

	e.Use(httpadapter.RequestIDMiddleware())
	e.Use(httpadapter.LoggingMiddleware(logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodPost, http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType},
	}))

	handler := httpadapter.NewHandler(svc, cardStore, spreadStore, generator, promptCfg, logger)
	handler.Register(e)

	// Graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		logger.Info("starting server", "addr", cfg.HTTPAddr)
		if err := e.Start(cfg.HTTPAddr); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
