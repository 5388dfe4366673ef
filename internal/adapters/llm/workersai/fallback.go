package workersai

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/sirsean/project-augurbox/internal/domain"
	"github.com/sirsean/project-augurbox/internal/ports"
)

// modelCaller is the single-model surface the fallback iterates over.
type modelCaller interface {
	RunModel(ctx context.Context, model Model, messages []ports.Message, opts ports.GenerateOptions) (string, error)
	RunModelStream(ctx context.Context, model Model, messages []ports.Message, opts ports.GenerateOptions) (io.ReadCloser, error)
}

// Runner implements ports.Generator by attempting an ordered list of
// models. A transient failure moves on to the next model; any other
// failure aborts immediately. The caller always learns which model
// actually produced the result.
type Runner struct {
	caller modelCaller
	models []Model
	logger *slog.Logger
}

func NewRunner(caller modelCaller, models []Model, logger *slog.Logger) *Runner {
	return &Runner{caller: caller, models: models, logger: logger}
}

func (r *Runner) Generate(ctx context.Context, messages []ports.Message, opts ports.GenerateOptions) (ports.GenerateResult, error) {
	var lastErr error
	for _, model := range r.models {
		text, err := r.caller.RunModel(ctx, model, messages, opts)
		if err == nil {
			r.logger.InfoContext(ctx, "generation served", "model", model.Name)
			return ports.GenerateResult{Text: text, ModelUsed: model.Name}, nil
		}
		if !errors.Is(err, domain.ErrModelBusy) {
			return ports.GenerateResult{}, err
		}
		r.logger.WarnContext(ctx, "model busy, trying next", "model", model.Name, "error", err)
		lastErr = err
	}
	if lastErr == nil {
		lastErr = domain.ErrUpstreamLLM
	}
	return ports.GenerateResult{}, lastErr
}

// GenerateStream applies the same fallback order, but only until a
// stream is opened; once bytes may have been relayed there is nothing
// left to fall back to.
func (r *Runner) GenerateStream(ctx context.Context, messages []ports.Message, opts ports.GenerateOptions) (ports.StreamResult, error) {
	var lastErr error
	for _, model := range r.models {
		body, err := r.caller.RunModelStream(ctx, model, messages, opts)
		if err == nil {
			r.logger.InfoContext(ctx, "stream opened", "model", model.Name)
			return ports.StreamResult{Body: body, ModelUsed: model.Name}, nil
		}
		if !errors.Is(err, domain.ErrModelBusy) {
			return ports.StreamResult{}, err
		}
		r.logger.WarnContext(ctx, "model busy, trying next", "model", model.Name, "error", err)
		lastErr = err
	}
	if lastErr == nil {
		lastErr = domain.ErrUpstreamLLM
	}
	return ports.StreamResult{}, lastErr
}
