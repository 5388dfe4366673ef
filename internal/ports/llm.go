package ports

import (
	"context"
	"io"
)

// Message is one turn of an upstream chat-completion conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateOptions override the attempted model's own defaults when
// non-zero.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
}

// GenerateResult is a completed generation plus the identifier of the
// model that actually produced it.
type GenerateResult struct {
	Text      string
	ModelUsed string
}

// StreamResult is an open upstream byte stream of newline-delimited
// `data: {"response": ...}` events, to be relayed or reduced by the
// caller. The caller owns Body and must close it.
type StreamResult struct {
	Body      io.ReadCloser
	ModelUsed string
}

// Generator produces text from an upstream inference service.
// Implementations classify failures: a transient upstream failure
// wraps domain.ErrModelBusy, anything else wraps domain.ErrUpstreamLLM.
type Generator interface {
	Generate(ctx context.Context, messages []Message, opts GenerateOptions) (GenerateResult, error)
	GenerateStream(ctx context.Context, messages []Message, opts GenerateOptions) (StreamResult, error)
}
