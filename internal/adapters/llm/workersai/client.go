// Package workersai calls the Cloudflare Workers AI REST API and
// implements the ordered model fallback the generation endpoints rely
// on.
package workersai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sirsean/project-augurbox/internal/domain"
	"github.com/sirsean/project-augurbox/internal/ports"
)

// Model is one upstream model descriptor with its default generation
// settings.
type Model struct {
	Name        string
	MaxTokens   int
	Temperature float64
}

// DefaultModels is the ordered fallback list attempted for every
// generation.
func DefaultModels() []Model {
	return []Model{
		{Name: "@cf/meta/llama-4-scout-17b-16e-instruct", MaxTokens: 800, Temperature: 0.8},
		{Name: "@cf/meta/llama-3.2-3b-instruct", MaxTokens: 800, Temperature: 0.8},
		{Name: "@cf/meta/llama-3.1-8b-instruct", MaxTokens: 800, Temperature: 0.8},
	}
}

// ModelsFromNames builds a fallback list from configured model names,
// applying the default token/temperature settings per model.
func ModelsFromNames(names []string) []Model {
	models := make([]Model, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		models = append(models, Model{Name: n, MaxTokens: 800, Temperature: 0.8})
	}
	return models
}

const DefaultBaseURL = "https://api.cloudflare.com/client/v4"

// Client speaks the Workers AI run endpoint for a single account.
type Client struct {
	httpClient *http.Client
	baseURL    string
	accountID  string
	apiToken   string
	logger     *slog.Logger
}

func NewClient(httpClient *http.Client, baseURL, accountID, apiToken string, logger *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		accountID:  accountID,
		apiToken:   apiToken,
		logger:     logger,
	}
}

type runRequest struct {
	Messages    []ports.Message `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
	Stream      bool            `json:"stream,omitempty"`
}

type runResponse struct {
	Result struct {
		Response string `json:"response"`
	} `json:"result"`
	Success bool       `json:"success"`
	Errors  []apiError `json:"errors"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RunModel performs a non-streamed generation against one model.
func (c *Client) RunModel(ctx context.Context, model Model, messages []ports.Message, opts ports.GenerateOptions) (string, error) {
	resp, err := c.post(ctx, model, messages, opts, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %w", domain.ErrUpstreamLLM, err)
	}

	var out runResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", classify(resp.StatusCode, 0, string(body))
	}
	if resp.StatusCode != http.StatusOK || !out.Success {
		code, message := 0, string(body)
		if len(out.Errors) > 0 {
			code, message = out.Errors[0].Code, out.Errors[0].Message
		}
		return "", classify(resp.StatusCode, code, message)
	}
	return strings.TrimSpace(out.Result.Response), nil
}

// RunModelStream performs a streamed generation against one model and
// returns the raw event stream. The caller owns the body.
func (c *Client) RunModelStream(ctx context.Context, model Model, messages []ports.Message, opts ports.GenerateOptions) (io.ReadCloser, error) {
	resp, err := c.post(ctx, model, messages, opts, true)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		resp.Body.Close()
		var out runResponse
		code, message := 0, string(body)
		if err := json.Unmarshal(body, &out); err == nil && len(out.Errors) > 0 {
			code, message = out.Errors[0].Code, out.Errors[0].Message
		}
		return nil, classify(resp.StatusCode, code, message)
	}
	return resp.Body, nil
}

func (c *Client) post(ctx context.Context, model Model, messages []ports.Message, opts ports.GenerateOptions, stream bool) (*http.Response, error) {
	reqBody := runRequest{
		Messages:    messages,
		MaxTokens:   model.MaxTokens,
		Temperature: model.Temperature,
		Stream:      stream,
	}
	if opts.MaxTokens > 0 {
		reqBody.MaxTokens = opts.MaxTokens
	}
	if opts.Temperature > 0 {
		reqBody.Temperature = opts.Temperature
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/accounts/%s/ai/run/%s", c.baseURL, c.accountID, model.Name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: http call: %w", domain.ErrUpstreamLLM, err)
	}
	return resp, nil
}

// transientSignatures are upstream failure messages expected to
// resolve on retry.
var transientSignatures = []string{
	"model temporarily unavailable",
	"InferenceUpstreamError",
	"Capacity temporarily exceeded",
}

// transientCodes are Workers AI error codes for capacity failures.
var transientCodes = map[int]bool{
	3040: true,
	9000: true,
}

// classify wraps an upstream failure as transient (domain.ErrModelBusy)
// or permanent (domain.ErrUpstreamLLM).
func classify(status, code int, message string) error {
	transient := status == http.StatusTooManyRequests ||
		status == http.StatusServiceUnavailable ||
		transientCodes[code]
	if !transient {
		for _, sig := range transientSignatures {
			if strings.Contains(message, sig) {
				transient = true
				break
			}
		}
	}
	if transient {
		return fmt.Errorf("%w: upstream status %d code %d: %s", domain.ErrModelBusy, status, code, message)
	}
	return fmt.Errorf("%w: upstream status %d code %d: %s", domain.ErrUpstreamLLM, status, code, message)
}
