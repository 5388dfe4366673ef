package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sirsean/project-augurbox/internal/domain"
	"github.com/sirsean/project-augurbox/internal/ports"
)

const (
	updatePath    = "/api/reading-update"
	synthesisPath = "/api/reading-synthesis"

	headerModelUsed = "X-Model-Used"
)

// Client implements ports.Oracle against the generation endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	reducer    Reducer
	stream     bool
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithStreaming toggles whether requests ask for streamed responses.
func WithStreaming(stream bool) Option {
	return func(c *Client) { c.stream = stream }
}

// WithReducer overrides the pacing/idle-timeout settings.
func WithReducer(rd Reducer) Option {
	return func(c *Client) { c.reducer = rd }
}

func NewClient(httpClient *http.Client, baseURL string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		reducer: Reducer{
			PaceDelay:   DefaultPaceDelay,
			IdleTimeout: DefaultIdleTimeout,
		},
		stream: true,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Wire shapes of the generation endpoints.

type wireCard struct {
	Name        string `json:"name"`
	Orientation string `json:"orientation"`
}

type wireCardInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type wireRecentCard struct {
	Card        wireCardInfo `json:"card"`
	Orientation string       `json:"orientation"`
	Position    string       `json:"position"`
}

type updateRequest struct {
	ReadingType string         `json:"readingType"`
	Cards       []wireCard     `json:"cards"`
	Positions   []string       `json:"positions"`
	RecentCard  wireRecentCard `json:"recentCard"`
	Stream      bool           `json:"stream,omitempty"`
}

type wireCatalogCard struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type wireDrawnCard struct {
	CardCode   string `json:"card_code"`
	PositionID string `json:"position_id"`
	IsReversed bool   `json:"is_reversed"`
	IsRevealed bool   `json:"is_revealed"`
}

type wireInterpretation struct {
	PositionID     string `json:"positionId"`
	Interpretation string `json:"interpretation"`
}

type synthesisRequest struct {
	ReadingType     string               `json:"readingType"`
	Spread          domain.Spread        `json:"spread"`
	DrawnCards      []wireDrawnCard      `json:"drawnCards"`
	AllCards        []wireCatalogCard    `json:"allCards"`
	Interpretations []wireInterpretation `json:"interpretations"`
	Stream          bool                 `json:"stream,omitempty"`
}

// Interpretation requests narration for a freshly revealed card and
// reduces the response into onUpdate. The loading state is published
// before the request leaves.
func (c *Client) Interpretation(ctx context.Context, req ports.InterpretationRequest, onUpdate func(domain.GenState)) {
	cards := make([]wireCard, len(req.Revealed))
	for i, r := range req.Revealed {
		cards[i] = wireCard{Name: r.Name, Orientation: string(r.Orientation)}
	}
	// The first reveal legitimately has no prior positions; send an
	// empty array rather than null so validation accepts it.
	positions := req.Positions
	if positions == nil {
		positions = []string{}
	}
	body := updateRequest{
		ReadingType: req.ReadingType,
		Cards:       cards,
		Positions:   positions,
		RecentCard: wireRecentCard{
			Card: wireCardInfo{
				Name:        req.Recent.CardName,
				Description: req.Recent.CardDescription,
			},
			Orientation: string(req.Recent.Orientation),
			Position:    req.Recent.PositionID,
		},
		Stream: c.stream,
	}
	c.run(ctx, updatePath, body, onUpdate)
}

// Synthesis requests the final whole-reading narration.
func (c *Client) Synthesis(ctx context.Context, req ports.SynthesisRequest, onUpdate func(domain.GenState)) {
	drawn := make([]wireDrawnCard, len(req.DrawnCards))
	for i, d := range req.DrawnCards {
		drawn[i] = wireDrawnCard(d)
	}
	all := make([]wireCatalogCard, len(req.AllCards))
	for i, card := range req.AllCards {
		all[i] = wireCatalogCard{Code: card.Code, Name: card.Name, Description: card.Description}
	}
	interps := make([]wireInterpretation, len(req.Interpretations))
	for i, in := range req.Interpretations {
		interps[i] = wireInterpretation{PositionID: in.PositionID, Interpretation: in.Text}
	}
	body := synthesisRequest{
		ReadingType:     req.ReadingType,
		Spread:          req.Spread,
		DrawnCards:      drawn,
		AllCards:        all,
		Interpretations: interps,
		Stream:          c.stream,
	}
	c.run(ctx, synthesisPath, body, onUpdate)
}

func (c *Client) run(ctx context.Context, path string, body any, onUpdate func(domain.GenState)) {
	onUpdate(domain.GenState{Status: domain.StatusLoading})

	resp, err := c.post(ctx, path, body)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.logger.WarnContext(ctx, "oracle transport failure", "path", path, "error", err)
		onUpdate(domain.GenState{
			Status: domain.StatusErrored,
			Err:    transportErrText,
		})
		return
	}
	c.reducer.Reduce(ctx, resp, onUpdate)
}

// post issues the request and resolves the two-variant transport
// result from the response headers, once.
func (c *Client) post(ctx context.Context, path string, body any) (Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return Response{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("http call: %w", err)
	}

	ct := resp.Header.Get("Content-Type")
	if strings.Contains(ct, "text/event-stream") || strings.Contains(ct, "text/plain") {
		return Response{
			Stream:    resp.Body,
			ModelUsed: resp.Header.Get(headerModelUsed),
		}, nil
	}

	defer resp.Body.Close()
	var payload Payload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return Response{Payload: &payload}, nil
}
