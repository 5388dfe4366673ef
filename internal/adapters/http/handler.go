// Package http is the HTTP surface: the reading session routes, the
// card/spread catalog routes, and the two stateless generation
// endpoints the relay consumes.
package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sirsean/project-augurbox/internal/app"
	"github.com/sirsean/project-augurbox/internal/augur"
	"github.com/sirsean/project-augurbox/internal/domain"
	"github.com/sirsean/project-augurbox/internal/ports"
)

const headerModelUsed = "X-Model-Used"

type Handler struct {
	svc       *app.Service
	cards     ports.CardStore
	spreads   ports.SpreadStore
	gen       ports.Generator
	promptCfg augur.Config
	logger    *slog.Logger
}

func NewHandler(svc *app.Service, cards ports.CardStore, spreads ports.SpreadStore, gen ports.Generator, promptCfg augur.Config, logger *slog.Logger) *Handler {
	return &Handler{
		svc:       svc,
		cards:     cards,
		spreads:   spreads,
		gen:       gen,
		promptCfg: promptCfg,
		logger:    logger,
	}
}

func (h *Handler) Register(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)

	e.GET("/api/cards", h.ListCards)
	e.GET("/api/cards/:code", h.GetCard)
	e.GET("/api/spreads", h.ListSpreads)

	e.POST("/api/readings", h.CreateReading)
	e.GET("/api/readings/:id", h.GetReading)
	e.POST("/api/readings/:id/shuffle", h.Shuffle)
	e.POST("/api/readings/:id/draw", h.Draw)
	e.POST("/api/readings/:id/reveal/:position", h.Reveal)
	e.POST("/api/readings/:id/reveal/:position/retry", h.RetryInterpretation)
	e.POST("/api/readings/:id/synthesis", h.Synthesize)

	e.POST("/api/reading-update", h.ReadingUpdate)
	e.POST("/api/reading-synthesis", h.ReadingSynthesis)
}

func (h *Handler) Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// Catalog routes.

func (h *Handler) ListCards(c echo.Context) error {
	cards, err := h.cards.Catalog(c.Request().Context())
	if err != nil {
		return h.mapError(c, err)
	}
	out := make([]CardResponse, len(cards))
	for i, card := range cards {
		out[i] = toCardResponse(card)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) GetCard(c echo.Context) error {
	card, err := h.cards.CardByCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, toCardResponse(card))
}

func (h *Handler) ListSpreads(c echo.Context) error {
	out, err := h.spreads.Spreads(c.Request().Context())
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Reading session routes.

type createReadingRequest struct {
	SpreadID string `json:"spread_id" validate:"required"`
}

func (h *Handler) CreateReading(c echo.Context) error {
	var req createReadingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "spread_id is required"})
	}
	snap, err := h.svc.SelectSpread(c.Request().Context(), req.SpreadID)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusCreated, snap)
}

func (h *Handler) GetReading(c echo.Context) error {
	snap, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

func (h *Handler) Shuffle(c echo.Context) error {
	snap, err := h.svc.Shuffle(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

func (h *Handler) Draw(c echo.Context) error {
	snap, err := h.svc.Draw(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

func (h *Handler) Reveal(c echo.Context) error {
	snap, err := h.svc.Reveal(c.Request().Context(), c.Param("id"), c.Param("position"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

func (h *Handler) RetryInterpretation(c echo.Context) error {
	snap, err := h.svc.RetryInterpretation(c.Request().Context(), c.Param("id"), c.Param("position"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

func (h *Handler) Synthesize(c echo.Context) error {
	snap, err := h.svc.Synthesize(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusAccepted, snap)
}

// Generation endpoints.

func (h *Handler) ReadingUpdate(c echo.Context) error {
	var req ReadingUpdateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c)
	}

	spread := h.readingType(c, req.ReadingType)

	revealed := make([]ports.RevealedCard, len(*req.Cards))
	for i, card := range *req.Cards {
		revealed[i] = ports.RevealedCard{
			Name:        card.Name,
			Orientation: domain.Orientation(card.Orientation),
		}
	}
	system, user := augur.InterpretationPrompts(h.promptCfg, spread, ports.InterpretationRequest{
		ReadingType: req.ReadingType,
		Revealed:    revealed,
		Positions:   *req.Positions,
		Recent: ports.RecentCard{
			CardName:        req.RecentCard.Card.Name,
			CardDescription: req.RecentCard.Card.Description,
			Orientation:     domain.Orientation(req.RecentCard.Orientation),
			PositionID:      req.RecentCard.Position,
		},
	})

	messages := []ports.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}
	opts := ports.GenerateOptions{MaxTokens: 200, Temperature: 0.8}

	if req.Stream {
		return h.relayStream(c, messages, opts)
	}

	result, err := h.gen.Generate(c.Request().Context(), messages, opts)
	if err != nil {
		return h.generationError(c, err)
	}
	return c.JSON(http.StatusOK, GenerationResponse{
		Interpretation: result.Text,
		ModelUsed:      result.ModelUsed,
		Success:        true,
	})
}

func (h *Handler) ReadingSynthesis(c echo.Context) error {
	var req ReadingSynthesisRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c)
	}

	spread := h.readingType(c, req.ReadingType)

	drawn := make([]domain.DrawnCard, len(*req.DrawnCards))
	for i, d := range *req.DrawnCards {
		drawn[i] = domain.DrawnCard(d)
	}
	all := make([]domain.Card, len(*req.AllCards))
	for i, card := range *req.AllCards {
		all[i] = domain.Card{Code: card.Code, Name: card.Name, Description: card.Description}
	}
	completed := make([]ports.CompletedInterpretation, len(*req.Interpretations))
	for i, in := range *req.Interpretations {
		completed[i] = ports.CompletedInterpretation{PositionID: in.PositionID, Text: in.Interpretation}
	}
	system, user := augur.SynthesisPrompts(h.promptCfg, spread, ports.SynthesisRequest{
		ReadingType:     req.ReadingType,
		Spread:          spread,
		DrawnCards:      drawn,
		AllCards:        all,
		Interpretations: completed,
	})

	messages := []ports.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}
	opts := ports.GenerateOptions{MaxTokens: 800, Temperature: 0.7}

	if req.Stream {
		return h.relayStream(c, messages, opts)
	}

	result, err := h.gen.Generate(c.Request().Context(), messages, opts)
	if err != nil {
		return h.generationError(c, err)
	}
	return c.JSON(http.StatusOK, GenerationResponse{
		Synthesis: result.Text,
		ModelUsed: result.ModelUsed,
		Success:   true,
	})
}

// readingType resolves the spread for a reading type, falling back to
// the baseline spread for unknown types. The fallback is documented
// behavior, not an error.
func (h *Handler) readingType(c echo.Context, id string) domain.Spread {
	ctx := c.Request().Context()
	spread, err := h.spreads.SpreadByID(ctx, id)
	if err == nil {
		return spread
	}
	if !errors.Is(err, domain.ErrSpreadNotFound) {
		h.logger.ErrorContext(ctx, "spread catalog failure", "error", err)
	}
	spread, _ = h.spreads.SpreadByID(ctx, "supply_run")
	return spread
}

// relayStream opens the upstream stream (fallback applies until the
// first byte) and relays it verbatim to the caller.
func (h *Handler) relayStream(c echo.Context, messages []ports.Message, opts ports.GenerateOptions) error {
	sr, err := h.gen.GenerateStream(c.Request().Context(), messages, opts)
	if err != nil {
		return h.generationError(c, err)
	}
	defer sr.Body.Close()

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set(headerModelUsed, sr.ModelUsed)
	resp.WriteHeader(http.StatusOK)

	buf := make([]byte, 4096)
	for {
		n, err := sr.Body.Read(buf)
		if n > 0 {
			if _, werr := resp.Write(buf[:n]); werr != nil {
				return nil
			}
			resp.Flush()
		}
		if err != nil {
			if err != io.EOF {
				h.logger.WarnContext(c.Request().Context(), "upstream stream ended early", "error", err)
			}
			return nil
		}
	}
}

func badRequest(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, GenerationError{
		Error:     "Missing required fields",
		Success:   false,
		Retryable: false,
	})
}

// generationError classifies an upstream failure per the fallback
// taxonomy: transient failures are retryable 503s, everything else is
// a non-retryable 500 with no internal detail leaked.
func (h *Handler) generationError(c echo.Context, err error) error {
	ctx := c.Request().Context()
	if errors.Is(err, domain.ErrModelBusy) {
		h.logger.WarnContext(ctx, "all models busy", "error", err)
		return c.JSON(http.StatusServiceUnavailable, GenerationError{
			Error:     "AI model temporarily unavailable",
			Success:   false,
			Retryable: true,
		})
	}
	h.logger.ErrorContext(ctx, "generation failure", "error", err)
	return c.JSON(http.StatusInternalServerError, GenerationError{
		Error:     "Internal server error",
		Success:   false,
		Retryable: false,
	})
}

// mapError translates domain errors for the session/catalog routes.
func (h *Handler) mapError(c echo.Context, err error) error {
	requestID, _ := c.Get("request_id").(string)

	switch {
	case errors.Is(err, domain.ErrSpreadNotFound),
		errors.Is(err, domain.ErrCardNotFound),
		errors.Is(err, domain.ErrReadingNotFound),
		errors.Is(err, domain.ErrPositionNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidPhase),
		errors.Is(err, domain.ErrNotReady),
		errors.Is(err, domain.ErrNotRetryable):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	default:
		h.logger.Error("internal error", "request_id", requestID, "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
