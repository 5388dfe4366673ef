package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirsean/project-augurbox/internal/adapters/decks"
	httpadapter "github.com/sirsean/project-augurbox/internal/adapters/http"
	"github.com/sirsean/project-augurbox/internal/adapters/sessions"
	"github.com/sirsean/project-augurbox/internal/adapters/spreads"
	"github.com/sirsean/project-augurbox/internal/app"
	"github.com/sirsean/project-augurbox/internal/augur"
	"github.com/sirsean/project-augurbox/internal/domain"
	"github.com/sirsean/project-augurbox/internal/ports"
)

type fixedRNG struct{ v int }

func (r fixedRNG) Intn(n int) int { return r.v % n }

type nopOracle struct{}

func (nopOracle) Interpretation(_ context.Context, req ports.InterpretationRequest, onUpdate func(domain.GenState)) {
	onUpdate(domain.GenState{Status: domain.StatusComplete, Text: "done", ModelUsed: "m1"})
}

func (nopOracle) Synthesis(_ context.Context, _ ports.SynthesisRequest, onUpdate func(domain.GenState)) {
	onUpdate(domain.GenState{Status: domain.StatusComplete, Text: "done", ModelUsed: "m1"})
}

// stubGenerator records prompts and answers with canned results.
type stubGenerator struct {
	mu         sync.Mutex
	messages   [][]ports.Message
	opts       []ports.GenerateOptions
	text       string
	streamBody string
	err        error
}

func (g *stubGenerator) Generate(_ context.Context, messages []ports.Message, opts ports.GenerateOptions) (ports.GenerateResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.messages = append(g.messages, messages)
	g.opts = append(g.opts, opts)
	if g.err != nil {
		return ports.GenerateResult{}, g.err
	}
	return ports.GenerateResult{Text: g.text, ModelUsed: "m1"}, nil
}

func (g *stubGenerator) GenerateStream(_ context.Context, messages []ports.Message, opts ports.GenerateOptions) (ports.StreamResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.messages = append(g.messages, messages)
	g.opts = append(g.opts, opts)
	if g.err != nil {
		return ports.StreamResult{}, g.err
	}
	return ports.StreamResult{
		Body:      io.NopCloser(strings.NewReader(g.streamBody)),
		ModelUsed: "m1",
	}, nil
}

func (g *stubGenerator) lastUserPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.messages) == 0 {
		return ""
	}
	msgs := g.messages[len(g.messages)-1]
	return msgs[len(msgs)-1].Content
}

func newServer(t *testing.T, gen ports.Generator) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.Validator = httpadapter.NewValidator()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodPost, http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType},
	}))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cards := decks.NewEmbeddedStore()
	spreadStore := spreads.NewEmbeddedStore()
	svc := app.NewService(cards, spreadStore, nopOracle{}, sessions.NewStore(time.Minute), fixedRNG{v: 99}, logger)

	h := httpadapter.NewHandler(svc, cards, spreadStore, gen, augur.DefaultConfig(), logger)
	h.Register(e)
	return e
}

func doJSON(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

const updateBody = `{
	"readingType": "supply_run",
	"cards": [],
	"positions": [],
	"recentCard": {
		"card": {"name": "The Tower", "description": "Sudden structural collapse."},
		"orientation": "Reversed",
		"position": "present"
	}
}`

func TestReadingUpdate_NonStreamed(t *testing.T) {
	gen := &stubGenerator{text: "The tower falls."}
	e := newServer(t, gen)

	rec := doJSON(e, http.MethodPost, "/api/reading-update", updateBody)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "The tower falls.", resp["interpretation"])
	assert.Equal(t, "m1", resp["modelUsed"])
	assert.Equal(t, true, resp["success"])

	require.Len(t, gen.opts, 1)
	assert.Equal(t, 200, gen.opts[0].MaxTokens)
	assert.InDelta(t, 0.8, gen.opts[0].Temperature, 1e-9)

	prompt := gen.lastUserPrompt()
	assert.Contains(t, prompt, "No cards revealed yet.")
	assert.Contains(t, prompt, "Card: The Tower")
	assert.Contains(t, prompt, "Orientation: Reversed")
}

func TestReadingUpdate_MissingFields(t *testing.T) {
	gen := &stubGenerator{text: "unused"}
	e := newServer(t, gen)

	bodies := []string{
		`{}`,
		`{"readingType":"supply_run"}`,
		`{"readingType":"supply_run","cards":[],"positions":[]}`,
		`{"readingType":"supply_run","cards":null,"positions":[],"recentCard":{"card":{"name":"x","description":"y"},"orientation":"Upright","position":"past"}}`,
	}
	for _, body := range bodies {
		rec := doJSON(e, http.MethodPost, "/api/reading-update", body)
		require.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", body)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Missing required fields", resp["error"])
		assert.Equal(t, false, resp["success"])
		assert.Equal(t, false, resp["retryable"])
	}
	assert.Empty(t, gen.messages, "invalid requests must never reach the generator")
}

func TestReadingUpdate_UnknownReadingTypeFallsBack(t *testing.T) {
	gen := &stubGenerator{text: "ok"}
	e := newServer(t, gen)

	body := strings.Replace(updateBody, `"supply_run"`, `"void_gaze"`, 1)
	rec := doJSON(e, http.MethodPost, "/api/reading-update", body)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Contains(t, gen.lastUserPrompt(), "Reading Type: The Supply Run")
}

func TestReadingUpdate_ModelBusy(t *testing.T) {
	gen := &stubGenerator{err: fmt.Errorf("%w: every model over capacity", domain.ErrModelBusy)}
	e := newServer(t, gen)

	rec := doJSON(e, http.MethodPost, "/api/reading-update", updateBody)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "AI model temporarily unavailable", resp["error"])
	assert.Equal(t, true, resp["retryable"])
}

func TestReadingUpdate_PermanentFailure(t *testing.T) {
	gen := &stubGenerator{err: fmt.Errorf("%w: invalid prompt", domain.ErrUpstreamLLM)}
	e := newServer(t, gen)

	rec := doJSON(e, http.MethodPost, "/api/reading-update", updateBody)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Internal server error", resp["error"])
	assert.Equal(t, false, resp["retryable"])
}

func TestReadingUpdate_Streamed(t *testing.T) {
	gen := &stubGenerator{streamBody: "data: {\"response\":\"A\"}\n\ndata: [DONE]\n"}
	e := newServer(t, gen)

	var req map[string]any
	require.NoError(t, json.Unmarshal([]byte(updateBody), &req))
	req["stream"] = true
	raw, err := json.Marshal(req)
	require.NoError(t, err)

	rec := doJSON(e, http.MethodPost, "/api/reading-update", string(raw))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/event-stream")
	assert.Equal(t, "m1", rec.Header().Get("X-Model-Used"))
	assert.Equal(t, "data: {\"response\":\"A\"}\n\ndata: [DONE]\n", rec.Body.String())
}

func TestReadingUpdate_MethodNotAllowed(t *testing.T) {
	e := newServer(t, &stubGenerator{})
	rec := doJSON(e, http.MethodGet, "/api/reading-update", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestReadingUpdate_CORSPreflight(t *testing.T) {
	e := newServer(t, &stubGenerator{})

	req := httptest.NewRequest(http.MethodOptions, "/api/reading-update", nil)
	req.Header.Set(echo.HeaderOrigin, "https://drifter.example")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowMethods), http.MethodPost)
}

func synthesisBody(t *testing.T, stream bool) string {
	t.Helper()
	req := map[string]any{
		"readingType": "supply_run",
		"spread": map[string]any{
			"id":   "supply_run",
			"name": "Three Card Draw",
			"positions": []map[string]any{
				{"id": "past", "name": "Past Intel", "meaning": "What brought you here"},
				{"id": "present", "name": "Current Situation", "meaning": "Where you stand"},
				{"id": "future", "name": "Future Outcome", "meaning": "Where the path leads"},
			},
		},
		"drawnCards": []map[string]any{
			{"card_code": "MAJ_00", "position_id": "past", "is_reversed": true, "is_revealed": true},
			{"card_code": "MAJ_17", "position_id": "present", "is_revealed": true},
			{"card_code": "MAJ_19", "position_id": "future", "is_revealed": true},
		},
		"allCards": []map[string]any{
			{"code": "MAJ_00", "name": "The Fool", "description": "A leap into static."},
			{"code": "MAJ_17", "name": "The Star", "description": "A distant beacon."},
			{"code": "MAJ_19", "name": "The Sun", "description": "Full illumination."},
		},
		"interpretations": []map[string]any{
			{"positionId": "past", "interpretation": "A reckless start."},
		},
	}
	if stream {
		req["stream"] = true
	}
	raw, err := json.Marshal(req)
	require.NoError(t, err)
	return string(raw)
}

func TestReadingSynthesis_NonStreamed(t *testing.T) {
	gen := &stubGenerator{text: "All threads converge."}
	e := newServer(t, gen)

	rec := doJSON(e, http.MethodPost, "/api/reading-synthesis", synthesisBody(t, false))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "All threads converge.", resp["synthesis"])
	assert.Nil(t, resp["interpretation"])
	assert.Equal(t, true, resp["success"])

	require.Len(t, gen.opts, 1)
	assert.Equal(t, 800, gen.opts[0].MaxTokens)
	assert.InDelta(t, 0.7, gen.opts[0].Temperature, 1e-9)

	prompt := gen.lastUserPrompt()
	assert.Contains(t, prompt, "COMPLETE READING SYNTHESIS REQUEST")
	assert.Contains(t, prompt, "Card: The Fool (Reversed)")
	assert.Contains(t, prompt, "AI Interpretation: A reckless start.")
}

func TestReadingSynthesis_MissingFields(t *testing.T) {
	e := newServer(t, &stubGenerator{})
	rec := doJSON(e, http.MethodPost, "/api/reading-synthesis", `{"readingType":"supply_run"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Missing required fields", resp["error"])
}

func TestCatalogRoutes(t *testing.T) {
	e := newServer(t, &stubGenerator{})

	rec := doJSON(e, http.MethodGet, "/api/cards", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var cards []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cards))
	assert.Len(t, cards, 78)

	rec = doJSON(e, http.MethodGet, "/api/cards/MAJ_00", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var card map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &card))
	assert.Equal(t, "MAJ_00", card["code"])
	assert.Equal(t, "major", card["type"])

	rec = doJSON(e, http.MethodGet, "/api/cards/MAJ_99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/spreads", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var spreadList []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &spreadList))
	assert.Len(t, spreadList, 3)
}

func TestReadingRoutes_Lifecycle(t *testing.T) {
	e := newServer(t, &stubGenerator{})

	rec := doJSON(e, http.MethodPost, "/api/readings", `{"spread_id":"supply_run"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	reading := created["reading"].(map[string]any)
	readingID := reading["id"].(string)
	require.NotEmpty(t, readingID)

	// Drawing before shuffling conflicts with the phase machine.
	rec = doJSON(e, http.MethodPost, "/api/readings/"+readingID+"/draw", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/readings/"+readingID+"/shuffle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(e, http.MethodPost, "/api/readings/"+readingID+"/draw", "")
	require.Equal(t, http.StatusOK, rec.Code)

	for _, positionID := range []string{"past", "present", "future"} {
		rec = doJSON(e, http.MethodPost, "/api/readings/"+readingID+"/reveal/"+positionID, "")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec = doJSON(e, http.MethodGet, "/api/readings/"+readingID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var snap map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "complete", snap["reading"].(map[string]any)["phase"])

	// Interpretations complete asynchronously; synthesis is rejected
	// until they settle.
	require.Eventually(t, func() bool {
		rec := doJSON(e, http.MethodGet, "/api/readings/"+readingID, "")
		if rec.Code != http.StatusOK {
			return false
		}
		var s struct {
			Interpretations []struct {
				Status string `json:"status"`
			} `json:"interpretations"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
			return false
		}
		if len(s.Interpretations) != 3 {
			return false
		}
		for _, in := range s.Interpretations {
			if in.Status != "complete" {
				return false
			}
		}
		return true
	}, 2*time.Second, 5*time.Millisecond)

	rec = doJSON(e, http.MethodPost, "/api/readings/"+readingID+"/synthesis", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestReadingRoutes_Errors(t *testing.T) {
	e := newServer(t, &stubGenerator{})

	rec := doJSON(e, http.MethodPost, "/api/readings", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/readings", `{"spread_id":"void_gaze"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/readings/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthz(t *testing.T) {
	e := newServer(t, &stubGenerator{})
	rec := doJSON(e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}
