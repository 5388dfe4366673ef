// Package relay consumes the generation endpoints on behalf of a
// reading session: it issues the interpretation/synthesis requests and
// reduces the (possibly streamed) responses into observable generation
// state. The same reducer serves both the per-card and whole-reading
// callers.
package relay

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirsean/project-augurbox/internal/domain"
)

// Response is the two-variant transport result: exactly one of Stream
// or Payload is set. The transport decides the variant once, from the
// response headers; reducers pattern-match instead of re-inspecting
// headers.
type Response struct {
	Stream    io.ReadCloser
	Payload   *Payload
	ModelUsed string
}

// Payload is the non-streamed JSON body of both generation endpoints.
type Payload struct {
	Interpretation string `json:"interpretation"`
	Synthesis      string `json:"synthesis"`
	ModelUsed      string `json:"modelUsed"`
	Success        bool   `json:"success"`
	Error          string `json:"error"`
	Retryable      bool   `json:"retryable"`
}

// Text returns whichever narration field the endpoint filled.
func (p *Payload) Text() string {
	if p.Interpretation != "" {
		return p.Interpretation
	}
	return p.Synthesis
}

// In-universe failure messages surfaced to the reader.
const (
	transportErrText = "Connection interrupted... data stream corrupted."
	idleErrText      = "Signal lost... the Augurbox transmission has stalled."
)

const (
	// DefaultPaceDelay spaces out streamed fragments so the text appears
	// to be typed. Purely cosmetic.
	DefaultPaceDelay = 50 * time.Millisecond
	// DefaultIdleTimeout bounds how long the reducer waits for the next
	// streamed byte before giving up as retryable.
	DefaultIdleTimeout = 30 * time.Second

	maxLineSize = 1024 * 1024
)

// Reducer turns a transport Response into a sequence of GenState
// updates ending in a terminal state.
type Reducer struct {
	PaceDelay   time.Duration
	IdleTimeout time.Duration
}

type sseEvent struct {
	Response string `json:"response"`
}

// Reduce publishes updates through onUpdate until a terminal state is
// reached. It returns early without a terminal update only when ctx is
// done, at which point nobody is observing the record anyway.
func (rd Reducer) Reduce(ctx context.Context, resp Response, onUpdate func(domain.GenState)) {
	if resp.Stream != nil {
		rd.reduceStream(ctx, resp.Stream, resp.ModelUsed, onUpdate)
		return
	}
	reducePayload(resp.Payload, onUpdate)
}

func reducePayload(p *Payload, onUpdate func(domain.GenState)) {
	if p.Success {
		onUpdate(domain.GenState{
			Status:    domain.StatusComplete,
			Text:      p.Text(),
			ModelUsed: p.ModelUsed,
		})
		return
	}
	errText := p.Error
	if errText == "" {
		errText = "Unknown error occurred"
	}
	onUpdate(domain.GenState{
		Status:    domain.StatusErrored,
		Err:       errText,
		Retryable: p.Retryable,
	})
}

func (rd Reducer) reduceStream(ctx context.Context, body io.ReadCloser, modelUsed string, onUpdate func(domain.GenState)) {
	defer body.Close()

	onUpdate(domain.GenState{Status: domain.StatusStreaming, ModelUsed: modelUsed})

	// The read loop otherwise has no timeout: an upstream that stops
	// sending without closing would hang the session in streaming
	// forever. The watchdog closes the body after IdleTimeout of
	// silence, surfacing a retryable error.
	var timedOut atomic.Bool
	var watchdog *time.Timer
	if rd.IdleTimeout > 0 {
		watchdog = time.AfterFunc(rd.IdleTimeout, func() {
			timedOut.Store(true)
			body.Close()
		})
		defer watchdog.Stop()
	}

	var text strings.Builder
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		if watchdog != nil {
			watchdog.Reset(rd.IdleTimeout)
		}
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			continue
		}
		var ev sseEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			// Malformed frames are skipped, not fatal.
			continue
		}
		if ev.Response == "" {
			continue
		}
		text.WriteString(ev.Response)
		onUpdate(domain.GenState{
			Status:    domain.StatusStreaming,
			Text:      text.String(),
			ModelUsed: modelUsed,
		})
		if rd.PaceDelay > 0 {
			select {
			case <-time.After(rd.PaceDelay):
			case <-ctx.Done():
				return
			}
		}
		if ctx.Err() != nil {
			return
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return
		}
		if timedOut.Load() {
			onUpdate(domain.GenState{
				Status:    domain.StatusErrored,
				Err:       idleErrText,
				Retryable: true,
			})
			return
		}
		onUpdate(domain.GenState{
			Status: domain.StatusErrored,
			Err:    transportErrText,
		})
		return
	}

	onUpdate(domain.GenState{
		Status:    domain.StatusComplete,
		Text:      text.String(),
		ModelUsed: modelUsed,
	})
}
