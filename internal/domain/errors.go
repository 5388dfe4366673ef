package domain

import "errors"

var (
	ErrSpreadNotFound   = errors.New("spread not found")
	ErrCardNotFound     = errors.New("card not found")
	ErrReadingNotFound  = errors.New("reading not found")
	ErrPositionNotFound = errors.New("no drawn card at position")
	ErrInvalidPhase     = errors.New("operation not valid in current phase")
	ErrDeckExhausted    = errors.New("deck smaller than spread")
	ErrNotReady         = errors.New("reading not ready for synthesis")
	ErrNotRetryable     = errors.New("interpretation is not retryable")

	// ErrModelBusy marks a transient upstream failure: the next model in
	// the fallback order may be tried and the caller may retry.
	ErrModelBusy = errors.New("model temporarily unavailable")
	// ErrUpstreamLLM marks any other upstream failure.
	ErrUpstreamLLM = errors.New("upstream LLM failure")
)
