package domain

// GenStatus is the lifecycle of one AI-generated text.
// Transitions follow idle -> loading -> {streaming -> complete | complete | errored}.
type GenStatus string

const (
	StatusIdle      GenStatus = "idle"
	StatusLoading   GenStatus = "loading"
	StatusStreaming GenStatus = "streaming"
	StatusComplete  GenStatus = "complete"
	StatusErrored   GenStatus = "errored"
)

// Terminal reports whether the status accepts no further transitions.
func (s GenStatus) Terminal() bool {
	return s == StatusComplete || s == StatusErrored
}

// GenState is the observable state of one generation: accumulated text
// (append-only while streaming), status, and on failure an error
// message plus whether a retry is worthwhile.
type GenState struct {
	Status    GenStatus `json:"status"`
	Text      string    `json:"text"`
	ModelUsed string    `json:"model_used,omitempty"`
	Err       string    `json:"error,omitempty"`
	Retryable bool      `json:"retryable,omitempty"`
}

// Interpretation is the per-position AI narration for one revealed
// card. At most one record exists per position; a retry replaces the
// prior record wholesale.
type Interpretation struct {
	PositionID string `json:"position_id"`
	GenState
}

// Synthesis is the per-reading final narration, created once all
// positions are revealed and the user explicitly asks for it.
type Synthesis struct {
	GenState
}
