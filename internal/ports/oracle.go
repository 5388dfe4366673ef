package ports

import (
	"context"

	"github.com/sirsean/project-augurbox/internal/domain"
)

// RevealedCard is the minimal view of an already-revealed card carried
// along for narrative continuity: name and orientation only.
type RevealedCard struct {
	Name        string
	Orientation domain.Orientation
}

// RecentCard identifies the newly revealed card an interpretation is
// requested for.
type RecentCard struct {
	CardName        string
	CardDescription string
	Orientation     domain.Orientation
	PositionID      string
}

// InterpretationRequest is everything needed to narrate one freshly
// revealed card. Revealed and Positions are parallel and exclude the
// recent card itself.
type InterpretationRequest struct {
	ReadingType string
	Revealed    []RevealedCard
	Positions   []string
	Recent      RecentCard
}

// CompletedInterpretation pairs a position with its finished narration
// for the synthesis payload.
type CompletedInterpretation struct {
	PositionID string
	Text       string
}

// SynthesisRequest aggregates the whole completed reading.
type SynthesisRequest struct {
	ReadingType     string
	Spread          domain.Spread
	DrawnCards      []domain.DrawnCard
	AllCards        []domain.Card
	Interpretations []CompletedInterpretation
}

// Oracle turns reveal/synthesis triggers into narration. Progress and
// the terminal outcome are published through onUpdate; every call ends
// with a terminal state (complete or errored). Implementations stop
// publishing when ctx is done.
type Oracle interface {
	Interpretation(ctx context.Context, req InterpretationRequest, onUpdate func(domain.GenState))
	Synthesis(ctx context.Context, req SynthesisRequest, onUpdate func(domain.GenState))
}
