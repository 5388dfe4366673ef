package domain

import "time"

// RNG abstracts random number generation for deterministic testing.
type RNG interface {
	// Intn returns a non-negative random int in [0, n).
	Intn(n int) int
}

// Phase is the top-level state of a reading session. Transitions are
// monotonic: selecting -> shuffling -> drawing -> revealing -> complete.
type Phase string

const (
	PhaseSelecting Phase = "selecting"
	PhaseShuffling Phase = "shuffling"
	PhaseDrawing   Phase = "drawing"
	PhaseRevealing Phase = "revealing"
	PhaseComplete  Phase = "complete"
)

// ReversalPercent is the chance a drawn card lands reversed.
const ReversalPercent = 30

// DrawnCard is a card assigned to a position with a fixed orientation.
// IsRevealed flips exactly once from false to true.
type DrawnCard struct {
	CardCode   string `json:"card_code"`
	PositionID string `json:"position_id"`
	IsReversed bool   `json:"is_reversed"`
	IsRevealed bool   `json:"is_revealed"`
}

// Orientation returns the wire form of the card's orientation.
func (d DrawnCard) Orientation() Orientation {
	if d.IsReversed {
		return Reversed
	}
	return Upright
}

// Reading owns the lifecycle of a single reading session: the shuffled
// deck, the drawn cards and the phase. It is not safe for concurrent
// use; callers serialize access.
type Reading struct {
	ID         string      `json:"id"`
	SpreadID   string      `json:"spread_id"`
	Phase      Phase       `json:"phase"`
	Deck       []Card      `json:"-"`
	DrawnCards []DrawnCard `json:"drawn_cards"`
	CreatedAt  time.Time   `json:"created_at"`
}

// NewReading starts a session in phase selecting with a copy of the
// full card catalog as its deck.
func NewReading(id string, spread Spread, catalog []Card) *Reading {
	deck := make([]Card, len(catalog))
	copy(deck, catalog)
	return &Reading{
		ID:        id,
		SpreadID:  spread.ID,
		Phase:     PhaseSelecting,
		Deck:      deck,
		CreatedAt: time.Now().UTC(),
	}
}

// Shuffle applies a Fisher-Yates permutation to the deck. Valid only
// in phase selecting; the reading lands in phase drawing. The
// shuffling phase is held only while the permutation is applied; the
// visual shuffle duration is a client concern.
func (r *Reading) Shuffle(rng RNG) error {
	if r.Phase != PhaseSelecting {
		return ErrInvalidPhase
	}
	r.Phase = PhaseShuffling
	for i := len(r.Deck) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		r.Deck[i], r.Deck[j] = r.Deck[j], r.Deck[i]
	}
	r.Phase = PhaseDrawing
	return nil
}

// Draw assigns the front of the shuffled deck to the spread's
// positions in order, sampling orientation independently per card.
// Valid only in phase drawing; the reading lands in phase revealing.
func (r *Reading) Draw(spread Spread, rng RNG) error {
	if r.Phase != PhaseDrawing {
		return ErrInvalidPhase
	}
	if len(r.Deck) < len(spread.Positions) {
		// The catalog always exceeds any spread size; hitting this is an
		// invariant breach, not a recoverable request error.
		return ErrDeckExhausted
	}
	drawn := make([]DrawnCard, len(spread.Positions))
	for i, pos := range spread.Positions {
		drawn[i] = DrawnCard{
			CardCode:   r.Deck[i].Code,
			PositionID: pos.ID,
			IsReversed: rng.Intn(100) < ReversalPercent,
		}
	}
	r.DrawnCards = drawn
	r.Phase = PhaseRevealing
	return nil
}

// Reveal flips the card at positionID face up. A second reveal on the
// same position is an idempotent no-op; revealedNow reports whether
// this call performed the flip, so callers trigger side effects at
// most once. The completion check runs against the post-mutation
// cards, so revealing the final card reaches phase complete
// immediately.
func (r *Reading) Reveal(positionID string) (revealedNow bool, err error) {
	if r.Phase != PhaseRevealing && r.Phase != PhaseComplete {
		return false, ErrInvalidPhase
	}
	idx := -1
	for i := range r.DrawnCards {
		if r.DrawnCards[i].PositionID == positionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, ErrPositionNotFound
	}
	if r.DrawnCards[idx].IsRevealed {
		return false, nil
	}
	r.DrawnCards[idx].IsRevealed = true
	if r.AllRevealed() {
		r.Phase = PhaseComplete
	}
	return true, nil
}

// AllRevealed reports whether every drawn card is face up.
func (r *Reading) AllRevealed() bool {
	if len(r.DrawnCards) == 0 {
		return false
	}
	for _, d := range r.DrawnCards {
		if !d.IsRevealed {
			return false
		}
	}
	return true
}

// DrawnCard returns the drawn card at positionID.
func (r *Reading) DrawnCard(positionID string) (DrawnCard, bool) {
	for _, d := range r.DrawnCards {
		if d.PositionID == positionID {
			return d, true
		}
	}
	return DrawnCard{}, false
}
