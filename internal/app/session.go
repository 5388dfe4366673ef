package app

import (
	"sync"

	"github.com/sirsean/project-augurbox/internal/domain"
)

// Session is one live reading plus its generated narration. Handlers
// and oracle callbacks touch it from different goroutines; mu guards
// every field.
type Session struct {
	mu sync.Mutex

	Reading         *domain.Reading
	Spread          domain.Spread
	CardsByCode     map[string]domain.Card
	Catalog         []domain.Card
	Interpretations map[string]*domain.Interpretation
	Synthesis       *domain.Synthesis
}

// SessionStore holds live sessions. Implementations expire idle
// sessions; expiry is the only way a reading ever goes away, readings
// are never persisted.
type SessionStore interface {
	Get(id string) (*Session, bool)
	Put(id string, sess *Session)
	Delete(id string)
}

// Snapshot is a consistent copy of a session for callers to render.
type Snapshot struct {
	Reading         domain.Reading          `json:"reading"`
	Spread          domain.Spread           `json:"spread"`
	Interpretations []domain.Interpretation `json:"interpretations"`
	Synthesis       *domain.Synthesis       `json:"synthesis,omitempty"`
}

// snapshotLocked copies the session; callers hold mu.
func (s *Session) snapshotLocked() *Snapshot {
	reading := *s.Reading
	reading.DrawnCards = append([]domain.DrawnCard(nil), s.Reading.DrawnCards...)

	interps := make([]domain.Interpretation, 0, len(s.Interpretations))
	for _, pos := range s.Spread.Positions {
		if in, ok := s.Interpretations[pos.ID]; ok {
			interps = append(interps, *in)
		}
	}

	var synthesis *domain.Synthesis
	if s.Synthesis != nil {
		copied := *s.Synthesis
		synthesis = &copied
	}

	return &Snapshot{
		Reading:         reading,
		Spread:          s.Spread,
		Interpretations: interps,
		Synthesis:       synthesis,
	}
}
