package decks

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sirsean/project-augurbox/internal/domain"
)

//go:embed data/cards.json
var catalogFS embed.FS

const catalogFile = "data/cards.json"

// EmbeddedStore serves the full 78-card Augurbox catalog from an
// embedded JSON file. The catalog is loaded once and never mutated.
type EmbeddedStore struct {
	once   sync.Once
	cards  []domain.Card
	byCode map[string]domain.Card
	err    error
}

func NewEmbeddedStore() *EmbeddedStore {
	return &EmbeddedStore{}
}

func (s *EmbeddedStore) init() {
	raw, err := catalogFS.ReadFile(catalogFile)
	if err != nil {
		s.err = fmt.Errorf("read embedded catalog: %w", err)
		return
	}
	if err := json.Unmarshal(raw, &s.cards); err != nil {
		s.err = fmt.Errorf("parse embedded catalog: %w", err)
		return
	}
	s.byCode = make(map[string]domain.Card, len(s.cards))
	for _, c := range s.cards {
		s.byCode[c.Code] = c
	}
}

// Catalog returns the full deck in catalog order.
func (s *EmbeddedStore) Catalog(_ context.Context) ([]domain.Card, error) {
	s.once.Do(s.init)
	if s.err != nil {
		return nil, s.err
	}
	out := make([]domain.Card, len(s.cards))
	copy(out, s.cards)
	return out, nil
}

// CardByCode returns a single card by its stable code.
func (s *EmbeddedStore) CardByCode(_ context.Context, code string) (domain.Card, error) {
	s.once.Do(s.init)
	if s.err != nil {
		return domain.Card{}, s.err
	}
	card, ok := s.byCode[code]
	if !ok {
		return domain.Card{}, fmt.Errorf("%w: %s", domain.ErrCardNotFound, code)
	}
	return card, nil
}
