package spreads

import (
	"context"
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/sirsean/project-augurbox/internal/domain"
)

//go:embed data/spreads.yaml
var spreadFS embed.FS

const spreadFile = "data/spreads.yaml"

// DefaultSpreadID is the baseline reading type used when an unknown
// type is requested of the generation endpoints.
const DefaultSpreadID = "supply_run"

// EmbeddedStore serves the spread catalog from an embedded YAML file.
type EmbeddedStore struct {
	once    sync.Once
	spreads []domain.Spread
	byID    map[string]domain.Spread
	err     error
}

func NewEmbeddedStore() *EmbeddedStore {
	return &EmbeddedStore{}
}

func (s *EmbeddedStore) init() {
	raw, err := spreadFS.ReadFile(spreadFile)
	if err != nil {
		s.err = fmt.Errorf("read embedded spreads: %w", err)
		return
	}
	if err := yaml.Unmarshal(raw, &s.spreads); err != nil {
		s.err = fmt.Errorf("parse embedded spreads: %w", err)
		return
	}
	s.byID = make(map[string]domain.Spread, len(s.spreads))
	for _, sp := range s.spreads {
		s.byID[sp.ID] = sp
	}
}

// Spreads returns every known layout.
func (s *EmbeddedStore) Spreads(_ context.Context) ([]domain.Spread, error) {
	s.once.Do(s.init)
	if s.err != nil {
		return nil, s.err
	}
	out := make([]domain.Spread, len(s.spreads))
	copy(out, s.spreads)
	return out, nil
}

// SpreadByID returns a single layout by id.
func (s *EmbeddedStore) SpreadByID(_ context.Context, id string) (domain.Spread, error) {
	s.once.Do(s.init)
	if s.err != nil {
		return domain.Spread{}, s.err
	}
	sp, ok := s.byID[id]
	if !ok {
		return domain.Spread{}, fmt.Errorf("%w: %s", domain.ErrSpreadNotFound, id)
	}
	return sp, nil
}
