package ports

import (
	"context"

	"github.com/sirsean/project-augurbox/internal/domain"
)

// CardStore provides access to the static card catalog.
type CardStore interface {
	Catalog(ctx context.Context) ([]domain.Card, error)
	CardByCode(ctx context.Context, code string) (domain.Card, error)
}

// SpreadStore provides access to the static spread catalog.
type SpreadStore interface {
	Spreads(ctx context.Context) ([]domain.Spread, error)
	SpreadByID(ctx context.Context, id string) (domain.Spread, error)
}
