package decks_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sirsean/project-augurbox/internal/adapters/decks"
	"github.com/sirsean/project-augurbox/internal/domain"
)

func TestCatalog_FullDeck(t *testing.T) {
	store := decks.NewEmbeddedStore()
	cards, err := store.Catalog(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cards) != 78 {
		t.Fatalf("expected 78 cards, got %d", len(cards))
	}

	seen := make(map[string]bool, len(cards))
	var major, minor int
	for _, c := range cards {
		if c.Code == "" || c.Name == "" || c.Description == "" {
			t.Errorf("card %d has empty fields: %+v", c.ID, c)
		}
		if seen[c.Code] {
			t.Errorf("duplicate card code %s", c.Code)
		}
		seen[c.Code] = true
		switch c.Type() {
		case domain.CardTypeMajor:
			major++
		case domain.CardTypeMinor:
			minor++
		}
	}
	if major != 22 {
		t.Errorf("expected 22 major arcana, got %d", major)
	}
	if minor != 56 {
		t.Errorf("expected 56 minor arcana, got %d", minor)
	}
}

func TestCatalog_ReturnsCopy(t *testing.T) {
	store := decks.NewEmbeddedStore()
	first, err := store.Catalog(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first[0].Name = "mutated"

	second, err := store.Catalog(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second[0].Name == "mutated" {
		t.Error("catalog must not expose shared backing storage")
	}
}

func TestCardByCode(t *testing.T) {
	store := decks.NewEmbeddedStore()
	card, err := store.CardByCode(context.Background(), "MAJ_00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if card.Code != "MAJ_00" {
		t.Errorf("expected MAJ_00, got %s", card.Code)
	}

	_, err = store.CardByCode(context.Background(), "MAJ_99")
	if !errors.Is(err, domain.ErrCardNotFound) {
		t.Fatalf("expected ErrCardNotFound, got %v", err)
	}
}
