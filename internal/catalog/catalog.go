// Package catalog holds the credit card catalog: the closed set of cards
// the recommendation surface can rank and suggest. The default catalog is
// compiled in; deployments can point CATALOG_PATH at a JSON file to
// override it.
package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/VihaanShah2004/cardwise/internal/domain"
)

//go:embed cards.json
var embeddedCards []byte

// ErrUnknownCard is returned when a card ID is not in the catalog.
var ErrUnknownCard = errors.New("unknown card")

// Catalog is an immutable, ID-indexed card set.
type Catalog struct {
	cards []*domain.Card
	byID  map[string]*domain.Card
}

// Load parses the compiled-in catalog.
func Load() (*Catalog, error) {
	return parse(embeddedCards)
}

// LoadFile parses a catalog override from disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Catalog, error) {
	var cards []*domain.Card
	if err := json.Unmarshal(data, &cards); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(cards) == 0 {
		return nil, errors.New("catalog is empty")
	}

	byID := make(map[string]*domain.Card, len(cards))
	for _, card := range cards {
		if card.ID == "" {
			return nil, fmt.Errorf("catalog card %q has no id", card.Name)
		}
		if _, dup := byID[card.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog card id %q", card.ID)
		}
		if card.Rewards == nil {
			return nil, fmt.Errorf("catalog card %q has no rewards table", card.ID)
		}
		// A missing fallback degrades scoring to rate 1 rather than
		// failing, so accept the card but flag it.
		if _, ok := card.Rewards.Other(); !ok {
			slog.Warn("catalog card missing \"other\" reward rate", "card_id", card.ID)
		}
		byID[card.ID] = card
	}

	return &Catalog{cards: cards, byID: byID}, nil
}

// ByID looks up a card. Returns ErrUnknownCard when the ID is not present.
func (c *Catalog) ByID(id string) (*domain.Card, error) {
	card, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCard, id)
	}
	return card, nil
}

// List returns all catalog cards in file order. The returned slice is a
// copy; the cards themselves are shared and must not be mutated.
func (c *Catalog) List() []*domain.Card {
	out := make([]*domain.Card, len(c.cards))
	copy(out, c.cards)
	return out
}

// Len returns the number of catalog cards.
func (c *Catalog) Len() int {
	return len(c.cards)
}
