package domain

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	catalog "github.com/kyoso-cards/fulfillment/internal/services/catalog/domain"
)

func makeCard(id string) catalog.Card {
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	return catalog.Card{
		ID:          id,
		Name:        "Card " + id,
		BeltRank:    "black",
		Price:       decimal.RequireFromString("9.99"),
		OwnerUserID: "user-1",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// fakeCatalog is an in-memory Catalog whose sampling returns every card but
// the excluded one, in id order, clamped to the limit.
type fakeCatalog struct {
	mu        sync.Mutex
	cards     map[string]catalog.Card
	prints    map[string]int
	sample    []catalog.Card
	sampleErr error
	incErr    error
}

func newFakeCatalog(cards ...catalog.Card) *fakeCatalog {
	f := &fakeCatalog{
		cards:  make(map[string]catalog.Card),
		prints: make(map[string]int),
	}
	for _, card := range cards {
		f.cards[card.ID] = card
	}
	return f
}

func (f *fakeCatalog) GetCard(_ context.Context, cardID string) (catalog.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	card, ok := f.cards[cardID]
	if !ok {
		return catalog.Card{}, fmt.Errorf("%w: %s", catalog.ErrNotFound, cardID)
	}
	return card, nil
}

func (f *fakeCatalog) SampleCards(_ context.Context, excludeID string, limit int) ([]catalog.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sampleErr != nil {
		return nil, f.sampleErr
	}
	if f.sample != nil {
		return f.sample, nil
	}
	ids := make([]string, 0, len(f.cards))
	for id := range f.cards {
		if id == excludeID {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	sampled := make([]catalog.Card, 0, len(ids))
	for _, id := range ids {
		sampled = append(sampled, f.cards[id])
	}
	return sampled, nil
}

func (f *fakeCatalog) IncrementPrintCount(_ context.Context, cardID string, delta int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.incErr != nil {
		return 0, f.incErr
	}
	if _, ok := f.cards[cardID]; !ok {
		return 0, fmt.Errorf("%w: %s", catalog.ErrNotFound, cardID)
	}
	f.prints[cardID] += delta
	return f.prints[cardID], nil
}
