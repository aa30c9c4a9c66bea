package domain

import (
	"context"
	"fmt"
	"strings"

	catalog "github.com/kyoso-cards/fulfillment/internal/services/catalog/domain"
)

// DefaultDecoyCount is the decoy count requested per copy when none is
// configured: one target plus 19 decoys fills a 20-slot print sheet.
const DefaultDecoyCount = 19

// Sampler selects a bounded set of decoy cards distinct from a target card.
type Sampler struct {
	catalog    Catalog
	decoyCount int
}

// NewSampler creates a sampler drawing up to decoyCount decoys per call.
// A non-positive decoyCount falls back to DefaultDecoyCount.
func NewSampler(cardCatalog Catalog, decoyCount int) *Sampler {
	if decoyCount <= 0 {
		decoyCount = DefaultDecoyCount
	}
	return &Sampler{catalog: cardCatalog, decoyCount: decoyCount}
}

// SampleDecoys returns up to the configured number of cards drawn uniformly
// at random from the catalog, excluding the target, without replacement.
// Fewer eligible cards than requested is not an error: the result is clamped
// to availability, and an empty catalog yields zero decoys.
func (s *Sampler) SampleDecoys(ctx context.Context, targetCardID string) ([]catalog.Card, error) {
	if s == nil || s.catalog == nil {
		return nil, ErrCatalogNotConfigured
	}
	if strings.TrimSpace(targetCardID) == "" {
		return nil, ErrCardIDRequired
	}

	sampled, err := s.catalog.SampleCards(ctx, targetCardID, s.decoyCount)
	if err != nil {
		return nil, fmt.Errorf("sample decoys: %w", err)
	}

	// The store draws without replacement, but guard the invariants here so a
	// misbehaving catalog cannot poison a print sheet.
	seen := make(map[string]struct{}, len(sampled))
	decoys := make([]catalog.Card, 0, len(sampled))
	for _, card := range sampled {
		if card.ID == targetCardID {
			continue
		}
		if _, ok := seen[card.ID]; ok {
			continue
		}
		seen[card.ID] = struct{}{}
		decoys = append(decoys, card)
		if len(decoys) == s.decoyCount {
			break
		}
	}
	return decoys, nil
}
