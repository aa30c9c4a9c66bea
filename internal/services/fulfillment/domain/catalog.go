// Package domain implements the order fulfillment pipeline: decoy sampling,
// per-copy artifact generation, partial-failure aggregation, packaging, and
// ledger record-keeping.
package domain

import (
	"context"

	catalog "github.com/kyoso-cards/fulfillment/internal/services/catalog/domain"
)

// Catalog provides the card operations the pipeline consumes: lookup,
// uniform random sampling, and the atomic print-count accumulator.
type Catalog interface {
	GetCard(ctx context.Context, cardID string) (catalog.Card, error)
	SampleCards(ctx context.Context, excludeID string, limit int) ([]catalog.Card, error)
	IncrementPrintCount(ctx context.Context, cardID string, delta int) (int, error)
}
