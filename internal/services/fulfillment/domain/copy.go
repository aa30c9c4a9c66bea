package domain

import (
	"context"
	"fmt"
	"strings"

	catalog "github.com/kyoso-cards/fulfillment/internal/services/catalog/domain"
	"golang.org/x/sync/errgroup"
)

// DecoyArtifact pairs one decoy card with its written artifact path.
type DecoyArtifact struct {
	Card catalog.Card
	Path string
}

// CopyResult carries the full artifact set produced for one physical copy of
// one ordered card.
type CopyResult struct {
	Card          catalog.Card
	CardPath      string
	Decoys        []DecoyArtifact
	SheetPath     string
	SheetOccupied int
	SheetCapacity int
	PrintCount    int
}

// CopyProcessor produces one complete artifact set for a single physical copy
// of a single ordered card.
type CopyProcessor struct {
	catalog Catalog
	sampler *Sampler
	cards   *CardFileWriter
	sheets  *SheetBuilder
}

// NewCopyProcessor wires the copy processor's collaborators.
func NewCopyProcessor(cardCatalog Catalog, sampler *Sampler, cards *CardFileWriter, sheets *SheetBuilder) *CopyProcessor {
	return &CopyProcessor{
		catalog: cardCatalog,
		sampler: sampler,
		cards:   cards,
		sheets:  sheets,
	}
}

// ProcessCopy runs the per-copy sequence: fetch the target card, sample
// decoys, write the card and decoy artifacts, build the print sheet, and
// increment the target's print count by one.
//
// Any step failing returns a CopyError wrapping the cause. Artifacts already
// written for this copy are not cleaned up: card files are idempotent
// overwrites and orphan sheets are cheap.
func (p *CopyProcessor) ProcessCopy(ctx context.Context, cardID string) (CopyResult, error) {
	if p == nil || p.catalog == nil {
		return CopyResult{}, ErrCatalogNotConfigured
	}
	if strings.TrimSpace(cardID) == "" {
		return CopyResult{}, ErrCardIDRequired
	}

	card, err := p.catalog.GetCard(ctx, cardID)
	if err != nil {
		return CopyResult{}, &CopyError{CardID: cardID, Err: err}
	}

	decoys, err := p.sampler.SampleDecoys(ctx, cardID)
	if err != nil {
		return CopyResult{}, &CopyError{CardID: cardID, Err: err}
	}

	cardPath, err := p.cards.Write(ctx, card)
	if err != nil {
		return CopyResult{}, &CopyError{CardID: cardID, Err: err}
	}

	// Decoy writes are independent and idempotent per card, so they run
	// concurrently with fan-out bounded by the decoy count.
	decoyArtifacts := make([]DecoyArtifact, len(decoys))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, decoy := range decoys {
		group.Go(func() error {
			path, err := p.cards.Write(groupCtx, decoy)
			if err != nil {
				return fmt.Errorf("write decoy artifact %s: %w", decoy.ID, err)
			}
			decoyArtifacts[i] = DecoyArtifact{Card: decoy, Path: path}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return CopyResult{}, &CopyError{CardID: cardID, Err: err}
	}

	sheet, sheetPath, err := p.sheets.Build(ctx, card, decoys)
	if err != nil {
		return CopyResult{}, &CopyError{CardID: cardID, Err: err}
	}

	printCount, err := p.catalog.IncrementPrintCount(ctx, cardID, 1)
	if err != nil {
		return CopyResult{}, &CopyError{CardID: cardID, Err: err}
	}

	return CopyResult{
		Card:          card,
		CardPath:      cardPath,
		Decoys:        decoyArtifacts,
		SheetPath:     sheetPath,
		SheetOccupied: sheet.Occupied,
		SheetCapacity: sheet.Capacity,
		PrintCount:    printCount,
	}, nil
}
