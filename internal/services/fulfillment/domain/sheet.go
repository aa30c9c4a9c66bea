package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	catalog "github.com/kyoso-cards/fulfillment/internal/services/catalog/domain"
)

// SheetCapacity is the fixed number of slots on one physical print sheet:
// one target card plus up to 19 decoys.
const SheetCapacity = 20

// PrintSheet composes one target card with its decoys into a bounded-capacity
// layout for physical printing.
type PrintSheet struct {
	TargetCard  catalog.Card
	Decoys      []catalog.Card
	Capacity    int
	Occupied    int
	GeneratedAt time.Time
}

type sheetSnapshot struct {
	TargetCard  cardSnapshot   `json:"targetCard"`
	Decoys      []cardSnapshot `json:"randomCards"`
	Capacity    int            `json:"capacity"`
	Occupied    int            `json:"occupied"`
	GeneratedAt time.Time      `json:"generatedAt"`
}

// SheetBuilder builds print sheets and persists each one as a discrete
// artifact keyed by target card and generation instant. Repeated calls for
// the same card produce distinct artifacts: a sheet is generated once per
// physical copy ordered, never deduplicated.
type SheetBuilder struct {
	dir   string
	clock func() time.Time
}

// NewSheetBuilder creates a builder placing sheet artifacts under dir.
func NewSheetBuilder(dir string) *SheetBuilder {
	return &SheetBuilder{dir: dir, clock: time.Now}
}

// Build composes and persists one print sheet, returning the sheet and its
// artifact path. The capacity invariant 1+len(decoys) <= SheetCapacity is
// enforced, and decoys must not contain the target card.
func (b *SheetBuilder) Build(ctx context.Context, target catalog.Card, decoys []catalog.Card) (PrintSheet, string, error) {
	if err := ctx.Err(); err != nil {
		return PrintSheet{}, "", err
	}
	if b == nil || b.dir == "" {
		return PrintSheet{}, "", fmt.Errorf("sheet artifact directory is not configured")
	}
	if target.ID == "" {
		return PrintSheet{}, "", ErrCardIDRequired
	}
	if 1+len(decoys) > SheetCapacity {
		return PrintSheet{}, "", fmt.Errorf("%w: %d cards for %d slots", ErrSheetOverCapacity, 1+len(decoys), SheetCapacity)
	}
	for _, decoy := range decoys {
		if decoy.ID == target.ID {
			return PrintSheet{}, "", fmt.Errorf("%w: %s", ErrSheetTargetInDecoys, target.ID)
		}
	}

	sheet := PrintSheet{
		TargetCard:  target,
		Decoys:      append([]catalog.Card(nil), decoys...),
		Capacity:    SheetCapacity,
		Occupied:    1 + len(decoys),
		GeneratedAt: b.clock().UTC(),
	}

	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return PrintSheet{}, "", fmt.Errorf("create sheet artifact dir: %w", err)
	}

	snapshot := sheetSnapshot{
		TargetCard:  toCardSnapshot(sheet.TargetCard),
		Decoys:      make([]cardSnapshot, 0, len(sheet.Decoys)),
		Capacity:    sheet.Capacity,
		Occupied:    sheet.Occupied,
		GeneratedAt: sheet.GeneratedAt,
	}
	for _, decoy := range sheet.Decoys {
		snapshot.Decoys = append(snapshot.Decoys, toCardSnapshot(decoy))
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return PrintSheet{}, "", fmt.Errorf("marshal sheet for card %s: %w", target.ID, err)
	}

	path := filepath.Join(b.dir, fmt.Sprintf("print_sheet_%s_%d.json", target.ID, sheet.GeneratedAt.UnixNano()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return PrintSheet{}, "", fmt.Errorf("write sheet artifact for card %s: %w", target.ID, err)
	}
	return sheet, path, nil
}

func toCardSnapshot(card catalog.Card) cardSnapshot {
	return cardSnapshot{
		ID:          card.ID,
		Name:        card.Name,
		BeltRank:    card.BeltRank,
		Achievement: card.Achievement,
		ClubName:    card.ClubName,
		Image:       card.Image,
		Price:       card.Price.String(),
		OwnerUserID: card.OwnerUserID,
		PrintCount:  card.PrintCount,
		CreatedAt:   card.CreatedAt,
		UpdatedAt:   card.UpdatedAt,
	}
}
