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

// cardSnapshot is the serialized form of a card artifact file.
type cardSnapshot struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	BeltRank    string    `json:"beltRank"`
	Achievement string    `json:"achievement"`
	ClubName    string    `json:"clubName"`
	Image       string    `json:"image"`
	Price       string    `json:"price"`
	OwnerUserID string    `json:"userId"`
	PrintCount  int       `json:"printCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CardFileWriter persists serialized card snapshots keyed by card id.
//
// Writes are idempotent per card, not per copy: the artifact always reflects
// the most recent write, so concurrent copy generation for the same card is
// safe to overwrite.
type CardFileWriter struct {
	dir string
}

// NewCardFileWriter creates a writer placing card artifacts under dir.
func NewCardFileWriter(dir string) *CardFileWriter {
	return &CardFileWriter{dir: dir}
}

// Write persists the card's snapshot and returns the artifact path.
// Any prior artifact for the same card is overwritten.
func (w *CardFileWriter) Write(ctx context.Context, card catalog.Card) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if w == nil || w.dir == "" {
		return "", fmt.Errorf("card artifact directory is not configured")
	}
	if card.ID == "" {
		return "", ErrCardIDRequired
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create card artifact dir: %w", err)
	}

	data, err := json.MarshalIndent(toCardSnapshot(card), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal card %s: %w", card.ID, err)
	}

	path := filepath.Join(w.dir, fmt.Sprintf("card_%s.json", card.ID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write card artifact %s: %w", card.ID, err)
	}
	return path, nil
}
