// Package storage defines persistence contracts for the card catalog.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound indicates a requested card record is missing.
var ErrNotFound = errors.New("record not found")

// CardRecord stores one catalog card row.
type CardRecord struct {
	ID          string
	Name        string
	BeltRank    string
	Achievement string
	ClubName    string
	Image       string
	Price       decimal.Decimal
	OwnerUserID string
	PrintCount  int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CardStore persists catalog cards.
type CardStore interface {
	PutCard(ctx context.Context, record CardRecord) error
	GetCard(ctx context.Context, id string) (CardRecord, error)
	ListCardsByOwner(ctx context.Context, ownerUserID string) ([]CardRecord, error)
	// SampleCards returns up to limit cards excluding id, drawn uniformly at
	// random without replacement.
	SampleCards(ctx context.Context, excludeID string, limit int) ([]CardRecord, error)
	// AddPrintCount atomically adds delta to the card's print count and
	// returns the new value.
	AddPrintCount(ctx context.Context, id string, delta int, updatedAt time.Time) (int, error)
}
