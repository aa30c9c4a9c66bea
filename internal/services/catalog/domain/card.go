// Package domain implements the card catalog: card records, uniform random
// sampling for print-sheet decoys, and the print-count accumulator.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Card is one trading card owned by a user.
type Card struct {
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

// CreateCardInput describes one card creation request.
type CreateCardInput struct {
	Name        string
	BeltRank    string
	Achievement string
	ClubName    string
	Image       string
	Price       decimal.Decimal
	OwnerUserID string
}
