// Package storage defines persistence contracts for the fulfillment ledger.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a requested ledger record is missing.
var ErrNotFound = errors.New("record not found")

// CardPrintDelta records the requested quantity for one card in a run.
type CardPrintDelta struct {
	CardID   string `json:"cardId"`
	Quantity int    `json:"quantity"`
}

// ProcessedOrderRecord stores one immutable fulfillment-run ledger row.
// Rows are created once per run and never updated.
type ProcessedOrderRecord struct {
	ID                  string
	OrderID             string
	PrintSheetPaths     []string
	ShippingLabelPath   string
	RemoteArchiveID     string
	RemoteArchiveLink   string
	TrackingNumber      string
	Status              string
	TotalCardsProcessed int
	CardPrintDeltas     []CardPrintDelta
	ProcessedAt         time.Time
}

// ProcessedOrderStore persists the append-only fulfillment ledger.
type ProcessedOrderStore interface {
	PutProcessedOrder(ctx context.Context, record ProcessedOrderRecord) error
	GetProcessedOrder(ctx context.Context, id string) (ProcessedOrderRecord, error)
	// ListProcessedOrdersByOrder returns every run recorded for one order,
	// oldest first. Re-running an order produces independent entries.
	ListProcessedOrdersByOrder(ctx context.Context, orderID string) ([]ProcessedOrderRecord, error)
}
