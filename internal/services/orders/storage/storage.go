// Package storage defines persistence contracts for orders.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound indicates a requested order record is missing.
var ErrNotFound = errors.New("record not found")

// OrderRecord stores one order row.
type OrderRecord struct {
	ID             string
	BuyerUserID    string
	FullName       string
	AddressLine1   string
	AddressLine2   string
	City           string
	State          string
	PostalCode     string
	Country        string
	Phone          string
	TotalAmount    decimal.Decimal
	Status         string
	PaymentStatus  string
	TrackingNumber string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OrderItemRecord stores one order line-item row.
type OrderItemRecord struct {
	OrderID  string
	Position int
	CardID   string
	Quantity int
}

// OrderStore persists orders and their line items.
type OrderStore interface {
	// PutOrder atomically persists the order row with its line items.
	PutOrder(ctx context.Context, order OrderRecord, items []OrderItemRecord) error
	// GetOrder returns the order row and its line items in document order.
	GetOrder(ctx context.Context, id string) (OrderRecord, []OrderItemRecord, error)
	// UpdateOrderStatus sets the order's status and tracking number.
	UpdateOrderStatus(ctx context.Context, id string, status string, trackingNumber string, updatedAt time.Time) error
}
