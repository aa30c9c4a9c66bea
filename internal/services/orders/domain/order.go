// Package domain implements order records: buyer, line items, shipping
// address, amounts, and status transitions driven by fulfillment.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status identifies one order lifecycle state.
type Status string

const (
	// StatusPending means the order is placed but not yet processed.
	StatusPending Status = "pending"
	// StatusProcessing means fulfillment is running for the order.
	StatusProcessing Status = "processing"
	// StatusFulfilled means fulfillment completed and a tracking number exists.
	StatusFulfilled Status = "fulfilled"
	// StatusFailed means fulfillment aborted at the order level.
	StatusFailed Status = "failed"
)

// PaymentStatus identifies one payment state.
type PaymentStatus string

const (
	// PaymentPending means payment has not settled.
	PaymentPending PaymentStatus = "pending"
	// PaymentPaid means payment settled.
	PaymentPaid PaymentStatus = "paid"
)

// ShippingAddress is the address snapshot captured when the order was placed.
type ShippingAddress struct {
	FullName     string
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	PostalCode   string
	Country      string
	Phone        string
}

// LineItem references one ordered card and its quantity. Line items are
// immutable once the order is placed.
type LineItem struct {
	CardID   string
	Quantity int
}

// Order is one placed sales order with populated line items.
type Order struct {
	ID              string
	BuyerUserID     string
	Items           []LineItem
	ShippingAddress ShippingAddress
	TotalAmount     decimal.Decimal
	Status          Status
	PaymentStatus   PaymentStatus
	TrackingNumber  string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TotalRequestedCopies sums line-item quantities: the number of physical
// copies fulfillment must produce.
func (o Order) TotalRequestedCopies() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// CreateOrderInput describes one order placement request.
type CreateOrderInput struct {
	BuyerUserID     string
	Items           []LineItem
	ShippingAddress ShippingAddress
	TotalAmount     decimal.Decimal
	PaymentStatus   PaymentStatus
}
