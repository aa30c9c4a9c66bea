package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kyoso-cards/fulfillment/internal/platform/id"
	"github.com/kyoso-cards/fulfillment/internal/services/orders/storage"
)

var (
	// ErrNotFound indicates a requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = errors.New("order store is not configured")
	// ErrOrderIDRequired indicates an order id is required.
	ErrOrderIDRequired = errors.New("order id is required")
	// ErrBuyerRequired indicates a buyer user id is required.
	ErrBuyerRequired = errors.New("order buyer user id is required")
	// ErrItemsRequired indicates at least one line item is required.
	ErrItemsRequired = errors.New("order requires at least one line item")
	// ErrItemCardIDRequired indicates every line item needs a card reference.
	ErrItemCardIDRequired = errors.New("order line item card id is required")
	// ErrItemQuantityInvalid indicates line-item quantities must be at least 1.
	ErrItemQuantityInvalid = errors.New("order line item quantity must be at least 1")
	// ErrInvalidStatus indicates an unknown order status value.
	ErrInvalidStatus = errors.New("invalid order status")
)

// Service exposes order operations over an order store.
type Service struct {
	store       storage.OrderStore
	clock       func() time.Time
	idGenerator func() (string, error)
}

// NewService creates an orders service with default dependencies.
func NewService(store storage.OrderStore) *Service {
	return &Service{
		store:       store,
		clock:       time.Now,
		idGenerator: id.NewID,
	}
}

// CreateOrder validates and persists a new order with its line items.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (Order, error) {
	if s == nil || s.store == nil {
		return Order{}, ErrStoreNotConfigured
	}
	if strings.TrimSpace(input.BuyerUserID) == "" {
		return Order{}, ErrBuyerRequired
	}
	if len(input.Items) == 0 {
		return Order{}, ErrItemsRequired
	}
	for _, item := range input.Items {
		if strings.TrimSpace(item.CardID) == "" {
			return Order{}, ErrItemCardIDRequired
		}
		if item.Quantity < 1 {
			return Order{}, ErrItemQuantityInvalid
		}
	}

	orderID, err := s.idGenerator()
	if err != nil {
		return Order{}, fmt.Errorf("generate order id: %w", err)
	}

	paymentStatus := input.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = PaymentPending
	}

	now := s.clock().UTC()
	order := Order{
		ID:              orderID,
		BuyerUserID:     strings.TrimSpace(input.BuyerUserID),
		Items:           append([]LineItem(nil), input.Items...),
		ShippingAddress: input.ShippingAddress,
		TotalAmount:     input.TotalAmount,
		Status:          StatusPending,
		PaymentStatus:   paymentStatus,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	record, items := toRecords(order)
	if err := s.store.PutOrder(ctx, record, items); err != nil {
		return Order{}, fmt.Errorf("put order: %w", err)
	}
	return order, nil
}

// GetOrder returns one order with populated line items.
func (s *Service) GetOrder(ctx context.Context, orderID string) (Order, error) {
	if s == nil || s.store == nil {
		return Order{}, ErrStoreNotConfigured
	}
	if strings.TrimSpace(orderID) == "" {
		return Order{}, ErrOrderIDRequired
	}
	record, items, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Order{}, fmt.Errorf("%w: %s", ErrNotFound, orderID)
		}
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	return fromRecords(record, items), nil
}

// UpdateStatus sets the order's terminal status and tracking number after a
// fulfillment run. Line items are never mutated.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, status Status, trackingNumber string) error {
	if s == nil || s.store == nil {
		return ErrStoreNotConfigured
	}
	if strings.TrimSpace(orderID) == "" {
		return ErrOrderIDRequired
	}
	switch status {
	case StatusPending, StatusProcessing, StatusFulfilled, StatusFailed:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	err := s.store.UpdateOrderStatus(ctx, orderID, string(status), trackingNumber, s.clock().UTC())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, orderID)
		}
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}

func toRecords(order Order) (storage.OrderRecord, []storage.OrderItemRecord) {
	record := storage.OrderRecord{
		ID:             order.ID,
		BuyerUserID:    order.BuyerUserID,
		FullName:       order.ShippingAddress.FullName,
		AddressLine1:   order.ShippingAddress.AddressLine1,
		AddressLine2:   order.ShippingAddress.AddressLine2,
		City:           order.ShippingAddress.City,
		State:          order.ShippingAddress.State,
		PostalCode:     order.ShippingAddress.PostalCode,
		Country:        order.ShippingAddress.Country,
		Phone:          order.ShippingAddress.Phone,
		TotalAmount:    order.TotalAmount,
		Status:         string(order.Status),
		PaymentStatus:  string(order.PaymentStatus),
		TrackingNumber: order.TrackingNumber,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
	}
	items := make([]storage.OrderItemRecord, 0, len(order.Items))
	for i, item := range order.Items {
		items = append(items, storage.OrderItemRecord{
			OrderID:  order.ID,
			Position: i,
			CardID:   item.CardID,
			Quantity: item.Quantity,
		})
	}
	return record, items
}

func fromRecords(record storage.OrderRecord, items []storage.OrderItemRecord) Order {
	order := Order{
		ID:          record.ID,
		BuyerUserID: record.BuyerUserID,
		ShippingAddress: ShippingAddress{
			FullName:     record.FullName,
			AddressLine1: record.AddressLine1,
			AddressLine2: record.AddressLine2,
			City:         record.City,
			State:        record.State,
			PostalCode:   record.PostalCode,
			Country:      record.Country,
			Phone:        record.Phone,
		},
		TotalAmount:    record.TotalAmount,
		Status:         Status(record.Status),
		PaymentStatus:  PaymentStatus(record.PaymentStatus),
		TrackingNumber: record.TrackingNumber,
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
	}
	order.Items = make([]LineItem, 0, len(items))
	for _, item := range items {
		order.Items = append(order.Items, LineItem{CardID: item.CardID, Quantity: item.Quantity})
	}
	return order
}
