// Package sqlite provides SQLite-backed persistence for orders.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/kyoso-cards/fulfillment/internal/platform/storage/sqlitemigrate"
	"github.com/kyoso-cards/fulfillment/internal/services/orders/storage"
	"github.com/kyoso-cards/fulfillment/internal/services/orders/storage/sqlite/migrations"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for orders and line items.
type Store struct {
	sqlDB *sql.DB
}

// Open opens an orders SQLite store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_pragma=foreign_keys(ON)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutOrder atomically persists the order row and its line items.
func (s *Store) PutOrder(ctx context.Context, order storage.OrderRecord, items []storage.OrderItemRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(order.ID) == "" {
		return fmt.Errorf("order id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put order: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO orders (
    id, buyer_user_id, full_name, address_line1, address_line2, city, state,
    postal_code, country, phone, total_amount, status, payment_status,
    tracking_number, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    buyer_user_id = excluded.buyer_user_id,
    full_name = excluded.full_name,
    address_line1 = excluded.address_line1,
    address_line2 = excluded.address_line2,
    city = excluded.city,
    state = excluded.state,
    postal_code = excluded.postal_code,
    country = excluded.country,
    phone = excluded.phone,
    total_amount = excluded.total_amount,
    status = excluded.status,
    payment_status = excluded.payment_status,
    tracking_number = excluded.tracking_number,
    updated_at = excluded.updated_at
`,
		order.ID,
		order.BuyerUserID,
		order.FullName,
		order.AddressLine1,
		order.AddressLine2,
		order.City,
		order.State,
		order.PostalCode,
		order.Country,
		order.Phone,
		order.TotalAmount.String(),
		order.Status,
		order.PaymentStatus,
		order.TrackingNumber,
		toMillis(order.CreatedAt),
		toMillis(order.UpdatedAt),
	)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("put order row: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM order_items WHERE order_id = ?", order.ID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear order items: %w", err)
	}
	for _, item := range items {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO order_items (order_id, position, card_id, quantity) VALUES (?, ?, ?, ?)",
			order.ID,
			item.Position,
			item.CardID,
			item.Quantity,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("put order item %d: %w", item.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit put order: %w", err)
	}
	return nil
}

// GetOrder returns one order row and its line items in document order.
func (s *Store) GetOrder(ctx context.Context, id string) (storage.OrderRecord, []storage.OrderItemRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.OrderRecord{}, nil, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.OrderRecord{}, nil, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, buyer_user_id, full_name, address_line1, address_line2, city, state,
       postal_code, country, phone, total_amount, status, payment_status,
       tracking_number, created_at, updated_at
FROM orders WHERE id = ?`, id)

	var (
		record      storage.OrderRecord
		totalAmount string
		createdAt   int64
		updatedAt   int64
	)
	err := row.Scan(
		&record.ID,
		&record.BuyerUserID,
		&record.FullName,
		&record.AddressLine1,
		&record.AddressLine2,
		&record.City,
		&record.State,
		&record.PostalCode,
		&record.Country,
		&record.Phone,
		&totalAmount,
		&record.Status,
		&record.PaymentStatus,
		&record.TrackingNumber,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.OrderRecord{}, nil, storage.ErrNotFound
		}
		return storage.OrderRecord{}, nil, fmt.Errorf("get order: %w", err)
	}
	parsed, err := decimal.NewFromString(totalAmount)
	if err != nil {
		return storage.OrderRecord{}, nil, fmt.Errorf("parse order total %q: %w", totalAmount, err)
	}
	record.TotalAmount = parsed
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)

	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT order_id, position, card_id, quantity FROM order_items WHERE order_id = ? ORDER BY position",
		id,
	)
	if err != nil {
		return storage.OrderRecord{}, nil, fmt.Errorf("list order items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []storage.OrderItemRecord
	for rows.Next() {
		var item storage.OrderItemRecord
		if err := rows.Scan(&item.OrderID, &item.Position, &item.CardID, &item.Quantity); err != nil {
			return storage.OrderRecord{}, nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return storage.OrderRecord{}, nil, fmt.Errorf("iterate order items: %w", err)
	}
	return record, items, nil
}

// UpdateOrderStatus sets the order's status and tracking number.
func (s *Store) UpdateOrderStatus(ctx context.Context, id string, status string, trackingNumber string, updatedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	result, err := s.sqlDB.ExecContext(ctx,
		"UPDATE orders SET status = ?, tracking_number = ?, updated_at = ? WHERE id = ?",
		status,
		trackingNumber,
		toMillis(updatedAt),
		id,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order status rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}
