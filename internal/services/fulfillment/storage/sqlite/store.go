// Package sqlite provides SQLite-backed persistence for the fulfillment ledger.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/kyoso-cards/fulfillment/internal/platform/storage/sqlitemigrate"
	"github.com/kyoso-cards/fulfillment/internal/services/fulfillment/storage"
	"github.com/kyoso-cards/fulfillment/internal/services/fulfillment/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for processed-order ledger rows.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a fulfillment ledger SQLite store at the provided path.
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

const processedOrderColumns = "id, order_id, print_sheet_paths, shipping_label_path, remote_archive_id, remote_archive_link, tracking_number, status, total_cards_processed, card_print_deltas, processed_at"

// PutProcessedOrder appends one immutable ledger row.
func (s *Store) PutProcessedOrder(ctx context.Context, record storage.ProcessedOrderRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("ledger entry id is required")
	}
	if strings.TrimSpace(record.OrderID) == "" {
		return fmt.Errorf("ledger order id is required")
	}

	sheetPaths, err := json.Marshal(record.PrintSheetPaths)
	if err != nil {
		return fmt.Errorf("marshal sheet paths: %w", err)
	}
	deltas, err := json.Marshal(record.CardPrintDeltas)
	if err != nil {
		return fmt.Errorf("marshal card print deltas: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO processed_orders (`+processedOrderColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		record.ID,
		record.OrderID,
		string(sheetPaths),
		record.ShippingLabelPath,
		record.RemoteArchiveID,
		record.RemoteArchiveLink,
		record.TrackingNumber,
		record.Status,
		record.TotalCardsProcessed,
		string(deltas),
		toMillis(record.ProcessedAt),
	)
	if err != nil {
		return fmt.Errorf("put processed order: %w", err)
	}
	return nil
}

// GetProcessedOrder returns one ledger row by id.
func (s *Store) GetProcessedOrder(ctx context.Context, id string) (storage.ProcessedOrderRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.ProcessedOrderRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.ProcessedOrderRecord{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT "+processedOrderColumns+" FROM processed_orders WHERE id = ?", id)
	record, err := scanProcessedOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ProcessedOrderRecord{}, storage.ErrNotFound
		}
		return storage.ProcessedOrderRecord{}, fmt.Errorf("get processed order: %w", err)
	}
	return record, nil
}

// ListProcessedOrdersByOrder returns every run recorded for one order,
// oldest first.
func (s *Store) ListProcessedOrdersByOrder(ctx context.Context, orderID string) ([]storage.ProcessedOrderRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT "+processedOrderColumns+" FROM processed_orders WHERE order_id = ? ORDER BY processed_at, id",
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("list processed orders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []storage.ProcessedOrderRecord
	for rows.Next() {
		record, err := scanProcessedOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan processed order: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate processed orders: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProcessedOrder(row rowScanner) (storage.ProcessedOrderRecord, error) {
	var (
		record      storage.ProcessedOrderRecord
		sheetPaths  string
		deltas      string
		processedAt int64
	)
	if err := row.Scan(
		&record.ID,
		&record.OrderID,
		&sheetPaths,
		&record.ShippingLabelPath,
		&record.RemoteArchiveID,
		&record.RemoteArchiveLink,
		&record.TrackingNumber,
		&record.Status,
		&record.TotalCardsProcessed,
		&deltas,
		&processedAt,
	); err != nil {
		return storage.ProcessedOrderRecord{}, err
	}
	if err := json.Unmarshal([]byte(sheetPaths), &record.PrintSheetPaths); err != nil {
		return storage.ProcessedOrderRecord{}, fmt.Errorf("unmarshal sheet paths: %w", err)
	}
	if err := json.Unmarshal([]byte(deltas), &record.CardPrintDeltas); err != nil {
		return storage.ProcessedOrderRecord{}, fmt.Errorf("unmarshal card print deltas: %w", err)
	}
	record.ProcessedAt = fromMillis(processedAt)
	return record, nil
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}
