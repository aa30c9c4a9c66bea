// Package sqlite provides SQLite-backed persistence for the card catalog.
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
	"github.com/kyoso-cards/fulfillment/internal/services/catalog/storage"
	"github.com/kyoso-cards/fulfillment/internal/services/catalog/storage/sqlite/migrations"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for catalog cards.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a catalog SQLite store at the provided path.
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

const cardColumns = "id, name, belt_rank, achievement, club_name, image, price, owner_user_id, print_count, created_at, updated_at"

// PutCard inserts or replaces one card row.
func (s *Store) PutCard(ctx context.Context, record storage.CardRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("card id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO cards (`+cardColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    name = excluded.name,
    belt_rank = excluded.belt_rank,
    achievement = excluded.achievement,
    club_name = excluded.club_name,
    image = excluded.image,
    price = excluded.price,
    owner_user_id = excluded.owner_user_id,
    print_count = excluded.print_count,
    updated_at = excluded.updated_at
`,
		record.ID,
		record.Name,
		record.BeltRank,
		record.Achievement,
		record.ClubName,
		record.Image,
		record.Price.String(),
		record.OwnerUserID,
		record.PrintCount,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put card: %w", err)
	}
	return nil
}

// GetCard returns one card row by id.
func (s *Store) GetCard(ctx context.Context, id string) (storage.CardRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.CardRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.CardRecord{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx, "SELECT "+cardColumns+" FROM cards WHERE id = ?", id)
	record, err := scanCard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.CardRecord{}, storage.ErrNotFound
		}
		return storage.CardRecord{}, fmt.Errorf("get card: %w", err)
	}
	return record, nil
}

// ListCardsByOwner returns all cards owned by ownerUserID, newest first.
func (s *Store) ListCardsByOwner(ctx context.Context, ownerUserID string) ([]storage.CardRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT "+cardColumns+" FROM cards WHERE owner_user_id = ? ORDER BY created_at DESC, id",
		ownerUserID,
	)
	if err != nil {
		return nil, fmt.Errorf("list cards by owner: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectCards(rows)
}

// SampleCards returns up to limit cards excluding excludeID, ordered by
// SQLite's RANDOM() so the draw is uniform and without replacement.
func (s *Store) SampleCards(ctx context.Context, excludeID string, limit int) ([]storage.CardRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT "+cardColumns+" FROM cards WHERE id != ? ORDER BY RANDOM() LIMIT ?",
		excludeID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sample cards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectCards(rows)
}

// AddPrintCount atomically adds delta to the card's print count in a single
// UPDATE and returns the new value.
func (s *Store) AddPrintCount(ctx context.Context, id string, delta int, updatedAt time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx,
		"UPDATE cards SET print_count = print_count + ?, updated_at = ? WHERE id = ? RETURNING print_count",
		delta,
		toMillis(updatedAt),
		id,
	)
	var value int
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, storage.ErrNotFound
		}
		return 0, fmt.Errorf("add print count: %w", err)
	}
	return value, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (storage.CardRecord, error) {
	var (
		record    storage.CardRecord
		price     string
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(
		&record.ID,
		&record.Name,
		&record.BeltRank,
		&record.Achievement,
		&record.ClubName,
		&record.Image,
		&price,
		&record.OwnerUserID,
		&record.PrintCount,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.CardRecord{}, err
	}
	parsed, err := decimal.NewFromString(price)
	if err != nil {
		return storage.CardRecord{}, fmt.Errorf("parse card price %q: %w", price, err)
	}
	record.Price = parsed
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

func collectCards(rows *sql.Rows) ([]storage.CardRecord, error) {
	var records []storage.CardRecord
	for rows.Next() {
		record, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return records, nil
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}
