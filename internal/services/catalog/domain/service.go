package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kyoso-cards/fulfillment/internal/platform/id"
	"github.com/kyoso-cards/fulfillment/internal/services/catalog/storage"
)

var (
	// ErrNotFound indicates a requested card does not exist.
	ErrNotFound = errors.New("card not found")
	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = errors.New("card store is not configured")
	// ErrNameRequired indicates a card name is required.
	ErrNameRequired = errors.New("card name is required")
	// ErrOwnerRequired indicates an owning user id is required.
	ErrOwnerRequired = errors.New("card owner user id is required")
	// ErrNegativePrice indicates a card price must not be negative.
	ErrNegativePrice = errors.New("card price must not be negative")
	// ErrCardIDRequired indicates a card id is required.
	ErrCardIDRequired = errors.New("card id is required")
	// ErrInvalidDelta indicates print-count increments must be positive.
	ErrInvalidDelta = errors.New("print count delta must be positive")
)

// DefaultDecoyCount is the number of decoys sampled when the caller does not
// request a specific count. One target plus 19 decoys fills a print sheet.
const DefaultDecoyCount = 19

// Service exposes catalog operations over a card store.
type Service struct {
	store       storage.CardStore
	clock       func() time.Time
	idGenerator func() (string, error)
}

// NewService creates a catalog service with default dependencies.
func NewService(store storage.CardStore) *Service {
	return &Service{
		store:       store,
		clock:       time.Now,
		idGenerator: id.NewID,
	}
}

// CreateCard validates and persists a new card record.
func (s *Service) CreateCard(ctx context.Context, input CreateCardInput) (Card, error) {
	if s == nil || s.store == nil {
		return Card{}, ErrStoreNotConfigured
	}
	if strings.TrimSpace(input.Name) == "" {
		return Card{}, ErrNameRequired
	}
	if strings.TrimSpace(input.OwnerUserID) == "" {
		return Card{}, ErrOwnerRequired
	}
	if input.Price.IsNegative() {
		return Card{}, ErrNegativePrice
	}

	cardID, err := s.idGenerator()
	if err != nil {
		return Card{}, fmt.Errorf("generate card id: %w", err)
	}

	now := s.clock().UTC()
	card := Card{
		ID:          cardID,
		Name:        strings.TrimSpace(input.Name),
		BeltRank:    strings.TrimSpace(input.BeltRank),
		Achievement: strings.TrimSpace(input.Achievement),
		ClubName:    strings.TrimSpace(input.ClubName),
		Image:       strings.TrimSpace(input.Image),
		Price:       input.Price,
		OwnerUserID: strings.TrimSpace(input.OwnerUserID),
		PrintCount:  0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.PutCard(ctx, toRecord(card)); err != nil {
		return Card{}, fmt.Errorf("put card: %w", err)
	}
	return card, nil
}

// GetCard returns one card by id.
func (s *Service) GetCard(ctx context.Context, cardID string) (Card, error) {
	if s == nil || s.store == nil {
		return Card{}, ErrStoreNotConfigured
	}
	if strings.TrimSpace(cardID) == "" {
		return Card{}, ErrCardIDRequired
	}
	record, err := s.store.GetCard(ctx, cardID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Card{}, fmt.Errorf("%w: %s", ErrNotFound, cardID)
		}
		return Card{}, fmt.Errorf("get card: %w", err)
	}
	return fromRecord(record), nil
}

// ListCardsByOwner returns all cards owned by the given user.
func (s *Service) ListCardsByOwner(ctx context.Context, ownerUserID string) ([]Card, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	if strings.TrimSpace(ownerUserID) == "" {
		return nil, ErrOwnerRequired
	}
	records, err := s.store.ListCardsByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("list cards by owner: %w", err)
	}
	cards := make([]Card, 0, len(records))
	for _, record := range records {
		cards = append(cards, fromRecord(record))
	}
	return cards, nil
}

// SampleCards returns up to limit cards drawn uniformly at random from the
// catalog, excluding excludeID, without replacement. Fewer eligible cards than
// requested is not an error; the result is clamped to availability.
func (s *Service) SampleCards(ctx context.Context, excludeID string, limit int) ([]Card, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	if limit <= 0 {
		limit = DefaultDecoyCount
	}
	records, err := s.store.SampleCards(ctx, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("sample cards: %w", err)
	}
	cards := make([]Card, 0, len(records))
	for _, record := range records {
		if record.ID == excludeID {
			continue
		}
		cards = append(cards, fromRecord(record))
	}
	return cards, nil
}

// IncrementPrintCount atomically adds delta to a card's print count and
// returns the new value. The addition happens at the store boundary in a
// single statement, never as a read followed by a separate write.
func (s *Service) IncrementPrintCount(ctx context.Context, cardID string, delta int) (int, error) {
	if s == nil || s.store == nil {
		return 0, ErrStoreNotConfigured
	}
	if strings.TrimSpace(cardID) == "" {
		return 0, ErrCardIDRequired
	}
	if delta <= 0 {
		return 0, ErrInvalidDelta
	}
	value, err := s.store.AddPrintCount(ctx, cardID, delta, s.clock().UTC())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, fmt.Errorf("%w: %s", ErrNotFound, cardID)
		}
		return 0, fmt.Errorf("add print count: %w", err)
	}
	return value, nil
}

func toRecord(card Card) storage.CardRecord {
	return storage.CardRecord{
		ID:          card.ID,
		Name:        card.Name,
		BeltRank:    card.BeltRank,
		Achievement: card.Achievement,
		ClubName:    card.ClubName,
		Image:       card.Image,
		Price:       card.Price,
		OwnerUserID: card.OwnerUserID,
		PrintCount:  card.PrintCount,
		CreatedAt:   card.CreatedAt,
		UpdatedAt:   card.UpdatedAt,
	}
}

func fromRecord(record storage.CardRecord) Card {
	return Card{
		ID:          record.ID,
		Name:        record.Name,
		BeltRank:    record.BeltRank,
		Achievement: record.Achievement,
		ClubName:    record.ClubName,
		Image:       record.Image,
		Price:       record.Price,
		OwnerUserID: record.OwnerUserID,
		PrintCount:  record.PrintCount,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}
