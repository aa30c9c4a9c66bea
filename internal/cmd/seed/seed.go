// Package seed implements the development seeding binary: it fills the
// catalog with sample cards and places one paid order so the service can be
// exercised end to end locally.
package seed

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kyoso-cards/fulfillment/internal/platform/cmd"
	catalogdomain "github.com/kyoso-cards/fulfillment/internal/services/catalog/domain"
	catalogsqlite "github.com/kyoso-cards/fulfillment/internal/services/catalog/storage/sqlite"
	ordersdomain "github.com/kyoso-cards/fulfillment/internal/services/orders/domain"
	orderssqlite "github.com/kyoso-cards/fulfillment/internal/services/orders/storage/sqlite"
)

// Config holds seeding options.
type Config struct {
	DataDir   string `env:"KYOSO_FULFILLMENT_DATA_DIR" envDefault:"data"`
	CardCount int    `env:"KYOSO_FULFILLMENT_SEED_CARDS" envDefault:"25"`
}

var beltRanks = []string{"white", "yellow", "orange", "green", "blue", "brown", "black"}

// Run seeds the catalog and orders databases and logs the created ids.
func Run(ctx context.Context, args []string) error {
	var cfg Config
	if err := cmd.ParseConfig(&cfg); err != nil {
		return err
	}

	fs := flag.NewFlagSet(cmd.ServiceSeed, flag.ContinueOnError)
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory for sqlite databases")
	fs.IntVar(&cfg.CardCount, "cards", cfg.CardCount, "number of sample cards to create")
	if err := cmd.ParseArgs(fs, args); err != nil {
		return err
	}
	if cfg.CardCount < 2 {
		return fmt.Errorf("at least 2 cards are required to seed an order")
	}

	logger, err := cmd.NewLogger(cmd.ServiceSeed)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	return cmd.RunWithTelemetry(ctx, cmd.ServiceSeed, logger, func(ctx context.Context) error {
		return seed(ctx, cfg, logger)
	})
}

func seed(ctx context.Context, cfg Config, logger *zap.Logger) error {
	cardStore, err := catalogsqlite.Open(filepath.Join(cfg.DataDir, "catalog.db"))
	if err != nil {
		return fmt.Errorf("open catalog store: %w", err)
	}
	defer func() { _ = cardStore.Close() }()

	orderStore, err := orderssqlite.Open(filepath.Join(cfg.DataDir, "orders.db"))
	if err != nil {
		return fmt.Errorf("open orders store: %w", err)
	}
	defer func() { _ = orderStore.Close() }()

	catalog := catalogdomain.NewService(cardStore)
	orders := ordersdomain.NewService(orderStore)

	cards := make([]catalogdomain.Card, 0, cfg.CardCount)
	for i := 0; i < cfg.CardCount; i++ {
		card, err := catalog.CreateCard(ctx, catalogdomain.CreateCardInput{
			Name:        fmt.Sprintf("Sample Athlete %02d", i+1),
			BeltRank:    beltRanks[i%len(beltRanks)],
			Achievement: fmt.Sprintf("Regional Tournament %d", 2020+i%6),
			ClubName:    "Sample Dojo",
			Price:       decimal.New(int64(500+i*25), -2),
			OwnerUserID: "seed-user",
		})
		if err != nil {
			return fmt.Errorf("create sample card %d: %w", i+1, err)
		}
		cards = append(cards, card)
	}
	logger.Info("seeded cards", zap.Int("count", len(cards)))

	order, err := orders.CreateOrder(ctx, ordersdomain.CreateOrderInput{
		BuyerUserID: "seed-buyer",
		Items: []ordersdomain.LineItem{
			{CardID: cards[0].ID, Quantity: 2},
			{CardID: cards[1].ID, Quantity: 1},
		},
		ShippingAddress: ordersdomain.ShippingAddress{
			FullName:     "Sample Buyer",
			AddressLine1: "1 Tatami Way",
			City:         "Springfield",
			State:        "IL",
			PostalCode:   "62701",
			Country:      "US",
		},
		TotalAmount:   cards[0].Price.Mul(decimal.NewFromInt(2)).Add(cards[1].Price),
		PaymentStatus: ordersdomain.PaymentPaid,
	})
	if err != nil {
		return fmt.Errorf("create sample order: %w", err)
	}
	logger.Info("seeded order",
		zap.String("order_id", order.ID),
		zap.Int("requested_copies", order.TotalRequestedCopies()),
	)
	return nil
}
