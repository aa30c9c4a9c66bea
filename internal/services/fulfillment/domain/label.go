package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kyoso-cards/fulfillment/internal/platform/random"
	orders "github.com/kyoso-cards/fulfillment/internal/services/orders/domain"
)

const (
	trackingPrefix   = "KYOSO"
	trackingAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	trackingSuffixN  = 4
)

// PackageDetails holds physical package metadata on a shipping label.
// Weight and dimensions are placeholders until carrier integration exists.
type PackageDetails struct {
	Weight     string `json:"weight"`
	Dimensions string `json:"dimensions"`
}

// ShippingLabel snapshots the shipping data for one fulfilled order.
type ShippingLabel struct {
	OrderID         string                 `json:"orderId"`
	ShippingAddress orders.ShippingAddress `json:"shippingAddress"`
	TotalItems      int                    `json:"totalItems"`
	TrackingNumber  string                 `json:"trackingNumber"`
	ShippingMethod  string                 `json:"shippingMethod"`
	GeneratedAt     time.Time              `json:"generatedAt"`
	PackageDetails  PackageDetails         `json:"packageDetails"`
}

// LabelGenerator produces shipping-label artifacts with synthetic tracking
// numbers. There is no real carrier integration.
type LabelGenerator struct {
	dir   string
	clock func() time.Time
	token func(n int, alphabet string) (string, error)
}

// NewLabelGenerator creates a generator placing label artifacts under dir.
func NewLabelGenerator(dir string) *LabelGenerator {
	return &LabelGenerator{
		dir:   dir,
		clock: time.Now,
		token: random.Token,
	}
}

// Generate writes the shipping label for the order and returns it with its
// artifact path. TotalItems counts requested quantities across line items.
func (g *LabelGenerator) Generate(ctx context.Context, order orders.Order) (ShippingLabel, string, error) {
	if err := ctx.Err(); err != nil {
		return ShippingLabel{}, "", err
	}
	if g == nil || g.dir == "" {
		return ShippingLabel{}, "", fmt.Errorf("label artifact directory is not configured")
	}
	if order.ID == "" {
		return ShippingLabel{}, "", ErrOrderIDRequired
	}

	now := g.clock().UTC()
	trackingNumber, err := g.trackingNumber(now)
	if err != nil {
		return ShippingLabel{}, "", fmt.Errorf("generate tracking number: %w", err)
	}

	label := ShippingLabel{
		OrderID:         order.ID,
		ShippingAddress: order.ShippingAddress,
		TotalItems:      order.TotalRequestedCopies(),
		TrackingNumber:  trackingNumber,
		ShippingMethod:  "standard",
		GeneratedAt:     now,
		PackageDetails:  PackageDetails{Weight: "TBD", Dimensions: "TBD"},
	}

	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return ShippingLabel{}, "", fmt.Errorf("create label artifact dir: %w", err)
	}
	data, err := json.MarshalIndent(label, "", "  ")
	if err != nil {
		return ShippingLabel{}, "", fmt.Errorf("marshal label for order %s: %w", order.ID, err)
	}
	path := filepath.Join(g.dir, fmt.Sprintf("shipping_label_%s_%d.json", order.ID, now.UnixMilli()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ShippingLabel{}, "", fmt.Errorf("write label artifact for order %s: %w", order.ID, err)
	}
	return label, path, nil
}

// trackingNumber builds KYOSO-<last 8 digits of unix millis>-<4 random chars>.
func (g *LabelGenerator) trackingNumber(now time.Time) (string, error) {
	millis := strconv.FormatInt(now.UnixMilli(), 10)
	if len(millis) > 8 {
		millis = millis[len(millis)-8:]
	}
	suffix, err := g.token(trackingSuffixN, trackingAlphabet)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%s", trackingPrefix, millis, suffix), nil
}
