package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	catalogdomain "github.com/kyoso-cards/fulfillment/internal/services/catalog/domain"
	ordersdomain "github.com/kyoso-cards/fulfillment/internal/services/orders/domain"
)

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	base := t.TempDir()
	runtime, err := NewRuntime(context.Background(), Config{
		HTTPAddr:   ":0",
		DataDir:    filepath.Join(base, "data"),
		OutputDir:  filepath.Join(base, "output"),
		DecoyCount: 19,
	}, nil)
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	t.Cleanup(func() { _ = runtime.Close() })
	return runtime
}

func seedRuntime(t *testing.T, runtime *Runtime) ordersdomain.Order {
	t.Helper()
	ctx := context.Background()

	var cards []catalogdomain.Card
	for _, name := range []string{"Aiko Tanaka", "Kenji Sato", "Mika Ito"} {
		card, err := runtime.Catalog.CreateCard(ctx, catalogdomain.CreateCardInput{
			Name:        name,
			BeltRank:    "black",
			Price:       decimal.RequireFromString("10.00"),
			OwnerUserID: "user-1",
		})
		if err != nil {
			t.Fatalf("CreateCard(%s): %v", name, err)
		}
		cards = append(cards, card)
	}

	order, err := runtime.Orders.CreateOrder(ctx, ordersdomain.CreateOrderInput{
		BuyerUserID: "buyer-1",
		Items: []ordersdomain.LineItem{
			{CardID: cards[0].ID, Quantity: 2},
			{CardID: cards[1].ID, Quantity: 1},
		},
		ShippingAddress: ordersdomain.ShippingAddress{
			FullName:     "Sample Buyer",
			AddressLine1: "1 Tatami Way",
			City:         "Springfield",
			PostalCode:   "62701",
			Country:      "US",
		},
		TotalAmount:   decimal.RequireFromString("30.00"),
		PaymentStatus: ordersdomain.PaymentPaid,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	return order
}

func TestRuntimeProcessOrderEndToEnd(t *testing.T) {
	t.Parallel()
	runtime := newTestRuntime(t)
	order := seedRuntime(t, runtime)

	req := httptest.NewRequest(http.MethodPost, "/api/process-order/"+order.ID, nil)
	rec := httptest.NewRecorder()
	runtime.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	var body struct {
		OrderID             string   `json:"orderId"`
		TrackingNumber      string   `json:"trackingNumber"`
		TotalCardsProcessed int      `json:"totalCardsProcessed"`
		TotalFailed         int      `json:"totalFailed"`
		PrintSheetPaths     []string `json:"printSheetPaths"`
		Status              string   `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.TotalCardsProcessed != 3 || body.TotalFailed != 0 {
		t.Errorf("processed = %d, failed = %d", body.TotalCardsProcessed, body.TotalFailed)
	}
	if len(body.PrintSheetPaths) != 3 {
		t.Errorf("sheets = %d, want 3", len(body.PrintSheetPaths))
	}
	if body.Status != "completed" {
		t.Errorf("status = %q, want completed", body.Status)
	}

	fulfilled, err := runtime.Orders.GetOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if fulfilled.Status != ordersdomain.StatusFulfilled {
		t.Errorf("order status = %q, want fulfilled", fulfilled.Status)
	}
	if fulfilled.TrackingNumber != body.TrackingNumber {
		t.Errorf("tracking = %q, want %q", fulfilled.TrackingNumber, body.TrackingNumber)
	}
}

func TestRuntimeFetchOrder(t *testing.T) {
	t.Parallel()
	runtime := newTestRuntime(t)
	order := seedRuntime(t, runtime)

	req := httptest.NewRequest(http.MethodGet, "/api/fetch-order/"+order.ID, nil)
	rec := httptest.NewRecorder()
	runtime.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
}

func TestRuntimeProcessCardWithRandoms(t *testing.T) {
	t.Parallel()
	runtime := newTestRuntime(t)
	order := seedRuntime(t, runtime)

	req := httptest.NewRequest(http.MethodGet, "/api/process-card-with-randoms/"+order.Items[0].CardID, nil)
	rec := httptest.NewRecorder()
	runtime.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	var body struct {
		RandomCards []json.RawMessage `json:"randomCards"`
		PrintCount  int               `json:"printCount"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.RandomCards) != 2 {
		t.Errorf("randomCards = %d, want 2", len(body.RandomCards))
	}
	if body.PrintCount != 1 {
		t.Errorf("printCount = %d, want 1", body.PrintCount)
	}
}
