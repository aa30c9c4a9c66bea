package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/kyoso-cards/fulfillment/internal/services/fulfillment/domain"
)

func TestNewEmailNotifierValidation(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		config EmailConfig
	}{
		{"missing host", EmailConfig{From: "a@example.com", To: "b@example.com"}},
		{"missing from", EmailConfig{Host: "smtp.example.com", To: "b@example.com"}},
		{"missing to", EmailConfig{Host: "smtp.example.com", From: "a@example.com"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := NewEmailNotifier(tc.config); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestSummaryBody(t *testing.T) {
	t.Parallel()
	body := summaryBody(domain.RunSummary{
		OrderID:             "order-1",
		TrackingNumber:      "KYOSO-12345678-AB12",
		TotalCardsProcessed: 3,
		TotalFailed:         1,
		RemoteArchiveLink:   "https://drive.example/remote-1",
		ProcessedAt:         time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
	})
	for _, want := range []string{"order-1", "KYOSO-12345678-AB12", "Cards processed: 3", "Copies failed: 1", "https://drive.example/remote-1"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestSummaryBodyOmitsZeroFailures(t *testing.T) {
	t.Parallel()
	body := summaryBody(domain.RunSummary{OrderID: "order-1", TotalCardsProcessed: 2})
	if strings.Contains(body, "failed") {
		t.Errorf("body mentions failures for a clean run:\n%s", body)
	}
}

func TestNewEventNotifierValidation(t *testing.T) {
	t.Parallel()
	if _, err := NewEventNotifier(nil, "topic"); err == nil {
		t.Fatal("expected error for missing brokers")
	}
	if _, err := NewEventNotifier([]string{"localhost:9092"}, ""); err == nil {
		t.Fatal("expected error for missing topic")
	}
}
