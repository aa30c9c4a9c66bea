package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kyoso-cards/fulfillment/internal/services/fulfillment/domain"
	"github.com/segmentio/kafka-go"
)

// orderFulfilledEvent is the wire shape published to the event bus after a
// successful run.
type orderFulfilledEvent struct {
	Type                string    `json:"type"`
	OrderID             string    `json:"orderId"`
	TrackingNumber      string    `json:"trackingNumber"`
	TotalCardsProcessed int       `json:"totalCardsProcessed"`
	TotalFailed         int       `json:"totalFailed"`
	RemoteArchiveLink   string    `json:"remoteArchiveLink,omitempty"`
	ProcessedAt         time.Time `json:"processedAt"`
}

// EventNotifier publishes order.fulfilled events to a Kafka topic, keyed by
// order id so runs for the same order land on the same partition.
type EventNotifier struct {
	writer *kafka.Writer
}

// NewEventNotifier builds a Kafka writer for the given brokers and topic.
func NewEventNotifier(brokers []string, topic string) (*EventNotifier, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one kafka broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}
	return &EventNotifier{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}, nil
}

// NotifyProcessed publishes one order.fulfilled event.
func (n *EventNotifier) NotifyProcessed(ctx context.Context, summary domain.RunSummary) error {
	if n == nil || n.writer == nil {
		return fmt.Errorf("event notifier is not configured")
	}

	payload, err := json.Marshal(orderFulfilledEvent{
		Type:                "order.fulfilled",
		OrderID:             summary.OrderID,
		TrackingNumber:      summary.TrackingNumber,
		TotalCardsProcessed: summary.TotalCardsProcessed,
		TotalFailed:         summary.TotalFailed,
		RemoteArchiveLink:   summary.RemoteArchiveLink,
		ProcessedAt:         summary.ProcessedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	if err := n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(summary.OrderID),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("publish order event: %w", err)
	}
	return nil
}

// Close releases the Kafka writer.
func (n *EventNotifier) Close() error {
	if n == nil || n.writer == nil {
		return nil
	}
	return n.writer.Close()
}
