package domain

import (
	"context"
	"strings"
	"time"

	catalog "github.com/kyoso-cards/fulfillment/internal/services/catalog/domain"
	orders "github.com/kyoso-cards/fulfillment/internal/services/orders/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// OrderDirectory provides the order operations fulfillment consumes.
type OrderDirectory interface {
	GetOrder(ctx context.Context, orderID string) (orders.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status orders.Status, trackingNumber string) error
}

// RunSummary describes one completed fulfillment run for notification.
type RunSummary struct {
	OrderID             string
	TrackingNumber      string
	TotalCardsProcessed int
	TotalFailed         int
	RemoteArchiveLink   string
	ProcessedAt         time.Time
}

// Notifier reports a completed run to an outbound channel. Notification is
// fire-and-report: a failure here never rolls back persisted ledger state.
type Notifier interface {
	NotifyProcessed(ctx context.Context, summary RunSummary) error
}

// Outcome carries everything one fulfillment run produced.
type Outcome struct {
	Order     orders.Order
	Report    Report
	Label     ShippingLabel
	LabelPath string
	Ledger    ProcessedOrder
}

// CardArtifact pairs a card with its written artifact path.
type CardArtifact struct {
	Card catalog.Card
	Path string
}

// Service orchestrates a full fulfillment run: pipeline, shipping label,
// packaging, order status update, and notifications.
//
// All collaborators are constructed once at process start and injected by
// reference; the service holds no locks and processes each order on a single
// logical thread of control.
type Service struct {
	orders    OrderDirectory
	catalog   Catalog
	cards     *CardFileWriter
	copies    *CopyProcessor
	pipeline  *Pipeline
	labels    *LabelGenerator
	packager  *Packager
	notifiers []Notifier
	logger    *zap.Logger
	tracer    trace.Tracer
}

// NewService wires the fulfillment orchestrator.
func NewService(
	orderDirectory OrderDirectory,
	cardCatalog Catalog,
	cards *CardFileWriter,
	copies *CopyProcessor,
	pipeline *Pipeline,
	labels *LabelGenerator,
	packager *Packager,
	notifiers []Notifier,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		orders:    orderDirectory,
		catalog:   cardCatalog,
		cards:     cards,
		copies:    copies,
		pipeline:  pipeline,
		labels:    labels,
		packager:  packager,
		notifiers: notifiers,
		logger:    logger,
		tracer:    otel.Tracer("fulfillment/service"),
	}
}

// FulfillOrder runs the whole pipeline for one order id.
//
// Per-copy failures are aggregated in the outcome's report and never abort
// the order. Packaging or ledger failures abort the remaining steps and are
// returned with the partial outcome preserved. Re-running the same order id
// produces an independent ledger entry and increments print counts again;
// there is no idempotency key.
func (s *Service) FulfillOrder(ctx context.Context, orderID string) (Outcome, error) {
	if strings.TrimSpace(orderID) == "" {
		return Outcome{}, ErrOrderIDRequired
	}

	ctx, span := s.tracer.Start(ctx, "fulfillment.fulfill_order",
		trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{Order: order}

	report, err := s.pipeline.ProcessOrder(ctx, order)
	outcome.Report = report
	if err != nil {
		return outcome, err
	}

	label, labelPath, err := s.labels.Generate(ctx, order)
	if err != nil {
		return outcome, err
	}
	outcome.Label = label
	outcome.LabelPath = labelPath

	ledger, err := s.packager.Package(ctx, order, report, label, labelPath)
	outcome.Ledger = ledger
	if err != nil {
		return outcome, err
	}

	if err := s.orders.UpdateStatus(ctx, order.ID, orders.StatusFulfilled, label.TrackingNumber); err != nil {
		// The ledger entry is already durable; losing the status update is
		// recoverable from it, so the run still counts as complete.
		s.logger.Warn("update order status after fulfillment",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
	}

	s.notify(ctx, RunSummary{
		OrderID:             order.ID,
		TrackingNumber:      label.TrackingNumber,
		TotalCardsProcessed: report.TotalProcessed(),
		TotalFailed:         report.TotalFailed(),
		RemoteArchiveLink:   ledger.RemoteArchiveLink,
		ProcessedAt:         ledger.ProcessedAt,
	})

	s.logger.Info("order fulfilled",
		zap.String("order_id", order.ID),
		zap.String("tracking_number", label.TrackingNumber),
		zap.Int("copies_processed", report.TotalProcessed()),
		zap.Int("copies_failed", report.TotalFailed()),
	)
	return outcome, nil
}

// ProcessCard fetches one card and writes its artifact file.
func (s *Service) ProcessCard(ctx context.Context, cardID string) (CardArtifact, error) {
	if strings.TrimSpace(cardID) == "" {
		return CardArtifact{}, ErrCardIDRequired
	}
	card, err := s.catalog.GetCard(ctx, cardID)
	if err != nil {
		return CardArtifact{}, err
	}
	path, err := s.cards.Write(ctx, card)
	if err != nil {
		return CardArtifact{}, err
	}
	return CardArtifact{Card: card, Path: path}, nil
}

// ProcessCardWithDecoys runs one full copy for a card outside any order.
func (s *Service) ProcessCardWithDecoys(ctx context.Context, cardID string) (CopyResult, error) {
	return s.copies.ProcessCopy(ctx, cardID)
}

func (s *Service) notify(ctx context.Context, summary RunSummary) {
	for _, notifier := range s.notifiers {
		if notifier == nil {
			continue
		}
		if err := notifier.NotifyProcessed(ctx, summary); err != nil {
			s.logger.Warn("fulfillment notification failed",
				zap.String("order_id", summary.OrderID),
				zap.Error(err),
			)
		}
	}
}
