package domain

import (
	"context"
	"errors"

	orders "github.com/kyoso-cards/fulfillment/internal/services/orders/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// CopySuccess records one successfully processed physical copy.
type CopySuccess struct {
	CardID      string
	CopyIndex   int // 1-based within the line item
	TotalCopies int // quantity requested for the line item
	Result      CopyResult
}

// CopyFailure records one failed physical copy.
type CopyFailure struct {
	CardID    string
	CopyIndex int // 1-based within the line item
	Reason    string
}

// Report aggregates per-copy outcomes for one order: successes and failures
// sum to the total number of requested copies.
type Report struct {
	Successes []CopySuccess
	Failures  []CopyFailure
}

// TotalProcessed returns the number of successfully processed copies.
func (r Report) TotalProcessed() int {
	return len(r.Successes)
}

// TotalFailed returns the number of failed copies.
func (r Report) TotalFailed() int {
	return len(r.Failures)
}

// SheetPaths returns the print-sheet artifact paths of successful copies in
// processing order, ready for downstream packaging.
func (r Report) SheetPaths() []string {
	paths := make([]string, 0, len(r.Successes))
	for _, success := range r.Successes {
		paths = append(paths, success.Result.SheetPath)
	}
	return paths
}

// Pipeline expands an order's line items into individual copies and drives
// the copy processor for each, isolating failures per copy.
type Pipeline struct {
	copies *CopyProcessor
	logger *zap.Logger
	tracer trace.Tracer
}

// NewPipeline creates an order pipeline over the given copy processor.
func NewPipeline(copies *CopyProcessor, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		copies: copies,
		logger: logger,
		tracer: otel.Tracer("fulfillment/pipeline"),
	}
}

// ProcessOrder processes every copy of every line item sequentially, in
// document order of items and ascending copy index within an item. The
// sequential order bounds peak resource usage to one copy's artifacts in
// flight and makes failure reports reproducible for a given order snapshot.
//
// A single copy's failure never aborts sibling copies or other line items;
// it is recorded in the report's failure list and processing continues.
// There is no automatic retry of failed copies.
func (p *Pipeline) ProcessOrder(ctx context.Context, order orders.Order) (Report, error) {
	if p == nil || p.copies == nil {
		return Report{}, errors.New("copy processor is not configured")
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.process_order",
		trace.WithAttributes(
			attribute.String("order.id", order.ID),
			attribute.Int("order.requested_copies", order.TotalRequestedCopies()),
		))
	defer span.End()

	var report Report
	for _, item := range order.Items {
		for copyIndex := 1; copyIndex <= item.Quantity; copyIndex++ {
			if err := ctx.Err(); err != nil {
				return report, err
			}

			result, err := p.copies.ProcessCopy(ctx, item.CardID)
			if err != nil {
				reason := err.Error()
				var copyErr *CopyError
				if errors.As(err, &copyErr) {
					reason = copyErr.Unwrap().Error()
				}
				report.Failures = append(report.Failures, CopyFailure{
					CardID:    item.CardID,
					CopyIndex: copyIndex,
					Reason:    reason,
				})
				p.logger.Warn("copy processing failed",
					zap.String("order_id", order.ID),
					zap.String("card_id", item.CardID),
					zap.Int("copy_index", copyIndex),
					zap.String("reason", reason),
				)
				continue
			}

			report.Successes = append(report.Successes, CopySuccess{
				CardID:      item.CardID,
				CopyIndex:   copyIndex,
				TotalCopies: item.Quantity,
				Result:      result,
			})
		}
	}

	span.SetAttributes(
		attribute.Int("order.copies_processed", report.TotalProcessed()),
		attribute.Int("order.copies_failed", report.TotalFailed()),
	)
	return report, nil
}
