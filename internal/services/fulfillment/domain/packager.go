package domain

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kyoso-cards/fulfillment/internal/platform/id"
	"github.com/kyoso-cards/fulfillment/internal/services/fulfillment/storage"
	orders "github.com/kyoso-cards/fulfillment/internal/services/orders/domain"
)

// ProcessedStatus identifies one ledger entry outcome.
type ProcessedStatus string

const (
	// ProcessedCompleted means packaging and upload finished.
	ProcessedCompleted ProcessedStatus = "completed"
	// ProcessedFailed means packaging aborted at the order level.
	ProcessedFailed ProcessedStatus = "failed"
)

// CardPrintDelta records the requested quantity for one card in a run.
// Quantities are requested, not necessarily fulfilled: the ledger records
// what the order asked for even when some copies failed.
type CardPrintDelta struct {
	CardID   string
	Quantity int
}

// ProcessedOrder is the immutable ledger entry for one fulfillment run.
type ProcessedOrder struct {
	ID                  string
	OrderID             string
	PrintSheetPaths     []string
	ShippingLabelPath   string
	RemoteArchiveID     string
	RemoteArchiveLink   string
	TrackingNumber      string
	Status              ProcessedStatus
	TotalCardsProcessed int
	CardPrintDeltas     []CardPrintDelta
	ProcessedAt         time.Time
}

// UploadResult identifies an archive stored at the remote collaborator.
type UploadResult struct {
	RemoteID string
	Link     string
}

// Archiver bundles fulfillment artifacts for one order into a single
// archive file and returns its path.
type Archiver interface {
	BundleOrder(ctx context.Context, orderID string, shippingLabelPath string, printSheetPaths []string) (string, error)
}

// Uploader sends a packaged archive to remote storage.
type Uploader interface {
	Upload(ctx context.Context, name string, body io.Reader) (UploadResult, error)
}

// Packager assembles the final artifact bundle for an order, hands it to the
// remote archive, and records the outcome in the fulfillment ledger.
type Packager struct {
	archiver    Archiver
	uploader    Uploader
	ledger      storage.ProcessedOrderStore
	clock       func() time.Time
	idGenerator func() (string, error)
}

// NewPackager wires the packager's collaborators.
func NewPackager(archiver Archiver, uploader Uploader, ledger storage.ProcessedOrderStore) *Packager {
	return &Packager{
		archiver:    archiver,
		uploader:    uploader,
		ledger:      ledger,
		clock:       time.Now,
		idGenerator: id.NewID,
	}
}

// Package bundles the shipping label with every successful copy's print
// sheet, uploads the archive, and persists exactly one ledger entry for this
// invocation.
//
// The archive holds one entry per successful copy, never per failed copy.
// Ledger quantity deltas come from the original order's line items, so they
// reflect requested quantities. When bundling or upload fails, the run is
// still recorded with a failed status and the error is surfaced; artifacts
// already generated are never discarded.
func (p *Packager) Package(ctx context.Context, order orders.Order, report Report, label ShippingLabel, labelPath string) (ProcessedOrder, error) {
	if p == nil || p.ledger == nil {
		return ProcessedOrder{}, fmt.Errorf("processed order ledger is not configured")
	}
	if order.ID == "" {
		return ProcessedOrder{}, ErrOrderIDRequired
	}

	entry := ProcessedOrder{
		OrderID:             order.ID,
		PrintSheetPaths:     report.SheetPaths(),
		ShippingLabelPath:   labelPath,
		TrackingNumber:      label.TrackingNumber,
		Status:              ProcessedCompleted,
		TotalCardsProcessed: report.TotalProcessed(),
		CardPrintDeltas:     requestedDeltas(order),
		ProcessedAt:         p.clock().UTC(),
	}
	entryID, err := p.idGenerator()
	if err != nil {
		return ProcessedOrder{}, fmt.Errorf("generate ledger entry id: %w", err)
	}
	entry.ID = entryID

	archivePath, err := p.archiver.BundleOrder(ctx, order.ID, labelPath, entry.PrintSheetPaths)
	if err != nil {
		return p.recordFailure(ctx, entry, &ExternalServiceError{Op: "bundle order archive", Err: err})
	}

	archive, err := os.Open(archivePath)
	if err != nil {
		return p.recordFailure(ctx, entry, &ExternalServiceError{Op: "open order archive", Err: err})
	}
	uploaded, uploadErr := p.uploader.Upload(ctx, fmt.Sprintf("order_%s.zip", order.ID), archive)
	_ = archive.Close()
	if uploadErr != nil {
		return p.recordFailure(ctx, entry, &ExternalServiceError{Op: "upload order archive", Err: uploadErr})
	}
	// The local bundle is a temp artifact; the remote copy is authoritative.
	_ = os.Remove(archivePath)

	entry.RemoteArchiveID = uploaded.RemoteID
	entry.RemoteArchiveLink = uploaded.Link

	if err := p.ledger.PutProcessedOrder(ctx, toLedgerRecord(entry)); err != nil {
		return ProcessedOrder{}, &ExternalServiceError{Op: "save processed order", Err: err}
	}
	return entry, nil
}

// recordFailure persists the failed run before surfacing the cause. A ledger
// write failure at this point is reported alongside the original error.
func (p *Packager) recordFailure(ctx context.Context, entry ProcessedOrder, cause error) (ProcessedOrder, error) {
	entry.Status = ProcessedFailed
	if err := p.ledger.PutProcessedOrder(ctx, toLedgerRecord(entry)); err != nil {
		return entry, fmt.Errorf("record failed run: %w (original: %v)", err, cause)
	}
	return entry, cause
}

func requestedDeltas(order orders.Order) []CardPrintDelta {
	deltas := make([]CardPrintDelta, 0, len(order.Items))
	for _, item := range order.Items {
		deltas = append(deltas, CardPrintDelta{CardID: item.CardID, Quantity: item.Quantity})
	}
	return deltas
}

func toLedgerRecord(entry ProcessedOrder) storage.ProcessedOrderRecord {
	record := storage.ProcessedOrderRecord{
		ID:                  entry.ID,
		OrderID:             entry.OrderID,
		PrintSheetPaths:     entry.PrintSheetPaths,
		ShippingLabelPath:   entry.ShippingLabelPath,
		RemoteArchiveID:     entry.RemoteArchiveID,
		RemoteArchiveLink:   entry.RemoteArchiveLink,
		TrackingNumber:      entry.TrackingNumber,
		Status:              string(entry.Status),
		TotalCardsProcessed: entry.TotalCardsProcessed,
		ProcessedAt:         entry.ProcessedAt,
	}
	for _, delta := range entry.CardPrintDeltas {
		record.CardPrintDeltas = append(record.CardPrintDeltas, storage.CardPrintDelta{
			CardID:   delta.CardID,
			Quantity: delta.Quantity,
		})
	}
	return record
}
