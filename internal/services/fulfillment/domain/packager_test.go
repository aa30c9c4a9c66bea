package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kyoso-cards/fulfillment/internal/services/fulfillment/storage"
	orders "github.com/kyoso-cards/fulfillment/internal/services/orders/domain"
)

type fakeArchiver struct {
	dir string
	err error
}

func (f *fakeArchiver) BundleOrder(_ context.Context, orderID, _ string, _ []string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	path := filepath.Join(f.dir, fmt.Sprintf("order_%s.zip", orderID))
	if err := os.WriteFile(path, []byte("zip"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

type fakeUploader struct {
	result UploadResult
	err    error
	names  []string
}

func (f *fakeUploader) Upload(_ context.Context, name string, body io.Reader) (UploadResult, error) {
	if f.err != nil {
		return UploadResult{}, f.err
	}
	if _, err := io.ReadAll(body); err != nil {
		return UploadResult{}, err
	}
	f.names = append(f.names, name)
	return f.result, nil
}

type fakeLedger struct {
	records []storage.ProcessedOrderRecord
	err     error
}

func (f *fakeLedger) PutProcessedOrder(_ context.Context, record storage.ProcessedOrderRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, record)
	return nil
}

func (f *fakeLedger) GetProcessedOrder(_ context.Context, id string) (storage.ProcessedOrderRecord, error) {
	for _, record := range f.records {
		if record.ID == id {
			return record, nil
		}
	}
	return storage.ProcessedOrderRecord{}, storage.ErrNotFound
}

func (f *fakeLedger) ListProcessedOrdersByOrder(_ context.Context, orderID string) ([]storage.ProcessedOrderRecord, error) {
	var matched []storage.ProcessedOrderRecord
	for _, record := range f.records {
		if record.OrderID == orderID {
			matched = append(matched, record)
		}
	}
	return matched, nil
}

func packagerOrder() orders.Order {
	return orders.Order{
		ID: "order-1",
		Items: []orders.LineItem{
			{CardID: "a", Quantity: 2},
			{CardID: "b", Quantity: 1},
		},
	}
}

func packagerReport() Report {
	return Report{
		Successes: []CopySuccess{
			{CardID: "a", CopyIndex: 1, TotalCopies: 2, Result: CopyResult{SheetPath: "/tmp/sheet1.json"}},
			{CardID: "a", CopyIndex: 2, TotalCopies: 2, Result: CopyResult{SheetPath: "/tmp/sheet2.json"}},
		},
		Failures: []CopyFailure{{CardID: "b", Reason: "card not found: b"}},
	}
}

func newTestPackager(archiver Archiver, uploader Uploader, ledger storage.ProcessedOrderStore) *Packager {
	packager := NewPackager(archiver, uploader, ledger)
	packager.clock = func() time.Time { return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC) }
	packager.idGenerator = func() (string, error) { return "entry-1", nil }
	return packager
}

func TestPackage(t *testing.T) {
	t.Parallel()
	archiver := &fakeArchiver{dir: t.TempDir()}
	uploader := &fakeUploader{result: UploadResult{RemoteID: "remote-1", Link: "https://drive.example/remote-1"}}
	ledger := &fakeLedger{}
	packager := newTestPackager(archiver, uploader, ledger)

	label := ShippingLabel{TrackingNumber: "KYOSO-12345678-AB12"}
	entry, err := packager.Package(context.Background(), packagerOrder(), packagerReport(), label, "/tmp/label.json")
	if err != nil {
		t.Fatalf("Package: %v", err)
	}
	if entry.Status != ProcessedCompleted {
		t.Errorf("Status = %q, want completed", entry.Status)
	}
	if entry.TotalCardsProcessed != 2 {
		t.Errorf("TotalCardsProcessed = %d, want 2", entry.TotalCardsProcessed)
	}
	if entry.RemoteArchiveID != "remote-1" {
		t.Errorf("RemoteArchiveID = %q", entry.RemoteArchiveID)
	}
	if len(entry.CardPrintDeltas) != 2 || entry.CardPrintDeltas[0].Quantity != 2 || entry.CardPrintDeltas[1].Quantity != 1 {
		t.Errorf("CardPrintDeltas = %v", entry.CardPrintDeltas)
	}
	if len(uploader.names) != 1 || uploader.names[0] != "order_order-1.zip" {
		t.Errorf("uploaded names = %v", uploader.names)
	}
	if len(ledger.records) != 1 || ledger.records[0].Status != "completed" {
		t.Errorf("ledger records = %v", ledger.records)
	}
	// The local bundle is removed once the remote copy exists.
	if _, statErr := os.Stat(filepath.Join(archiver.dir, "order_order-1.zip")); !os.IsNotExist(statErr) {
		t.Error("local archive was not removed after upload")
	}
}

func TestPackageBundleFailureRecordsFailedRun(t *testing.T) {
	t.Parallel()
	archiver := &fakeArchiver{err: errors.New("disk full")}
	ledger := &fakeLedger{}
	packager := newTestPackager(archiver, &fakeUploader{}, ledger)

	_, err := packager.Package(context.Background(), packagerOrder(), packagerReport(), ShippingLabel{}, "/tmp/label.json")
	var external *ExternalServiceError
	if !errors.As(err, &external) {
		t.Fatalf("err = %v, want *ExternalServiceError", err)
	}
	if len(ledger.records) != 1 || ledger.records[0].Status != "failed" {
		t.Fatalf("ledger records = %v, want one failed entry", ledger.records)
	}
}

func TestPackageUploadFailureRecordsFailedRun(t *testing.T) {
	t.Parallel()
	archiver := &fakeArchiver{dir: t.TempDir()}
	uploader := &fakeUploader{err: errors.New("connection refused")}
	ledger := &fakeLedger{}
	packager := newTestPackager(archiver, uploader, ledger)

	_, err := packager.Package(context.Background(), packagerOrder(), packagerReport(), ShippingLabel{}, "/tmp/label.json")
	var external *ExternalServiceError
	if !errors.As(err, &external) {
		t.Fatalf("err = %v, want *ExternalServiceError", err)
	}
	if len(ledger.records) != 1 || ledger.records[0].Status != "failed" {
		t.Fatalf("ledger records = %v, want one failed entry", ledger.records)
	}
}

func TestPackageLedgerFailure(t *testing.T) {
	t.Parallel()
	archiver := &fakeArchiver{dir: t.TempDir()}
	ledger := &fakeLedger{err: errors.New("db locked")}
	packager := newTestPackager(archiver, &fakeUploader{}, ledger)

	if _, err := packager.Package(context.Background(), packagerOrder(), packagerReport(), ShippingLabel{}, "/tmp/label.json"); err == nil {
		t.Fatal("expected error when ledger write fails")
	}
}

func TestPackageRequiresOrderID(t *testing.T) {
	t.Parallel()
	packager := newTestPackager(&fakeArchiver{dir: t.TempDir()}, &fakeUploader{}, &fakeLedger{})
	if _, err := packager.Package(context.Background(), orders.Order{}, Report{}, ShippingLabel{}, ""); !errors.Is(err, ErrOrderIDRequired) {
		t.Fatalf("err = %v, want ErrOrderIDRequired", err)
	}
}
