package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	orders "github.com/kyoso-cards/fulfillment/internal/services/orders/domain"
)

type fakeOrderDirectory struct {
	order        orders.Order
	getErr       error
	updateErr    error
	updatedTo    orders.Status
	updatedTrack string
}

func (f *fakeOrderDirectory) GetOrder(_ context.Context, orderID string) (orders.Order, error) {
	if f.getErr != nil {
		return orders.Order{}, f.getErr
	}
	if orderID != f.order.ID {
		return orders.Order{}, fmt.Errorf("%w: %s", orders.ErrNotFound, orderID)
	}
	return f.order, nil
}

func (f *fakeOrderDirectory) UpdateStatus(_ context.Context, _ string, status orders.Status, trackingNumber string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updatedTo = status
	f.updatedTrack = trackingNumber
	return nil
}

type fakeNotifier struct {
	summaries []RunSummary
	err       error
}

func (f *fakeNotifier) NotifyProcessed(_ context.Context, summary RunSummary) error {
	if f.err != nil {
		return f.err
	}
	f.summaries = append(f.summaries, summary)
	return nil
}

type serviceFixture struct {
	service   *Service
	directory *fakeOrderDirectory
	ledger    *fakeLedger
	notifier  *fakeNotifier
}

func newServiceFixture(t *testing.T, cat *fakeCatalog, order orders.Order) *serviceFixture {
	t.Helper()
	directory := &fakeOrderDirectory{order: order}
	ledger := &fakeLedger{}
	notifier := &fakeNotifier{}

	cards := NewCardFileWriter(t.TempDir())
	sheets := NewSheetBuilder(t.TempDir())
	sampler := NewSampler(cat, 19)
	copies := NewCopyProcessor(cat, sampler, cards, sheets)
	pipeline := NewPipeline(copies, nil)
	labels := NewLabelGenerator(t.TempDir())
	archiver := &fakeArchiver{dir: t.TempDir()}
	uploader := &fakeUploader{result: UploadResult{RemoteID: "remote-1", Link: "https://drive.example/remote-1"}}
	packager := NewPackager(archiver, uploader, ledger)

	service := NewService(directory, cat, cards, copies, pipeline, labels, packager, []Notifier{notifier}, nil)
	return &serviceFixture{service: service, directory: directory, ledger: ledger, notifier: notifier}
}

func fulfillableOrder() orders.Order {
	return orders.Order{
		ID:          "order-1",
		BuyerUserID: "buyer-1",
		Items: []orders.LineItem{
			{CardID: "a", Quantity: 2},
			{CardID: "b", Quantity: 1},
		},
		Status: orders.StatusPending,
	}
}

func TestFulfillOrder(t *testing.T) {
	t.Parallel()
	cat := newFakeCatalog(makeCard("a"), makeCard("b"), makeCard("c"))
	fixture := newServiceFixture(t, cat, fulfillableOrder())

	outcome, err := fixture.service.FulfillOrder(context.Background(), "order-1")
	if err != nil {
		t.Fatalf("FulfillOrder: %v", err)
	}
	if outcome.Report.TotalProcessed() != 3 {
		t.Errorf("TotalProcessed = %d, want 3", outcome.Report.TotalProcessed())
	}
	if outcome.Label.TrackingNumber == "" {
		t.Error("missing tracking number")
	}
	if outcome.Ledger.Status != ProcessedCompleted {
		t.Errorf("ledger status = %q", outcome.Ledger.Status)
	}
	if fixture.directory.updatedTo != orders.StatusFulfilled {
		t.Errorf("order status = %q, want fulfilled", fixture.directory.updatedTo)
	}
	if fixture.directory.updatedTrack != outcome.Label.TrackingNumber {
		t.Errorf("tracking on order = %q, want %q", fixture.directory.updatedTrack, outcome.Label.TrackingNumber)
	}
	if len(fixture.notifier.summaries) != 1 {
		t.Fatalf("notifications = %d, want 1", len(fixture.notifier.summaries))
	}
	summary := fixture.notifier.summaries[0]
	if summary.OrderID != "order-1" || summary.TotalCardsProcessed != 3 {
		t.Errorf("summary = %+v", summary)
	}
	if len(fixture.ledger.records) != 1 {
		t.Errorf("ledger records = %d, want 1", len(fixture.ledger.records))
	}
}

func TestFulfillOrderPartialFailure(t *testing.T) {
	t.Parallel()
	// Card b is missing from the catalog, so its copy fails while the order
	// still completes.
	cat := newFakeCatalog(makeCard("a"), makeCard("c"))
	fixture := newServiceFixture(t, cat, fulfillableOrder())

	outcome, err := fixture.service.FulfillOrder(context.Background(), "order-1")
	if err != nil {
		t.Fatalf("FulfillOrder: %v", err)
	}
	if outcome.Report.TotalProcessed() != 2 || outcome.Report.TotalFailed() != 1 {
		t.Errorf("report = %d processed, %d failed", outcome.Report.TotalProcessed(), outcome.Report.TotalFailed())
	}
	if fixture.directory.updatedTo != orders.StatusFulfilled {
		t.Errorf("order status = %q, want fulfilled", fixture.directory.updatedTo)
	}
	if len(fixture.notifier.summaries) != 1 || fixture.notifier.summaries[0].TotalFailed != 1 {
		t.Errorf("summaries = %+v", fixture.notifier.summaries)
	}
}

func TestFulfillOrderNotFound(t *testing.T) {
	t.Parallel()
	cat := newFakeCatalog(makeCard("a"))
	fixture := newServiceFixture(t, cat, fulfillableOrder())

	_, err := fixture.service.FulfillOrder(context.Background(), "missing")
	if !errors.Is(err, orders.ErrNotFound) {
		t.Fatalf("err = %v, want orders.ErrNotFound", err)
	}
}

func TestFulfillOrderRequiresID(t *testing.T) {
	t.Parallel()
	cat := newFakeCatalog()
	fixture := newServiceFixture(t, cat, fulfillableOrder())

	if _, err := fixture.service.FulfillOrder(context.Background(), " "); !errors.Is(err, ErrOrderIDRequired) {
		t.Fatalf("err = %v, want ErrOrderIDRequired", err)
	}
}

func TestFulfillOrderNotifierFailureDoesNotAbort(t *testing.T) {
	t.Parallel()
	cat := newFakeCatalog(makeCard("a"), makeCard("b"))
	fixture := newServiceFixture(t, cat, fulfillableOrder())
	fixture.notifier.err = errors.New("smtp unreachable")

	if _, err := fixture.service.FulfillOrder(context.Background(), "order-1"); err != nil {
		t.Fatalf("FulfillOrder: %v", err)
	}
}

func TestFulfillOrderStatusUpdateFailureDoesNotAbort(t *testing.T) {
	t.Parallel()
	cat := newFakeCatalog(makeCard("a"), makeCard("b"))
	fixture := newServiceFixture(t, cat, fulfillableOrder())
	fixture.directory.updateErr = errors.New("db locked")

	outcome, err := fixture.service.FulfillOrder(context.Background(), "order-1")
	if err != nil {
		t.Fatalf("FulfillOrder: %v", err)
	}
	if outcome.Ledger.Status != ProcessedCompleted {
		t.Errorf("ledger status = %q, want completed", outcome.Ledger.Status)
	}
}

func TestProcessCard(t *testing.T) {
	t.Parallel()
	cat := newFakeCatalog(makeCard("a"))
	fixture := newServiceFixture(t, cat, fulfillableOrder())

	artifact, err := fixture.service.ProcessCard(context.Background(), "a")
	if err != nil {
		t.Fatalf("ProcessCard: %v", err)
	}
	if artifact.Card.ID != "a" || artifact.Path == "" {
		t.Errorf("artifact = %+v", artifact)
	}
}

func TestProcessCardRequiresID(t *testing.T) {
	t.Parallel()
	fixture := newServiceFixture(t, newFakeCatalog(), fulfillableOrder())
	if _, err := fixture.service.ProcessCard(context.Background(), ""); !errors.Is(err, ErrCardIDRequired) {
		t.Fatalf("err = %v, want ErrCardIDRequired", err)
	}
}

func TestProcessCardWithDecoys(t *testing.T) {
	t.Parallel()
	cat := newFakeCatalog(makeCard("a"), makeCard("b"), makeCard("c"))
	fixture := newServiceFixture(t, cat, fulfillableOrder())

	result, err := fixture.service.ProcessCardWithDecoys(context.Background(), "a")
	if err != nil {
		t.Fatalf("ProcessCardWithDecoys: %v", err)
	}
	if result.Card.ID != "a" || len(result.Decoys) != 2 {
		t.Errorf("result = %+v", result)
	}
}
