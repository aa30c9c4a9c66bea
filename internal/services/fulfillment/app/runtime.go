// Package app wires the fulfillment service runtime: storage, domain
// services, outbound collaborators, and the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/kyoso-cards/fulfillment/internal/platform/timeouts"
	catalogdomain "github.com/kyoso-cards/fulfillment/internal/services/catalog/domain"
	catalogsqlite "github.com/kyoso-cards/fulfillment/internal/services/catalog/storage/sqlite"
	api "github.com/kyoso-cards/fulfillment/internal/services/fulfillment/api/http"
	"github.com/kyoso-cards/fulfillment/internal/services/fulfillment/archive"
	"github.com/kyoso-cards/fulfillment/internal/services/fulfillment/domain"
	"github.com/kyoso-cards/fulfillment/internal/services/fulfillment/notify"
	fulfillmentsqlite "github.com/kyoso-cards/fulfillment/internal/services/fulfillment/storage/sqlite"
	"github.com/kyoso-cards/fulfillment/internal/services/fulfillment/upload"
	ordersdomain "github.com/kyoso-cards/fulfillment/internal/services/orders/domain"
	orderssqlite "github.com/kyoso-cards/fulfillment/internal/services/orders/storage/sqlite"
	"go.uber.org/zap"
)

// Config holds the fulfillment service runtime configuration. Values load
// from KYOSO_FULFILLMENT_* environment variables with flag overrides applied
// by the command layer.
type Config struct {
	HTTPAddr  string `env:"KYOSO_FULFILLMENT_HTTP_ADDR" envDefault:":8080"`
	DataDir   string `env:"KYOSO_FULFILLMENT_DATA_DIR" envDefault:"data"`
	OutputDir string `env:"KYOSO_FULFILLMENT_OUTPUT_DIR" envDefault:"output"`

	DecoyCount int `env:"KYOSO_FULFILLMENT_DECOY_COUNT" envDefault:"19"`

	DriveCredentialsPath string `env:"KYOSO_FULFILLMENT_DRIVE_CREDENTIALS"`
	DriveFolderID        string `env:"KYOSO_FULFILLMENT_DRIVE_FOLDER_ID"`

	SMTPHost     string `env:"KYOSO_FULFILLMENT_SMTP_HOST"`
	SMTPPort     int    `env:"KYOSO_FULFILLMENT_SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"KYOSO_FULFILLMENT_SMTP_USERNAME"`
	SMTPPassword string `env:"KYOSO_FULFILLMENT_SMTP_PASSWORD"`
	EmailFrom    string `env:"KYOSO_FULFILLMENT_EMAIL_FROM"`
	AdminEmail   string `env:"KYOSO_FULFILLMENT_ADMIN_EMAIL"`

	KafkaBrokers []string `env:"KYOSO_FULFILLMENT_KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KYOSO_FULFILLMENT_KAFKA_TOPIC" envDefault:"fulfillment.orders"`
}

// Runtime is the assembled fulfillment service.
type Runtime struct {
	Catalog     *catalogdomain.Service
	Orders      *ordersdomain.Service
	Fulfillment *domain.Service

	httpAddr string
	handler  http.Handler
	logger   *zap.Logger
	closers  []func() error
}

// NewRuntime opens storage and wires every collaborator from config.
func NewRuntime(ctx context.Context, cfg Config, logger *zap.Logger) (*Runtime, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	runtime := &Runtime{httpAddr: cfg.HTTPAddr, logger: logger}

	cardStore, err := catalogsqlite.Open(filepath.Join(cfg.DataDir, "catalog.db"))
	if err != nil {
		return nil, fmt.Errorf("open catalog store: %w", err)
	}
	runtime.closers = append(runtime.closers, cardStore.Close)

	orderStore, err := orderssqlite.Open(filepath.Join(cfg.DataDir, "orders.db"))
	if err != nil {
		_ = runtime.Close()
		return nil, fmt.Errorf("open orders store: %w", err)
	}
	runtime.closers = append(runtime.closers, orderStore.Close)

	ledgerStore, err := fulfillmentsqlite.Open(filepath.Join(cfg.DataDir, "fulfillment.db"))
	if err != nil {
		_ = runtime.Close()
		return nil, fmt.Errorf("open fulfillment ledger: %w", err)
	}
	runtime.closers = append(runtime.closers, ledgerStore.Close)

	runtime.Catalog = catalogdomain.NewService(cardStore)
	runtime.Orders = ordersdomain.NewService(orderStore)

	cards := domain.NewCardFileWriter(filepath.Join(cfg.OutputDir, "cards"))
	sheets := domain.NewSheetBuilder(filepath.Join(cfg.OutputDir, "print-sheets"))
	labels := domain.NewLabelGenerator(filepath.Join(cfg.OutputDir, "shipping-labels"))
	sampler := domain.NewSampler(runtime.Catalog, cfg.DecoyCount)
	copies := domain.NewCopyProcessor(runtime.Catalog, sampler, cards, sheets)
	pipeline := domain.NewPipeline(copies, logger)

	uploader, err := newUploader(ctx, cfg, logger)
	if err != nil {
		_ = runtime.Close()
		return nil, err
	}
	archiver := archive.NewBuilder(filepath.Join(cfg.OutputDir, "staging"))
	packager := domain.NewPackager(archiver, uploader, ledgerStore)

	notifiers, err := runtime.buildNotifiers(cfg)
	if err != nil {
		_ = runtime.Close()
		return nil, err
	}

	runtime.Fulfillment = domain.NewService(
		runtime.Orders,
		runtime.Catalog,
		cards,
		copies,
		pipeline,
		labels,
		packager,
		notifiers,
		logger,
	)

	runtime.handler = api.NewHandler(runtime.Orders, runtime.Fulfillment, logger).Routes()
	return runtime, nil
}

func newUploader(ctx context.Context, cfg Config, logger *zap.Logger) (domain.Uploader, error) {
	if strings.TrimSpace(cfg.DriveCredentialsPath) != "" {
		uploader, err := upload.NewDriveUploader(ctx, cfg.DriveCredentialsPath, cfg.DriveFolderID)
		if err != nil {
			return nil, fmt.Errorf("build drive uploader: %w", err)
		}
		return uploader, nil
	}
	logger.Info("drive credentials not configured, storing archives locally")
	return upload.NewLocalUploader(filepath.Join(cfg.OutputDir, "archives")), nil
}

func (r *Runtime) buildNotifiers(cfg Config) ([]domain.Notifier, error) {
	var notifiers []domain.Notifier
	if strings.TrimSpace(cfg.SMTPHost) != "" {
		email, err := notify.NewEmailNotifier(notify.EmailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.EmailFrom,
			To:       cfg.AdminEmail,
		})
		if err != nil {
			return nil, fmt.Errorf("build email notifier: %w", err)
		}
		notifiers = append(notifiers, email)
	}
	if len(cfg.KafkaBrokers) > 0 {
		events, err := notify.NewEventNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, fmt.Errorf("build event notifier: %w", err)
		}
		r.closers = append(r.closers, events.Close)
		notifiers = append(notifiers, events)
	}
	return notifiers, nil
}

// ServeHTTP runs the API server until ctx is canceled, then drains it.
func (r *Runtime) ServeHTTP(ctx context.Context) error {
	server := &http.Server{
		Addr:              r.httpAddr,
		Handler:           r.handler,
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("http server listening", zap.String("addr", r.httpAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

// Handler exposes the wired API handler, mostly for tests.
func (r *Runtime) Handler() http.Handler {
	return r.handler
}

// Close releases storage and outbound connections in reverse open order.
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
