// Package processor implements the fulfillment service binary: it wires the
// runtime from configuration and serves the JSON API until shutdown.
package processor

import (
	"context"
	"flag"
	"fmt"

	"github.com/kyoso-cards/fulfillment/internal/platform/cmd"
	"github.com/kyoso-cards/fulfillment/internal/services/fulfillment/app"
	"go.uber.org/zap"
)

// Run starts the fulfillment service and blocks until ctx is canceled.
func Run(ctx context.Context, args []string) error {
	var cfg app.Config
	if err := cmd.ParseConfig(&cfg); err != nil {
		return err
	}

	fs := flag.NewFlagSet(cmd.ServiceProcessor, flag.ContinueOnError)
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "address for the JSON API listener")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory for sqlite databases")
	fs.StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "directory for generated artifacts")
	fs.IntVar(&cfg.DecoyCount, "decoy-count", cfg.DecoyCount, "decoy cards sampled per copy")
	if err := cmd.ParseArgs(fs, args); err != nil {
		return err
	}

	logger, err := cmd.NewLogger(cmd.ServiceProcessor)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	return cmd.RunWithTelemetry(ctx, cmd.ServiceProcessor, logger, func(ctx context.Context) error {
		runtime, err := app.NewRuntime(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("build runtime: %w", err)
		}
		defer func() {
			if err := runtime.Close(); err != nil {
				logger.Warn("close runtime", zap.Error(err))
			}
		}()
		return runtime.ServeHTTP(ctx)
	})
}
