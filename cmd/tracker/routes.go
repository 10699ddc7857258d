package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bridgeScope/internal/config"
	"bridgeScope/internal/ingest"
)

func runRoutes(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, cleanup, err := newDeps(ctx, cfg, nil, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info("routes start",
		zap.String("swap_api_base", cfg.SwapAPIBase),
		zap.String("data_dir", cfg.DataDir),
	)

	return newRoutesRunner(d).Run(ctx)
}

func newRoutesRunner(d *deps) *ingest.RoutesRunner {
	return ingest.NewRoutesRunner(ingest.RoutesConfig{
		SwapAPIBase: d.cfg.SwapAPIBase,
	}, d.fetcher, d.store, d.metrics, d.logger)
}
