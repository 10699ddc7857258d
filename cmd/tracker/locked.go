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

func runLocked(cmd *cobra.Command, _ []string) error {
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

	logger.Info("locked start",
		zap.String("base_url", cfg.BaseURL),
		zap.Int("max_pages", cfg.MaxPages),
		zap.Float64("min_balance", cfg.MinBalance),
		zap.String("data_dir", cfg.DataDir),
	)

	return newLockedRunner(d).Run(ctx)
}

func newLockedRunner(d *deps) *ingest.LockedRunner {
	return ingest.NewLockedRunner(ingest.LockedConfig{
		MaxPages:   d.cfg.MaxPages,
		MinBalance: d.cfg.MinBalance,
	}, d.explorer, d.store, d.metrics, d.logger)
}
