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

func runFlyover(cmd *cobra.Command, _ []string) error {
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

	logger.Info("flyover start",
		zap.String("base_url", cfg.BaseURL),
		zap.String("lbc_address", cfg.LBCAddress),
		zap.Int64("min_block", cfg.FlyoverMinBlock),
		zap.Bool("full", cfg.Full),
		zap.String("data_dir", cfg.DataDir),
	)

	return newFlyoverRunner(d).Run(ctx)
}

func newFlyoverRunner(d *deps) *ingest.FlyoverRunner {
	cursor := ingest.NewFileCursorStore(d.store.Path(ingest.FlyoverCursorFile))
	return ingest.NewFlyoverRunner(ingest.FlyoverConfig{
		Address:      d.cfg.LBCAddress,
		MinBlock:     d.cfg.FlyoverMinBlock,
		ReorgBuffer:  d.cfg.ReorgBuffer,
		Full:         d.cfg.Full,
		LPName:       d.cfg.LPName,
		LPRBTCWallet: d.cfg.LPRBTCWallet,
		LPBTCWallet:  d.cfg.LPBTCWallet,
		LPStatusURL:  d.cfg.LPStatusURL,
	}, d.explorer, d.fetcher, d.store, cursor, d.mirror, d.metrics, d.logger)
}
