package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bridgeScope/internal/config"
	"bridgeScope/internal/metrics"
)

// runWatch loops the sync sequence on a fixed interval. Passes never overlap:
// the timer only starts counting once the previous pass has finished.
func runWatch(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	watchCfg, err := config.LoadWatch(cfgFile, cmd.Flags())
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

	d, cleanup, err := newDeps(ctx, cfg, metrics.Init(), logger)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := metrics.Serve(watchCfg.ListenAddr)
	defer func() {
		if err := metrics.Shutdown(context.Background(), srv); err != nil {
			logger.Warn("metrics server shutdown", zap.Error(err))
		}
	}()

	logger.Info("watch start",
		zap.Duration("interval", watchCfg.Interval),
		zap.String("listen_addr", watchCfg.ListenAddr),
		zap.String("base_url", cfg.BaseURL),
		zap.String("data_dir", cfg.DataDir),
	)

	for {
		started := time.Now()
		if err := syncOnce(ctx, d); err != nil {
			if ctx.Err() != nil {
				logger.Info("watch stopped")
				return nil
			}
			logger.Error("sync pass failed", zap.Error(err))
		} else {
			logger.Info("sync pass complete", zap.Duration("elapsed", time.Since(started)))
		}

		timer := time.NewTimer(watchCfg.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info("watch stopped")
			return nil
		case <-timer.C:
		}
	}
}
