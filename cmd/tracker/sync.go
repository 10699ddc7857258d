package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bridgeScope/internal/config"
	"bridgeScope/internal/ingest"
)

func runSync(cmd *cobra.Command, _ []string) error {
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

	logger.Info("sync start",
		zap.String("base_url", cfg.BaseURL),
		zap.String("data_dir", cfg.DataDir),
		zap.Bool("full", cfg.Full),
	)

	return syncOnce(ctx, d)
}

// syncOnce runs every collector once, in order: flyover first so the routes
// pass can read a fresh LP snapshot. A failing collector does not stop the
// later ones; the pass reports failure if any collector failed.
func syncOnce(ctx context.Context, d *deps) error {
	collectors := []struct {
		source string
		run    func(context.Context) error
	}{
		{ingest.SourceFlyover, newFlyoverRunner(d).Run},
		{ingest.SourcePowPeg, func(ctx context.Context) error {
			runner, closeChain, err := newPowPegRunner(ctx, d)
			if err != nil {
				return err
			}
			defer closeChain()
			return runner.Run(ctx)
		}},
		{ingest.SourceLocked, newLockedRunner(d).Run},
		{ingest.SourceRoutes, newRoutesRunner(d).Run},
	}

	var failed []string
	for _, c := range collectors {
		if err := ctx.Err(); err != nil {
			return err
		}
		started := time.Now()
		err := c.run(ctx)
		d.metrics.RunCompleted(c.source, err, time.Since(started).Seconds())
		if err != nil {
			d.logger.Error("collector failed",
				zap.String("source", c.source),
				zap.Error(err))
			failed = append(failed, c.source)
			continue
		}
		d.logger.Info("collector finished",
			zap.String("source", c.source),
			zap.Duration("elapsed", time.Since(started)))
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d collectors failed: %s", len(failed), len(collectors), strings.Join(failed, ", "))
	}
	return nil
}
