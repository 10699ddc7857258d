package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"

	"bridgeScope/internal/chain"
	"bridgeScope/internal/config"
	"bridgeScope/internal/ingest"
)

func runPowPeg(cmd *cobra.Command, _ []string) error {
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

	runner, closeChain, err := newPowPegRunner(ctx, d)
	if err != nil {
		return err
	}
	defer closeChain()

	logger.Info("powpeg start",
		zap.String("rpc_url", cfg.RPCURL),
		zap.String("bridge_address", cfg.BridgeAddress),
		zap.Int64("min_block", cfg.PowPegMinBlock),
		zap.Int64("chunk_size", cfg.ChunkSize),
		zap.Bool("full", cfg.Full),
		zap.String("data_dir", cfg.DataDir),
	)

	return runner.Run(ctx)
}

func newPowPegRunner(ctx context.Context, d *deps) (*ingest.PowPegRunner, func(), error) {
	limiter := ratelimit.NewUnlimited()
	if d.cfg.RPS > 0 {
		limiter = ratelimit.New(d.cfg.RPS)
	}
	chainClient, err := chain.NewClient(ctx, d.cfg.RPCURL, limiter)
	if err != nil {
		return nil, nil, fmt.Errorf("connect rpc: %w", err)
	}

	cursor := ingest.NewFileCursorStore(d.store.Path(ingest.PowPegCursorFile))
	runner := ingest.NewPowPegRunner(ingest.PowPegConfig{
		Address:     d.cfg.BridgeAddress,
		MinBlock:    d.cfg.PowPegMinBlock,
		ReorgBuffer: d.cfg.ReorgBuffer,
		ChunkSize:   d.cfg.ChunkSize,
		Full:        d.cfg.Full,
		MaxRetries:  d.cfg.MaxRetries,
		RetryDelay:  d.cfg.RetryDelay,
	}, chainClient, d.explorer, d.store, cursor, d.mirror, d.metrics, d.logger)
	return runner, chainClient.Close, nil
}
