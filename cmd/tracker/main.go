package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"bridgeScope/internal/bridge"
	"bridgeScope/internal/config"
	"bridgeScope/internal/explorer"
	"bridgeScope/internal/fetch"
	"bridgeScope/internal/metrics"
	"bridgeScope/internal/storage"
	"bridgeScope/internal/storage/postgres"
)

func main() {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintln(os.Stderr, "load .env:", err)
			os.Exit(1)
		}
	}

	root := &cobra.Command{
		Use:          "tracker",
		Short:        "Rootstock bridge activity tracker",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	flyoverCmd := &cobra.Command{
		Use:   "flyover",
		Short: "Collect Flyover bridge events from the Liquidity Bridge Contract",
		RunE:  runFlyover,
	}
	addCommonFlags(flyoverCmd.Flags())
	addCursorFlags(flyoverCmd.Flags())
	addFlyoverFlags(flyoverCmd.Flags())
	root.AddCommand(flyoverCmd)

	powpegCmd := &cobra.Command{
		Use:   "powpeg",
		Short: "Collect native PowPeg bridge activity",
		RunE:  runPowPeg,
	}
	addCommonFlags(powpegCmd.Flags())
	addCursorFlags(powpegCmd.Flags())
	addPowPegFlags(powpegCmd.Flags())
	root.AddCommand(powpegCmd)

	lockedCmd := &cobra.Command{
		Use:   "locked",
		Short: "Snapshot BTC locked in Rootstock contracts",
		RunE:  runLocked,
	}
	addCommonFlags(lockedCmd.Flags())
	addLockedFlags(lockedCmd.Flags())
	root.AddCommand(lockedCmd)

	routesCmd := &cobra.Command{
		Use:   "routes",
		Short: "Snapshot BTC to RBTC route health",
		RunE:  runRoutes,
	}
	addCommonFlags(routesCmd.Flags())
	addRoutesFlags(routesCmd.Flags())
	root.AddCommand(routesCmd)

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Run every collector once: flyover, powpeg, locked, routes",
		RunE:  runSync,
	}
	addAllCollectorFlags(syncCmd.Flags())
	root.AddCommand(syncCmd)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Run sync on an interval and serve metrics",
		RunE:  runWatch,
	}
	addAllCollectorFlags(watchCmd.Flags())
	watchCmd.Flags().Duration("interval", 2*time.Hour, "delay between sync passes")
	watchCmd.Flags().String("listen-addr", ":9090", "metrics and health listen address")
	root.AddCommand(watchCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addCommonFlags(flags *pflag.FlagSet) {
	flags.String("base-url", "https://rootstock.blockscout.com/api/v2", "Blockscout API base URL")
	flags.Int("rps", 3, "max API requests per second")
	flags.Duration("http-timeout", 30*time.Second, "HTTP request timeout")
	flags.Int("max-retries", 3, "maximum attempts for transient failures")
	flags.String("data-dir", "./data", "dataset output directory")
	flags.String("pg-dsn", "", "optional Postgres DSN for the dataset mirror")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
}

func addCursorFlags(flags *pflag.FlagSet) {
	flags.Int64("reorg-buffer", 10, "blocks re-fetched before the cursor")
	flags.Bool("full", false, "ignore the cursor and backfill from the minimum block")
}

func addFlyoverFlags(flags *pflag.FlagSet) {
	flags.String("lbc-address", bridge.LBCAddress, "Liquidity Bridge Contract address")
	flags.Int64("flyover-min-block", 7_430_000, "earliest block for Flyover history")
	flags.String("lp-name", "TeksCapital", "liquidity provider name")
	flags.String("lp-rbtc-wallet", "0x82A06eBdb97776a2DA4041DF8F2b2Ea8d3257852", "liquidity provider RBTC wallet")
	flags.String("lp-btc-wallet", "1D2xucTYkxCHvaaZuaKVJTfZQWr4PUjzAy", "liquidity provider BTC wallet")
	flags.String("lp-status-url", "https://lps.tekscapital.com/providers/liquidity", "liquidity provider status endpoint")
}

func addPowPegFlags(flags *pflag.FlagSet) {
	flags.String("rpc-url", "https://public-node.rsk.co", "Rootstock JSON-RPC URL")
	flags.String("bridge-address", bridge.BridgeAddress, "native bridge precompile address")
	flags.Int64("powpeg-min-block", 7_230_000, "earliest block for PowPeg history")
	flags.Int64("chunk-size", 200_000, "blocks per eth_getLogs query")
	flags.Duration("retry-delay", 2*time.Second, "base delay between RPC retries")
}

func addLockedFlags(flags *pflag.FlagSet) {
	flags.Int("max-pages", 100, "max address pages to walk")
	flags.Float64("min-balance", 0.01, "stop paging below this RBTC balance")
}

func addRoutesFlags(flags *pflag.FlagSet) {
	flags.String("swap-api-base", "https://rskswap.mainnet.flyover.rif.technology/api", "RSK Swap API base URL")
}

func addAllCollectorFlags(flags *pflag.FlagSet) {
	addCommonFlags(flags)
	addCursorFlags(flags)
	addFlyoverFlags(flags)
	addPowPegFlags(flags)
	addLockedFlags(flags)
	addRoutesFlags(flags)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

// deps bundles the clients shared by every collector. One fetch client means
// one rate limiter, so the explorer sees a steady request rate even when sync
// runs several collectors back to back.
type deps struct {
	cfg      config.Config
	fetcher  *fetch.Client
	explorer *explorer.Client
	store    *storage.Store
	mirror   *postgres.Store
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func newDeps(ctx context.Context, cfg config.Config, m *metrics.Metrics, logger *zap.Logger) (*deps, func(), error) {
	fetcher := fetch.NewClient(cfg.HTTPTimeout, cfg.RPS, cfg.MaxRetries, logger)

	cleanup := func() {}
	var mirror *postgres.Store
	if cfg.PGDSN != "" {
		var err error
		mirror, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := mirror.EnsureSchema(ctx); err != nil {
			mirror.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		cleanup = mirror.Close
		logger.Info("postgres mirror enabled", zap.String("pg_dsn", redactDSN(cfg.PGDSN)))
	}

	return &deps{
		cfg:      cfg,
		fetcher:  fetcher,
		explorer: explorer.NewClient(cfg.BaseURL, fetcher, logger),
		store:    storage.NewStore(cfg.DataDir),
		mirror:   mirror,
		metrics:  m,
		logger:   logger,
	}, cleanup, nil
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
