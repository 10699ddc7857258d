package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"bridgeScope/internal/bridge"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	BaseURL         string
	RPCURL          string
	DataDir         string
	RPS             int
	HTTPTimeout     time.Duration
	MaxRetries      int
	RetryDelay      time.Duration
	ReorgBuffer     int64
	LBCAddress      string
	BridgeAddress   string
	FlyoverMinBlock int64
	PowPegMinBlock  int64
	ChunkSize       int64
	Full            bool
	LPName          string
	LPRBTCWallet    string
	LPBTCWallet     string
	LPStatusURL     string
	SwapAPIBase     string
	MaxPages        int
	MinBalance      float64
	PGDSN           string
	LogLevel        string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("base-url", "https://rootstock.blockscout.com/api/v2")
	v.SetDefault("rpc-url", "https://public-node.rsk.co")
	v.SetDefault("data-dir", "./data")
	v.SetDefault("rps", 3)
	v.SetDefault("http-timeout", 30*time.Second)
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-delay", 2*time.Second)
	v.SetDefault("reorg-buffer", int64(10))
	v.SetDefault("lbc-address", bridge.LBCAddress)
	v.SetDefault("bridge-address", bridge.BridgeAddress)
	v.SetDefault("flyover-min-block", int64(7_430_000))
	v.SetDefault("powpeg-min-block", int64(7_230_000))
	v.SetDefault("chunk-size", int64(200_000))
	v.SetDefault("lp-name", "TeksCapital")
	v.SetDefault("lp-rbtc-wallet", "0x82A06eBdb97776a2DA4041DF8F2b2Ea8d3257852")
	v.SetDefault("lp-btc-wallet", "1D2xucTYkxCHvaaZuaKVJTfZQWr4PUjzAy")
	v.SetDefault("lp-status-url", "https://lps.tekscapital.com/providers/liquidity")
	v.SetDefault("swap-api-base", "https://rskswap.mainnet.flyover.rif.technology/api")
	v.SetDefault("max-pages", 100)
	v.SetDefault("min-balance", 0.01)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		BaseURL:         v.GetString("base-url"),
		RPCURL:          v.GetString("rpc-url"),
		DataDir:         v.GetString("data-dir"),
		RPS:             v.GetInt("rps"),
		HTTPTimeout:     v.GetDuration("http-timeout"),
		MaxRetries:      v.GetInt("max-retries"),
		RetryDelay:      v.GetDuration("retry-delay"),
		ReorgBuffer:     v.GetInt64("reorg-buffer"),
		LBCAddress:      v.GetString("lbc-address"),
		BridgeAddress:   v.GetString("bridge-address"),
		FlyoverMinBlock: v.GetInt64("flyover-min-block"),
		PowPegMinBlock:  v.GetInt64("powpeg-min-block"),
		ChunkSize:       v.GetInt64("chunk-size"),
		Full:            v.GetBool("full"),
		LPName:          v.GetString("lp-name"),
		LPRBTCWallet:    v.GetString("lp-rbtc-wallet"),
		LPBTCWallet:     v.GetString("lp-btc-wallet"),
		LPStatusURL:     v.GetString("lp-status-url"),
		SwapAPIBase:     v.GetString("swap-api-base"),
		MaxPages:        v.GetInt("max-pages"),
		MinBalance:      v.GetFloat64("min-balance"),
		PGDSN:           v.GetString("pg-dsn"),
		LogLevel:        v.GetString("log-level"),
	}

	return cfg, nil
}
