package ingest

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"bridgeScope/internal/bridge"
	"bridgeScope/internal/explorer"
	"bridgeScope/internal/metrics"
	"bridgeScope/internal/model"
	"bridgeScope/internal/storage"
)

// SourceLocked labels the locked-stats collector in metrics.
const SourceLocked = "locked"

// LockedStatsFile is the locked-stats snapshot dataset.
const LockedStatsFile = "btc_locked_stats.json"

const topContractsLimit = 20

// StatsSource is the explorer slice the locked-stats collector needs.
type StatsSource interface {
	LockedBTCWei(ctx context.Context) (string, error)
	Addresses(ctx context.Context, params url.Values) (explorer.AddressPage, error)
}

// LockedConfig holds runtime settings for the locked-stats collector.
type LockedConfig struct {
	MaxPages   int
	MinBalance float64
}

// LockedRunner snapshots how much bridged RBTC sits in contracts. The address
// listing is ordered by balance descending, so the walk stops once balances
// fall below the threshold.
type LockedRunner struct {
	cfg     LockedConfig
	source  StatsSource
	store   *storage.Store
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewLockedRunner builds a LockedRunner with its dependencies. Metrics may be
// nil.
func NewLockedRunner(cfg LockedConfig, source StatsSource, store *storage.Store, m *metrics.Metrics, logger *zap.Logger) *LockedRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 100
	}
	return &LockedRunner{
		cfg:     cfg,
		source:  source,
		store:   store,
		metrics: m,
		logger:  logger,
	}
}

// Run executes one locked-stats collection pass.
func (r *LockedRunner) Run(ctx context.Context) error {
	if r.source == nil {
		return fmt.Errorf("stats source is nil")
	}
	if r.store == nil {
		return fmt.Errorf("store is nil")
	}

	raw, err := r.source.LockedBTCWei(ctx)
	if err != nil {
		return fmt.Errorf("fetch chain stats: %w", err)
	}
	if raw == "" {
		r.logger.Warn("rootstock_locked_btc missing from stats response, skipping snapshot")
		return nil
	}
	totalBridged := bridge.RBTCFromWeiString(raw)
	r.logger.Info("total bridged", zap.Float64("rbtc", totalBridged))

	seen := map[string]bool{}
	contracts := map[string]model.ContractBalance{}
	pagesFetched := 0
	var params url.Values

	for page := 1; page <= r.cfg.MaxPages; page++ {
		pageData, err := r.source.Addresses(ctx, params)
		if err != nil {
			return fmt.Errorf("fetch addresses page %d: %w", page, err)
		}
		if len(pageData.Items) == 0 {
			r.logger.Info("no more addresses")
			break
		}

		minOnPage := math.Inf(1)
		for _, addr := range pageData.Items {
			hash := strings.ToLower(addr.Hash)
			if seen[hash] {
				continue
			}
			seen[hash] = true

			balance := bridge.RBTCFromWeiString(addr.CoinBalance)
			if balance < minOnPage {
				minOnPage = balance
			}
			if !addr.IsContract {
				continue
			}
			name := addr.Name
			if name == "" {
				name = addr.ENSDomainName
			}
			contracts[hash] = model.ContractBalance{
				Hash:        addr.Hash,
				BalanceRBTC: roundTo(balance, 6),
				Name:        name,
			}
		}
		pagesFetched = page

		if minOnPage < r.cfg.MinBalance {
			r.logger.Info("balance threshold reached",
				zap.Int("page", page),
				zap.Float64("threshold", r.cfg.MinBalance))
			break
		}
		if len(pageData.NextPageParams) == 0 {
			r.logger.Info("no more pages")
			break
		}
		params = explorer.PageParams(pageData.NextPageParams)
	}

	var locked float64
	top := make([]model.ContractBalance, 0, len(contracts))
	for _, c := range contracts {
		locked += c.BalanceRBTC
		top = append(top, c)
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].BalanceRBTC != top[j].BalanceRBTC {
			return top[i].BalanceRBTC > top[j].BalanceRBTC
		}
		return top[i].Hash < top[j].Hash
	})
	if len(top) > topContractsLimit {
		top = top[:topContractsLimit]
	}

	pct := 0.0
	if totalBridged > 0 {
		pct = locked / totalBridged * 100
	}
	snapshot := model.LockedStats{
		TotalBridgedRBTC:      roundTo(totalBridged, 4),
		LockedInContractsRBTC: roundTo(locked, 4),
		PctLocked:             roundTo(pct, 2),
		ContractCount:         len(contracts),
		TopContracts:          top,
		PagesFetched:          pagesFetched,
		FetchedAt:             time.Now().UTC().Format(time.RFC3339),
	}
	if err := r.store.WriteJSON(LockedStatsFile, snapshot); err != nil {
		return fmt.Errorf("write locked stats: %w", err)
	}

	r.metrics.DatasetSize(SourceLocked, "contracts", len(contracts))
	r.logger.Info("locked summary",
		zap.Float64("total_bridged_rbtc", snapshot.TotalBridgedRBTC),
		zap.Float64("locked_in_contracts_rbtc", snapshot.LockedInContractsRBTC),
		zap.Float64("pct_locked", snapshot.PctLocked),
		zap.Int("contract_count", snapshot.ContractCount),
		zap.Int("pages_fetched", snapshot.PagesFetched))
	return nil
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}
