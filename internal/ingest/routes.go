package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"bridgeScope/internal/bridge"
	"bridgeScope/internal/metrics"
	"bridgeScope/internal/model"
	"bridgeScope/internal/storage"
)

// SourceRoutes labels the route-health collector in metrics.
const SourceRoutes = "routes"

// RouteHealthFile is the route-health snapshot dataset.
const RouteHealthFile = "route_health.json"

// rskChainID is the mainnet chain id as the swap API spells it.
const rskChainID = "30"

var testnetTokens = map[string]bool{
	"tRBTC": true,
	"tBTC":  true,
	"tRIF":  true,
	"tUSDT": true,
	"tUSDC": true,
}

// Swap API wire shapes. Network ids arrive as strings or numbers depending on
// the endpoint version, so they stay raw until stringified.
type swapProviderDTO struct {
	ProviderID     string        `json:"providerId"`
	ShortName      string        `json:"shortName"`
	SupportedPairs []swapPairDTO `json:"supportedPairs"`
}

type swapPairDTO struct {
	FromToken   string          `json:"fromToken"`
	ToToken     string          `json:"toToken"`
	FromNetwork json.RawMessage `json:"fromNetwork"`
	ToNetwork   json.RawMessage `json:"toNetwork"`
}

type swapTokenDTO struct {
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

type swapLimitsDTO struct {
	MinAmount *int64 `json:"minAmount"`
	MaxAmount *int64 `json:"maxAmount"`
}

// RoutesConfig holds runtime settings for the route-health collector.
type RoutesConfig struct {
	SwapAPIBase string
	MaxHistory  int
}

// RoutesRunner snapshots which paths between Bitcoin and Rootstock are
// currently usable: the swap aggregator's providers plus the native bridges.
// Swap API failures degrade the snapshot to "down" instead of failing the run.
type RoutesRunner struct {
	cfg     RoutesConfig
	getter  JSONGetter
	store   *storage.Store
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewRoutesRunner builds a RoutesRunner with its dependencies. Metrics may be
// nil.
func NewRoutesRunner(cfg RoutesConfig, getter JSONGetter, store *storage.Store, m *metrics.Metrics, logger *zap.Logger) *RoutesRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = 84
	}
	return &RoutesRunner{
		cfg:     cfg,
		getter:  getter,
		store:   store,
		metrics: m,
		logger:  logger,
	}
}

// Run executes one route-health collection pass.
func (r *RoutesRunner) Run(ctx context.Context) error {
	if r.getter == nil {
		return fmt.Errorf("json getter is nil")
	}
	if r.store == nil {
		return fmt.Errorf("store is nil")
	}

	existing, _ := storage.ReadObject[model.RouteHealth](r.store, RouteHealthFile)
	now := time.Now().UTC().Format(time.RFC3339)

	status := "down"
	var responseMS *int64
	var providersRaw []swapProviderDTO
	var tokensRaw []swapTokenDTO
	var limits *model.PairLimits

	started := time.Now()
	if err := r.getter.GetJSON(ctx, r.cfg.SwapAPIBase+"/providers", nil, &providersRaw); err != nil {
		r.logger.Error("swap api providers fetch failed", zap.Error(err))
	} else {
		ms := time.Since(started).Milliseconds()
		responseMS = &ms
		status = "operational"
		r.logger.Info("swap api providers",
			zap.Int("count", len(providersRaw)),
			zap.Int64("response_ms", ms))
	}

	if status == "operational" {
		if err := r.getter.GetJSON(ctx, r.cfg.SwapAPIBase+"/tokens", nil, &tokensRaw); err != nil {
			r.logger.Warn("swap api tokens fetch failed", zap.Error(err))
		} else {
			r.logger.Info("swap api tokens", zap.Int("count", len(tokensRaw)))
		}

		params := url.Values{}
		params.Set("from_token", "BTC")
		params.Set("to_token", "RBTC")
		params.Set("from_network", "BTC")
		params.Set("to_network", rskChainID)
		var lim swapLimitsDTO
		if err := r.getter.GetJSON(ctx, r.cfg.SwapAPIBase+"/swaps/limits", params, &lim); err != nil {
			r.logger.Warn("swap api limits fetch failed", zap.Error(err))
		} else {
			limits = pairLimits(lim)
			r.logger.Info("swap api limits",
				zap.Float64("min_btc", limits.MinBTC),
				zap.Float64("max_btc", limits.MaxBTC))
		}
	}

	swapProviders := map[string]model.ProviderSnapshot{}
	swapProviderIDs := []string{}
	for _, p := range providersRaw {
		pid := p.ProviderID
		if pid == "" {
			pid = "UNKNOWN"
		}
		swapProviderIDs = append(swapProviderIDs, pid)
		swapProviders[strings.ToLower(pid)] = buildProviderSnapshot(pid, p, limits)
	}

	newChanges := detectProviderChanges(existing.SwapProviderIDs, swapProviderIDs, now, r.logger)
	changes := append(existing.ProviderChanges, newChanges...)
	cutoff := time.Now().UTC().AddDate(0, 0, -30).Format(time.RFC3339)
	keptChanges := []model.ProviderChange{}
	for _, c := range changes {
		if c.T >= cutoff {
			keptChanges = append(keptChanges, c)
		}
	}

	tokens := []model.TokenInfo{}
	for _, t := range tokensRaw {
		if t.Symbol == "" {
			continue
		}
		tokens = append(tokens, model.TokenInfo{Symbol: t.Symbol, Description: t.Description, Type: t.Type})
	}

	health := model.RouteHealth{
		FetchedAt: now,
		SwapAPI: model.SwapAPIStatus{
			Status:     status,
			ResponseMS: responseMS,
			BaseURL:    r.cfg.SwapAPIBase,
		},
		NativeRoutes: model.NativeRoutes{
			PowPeg:  powpegRoute(),
			Flyover: r.flyoverRoute(),
		},
		SwapProviders:      swapProviders,
		SwapProviderIDs:    swapProviderIDs,
		Tokens:             tokens,
		LimitsBTCRBTC:      limits,
		ProviderChanges:    keptChanges,
		NewProviderChanges: newChanges,
		History:            appendHistory(existing.History, swapProviderIDs, now, r.cfg.MaxHistory),
	}
	if err := r.store.WriteJSON(RouteHealthFile, health); err != nil {
		return fmt.Errorf("write route health: %w", err)
	}

	r.metrics.DatasetSize(SourceRoutes, "providers", len(swapProviderIDs))
	r.logger.Info("route health summary",
		zap.String("swap_api", status),
		zap.Strings("providers", swapProviderIDs),
		zap.Int("tokens", len(tokensRaw)),
		zap.Int("new_changes", len(newChanges)))
	return nil
}

func pairLimits(lim swapLimitsDTO) *model.PairLimits {
	out := &model.PairLimits{MinSats: lim.MinAmount, MaxSats: lim.MaxAmount}
	if lim.MinAmount != nil {
		out.MinBTC = bridge.BTCFromSatoshis(*lim.MinAmount)
	}
	if lim.MaxAmount != nil {
		out.MaxBTC = bridge.BTCFromSatoshis(*lim.MaxAmount)
	}
	return out
}

func buildProviderSnapshot(pid string, dto swapProviderDTO, limits *model.PairLimits) model.ProviderSnapshot {
	pairs := mainnetPairs(dto.SupportedPairs)
	inbound, outbound := 0, 0
	for _, pr := range pairs {
		if pr.ToToken == "RBTC" || pr.ToToken == "tRBTC" {
			inbound++
		}
		if pr.FromToken == "RBTC" || pr.FromToken == "tRBTC" {
			outbound++
		}
	}
	name := dto.ShortName
	if name == "" {
		name = pid
	}
	return model.ProviderSnapshot{
		Name:          name,
		ProviderID:    pid,
		Enabled:       true,
		PairCount:     len(pairs),
		InboundPairs:  inbound,
		OutboundPairs: outbound,
		Tokens:        mainnetTokens(pairs),
		Pairs:         pairs,
		Limits:        limits,
	}
}

// mainnetPairs keeps pairs with at least one RSK mainnet side.
func mainnetPairs(pairs []swapPairDTO) []model.RoutePair {
	out := []model.RoutePair{}
	for _, p := range pairs {
		fromNet := netString(p.FromNetwork)
		toNet := netString(p.ToNetwork)
		if fromNet != rskChainID && toNet != rskChainID {
			continue
		}
		fromTok := p.FromToken
		if fromTok == "" {
			fromTok = "?"
		}
		toTok := p.ToToken
		if toTok == "" {
			toTok = "?"
		}
		out = append(out, model.RoutePair{
			From:      fmt.Sprintf("%s (%s)", fromTok, fromNet),
			To:        fmt.Sprintf("%s (%s)", toTok, toNet),
			FromToken: p.FromToken,
			ToToken:   p.ToToken,
		})
	}
	return out
}

func mainnetTokens(pairs []model.RoutePair) []string {
	set := map[string]bool{}
	for _, p := range pairs {
		set[p.FromToken] = true
		set[p.ToToken] = true
	}
	out := []string{}
	for t := range set {
		if t == "" || testnetTokens[t] {
			continue
		}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func netString(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	s = strings.Trim(s, `"`)
	if s == "null" {
		return ""
	}
	return s
}

func detectProviderChanges(prev, curr []string, now string, logger *zap.Logger) []model.ProviderChange {
	prevSet := map[string]bool{}
	for _, id := range prev {
		prevSet[id] = true
	}
	currSet := map[string]bool{}
	for _, id := range curr {
		currSet[id] = true
	}

	changes := []model.ProviderChange{}
	handled := map[string]bool{}
	for _, id := range curr {
		if prevSet[id] || handled[id] {
			continue
		}
		handled[id] = true
		changes = append(changes, model.ProviderChange{T: now, Provider: id, Change: "added"})
		logger.Info("provider added", zap.String("provider", id))
	}
	for _, id := range prev {
		if currSet[id] || handled[id] {
			continue
		}
		handled[id] = true
		changes = append(changes, model.ProviderChange{T: now, Provider: id, Change: "removed"})
		logger.Warn("provider removed", zap.String("provider", id))
	}
	return changes
}

func powpegRoute() model.NativeRoute {
	return model.NativeRoute{
		Name:           "PowPeg",
		ProviderID:     "POWPEG",
		Enabled:        true,
		Type:           "native",
		PairCount:      2,
		InboundPairs:   1,
		OutboundPairs:  1,
		Tokens:         []string{"BTC", "RBTC"},
		EstimatedSpeed: "~16 hours",
		Fee:            "Network fee only",
	}
}

// flyoverRoute composes the Flyover route status from the LP snapshot written
// by the Flyover collector. A missing or empty snapshot leaves the defaults.
func (r *RoutesRunner) flyoverRoute() model.NativeRoute {
	route := model.NativeRoute{
		Name:           "Flyover",
		ProviderID:     "FLYOVER",
		Enabled:        true,
		Type:           "lp_bridge",
		PairCount:      2,
		InboundPairs:   1,
		OutboundPairs:  1,
		Tokens:         []string{"BTC", "RBTC"},
		EstimatedSpeed: "20-60 min",
		Fee:            "~0.15%",
	}

	lp, ok := storage.ReadObject[model.LPLiquidity](r.store, FlyoverLPInfoFile)
	if !ok {
		r.logger.Warn("lp snapshot not available, using defaults")
		return route
	}
	peginAvailable := true
	pegoutAvailable := true
	route.PeginAvailable = &peginAvailable
	route.PegoutAvailable = &pegoutAvailable
	if lp.LPName == "" {
		return route
	}
	peginLiquidity := roundTo(lp.PeginRBTC, 2)
	pegoutLiquidity := roundTo(lp.PegoutBTC, 2)
	route.PeginLiquidityRBTC = &peginLiquidity
	route.PegoutLiquidityBTC = &pegoutLiquidity
	return route
}

func appendHistory(prev []model.HistoryEntry, providerIDs []string, now string, maxEntries int) []model.HistoryEntry {
	entry := model.HistoryEntry{"t": now}
	if len(providerIDs) > 0 {
		entry["swap_api"] = "up"
	} else {
		entry["swap_api"] = "down"
	}
	for _, id := range providerIDs {
		entry[strings.ToLower(id)] = "up"
	}

	history := append(prev, entry)
	cutoff := time.Now().UTC().AddDate(0, 0, -7).Format(time.RFC3339)
	kept := make([]model.HistoryEntry, 0, len(history))
	for _, h := range history {
		if h["t"] >= cutoff {
			kept = append(kept, h)
		}
	}
	if len(kept) > maxEntries {
		kept = kept[len(kept)-maxEntries:]
	}
	return kept
}
