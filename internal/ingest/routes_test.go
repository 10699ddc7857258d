package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"bridgeScope/internal/model"
	"bridgeScope/internal/storage"
)

func TestRoutesRunBuildsProviderSnapshots(t *testing.T) {
	store := storage.NewStore(t.TempDir())
	getter := &routesGetter{
		providers: `[
			{
				"providerId": "ACME",
				"shortName": "Acme Swaps",
				"supportedPairs": [
					{"fromToken": "BTC", "toToken": "RBTC", "fromNetwork": "BTC", "toNetwork": 30},
					{"fromToken": "RBTC", "toToken": "BTC", "fromNetwork": "30", "toNetwork": "BTC"},
					{"fromToken": "USDT", "toToken": "RIF", "fromNetwork": "30", "toNetwork": "30"},
					{"fromToken": "tBTC", "toToken": "tRBTC", "fromNetwork": "tBTC", "toNetwork": "31"},
					{"fromToken": "ETH", "toToken": "USDC", "fromNetwork": "1", "toNetwork": "1"}
				]
			}
		]`,
		tokens: `[
			{"symbol": "RBTC", "description": "Smart Bitcoin", "type": "native"},
			{"symbol": "", "description": "ignored", "type": ""},
			{"symbol": "RIF", "description": "RIF Token", "type": "erc20"}
		]`,
		limits: `{"minAmount": 100000, "maxAmount": 500000000}`,
	}

	runner := NewRoutesRunner(RoutesConfig{SwapAPIBase: "https://swap.example/api"}, getter, store, nil, zap.NewNop())
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	health, ok := storage.ReadObject[model.RouteHealth](store, RouteHealthFile)
	if !ok {
		t.Fatalf("expected route health snapshot")
	}
	if health.SwapAPI.Status != "operational" {
		t.Fatalf("status mismatch: %s", health.SwapAPI.Status)
	}
	if health.SwapAPI.ResponseMS == nil {
		t.Fatalf("expected response time to be recorded")
	}

	snap, ok := health.SwapProviders["acme"]
	if !ok {
		t.Fatalf("provider snapshot missing: %+v", health.SwapProviders)
	}
	if snap.Name != "Acme Swaps" || snap.ProviderID != "ACME" {
		t.Fatalf("provider identity mismatch: %+v", snap)
	}
	// The ETH/USDC pair has no RSK side and is dropped; the tBTC pair's
	// network 31 is testnet and is dropped too.
	if snap.PairCount != 3 || snap.InboundPairs != 1 || snap.OutboundPairs != 1 {
		t.Fatalf("pair counts mismatch: %+v", snap)
	}
	wantTokens := []string{"BTC", "RBTC", "RIF", "USDT"}
	if !reflect.DeepEqual(snap.Tokens, wantTokens) {
		t.Fatalf("tokens mismatch: %v != %v", snap.Tokens, wantTokens)
	}
	if snap.Pairs[0].From != "BTC (BTC)" || snap.Pairs[0].To != "RBTC (30)" {
		t.Fatalf("pair labels mismatch: %+v", snap.Pairs[0])
	}

	if health.LimitsBTCRBTC == nil || health.LimitsBTCRBTC.MinBTC != 0.001 || health.LimitsBTCRBTC.MaxBTC != 5.0 {
		t.Fatalf("limits mismatch: %+v", health.LimitsBTCRBTC)
	}
	if len(health.Tokens) != 2 {
		t.Fatalf("token list should drop unnamed entries: %+v", health.Tokens)
	}

	// First run: every current provider counts as newly added.
	if len(health.NewProviderChanges) != 1 || health.NewProviderChanges[0].Change != "added" {
		t.Fatalf("first-run changes mismatch: %+v", health.NewProviderChanges)
	}
	if len(health.History) != 1 {
		t.Fatalf("expected one history entry, got %d", len(health.History))
	}
	entry := health.History[0]
	if entry["swap_api"] != "up" || entry["acme"] != "up" {
		t.Fatalf("history entry mismatch: %+v", entry)
	}
	if health.NativeRoutes.PowPeg.ProviderID != "POWPEG" || !health.NativeRoutes.PowPeg.Enabled {
		t.Fatalf("powpeg route mismatch: %+v", health.NativeRoutes.PowPeg)
	}
}

func TestRoutesRunDegradesWhenSwapAPIDown(t *testing.T) {
	store := storage.NewStore(t.TempDir())
	getter := &routesGetter{failAll: true}

	runner := NewRoutesRunner(RoutesConfig{SwapAPIBase: "https://swap.example/api"}, getter, store, nil, zap.NewNop())
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("an unreachable swap api must not fail the run: %v", err)
	}

	health, ok := storage.ReadObject[model.RouteHealth](store, RouteHealthFile)
	if !ok {
		t.Fatalf("expected degraded snapshot")
	}
	if health.SwapAPI.Status != "down" || health.SwapAPI.ResponseMS != nil {
		t.Fatalf("degraded status mismatch: %+v", health.SwapAPI)
	}
	if len(health.SwapProviderIDs) != 0 || len(health.SwapProviders) != 0 {
		t.Fatalf("no providers expected: %+v", health.SwapProviderIDs)
	}
	if len(health.History) != 1 || health.History[0]["swap_api"] != "down" {
		t.Fatalf("history should record the outage: %+v", health.History)
	}
}

func TestRoutesRunDetectsProviderChanges(t *testing.T) {
	store := storage.NewStore(t.TempDir())
	recent := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
	previous := model.RouteHealth{
		SwapProviderIDs: []string{"ACME", "GONE"},
		ProviderChanges: []model.ProviderChange{
			{T: recent, Provider: "ACME", Change: "added"},
			{T: "2020-01-01T00:00:00Z", Provider: "ANCIENT", Change: "removed"},
		},
	}
	if err := store.WriteJSON(RouteHealthFile, previous); err != nil {
		t.Fatalf("seed: %v", err)
	}

	getter := &routesGetter{
		providers: `[{"providerId": "ACME"}, {"providerId": "FRESH"}]`,
		tokens:    `[]`,
		limits:    `{}`,
	}
	runner := NewRoutesRunner(RoutesConfig{SwapAPIBase: "https://swap.example/api"}, getter, store, nil, zap.NewNop())
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	health, _ := storage.ReadObject[model.RouteHealth](store, RouteHealthFile)
	if len(health.NewProviderChanges) != 2 {
		t.Fatalf("expected add+remove, got %+v", health.NewProviderChanges)
	}
	if health.NewProviderChanges[0].Provider != "FRESH" || health.NewProviderChanges[0].Change != "added" {
		t.Fatalf("added change mismatch: %+v", health.NewProviderChanges[0])
	}
	if health.NewProviderChanges[1].Provider != "GONE" || health.NewProviderChanges[1].Change != "removed" {
		t.Fatalf("removed change mismatch: %+v", health.NewProviderChanges[1])
	}

	// The 2020 entry fell outside the 30-day retention window.
	for _, c := range health.ProviderChanges {
		if c.Provider == "ANCIENT" {
			t.Fatalf("stale change entry not pruned: %+v", health.ProviderChanges)
		}
	}
	if len(health.ProviderChanges) != 3 {
		t.Fatalf("expected carried + new changes, got %+v", health.ProviderChanges)
	}
}

func TestRoutesRunHistoryTrimmedToCap(t *testing.T) {
	store := storage.NewStore(t.TempDir())
	now := time.Now().UTC()
	previous := model.RouteHealth{
		History: []model.HistoryEntry{
			{"t": now.Add(-8 * 24 * time.Hour).Format(time.RFC3339), "swap_api": "up"},
			{"t": now.Add(-3 * time.Hour).Format(time.RFC3339), "swap_api": "up"},
			{"t": now.Add(-2 * time.Hour).Format(time.RFC3339), "swap_api": "down"},
			{"t": now.Add(-1 * time.Hour).Format(time.RFC3339), "swap_api": "up"},
		},
	}
	if err := store.WriteJSON(RouteHealthFile, previous); err != nil {
		t.Fatalf("seed: %v", err)
	}

	getter := &routesGetter{providers: `[{"providerId": "ACME"}]`, tokens: `[]`, limits: `{}`}
	runner := NewRoutesRunner(RoutesConfig{SwapAPIBase: "https://swap.example/api", MaxHistory: 3}, getter, store, nil, zap.NewNop())
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	health, _ := storage.ReadObject[model.RouteHealth](store, RouteHealthFile)
	if len(health.History) != 3 {
		t.Fatalf("history not trimmed to cap: %d entries", len(health.History))
	}
	// Oldest in-window entries are dropped first; the new entry is last.
	if health.History[0]["swap_api"] != "down" {
		t.Fatalf("unexpected head of history: %+v", health.History[0])
	}
	if health.History[2]["acme"] != "up" {
		t.Fatalf("newest entry missing provider status: %+v", health.History[2])
	}
}

func TestRoutesRunFlyoverRouteFromLPSnapshot(t *testing.T) {
	store := storage.NewStore(t.TempDir())
	lp := model.LPLiquidity{LPName: "TeksCapital", PeginRBTC: 12.346, PegoutBTC: 3.4}
	if err := store.WriteJSON(FlyoverLPInfoFile, lp); err != nil {
		t.Fatalf("seed lp: %v", err)
	}

	getter := &routesGetter{providers: `[]`, tokens: `[]`, limits: `{}`}
	runner := NewRoutesRunner(RoutesConfig{SwapAPIBase: "https://swap.example/api"}, getter, store, nil, zap.NewNop())
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	health, _ := storage.ReadObject[model.RouteHealth](store, RouteHealthFile)
	fly := health.NativeRoutes.Flyover
	if fly.PeginAvailable == nil || !*fly.PeginAvailable {
		t.Fatalf("pegin availability mismatch: %+v", fly)
	}
	if fly.PeginLiquidityRBTC == nil || *fly.PeginLiquidityRBTC != 12.35 {
		t.Fatalf("pegin liquidity mismatch: %+v", fly.PeginLiquidityRBTC)
	}
	if fly.PegoutLiquidityBTC == nil || *fly.PegoutLiquidityBTC != 3.4 {
		t.Fatalf("pegout liquidity mismatch: %+v", fly.PegoutLiquidityBTC)
	}
}

func TestRoutesRunFlyoverRouteEmptyLPSnapshot(t *testing.T) {
	store := storage.NewStore(t.TempDir())
	// The Flyover collector writes {} when the LP status fetch fails.
	if err := store.WriteJSON(FlyoverLPInfoFile, struct{}{}); err != nil {
		t.Fatalf("seed lp: %v", err)
	}

	getter := &routesGetter{providers: `[]`, tokens: `[]`, limits: `{}`}
	runner := NewRoutesRunner(RoutesConfig{SwapAPIBase: "https://swap.example/api"}, getter, store, nil, zap.NewNop())
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	health, _ := storage.ReadObject[model.RouteHealth](store, RouteHealthFile)
	fly := health.NativeRoutes.Flyover
	if fly.PeginAvailable == nil || fly.PegoutAvailable == nil {
		t.Fatalf("availability defaults missing: %+v", fly)
	}
	if fly.PeginLiquidityRBTC != nil || fly.PegoutLiquidityBTC != nil {
		t.Fatalf("empty snapshot must not report liquidity: %+v", fly)
	}
}

// --- fakes ---

type routesGetter struct {
	providers string
	tokens    string
	limits    string
	failAll   bool
}

func (f *routesGetter) GetJSON(_ context.Context, rawURL string, _ url.Values, out any) error {
	if f.failAll {
		return errors.New("connection refused")
	}
	var body string
	switch {
	case strings.HasSuffix(rawURL, "/providers"):
		body = f.providers
	case strings.HasSuffix(rawURL, "/tokens"):
		body = f.tokens
	case strings.HasSuffix(rawURL, "/swaps/limits"):
		body = f.limits
	default:
		return fmt.Errorf("unexpected url %s", rawURL)
	}
	return json.Unmarshal([]byte(body), out)
}
