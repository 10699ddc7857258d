package model

// RouteHealth is the full snapshot of every known path between Bitcoin and
// Rootstock: the native routes plus whatever the swap aggregator advertises.
type RouteHealth struct {
	FetchedAt          string                      `json:"fetched_at"`
	SwapAPI            SwapAPIStatus               `json:"swap_api"`
	NativeRoutes       NativeRoutes                `json:"native_routes"`
	SwapProviders      map[string]ProviderSnapshot `json:"swap_providers"`
	SwapProviderIDs    []string                    `json:"swap_provider_ids"`
	Tokens             []TokenInfo                 `json:"tokens"`
	LimitsBTCRBTC      *PairLimits                 `json:"limits_btc_rbtc"`
	ProviderChanges    []ProviderChange            `json:"provider_changes"`
	NewProviderChanges []ProviderChange            `json:"new_provider_changes"`
	History            []HistoryEntry              `json:"history"`
}

type SwapAPIStatus struct {
	Status     string `json:"status"`
	ResponseMS *int64 `json:"response_ms"`
	BaseURL    string `json:"base_url"`
}

type NativeRoutes struct {
	PowPeg  NativeRoute `json:"powpeg"`
	Flyover NativeRoute `json:"flyover"`
}

// NativeRoute describes one of the two protocol-level bridge paths. The
// liquidity fields are only populated for Flyover, from the LP snapshot.
type NativeRoute struct {
	Name               string   `json:"name"`
	ProviderID         string   `json:"provider_id"`
	Enabled            bool     `json:"enabled"`
	Type               string   `json:"type"`
	PairCount          int      `json:"pair_count"`
	InboundPairs       int      `json:"inbound_pairs"`
	OutboundPairs      int      `json:"outbound_pairs"`
	Tokens             []string `json:"tokens"`
	EstimatedSpeed     string   `json:"estimated_speed"`
	Fee                string   `json:"fee"`
	PeginAvailable     *bool    `json:"pegin_available,omitempty"`
	PegoutAvailable    *bool    `json:"pegout_available,omitempty"`
	PeginLiquidityRBTC *float64 `json:"pegin_liquidity_rbtc,omitempty"`
	PegoutLiquidityBTC *float64 `json:"pegout_liquidity_btc,omitempty"`
}

// ProviderSnapshot is one swap provider's advertised mainnet surface.
type ProviderSnapshot struct {
	Name          string      `json:"name"`
	ProviderID    string      `json:"provider_id"`
	Enabled       bool        `json:"enabled"`
	PairCount     int         `json:"pair_count"`
	InboundPairs  int         `json:"inbound_pairs"`
	OutboundPairs int         `json:"outbound_pairs"`
	Tokens        []string    `json:"tokens"`
	Pairs         []RoutePair `json:"pairs"`
	Limits        *PairLimits `json:"limits,omitempty"`
}

type RoutePair struct {
	From      string `json:"from"`
	To        string `json:"to"`
	FromToken string `json:"from_token"`
	ToToken   string `json:"to_token"`
}

type PairLimits struct {
	MinSats *int64  `json:"min_sats"`
	MaxSats *int64  `json:"max_sats"`
	MinBTC  float64 `json:"min_btc"`
	MaxBTC  float64 `json:"max_btc"`
}

type TokenInfo struct {
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// ProviderChange records a provider appearing in or vanishing from the swap
// API between two runs.
type ProviderChange struct {
	T        string `json:"t"`
	Provider string `json:"provider"`
	Change   string `json:"change"`
}

// HistoryEntry is one up/down observation. Besides the fixed "t" and
// "swap_api" keys it carries one key per provider seen in that run.
type HistoryEntry map[string]string
