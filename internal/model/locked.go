package model

// LockedStats summarizes how much bridged RBTC sits in contracts versus
// externally owned accounts.
type LockedStats struct {
	TotalBridgedRBTC      float64           `json:"total_bridged_rbtc"`
	LockedInContractsRBTC float64           `json:"locked_in_contracts_rbtc"`
	PctLocked             float64           `json:"pct_locked"`
	ContractCount         int               `json:"contract_count"`
	TopContracts          []ContractBalance `json:"top_contracts"`
	PagesFetched          int               `json:"pages_fetched"`
	FetchedAt             string            `json:"fetched_at"`
}

// ContractBalance is one contract holding RBTC.
type ContractBalance struct {
	Hash        string  `json:"hash"`
	BalanceRBTC float64 `json:"balance_rbtc"`
	Name        string  `json:"name"`
}
