package model

// CallForUser is an LP delivering RBTC to a user, completing a Flyover peg-in.
type CallForUser struct {
	Event          string  `json:"event"`
	TxHash         string  `json:"tx_hash"`
	BlockNumber    int64   `json:"block_number"`
	FromAddress    string  `json:"from_address"`
	DestAddress    string  `json:"dest_address"`
	GasLimit       string  `json:"gas_limit,omitempty"`
	ValueWei       string  `json:"value_wei"`
	ValueRBTC      float64 `json:"value_rbtc"`
	Success        bool    `json:"success"`
	QuoteHash      string  `json:"quote_hash"`
	RawData        string  `json:"raw_data,omitempty"`
	BlockTimestamp string  `json:"block_timestamp,omitempty"`
}

// PegOutDeposit is a user depositing RBTC to start a Flyover peg-out.
type PegOutDeposit struct {
	Event          string  `json:"event"`
	TxHash         string  `json:"tx_hash"`
	BlockNumber    int64   `json:"block_number"`
	QuoteHash      string  `json:"quote_hash"`
	Sender         string  `json:"sender"`
	AmountWei      string  `json:"amount_wei"`
	AmountRBTC     float64 `json:"amount_rbtc"`
	Timestamp      int64   `json:"timestamp"`
	BlockTimestamp string  `json:"block_timestamp,omitempty"`
}

// Penalized is a liquidity provider being slashed.
type Penalized struct {
	Event          string  `json:"event"`
	TxHash         string  `json:"tx_hash"`
	BlockNumber    int64   `json:"block_number"`
	LPAddress      string  `json:"lp_address"`
	PenaltyWei     string  `json:"penalty_wei"`
	PenaltyRBTC    float64 `json:"penalty_rbtc"`
	QuoteHash      string  `json:"quote_hash"`
	RawData        string  `json:"raw_data,omitempty"`
	BlockTimestamp string  `json:"block_timestamp,omitempty"`
}

// PegOutUserRefunded is a user reclaiming a peg-out deposit after LP failure.
type PegOutUserRefunded struct {
	Event          string  `json:"event"`
	TxHash         string  `json:"tx_hash"`
	BlockNumber    int64   `json:"block_number"`
	QuoteHash      string  `json:"quote_hash"`
	ValueWei       string  `json:"value_wei"`
	ValueRBTC      float64 `json:"value_rbtc"`
	UserAddress    string  `json:"user_address"`
	RawData        string  `json:"raw_data,omitempty"`
	BlockTimestamp string  `json:"block_timestamp,omitempty"`
}

// PegOutRefunded is an LP claiming its refund for a completed peg-out.
// Recognized for cursor accounting but not persisted to a dataset.
type PegOutRefunded struct {
	Event       string `json:"event"`
	TxHash      string `json:"tx_hash"`
	BlockNumber int64  `json:"block_number"`
	QuoteHash   string `json:"quote_hash"`
}

// PegInRegistered is a peg-in quote registered against the native bridge.
// Recognized for cursor accounting but not persisted to a dataset.
type PegInRegistered struct {
	Event                 string  `json:"event"`
	TxHash                string  `json:"tx_hash"`
	BlockNumber           int64   `json:"block_number"`
	QuoteHash             string  `json:"quote_hash"`
	TransferredAmountWei  string  `json:"transferred_amount_wei"`
	TransferredAmountRBTC float64 `json:"transferred_amount_rbtc"`
}

// LPLiquidity is a snapshot of a liquidity provider's live reserves.
type LPLiquidity struct {
	LPName             string  `json:"lp_name"`
	RBTCWallet         string  `json:"rbtc_wallet"`
	BTCWallet          string  `json:"btc_wallet"`
	PeginLiquidityWei  string  `json:"pegin_liquidity_wei"`
	PeginRBTC          float64 `json:"pegin_rbtc"`
	PegoutLiquidityWei string  `json:"pegout_liquidity_wei"`
	PegoutBTC          float64 `json:"pegout_btc"`
	FetchedAt          string  `json:"fetched_at"`
}
