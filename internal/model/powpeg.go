package model

// BridgeCredit is an internal transaction crediting RBTC out of the bridge
// precompile, which is how a native peg-in lands on Rootstock.
type BridgeCredit struct {
	Type           string  `json:"type"`
	TxHash         string  `json:"tx_hash"`
	BlockNumber    int64   `json:"block_number"`
	ToAddress      string  `json:"to_address"`
	ValueWei       string  `json:"value_wei"`
	ValueRBTC      float64 `json:"value_rbtc"`
	BlockTimestamp string  `json:"block_timestamp"`
}

// PeginBTC is the bridge registering an incoming BTC transaction.
type PeginBTC struct {
	Event           string  `json:"event"`
	TxHash          string  `json:"tx_hash"`
	BlockNumber     int64   `json:"block_number"`
	LogIndex        int64   `json:"log_index"`
	Recipient       string  `json:"recipient"`
	BTCTxHash       string  `json:"btc_tx_hash"`
	AmountSatoshis  int64   `json:"amount_satoshis"`
	AmountBTC       float64 `json:"amount_btc"`
	ProtocolVersion int64   `json:"protocol_version"`
	BlockTimestamp  string  `json:"block_timestamp,omitempty"`
}

// ReleaseRequested is a user asking the bridge to send BTC back out.
type ReleaseRequested struct {
	Event          string  `json:"event"`
	TxHash         string  `json:"tx_hash"`
	BlockNumber    int64   `json:"block_number"`
	LogIndex       int64   `json:"log_index"`
	Sender         string  `json:"sender"`
	BTCDestination string  `json:"btc_destination"`
	AmountWei      string  `json:"amount_wei"`
	AmountRBTC     float64 `json:"amount_rbtc"`
	BlockTimestamp string  `json:"block_timestamp,omitempty"`
}

// ReleaseEvent is one step of the peg-out release lifecycle. The Event field
// discriminates which of the hash fields is populated.
type ReleaseEvent struct {
	Event          string `json:"event"`
	TxHash         string `json:"tx_hash"`
	BlockNumber    int64  `json:"block_number"`
	LogIndex       int64  `json:"log_index"`
	PegoutHash     string `json:"pegout_hash,omitempty"`
	BTCBlockHeight uint64 `json:"btc_block_height,omitempty"`
	ReleaseHash    string `json:"release_hash,omitempty"`
	BatchHash      string `json:"batch_hash,omitempty"`
	BlockTimestamp string `json:"block_timestamp,omitempty"`
}
