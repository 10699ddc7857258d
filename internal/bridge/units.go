package bridge

import (
	"math/big"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

// RBTCFromWei converts a wei amount to RBTC as a float, keeping the raw value
// intact for callers that persist both representations.
func RBTCFromWei(wei *big.Int) float64 {
	if wei == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(wei).Float64()
	return f / 1e18
}

// RBTCFromWeiString converts a decimal wei string to RBTC. Malformed strings
// yield zero.
func RBTCFromWeiString(s string) float64 {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return 0
	}
	return RBTCFromWei(v)
}

// BTCFromSatoshis converts a satoshi amount to BTC.
func BTCFromSatoshis(sat int64) float64 {
	return btcutil.Amount(sat).ToBTC()
}

// ValidBTCAddress reports whether s parses as a Bitcoin mainnet address.
// Peg-out destinations decoded from bridge events are checked with this so
// garbage payloads surface in the logs.
func ValidBTCAddress(s string) bool {
	if s == "" {
		return false
	}
	_, err := btcutil.DecodeAddress(s, &chaincfg.MainNetParams)
	return err == nil
}
