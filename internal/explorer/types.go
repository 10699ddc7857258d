package explorer

import (
	"fmt"
	"net/url"
	"strconv"

	"bridgeScope/internal/model"
)

type logsPage struct {
	Items          []model.RawLog `json:"items"`
	NextPageParams map[string]any `json:"next_page_params"`
}

type internalTxPage struct {
	Items          []model.InternalTx `json:"items"`
	NextPageParams map[string]any     `json:"next_page_params"`
}

type blockInfo struct {
	Timestamp string `json:"timestamp"`
}

type chainStats struct {
	RootstockLockedBTC string `json:"rootstock_locked_btc"`
}

// AddressPage is one page of the explorer's address listing, ordered by
// balance descending.
type AddressPage struct {
	Items          []AddressItem  `json:"items"`
	NextPageParams map[string]any `json:"next_page_params"`
}

type AddressItem struct {
	Hash          string `json:"hash"`
	CoinBalance   string `json:"coin_balance"`
	IsContract    bool   `json:"is_contract"`
	Name          string `json:"name"`
	ENSDomainName string `json:"ens_domain_name"`
}

// PageParams converts a next_page_params object into query parameters for the
// follow-up request. The explorer echoes these back verbatim, so values are
// stringified without interpretation.
func PageParams(next map[string]any) url.Values {
	if len(next) == 0 {
		return nil
	}
	params := url.Values{}
	for k, v := range next {
		switch t := v.(type) {
		case string:
			params.Set(k, t)
		case float64:
			params.Set(k, strconv.FormatFloat(t, 'f', -1, 64))
		case bool:
			params.Set(k, strconv.FormatBool(t))
		case nil:
			// null and absent are equivalent to the explorer
		default:
			params.Set(k, fmt.Sprintf("%v", t))
		}
	}
	return params
}
