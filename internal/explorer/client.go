package explorer

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"bridgeScope/internal/fetch"
	"bridgeScope/internal/model"
)

// Client wraps the Blockscout v2 REST API. Paginated endpoints follow
// next_page_params tokens until one of the stop conditions hits: an empty
// page, a missing token, a repeated token, or an item older than the caller's
// minimum block.
type Client struct {
	base    string
	fetcher *fetch.Client
	logger  *zap.Logger

	mu      sync.RWMutex
	tsCache map[int64]string
}

func NewClient(base string, fetcher *fetch.Client, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		base:    strings.TrimRight(base, "/"),
		fetcher: fetcher,
		logger:  logger,
		tsCache: make(map[int64]string),
	}
}

// Logs returns every log emitted by address at or above minBlock, newest
// first, in the order the explorer serves them.
func (c *Client) Logs(ctx context.Context, address string, minBlock int64) ([]model.RawLog, error) {
	endpoint := fmt.Sprintf("%s/addresses/%s/logs", c.base, address)
	var logs []model.RawLog
	var params url.Values
	lastToken := ""
	for page := 1; ; page++ {
		var pg logsPage
		if err := c.fetcher.GetJSON(ctx, endpoint, params, &pg); err != nil {
			return nil, fmt.Errorf("list logs for %s: %w", address, err)
		}
		if len(pg.Items) == 0 {
			break
		}
		kept := 0
		for _, item := range pg.Items {
			if item.BlockNumber >= minBlock {
				logs = append(logs, item)
				kept++
			}
		}
		if kept < len(pg.Items) {
			c.logger.Debug("log page crossed minimum block",
				zap.String("address", address),
				zap.Int("page", page))
			break
		}
		params = PageParams(pg.NextPageParams)
		if params == nil {
			break
		}
		token := params.Encode()
		if token == lastToken {
			c.logger.Warn("explorer repeated page token, stopping",
				zap.String("endpoint", endpoint),
				zap.Int("page", page))
			break
		}
		lastToken = token
	}
	return logs, nil
}

// InternalTransactions returns internal transactions touching address at or
// above minBlock, newest first.
func (c *Client) InternalTransactions(ctx context.Context, address string, minBlock int64) ([]model.InternalTx, error) {
	endpoint := fmt.Sprintf("%s/addresses/%s/internal-transactions", c.base, address)
	var txs []model.InternalTx
	var params url.Values
	lastToken := ""
	for page := 1; ; page++ {
		var pg internalTxPage
		if err := c.fetcher.GetJSON(ctx, endpoint, params, &pg); err != nil {
			return nil, fmt.Errorf("list internal transactions for %s: %w", address, err)
		}
		if len(pg.Items) == 0 {
			break
		}
		kept := 0
		for _, item := range pg.Items {
			if item.BlockNumber >= minBlock {
				txs = append(txs, item)
				kept++
			}
		}
		if kept < len(pg.Items) {
			break
		}
		params = PageParams(pg.NextPageParams)
		if params == nil {
			break
		}
		token := params.Encode()
		if token == lastToken {
			c.logger.Warn("explorer repeated page token, stopping",
				zap.String("endpoint", endpoint),
				zap.Int("page", page))
			break
		}
		lastToken = token
	}
	return txs, nil
}

// BlockTimestamp returns the ISO8601 timestamp of a block. Results are cached
// for the lifetime of the client since block timestamps never change.
func (c *Client) BlockTimestamp(ctx context.Context, number int64) (string, error) {
	c.mu.RLock()
	ts, ok := c.tsCache[number]
	c.mu.RUnlock()
	if ok {
		return ts, nil
	}

	var blk blockInfo
	endpoint := fmt.Sprintf("%s/blocks/%d", c.base, number)
	if err := c.fetcher.GetJSON(ctx, endpoint, nil, &blk); err != nil {
		return "", fmt.Errorf("fetch block %d: %w", number, err)
	}

	c.mu.Lock()
	c.tsCache[number] = blk.Timestamp
	c.mu.Unlock()
	return blk.Timestamp, nil
}

// LockedBTCWei returns the explorer's figure for BTC locked in the federation,
// as a wei denominated decimal string. Empty when the field is absent.
func (c *Client) LockedBTCWei(ctx context.Context) (string, error) {
	var st chainStats
	if err := c.fetcher.GetJSON(ctx, c.base+"/stats", nil, &st); err != nil {
		return "", fmt.Errorf("fetch chain stats: %w", err)
	}
	return st.RootstockLockedBTC, nil
}

// Addresses fetches one page of the richest-address listing. Callers drive
// pagination themselves via PageParams.
func (c *Client) Addresses(ctx context.Context, params url.Values) (AddressPage, error) {
	var pg AddressPage
	if err := c.fetcher.GetJSON(ctx, c.base+"/addresses", params, &pg); err != nil {
		return AddressPage{}, fmt.Errorf("list addresses: %w", err)
	}
	return pg, nil
}
