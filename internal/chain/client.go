package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/ratelimit"

	"bridgeScope/internal/model"
)

// Client wraps a JSON-RPC connection to a Rootstock node. Calls go through
// the shared limiter so node and explorer traffic stay paced together.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
	limiter   ratelimit.Limiter
}

func NewClient(ctx context.Context, rpcURL string, limiter ratelimit.Limiter) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc %s: %w", rpcURL, err)
	}
	if limiter == nil {
		limiter = ratelimit.NewUnlimited()
	}
	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		limiter:   limiter,
	}, nil
}

func (c *Client) Close() {
	c.rpcClient.Close()
}

// LatestBlockNumber returns the node's current chain head.
func (c *Client) LatestBlockNumber(ctx context.Context) (int64, error) {
	c.limiter.Take()
	n, err := c.ethClient.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch latest block number: %w", err)
	}
	return int64(n), nil
}

// FilterLogs fetches logs emitted by address in [from, to] restricted to the
// given topic0 signatures, normalized into the explorer's log shape.
func (c *Client) FilterLogs(ctx context.Context, from, to int64, address string, topics []string) ([]model.RawLog, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid address: %s", address)
	}
	topic0, err := parseTopics(topics)
	if err != nil {
		return nil, err
	}

	query := ethereum.FilterQuery{
		FromBlock: big.NewInt(from),
		ToBlock:   big.NewInt(to),
		Addresses: []common.Address{common.HexToAddress(address)},
	}
	if len(topic0) > 0 {
		query.Topics = [][]common.Hash{topic0}
	}

	c.limiter.Take()
	logs, err := c.ethClient.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("filter logs %d-%d: %w", from, to, err)
	}

	out := make([]model.RawLog, 0, len(logs))
	for _, lg := range logs {
		out = append(out, toRawLog(lg))
	}
	return out, nil
}

func toRawLog(lg types.Log) model.RawLog {
	topics := make([]string, 0, len(lg.Topics))
	for _, tp := range lg.Topics {
		topics = append(topics, tp.Hex())
	}
	return model.RawLog{
		TxHash:      lg.TxHash.Hex(),
		BlockNumber: int64(lg.BlockNumber),
		LogIndex:    int64(lg.Index),
		Topics:      topics,
		Data:        hexutil.Encode(lg.Data),
	}
}

func parseTopics(topics []string) ([]common.Hash, error) {
	out := make([]common.Hash, 0, len(topics))
	for _, raw := range topics {
		b, err := hexutil.Decode(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid topic %q: %w", raw, err)
		}
		if len(b) != common.HashLength {
			return nil, fmt.Errorf("invalid topic %q: expected 32 bytes, got %d", raw, len(b))
		}
		out = append(out, common.BytesToHash(b))
	}
	return out, nil
}
