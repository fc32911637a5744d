package chain

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/rpc"

	"tickScope/internal/model"
)

// ErrMalformedResponse marks a node response that parsed as JSON but carries invalid values.
var ErrMalformedResponse = errors.New("malformed rpc response")

// Client wraps a JSON-RPC connection to a CometBFT node.
type Client struct {
	rpcClient   *rpc.Client
	base64Attrs bool

	mu      sync.RWMutex
	tsCache map[int64]string
}

// NewClient dials the node RPC URL. base64Attrs marks event attributes as base64 encoded,
// which CometBFT releases before 0.37 emit.
func NewClient(ctx context.Context, rpcURL string, base64Attrs bool) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return newClient(rpcClient, base64Attrs), nil
}

func newClient(rpcClient *rpc.Client, base64Attrs bool) *Client {
	return &Client{
		rpcClient:   rpcClient,
		base64Attrs: base64Attrs,
		tsCache:     make(map[int64]string),
	}
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

type statusResult struct {
	SyncInfo struct {
		LatestBlockHeight string `json:"latest_block_height"`
		LatestBlockTime   string `json:"latest_block_time"`
	} `json:"sync_info"`
}

// LatestHeight returns the node's latest block height.
func (c *Client) LatestHeight(ctx context.Context) (int64, error) {
	var res statusResult
	if err := c.rpcClient.CallContext(ctx, &res, "status"); err != nil {
		return 0, err
	}
	height, err := strconv.ParseInt(res.SyncInfo.LatestBlockHeight, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: latest height %q: %v", ErrMalformedResponse, res.SyncInfo.LatestBlockHeight, err)
	}
	return height, nil
}

// Ping checks that the node answers.
func (c *Client) Ping(ctx context.Context) error {
	var res statusResult
	return c.rpcClient.CallContext(ctx, &res, "status")
}

type blockResult struct {
	Block struct {
		Header struct {
			Height string `json:"height"`
			Time   string `json:"time"`
		} `json:"header"`
	} `json:"block"`
}

// BlockTimestamp returns the block time as RFC3339, using an in-memory cache.
func (c *Client) BlockTimestamp(ctx context.Context, height int64) (string, error) {
	c.mu.RLock()
	ts, ok := c.tsCache[height]
	c.mu.RUnlock()
	if ok {
		return ts, nil
	}

	var res blockResult
	if err := c.rpcClient.CallContext(ctx, &res, "block", strconv.FormatInt(height, 10)); err != nil {
		return "", err
	}
	parsed, err := time.Parse(time.RFC3339Nano, res.Block.Header.Time)
	if err != nil {
		return "", fmt.Errorf("%w: block %d time %q: %v", ErrMalformedResponse, height, res.Block.Header.Time, err)
	}
	ts = parsed.UTC().Format(time.RFC3339Nano)

	c.mu.Lock()
	c.tsCache[height] = ts
	c.mu.Unlock()
	return ts, nil
}

// evictBelow drops cached block times for heights the search has moved past.
func (c *Client) evictBelow(height int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for h := range c.tsCache {
		if h < height {
			delete(c.tsCache, h)
		}
	}
}

type txSearchResult struct {
	Txs        []txResponse `json:"txs"`
	TotalCount string       `json:"total_count"`
}

type txResponse struct {
	Hash     string   `json:"hash"`
	Height   string   `json:"height"`
	Index    uint32   `json:"index"`
	TxResult txResult `json:"tx_result"`
}

type txResult struct {
	Code      uint32       `json:"code"`
	Codespace string       `json:"codespace"`
	Log       string       `json:"log"`
	Info      string       `json:"info"`
	GasWanted string       `json:"gas_wanted"`
	GasUsed   string       `json:"gas_used"`
	Events    []chainEvent `json:"events"`
}

type chainEvent struct {
	Type       string           `json:"type"`
	Attributes []chainAttribute `json:"attributes"`
}

type chainAttribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// TxSearch returns one page of the transactions with heights in [from, to] in chain order,
// together with the total match count.
func (c *Client) TxSearch(ctx context.Context, from, to int64, page, perPage int) ([]model.TransactionResult, int, error) {
	c.evictBelow(from)
	query := fmt.Sprintf("tx.height>=%d AND tx.height<=%d", from, to)

	var res txSearchResult
	err := c.rpcClient.CallContext(ctx, &res, "tx_search",
		query, false, strconv.Itoa(page), strconv.Itoa(perPage), "asc")
	if err != nil {
		return nil, 0, err
	}
	total, err := strconv.Atoi(res.TotalCount)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: total_count %q: %v", ErrMalformedResponse, res.TotalCount, err)
	}

	out := make([]model.TransactionResult, 0, len(res.Txs))
	for _, tx := range res.Txs {
		height, err := strconv.ParseInt(tx.Height, 10, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: tx %s height %q: %v", ErrMalformedResponse, tx.Hash, tx.Height, err)
		}
		ts, err := c.BlockTimestamp(ctx, height)
		if err != nil {
			return nil, 0, fmt.Errorf("block timestamp %d: %w", height, err)
		}
		result, err := c.buildTransactionResult(tx, ts)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, result)
	}
	return out, total, nil
}

func (c *Client) buildTransactionResult(tx txResponse, timestamp string) (model.TransactionResult, error) {
	gasWanted, err := parseGas(tx.TxResult.GasWanted)
	if err != nil {
		return model.TransactionResult{}, fmt.Errorf("%w: tx %s gas_wanted: %v", ErrMalformedResponse, tx.Hash, err)
	}
	gasUsed, err := parseGas(tx.TxResult.GasUsed)
	if err != nil {
		return model.TransactionResult{}, fmt.Errorf("%w: tx %s gas_used: %v", ErrMalformedResponse, tx.Hash, err)
	}

	events := make([]model.RawEvent, 0, len(tx.TxResult.Events))
	for _, ev := range tx.TxResult.Events {
		attrs := make([]model.RawAttribute, 0, len(ev.Attributes))
		for _, attr := range ev.Attributes {
			attrs = append(attrs, model.RawAttribute{Key: attr.Key, Value: attr.Value, Encoded: c.base64Attrs})
		}
		events = append(events, model.RawEvent{Type: ev.Type, Attributes: attrs})
	}

	return model.TransactionResult{
		Height:    tx.Height,
		TxHash:    tx.Hash,
		Timestamp: timestamp,
		Code:      tx.TxResult.Code,
		Codespace: tx.TxResult.Codespace,
		Log:       tx.TxResult.Log,
		Info:      tx.TxResult.Info,
		GasWanted: gasWanted,
		GasUsed:   gasUsed,
		Events:    events,
	}, nil
}

func parseGas(raw string) (model.Gas, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	return model.Gas(v), err
}
