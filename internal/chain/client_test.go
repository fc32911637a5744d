package chain

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func newTestServer(t *testing.T, results map[string]string, calls map[string]int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		calls[req.Method]++
		result, ok := results[req.Method]
		if !ok {
			t.Errorf("unexpected method %s", req.Method)
			result = "null"
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"result":` + result + `}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const txSearchPage = `{
  "txs": [
    {
      "hash": "AA11",
      "height": "42",
      "index": 0,
      "tx_result": {
        "code": 0,
        "log": "",
        "gas_wanted": "200000",
        "gas_used": "150000",
        "events": [
          {"type": "message", "attributes": [{"key": "YWN0aW9u", "value": "c2VuZA=="}]}
        ]
      }
    },
    {
      "hash": "BB22",
      "height": "42",
      "index": 1,
      "tx_result": {"code": 5, "codespace": "sdk", "gas_wanted": "1", "gas_used": "1", "events": []}
    }
  ],
  "total_count": "2"
}`

const blockAt42 = `{"block": {"header": {"height": "42", "time": "2024-03-01T10:00:00.5Z"}}}`

func TestTxSearch(t *testing.T) {
	calls := make(map[string]int)
	srv := newTestServer(t, map[string]string{
		"tx_search": txSearchPage,
		"block":     blockAt42,
	}, calls)

	client, err := NewClient(context.Background(), srv.URL, true)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	txs, total, err := client.TxSearch(context.Background(), 40, 45, 1, 50)
	if err != nil {
		t.Fatalf("tx search: %v", err)
	}
	if total != 2 || len(txs) != 2 {
		t.Fatalf("unexpected result count: total=%d len=%d", total, len(txs))
	}

	first := txs[0]
	if first.Height != "42" || first.TxHash != "AA11" || first.Timestamp != "2024-03-01T10:00:00.5Z" {
		t.Fatalf("unexpected tx: %+v", first)
	}
	if first.GasWanted != 200000 || first.GasUsed != 150000 {
		t.Fatalf("gas mismatch: %+v", first)
	}
	if len(first.Events) != 1 || !first.Events[0].Attributes[0].Encoded {
		t.Fatalf("expected encoded attributes: %+v", first.Events)
	}
	if txs[1].Succeeded() || txs[1].Codespace != "sdk" {
		t.Fatalf("expected failed tx: %+v", txs[1])
	}
	if calls["block"] != 1 {
		t.Fatalf("expected cached block timestamp, got %d block calls", calls["block"])
	}
}

func TestLatestHeight(t *testing.T) {
	calls := make(map[string]int)
	srv := newTestServer(t, map[string]string{
		"status": `{"sync_info": {"latest_block_height": "1234", "latest_block_time": "2024-03-01T10:00:00Z"}}`,
	}, calls)

	client, err := NewClient(context.Background(), srv.URL, false)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	height, err := client.LatestHeight(context.Background())
	if err != nil {
		t.Fatalf("latest height: %v", err)
	}
	if height != 1234 {
		t.Fatalf("height mismatch: %d", height)
	}
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestMalformedResponse(t *testing.T) {
	calls := make(map[string]int)
	srv := newTestServer(t, map[string]string{
		"status":    `{"sync_info": {"latest_block_height": "tip"}}`,
		"tx_search": `{"txs": [], "total_count": "many"}`,
	}, calls)

	client, err := NewClient(context.Background(), srv.URL, false)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	if _, err := client.LatestHeight(context.Background()); !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
	if _, _, err := client.TxSearch(context.Background(), 1, 2, 1, 10); !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestTxSearchEvictsPassedBlockTimes(t *testing.T) {
	calls := make(map[string]int)
	srv := newTestServer(t, map[string]string{
		"tx_search": `{"txs": [], "total_count": "0"}`,
		"block":     blockAt42,
	}, calls)

	client, err := NewClient(context.Background(), srv.URL, false)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	ctx := context.Background()
	if _, err := client.BlockTimestamp(ctx, 42); err != nil {
		t.Fatalf("block timestamp: %v", err)
	}
	if _, _, err := client.TxSearch(ctx, 40, 45, 1, 50); err != nil {
		t.Fatalf("tx search: %v", err)
	}
	if len(client.tsCache) != 1 {
		t.Fatalf("height inside the range was evicted: %v", client.tsCache)
	}

	if _, _, err := client.TxSearch(ctx, 43, 50, 1, 50); err != nil {
		t.Fatalf("tx search: %v", err)
	}
	if len(client.tsCache) != 0 {
		t.Fatalf("expected passed heights evicted, cache %v", client.tsCache)
	}
}
