package explorer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bridgeScope/internal/fetch"
)

func TestLogsStopsAtMinimumBlock(t *testing.T) {
	var pages int
	mux := http.NewServeMux()
	mux.HandleFunc("/addresses/0xaa/logs", func(w http.ResponseWriter, r *http.Request) {
		pages++
		switch pages {
		case 1:
			if r.URL.Query().Get("block_number") != "" {
				t.Errorf("first page should carry no token params, got %q", r.URL.RawQuery)
			}
			fmt.Fprint(w, `{
				"items": [
					{"transaction_hash": "0x01", "block_number": 7500, "index": 1, "topics": ["0xAA", null], "data": "0x"},
					{"transaction_hash": "0x02", "block_number": 7400, "index": 0, "topics": ["0xbb"], "data": "0x"}
				],
				"next_page_params": {"block_number": 7400, "index": 0}
			}`)
		case 2:
			if got := r.URL.Query().Get("block_number"); got != "7400" {
				t.Errorf("expected echoed token param block_number=7400, got %q", got)
			}
			fmt.Fprint(w, `{
				"items": [
					{"transaction_hash": "0x03", "block_number": 7100, "index": 2, "topics": ["0xcc"], "data": "0x"},
					{"transaction_hash": "0x04", "block_number": 6900, "index": 1, "topics": ["0xdd"], "data": "0x"}
				],
				"next_page_params": {"block_number": 6900, "index": 1}
			}`)
		default:
			t.Error("pagination should have stopped after the second page")
			fmt.Fprint(w, `{"items": []}`)
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	logs, err := newTestClient(srv.URL).Logs(context.Background(), "0xaa", 7000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("expected 3 logs above the minimum block, got %d", len(logs))
	}
	if logs[0].TxHash != "0x01" || logs[1].TxHash != "0x02" || logs[2].TxHash != "0x03" {
		t.Fatalf("explorer order not preserved: %+v", logs)
	}
	if logs[0].Topic0() != "0xaa" {
		t.Fatalf("topic0 should be lowercased, got %q", logs[0].Topic0())
	}
	if pages != 2 {
		t.Fatalf("expected 2 pages fetched, got %d", pages)
	}
}

func TestLogsStopsOnRepeatedToken(t *testing.T) {
	var pages int
	mux := http.NewServeMux()
	mux.HandleFunc("/addresses/0xaa/logs", func(w http.ResponseWriter, r *http.Request) {
		pages++
		fmt.Fprintf(w, `{
			"items": [{"transaction_hash": "0x%02d", "block_number": 8000, "index": 0, "topics": ["0xaa"], "data": "0x"}],
			"next_page_params": {"page": 2}
		}`, pages)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	logs, err := newTestClient(srv.URL).Logs(context.Background(), "0xaa", 7000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pages != 2 {
		t.Fatalf("repeated token should stop after 2 pages, got %d", pages)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 logs, got %d", len(logs))
	}
}

func TestLogsStopsOnEmptyPageAndMissingToken(t *testing.T) {
	var pages int
	mux := http.NewServeMux()
	mux.HandleFunc("/addresses/0xempty/logs", func(w http.ResponseWriter, r *http.Request) {
		pages++
		fmt.Fprint(w, `{"items": [], "next_page_params": {"page": 2}}`)
	})
	mux.HandleFunc("/addresses/0xlast/logs", func(w http.ResponseWriter, r *http.Request) {
		pages++
		fmt.Fprint(w, `{"items": [{"transaction_hash": "0x01", "block_number": 8000, "index": 0, "topics": ["0xaa"], "data": "0x"}]}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(srv.URL)
	logs, err := c.Logs(context.Background(), "0xempty", 7000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logs) != 0 {
		t.Fatalf("expected no logs, got %d", len(logs))
	}

	logs, err = c.Logs(context.Background(), "0xlast", 7000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 log, got %d", len(logs))
	}
	if pages != 2 {
		t.Fatalf("expected exactly one request per address, got %d", pages)
	}
}

func TestLogsDecodesStructuredParameters(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/addresses/0xaa/logs", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"items": [{
				"transaction_hash": "0x01",
				"block_number": 7500,
				"index": 0,
				"topics": ["0xaa"],
				"data": "0x",
				"decoded": {
					"method_call": "CallForUser(address,address,uint256,uint256,bytes,bool,bytes32)",
					"method_id": "bfc7404e",
					"parameters": [
						{"name": "value", "type": "uint256", "value": "2500000000000000000", "indexed": false},
						{"name": "success", "type": "bool", "value": true, "indexed": false}
					]
				}
			}]
		}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	logs, err := newTestClient(srv.URL).Logs(context.Background(), "0xaa", 7000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 log, got %d", len(logs))
	}
	params := logs[0].Params()
	if params == nil {
		t.Fatal("expected decoded parameters")
	}
	if params["value"] != "2500000000000000000" {
		t.Fatalf("unexpected value param: %v", params["value"])
	}
	if params["success"] != true {
		t.Fatalf("unexpected success param: %v", params["success"])
	}
}

func TestInternalTransactionsFiltersByBlock(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/addresses/0xbridge/internal-transactions", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"items": [
				{"transaction_hash": "0x01", "block_number": 7300, "from": {"hash": "0xBridge"}, "to": {"hash": "0xuser"}, "value": "1000", "timestamp": "2025-02-19T11:48:48.000000Z"},
				{"transaction_hash": "0x02", "block_number": 7100, "from": {"hash": "0xbridge"}, "to": null, "value": "0", "timestamp": ""}
			]
		}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	txs, err := newTestClient(srv.URL).InternalTransactions(context.Background(), "0xbridge", 7200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction above the minimum block, got %d", len(txs))
	}
	if txs[0].From.Hash != "0xBridge" || txs[0].To.Hash != "0xuser" {
		t.Fatalf("unexpected addresses: %+v", txs[0])
	}
}

func TestBlockTimestampCaches(t *testing.T) {
	var hits int
	mux := http.NewServeMux()
	mux.HandleFunc("/blocks/7500", func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, `{"timestamp": "2025-02-19T11:48:48.000000Z", "height": 7500}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(srv.URL)
	for i := 0; i < 3; i++ {
		ts, err := c.BlockTimestamp(context.Background(), 7500)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ts != "2025-02-19T11:48:48.000000Z" {
			t.Fatalf("unexpected timestamp: %q", ts)
		}
	}
	if hits != 1 {
		t.Fatalf("expected a single upstream fetch, got %d", hits)
	}
}

func TestLockedBTCWei(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"rootstock_locked_btc": "2845000000000000000000", "total_blocks": "7500000"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	wei, err := newTestClient(srv.URL).LockedBTCWei(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wei != "2845000000000000000000" {
		t.Fatalf("unexpected locked figure: %q", wei)
	}
}

func newTestClient(base string) *Client {
	return NewClient(base, fetch.NewClient(2*time.Second, 1000, 1, nil), nil)
}
