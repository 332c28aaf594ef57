package helius

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"stake-wallet-profiler/internal/domain"
	"stake-wallet-profiler/internal/funding"
)

func TestParseAPIKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"abc-123", "abc-123"},
		{"  abc-123  ", "abc-123"},
		{"https://mainnet.helius-rpc.com/?api-key=key42", "key42"},
		{"https://mainnet.helius-rpc.com/?foo=1&api-key=key42", "key42"},
		{"https://mainnet.helius-rpc.com/?api-key=", ""},
	}

	for _, tt := range tests {
		if got := ParseAPIKey(tt.in); got != tt.want {
			t.Errorf("ParseAPIKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewClient_RequiresKey(t *testing.T) {
	if _, err := NewClient(""); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

type rpcEnvelope struct {
	ID     uint64        `json:"id"`
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
}

func TestClient_GetSignaturesForAddress(t *testing.T) {
	var gotParams []interface{}
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("api-key")
		var req rpcEnvelope
		json.NewDecoder(r.Body).Decode(&req)
		if req.Method != "getTransactionsForAddress" {
			t.Errorf("expected getTransactionsForAddress, got %s", req.Method)
		}
		gotParams = req.Params

		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"data": []map[string]interface{}{
					{"signature": "sigA", "slot": 10, "blockTime": 1700000100},
					{"signature": "", "slot": 9},
					{"signature": "sigB", "slot": 8, "blockTime": nil},
				},
				"paginationToken": "8:0",
			},
		})
	}))
	defer server.Close()

	client, err := NewClient("k1", WithRPCBase(server.URL+"/"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	sigs, err := client.GetSignaturesForAddress(context.Background(), "wallet1", HistoryOpts{
		Limit:         5000,
		TokenAccounts: domain.TokenAccountsBalanceChanged,
		BlockTimeGTE:  1699990000,
	})
	if err != nil {
		t.Fatalf("GetSignaturesForAddress: %v", err)
	}

	if gotKey != "k1" {
		t.Errorf("expected api-key k1, got %q", gotKey)
	}
	if len(sigs) != 2 || sigs[0].Signature != "sigA" || sigs[1].Signature != "sigB" {
		t.Fatalf("unexpected signatures: %+v", sigs)
	}
	if sigs[0].BlockTime == nil || *sigs[0].BlockTime != 1700000100 {
		t.Errorf("unexpected block time: %v", sigs[0].BlockTime)
	}

	cfg := gotParams[1].(map[string]interface{})
	if cfg["transactionDetails"] != "signatures" {
		t.Errorf("expected signatures details, got %v", cfg["transactionDetails"])
	}
	if cfg["limit"] != float64(MaxSignaturesLimit) {
		t.Errorf("expected limit clamped to %d, got %v", MaxSignaturesLimit, cfg["limit"])
	}
	if cfg["sortOrder"] != "desc" {
		t.Errorf("expected desc sort order, got %v", cfg["sortOrder"])
	}
	filters := cfg["filters"].(map[string]interface{})
	if filters["status"] != "succeeded" || filters["tokenAccounts"] != "balanceChanged" {
		t.Errorf("unexpected filters: %v", filters)
	}
	bt, ok := filters["blockTime"].(map[string]interface{})
	if !ok || bt["gte"] != float64(1699990000) {
		t.Errorf("expected blockTime.gte filter, got %v", filters["blockTime"])
	}
}

func TestClient_HistoryParams_NoBlockTime(t *testing.T) {
	client, err := NewClient("k1")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	params := client.historyParams("w", HistoryOpts{Limit: 250})
	cfg := params[1].(map[string]interface{})
	if cfg["limit"] != 250 {
		t.Errorf("expected limit 250, got %v", cfg["limit"])
	}
	filters := cfg["filters"].(map[string]interface{})
	if _, ok := filters["blockTime"]; ok {
		t.Error("expected no blockTime filter")
	}
	if _, ok := filters["tokenAccounts"]; ok {
		t.Error("expected no tokenAccounts filter")
	}
}

func parseServer(t *testing.T, calls *atomic.Int32, requested *[][]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("api-key") != "k1" {
			t.Errorf("missing api-key on parse request")
		}
		var body struct {
			Transactions []string `json:"transactions"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		*requested = append(*requested, body.Transactions)

		out := make([]map[string]interface{}, 0, len(body.Transactions))
		for i, sig := range body.Transactions {
			if sig == "unknown" {
				continue
			}
			out = append(out, map[string]interface{}{
				"signature":   sig,
				"timestamp":   1700000000 + i,
				"type":        "SWAP",
				"source":      "JUPITER",
				"description": "wallet swapped 1 SOL for 10 USDC",
				"fee":         5000,
				"feePayer":    "wallet1",
				"nativeTransfers": []map[string]interface{}{
					{"fromUserAccount": "wallet1", "toUserAccount": "pool", "amount": 1000000000},
				},
			})
		}
		json.NewEncoder(w).Encode(out)
	}))
}

func TestClient_ParseTransactions(t *testing.T) {
	var calls atomic.Int32
	var requested [][]string
	server := parseServer(t, &calls, &requested)
	defer server.Close()

	client, err := NewClient("k1", WithParseURL(server.URL+"/v0/transactions/"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	txs, err := client.ParseTransactions(context.Background(), []string{"s1", "unknown", "s2"})
	if err != nil {
		t.Fatalf("ParseTransactions: %v", err)
	}
	if len(txs) != 2 || txs[0].Signature != "s1" || txs[1].Signature != "s2" {
		t.Fatalf("unexpected result order: %+v", txs)
	}
	if txs[0].Type != "SWAP" || txs[0].Source != "JUPITER" || txs[0].FeePayer != "wallet1" {
		t.Errorf("unexpected fields: %+v", txs[0])
	}
	if len(txs[0].NativeTransfers) != 1 || txs[0].NativeTransfers[0].Amount != 1_000_000_000 {
		t.Errorf("unexpected native transfers: %+v", txs[0].NativeTransfers)
	}

	// s1 is memoised; only s3 goes over the wire.
	txs, err = client.ParseTransactions(context.Background(), []string{"s1", "s3"})
	if err != nil {
		t.Fatalf("ParseTransactions: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 HTTP calls, got %d", calls.Load())
	}
	if len(requested[1]) != 1 || requested[1][0] != "s3" {
		t.Errorf("expected only s3 in second request, got %v", requested[1])
	}
}

func TestClient_ParseTransactions_Batches(t *testing.T) {
	var calls atomic.Int32
	var requested [][]string
	server := parseServer(t, &calls, &requested)
	defer server.Close()

	client, err := NewClient("k1", WithParseURL(server.URL), WithParseCacheSize(0))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	sigs := make([]string, 150)
	for i := range sigs {
		sigs[i] = "sig" + string(rune('a'+i%26)) + string(rune('a'+i/26))
	}

	txs, err := client.ParseTransactions(context.Background(), sigs)
	if err != nil {
		t.Fatalf("ParseTransactions: %v", err)
	}
	if len(txs) != 150 {
		t.Errorf("expected 150 transactions, got %d", len(txs))
	}
	if calls.Load() != 2 || len(requested[0]) != MaxParseBatch {
		t.Errorf("expected 2 batches with first of %d, got %d calls", MaxParseBatch, calls.Load())
	}
}

func TestClient_ParseTransactions_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer server.Close()

	client, err := NewClient("k1", WithParseURL(server.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.ParseTransactions(context.Background(), []string{"s1"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T (%v)", err, err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", apiErr.StatusCode)
	}
}

func TestClient_ParseTransactions_Empty(t *testing.T) {
	client, err := NewClient("k1", WithParseURL("http://127.0.0.1:1"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	txs, err := client.ParseTransactions(context.Background(), nil)
	if err != nil || txs != nil {
		t.Errorf("expected nil, nil for empty input, got %v, %v", txs, err)
	}
}

func TestLamports_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{`1000000000`, 1_000_000_000},
		{`"42"`, 42},
		{`1.9`, 1},
		{`2e3`, 2000},
		{`"1.5"`, 0},
		{`"abc"`, 0},
		{`null`, 0},
		{`true`, 0},
		{`{"x":1}`, 0},
		{`[1]`, 0},
	}
	for _, tt := range tests {
		var l lamports
		if err := json.Unmarshal([]byte(tt.in), &l); err != nil {
			t.Errorf("Unmarshal(%s): %v", tt.in, err)
			continue
		}
		if int64(l) != tt.want {
			t.Errorf("Unmarshal(%s) = %d, want %d", tt.in, l, tt.want)
		}
	}
}

func TestClient_ParseTransactions_MalformedAmount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"signature": "s1", "feePayer": "wallet1", "nativeTransfers": [
				{"fromUserAccount": "a", "toUserAccount": "wallet1", "amount": "lots"},
				{"fromUserAccount": "b", "toUserAccount": "wallet1", "amount": 250}
			]},
			{"signature": "s2", "feePayer": "wallet1", "nativeTransfers": [
				{"fromUserAccount": "wallet1", "toUserAccount": "c", "amount": {"value": 7}}
			]}
		]`))
	}))
	defer server.Close()

	client, err := NewClient("k1", WithParseURL(server.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	txs, err := client.ParseTransactions(context.Background(), []string{"s1", "s2"})
	if err != nil {
		t.Fatalf("one bad amount must not fail the batch: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}

	flows := funding.Aggregate(txs, "wallet1")
	if flows.InLamports != 250 || len(flows.In) != 1 || flows.In["b"] != 250 {
		t.Errorf("unexpected incoming flows: %+v", flows)
	}
	if flows.OutLamports != 0 || len(flows.Out) != 0 {
		t.Errorf("malformed outgoing transfer must be ignored: %+v", flows)
	}
}
