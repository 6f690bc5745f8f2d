// internal/chain/evm/dial_test.go
package evm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tamzrod/bridge-vaults-exporter/internal/chain"
)

// rpcStub answers eth_chainId; every other method gets a JSON-RPC error.
func rpcStub(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}

		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if req.Method == "eth_chainId" {
			resp["result"] = "0x38"
		} else {
			resp["error"] = map[string]any{"code": -32601, "message": "method not found"}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDial_ChainIDOverHTTP(t *testing.T) {
	srv := rpcStub(t, http.StatusOK)

	c, err := Dial(Config{Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("Dial() err=%v", err)
	}
	defer c.Close()

	id, err := c.ChainID(context.Background())
	if err != nil {
		t.Fatalf("ChainID() err=%v", err)
	}
	if id != 56 {
		t.Fatalf("expected chain id 56, got %d", id)
	}
}

func TestDial_HTTPUnavailableIsTransport(t *testing.T) {
	srv := rpcStub(t, http.StatusServiceUnavailable)

	c, err := Dial(Config{Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("Dial() err=%v", err)
	}
	defer c.Close()

	_, err = c.ChainID(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	if chain.KindOf(err) != chain.ErrTransport || !chain.IsTransient(err) {
		t.Fatalf("expected transient transport error, got %v", err)
	}
}

func TestDial_EmptyEndpoint(t *testing.T) {
	if _, err := Dial(Config{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDial_DeadWebsocketFailsOnRead(t *testing.T) {
	c, err := Dial(Config{Endpoint: "ws://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("Dial() must not connect, err=%v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err = c.ReadVaultState(ctx, vaultAddr)
	if err == nil {
		t.Fatalf("expected error")
	}
	if chain.KindOf(err) != chain.ErrTransport || !chain.IsTransient(err) {
		t.Fatalf("expected transient transport error, got %v", err)
	}
}
