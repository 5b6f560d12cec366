package entropy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNilClientFallsBack(t *testing.T) {
	var c *Client
	if s := c.Seed(); s <= 0 {
		t.Errorf("nil client seed = %d, want positive", s)
	}
	if NewClient("") != nil {
		t.Errorf("NewClient with empty key should return nil")
	}
}

func TestResolveKeepsExplicitSeed(t *testing.T) {
	if got := Resolve(nil, 42); got != 42 {
		t.Errorf("Resolve(nil, 42) = %d", got)
	}
	if got := Resolve(nil, 0); got == 0 {
		t.Errorf("Resolve(nil, 0) returned zero")
	}
}

func TestSeedFromPool(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req struct {
			Method string `json:"method"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Method != "generateIntegers" {
			t.Errorf("method = %q", req.Method)
		}
		w.Write([]byte(`{"jsonrpc":"2.0","result":{"random":{"data":[11,22]}},"id":1}`))
	}))
	defer srv.Close()

	c := NewClient("key")
	c.endpoint = srv.URL

	for i, want := range []int64{11, 22, 11} {
		if got := c.Seed(); got != want {
			t.Errorf("seed %d = %d, want %d", i, got, want)
		}
	}
	if calls != 2 {
		t.Errorf("refilled %d times, want 2", calls)
	}
}

func TestSeedAPIErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","error":{"message":"bad key"},"id":1}`))
	}))
	defer srv.Close()

	c := NewClient("key")
	c.endpoint = srv.URL
	if s := c.Seed(); s <= 0 {
		t.Errorf("fallback seed = %d, want positive", s)
	}
}
