package coinbase

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/smartman0307/pycryptobot/internal/exchange"
	"github.com/smartman0307/pycryptobot/pkg/types"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(Config{
		APIKey:     "key",
		APISecret:  base64.StdEncoding.EncodeToString([]byte("secret")),
		Passphrase: "pass",
		BaseURL:    srv.URL,
	})
	return c, srv
}

func TestGetHistoricalDataReturnsAscendingCandles(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// rows arrive newest first: [time, low, high, open, close, volume]
		fmt.Fprint(w, `[[7200,98,102,100,101,10],[3600,97,101,99,100,12],[0,96,100,98,99,11]]`)
	}))

	candles, err := c.GetHistoricalData(context.Background(), "BTC-USD", types.GranularityOneHour, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("GetHistoricalData: %v", err)
	}
	if len(candles) != 3 {
		t.Fatalf("expected 3 candles, got %d", len(candles))
	}
	for i := 1; i < len(candles); i++ {
		if !candles[i].Timestamp.After(candles[i-1].Timestamp) {
			t.Fatal("candles should be sorted ascending")
		}
	}
	if candles[0].Open != 98 || candles[0].Close != 99 || candles[0].Low != 96 || candles[0].High != 100 {
		t.Errorf("column mapping wrong: %+v", candles[0])
	}
}

func TestSignedRequestCarriesAuthHeaders(t *testing.T) {
	var gotKey, gotSign, gotTimestamp, gotPassphrase string
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("CB-ACCESS-KEY")
		gotSign = r.Header.Get("CB-ACCESS-SIGN")
		gotTimestamp = r.Header.Get("CB-ACCESS-TIMESTAMP")
		gotPassphrase = r.Header.Get("CB-ACCESS-PASSPHRASE")
		fmt.Fprint(w, `[]`)
	}))

	if _, err := c.GetOrders(context.Background(), "BTC-USD"); err != nil {
		t.Fatalf("GetOrders: %v", err)
	}
	if gotKey != "key" || gotPassphrase != "pass" {
		t.Error("credentials not attached")
	}
	if gotSign == "" || gotTimestamp == "" {
		t.Error("request not signed")
	}
}

func TestClockSkewTriggersResignRetry(t *testing.T) {
	var attempts int
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/time" {
			fmt.Fprintf(w, `{"epoch":%d.0}`, time.Now().Add(45*time.Second).Unix())
			return
		}
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"message":"request timestamp expired"}`)
			return
		}
		fmt.Fprint(w, `[]`)
	}))

	if _, err := c.GetOrders(context.Background(), "BTC-USD"); err != nil {
		t.Fatalf("expected skew retry to succeed, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 order attempts, got %d", attempts)
	}
	c.mu.Lock()
	offset := c.timeOffset
	c.mu.Unlock()
	if offset < 30*time.Second {
		t.Errorf("expected clock offset to be adopted, got %s", offset)
	}
}

func TestInsufficientFundsClassified(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"message":"Insufficient funds"}`)
	}))

	_, err := c.PlaceMarketOrder(context.Background(), "BTC-USD", types.OrderSideBuy, 100, "oid-1")
	if !exchange.IsInsufficientFunds(err) {
		t.Errorf("expected insufficient funds error, got %v", err)
	}
}

func TestOrderStatusMapping(t *testing.T) {
	cases := []struct {
		status, doneReason string
		want               types.OrderStatus
	}{
		{"done", "filled", types.OrderStatusFilled},
		{"open", "", types.OrderStatusOpen},
		{"pending", "", types.OrderStatusOpen},
		{"rejected", "", types.OrderStatusRejected},
		{"done", "canceled", types.OrderStatusRejected},
		{"settling", "", types.OrderStatusUnknown},
	}
	for _, tc := range cases {
		o := orderResponse{Status: tc.status, DoneReason: tc.doneReason}.toOrder()
		if o.Status != tc.want {
			t.Errorf("status %q/%q mapped to %q, want %q", tc.status, tc.doneReason, o.Status, tc.want)
		}
	}
}

func TestEmptyOrderHistoryIsNotAnError(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))

	orders, err := c.GetOrders(context.Background(), "BTC-USD")
	if err != nil {
		t.Fatalf("empty history should not error: %v", err)
	}
	if len(orders) != 0 {
		t.Errorf("expected no orders, got %d", len(orders))
	}
}
