package bybit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartman0307/pycryptobot/internal/exchange"
	"github.com/smartman0307/pycryptobot/pkg/types"
)

func newStubClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Client{
		httpClient: bybit_api.NewBybitHttpClient("", "", bybit_api.WithBaseURL(srv.URL)),
	}
}

func TestGetHistoricalDataParsesAndSortsAscending(t *testing.T) {
	base := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	// Bybit returns rows newest first.
	body := fmt.Sprintf(`{"retCode":0,"retMsg":"OK","result":{"category":"spot","symbol":"BTCUSDT","list":[
		["%d","101","102","100","101.5","12","1218"],
		["%d","100","101","99","101","10","1005"]
	]}}`, base.Add(time.Hour).UnixMilli(), base.UnixMilli())

	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v5/market/kline", r.URL.Path)
		fmt.Fprint(w, body)
	})

	candles, err := c.GetHistoricalData(context.Background(), "BTCUSDT", types.GranularityOneHour, base, base.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, base, candles[0].Timestamp)
	assert.Equal(t, 100.0, candles[0].Open)
	assert.Equal(t, 101.5, candles[1].Close)
}

func TestGetTickerReadsLastPrice(t *testing.T) {
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"retCode":0,"retMsg":"OK","result":{"list":[{"lastPrice":"64250.5"}]}}`)
	})

	price, err := c.GetTicker(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 64250.5, price)
}

func TestCallClassifiesRetCodes(t *testing.T) {
	cases := []struct {
		retCode int
		check   func(error) bool
	}{
		{retCodeRateLimited, exchange.IsTransient},
		{retCodeBadTimestamp, exchange.IsClockSkew},
		{retCodeInvalidAPIKey, exchange.IsAuthError},
		{retCodeSpotNoBalance, exchange.IsInsufficientFunds},
	}
	for _, tc := range cases {
		c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `{"retCode":%d,"retMsg":"nope","result":{}}`, tc.retCode)
		})
		_, err := c.GetTicker(context.Background(), "BTCUSDT")
		require.Error(t, err)
		assert.True(t, tc.check(err), "retCode %d misclassified: %v", tc.retCode, err)
	}
}
