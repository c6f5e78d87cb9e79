// Package forecast consumes an external price forecaster. Its output is
// advisory: a failure falls back to technical signals alone.
package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/smartman0307/pycryptobot/internal/strategy"
)

const requestTimeout = 5 * time.Second

// Client queries a forecaster's HTTP endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a forecaster client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

type forecastResponse struct {
	Market         string  `json:"market"`
	ProjectedPrice float64 `json:"projected_price"`
	Confidence     float64 `json:"confidence"`
}

// Advise fetches the forecaster's projection for the market. Callers treat
// any error as "no advice" and proceed on technical signals.
func (c *Client) Advise(ctx context.Context, market string) (*strategy.Forecast, error) {
	q := url.Values{}
	q.Set("market", market)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/forecast?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build forecast request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query forecaster: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("forecaster returned HTTP %d", resp.StatusCode)
	}

	var body forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}
	if body.ProjectedPrice <= 0 || body.Confidence < 0 || body.Confidence > 1 {
		return nil, fmt.Errorf("forecaster returned implausible payload: price=%f confidence=%f", body.ProjectedPrice, body.Confidence)
	}

	return &strategy.Forecast{
		ProjectedPrice: body.ProjectedPrice,
		Confidence:     body.Confidence,
	}, nil
}
