package coinbase

import (
	"context"
	"net/http"
	"strconv"

	"github.com/smartman0307/pycryptobot/pkg/types"
)

type accountResponse struct {
	Currency  string `json:"currency"`
	Available string `json:"available"`
	Hold      string `json:"hold"`
}

// GetBalance returns the available and held funds for one currency. An
// account the exchange has never opened reports as zero.
func (c *Client) GetBalance(ctx context.Context, currency string) (types.Balance, error) {
	var accounts []accountResponse
	if err := c.do(ctx, http.MethodGet, "/accounts", nil, true, &accounts); err != nil {
		return types.Balance{}, err
	}

	for _, a := range accounts {
		if a.Currency != currency {
			continue
		}
		available, _ := strconv.ParseFloat(a.Available, 64)
		hold, _ := strconv.ParseFloat(a.Hold, 64)
		return types.Balance{Currency: currency, Available: available, Hold: hold}, nil
	}
	return types.Balance{Currency: currency}, nil
}
