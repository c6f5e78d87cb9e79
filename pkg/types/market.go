package types

import (
	"fmt"
	"strings"
)

// knownQuotes covers the quote currencies of markets without an explicit
// separator, longest suffix first.
var knownQuotes = []string{"USDT", "USDC", "BUSD", "TUSD", "USD", "EUR", "GBP", "BTC", "ETH"}

// SplitMarket breaks a market identifier into base and quote currencies.
// Dash-separated products split on the dash, concatenated symbols match
// against known quote suffixes.
func SplitMarket(market string) (base, quote string, err error) {
	if i := strings.IndexByte(market, '-'); i > 0 {
		base, quote = market[:i], market[i+1:]
		if base == "" || quote == "" {
			return "", "", fmt.Errorf("invalid market %q", market)
		}
		return base, quote, nil
	}

	upper := strings.ToUpper(market)
	for _, q := range knownQuotes {
		if strings.HasSuffix(upper, q) && len(upper) > len(q) {
			return upper[:len(upper)-len(q)], q, nil
		}
	}
	return "", "", fmt.Errorf("cannot determine quote currency of market %q", market)
}
