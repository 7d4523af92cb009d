package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"btc-payment-gateway/internal/core/ports"

	"github.com/shopspring/decimal"
)

// ExchangeRateAdapterConstructor builds a named exchange-rate adapter.
type ExchangeRateAdapterConstructor func(client *http.Client) ports.ExchangeRateAdapter

// exchangeRateAdapters is the compile-time adapter registry.
var exchangeRateAdapters = map[string]ExchangeRateAdapterConstructor{
	"Coinbase": func(client *http.Client) ports.ExchangeRateAdapter {
		return NewCoinbaseRateAdapter(client)
	},
}

// NewExchangeRateAdapters resolves a prioritized adapter list from names,
// skipping unknown entries.
func NewExchangeRateAdapters(names []string, client *http.Client) []ports.ExchangeRateAdapter {
	var out []ports.ExchangeRateAdapter
	for _, name := range names {
		if ctor, ok := exchangeRateAdapters[name]; ok {
			out = append(out, ctor(client))
		}
	}
	return out
}

// CoinbaseRateAdapter quotes BTC spot prices from the Coinbase public API.
type CoinbaseRateAdapter struct {
	client *http.Client
	base   string
}

// NewCoinbaseRateAdapter creates the adapter.
func NewCoinbaseRateAdapter(client *http.Client) *CoinbaseRateAdapter {
	if client == nil {
		client = http.DefaultClient
	}
	return &CoinbaseRateAdapter{client: client, base: "https://api.coinbase.com/v2"}
}

func (a *CoinbaseRateAdapter) Name() string { return "Coinbase" }

// Rate returns the BTC price in currency.
func (a *CoinbaseRateAdapter) Rate(ctx context.Context, currency string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/prices/BTC-%s/spot", a.base, strings.ToUpper(currency))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("coinbase spot price: status %d", resp.StatusCode)
	}

	var body struct {
		Data struct {
			Amount string `json:"amount"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, err
	}
	rate, err := decimal.NewFromString(body.Data.Amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("coinbase spot price: %w", err)
	}
	return rate, nil
}

// FixedRateAdapter quotes a constant rate. Used in tests and for gateways
// that pin their own conversion rate.
type FixedRateAdapter struct {
	rate decimal.Decimal
}

// NewFixedRateAdapter creates an adapter quoting rate for every currency.
func NewFixedRateAdapter(rate decimal.Decimal) *FixedRateAdapter {
	return &FixedRateAdapter{rate: rate}
}

func (a *FixedRateAdapter) Name() string { return "Fixed" }

func (a *FixedRateAdapter) Rate(ctx context.Context, currency string) (decimal.Decimal, error) {
	return a.rate, nil
}
