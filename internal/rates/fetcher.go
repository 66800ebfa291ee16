// Package rates implements the remote exchange-rate fetcher. It talks to
// two upstream providers: DolarAPI for the official and blue USD/ARS
// quotes, and CoinGecko for BTC priced in USD and ARS. The raw provider
// responses are preserved so stored quotes stay auditable.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aikirias/FinTrack/internal/core"
)

type Client struct {
	httpClient   *http.Client
	dolarURL     string
	coingeckoURL string
}

func NewClient(dolarURL, coingeckoURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		dolarURL:     dolarURL,
		coingeckoURL: coingeckoURL,
	}
}

type dolarQuote struct {
	Casa  string          `json:"casa"`
	Venta decimal.Decimal `json:"venta"`
}

type coingeckoPrice struct {
	USD decimal.Decimal `json:"usd"`
	ARS decimal.Decimal `json:"ars"`
}

// FetchDaily retrieves today's rates from both providers. Any transport or
// parse failure is wrapped in core.ErrRateFetchFailed; retrying is the
// caller's decision.
func (c *Client) FetchDaily(ctx context.Context) (core.RateValues, json.RawMessage, error) {
	dolarBody, err := c.get(ctx, c.dolarURL)
	if err != nil {
		return core.RateValues{}, nil, fmt.Errorf("%w: dolar quotes: %v", core.ErrRateFetchFailed, err)
	}

	var quotes []dolarQuote
	if err := json.Unmarshal(dolarBody, &quotes); err != nil {
		return core.RateValues{}, nil, fmt.Errorf("%w: parse dolar response: %v", core.ErrRateFetchFailed, err)
	}

	var values core.RateValues
	for _, quote := range quotes {
		switch quote.Casa {
		case "oficial":
			values.USDARSOfficial = quote.Venta
		case "blue":
			values.USDARSBlue = decimal.NullDecimal{Decimal: quote.Venta, Valid: true}
		}
	}
	if values.USDARSOfficial.IsZero() {
		return core.RateValues{}, nil, fmt.Errorf("%w: official USD/ARS quote missing from response", core.ErrRateFetchFailed)
	}

	geckoURL := c.coingeckoURL
	if u, err := url.Parse(geckoURL); err == nil {
		query := u.Query()
		query.Set("ids", "bitcoin")
		query.Set("vs_currencies", "usd,ars")
		u.RawQuery = query.Encode()
		geckoURL = u.String()
	}
	geckoBody, err := c.get(ctx, geckoURL)
	if err != nil {
		return core.RateValues{}, nil, fmt.Errorf("%w: bitcoin price: %v", core.ErrRateFetchFailed, err)
	}

	var prices map[string]coingeckoPrice
	if err := json.Unmarshal(geckoBody, &prices); err != nil {
		return core.RateValues{}, nil, fmt.Errorf("%w: parse bitcoin response: %v", core.ErrRateFetchFailed, err)
	}
	bitcoin, ok := prices["bitcoin"]
	if !ok || bitcoin.USD.IsZero() || bitcoin.ARS.IsZero() {
		return core.RateValues{}, nil, fmt.Errorf("%w: bitcoin price missing from response", core.ErrRateFetchFailed)
	}
	values.BTCUSD = bitcoin.USD
	values.BTCARS = bitcoin.ARS

	raw, err := json.Marshal(map[string]json.RawMessage{
		"dolarapi":  dolarBody,
		"coingecko": geckoBody,
	})
	if err != nil {
		return core.RateValues{}, nil, fmt.Errorf("%w: assemble raw payload: %v", core.ErrRateFetchFailed, err)
	}

	return values, raw, nil
}

func (c *Client) get(ctx context.Context, rawURL string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}
