// Package eodhd fetches adjusted end of day prices from eodhd.com.
package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/etnz/montecarlo/date"
	"github.com/phuslu/log"
	"github.com/shopspring/decimal"
)

// EnvAPIKey is the environment variable holding the EODHD API key.
const EnvAPIKey = "EODHD_API_KEY"

// DemoKey works for a handful of tickers only (e.g. MCD.US, AAPL.US).
const DemoKey = "demo"

// Client downloads prices from EODHD. The zero value uses the demo key.
type Client struct {
	HTTP    *http.Client // http.DefaultClient if nil
	APIKey  string
	BaseURL string // overrides the public endpoint, for tests
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

func (c *Client) apiKey() string {
	if c.APIKey == "" {
		return DemoKey
	}
	return c.APIKey
}

func (c *Client) baseURL() string {
	if c.BaseURL == "" {
		return "https://eodhd.com"
	}
	return strings.TrimSuffix(c.BaseURL, "/")
}

// Ticker returns the EODHD ticker: "SYMBOL.EXCHANGE", US by default.
func Ticker(ticker string) string {
	if strings.Contains(ticker, ".") {
		return ticker
	}
	return ticker + ".US"
}

// MonthlyPrices returns month-end adjusted closes of ticker within [from, to].
func (c *Client) MonthlyPrices(ctx context.Context, ticker string, from, to date.Date) (*date.History[float64], error) {
	// https://eodhd.com/api/eod/MCD.US?api_token=demo&fmt=json
	// [
	//	{
	//		"date": "2024-02-13",
	//		"open": 675.066,
	//		"close": 668.445,
	//		"adjusted_close": 67.705,
	//		"volume": 0
	//	},
	q := url.Values{"fmt": {"json"}, "api_token": {c.apiKey()}}
	if !from.IsZero() {
		q.Set("from", from.String())
	}
	if !to.IsZero() {
		q.Set("to", to.String())
	}
	addr := fmt.Sprintf("%s/api/eod/%s?%s", c.baseURL(), url.PathEscape(Ticker(ticker)), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cannot http GET %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}

	type Info struct {
		Date          date.Date       `json:"date"`
		AdjustedClose decimal.Decimal `json:"adjusted_close"`
	}

	// that's the payload
	content := make([]Info, 0)
	if err := json.NewDecoder(resp.Body).Decode(&content); err != nil {
		return nil, fmt.Errorf("failed to decode prices of %s: %w", ticker, err)
	}
	log.Debug().Str("ticker", ticker).Int("days", len(content)).Msg("eodhd prices")

	h := new(date.History[float64])
	for _, info := range content {
		if !info.AdjustedClose.IsPositive() {
			continue
		}
		h.Append(info.Date, info.AdjustedClose.InexactFloat64())
	}
	if h.Len() == 0 {
		return nil, fmt.Errorf("no price returned for %s", ticker)
	}
	return h.MonthEnd(), nil
}
