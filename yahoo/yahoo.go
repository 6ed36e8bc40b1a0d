// Package yahoo fetches dividend and split adjusted daily closes from the Yahoo
// Finance chart API and resamples them to month end.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/montecarlo/date"
	"github.com/phuslu/log"
)

// Client downloads prices from Yahoo Finance. The zero value is ready to use.
type Client struct {
	HTTP    *http.Client // http.DefaultClient if nil
	BaseURL string       // overrides the public endpoint, for tests
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

func (c *Client) baseURL() string {
	if c.BaseURL == "" {
		return "https://query1.finance.yahoo.com"
	}
	return strings.TrimSuffix(c.BaseURL, "/")
}

// MonthlyPrices returns month-end adjusted closes of ticker within [from, to].
// A zero from fetches the whole history and a zero to means today.
func (c *Client) MonthlyPrices(ctx context.Context, ticker string, from, to date.Date) (*date.History[float64], error) {
	period2 := time.Now().Unix()
	if !to.IsZero() {
		period2 = to.Add(1).Unix()
	}
	var period1 int64
	if !from.IsZero() {
		period1 = from.Unix()
	}
	q := url.Values{
		"interval": {"1d"},
		"period1":  {strconv.FormatInt(period1, 10)},
		"period2":  {strconv.FormatInt(period2, 10)},
		"events":   {"div,split"},
	}
	addr := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL(), url.PathEscape(ticker), q.Encode())
	log.Debug().Str("ticker", ticker).Str("url", addr).Msg("downloading from Yahoo Finance")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	// the api rejects requests without a browser like user agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; portfolio-tester/0.1)")
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cannot http GET %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}

	var jobj any
	if err := json.NewDecoder(resp.Body).Decode(&jobj); err != nil {
		return nil, fmt.Errorf("failed to decode chart of %s: %w", ticker, err)
	}
	h, err := parseChart(jobj)
	if err != nil {
		return nil, fmt.Errorf("chart of %s: %w", ticker, err)
	}
	return h.Between(from, to).MonthEnd(), nil
}

// parseChart extracts daily adjusted closes from a chart response.
func parseChart(jobj any) (*date.History[float64], error) {
	if desc, err := jsonpath.Get("$.chart.error.description", jobj); err == nil {
		if s, ok := desc.(string); ok && s != "" {
			return nil, fmt.Errorf("yahoo error: %s", s)
		}
	}
	timestamps, err := floats(jobj, "$.chart.result[0].timestamp")
	if err != nil {
		return nil, err
	}
	closes, err := floats(jobj, "$.chart.result[0].indicators.adjclose[0].adjclose")
	if err != nil {
		// adjusted closes are missing for some instruments, use the plain close.
		closes, err = floats(jobj, "$.chart.result[0].indicators.quote[0].close")
		if err != nil {
			return nil, err
		}
	}
	if len(closes) != len(timestamps) {
		return nil, fmt.Errorf("got %d prices for %d timestamps", len(closes), len(timestamps))
	}
	h := new(date.History[float64])
	for i, ts := range timestamps {
		v := closes[i]
		if math.IsNaN(v) || v <= 0 { // null or invalid
			continue
		}
		h.Append(date.FromTime(time.Unix(int64(ts), 0)), v)
	}
	if h.Len() == 0 {
		return nil, fmt.Errorf("no price returned")
	}
	return h, nil
}

// floats evaluates path into a list of numbers, JSON nulls become NaN.
func floats(jobj any, path string) ([]float64, error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return nil, fmt.Errorf("error parsing %q: %w", path, err)
	}
	list, ok := jval.([]any)
	if !ok {
		return nil, fmt.Errorf("error parsing %q: not a list but %T", path, jval)
	}
	res := make([]float64, len(list))
	for i, item := range list {
		f, ok := item.(float64)
		if !ok {
			f = math.NaN()
		}
		res[i] = f
	}
	return res, nil
}
