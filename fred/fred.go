// Package fred fetches economic time series from the Federal Reserve Bank of
// St. Louis (FRED).
//
// Keyless CSV downloads are used by default. When an API key is available
// (FRED_API_KEY) the JSON observations API is tried first.
package fred

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/montecarlo/date"
	"github.com/phuslu/log"
)

// EnvAPIKey is the environment variable holding the optional FRED API key.
const EnvAPIKey = "FRED_API_KEY"

// UserAgent is sent with every request.
const UserAgent = "portfolio-tester/0.1"

// Client downloads FRED series. The zero value is ready to use.
type Client struct {
	HTTP   *http.Client // http.DefaultClient if nil
	APIKey string       // optional
	// BaseURL and APIURL override the public endpoints, for tests.
	BaseURL string
	APIURL  string
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

func (c *Client) baseURL() string {
	if c.BaseURL == "" {
		return "https://fred.stlouisfed.org"
	}
	return strings.TrimSuffix(c.BaseURL, "/")
}

func (c *Client) apiURL() string {
	if c.APIURL == "" {
		return "https://api.stlouisfed.org"
	}
	return strings.TrimSuffix(c.APIURL, "/")
}

// Series returns the month-end values of a series within [from, to], zero bounds
// being open. Every endpoint is tried in turn and the first success wins.
func (c *Client) Series(ctx context.Context, id string, from, to date.Date) (*date.History[float64], error) {
	type attempt struct {
		url   string
		parse func(io.Reader, string) (*date.History[float64], error)
	}
	var attempts []attempt
	if c.APIKey != "" {
		q := url.Values{"series_id": {id}, "api_key": {c.APIKey}, "file_type": {"json"}}
		attempts = append(attempts, attempt{c.apiURL() + "/fred/series/observations?" + q.Encode(), parseJSON})
	}
	attempts = append(attempts,
		attempt{fmt.Sprintf("%s/series/%s/downloaddata/%s.csv", c.baseURL(), id, id), parseCSV},
		attempt{fmt.Sprintf("%s/graph/fredgraph.csv?id=%s", c.baseURL(), url.QueryEscape(id)), parseCSV},
	)

	var lastErr error
	for _, a := range attempts {
		h, err := c.try(ctx, a.url, id, a.parse)
		if err != nil {
			log.Debug().Err(err).Str("series", id).Msg("FRED attempt failed")
			lastErr = err
			continue
		}
		return h.Between(from, to).MonthEnd(), nil
	}
	return nil, fmt.Errorf("failed to fetch FRED series %s: %w", id, lastErr)
}

func (c *Client) try(ctx context.Context, addr, id string, parse func(io.Reader, string) (*date.History[float64], error)) (*date.History[float64], error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cannot http GET %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	if ct := strings.ToLower(resp.Header.Get("Content-Type")); strings.Contains(ct, "html") {
		return nil, fmt.Errorf("unexpected content type %q", ct)
	}
	h, err := parse(resp.Body, id)
	if err != nil {
		return nil, err
	}
	if h.Len() == 0 {
		return nil, errors.New("no observation")
	}
	return h, nil
}

// parseCSV reads the FRED CSV format. The date column is either "DATE" or
// "observation_date", the value column is named after the series or else is
// the first other column. Missing values (".") are skipped.
func parseCSV(r io.Reader, id string) (*date.History[float64], error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) < 1 {
		return nil, errors.New("empty csv")
	}

	header := records[0]
	dateCol, valueCol := -1, -1
	for i, name := range header {
		switch n := strings.TrimSpace(name); {
		case strings.EqualFold(n, "date") || strings.EqualFold(n, "observation_date"):
			if dateCol < 0 {
				dateCol = i
			}
		case n == id:
			valueCol = i
		}
	}
	if dateCol < 0 {
		return nil, fmt.Errorf("csv missing a DATE/observation_date column, got %v", header)
	}
	if valueCol < 0 {
		for i := range header {
			if i != dateCol {
				valueCol = i
				break
			}
		}
	}
	if valueCol < 0 {
		return nil, errors.New("csv missing value column")
	}

	h := new(date.History[float64])
	for _, rec := range records[1:] {
		if len(rec) <= dateCol || len(rec) <= valueCol {
			continue
		}
		on, err := date.Parse(strings.TrimSpace(rec[dateCol]))
		if err != nil {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[valueCol]), 64)
		if err != nil {
			continue
		}
		h.Append(on, v)
	}
	return h, nil
}

// parseJSON reads the observations API response:
//
//	{"observations": [{"date": "1947-01-01", "value": "21.48"}, ...]}
func parseJSON(r io.Reader, _ string) (*date.History[float64], error) {
	var jobj any
	if err := json.NewDecoder(r).Decode(&jobj); err != nil {
		return nil, fmt.Errorf("failed to decode json: %w", err)
	}
	jval, err := jsonpath.Get("$.observations[*]", jobj)
	if err != nil {
		return nil, fmt.Errorf("error parsing observations: %w", err)
	}
	list, ok := jval.([]any)
	if !ok {
		return nil, fmt.Errorf("observations is not a list: %T", jval)
	}
	h := new(date.History[float64])
	for _, item := range list {
		obs, ok := item.(map[string]any)
		if !ok {
			continue
		}
		ds, _ := obs["date"].(string)
		vs, _ := obs["value"].(string)
		on, err := date.Parse(ds)
		if err != nil {
			continue
		}
		v, err := strconv.ParseFloat(vs, 64)
		if err != nil {
			continue // "." marks a missing value
		}
		h.Append(on, v)
	}
	return h, nil
}
