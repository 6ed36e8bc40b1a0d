// Package httpcache provides an http.Client that keeps successful responses on
// disk for a calendar period, so that repeated runs do not hit remote data
// sources more than once a day.
package httpcache

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"fmt"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"
	"time"

	"github.com/etnz/montecarlo/date"
	"github.com/phuslu/log"
)

// DefaultDir is the default cache folder, relative to the working directory.
const DefaultDir = "data_cache"

// Timeout applies to every request made by the clients of this package.
const Timeout = 30 * time.Second

// diskCache implements a simple disk cache for HTTP responses
type diskCache struct {
	base   http.RoundTripper
	dir    string
	prefix string
	period date.Period
	today  func() date.Date
}

// Key returns the cache file name for a request made on a given day: the prefix
// followed by the first 16 hex digits of a sha256 of the period, method and URL.
func Key(prefix string, period date.Period, on date.Date, method, url string) string {
	key := fmt.Sprintf("%s %s %s", period.Identifier(on), method, url)
	return fmt.Sprintf("%s_%x", prefix, sha256.Sum256([]byte(key)))[:len(prefix)+1+16]
}

// RoundTrip implements the http.RoundTripper interface. It checks for a cached
// response on disk first. If a fresh cached response is not found, it proceeds
// with the actual HTTP request and caches the new response if it's successful.
func (c *diskCache) RoundTrip(req *http.Request) (resp *http.Response, err error) {
	key := Key(c.prefix, c.period, c.today(), req.Method, req.URL.String())

	cachedResp, err := c.get(key, req)
	if err == nil { // Cache hit
		log.Debug().Str("key", key).Str("url", req.URL.Redacted()).Msg("cache hit")
		return cachedResp, nil
	}

	resp, err = c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	log.Info().Str("method", req.Method).Str("host", req.URL.Host).Str("path", req.URL.Path).Str("status", resp.Status).Msg("http")
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, nil
	}

	// otherwise attempt to store it in cache
	if err := c.put(key, resp); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache write error (ignored)")
	}
	return resp, nil
}

// get retrieves a cached response from disk
func (c *diskCache) get(key string, req *http.Request) (resp *http.Response, err error) {
	content, err := os.ReadFile(filepath.Join(c.dir, key))
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewBuffer(content)), req)
}

// put stores a response to disk cache. The response body remains readable.
func (c *diskCache) put(key string, resp *http.Response) (err error) {
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, key), content, 0o644)
}

// Options configures a caching client.
type Options struct {
	Dir    string      // cache folder, DefaultDir if empty
	Prefix string      // file name prefix, typically the data source name
	Period date.Period // entries expire when the period changes, daily by default
	// Base is the underlying transport. The default one ignores proxy
	// environment variables.
	Base http.RoundTripper
}

// NewClient returns an http.Client that caches successful responses on disk.
func NewClient(opts Options) *http.Client {
	if opts.Dir == "" {
		opts.Dir = DefaultDir
	}
	if opts.Prefix == "" {
		opts.Prefix = "http"
	}
	if opts.Base == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.Proxy = nil
		opts.Base = t
	}
	return &http.Client{
		Timeout: Timeout,
		Transport: &diskCache{
			base:   opts.Base,
			dir:    opts.Dir,
			prefix: opts.Prefix,
			period: opts.Period,
			today:  date.Today,
		},
	}
}

// Clear removes every cached entry with the given prefix, all of them if prefix is empty.
func Clear(dir, prefix string) (removed int, err error) {
	if dir == "" {
		dir = DefaultDir
	}
	pattern := "*_*"
	if prefix != "" {
		pattern = prefix + "_*"
	}
	files, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return 0, err
	}
	for _, f := range files {
		if err := os.Remove(f); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
