package market

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/etnz/montecarlo/date"
	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"
)

// PriceSource provides total-return (dividend and split adjusted) prices.
type PriceSource interface {
	// MonthlyPrices returns month-end prices of ticker within [from, to]. Zero
	// bounds are open.
	MonthlyPrices(ctx context.Context, ticker string, from, to date.Date) (*date.History[float64], error)
}

// SeriesSource provides macro economic series.
type SeriesSource interface {
	// Series returns month-end values of a series within [from, to].
	Series(ctx context.Context, id string, from, to date.Date) (*date.History[float64], error)
}

// maxConcurrentFetches bounds the number of parallel downloads.
const maxConcurrentFetches = 4

// FetchPrices downloads the prices of all tickers concurrently. A ticker
// listed twice is fetched once.
//
// Tickers that fail are logged and left out of the result; the error joins
// all failures and is nil only if every ticker succeeded. Callers may still use
// a partial result.
func FetchPrices(ctx context.Context, src PriceSource, tickers []string, from, to date.Date) (map[string]*date.History[float64], error) {
	var (
		mu   sync.Mutex
		res  = make(map[string]*date.History[float64], len(tickers))
		errs error
	)
	var g errgroup.Group
	g.SetLimit(maxConcurrentFetches)
	seen := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		if seen[t] {
			continue
		}
		seen[t] = true
		g.Go(func() error {
			err := ctx.Err()
			var h *date.History[float64]
			if err == nil {
				h, err = src.MonthlyPrices(ctx, t, from, to)
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn().Err(err).Str("ticker", t).Msg("cannot fetch prices")
				errs = errors.Join(errs, fmt.Errorf("ticker %s: %w", t, err))
				return nil
			}
			res[t] = h
			return nil
		})
	}
	// goroutines never fail, errors are accumulated instead.
	_ = g.Wait()
	return res, errs
}
