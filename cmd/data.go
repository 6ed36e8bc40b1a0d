package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"

	"github.com/etnz/montecarlo"
	"github.com/etnz/montecarlo/date"
	"github.com/etnz/montecarlo/eodhd"
	"github.com/etnz/montecarlo/fred"
	"github.com/etnz/montecarlo/httpcache"
	"github.com/etnz/montecarlo/market"
	"github.com/etnz/montecarlo/yahoo"
	"github.com/phuslu/log"
)

// cacheClient returns an HTTP client caching responses under prefix.
func cacheClient(prefix string) *http.Client {
	period, err := date.ParsePeriod(*cachePeriod)
	if err != nil {
		log.Warn().Err(err).Msg("using a daily cache")
		period = date.Daily
	}
	return httpcache.NewClient(httpcache.Options{Dir: *cacheDir, Prefix: prefix, Period: period})
}

// newPriceSource returns the price source of cfg.
func newPriceSource(cfg montecarlo.DataConfig) (market.PriceSource, error) {
	switch cfg.Source {
	case montecarlo.SourceYahoo, "":
		return &yahoo.Client{HTTP: cacheClient("yahoo")}, nil
	case montecarlo.SourceEODHD:
		return &eodhd.Client{
			HTTP:   cacheClient("eodhd"),
			APIKey: os.Getenv(eodhd.EnvAPIKey),
		}, nil
	case montecarlo.SourceCSV:
		if cfg.PricesFile == "" {
			return nil, errors.New("csv source requires a prices file")
		}
		return market.OpenCSVSource(cfg.PricesFile)
	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.Source)
	}
}

// newSeriesSource returns the macro series source of cfg: the files saved next
// to the prices file for the csv source, FRED otherwise.
func newSeriesSource(cfg montecarlo.DataConfig) market.SeriesSource {
	if cfg.Source == montecarlo.SourceCSV {
		return market.CSVSeriesSource{Dir: filepath.Dir(cfg.PricesFile)}
	}
	return &fred.Client{
		HTTP:   cacheClient("fred"),
		APIKey: os.Getenv(fred.EnvAPIKey),
	}
}

// applySource overrides the scenario source with the -source flag.
func applySource(s *montecarlo.Scenario) {
	if *sourceFlag != "" {
		s.Data.Source = *sourceFlag
	}
}

// loadReturns fetches and prepares the monthly history of a scenario.
//
// Every ticker of the portfolio must have data. Macro series are required from
// FRED, local files may be missing in which case inflation and risk-free rates
// are 0.
func loadReturns(ctx context.Context, s *montecarlo.Scenario, prices market.PriceSource, series market.SeriesSource) (*market.Returns, error) {
	from, to, err := s.Data.Range()
	if err != nil {
		return nil, err
	}
	tickers := s.Portfolio.Tickers()
	log.Info().Strs("tickers", tickers).Str("source", s.Data.Source).Msg("loading prices")
	px, err := market.FetchPrices(ctx, prices, tickers, from, to)
	if err != nil {
		return nil, err
	}

	// macro series are fetched whole, they are aligned on the prices later.
	macro := make(map[string]*date.History[float64], 2)
	for _, id := range []string{market.CPISeries, market.RiskFreeSeries} {
		h, err := series.Series(ctx, id, date.Date{}, date.Date{})
		switch {
		case err == nil:
			macro[id] = h
		case s.Data.Source == montecarlo.SourceCSV && errors.Is(err, os.ErrNotExist):
			log.Warn().Str("series", id).Msg("no local file, series taken as 0")
		default:
			return nil, fmt.Errorf("series %s: %w", id, err)
		}
	}

	r, err := market.Prepare(px, tickers, macro[market.CPISeries], macro[market.RiskFreeSeries], s.Data)
	if err != nil {
		return nil, err
	}
	if !slices.Equal(r.Tickers, tickers) {
		var missing []string
		for _, t := range tickers {
			if !slices.Contains(r.Tickers, t) {
				missing = append(missing, t)
			}
		}
		return nil, fmt.Errorf("%w: no price history for %v", market.ErrNoData, missing)
	}
	log.Info().Int("months", r.Len()).Str("from", r.Months[0].String()).Str("to", r.Months[r.Len()-1].String()).Msg("history ready")
	return r, nil
}
