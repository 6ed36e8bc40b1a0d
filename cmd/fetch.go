package cmd

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/etnz/montecarlo"
	"github.com/etnz/montecarlo/date"
	"github.com/etnz/montecarlo/httpcache"
	"github.com/etnz/montecarlo/market"
	"github.com/google/subcommands"
	"github.com/phuslu/log"
)

// PricesFileName is the file written by fetch, usable as a csv source.
const PricesFileName = "prices_monthly.csv"

type fetchCmd struct {
	tickers string
	series  string
	output  string
	start   string
	end     string
	refresh bool
	rows    int
}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "download monthly prices and macro series to csv files" }
func (*fetchCmd) Usage() string {
	return `mcpt fetch [-tickers VTI,TLT] [-series CPIAUCSL,TB3MS] [-o <dir>] [-refresh]

  Downloads month-end prices of the tickers and the FRED series, prints the
  first and last rows of each, and saves them as csv files in the output
  folder: ` + PricesFileName + ` and ` + market.SeriesFileName("<id>") + `.

  A scenario with source = "csv" and prices_file pointing at the saved prices
  then runs offline.
`
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	tickers := montecarlo.DefaultScenario().Portfolio.Tickers()
	f.StringVar(&c.tickers, "tickers", strings.Join(tickers, ","), "Comma separated tickers.")
	f.StringVar(&c.series, "series", market.CPISeries+","+market.RiskFreeSeries, "Comma separated FRED series.")
	f.StringVar(&c.output, "o", ".", "Output folder.")
	f.StringVar(&c.start, "start", "", "First date (YYYY-MM-DD), all history by default.")
	f.StringVar(&c.end, "end", "", "Last date (YYYY-MM-DD), today by default.")
	f.BoolVar(&c.refresh, "refresh", false, "Clear the cache of the data sources before downloading.")
	f.IntVar(&c.rows, "rows", 10, "Number of first and last rows to print.")
}

func (c *fetchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg := montecarlo.DataConfig{Start: c.start, End: c.end, Source: *sourceFlag}
	if cfg.Source == "" {
		cfg.Source = montecarlo.SourceYahoo
	}
	if cfg.Source == montecarlo.SourceCSV {
		fmt.Fprintln(os.Stderr, "Error: fetch downloads from a remote source, use -source yahoo or eodhd")
		return subcommands.ExitUsageError
	}
	from, to, err := cfg.Range()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	if c.refresh {
		for _, prefix := range []string{cfg.Source, "fred"} {
			n, err := httpcache.Clear(*cacheDir, prefix)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error clearing cache: %v\n", err)
				return subcommands.ExitFailure
			}
			log.Info().Str("prefix", prefix).Int("entries", n).Msg("cache cleared")
		}
	}
	if err := os.MkdirAll(c.output, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	prices, err := newPriceSource(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	series := newSeriesSource(cfg)

	var errs error
	var doc strings.Builder

	tickers := splitList(c.tickers)
	px, err := market.FetchPrices(ctx, prices, tickers, from, to)
	if err != nil {
		errs = errors.Join(errs, err)
	}
	if len(px) > 0 {
		path := filepath.Join(c.output, PricesFileName)
		if err := saveCSV(path, func(b *bytes.Buffer) error { return market.EncodePricesCSV(b, px, tickers) }); err != nil {
			errs = errors.Join(errs, err)
		} else {
			fmt.Fprintf(&doc, "# Prices (%s)\n\n", cfg.Source)
			writeHeadTail(&doc, px, tickers, c.rows)
			fmt.Fprintf(&doc, "Saved %d tickers to `%s`.\n\n", len(px), path)
		}
	}

	for _, id := range splitList(c.series) {
		h, err := series.Series(ctx, id, from, to)
		if err != nil {
			log.Warn().Err(err).Str("series", id).Msg("cannot fetch series")
			errs = errors.Join(errs, fmt.Errorf("series %s: %w", id, err))
			continue
		}
		path := filepath.Join(c.output, market.SeriesFileName(id))
		if err := saveCSV(path, func(b *bytes.Buffer) error { return market.EncodeSeriesCSV(b, id, h) }); err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		m := map[string]*date.History[float64]{id: h}
		fmt.Fprintf(&doc, "# FRED %s\n\n", id)
		writeHeadTail(&doc, m, []string{id}, c.rows)
		fmt.Fprintf(&doc, "Saved to `%s`.\n\n", path)
	}

	printMarkdown(doc.String())
	if errs != nil {
		fmt.Fprintf(os.Stderr, "Error fetching data: %v\n", errs)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// splitList splits a comma separated list, ignoring empty items.
func splitList(s string) []string {
	var res []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			res = append(res, item)
		}
	}
	return res
}

func saveCSV(path string, encode func(*bytes.Buffer) error) error {
	var b bytes.Buffer
	if err := encode(&b); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return os.WriteFile(path, b.Bytes(), 0o644)
}

// writeHeadTail writes a markdown table of the first and last n months of
// series, and their size.
func writeHeadTail(w *strings.Builder, series map[string]*date.History[float64], order []string, n int) {
	var columns []string
	var days []date.Date
	seen := make(map[date.Date]bool)
	for _, id := range order {
		h, ok := series[id]
		if !ok {
			continue
		}
		columns = append(columns, id)
		for _, d := range h.Dates() {
			if !seen[d] {
				seen[d] = true
				days = append(days, d)
			}
		}
	}
	// histories are sorted, their union is not.
	slices.SortFunc(days, date.Date.Compare)

	fmt.Fprintf(w, "| date | %s |\n", strings.Join(columns, " | "))
	fmt.Fprintf(w, "|:---|%s\n", strings.Repeat("---:|", len(columns)))
	row := func(d date.Date) {
		cells := make([]string, len(columns))
		for i, id := range columns {
			if v, ok := series[id].Get(d); ok {
				cells[i] = strconv.FormatFloat(v, 'f', 2, 64)
			}
		}
		fmt.Fprintf(w, "| %s | %s |\n", d, strings.Join(cells, " | "))
	}
	if len(days) <= 2*n {
		for _, d := range days {
			row(d)
		}
	} else {
		for _, d := range days[:n] {
			row(d)
		}
		fmt.Fprintf(w, "| ... |%s\n", strings.Repeat(" |", len(columns)))
		for _, d := range days[len(days)-n:] {
			row(d)
		}
	}
	fmt.Fprintf(w, "\n%d months × %d columns.\n\n", len(days), len(columns))
}
