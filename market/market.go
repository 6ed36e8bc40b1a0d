// Package market turns monthly price and macro series into the table of
// monthly returns that the simulation resamples.
package market

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/etnz/montecarlo"
	"github.com/etnz/montecarlo/date"
	"github.com/phuslu/log"
)

// FRED series used to build the macro columns.
const (
	CPISeries      = "CPIAUCSL" // consumer price index, monthly
	RiskFreeSeries = "TB3MS"    // 3-month treasury bill, percent per year
)

// ErrNoData is returned when the history is too short to compute returns.
var ErrNoData = errors.New("not enough common monthly history")

// Returns is a history of monthly simple returns aligned on month-end dates.
type Returns struct {
	Months    []date.Date // month-end date of each row
	Tickers   []string    // column order of Assets
	Assets    [][]float64 // Assets[t][i] is the return of Tickers[i] during month t
	Inflation []float64   // CPI change during month t
	RiskFree  []float64   // monthly risk-free rate during month t
}

// Len returns the number of months.
func (r *Returns) Len() int { return len(r.Months) }

// Years returns the distinct calendar years in chronological order, and for
// each one the indices of its months.
func (r *Returns) Years() (years []int, months map[int][]int) {
	months = make(map[int][]int)
	for i, m := range r.Months {
		y := m.Year()
		if _, ok := months[y]; !ok {
			years = append(years, y)
		}
		months[y] = append(months[y], i)
	}
	return years, months
}

// Column returns the returns of a single ticker.
func (r *Returns) Column(ticker string) ([]float64, bool) {
	i := slices.Index(r.Tickers, ticker)
	if i < 0 {
		return nil, false
	}
	col := make([]float64, len(r.Assets))
	for t, row := range r.Assets {
		col[t] = row[i]
	}
	return col, true
}

// Prepare builds the monthly returns table.
//
// Prices are resampled to month end and trimmed to the configured range. Tickers
// without any price are dropped. When cfg.Overlap() only months where every
// remaining ticker has a price are kept, otherwise missing prices are carried
// forward from the previous month. Returns are simple returns between
// consecutive kept months, so the first month is consumed.
//
// Inflation is the monthly change of cpi and the risk-free rate converts the
// annual percent tb3 into a monthly rate. Both are carried forward over gaps,
// and default to 0 where unknown. cpi and tb3 may be nil.
func Prepare(prices map[string]*date.History[float64], order []string, cpi, tb3 *date.History[float64], cfg montecarlo.DataConfig) (*Returns, error) {
	from, to, err := cfg.Range()
	if err != nil {
		return nil, err
	}

	// monthly, trimmed, non empty series
	var tickers []string
	var series []*date.History[float64]
	for _, t := range order {
		h, ok := prices[t]
		if !ok || h == nil {
			log.Warn().Str("ticker", t).Msg("no price history, ticker dropped")
			continue
		}
		m := h.MonthEnd().Between(from, to)
		if m.Len() == 0 {
			log.Warn().Str("ticker", t).Msg("no price in range, ticker dropped")
			continue
		}
		tickers = append(tickers, t)
		series = append(series, m)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: no ticker has prices", ErrNoData)
	}

	months, table := alignPrices(series, cfg.Overlap())
	if len(months) < 2 {
		return nil, fmt.Errorf("%w: %d common month(s) for %v", ErrNoData, len(months), tickers)
	}

	r := &Returns{
		Months:    months[1:],
		Tickers:   tickers,
		Assets:    make([][]float64, len(months)-1),
		Inflation: make([]float64, len(months)-1),
		RiskFree:  make([]float64, len(months)-1),
	}
	for t := 1; t < len(months); t++ {
		row := make([]float64, len(tickers))
		for i := range tickers {
			row[i] = table[t][i]/table[t-1][i] - 1
		}
		r.Assets[t-1] = row
	}

	if cpi != nil {
		cpiM := cpi.MonthEnd()
		// cpi level of each month including the one consumed by returns.
		levels := make([]float64, len(months))
		for t, m := range months {
			levels[t] = math.NaN()
			if v, ok := cpiM.ValueAsOf(m); ok {
				levels[t] = v
			}
		}
		for t := 1; t < len(months); t++ {
			change := levels[t]/levels[t-1] - 1
			if math.IsNaN(change) || math.IsInf(change, 0) {
				change = 0
			}
			r.Inflation[t-1] = change
		}
	}
	if tb3 != nil {
		tb3M := tb3.MonthEnd()
		for t, m := range r.Months {
			if v, ok := tb3M.ValueAsOf(m); ok {
				r.RiskFree[t] = MonthlyRate(v / 100)
			}
		}
	}
	return r, nil
}

// MonthlyRate converts an annual rate into the equivalent monthly compounded rate.
func MonthlyRate(annual float64) float64 { return math.Pow(1+annual, 1.0/12) - 1 }

// alignPrices returns the sorted month-end dates and the price table.
func alignPrices(series []*date.History[float64], overlap bool) ([]date.Date, [][]float64) {
	var all []date.Date
	for _, h := range series {
		all = append(all, h.Dates()...)
	}
	slices.SortFunc(all, func(a, b date.Date) int {
		switch {
		case a.Before(b):
			return -1
		case a.After(b):
			return 1
		}
		return 0
	})
	all = slices.Compact(all)

	var months []date.Date
	var table [][]float64
	for _, m := range all {
		row := make([]float64, len(series))
		complete := true
		for i, h := range series {
			v, ok := h.Get(m)
			if !ok && !overlap {
				v, ok = h.ValueAsOf(m)
			}
			if !ok || v <= 0 || math.IsNaN(v) {
				complete = false
				break
			}
			row[i] = v
		}
		if !complete {
			continue
		}
		months = append(months, m)
		table = append(table, row)
	}
	return months, table
}
