package market

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/etnz/montecarlo/date"
)

// EncodePricesCSV writes prices as a wide table: a "date" column followed by
// one column per ticker in order. Missing values are left empty.
func EncodePricesCSV(w io.Writer, prices map[string]*date.History[float64], order []string) error {
	var columns []string
	var days []date.Date
	for _, t := range order {
		h, ok := prices[t]
		if !ok {
			continue
		}
		columns = append(columns, t)
		days = append(days, h.Dates()...)
	}
	slices.SortFunc(days, func(a, b date.Date) int { return strings.Compare(a.String(), b.String()) })
	days = slices.Compact(days)

	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"date"}, columns...)); err != nil {
		return err
	}
	for _, on := range days {
		rec := []string{on.String()}
		for _, t := range columns {
			cell := ""
			if v, ok := prices[t].Get(on); ok {
				cell = strconv.FormatFloat(v, 'f', -1, 64)
			}
			rec = append(rec, cell)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// DecodePricesCSV reads a wide table written by EncodePricesCSV. It returns the
// series and the column order.
func DecodePricesCSV(r io.Reader) (map[string]*date.History[float64], []string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("empty prices csv")
	}
	header := records[0]
	if len(header) < 2 || !strings.EqualFold(strings.TrimSpace(header[0]), "date") {
		return nil, nil, fmt.Errorf("prices csv must start with a date column followed by tickers, got %v", header)
	}
	order := make([]string, 0, len(header)-1)
	prices := make(map[string]*date.History[float64], len(header)-1)
	for _, t := range header[1:] {
		t = strings.TrimSpace(t)
		order = append(order, t)
		prices[t] = new(date.History[float64])
	}
	for i, rec := range records[1:] {
		on, err := date.Parse(strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		for j, cell := range rec[1:] {
			if j >= len(order) {
				break
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("line %d: failed to parse value %q for %s: %w", i+2, cell, order[j], err)
			}
			prices[order[j]].Append(on, v)
		}
	}
	return prices, order, nil
}

// EncodeSeriesCSV writes a single series with a "date" column and a column named id.
func EncodeSeriesCSV(w io.Writer, id string, h *date.History[float64]) error {
	return EncodePricesCSV(w, map[string]*date.History[float64]{id: h}, []string{id})
}

// CSVSource serves prices from a local wide CSV file.
type CSVSource struct {
	prices map[string]*date.History[float64]
}

// OpenCSVSource loads a prices file.
func OpenCSVSource(path string) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	prices, _, err := DecodePricesCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &CSVSource{prices: prices}, nil
}

// NewCSVSource serves in-memory prices.
func NewCSVSource(prices map[string]*date.History[float64]) *CSVSource {
	return &CSVSource{prices: prices}
}

// MonthlyPrices implements PriceSource.
func (s *CSVSource) MonthlyPrices(_ context.Context, ticker string, from, to date.Date) (*date.History[float64], error) {
	h, ok := s.prices[ticker]
	if !ok {
		return nil, fmt.Errorf("ticker %q not found in prices file", ticker)
	}
	return h.Between(from, to).MonthEnd(), nil
}

// SeriesFileName is the file name of a macro series saved next to a prices file.
func SeriesFileName(id string) string { return "fred_" + id + "_monthly.csv" }

// CSVSeriesSource serves macro series from files named by SeriesFileName in Dir.
type CSVSeriesSource struct {
	Dir string
}

// Series implements SeriesSource.
func (s CSVSeriesSource) Series(_ context.Context, id string, from, to date.Date) (*date.History[float64], error) {
	path := filepath.Join(s.Dir, SeriesFileName(id))
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	series, order, err := DecodePricesCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	h, ok := series[id]
	if !ok {
		// a file written by another tool may name its column differently.
		h = series[order[0]]
	}
	return h.Between(from, to).MonthEnd(), nil
}
