package market

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/etnz/montecarlo/date"
)

type fakeSource map[string]*date.History[float64]

func (f fakeSource) MonthlyPrices(_ context.Context, ticker string, from, to date.Date) (*date.History[float64], error) {
	h, ok := f[ticker]
	if !ok {
		return nil, errors.New("unknown ticker")
	}
	return h.Between(from, to), nil
}

func TestFetchPrices(t *testing.T) {
	src := fakeSource{"AAA": monthly(1, 2), "BBB": monthly(3, 4)}
	got, err := FetchPrices(context.Background(), src, []string{"AAA", "BBB", "ZZZ"}, date.Date{}, date.Date{})
	if err == nil || !strings.Contains(err.Error(), "ticker ZZZ") {
		t.Errorf("FetchPrices() error = %v, want a failure for ZZZ", err)
	}
	if len(got) != 2 || got["AAA"].Len() != 2 || got["BBB"].Len() != 2 {
		t.Errorf("FetchPrices() = %v, want AAA and BBB", got)
	}

	if _, err := FetchPrices(context.Background(), src, []string{"AAA"}, date.Date{}, date.Date{}); err != nil {
		t.Errorf("FetchPrices() unexpected error = %v", err)
	}
}

func TestFetchPrices_Duplicates(t *testing.T) {
	src := fakeSource{"AAA": monthly(1, 2)}
	got, err := FetchPrices(context.Background(), src, []string{"AAA", "AAA"}, date.Date{}, date.Date{})
	if err != nil {
		t.Errorf("FetchPrices(AAA, AAA) unexpected error = %v", err)
	}
	if len(got) != 1 || got["AAA"].Len() != 2 {
		t.Errorf("FetchPrices(AAA, AAA) = %v, want AAA once", got)
	}
}

func TestFetchPrices_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := fakeSource{"AAA": monthly(1, 2), "BBB": monthly(3, 4)}
	got, err := FetchPrices(ctx, src, []string{"AAA", "BBB"}, date.Date{}, date.Date{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("FetchPrices() error = %v, want context.Canceled", err)
	}
	if len(got) != 0 {
		t.Errorf("FetchPrices() = %v, want nothing once canceled", got)
	}
}

func TestPricesCSV(t *testing.T) {
	prices := map[string]*date.History[float64]{
		"VTI": monthly(100, 101.5),
		"GLD": monthly(170),
	}
	var b bytes.Buffer
	if err := EncodePricesCSV(&b, prices, []string{"VTI", "GLD"}); err != nil {
		t.Fatalf("EncodePricesCSV() unexpected error: %v", err)
	}
	want := "date,VTI,GLD\n2020-01-31,100,170\n2020-02-29,101.5,\n"
	if b.String() != want {
		t.Errorf("EncodePricesCSV() = %q, want %q", b.String(), want)
	}

	got, order, err := DecodePricesCSV(strings.NewReader(want))
	if err != nil {
		t.Fatalf("DecodePricesCSV() unexpected error: %v", err)
	}
	if len(order) != 2 || order[0] != "VTI" {
		t.Errorf("order = %v, want [VTI GLD]", order)
	}
	if got["GLD"].Len() != 1 || got["VTI"].Len() != 2 {
		t.Errorf("DecodePricesCSV() lengths = %d, %d want 2, 1", got["VTI"].Len(), got["GLD"].Len())
	}
}

func TestDecodePricesCSV_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		csvData string
		wantErr string
	}{
		{"empty", "", "empty prices csv"},
		{"header", "when,VTI\n", "must start with a date column"},
		{"date", "date,VTI\n2020-13-01,1\n", "line 2"},
		{"value", "date,VTI\n2020-01-31,abc\n", "failed to parse value"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := DecodePricesCSV(strings.NewReader(tc.csvData))
			if err == nil {
				t.Fatalf("DecodePricesCSV() expected an error, but got none")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("DecodePricesCSV() error = %q, want to contain %q", err, tc.wantErr)
			}
		})
	}
}

func TestCSVSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.csv")
	content := "date,VTI\n2020-01-02,100\n2020-01-30,101\n2020-02-27,102\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	src, err := OpenCSVSource(path)
	if err != nil {
		t.Fatalf("OpenCSVSource() unexpected error: %v", err)
	}
	h, err := src.MonthlyPrices(context.Background(), "VTI", date.Date{}, date.Date{})
	if err != nil {
		t.Fatalf("MonthlyPrices() unexpected error: %v", err)
	}
	if v, ok := h.Get(date.New(2020, 1, 31)); !ok || v != 101 {
		t.Errorf("January month-end = %v, %v want 101", v, ok)
	}
	if _, err := src.MonthlyPrices(context.Background(), "GLD", date.Date{}, date.Date{}); err == nil {
		t.Error("MonthlyPrices() expected an error for an unknown ticker")
	}
}

func TestCSVSeriesSource(t *testing.T) {
	dir := t.TempDir()
	var b bytes.Buffer
	cpi := new(date.History[float64]).
		Append(date.New(2020, 1, 1), 258.7).
		Append(date.New(2020, 2, 1), 259.0)
	if err := EncodeSeriesCSV(&b, CPISeries, cpi); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, SeriesFileName(CPISeries)), b.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	src := CSVSeriesSource{Dir: dir}
	h, err := src.Series(context.Background(), CPISeries, date.Date{}, date.Date{})
	if err != nil {
		t.Fatalf("Series() unexpected error: %v", err)
	}
	if v, ok := h.Get(date.New(2020, 2, 29)); !ok || v != 259.0 {
		t.Errorf("February month-end = %v, %v want 259", v, ok)
	}
	if _, err := src.Series(context.Background(), RiskFreeSeries, date.Date{}, date.Date{}); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Series(missing file) error = %v, want os.ErrNotExist", err)
	}
}
