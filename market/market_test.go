package market

import (
	"errors"
	"math"
	"testing"

	"github.com/etnz/montecarlo"
	"github.com/etnz/montecarlo/date"
)

// monthly returns a history of month-end values starting at the end of January 2020.
func monthly(values ...float64) *date.History[float64] {
	h := new(date.History[float64])
	start := date.New(2020, 1, 31)
	for i, v := range values {
		h.Append(start.AddMonths(i), v)
	}
	return h
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestPrepare(t *testing.T) {
	prices := map[string]*date.History[float64]{
		"AAA": monthly(100, 110, 99, 108.9),
		"BBB": monthly(50, 50, 55, 55),
	}
	cpi := monthly(100, 101, 101, 102.01)
	tb3 := monthly(12, 12, 0, 0)

	r, err := Prepare(prices, []string{"AAA", "BBB"}, cpi, tb3, montecarlo.DataConfig{})
	if err != nil {
		t.Fatalf("Prepare() unexpected error: %v", err)
	}
	if r.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", r.Len())
	}
	if r.Months[0] != date.New(2020, 2, 29) {
		t.Errorf("first month = %v, want 2020-02-29", r.Months[0])
	}
	wantA := []float64{0.1, -0.1, 0.1}
	wantB := []float64{0, 0.1, 0}
	for i := range wantA {
		if !near(r.Assets[i][0], wantA[i]) || !near(r.Assets[i][1], wantB[i]) {
			t.Errorf("month %d returns = %v, want [%v %v]", i, r.Assets[i], wantA[i], wantB[i])
		}
	}
	wantInfl := []float64{0.01, 0, 0.01}
	for i, w := range wantInfl {
		if !near(r.Inflation[i], w) {
			t.Errorf("Inflation[%d] = %v, want %v", i, r.Inflation[i], w)
		}
	}
	if !near(r.RiskFree[0], math.Pow(1.12, 1.0/12)-1) {
		t.Errorf("RiskFree[0] = %v, want monthly equivalent of 12%%", r.RiskFree[0])
	}
	if r.RiskFree[1] != 0 {
		t.Errorf("RiskFree[1] = %v, want 0", r.RiskFree[1])
	}
}

func TestPrepare_CommonOverlap(t *testing.T) {
	late := new(date.History[float64])
	late.Append(date.New(2020, 3, 31), 10)
	late.Append(date.New(2020, 4, 30), 11)
	late.Append(date.New(2020, 5, 29), 12) // resampled to month end

	prices := map[string]*date.History[float64]{
		"AAA":  monthly(100, 110, 120, 130, 140),
		"LATE": late,
		"NONE": new(date.History[float64]),
	}
	r, err := Prepare(prices, []string{"AAA", "LATE", "NONE", "MISSING"}, nil, nil, montecarlo.DataConfig{})
	if err != nil {
		t.Fatalf("Prepare() unexpected error: %v", err)
	}
	if len(r.Tickers) != 2 {
		t.Errorf("Tickers = %v, want [AAA LATE]", r.Tickers)
	}
	// common months are March, April and May: two returns.
	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}
	if r.Months[1] != date.New(2020, 5, 31) {
		t.Errorf("last month = %v, want 2020-05-31", r.Months[1])
	}
	if r.Inflation[0] != 0 || r.RiskFree[0] != 0 {
		t.Error("missing macro series must default to 0")
	}
}

func TestPrepare_Range(t *testing.T) {
	prices := map[string]*date.History[float64]{"AAA": monthly(1, 2, 3, 4, 5, 6)}
	r, err := Prepare(prices, []string{"AAA"}, nil, nil, montecarlo.DataConfig{Start: "2020-02-01", End: "2020-04-30"})
	if err != nil {
		t.Fatalf("Prepare() unexpected error: %v", err)
	}
	// February, March, April prices: two returns.
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
	if col, _ := r.Column("AAA"); !near(col[0], 0.5) {
		t.Errorf("March return = %v, want 0.5", col[0])
	}
}

func TestPrepare_NoOverlapFill(t *testing.T) {
	gappy := new(date.History[float64])
	gappy.Append(date.New(2020, 1, 31), 10)
	gappy.Append(date.New(2020, 3, 31), 11)
	prices := map[string]*date.History[float64]{
		"AAA":   monthly(100, 110, 121),
		"GAPPY": gappy,
	}
	off := false
	r, err := Prepare(prices, []string{"AAA", "GAPPY"}, nil, nil, montecarlo.DataConfig{ForceCommonOverlap: &off})
	if err != nil {
		t.Fatalf("Prepare() unexpected error: %v", err)
	}
	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (February carried forward)", r.Len())
	}
	if r.Assets[0][1] != 0 {
		t.Errorf("February return of a carried price = %v, want 0", r.Assets[0][1])
	}
}

func TestPrepare_NoData(t *testing.T) {
	prices := map[string]*date.History[float64]{"AAA": monthly(100)}
	_, err := Prepare(prices, []string{"AAA"}, nil, nil, montecarlo.DataConfig{})
	if !errors.Is(err, ErrNoData) {
		t.Errorf("Prepare() error = %v, want ErrNoData", err)
	}
	_, err = Prepare(nil, []string{"AAA"}, nil, nil, montecarlo.DataConfig{})
	if !errors.Is(err, ErrNoData) {
		t.Errorf("Prepare() error = %v, want ErrNoData", err)
	}
}

func TestYears(t *testing.T) {
	r := &Returns{Months: []date.Date{
		date.New(2019, 11, 30), date.New(2019, 12, 31), date.New(2020, 1, 31),
	}}
	years, months := r.Years()
	if len(years) != 2 || years[0] != 2019 || years[1] != 2020 {
		t.Fatalf("Years() = %v, want [2019 2020]", years)
	}
	if len(months[2019]) != 2 || months[2020][0] != 2 {
		t.Errorf("Years() months = %v", months)
	}
}

func TestMonthlyRate(t *testing.T) {
	if got := MonthlyRate(0); got != 0 {
		t.Errorf("MonthlyRate(0) = %v, want 0", got)
	}
	if got := math.Pow(1+MonthlyRate(0.05), 12) - 1; !near(got, 0.05) {
		t.Errorf("compounded MonthlyRate(0.05) = %v, want 0.05", got)
	}
}
