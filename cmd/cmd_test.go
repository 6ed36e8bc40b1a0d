package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/etnz/montecarlo"
	"github.com/etnz/montecarlo/date"
	"github.com/etnz/montecarlo/market"
)

// synthetic returns 10 years of monthly prices for tickers, growing at
// different paces with some noise.
func synthetic(tickers ...string) map[string]*date.History[float64] {
	res := make(map[string]*date.History[float64])
	start := date.New(2010, time.January, 1)
	for i, t := range tickers {
		h := new(date.History[float64])
		p := 100.0
		for m := range 121 {
			p *= 1 + 0.004*float64(i+1) + 0.03*math.Sin(float64(m*(i+2)))
			h.Append(start.AddMonths(m), p)
		}
		res[t] = h
	}
	return res
}

type fakeSeries map[string]*date.History[float64]

func (f fakeSeries) Series(_ context.Context, id string, from, to date.Date) (*date.History[float64], error) {
	h, ok := f[id]
	if !ok {
		return nil, os.ErrNotExist
	}
	return h.Between(from, to), nil
}

func macro() fakeSeries {
	cpi, tb3 := new(date.History[float64]), new(date.History[float64])
	start := date.New(2010, time.January, 1)
	level := 200.0
	for m := range 121 {
		level *= 1.002
		cpi.Append(start.AddMonths(m), level)
		tb3.Append(start.AddMonths(m), 2)
	}
	return fakeSeries{market.CPISeries: cpi, market.RiskFreeSeries: tb3}
}

func testScenario() *montecarlo.Scenario {
	s := montecarlo.DefaultScenario()
	s.Portfolio.Assets = []montecarlo.Asset{{Ticker: "AAA", Weight: 0.6}, {Ticker: "BBB", Weight: 0.4}}
	s.Sim.HorizonMonths = 60
	s.Sim.NSims = 50
	balance := 100_000.0
	s.Sim.StartingBalance = &balance
	s.Goals = []montecarlo.Goal{{Name: "Rent", Amount: -1000, StartMonth: 0, Frequency: montecarlo.Monthly, Repeats: 60, Real: true}}
	return s
}

func testReturns(t *testing.T, s *montecarlo.Scenario) *market.Returns {
	t.Helper()
	prices := market.NewCSVSource(synthetic("AAA", "BBB"))
	r, err := loadReturns(context.Background(), s, prices, macro())
	if err != nil {
		t.Fatalf("loadReturns() unexpected error: %v", err)
	}
	return r
}

func TestLoadReturns(t *testing.T) {
	s := testScenario()
	r := testReturns(t, s)
	if r.Len() != 120 {
		t.Errorf("got %d months, want 120", r.Len())
	}
	if r.Inflation[5] == 0 || r.RiskFree[5] == 0 {
		t.Errorf("macro series not aligned: inflation %v, risk-free %v", r.Inflation[5], r.RiskFree[5])
	}

	s.Portfolio.Assets = append(s.Portfolio.Assets, montecarlo.Asset{Ticker: "CCC"})
	_, err := loadReturns(context.Background(), s, market.NewCSVSource(synthetic("AAA", "BBB")), macro())
	if err == nil {
		t.Error("loadReturns() with a missing ticker want error got nil")
	}
}

func TestLoadReturns_MissingSeries(t *testing.T) {
	s := testScenario()
	prices := market.NewCSVSource(synthetic("AAA", "BBB"))
	if _, err := loadReturns(context.Background(), s, prices, fakeSeries{}); err == nil {
		t.Error("loadReturns() without macro series from a remote source want error got nil")
	}

	s.Data.Source = montecarlo.SourceCSV
	r, err := loadReturns(context.Background(), s, prices, fakeSeries{})
	if err != nil {
		t.Fatalf("loadReturns() without local macro files unexpected error: %v", err)
	}
	if r.Inflation[5] != 0 {
		t.Errorf("inflation = %v, want 0", r.Inflation[5])
	}
}

func TestSimulate_JSON(t *testing.T) {
	s := testScenario()
	r := testReturns(t, s)

	run := func() map[string]any {
		var b bytes.Buffer
		if err := simulate(context.Background(), &b, s, r, runOptions{json: true, bands: true}); err != nil {
			t.Fatalf("simulate() unexpected error: %v", err)
		}
		var got map[string]any
		if err := json.Unmarshal(b.Bytes(), &got); err != nil {
			t.Fatalf("invalid json output: %v\n%s", err, b.String())
		}
		return got
	}
	a, b := run(), run()

	if a["seed"].(float64) != 42 {
		t.Errorf("seed = %v, want 42", a["seed"])
	}
	sa, sb := a["summary"].(map[string]any), b["summary"].(map[string]any)
	if sa["sims"].(float64) != 50 {
		t.Errorf("sims = %v, want 50", sa["sims"])
	}
	for _, k := range []string{"survival", "cagr", "twrr", "max_drawdown"} {
		if sa[k] != sb[k] {
			t.Errorf("%s differs between runs with the same seed: %v vs %v", k, sa[k], sb[k])
		}
	}
	if a["run_id"] == b["run_id"] {
		t.Error("two runs share the same run id")
	}
	// 5 years: months 0, 12, 24, 36, 48 and 60.
	if bands := a["bands"].([]any); len(bands) != 6 {
		t.Errorf("got %d bands, want 6", len(bands))
	}
}

func TestSimulate_Markdown(t *testing.T) {
	s := testScenario()
	r := testReturns(t, s)
	var b bytes.Buffer
	if err := simulate(context.Background(), &b, s, r, runOptions{}); err != nil {
		t.Fatalf("simulate() unexpected error: %v", err)
	}
	for _, want := range []string{"# Monte Carlo Summary: Quickstart", "| Survival rate |", "| Rent |", "| History | 2010-02 to 2020-01 (120 months) |"} {
		if !strings.Contains(b.String(), want) {
			t.Errorf("simulate() output missing %q", want)
		}
	}
	if strings.Contains(b.String(), "## Balance bands") {
		t.Error("simulate() output has bands without -bands")
	}
}

func TestSimulate_RandomSeedReported(t *testing.T) {
	s := testScenario()
	r := testReturns(t, s)
	opts := runOptions{seed: "random"}
	if err := opts.apply(s); err != nil {
		t.Fatal(err)
	}
	var b bytes.Buffer
	if err := simulate(context.Background(), &b, s, r, opts); err != nil {
		t.Fatalf("simulate() unexpected error: %v", err)
	}
	if !strings.Contains(b.String(), "| Seed | ") {
		t.Errorf("simulate() with a random seed does not report it:\n%s", b.String())
	}
}

func TestRunOptions(t *testing.T) {
	s := testScenario()
	opts := runOptions{nSims: 7, horizon: 13, workers: 2, seed: "random"}
	if err := opts.apply(s); err != nil {
		t.Fatal(err)
	}
	if s.Sim.NSims != 7 || s.Sim.HorizonMonths != 13 || s.Sim.Workers != 2 || s.Sampler.Seed != nil {
		t.Errorf("apply() = %+v, %+v", s.Sim, s.Sampler)
	}
	if err := (&runOptions{seed: "-1"}).apply(s); err == nil {
		t.Error("apply() with a negative seed want error got nil")
	}
}

func TestParseSeed(t *testing.T) {
	tests := []struct {
		in      string
		want    *uint64
		keep    bool
		wantErr bool
	}{
		{"", nil, true, false},
		{"random", nil, false, false},
		{"Random", nil, false, false},
		{"7", ptr(uint64(7)), false, false},
		{"x", nil, false, true},
	}
	for _, tt := range tests {
		got, keep, err := parseSeed(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseSeed(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if keep != tt.keep || (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
			t.Errorf("parseSeed(%q) = %v, %v want %v, %v", tt.in, got, keep, tt.want, tt.keep)
		}
	}
}

func ptr[T any](v T) *T { return &v }

func TestSplitList(t *testing.T) {
	got := splitList(" VTI, ,TLT,")
	if len(got) != 2 || got[0] != "VTI" || got[1] != "TLT" {
		t.Errorf("splitList() = %q, want [VTI TLT]", got)
	}
}

func TestWriteScenario(t *testing.T) {
	for _, name := range []string{"scenario.toml", "scenario.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := writeScenario(path, montecarlo.DefaultScenario(), false); err != nil {
				t.Fatalf("writeScenario() unexpected error: %v", err)
			}
			s, err := montecarlo.LoadScenario(path)
			if err != nil {
				t.Fatalf("LoadScenario() unexpected error: %v", err)
			}
			if s.Name != "Quickstart" || len(s.Portfolio.Assets) != 5 || len(s.Goals) != 1 {
				t.Errorf("LoadScenario() = %+v, want the quickstart scenario", s)
			}
			err = writeScenario(path, montecarlo.DefaultScenario(), false)
			if err == nil {
				t.Error("writeScenario() over an existing file want error got nil")
			}
			if err := writeScenario(path, montecarlo.DefaultScenario(), true); err != nil {
				t.Errorf("writeScenario(force) unexpected error: %v", err)
			}
		})
	}
	if err := writeScenario(filepath.Join(t.TempDir(), "s.json"), montecarlo.DefaultScenario(), false); err == nil {
		t.Error("writeScenario(.json) want error got nil")
	}
}

func TestWriteHeadTail(t *testing.T) {
	px := synthetic("AAA")
	var b strings.Builder
	writeHeadTail(&b, px, []string{"AAA", "ZZZ"}, 2)
	got := b.String()
	if !strings.Contains(got, "| date | AAA |") {
		t.Errorf("missing header in:\n%s", got)
	}
	if !strings.Contains(got, "| 2010-01-31 |") || !strings.Contains(got, "| 2020-01-31 |") {
		t.Errorf("missing first or last month in:\n%s", got)
	}
	if strings.Contains(got, "| 2015-01-31 |") {
		t.Errorf("middle months printed in:\n%s", got)
	}
	if !strings.Contains(got, "121 months × 1 columns.") {
		t.Errorf("missing size in:\n%s", got)
	}
}

func TestNewPriceSource(t *testing.T) {
	if _, err := newPriceSource(montecarlo.DataConfig{Source: montecarlo.SourceCSV}); err == nil {
		t.Error("newPriceSource(csv) without a file want error got nil")
	}
	if _, err := newPriceSource(montecarlo.DataConfig{Source: "bloomberg"}); err == nil {
		t.Error("newPriceSource(bloomberg) want error got nil")
	}
	if _, err := newPriceSource(montecarlo.DataConfig{Source: montecarlo.SourceCSV, PricesFile: "missing.csv"}); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("newPriceSource(missing file) error = %v, want os.ErrNotExist", err)
	}
}
