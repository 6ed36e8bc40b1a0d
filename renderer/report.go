package renderer

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/etnz/montecarlo"
	"github.com/etnz/montecarlo/analytics"
	"github.com/etnz/montecarlo/market"
)

// Now is the current time used in reports.
func Now() time.Time {
	if os.Getenv("MCPT_TESTING_NOW") != "" {
		t, err := time.Parse("2006-01-02 15:04:05", os.Getenv("MCPT_TESTING_NOW"))
		if err != nil {
			panic(err)
		}
		return t
	}
	return time.Now()
}

// Report is the view of a simulation run.
type Report struct {
	Name     string
	RunID    string
	AsOf     string
	Settings []Row
	Assets   []AssetRow
	Goals    []GoalRow
	Metrics  []Row
	// EndBalances has a nominal and a real row.
	EndBalances []QuantileRow
	// Bands are yearly balance bands, empty to skip them.
	Bands []QuantileRow
}

// Row is a label and its formatted value.
type Row struct {
	Label, Value string
}

// AssetRow is a portfolio line.
type AssetRow struct {
	Ticker string
	Name   string
	Weight montecarlo.Percent
}

// GoalRow is a cashflow goal line.
type GoalRow struct {
	Name      string
	Amount    montecarlo.Money
	Start     int
	Frequency string
	Repeats   int
	Real      bool
	Total     montecarlo.Money // sum of the payments at face value
}

// QuantileRow holds percentiles of balances.
type QuantileRow struct {
	Label         string
	P10, P50, P90 montecarlo.Money
	RealP50       montecarlo.Money
}

// Bands holds yearly balance bands to include in a Report.
type Bands struct {
	Months     []int
	Nominal    []analytics.Quantiles
	RealMedian []float64
}

// NewReport builds the report of scenario s simulated over history r with
// the sampling seed. bands may be nil.
func NewReport(s *montecarlo.Scenario, r *market.Returns, sum analytics.Summary, runID string, seed uint64, bands *Bands) *Report {
	cur := s.Sim.Currency
	m := func(v float64) montecarlo.Money { return montecarlo.M(v, cur) }

	rep := &Report{
		Name:  s.Name,
		RunID: runID,
		AsOf:  Now().Format("2006-01-02 15:04:05"),
	}

	sampling := string(s.Sampler.Mode)
	if s.Sampler.Mode == montecarlo.BlockYears {
		sampling = fmt.Sprintf("%s (%d years)", sampling, s.Sampler.BlockYears)
	}
	rebalance := "never"
	if n := s.Sim.Rebalance(); n > 0 {
		rebalance = fmt.Sprintf("every %d months", n)
	}
	rep.Settings = []Row{
		{"Horizon", fmt.Sprintf("%d months (%.1f years)", s.Sim.HorizonMonths, s.Sim.Years())},
		{"Simulations", fmt.Sprint(sum.Sims)},
		{"Starting balance", m(s.Sim.Balance()).Whole()},
		{"Sampling", sampling},
		{"Rebalancing", rebalance},
		{"Seed", fmt.Sprint(seed)},
	}
	if r != nil && r.Len() > 0 {
		rep.Settings = append(rep.Settings, Row{"History", fmt.Sprintf("%s to %s (%d months)",
			r.Months[0].Format("2006-01"), r.Months[r.Len()-1].Format("2006-01"), r.Len())})
	}

	for _, a := range s.Portfolio.Assets {
		rep.Assets = append(rep.Assets, AssetRow{Ticker: a.Ticker, Name: a.Name, Weight: montecarlo.PercentOf(a.Weight)})
	}
	for _, g := range s.Goals {
		rep.Goals = append(rep.Goals, GoalRow{
			Name:      g.Name,
			Amount:    m(g.Amount),
			Start:     g.StartMonth,
			Frequency: g.Frequency.String(),
			Repeats:   g.Repeats,
			Real:      g.Real,
			Total:     m(g.Total()),
		})
	}

	failures := fmt.Sprintf("%d of %d", sum.Failures, sum.Sims)
	if sum.Failures > 0 {
		failures += fmt.Sprintf(" (median month %.0f)", sum.MedianFailureMonth)
	}
	rep.Metrics = []Row{
		{"Survival rate", montecarlo.PercentOf(sum.Survival).String()},
		{"Failed paths", failures},
		{"CAGR median", montecarlo.PercentOf(sum.CAGR).SignedString()},
		{"Real CAGR median", montecarlo.PercentOf(sum.RealCAGR).SignedString()},
		{"TWRR median", montecarlo.PercentOf(sum.TWRR).SignedString()},
		{"MWRR median", montecarlo.PercentOf(sum.MWRR).SignedString()},
		{"Sharpe median", ratio(sum.Sharpe)},
		{"Sortino median", ratio(sum.Sortino)},
		{"Max drawdown median", montecarlo.PercentOf(sum.MaxDrawdown).SignedString()},
	}
	rep.EndBalances = []QuantileRow{
		{Label: "Nominal", P10: m(sum.EndBalance.P10), P50: m(sum.EndBalance.P50), P90: m(sum.EndBalance.P90)},
		{Label: "Real", P10: m(sum.RealEndBalance.P10), P50: m(sum.RealEndBalance.P50), P90: m(sum.RealEndBalance.P90)},
	}

	if bands != nil {
		for i, month := range bands.Months {
			q := bands.Nominal[i]
			row := QuantileRow{
				Label: yearLabel(month),
				P10:   m(q.P10),
				P50:   m(q.P50),
				P90:   m(q.P90),
			}
			if i < len(bands.RealMedian) {
				row.RealP50 = m(bands.RealMedian[i])
			}
			rep.Bands = append(rep.Bands, row)
		}
	}
	return rep
}

// NewBands computes the yearly bands of a simulation result.
func NewBands(balances, realBalances [][]float64) *Bands {
	months, nominal := analytics.YearlyBands(balances)
	_, deflated := analytics.YearlyBands(realBalances)
	b := &Bands{Months: months, Nominal: nominal}
	for _, q := range deflated {
		b.RealMedian = append(b.RealMedian, q.P50)
	}
	return b
}

func yearLabel(month int) string {
	if month%12 == 0 {
		return fmt.Sprint(month / 12)
	}
	return fmt.Sprintf("%.1f", float64(month)/12)
}

func ratio(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", x)
}
