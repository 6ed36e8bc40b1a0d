package analytics

import (
	"github.com/etnz/montecarlo/engine"
	"github.com/etnz/montecarlo/sampler"
)

// Quantiles are the 10th, 50th and 90th percentiles of a distribution.
type Quantiles struct {
	P10, P50, P90 float64
}

// NewQuantiles returns the quantiles of xs.
func NewQuantiles(xs []float64) Quantiles {
	p := Percentiles(xs, 10, 50, 90)
	return Quantiles{P10: p[0], P50: p[1], P90: p[2]}
}

// Summary aggregates the metrics of all simulated paths.
type Summary struct {
	Sims    int
	Horizon int // months

	Survival           float64 // share of paths that never failed
	Failures           int
	MedianFailureMonth float64 // NaN if no path failed

	EndBalance     Quantiles // nominal
	RealEndBalance Quantiles

	// medians over paths
	CAGR        float64
	RealCAGR    float64
	TWRR        float64
	MWRR        float64
	Sharpe      float64
	Sortino     float64
	MaxDrawdown float64
}

// Summarize computes the Summary of res, simulated over months from paths.
// paths provide the sampled risk-free rates, they may be nil in which case the
// risk-free rate is 0.
func Summarize(res *engine.Result, paths *sampler.Paths, months int) Summary {
	n := res.Len()
	s := Summary{
		Sims:     n,
		Horizon:  months,
		Survival: SurvivalRate(res.FailureMonth),
		Failures: res.Failures(),
	}

	var failed []float64
	for _, m := range res.FailureMonth {
		if m >= 0 {
			failed = append(failed, float64(m))
		}
	}
	s.MedianFailureMonth = Median(failed)

	var (
		end      = make([]float64, n)
		realEnd  = make([]float64, n)
		cagr     = make([]float64, n)
		realCAGR = make([]float64, n)
		twrr     = make([]float64, n)
		mwrr     = make([]float64, n)
		sharpe   = make([]float64, n)
		sortino  = make([]float64, n)
		mdd      = make([]float64, n)
	)
	for i := range n {
		b, rb := res.Balances[i], res.RealBalances[i]
		end[i] = b[len(b)-1]
		realEnd[i] = rb[len(rb)-1]
		cagr[i] = CAGR(b, months)
		realCAGR[i] = CAGR(rb, months)
		twrr[i] = TWRRAnnualized(res.TWRR[i])
		mwrr[i] = MWRR(res.Cashflows[i], b)
		var rf []float64
		if paths != nil {
			rf = paths.RiskFreePath(i)
		} else {
			rf = make([]float64, len(res.TWRR[i]))
		}
		sharpe[i], sortino[i] = SharpeSortino(res.TWRR[i], rf)
		mdd[i] = MaxDrawdown(b)
	}

	s.EndBalance = NewQuantiles(end)
	s.RealEndBalance = NewQuantiles(realEnd)
	s.CAGR = Median(cagr)
	s.RealCAGR = Median(realCAGR)
	s.TWRR = Median(twrr)
	s.MWRR = Median(mwrr)
	s.Sharpe = Median(sharpe)
	s.Sortino = Median(sortino)
	s.MaxDrawdown = Median(mdd)
	return s
}

// YearlyBands returns the 10/50/90 percentile bands of paths at the start and
// at the end of every year, and at the horizon if it is not a whole year.
// Keys are month numbers.
func YearlyBands(paths [][]float64) (months []int, bands []Quantiles) {
	if len(paths) == 0 {
		return nil, nil
	}
	all := Bands(paths, 10, 50, 90)
	last := len(all) - 1
	for t := 0; t <= last; t += 12 {
		months = append(months, t)
	}
	if last%12 != 0 {
		months = append(months, last)
	}
	for _, t := range months {
		bands = append(bands, Quantiles{P10: all[t][0], P50: all[t][1], P90: all[t][2]})
	}
	return months, bands
}

