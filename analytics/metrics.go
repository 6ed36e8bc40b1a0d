// Package analytics computes performance and risk metrics of simulated paths.
//
// Functions work on a single path and return NaN when a metric is undefined.
// Summarize aggregates them over all paths of a simulation.
package analytics

import (
	"math"
	"slices"
)

// CAGR returns the compounded annual growth rate of balances over months.
// It is NaN if the starting balance is not positive.
func CAGR(balances []float64, months int) float64 {
	if len(balances) == 0 || months <= 0 {
		return math.NaN()
	}
	start, end := balances[0], balances[len(balances)-1]
	if start <= 0 {
		return math.NaN()
	}
	years := float64(months) / 12
	return math.Pow(end/start, 1/years) - 1
}

// TWRRAnnualized links monthly time weighted returns and annualizes them.
func TWRRAnnualized(twrr []float64) float64 {
	if len(twrr) == 0 {
		return math.NaN()
	}
	g := 1.0
	for _, r := range twrr {
		g *= 1 + r
	}
	years := float64(len(twrr)) / 12
	return math.Pow(g, 1/years) - 1
}

// MWRR returns the money weighted return of a path: the monthly internal rate
// of return of the investor flows, times 12.
//
// The investor pays the starting balance at month 0, pays contributions and
// receives withdrawals at the end of each month, and receives the final
// balance with the last month flow. balances must have one more item than
// cashflows.
func MWRR(cashflows, balances []float64) float64 {
	if len(balances) != len(cashflows)+1 {
		return math.NaN()
	}
	flows := make([]float64, len(cashflows)+1)
	flows[0] = -balances[0]
	for t, cf := range cashflows {
		flows[t+1] = -cf
	}
	flows[len(flows)-1] += balances[len(balances)-1]
	return IRR(flows) * 12
}

// IRR returns the periodic rate r such that the net present value of flows is
// zero, NaN if there is none.
func IRR(flows []float64) float64 {
	var pos, neg bool
	for _, f := range flows {
		pos = pos || f > 0
		neg = neg || f < 0
	}
	if !pos || !neg {
		return math.NaN()
	}

	if r, ok := newton(flows, 0.01); ok {
		return r
	}
	return bisect(flows, -0.9, 10)
}

// npv returns the net present value of flows at rate r and its derivative.
func npv(flows []float64, r float64) (v, dv float64) {
	d := 1.0
	for k, f := range flows {
		if f != 0 {
			v += f / d
			dv -= float64(k) * f / (d * (1 + r))
		}
		d *= 1 + r
	}
	return v, dv
}

func newton(flows []float64, r float64) (float64, bool) {
	const (
		maxIter = 100
		tol     = 1e-10
	)
	for range maxIter {
		v, dv := npv(flows, r)
		if dv == 0 || math.IsNaN(dv) || math.IsInf(dv, 0) {
			return 0, false
		}
		next := r - v/dv
		if next <= -1 || math.IsNaN(next) || math.IsInf(next, 0) {
			return 0, false
		}
		if math.Abs(next-r) < tol {
			return next, true
		}
		r = next
	}
	return 0, false
}

func bisect(flows []float64, lo, hi float64) float64 {
	vlo, _ := npv(flows, lo)
	vhi, _ := npv(flows, hi)
	if math.IsNaN(vlo) || math.IsNaN(vhi) || vlo*vhi > 0 {
		return math.NaN()
	}
	for range 200 {
		mid := (lo + hi) / 2
		vmid, _ := npv(flows, mid)
		if vmid == 0 || hi-lo < 1e-12 {
			return mid
		}
		if vlo*vmid < 0 {
			hi = mid
		} else {
			lo, vlo = mid, vmid
		}
	}
	return (lo + hi) / 2
}

// SharpeSortino returns the annualized Sharpe and Sortino ratios of monthly
// returns in excess of the monthly risk-free rate rf.
//
// Volatilities are sample standard deviations. The downside volatility is the
// one of the excess returns where positive ones are replaced by zero.
func SharpeSortino(twrr, rf []float64) (sharpe, sortino float64) {
	n := min(len(twrr), len(rf))
	if n < 2 {
		return math.NaN(), math.NaN()
	}
	excess := make([]float64, n)
	downside := make([]float64, n)
	for t := range n {
		excess[t] = twrr[t] - rf[t]
		downside[t] = min(excess[t], 0)
	}
	mean := Mean(excess)
	sharpe, sortino = math.NaN(), math.NaN()
	if vol := StdDev(excess); vol > 0 {
		sharpe = mean / vol * math.Sqrt(12)
	}
	if dvol := StdDev(downside); dvol > 0 {
		sortino = mean / dvol * math.Sqrt(12)
	}
	return sharpe, sortino
}

// MaxDrawdown returns the most negative relative drop of balances from their
// running peak, 0 if they never drop.
func MaxDrawdown(balances []float64) float64 {
	if len(balances) == 0 {
		return math.NaN()
	}
	peak, mdd := balances[0], 0.0
	for _, x := range balances {
		peak = max(peak, x)
		if peak <= 0 {
			continue
		}
		mdd = min(mdd, (x-peak)/peak)
	}
	return mdd
}

// SurvivalRate returns the share of paths that never failed.
func SurvivalRate(failureMonth []int) float64 {
	if len(failureMonth) == 0 {
		return math.NaN()
	}
	n := 0
	for _, m := range failureMonth {
		if m < 0 {
			n++
		}
	}
	return float64(n) / float64(len(failureMonth))
}

// Mean returns the arithmetic mean of xs.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

// StdDev returns the sample standard deviation of xs.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	m := Mean(xs)
	s := 0.0
	for _, x := range xs {
		s += (x - m) * (x - m)
	}
	return math.Sqrt(s / float64(len(xs)-1))
}

// Percentile returns the p-th percentile (0 to 100) of xs, interpolating
// linearly between closest ranks. NaN values are ignored.
func Percentile(xs []float64, p float64) float64 {
	return Percentiles(xs, p)[0]
}

// Percentiles is like Percentile for several percentiles, sorting only once.
func Percentiles(xs []float64, ps ...float64) []float64 {
	sorted := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			sorted = append(sorted, x)
		}
	}
	slices.Sort(sorted)
	res := make([]float64, len(ps))
	for i, p := range ps {
		res[i] = rank(sorted, p)
	}
	return res
}

func rank(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 || p < 0 || p > 100 || math.IsNaN(p) {
		return math.NaN()
	}
	h := float64(n-1) * p / 100
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// Median returns the 50th percentile of xs, ignoring NaN values.
func Median(xs []float64) float64 { return Percentile(xs, 50) }

// Bands returns, for every month t, the percentiles ps of paths[s][t] over
// all paths s.
func Bands(paths [][]float64, ps ...float64) [][]float64 {
	if len(paths) == 0 {
		return nil
	}
	months := len(paths[0])
	res := make([][]float64, months)
	col := make([]float64, len(paths))
	for t := range months {
		for s, path := range paths {
			col[s] = path[t]
		}
		res[t] = Percentiles(col, ps...)
	}
	return res
}
