// Package engine runs portfolio simulations over sampled return paths.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"github.com/etnz/montecarlo"
	"github.com/etnz/montecarlo/sampler"
	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"
)

// tiny avoids divisions by zero on depleted portfolios.
const tiny = 1e-12

// Simulator simulates a portfolio with fixed target weights.
type Simulator struct {
	Weights         []float64 // target weights, in the order of the paths tickers
	StartingBalance float64
	// RebalanceEvery is the rebalancing period in months. 0 never rebalances.
	RebalanceEvery int
	// Workers bounds the number of paths simulated in parallel. 0 uses GOMAXPROCS.
	Workers int
}

// Result holds all simulated paths.
//
// Balances and RealBalances have Horizon+1 columns, the first one being the
// starting balance. Other series have Horizon columns.
type Result struct {
	Balances     [][]float64
	RealBalances [][]float64
	TWRR         [][]float64 // pre-cashflow monthly returns
	Cashflows    [][]float64
	// FailureMonth is the first month a cashflow could not be paid in full, -1
	// if the path survived.
	FailureMonth []int
}

// Len returns the number of simulated paths.
func (r *Result) Len() int { return len(r.Balances) }

// Horizon returns the number of simulated months.
func (r *Result) Horizon() int {
	if len(r.TWRR) == 0 {
		return 0
	}
	return len(r.TWRR[0])
}

// Failures returns the number of paths that failed.
func (r *Result) Failures() int {
	n := 0
	for _, m := range r.FailureMonth {
		if m >= 0 {
			n++
		}
	}
	return n
}

// Run simulates every path of paths with the cashflows of goals.
//
// Each path is independent, so the result does not depend on Workers.
func (s *Simulator) Run(ctx context.Context, paths *sampler.Paths, goals []montecarlo.Goal) (*Result, error) {
	if paths == nil || paths.Len() == 0 {
		return nil, errors.New("no paths to simulate")
	}
	if n := len(paths.Returns.Tickers); n != len(s.Weights) {
		return nil, fmt.Errorf("got %d weights for %d assets", len(s.Weights), n)
	}
	if s.RebalanceEvery < 0 {
		return nil, fmt.Errorf("rebalancing period must not be negative, got %d", s.RebalanceEvery)
	}

	n := paths.Len()
	res := &Result{
		Balances:     make([][]float64, n),
		RealBalances: make([][]float64, n),
		TWRR:         make([][]float64, n),
		Cashflows:    make([][]float64, n),
		FailureMonth: make([]int, n),
	}

	workers := s.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	log.Debug().Int("paths", n).Int("horizon", paths.Horizon()).Int("workers", workers).Msg("simulating")

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range n {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.path(paths, i, goals, res)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

// path simulates path i and stores it in res.
func (s *Simulator) path(paths *sampler.Paths, i int, goals []montecarlo.Goal, res *Result) {
	horizon := paths.Horizon()
	inflation := paths.InflationPath(i)
	cf := Cashflows(goals, horizon, inflation)

	balances := make([]float64, horizon+1)
	twrr := make([]float64, horizon)
	balances[0] = s.StartingBalance
	failure := -1

	alloc := make([]float64, len(s.Weights))
	s.reset(alloc, s.StartingBalance)

	for t := range horizon {
		port := 0.0
		for j, r := range paths.Asset(i, t) {
			alloc[j] *= 1 + r
			port += alloc[j]
		}
		twrr[t] = port/math.Max(balances[t], tiny) - 1

		after := port + cf[t]
		if after < 0 {
			if failure < 0 {
				failure = t
			}
			after = 0
		}
		balances[t+1] = after

		switch {
		case s.RebalanceEvery > 0 && (t+1)%s.RebalanceEvery == 0:
			s.reset(alloc, after)
		case port <= tiny:
			// nothing left to keep proportions of, contributions restart at target.
			s.reset(alloc, after)
		default:
			scale := after / port
			for j := range alloc {
				alloc[j] *= scale
			}
		}
	}

	deflated := make([]float64, horizon+1)
	deflated[0] = balances[0]
	cum := 1.0
	for t, r := range inflation {
		cum *= 1 + r
		deflated[t+1] = balances[t+1] / math.Max(cum, tiny)
	}

	res.Balances[i] = balances
	res.RealBalances[i] = deflated
	res.TWRR[i] = twrr
	res.Cashflows[i] = cf
	res.FailureMonth[i] = failure
}

// reset sets alloc to the target weights of balance.
func (s *Simulator) reset(alloc []float64, balance float64) {
	for j, w := range s.Weights {
		alloc[j] = w * balance
	}
}
