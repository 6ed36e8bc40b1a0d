// Package sampler bootstraps simulated monthly paths out of a history of
// monthly returns.
//
// Paths do not copy returns: each simulated month refers to a month of the
// history, so that asset returns, inflation and the risk-free rate of a
// simulated month always come from the same historical month.
package sampler

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/etnz/montecarlo"
	"github.com/etnz/montecarlo/market"
)

// ErrUnknownMode is returned for an unsupported sampling mode.
var ErrUnknownMode = errors.New("unknown sampling mode")

// Sampler draws paths from a fixed history.
type Sampler struct {
	returns   *market.Returns
	years     []int         // distinct calendar years, chronological
	yearIndex map[int][]int // months of each year
}

// New returns a Sampler over r.
func New(r *market.Returns) (*Sampler, error) {
	if r == nil || r.Len() == 0 {
		return nil, errors.New("cannot sample an empty history")
	}
	years, index := r.Years()
	return &Sampler{returns: r, years: years, yearIndex: index}, nil
}

// Paths are simulated sequences of historical months.
type Paths struct {
	Returns *market.Returns
	// Index[s][t] is the history month used for month t of simulation s.
	Index [][]int
	// Seed is the seed actually used.
	Seed uint64
}

// Len returns the number of simulations.
func (p *Paths) Len() int { return len(p.Index) }

// Horizon returns the number of simulated months.
func (p *Paths) Horizon() int {
	if len(p.Index) == 0 {
		return 0
	}
	return len(p.Index[0])
}

// Asset returns the asset returns of month t of simulation s.
func (p *Paths) Asset(s, t int) []float64 { return p.Returns.Assets[p.Index[s][t]] }

// Inflation returns the inflation of month t of simulation s.
func (p *Paths) Inflation(s, t int) float64 { return p.Returns.Inflation[p.Index[s][t]] }

// RiskFree returns the risk-free rate of month t of simulation s.
func (p *Paths) RiskFree(s, t int) float64 { return p.Returns.RiskFree[p.Index[s][t]] }

// InflationPath returns the whole inflation path of simulation s.
func (p *Paths) InflationPath(s int) []float64 {
	res := make([]float64, len(p.Index[s]))
	for t, i := range p.Index[s] {
		res[t] = p.Returns.Inflation[i]
	}
	return res
}

// RiskFreePath returns the whole risk-free path of simulation s.
func (p *Paths) RiskFreePath(s int) []float64 {
	res := make([]float64, len(p.Index[s]))
	for t, i := range p.Index[s] {
		res[t] = p.Returns.RiskFree[i]
	}
	return res
}

// Sample draws nSims paths of horizon months.
//
// The same seed always gives the same paths. A nil seed draws a random one,
// reported in Paths.Seed.
func (s *Sampler) Sample(horizon, nSims int, cfg montecarlo.SamplerConfig) (*Paths, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("horizon must be positive, got %d", horizon)
	}
	if nSims <= 0 {
		return nil, fmt.Errorf("number of simulations must be positive, got %d", nSims)
	}

	var draw func(rng *rand.Rand, horizon int) []int
	switch cfg.Mode {
	case montecarlo.SingleMonth:
		draw = s.singleMonth
	case montecarlo.SingleYear:
		draw = s.singleYear
	case montecarlo.BlockYears:
		if cfg.BlockYears <= 0 {
			return nil, fmt.Errorf("block years must be positive, got %d", cfg.BlockYears)
		}
		k := cfg.BlockYears
		draw = func(rng *rand.Rand, horizon int) []int { return s.blockYears(rng, horizon, k) }
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, cfg.Mode)
	}

	seed := rand.Uint64()
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}
	rng := rand.New(rand.NewPCG(seed, 0))

	p := &Paths{Returns: s.returns, Index: make([][]int, nSims), Seed: seed}
	for i := range p.Index {
		p.Index[i] = draw(rng, horizon)
	}
	return p, nil
}

// singleMonth draws each month uniformly with replacement.
func (s *Sampler) singleMonth(rng *rand.Rand, horizon int) []int {
	n := s.returns.Len()
	idx := make([]int, horizon)
	for t := range idx {
		idx[t] = rng.IntN(n)
	}
	return idx
}

// singleYear appends the months of uniformly drawn calendar years. Incomplete
// years at the ends of the history are shorter, draws continue until the
// horizon is filled.
func (s *Sampler) singleYear(rng *rand.Rand, horizon int) []int {
	idx := make([]int, 0, horizon+12)
	for len(idx) < horizon {
		y := s.years[rng.IntN(len(s.years))]
		idx = append(idx, s.yearIndex[y]...)
	}
	return idx[:horizon]
}

// blockYears appends blocks of k consecutive calendar years starting at a
// uniformly drawn year. Blocks wrap around to the first year of the history.
func (s *Sampler) blockYears(rng *rand.Rand, horizon, k int) []int {
	idx := make([]int, 0, horizon+12*k)
	for len(idx) < horizon {
		pos := rng.IntN(len(s.years))
		for j := 0; j < k; j++ {
			y := s.years[(pos+j)%len(s.years)]
			idx = append(idx, s.yearIndex[y]...)
		}
	}
	return idx[:horizon]
}
