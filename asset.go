package montecarlo

import (
	"errors"
	"fmt"
	"math"
)

// weightTolerance is the accepted gap between the sum of weights and 1.
const weightTolerance = 1e-6

// Asset is a single holding of a portfolio.
type Asset struct {
	Ticker string  `toml:"ticker" yaml:"ticker" json:"ticker"`
	Name   string  `toml:"name" yaml:"name" json:"name,omitempty"`
	Weight float64 `toml:"weight" yaml:"weight" json:"weight"` // 0..1
}

// Portfolio is a fixed-weight allocation between assets.
type Portfolio struct {
	Assets []Asset `toml:"assets" yaml:"assets" json:"assets"`
}

// Weights returns the target weights in asset order.
func (p Portfolio) Weights() []float64 {
	w := make([]float64, len(p.Assets))
	for i, a := range p.Assets {
		w[i] = a.Weight
	}
	return w
}

// Tickers returns the tickers in asset order.
func (p Portfolio) Tickers() []string {
	t := make([]string, len(p.Assets))
	for i, a := range p.Assets {
		t[i] = a.Ticker
	}
	return t
}

// Validate checks that the portfolio is a proper allocation.
func (p Portfolio) Validate() error {
	if len(p.Assets) == 0 {
		return errors.New("portfolio has no assets")
	}
	seen := make(map[string]bool)
	var sum float64
	for i, a := range p.Assets {
		if a.Ticker == "" {
			return fmt.Errorf("asset #%d has no ticker", i+1)
		}
		if seen[a.Ticker] {
			return fmt.Errorf("asset %q is listed twice", a.Ticker)
		}
		seen[a.Ticker] = true
		if a.Weight < 0 || math.IsNaN(a.Weight) {
			return fmt.Errorf("asset %q has an invalid weight %v", a.Ticker, a.Weight)
		}
		sum += a.Weight
	}
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("portfolio weights sum to %v, want 1", sum)
	}
	return nil
}
