package montecarlo

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/etnz/montecarlo/date"
)

// SamplingMode selects how history is resampled into simulated paths.
type SamplingMode string

const (
	// SingleMonth draws every simulated month independently from history.
	SingleMonth SamplingMode = "single_month"
	// SingleYear draws whole calendar years, keeping their months in order.
	SingleYear SamplingMode = "single_year"
	// BlockYears draws runs of consecutive calendar years.
	BlockYears SamplingMode = "block_years"
)

// ParseSamplingMode parses a sampling mode name.
func ParseSamplingMode(s string) (SamplingMode, error) {
	m := SamplingMode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case SingleMonth, SingleYear, BlockYears:
		return m, nil
	default:
		return "", fmt.Errorf("unknown sampling mode %q, want %s, %s or %s", s, SingleMonth, SingleYear, BlockYears)
	}
}

// Data sources for prices.
const (
	SourceYahoo = "yahoo"
	SourceEODHD = "eodhd"
	SourceCSV   = "csv"
)

// DataConfig restricts and locates the market history.
type DataConfig struct {
	Start              string `toml:"start" yaml:"start" json:"start,omitempty"` // 'YYYY-MM-DD', empty for all history
	End                string `toml:"end" yaml:"end" json:"end,omitempty"`
	ForceCommonOverlap *bool  `toml:"force_common_overlap" yaml:"force_common_overlap" json:"force_common_overlap,omitempty"`
	Source             string `toml:"source" yaml:"source" json:"source,omitempty"`
	PricesFile         string `toml:"prices_file" yaml:"prices_file" json:"prices_file,omitempty"`
}

// Overlap reports whether only months common to all assets are kept (the default).
func (c DataConfig) Overlap() bool { return c.ForceCommonOverlap == nil || *c.ForceCommonOverlap }

// Range returns the parsed Start and End. Empty bounds are zero dates.
func (c DataConfig) Range() (from, to date.Date, err error) {
	if c.Start != "" {
		if from, err = date.Parse(c.Start); err != nil {
			return
		}
	}
	if c.End != "" {
		if to, err = date.Parse(c.End); err != nil {
			return
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		err = fmt.Errorf("data end %s is before start %s", to, from)
	}
	return
}

func (c DataConfig) validate() error {
	if _, _, err := c.Range(); err != nil {
		return err
	}
	switch c.Source {
	case SourceYahoo, SourceEODHD:
	case SourceCSV:
		if c.PricesFile == "" {
			return errors.New("csv source requires a prices_file")
		}
	default:
		return fmt.Errorf("unknown data source %q, want %s, %s or %s", c.Source, SourceYahoo, SourceEODHD, SourceCSV)
	}
	return nil
}

// SamplerConfig configures the bootstrap.
type SamplerConfig struct {
	Mode       SamplingMode `toml:"mode" yaml:"mode" json:"mode"`
	BlockYears int          `toml:"block_years" yaml:"block_years" json:"block_years"`
	// Seed makes the run reproducible. nil draws a random seed, scenario files
	// default to DefaultSeed.
	Seed *uint64 `toml:"seed" yaml:"seed" json:"seed,omitempty"`
}

func (c SamplerConfig) validate() error {
	if _, err := ParseSamplingMode(string(c.Mode)); err != nil {
		return err
	}
	if c.Mode == BlockYears && c.BlockYears <= 0 {
		return fmt.Errorf("block_years must be positive, got %d", c.BlockYears)
	}
	return nil
}

// SimConfig configures the simulation itself.
type SimConfig struct {
	HorizonMonths        int     `toml:"horizon_months" yaml:"horizon_months" json:"horizon_months"`
	NSims                int     `toml:"n_sims" yaml:"n_sims" json:"n_sims"`
	RebalanceEveryMonths *int    `toml:"rebalance_every_months" yaml:"rebalance_every_months" json:"rebalance_every_months,omitempty"`
	StartingBalance      *float64 `toml:"starting_balance" yaml:"starting_balance" json:"starting_balance,omitempty"`
	Currency             string  `toml:"currency" yaml:"currency" json:"currency"`
	Workers              int     `toml:"workers" yaml:"workers" json:"workers,omitempty"`
}

// Rebalance returns the rebalancing period in months, 0 meaning never.
// It defaults to yearly.
func (c SimConfig) Rebalance() int {
	if c.RebalanceEveryMonths == nil {
		return DefaultRebalance
	}
	return *c.RebalanceEveryMonths
}

// Balance returns the starting balance. It defaults to DefaultStartingBalance,
// an explicit 0 starts from nothing.
func (c SimConfig) Balance() float64 {
	if c.StartingBalance == nil {
		return DefaultStartingBalance
	}
	return *c.StartingBalance
}

// Years returns the horizon in years.
func (c SimConfig) Years() float64 { return float64(c.HorizonMonths) / 12 }

func (c SimConfig) validate() error {
	switch {
	case c.HorizonMonths <= 0:
		return fmt.Errorf("horizon_months must be positive, got %d", c.HorizonMonths)
	case c.NSims <= 0:
		return fmt.Errorf("n_sims must be positive, got %d", c.NSims)
	case c.Rebalance() < 0:
		return fmt.Errorf("rebalance_every_months must not be negative, got %d", c.Rebalance())
	case c.Balance() < 0:
		return fmt.Errorf("starting_balance must not be negative, got %v", c.Balance())
	case c.Workers < 0:
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}

// Default values.
const (
	DefaultNSims           = 10_000
	DefaultRebalance       = 12
	DefaultStartingBalance = 1_000_000.0
	DefaultBlockYears      = 5
	DefaultSeed            = 42
	DefaultCurrency        = "USD"
)

// DefaultWorkers returns the default number of simulation workers.
func DefaultWorkers() int { return runtime.GOMAXPROCS(0) }
