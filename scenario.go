package montecarlo

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Scenario is everything needed to run a Monte Carlo test.
type Scenario struct {
	Name      string        `toml:"name" yaml:"name" json:"name"`
	Portfolio Portfolio     `toml:"portfolio" yaml:"portfolio" json:"portfolio"`
	Goals     []Goal        `toml:"goals" yaml:"goals" json:"goals,omitempty"`
	Data      DataConfig    `toml:"data" yaml:"data" json:"data"`
	Sampler   SamplerConfig `toml:"sampler" yaml:"sampler" json:"sampler"`
	Sim       SimConfig     `toml:"sim" yaml:"sim" json:"sim"`
}

// DefaultScenario returns the quickstart scenario: a diversified ETF portfolio of
// one million withdrawing 4,000 a month in today's money for 30 years, starting
// in one year.
func DefaultScenario() *Scenario {
	seed := uint64(DefaultSeed)
	rebalance := DefaultRebalance
	balance := DefaultStartingBalance
	overlap := true
	s := &Scenario{
		Name: "Quickstart",
		Portfolio: Portfolio{Assets: []Asset{
			{"VTI", "Vanguard Total Stock Market ETF", 0.30},
			{"TLT", "iShares 20+ Year Treasury Bond ETF", 0.40},
			{"IEF", "iShares 7-10 Year Treasury Bond ETF", 0.15},
			{"GSG", "iShares S&P GSCI Commodity-Indexed Trust", 0.075},
			{"GLD", "SPDR Gold Shares", 0.075},
		}},
		Goals: []Goal{
			{Name: "Retirement Withdrawals", Amount: -4000, StartMonth: 12, Frequency: Monthly, Repeats: 30 * 12, Real: true},
		},
		Data:    DataConfig{ForceCommonOverlap: &overlap, Source: SourceYahoo},
		Sampler: SamplerConfig{Mode: SingleMonth, BlockYears: 1, Seed: &seed},
		Sim: SimConfig{
			HorizonMonths:        30 * 12,
			NSims:                100,
			RebalanceEveryMonths: &rebalance,
			StartingBalance:      &balance,
			Currency:             DefaultCurrency,
		},
	}
	s.ApplyDefaults()
	return s
}

// ApplyDefaults fills unset fields with their default values.
func (s *Scenario) ApplyDefaults() {
	if s.Data.Source == "" {
		s.Data.Source = SourceYahoo
	}
	if s.Sampler.Mode == "" {
		s.Sampler.Mode = SingleYear
	}
	if s.Sampler.BlockYears == 0 {
		s.Sampler.BlockYears = DefaultBlockYears
	}
	if s.Sampler.Seed == nil {
		seed := uint64(DefaultSeed)
		s.Sampler.Seed = &seed
	}
	if s.Sim.NSims == 0 {
		s.Sim.NSims = DefaultNSims
	}
	if s.Sim.Currency == "" {
		s.Sim.Currency = DefaultCurrency
	}
	for i := range s.Goals {
		if s.Goals[i].Frequency == 0 {
			s.Goals[i].Frequency = Monthly
		}
	}
}

// Validate checks the whole scenario and reports every problem found.
func (s *Scenario) Validate() error {
	var errs error
	if err := s.Portfolio.Validate(); err != nil {
		errs = errors.Join(errs, err)
	}
	for _, g := range s.Goals {
		if err := g.Validate(); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	if err := s.Data.validate(); err != nil {
		errs = errors.Join(errs, err)
	}
	if err := s.Sampler.validate(); err != nil {
		errs = errors.Join(errs, err)
	}
	if err := s.Sim.validate(); err != nil {
		errs = errors.Join(errs, err)
	}
	return errs
}

// Format is a scenario file encoding.
type Format string

const (
	TOML Format = "toml"
	YAML Format = "yaml"
)

// FormatOf guesses the format from a file name extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("unsupported scenario file extension %q, want .toml, .yaml or .yml", filepath.Ext(path))
	}
}

// DecodeScenario reads a scenario. ${VAR} references are expanded from the
// environment before decoding. Defaults are applied but the scenario is not
// validated.
func DecodeScenario(r io.Reader, format Format) (*Scenario, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	expanded := []byte(os.ExpandEnv(string(data)))

	s := new(Scenario)
	switch format {
	case TOML:
		dec := toml.NewDecoder(bytes.NewReader(expanded))
		dec.DisallowUnknownFields()
		if err := dec.Decode(s); err != nil {
			return nil, fmt.Errorf("parse scenario toml: %w", err)
		}
	case YAML:
		dec := yaml.NewDecoder(bytes.NewReader(expanded))
		dec.KnownFields(true)
		if err := dec.Decode(s); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse scenario yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown scenario format %q", format)
	}
	s.ApplyDefaults()
	return s, nil
}

// LoadScenario reads, completes and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	defer f.Close()

	s, err := DecodeScenario(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid scenario: %w", path, err)
	}
	return s, nil
}

// EncodeScenario writes a scenario in the given format.
func EncodeScenario(w io.Writer, s *Scenario, format Format) error {
	switch format {
	case TOML:
		enc := toml.NewEncoder(w)
		enc.SetIndentTables(true)
		return enc.Encode(s)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown scenario format %q", format)
	}
}
