package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/etnz/montecarlo"
	"github.com/etnz/montecarlo/analytics"
	"github.com/etnz/montecarlo/date"
	"github.com/etnz/montecarlo/engine"
	"github.com/etnz/montecarlo/market"
	"github.com/etnz/montecarlo/renderer"
	"github.com/etnz/montecarlo/sampler"
	"github.com/google/subcommands"
	"github.com/google/uuid"
	"github.com/phuslu/log"
)

type simulateCmd struct {
	config string
	runOptions
}

// runOptions are the flags shared by commands running a simulation.
type runOptions struct {
	nSims   int
	seed    string
	horizon int
	workers int
	json    bool
	bands   bool
}

func (o *runOptions) setFlags(f *flag.FlagSet) {
	f.IntVar(&o.nSims, "n", 0, "Number of simulations, overrides the scenario.")
	f.StringVar(&o.seed, "seed", "", "Random seed overriding the scenario, 'random' for a new draw every run.")
	f.IntVar(&o.horizon, "horizon", 0, "Horizon in months, overrides the scenario.")
	f.IntVar(&o.workers, "workers", 0, "Number of paths simulated in parallel, overrides the scenario.")
	f.BoolVar(&o.json, "json", false, "Print the summary as JSON instead of markdown.")
	f.BoolVar(&o.bands, "bands", false, "Include yearly balance percentile bands.")
}

// apply overrides the scenario with the flags.
func (o *runOptions) apply(s *montecarlo.Scenario) error {
	if o.nSims > 0 {
		s.Sim.NSims = o.nSims
	}
	if o.horizon > 0 {
		s.Sim.HorizonMonths = o.horizon
	}
	if o.workers > 0 {
		s.Sim.Workers = o.workers
	}
	seed, keep, err := parseSeed(o.seed)
	if err != nil {
		return err
	}
	if !keep {
		s.Sampler.Seed = seed
	}
	return nil
}

// parseSeed parses the -seed flag. An empty flag keeps the scenario seed.
func parseSeed(s string) (seed *uint64, keep bool, err error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return nil, true, nil
	case "random":
		return nil, false, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, false, fmt.Errorf("invalid seed %q: want a non-negative integer or 'random'", s)
	}
	return &v, false, nil
}

func (*simulateCmd) Name() string     { return "simulate" }
func (*simulateCmd) Synopsis() string { return "run a Monte Carlo simulation of a scenario file" }
func (*simulateCmd) Usage() string {
	return `mcpt simulate -c <scenario> [-n <sims>] [-seed <seed>] [-horizon <months>] [-workers <n>] [-json] [-bands]

  Loads a scenario file (TOML or YAML), fetches the monthly history of its
  assets, resamples it into simulated paths and prints a summary of the
  outcomes. See 'mcpt topic scenario'.
`
}

func (c *simulateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.config, "c", "", "Scenario file (.toml, .yaml or .yml).")
	c.runOptions.setFlags(f)
}

func (c *simulateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.config == "" {
		fmt.Fprintln(os.Stderr, "Error: a scenario file is required (-c)")
		return subcommands.ExitUsageError
	}
	s, err := montecarlo.LoadScenario(c.config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading scenario: %v\n", err)
		return subcommands.ExitFailure
	}
	return execute(ctx, s, c.runOptions)
}

// execute runs a scenario with its flags and prints the result.
func execute(ctx context.Context, s *montecarlo.Scenario, opts runOptions) subcommands.ExitStatus {
	applySource(s)
	if err := opts.apply(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if err := s.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid scenario: %v\n", err)
		return subcommands.ExitFailure
	}

	prices, err := newPriceSource(s.Data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	returns, err := loadReturns(ctx, s, prices, newSeriesSource(s.Data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading market data: %v\n", err)
		return subcommands.ExitFailure
	}

	var out bytes.Buffer
	if err := simulate(ctx, &out, s, returns, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error running simulation: %v\n", err)
		return subcommands.ExitFailure
	}
	if opts.json {
		fmt.Print(out.String())
	} else {
		printMarkdown(out.String())
	}
	return subcommands.ExitSuccess
}

// simulate runs scenario s over the history returns and writes its report to w,
// as markdown or JSON.
func simulate(ctx context.Context, w io.Writer, s *montecarlo.Scenario, returns *market.Returns, opts runOptions) error {
	smp, err := sampler.New(returns)
	if err != nil {
		return err
	}
	paths, err := smp.Sample(s.Sim.HorizonMonths, s.Sim.NSims, s.Sampler)
	if err != nil {
		return err
	}
	sim := &engine.Simulator{
		Weights:         s.Portfolio.Weights(),
		StartingBalance: s.Sim.Balance(),
		RebalanceEvery:  s.Sim.Rebalance(),
		Workers:         s.Sim.Workers,
	}
	res, err := sim.Run(ctx, paths, s.Goals)
	if err != nil {
		return err
	}
	sum := analytics.Summarize(res, paths, s.Sim.HorizonMonths)

	runID := uuid.NewString()
	log.Info().Str("run", runID).Uint64("seed", paths.Seed).Int("sims", sum.Sims).Float64("survival", sum.Survival).Msg("simulation done")

	var bands *renderer.Bands
	if opts.bands {
		bands = renderer.NewBands(res.Balances, res.RealBalances)
	}
	if opts.json {
		return writeJSON(w, newJSONReport(s, returns, sum, runID, paths.Seed, bands))
	}
	rep := renderer.NewReport(s, returns, sum, runID, paths.Seed, bands)
	return renderer.RenderSummary(w, rep)
}

// jsonReport is the -json output. Undefined metrics are null.
type jsonReport struct {
	RunID    string               `json:"run_id"`
	Seed     uint64               `json:"seed"`
	Scenario *montecarlo.Scenario `json:"scenario"`
	History  struct {
		From   date.Date `json:"from"`
		To     date.Date `json:"to"`
		Months int       `json:"months"`
	} `json:"history"`
	Summary struct {
		Sims               int           `json:"sims"`
		HorizonMonths      int           `json:"horizon_months"`
		Survival           *float64      `json:"survival"`
		Failures           int           `json:"failures"`
		MedianFailureMonth *float64      `json:"median_failure_month"`
		EndBalance         jsonQuantiles `json:"end_balance"`
		RealEndBalance     jsonQuantiles `json:"real_end_balance"`
		CAGR               *float64      `json:"cagr"`
		RealCAGR           *float64      `json:"real_cagr"`
		TWRR               *float64      `json:"twrr"`
		MWRR               *float64      `json:"mwrr"`
		Sharpe             *float64      `json:"sharpe"`
		Sortino            *float64      `json:"sortino"`
		MaxDrawdown        *float64      `json:"max_drawdown"`
	} `json:"summary"`
	Bands []jsonBand `json:"bands,omitempty"`
}

type jsonQuantiles struct {
	P10 *float64 `json:"p10"`
	P50 *float64 `json:"p50"`
	P90 *float64 `json:"p90"`
}

type jsonBand struct {
	Month int `json:"month"`
	jsonQuantiles
	RealP50 *float64 `json:"real_p50"`
}

// num returns nil for values JSON cannot represent.
func num(x float64) *float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil
	}
	return &x
}

func quantiles(q analytics.Quantiles) jsonQuantiles {
	return jsonQuantiles{P10: num(q.P10), P50: num(q.P50), P90: num(q.P90)}
}

func newJSONReport(s *montecarlo.Scenario, r *market.Returns, sum analytics.Summary, runID string, seed uint64, bands *renderer.Bands) *jsonReport {
	rep := &jsonReport{RunID: runID, Seed: seed, Scenario: s}
	rep.History.From, rep.History.To, rep.History.Months = r.Months[0], r.Months[r.Len()-1], r.Len()

	js := &rep.Summary
	js.Sims, js.HorizonMonths, js.Failures = sum.Sims, sum.Horizon, sum.Failures
	js.Survival = num(sum.Survival)
	js.MedianFailureMonth = num(sum.MedianFailureMonth)
	js.EndBalance = quantiles(sum.EndBalance)
	js.RealEndBalance = quantiles(sum.RealEndBalance)
	js.CAGR, js.RealCAGR = num(sum.CAGR), num(sum.RealCAGR)
	js.TWRR, js.MWRR = num(sum.TWRR), num(sum.MWRR)
	js.Sharpe, js.Sortino = num(sum.Sharpe), num(sum.Sortino)
	js.MaxDrawdown = num(sum.MaxDrawdown)

	if bands != nil {
		for i, m := range bands.Months {
			b := jsonBand{Month: m, jsonQuantiles: quantiles(bands.Nominal[i])}
			if i < len(bands.RealMedian) {
				b.RealP50 = num(bands.RealMedian[i])
			}
			rep.Bands = append(rep.Bands, b)
		}
	}
	return rep
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
