package cmd

import (
	"context"
	"flag"

	"github.com/etnz/montecarlo"
	"github.com/google/subcommands"
)

type quickstartCmd struct {
	runOptions
}

func (*quickstartCmd) Name() string     { return "quickstart" }
func (*quickstartCmd) Synopsis() string { return "simulate the built-in example portfolio" }
func (*quickstartCmd) Usage() string {
	return `mcpt quickstart [-n <sims>] [-seed <seed>] [-json] [-bands]

  Simulates 100 paths of 30 years for a 1,000,000 USD portfolio of VTI 30%,
  TLT 40%, IEF 15%, GSG 7.5% and GLD 7.5%, withdrawing 4,000 a month in
  today's money from the second year on. Monthly returns are drawn one by one
  from the common history of the funds.

  'mcpt init' writes the same scenario to a file to start your own.
`
}

func (c *quickstartCmd) SetFlags(f *flag.FlagSet) { c.runOptions.setFlags(f) }

func (c *quickstartCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return execute(ctx, montecarlo.DefaultScenario(), c.runOptions)
}
