package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/etnz/montecarlo"
	"github.com/google/subcommands"
)

type initCmd struct {
	output string
	force  bool
}

func (*initCmd) Name() string     { return "init" }
func (*initCmd) Synopsis() string { return "write the quickstart scenario to a file" }
func (*initCmd) Usage() string {
	return `mcpt init [-o <scenario>] [-f]

  Writes the quickstart scenario to a TOML or YAML file, depending on its
  extension, as a starting point for 'mcpt simulate -c <scenario>'.
`
}

func (c *initCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "scenario.toml", "Scenario file to write (.toml, .yaml or .yml).")
	f.BoolVar(&c.force, "f", false, "Overwrite an existing file.")
}

func (c *initCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := writeScenario(c.output, montecarlo.DefaultScenario(), c.force); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Successfully wrote %s\n", c.output)
	return subcommands.ExitSuccess
}

// writeScenario encodes s into path, in the format of its extension.
func writeScenario(path string, s *montecarlo.Scenario, force bool) error {
	format, err := montecarlo.FormatOf(path)
	if err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%s already exists, use -f to overwrite it", path)
	}
	if err != nil {
		return err
	}
	if err := montecarlo.EncodeScenario(f, s, format); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
