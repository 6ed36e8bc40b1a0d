// Command mcpt is a Monte Carlo portfolio tester.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/montecarlo/cmd"
	"github.com/google/subcommands"
)

func main() {
	// exits when invoked by the shell for completion.
	cmd.Completion().Complete("mcpt")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	flag.Parse()
	cmd.SetupLogging()
	os.Exit(int(commander.Execute(context.Background())))
}
