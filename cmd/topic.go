package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/montecarlo/docs"
	"github.com/google/subcommands"
)

type topicCmd struct{}

func (*topicCmd) Name() string     { return "topic" }
func (*topicCmd) Synopsis() string { return "show documentation" }
func (*topicCmd) Usage() string {
	return `mcpt topic [<topic>...]

  Shows the documentation of the given topics, the index without any, or
  every topic with '*'.
`
}

func (c *topicCmd) SetFlags(f *flag.FlagSet) {}

func (c *topicCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		printMarkdown(docs.GetReadme())
		return subcommands.ExitSuccess
	}
	doc, err := docs.GetTopics(f.Args()...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading doc: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(doc)
	return subcommands.ExitSuccess
}
