// Package cmd implements the mcpt command line application.
package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/montecarlo/httpcache"
	"github.com/google/subcommands"
	"github.com/phuslu/log"
)

// EnvCacheDir overrides the default cache folder.
const EnvCacheDir = "MCPT_CACHE_DIR"

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var cacheDir = flag.String("cache-dir", defaultCacheDir(), "Folder of the HTTP cache (env "+EnvCacheDir+")")
var sourceFlag = flag.String("source", "", "Price source overriding the scenario: yahoo, eodhd or csv")
var cachePeriod = flag.String("cache-period", "daily", "Lifetime of cached HTTP responses: daily, monthly or yearly")
var verbose = flag.Bool("v", false, "Verbose logging")

func defaultCacheDir() string {
	if dir := os.Getenv(EnvCacheDir); dir != "" {
		return dir
	}
	return httpcache.DefaultDir
}

// Register the subcommands.
func Register(c *subcommands.Commander) {
	c.Register(&simulateCmd{}, "simulation")
	c.Register(&quickstartCmd{}, "simulation")
	c.Register(&initCmd{}, "simulation")

	c.Register(&fetchCmd{}, "data")

	c.Register(&topicCmd{}, "help")
}

// SetupLogging configures the default logger. It must be called after the
// flags are parsed.
func SetupLogging() {
	level := log.InfoLevel
	if *verbose {
		level = log.DebugLevel
	}
	log.DefaultLogger = log.Logger{
		Level:      level,
		TimeFormat: "15:04:05",
		Writer: &log.ConsoleWriter{
			ColorOutput:    log.IsTerminal(os.Stderr.Fd()),
			EndWithMessage: true,
			Writer:         os.Stderr,
		},
	}
}

// printMarkdown renders markdown to the terminal.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		fmt.Print(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
