package cmd

import (
	"github.com/etnz/montecarlo"
	"github.com/etnz/montecarlo/docs"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion describes the command line for shell completion.
func Completion() *complete.Command {
	scenarios := predict.Or(predict.Files("*.toml"), predict.Files("*.yaml"), predict.Files("*.yml"))
	run := map[string]complete.Predictor{
		"n":       predict.Something,
		"seed":    predict.Set{"random"},
		"horizon": predict.Something,
		"workers": predict.Something,
		"json":    predict.Nothing,
		"bands":   predict.Nothing,
	}
	simulate := map[string]complete.Predictor{"c": scenarios}
	for k, v := range run {
		simulate[k] = v
	}
	topics, _ := docs.GetAllTopics()

	return &complete.Command{
		Flags: map[string]complete.Predictor{
			"cache-dir":    predict.Dirs("*"),
			"cache-period": predict.Set{"daily", "monthly", "yearly"},
			"source":       predict.Set{montecarlo.SourceYahoo, montecarlo.SourceEODHD, montecarlo.SourceCSV},
			"v":            predict.Nothing,
		},
		Sub: map[string]*complete.Command{
			"simulate":   {Flags: simulate},
			"quickstart": {Flags: run},
			"init": {Flags: map[string]complete.Predictor{
				"o": scenarios,
				"f": predict.Nothing,
			}},
			"fetch": {Flags: map[string]complete.Predictor{
				"tickers": predict.Something,
				"series":  predict.Set{"CPIAUCSL", "TB3MS", "CPIAUCSL,TB3MS"},
				"o":       predict.Dirs("*"),
				"start":   predict.Something,
				"end":     predict.Something,
				"refresh": predict.Nothing,
				"rows":    predict.Something,
			}},
			"topic": {Args: predict.Set(topics)},
			"help":  {},
		},
	}
}
