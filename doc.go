// Package montecarlo describes the portfolios, cashflow goals and run settings of a
// Monte Carlo portfolio test.
//
// A test bootstraps randomized monthly return paths from the history of the assets
// of a portfolio, then replays every path with the planned contributions and
// withdrawals to estimate how likely the portfolio is to survive, and what its
// balance and returns could look like at the horizon.
//
// The building blocks live in sub packages:
//   - market: monthly returns, inflation and risk-free series prepared from prices.
//   - fred, yahoo, eodhd: remote sources for prices and macro series.
//   - sampler: bootstrap resampling of the monthly history.
//   - engine: the simulation of balances, cashflows and rebalancing.
//   - analytics: survival, CAGR, TWRR, MWRR, Sharpe, Sortino and drawdown statistics.
//   - renderer: markdown reports.
//
// This package holds the scenario model shared by all of them, and its file
// encoding (TOML or YAML), for the `mcpt` command-line tool.
package montecarlo
