package engine

import "github.com/etnz/montecarlo"

// Cashflows returns the end-of-month cashflows of goals over horizon months.
//
// Positive amounts are contributions and negative ones withdrawals. Real goals
// are indexed on the cumulative inflation of the months before the payment,
// a payment in month 0 is never indexed. inflation may be nil, then real goals
// are paid at face value.
func Cashflows(goals []montecarlo.Goal, horizon int, inflation []float64) []float64 {
	cf := make([]float64, horizon)
	var cum []float64
	if inflation != nil {
		cum = make([]float64, len(inflation))
		acc := 1.0
		for i, r := range inflation {
			acc *= 1 + r
			cum[i] = acc
		}
	}
	for _, g := range goals {
		step := g.Frequency.Step()
		due := g.StartMonth
		for k := 0; k < g.Repeats && due < horizon; k++ {
			amount := g.Amount
			if g.Real && due > 0 && due-1 < len(cum) {
				amount *= cum[due-1]
			}
			cf[due] += amount
			due += step
		}
	}
	return cf
}
