package montecarlo

import (
	"fmt"
	"math"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money represents a monetary value for display.
type Money struct {
	value decimal.Decimal // as major unit value
	cur   string
	nan   bool
}

// M returns an amount of money. NaN and infinite floats give an undefined amount.
func M(value float64, currency string) Money {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Money{cur: currency, nan: true}
	}
	return Money{value: decimal.NewFromFloat(value), cur: currency}
}

// currency returns the money's currency
func (m Money) currency() money.Currency {
	// to get a never nil currency I need to call the Money constructor
	return *money.New(0, m.cur).Currency()
}

// String returns the amount with its currency minor units, e.g. "$1,234.50".
func (m Money) String() string {
	if m.nan {
		return "n/a"
	}
	cur := m.currency()
	dec := m.value.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(dec.IntPart())
}

// Whole returns the amount rounded to major units, e.g. "$1,235".
func (m Money) Whole() string {
	if m.nan {
		return "n/a"
	}
	cur := m.currency()
	f := money.NewFormatter(0, cur.Decimal, cur.Thousand, cur.Grapheme, cur.Template)
	return f.Format(m.value.Round(0).IntPart())
}

func (m Money) Currency() string { return m.cur }
func (m Money) IsNaN() bool      { return m.nan }
func (m Money) IsZero() bool     { return !m.nan && m.value.IsZero() }
func (m Money) IsNegative() bool { return !m.nan && m.value.IsNegative() }

// Float returns the amount as a float, NaN when undefined.
func (m Money) Float() float64 {
	if m.nan {
		return math.NaN()
	}
	return m.value.InexactFloat64()
}

// Percent is a percentage, 12.5 means 12.5%.
type Percent float64

// PercentOf converts a fraction (0.125) into a Percent (12.5%).
func PercentOf(fraction float64) Percent { return Percent(fraction * 100) }

func (p Percent) String() string {
	if math.IsNaN(float64(p)) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", p)
}

func (p Percent) SignedString() string {
	if math.IsNaN(float64(p)) {
		return "n/a"
	}
	res := fmt.Sprintf("%+.2f%%", p)
	if res == "+0.00%" {
		return "-"
	}
	return res
}
