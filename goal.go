package montecarlo

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Frequency is a number of payments per year.
type Frequency int

const (
	Annual    Frequency = 1
	Quarterly Frequency = 4
	Monthly   Frequency = 12
)

// Step returns the number of months between two payments.
func (f Frequency) Step() int { return 12 / int(f) }

// Valid reports whether f is one of the supported frequencies.
func (f Frequency) Valid() bool { return f == Annual || f == Quarterly || f == Monthly }

func (f Frequency) String() string {
	switch f {
	case Annual:
		return "annual"
	case Quarterly:
		return "quarterly"
	case Monthly:
		return "monthly"
	default:
		return strconv.Itoa(int(f))
	}
}

// ParseFrequency parses a frequency name or a number of payments per year.
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "annual", "annually", "yearly", "1":
		return Annual, nil
	case "quarterly", "4":
		return Quarterly, nil
	case "monthly", "12":
		return Monthly, nil
	default:
		return 0, fmt.Errorf("unknown frequency %q, want annual, quarterly or monthly", s)
	}
}

// UnmarshalText accepts both names and numbers.
func (f *Frequency) UnmarshalText(text []byte) error {
	v, err := ParseFrequency(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

func (f Frequency) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// UnmarshalJSON accepts a JSON number as well as a string.
func (f *Frequency) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		return f.UnmarshalText([]byte(strconv.Itoa(n)))
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return f.UnmarshalText([]byte(s))
}

// Goal is a recurring cashflow paid at the end of a month.
//
// A positive Amount is a contribution, a negative Amount a withdrawal. Payment k
// (k < Repeats) is due at month StartMonth + k*Frequency.Step(), month 0 being
// the first simulated month. A Real goal is expressed in today's money and gets
// indexed by the simulated inflation up to its payment date.
type Goal struct {
	Name       string    `toml:"name" yaml:"name" json:"name"`
	Amount     float64   `toml:"amount" yaml:"amount" json:"amount"`
	StartMonth int       `toml:"start_month" yaml:"start_month" json:"start_month"`
	Frequency  Frequency `toml:"frequency" yaml:"frequency" json:"frequency"`
	Repeats    int       `toml:"repeats" yaml:"repeats" json:"repeats"`
	Real       bool      `toml:"real" yaml:"real" json:"real"`
}

// Total returns the undiscounted sum of all payments.
func (g Goal) Total() float64 { return g.Amount * float64(g.Repeats) }

// Validate checks that the goal can be scheduled.
func (g Goal) Validate() error {
	if !g.Frequency.Valid() {
		return fmt.Errorf("goal %q: invalid frequency %d, want 1, 4 or 12", g.Name, int(g.Frequency))
	}
	if g.StartMonth < 0 {
		return fmt.Errorf("goal %q: negative start month %d", g.Name, g.StartMonth)
	}
	if g.Repeats < 0 {
		return fmt.Errorf("goal %q: negative repeats %d", g.Name, g.Repeats)
	}
	return nil
}
