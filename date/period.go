package date

import (
	"fmt"
	"strings"
)

// Period is a calendar bucket of days.
type Period int

const (
	Daily Period = iota
	Monthly
	Yearly
)

var periodNames = [...]string{Daily: "daily", Monthly: "monthly", Yearly: "yearly"}

func (p Period) String() string {
	if p < 0 || int(p) >= len(periodNames) {
		return fmt.Sprintf("Period(%d)", int(p))
	}
	return periodNames[p]
}

// ParsePeriod accepts "daily", "monthly", "yearly" and their singular
// nouns, in any case.
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(s) {
	case "daily", "day":
		return Daily, nil
	case "monthly", "month":
		return Monthly, nil
	case "yearly", "year":
		return Yearly, nil
	}
	return Daily, fmt.Errorf("unknown period %q, want daily, monthly or yearly", s)
}

// Identifier names the period containing d, e.g. "2025-07" when monthly. Two
// days share an identifier iff they fall in the same period.
func (p Period) Identifier(d Date) string {
	switch p {
	case Monthly:
		return d.Format("2006-01")
	case Yearly:
		return d.Format("2006")
	}
	return d.String()
}
