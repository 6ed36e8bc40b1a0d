// Package date provides day granularity dates and dated series used to hold
// monthly market data.
package date

import (
	"cmp"
	"encoding/json"
	"fmt"
	"time"
)

// Layout is the ISO-8601 layout of a Date, e.g. "2025-07-31".
const Layout = "2006-01-02"

// lenient layout accepted on input, it allows "2025-7-1".
const lenient = "2006-1-2"

// Date is a calendar day. The zero Date means unset.
type Date struct {
	y int
	m time.Month
	d int
}

// New returns the Date for year, month and day. Out of range values are
// normalized the way time.Date does, so New(2025, 3, 0) is the last day of February.
func New(year int, month time.Month, day int) Date {
	y, m, d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Date()
	return Date{y, m, d}
}

// FromTime returns the UTC day of t.
func FromTime(t time.Time) Date { return New(t.UTC().Date()) }

// Today returns the current local day.
func Today() Date { return New(time.Now().Date()) }

func (d Date) time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

func (d Date) Year() int         { return d.y }
func (d Date) Month() time.Month { return d.m }
func (d Date) Day() int          { return d.d }
func (d Date) IsZero() bool      { return d == Date{} }

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or after x.
func (d Date) Compare(x Date) int {
	if c := cmp.Compare(d.y, x.y); c != 0 {
		return c
	}
	if c := cmp.Compare(d.m, x.m); c != 0 {
		return c
	}
	return cmp.Compare(d.d, x.d)
}

func (d Date) Before(x Date) bool { return d.Compare(x) < 0 }
func (d Date) After(x Date) bool  { return d.Compare(x) > 0 }

// Add returns the day n days after d.
func (d Date) Add(n int) Date { return New(d.y, d.m, d.d+n) }

// EndOfMonth returns the last day of d's month.
func (d Date) EndOfMonth() Date { return New(d.y, d.m+1, 0) }

// AddMonths returns the last day of the month n months after d's month.
func (d Date) AddMonths(n int) Date { return New(d.y, d.m+time.Month(n)+1, 0) }

// SameMonth reports whether d and x fall in the same calendar month.
func (d Date) SameMonth(x Date) bool { return d.y == x.y && d.m == x.m }

// Unix returns the seconds since epoch at midnight UTC.
func (d Date) Unix() int64 { return d.time().Unix() }

// Format formats d with a time layout.
func (d Date) Format(layout string) string { return d.time().Format(layout) }

func (d Date) String() string { return d.Format(Layout) }

// Parse parses "2025-07-31" as well as "2025-7-31".
func Parse(s string) (Date, error) {
	t, err := time.Parse(lenient, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD: %w", s, err)
	}
	return New(t.Date()), nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}
