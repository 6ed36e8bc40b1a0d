package date

import (
	"testing"
	"time"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b Date
		want int
	}{
		{New(2025, 7, 31), New(2025, 7, 31), 0},
		{New(2025, 7, 30), New(2025, 7, 31), -1},
		{New(2025, 8, 1), New(2025, 7, 31), 1},
		{New(2024, 12, 31), New(2025, 1, 1), -1},
		{New(2025, 3, 0), New(2025, 2, 28), 0},
	}
	for _, tt := range tests {
		if got := tt.a.Compare(tt.b); got != tt.want {
			t.Errorf("%v.Compare(%v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
	if !New(2025, 1, 1).Before(New(2025, 1, 2)) || New(2025, 1, 1).After(New(2025, 1, 2)) {
		t.Error("Before/After disagree with Compare")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		expected Date
		err      bool
	}{
		{"2025-07-01", New(2025, 7, 1), false},
		{"2025-7-1", New(2025, 7, 1), false},
		{"2025-13-01", Date{}, true},
		{"garbage", Date{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.err {
				t.Errorf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.err)
				return
			}
			if !tt.err && got != tt.expected {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestMonthArithmetic(t *testing.T) {
	tests := []struct {
		name string
		got  Date
		want Date
	}{
		{"end of february leap", New(2024, time.February, 10).EndOfMonth(), New(2024, time.February, 29)},
		{"end of december", New(2023, time.December, 1).EndOfMonth(), New(2023, time.December, 31)},
		{"add one month from jan 31", New(2025, time.January, 31).AddMonths(1), New(2025, time.February, 28)},
		{"add twelve months", New(2025, time.March, 31).AddMonths(12), New(2026, time.March, 31)},
		{"remove one month", New(2025, time.March, 15).AddMonths(-1), New(2025, time.February, 28)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestJSON(t *testing.T) {
	d := New(2025, 9, 8)
	b, err := d.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() unexpected error %v", err)
	}
	if string(b) != `"2025-09-08"` {
		t.Errorf("MarshalJSON() = %s, want \"2025-09-08\"", b)
	}
	var got Date
	if err := got.UnmarshalJSON(b); err != nil {
		t.Fatalf("UnmarshalJSON() unexpected error %v", err)
	}
	if got != d {
		t.Errorf("UnmarshalJSON() = %v, want %v", got, d)
	}
}

func TestPeriodIdentifier(t *testing.T) {
	d := New(2025, 7, 14)
	if got := Monthly.Identifier(d); got != "2025-07" {
		t.Errorf("Monthly.Identifier() = %q, want 2025-07", got)
	}
	if Monthly.Identifier(d) != Monthly.Identifier(New(2025, 7, 31)) {
		t.Error("dates of the same month must share a monthly identifier")
	}
	if Daily.Identifier(d) == Daily.Identifier(d.Add(1)) {
		t.Error("consecutive days must not share a daily identifier")
	}
	if p, err := ParsePeriod("Month"); err != nil || p != Monthly {
		t.Errorf("ParsePeriod(Month) = %v, %v", p, err)
	}
}
