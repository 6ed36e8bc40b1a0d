package date

import (
	"iter"
	"slices"
)

// Value is the set of types a History can hold.
type Value interface {
	~float32 | ~float64 | ~string
}

type point[T Value] struct {
	on Date
	v  T
}

// History is a dated series sorted by date, with at most one value per day.
type History[T Value] struct {
	points []point[T]
}

func (h *History[T]) search(on Date) (int, bool) {
	return slices.BinarySearchFunc(h.points, on, func(p point[T], on Date) int { return p.on.Compare(on) })
}

// Len returns the number of points.
func (h *History[T]) Len() int { return len(h.points) }

// First returns the earliest point, zero values if h is empty.
func (h *History[T]) First() (Date, T) {
	if len(h.points) == 0 {
		var zero T
		return Date{}, zero
	}
	return h.points[0].on, h.points[0].v
}

// Latest returns the most recent point, zero values if h is empty.
func (h *History[T]) Latest() (Date, T) {
	if len(h.points) == 0 {
		var zero T
		return Date{}, zero
	}
	p := h.points[len(h.points)-1]
	return p.on, p.v
}

// Dates returns the dates in chronological order.
func (h *History[T]) Dates() []Date {
	res := make([]Date, len(h.points))
	for i, p := range h.points {
		res[i] = p.on
	}
	return res
}

// Append sets the value on a day, replacing any previous value for that day.
func (h *History[T]) Append(on Date, v T) *History[T] {
	// fast path for the usual chronological appends.
	if n := len(h.points); n == 0 || h.points[n-1].on.Before(on) {
		h.points = append(h.points, point[T]{on, v})
		return h
	}
	i, found := h.search(on)
	if found {
		h.points[i].v = v
		return h
	}
	h.points = slices.Insert(h.points, i, point[T]{on, v})
	return h
}

// Values iterates over the points in chronological order.
func (h *History[T]) Values() iter.Seq2[Date, T] {
	return func(yield func(Date, T) bool) {
		for _, p := range h.points {
			if !yield(p.on, p.v) {
				return
			}
		}
	}
}

// Get returns the value on day.
func (h *History[T]) Get(day Date) (T, bool) {
	if i, found := h.search(day); found {
		return h.points[i].v, true
	}
	var zero T
	return zero, false
}

// ValueAsOf returns the value on day, or else the last one before it.
func (h *History[T]) ValueAsOf(day Date) (T, bool) {
	i, found := h.search(day)
	switch {
	case found:
		return h.points[i].v, true
	case i > 0:
		return h.points[i-1].v, true
	}
	var zero T
	return zero, false
}

// Between returns the points within [from, to]. A zero bound is open.
func (h *History[T]) Between(from, to Date) *History[T] {
	lo, hi := 0, len(h.points)
	if !from.IsZero() {
		lo, _ = h.search(from)
	}
	if !to.IsZero() {
		i, found := h.search(to)
		if found {
			i++
		}
		hi = max(i, lo)
	}
	return &History[T]{points: slices.Clone(h.points[lo:hi])}
}

// MonthEnd resamples the history to month-end dates, keeping the last
// observation of each calendar month.
func (h *History[T]) MonthEnd() *History[T] {
	res := new(History[T])
	for i, p := range h.points {
		if i+1 < len(h.points) && h.points[i+1].on.SameMonth(p.on) {
			continue
		}
		res.points = append(res.points, point[T]{p.on.EndOfMonth(), p.v})
	}
	return res
}
