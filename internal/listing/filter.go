// Package listing holds the filter, sort and aggregation rules shared by the
// dashboard listings (orders, invoices, menu items, users and tickets).
package listing

import (
	"strings"
	"time"
)

// Predicate reports whether an item should be kept
type Predicate[T any] func(T) bool

// Filter returns the items matching every predicate, in their original order.
// Nil predicates are ignored so optional filters can be passed unconditionally.
func Filter[T any](items []T, preds ...Predicate[T]) []T {
	active := make([]Predicate[T], 0, len(preds))
	for _, p := range preds {
		if p != nil {
			active = append(active, p)
		}
	}

	out := make([]T, 0, len(items))
next:
	for _, item := range items {
		for _, p := range active {
			if !p(item) {
				continue next
			}
		}
		out = append(out, item)
	}
	return out
}

// MatchesText reports whether query is a case-insensitive substring of any field.
// An empty query matches everything.
func MatchesText(query string, fields ...string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}

// Equals returns a predicate comparing a field against want, or nil when want is empty
func Equals[T any, V comparable](want V, field func(T) V) Predicate[T] {
	var zero V
	if want == zero {
		return nil
	}
	return func(item T) bool {
		return field(item) == want
	}
}

// DateRange is an inclusive time window; a zero bound leaves that side open
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the window
func (r DateRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// IsZero reports whether both bounds are open
func (r DateRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// AmountRange is an inclusive numeric window; a nil bound leaves that side open
type AmountRange struct {
	Min *float64
	Max *float64
}

// Contains reports whether v falls inside the window
func (r AmountRange) Contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// IsZero reports whether both bounds are open
func (r AmountRange) IsZero() bool {
	return r.Min == nil && r.Max == nil
}

// InDateRange returns a predicate on a timestamp field, or nil for an open range
func InDateRange[T any](r DateRange, field func(T) time.Time) Predicate[T] {
	if r.IsZero() {
		return nil
	}
	return func(item T) bool {
		return r.Contains(field(item))
	}
}

// InAmountRange returns a predicate on a numeric field, or nil for an open range
func InAmountRange[T any](r AmountRange, field func(T) float64) Predicate[T] {
	if r.IsZero() {
		return nil
	}
	return func(item T) bool {
		return r.Contains(field(item))
	}
}
