package listing

import (
	"fmt"
	"slices"
	"strings"
)

// Direction is the sort order of a listing
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection accepts "asc" or "desc"; empty falls back to def
func ParseDirection(s string, def Direction) (Direction, error) {
	switch strings.ToLower(s) {
	case "":
		return def, nil
	case string(Ascending):
		return Ascending, nil
	case string(Descending):
		return Descending, nil
	}
	return "", fmt.Errorf("invalid sort direction %q", s)
}

// Toggle flips the direction
func (d Direction) Toggle() Direction {
	if d == Descending {
		return Ascending
	}
	return Descending
}

// SortBy returns a stably sorted copy of items. cmp orders items ascending.
func SortBy[T any](items []T, cmp func(a, b T) int, dir Direction) []T {
	out := slices.Clone(items)
	if cmp == nil {
		return out
	}
	if dir == Descending {
		slices.SortStableFunc(out, func(a, b T) int { return cmp(b, a) })
	} else {
		slices.SortStableFunc(out, cmp)
	}
	return out
}
