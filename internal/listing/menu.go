package listing

import (
	"cmp"
	"fmt"
	"strings"

	"maitred/internal/models"
)

// MenuQuery selects and orders menu items
type MenuQuery struct {
	Search    string
	Category  string
	Available *bool
	Price     AmountRange
	SortKey   string
	Direction Direction
}

// Apply filters and sorts menu items
func (q MenuQuery) Apply(items []models.MenuItem) ([]models.MenuItem, error) {
	var available Predicate[models.MenuItem]
	if q.Available != nil {
		want := *q.Available
		available = func(mi models.MenuItem) bool { return mi.IsAvailable == want }
	}

	filtered := Filter(items,
		func(mi models.MenuItem) bool {
			return MatchesText(q.Search, mi.Name, mi.Description, mi.Category)
		},
		Equals(strings.ToLower(q.Category), func(mi models.MenuItem) string { return strings.ToLower(mi.Category) }),
		available,
		InAmountRange(q.Price, func(mi models.MenuItem) float64 { return mi.Price }),
	)

	var less func(a, b models.MenuItem) int
	switch q.SortKey {
	case "", SortByName:
		less = func(a, b models.MenuItem) int {
			return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	case SortByPrice:
		less = func(a, b models.MenuItem) int { return cmp.Compare(a.Price, b.Price) }
	default:
		return nil, fmt.Errorf("invalid menu sort key %q", q.SortKey)
	}

	dir := q.Direction
	if dir == "" {
		dir = Ascending
	}
	return SortBy(filtered, less, dir), nil
}

// CountByCategory returns how many items each category holds
func CountByCategory(items []models.MenuItem) map[string]int {
	counts := make(map[string]int)
	for _, mi := range items {
		counts[mi.Category]++
	}
	return counts
}
