package listing

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"maitred/internal/models"
)

// OrderQuery selects and orders orders
type OrderQuery struct {
	Search    string
	Status    models.OrderStatus
	Created   DateRange
	Amount    AmountRange
	SortKey   string
	Direction Direction
}

// Apply filters and sorts orders
func (q OrderQuery) Apply(orders []models.Order) ([]models.Order, error) {
	filtered := Filter(orders,
		func(o models.Order) bool {
			return MatchesText(q.Search, o.OrderNumber, o.Customer.Name, strings.Join(o.ItemNames(), " "))
		},
		Equals(q.Status, func(o models.Order) models.OrderStatus { return o.Status }),
		InDateRange(q.Created, func(o models.Order) time.Time { return o.CreatedAt }),
		InAmountRange(q.Amount, func(o models.Order) float64 { return o.TotalAmount }),
	)

	var less func(a, b models.Order) int
	switch q.SortKey {
	case "", SortByDate:
		less = func(a, b models.Order) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case SortByAmount:
		less = func(a, b models.Order) int { return cmp.Compare(a.TotalAmount, b.TotalAmount) }
	default:
		return nil, fmt.Errorf("invalid order sort key %q", q.SortKey)
	}

	dir := q.Direction
	if dir == "" {
		dir = Descending
	}
	return SortBy(filtered, less, dir), nil
}

// SummarizeOrders counts orders and sums their totals per status
func SummarizeOrders(orders []models.Order) Summary {
	return Summarize(orders,
		func(o models.Order) string { return string(o.Status) },
		func(o models.Order) float64 { return o.TotalAmount },
	)
}
