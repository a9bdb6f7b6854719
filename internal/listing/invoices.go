package listing

import (
	"cmp"
	"fmt"
	"time"

	"maitred/internal/models"
)

// Sort keys shared by the listings
const (
	SortByDate     = "date"
	SortByAmount   = "amount"
	SortByName     = "name"
	SortByPrice    = "price"
	SortByPriority = "priority"
)

// InvoiceQuery selects and orders invoices
type InvoiceQuery struct {
	Search    string
	Status    models.InvoiceStatus
	Issued    DateRange
	Amount    AmountRange
	SortKey   string
	Direction Direction
}

// Apply filters and sorts invoices
func (q InvoiceQuery) Apply(invoices []models.Invoice) ([]models.Invoice, error) {
	filtered := Filter(invoices,
		func(inv models.Invoice) bool {
			return MatchesText(q.Search, inv.InvoiceNumber, inv.CustomerName, inv.RestaurantName)
		},
		Equals(q.Status, func(inv models.Invoice) models.InvoiceStatus { return inv.Status }),
		InDateRange(q.Issued, func(inv models.Invoice) time.Time { return inv.IssuedAt }),
		InAmountRange(q.Amount, func(inv models.Invoice) float64 { return inv.Amount }),
	)

	var less func(a, b models.Invoice) int
	switch q.SortKey {
	case "", SortByDate:
		less = func(a, b models.Invoice) int { return a.IssuedAt.Compare(b.IssuedAt) }
	case SortByAmount:
		less = func(a, b models.Invoice) int { return cmp.Compare(a.Amount, b.Amount) }
	default:
		return nil, fmt.Errorf("invalid invoice sort key %q", q.SortKey)
	}
	return SortBy(filtered, less, q.direction()), nil
}

func (q InvoiceQuery) direction() Direction {
	if q.Direction == "" {
		return Descending
	}
	return q.Direction
}

// SummarizeInvoices counts invoices and sums revenue per status
func SummarizeInvoices(invoices []models.Invoice) Summary {
	return Summarize(invoices,
		func(inv models.Invoice) string { return string(inv.Status) },
		func(inv models.Invoice) float64 { return inv.Amount },
	)
}
