package listing

import (
	"cmp"
	"fmt"

	"maitred/internal/models"
)

// TicketQuery selects and orders support tickets
type TicketQuery struct {
	Search    string
	Status    models.TicketStatus
	Priority  models.TicketPriority
	SortKey   string
	Direction Direction
}

// Apply filters and sorts tickets
func (q TicketQuery) Apply(tickets []models.SupportTicket) ([]models.SupportTicket, error) {
	filtered := Filter(tickets,
		func(t models.SupportTicket) bool {
			return MatchesText(q.Search, t.TicketNumber, t.Subject, t.Restaurant.Name)
		},
		Equals(q.Status, func(t models.SupportTicket) models.TicketStatus { return t.Status }),
		Equals(q.Priority, func(t models.SupportTicket) models.TicketPriority { return t.Priority }),
	)

	var less func(a, b models.SupportTicket) int
	switch q.SortKey {
	case "", SortByDate:
		less = func(a, b models.SupportTicket) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case SortByPriority:
		less = func(a, b models.SupportTicket) int { return cmp.Compare(a.Priority.Rank(), b.Priority.Rank()) }
	default:
		return nil, fmt.Errorf("invalid ticket sort key %q", q.SortKey)
	}

	dir := q.Direction
	if dir == "" {
		dir = Descending
	}
	return SortBy(filtered, less, dir), nil
}

// SummarizeTickets counts tickets per status
func SummarizeTickets(tickets []models.SupportTicket) Summary {
	return Summarize(tickets,
		func(t models.SupportTicket) string { return string(t.Status) },
		nil,
	)
}
