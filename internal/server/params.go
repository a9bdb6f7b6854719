package server

import (
	"fmt"
	"strings"
	"time"

	"maitred/internal/listing"
	"maitred/internal/models"
)

const dateLayout = "2006-01-02"

// listParams are the query parameters shared by the listings
type listParams struct {
	Search string   `form:"q"`
	Status string   `form:"status"`
	Sort   string   `form:"sort"`
	Order  string   `form:"order"`
	From   string   `form:"from"`
	To     string   `form:"to"`
	Min    *float64 `form:"min"`
	Max    *float64 `form:"max"`
}

func (p listParams) direction() (listing.Direction, error) {
	return listing.ParseDirection(p.Order, "")
}

// dates parses from/to as a day or an RFC 3339 timestamp. A bare "to" day
// includes the whole day.
func (p listParams) dates() (listing.DateRange, error) {
	var r listing.DateRange
	var err error
	if r.From, err = parseBound(p.From, false); err != nil {
		return r, fmt.Errorf("invalid from: %w", err)
	}
	if r.To, err = parseBound(p.To, true); err != nil {
		return r, fmt.Errorf("invalid to: %w", err)
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.From.After(r.To) {
		return r, fmt.Errorf("from %s is after to %s", p.From, p.To)
	}
	return r, nil
}

func (p listParams) amounts() (listing.AmountRange, error) {
	if p.Min != nil && p.Max != nil && *p.Min > *p.Max {
		return listing.AmountRange{}, fmt.Errorf("min %v is greater than max %v", *p.Min, *p.Max)
	}
	return listing.AmountRange{Min: p.Min, Max: p.Max}, nil
}

func parseBound(s string, endOfDay bool) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// oneOf matches raw case-insensitively against allowed; empty means no filter
func oneOf[T ~string](field, raw string, allowed ...T) (T, error) {
	if raw == "" {
		return "", nil
	}
	for _, a := range allowed {
		if strings.EqualFold(raw, string(a)) {
			return a, nil
		}
	}
	return "", fmt.Errorf("invalid %s %q", field, raw)
}

func (p listParams) orderQuery() (listing.OrderQuery, error) {
	q := listing.OrderQuery{Search: p.Search, SortKey: p.Sort}
	var err error
	if p.Status != "" {
		if q.Status, err = models.ParseOrderStatus(strings.ToLower(p.Status)); err != nil {
			return q, err
		}
	}
	if q.Created, err = p.dates(); err != nil {
		return q, err
	}
	if q.Amount, err = p.amounts(); err != nil {
		return q, err
	}
	q.Direction, err = p.direction()
	return q, err
}

func (p listParams) invoiceQuery() (listing.InvoiceQuery, error) {
	q := listing.InvoiceQuery{Search: p.Search, SortKey: p.Sort}
	var err error
	q.Status, err = oneOf("status", p.Status,
		models.InvoiceStatusPaid, models.InvoiceStatusPending, models.InvoiceStatusOverdue, models.InvoiceStatusCancelled)
	if err != nil {
		return q, err
	}
	if q.Issued, err = p.dates(); err != nil {
		return q, err
	}
	if q.Amount, err = p.amounts(); err != nil {
		return q, err
	}
	q.Direction, err = p.direction()
	return q, err
}

func (p listParams) ticketQuery(priority string) (listing.TicketQuery, error) {
	q := listing.TicketQuery{Search: p.Search, SortKey: p.Sort}
	var err error
	q.Status, err = oneOf("status", p.Status,
		models.TicketStatusOpen, models.TicketStatusInProgress, models.TicketStatusResolved, models.TicketStatusClosed)
	if err != nil {
		return q, err
	}
	q.Priority, err = oneOf("priority", priority,
		models.TicketPriorityLow, models.TicketPriorityMedium, models.TicketPriorityHigh, models.TicketPriorityUrgent)
	if err != nil {
		return q, err
	}
	q.Direction, err = p.direction()
	return q, err
}

func (p listParams) userQuery(role string) (listing.UserQuery, error) {
	q := listing.UserQuery{Search: p.Search, SortKey: p.Sort}
	var err error
	q.Role, err = oneOf("role", role,
		models.UserRoleAdmin, models.UserRoleRestaurantOwner, models.UserRoleSupport, models.UserRoleCustomer)
	if err != nil {
		return q, err
	}
	q.Status, err = oneOf("status", p.Status,
		models.UserStatusActive, models.UserStatusInactive, models.UserStatusSuspended)
	if err != nil {
		return q, err
	}
	q.Direction, err = p.direction()
	return q, err
}

// menuParams filter the menu; min and max apply to the price
type menuParams struct {
	listParams
	Category  string `form:"category"`
	Available *bool  `form:"available"`
}

func (p menuParams) menuQuery() (listing.MenuQuery, error) {
	q := listing.MenuQuery{
		Search:    p.Search,
		Category:  p.Category,
		Available: p.Available,
		SortKey:   p.Sort,
	}
	var err error
	if q.Price, err = p.amounts(); err != nil {
		return q, err
	}
	q.Direction, err = p.direction()
	return q, err
}
