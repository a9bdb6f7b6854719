package api

import (
	"fmt"
	"net/url"
	"strings"
)

// Endpoints resolves the backend's REST routes from its base URL
type Endpoints struct {
	base string
}

// NewEndpoints validates base and returns the route table
func NewEndpoints(base string) (*Endpoints, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid backend url %q: %w", base, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend url %q: scheme must be http or https", base)
	}
	return &Endpoints{base: strings.TrimRight(base, "/")}, nil
}

func (e *Endpoints) join(segments ...string) string {
	var b strings.Builder
	b.WriteString(e.base)
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(s)
	}
	return b.String()
}

func esc(s string) string { return url.PathEscape(s) }

func (e *Endpoints) Login() string { return e.join("auth", "login") }

func (e *Endpoints) RestaurantBySlug(slug string) string {
	return e.join("restaurants", "slug", esc(slug))
}

func (e *Endpoints) MenuItems(restaurantID string) string {
	return e.join("restaurants", esc(restaurantID), "menu-items")
}

func (e *Endpoints) MenuItem(id string) string { return e.join("menu-items", esc(id)) }

func (e *Endpoints) MenuItemAvailability(id string) string {
	return e.join("menu-items", esc(id), "availability")
}

func (e *Endpoints) Orders(restaurantID string) string {
	return e.join("restaurants", esc(restaurantID), "orders")
}

func (e *Endpoints) OrderStatus(id string) string { return e.join("orders", esc(id), "status") }

func (e *Endpoints) Tickets() string { return e.join("support", "tickets") }

func (e *Endpoints) Ticket(id string) string { return e.join("support", "tickets", esc(id)) }

func (e *Endpoints) TicketReplies(id string) string {
	return e.join("support", "tickets", esc(id), "replies")
}

func (e *Endpoints) ChatSessions() string { return e.join("chat", "sessions") }

func (e *Endpoints) Analytics(restaurantID string) string {
	return e.join("restaurants", esc(restaurantID), "analytics")
}

func (e *Endpoints) Invoices() string { return e.join("invoices") }

func (e *Endpoints) Invoice(id string) string { return e.join("invoices", esc(id)) }

func (e *Endpoints) Users() string { return e.join("admin", "users") }
