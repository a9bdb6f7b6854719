package models

import (
	"fmt"
	"time"
)

// OrderStatus represents the possible states of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusPickedUp  OrderStatus = "picked_up"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// orderFlow is the sequence the dashboards walk an order through.
// picked_up and cancelled are reported by the backend but never proposed here.
var orderFlow = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusDelivered,
}

// AllOrderStatuses lists every status the backend may report
var AllOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusPickedUp,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// NextStatus returns the status that follows current in the order flow.
// The second return value is false when current is terminal or unknown.
func NextStatus(current OrderStatus) (OrderStatus, bool) {
	for i, status := range orderFlow {
		if status != current {
			continue
		}
		if i+1 >= len(orderFlow) {
			return "", false
		}
		return orderFlow[i+1], true
	}
	return "", false
}

// ParseOrderStatus validates a status string received on the wire
func ParseOrderStatus(s string) (OrderStatus, error) {
	for _, status := range AllOrderStatuses {
		if string(status) == s {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// IsTerminal reports whether no further transition is expected
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Order represents a customer order as returned by the backend
type Order struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"order_number"`
	RestaurantID    string          `json:"restaurant_id,omitempty"`
	Status          OrderStatus     `json:"status"`
	TotalAmount     float64         `json:"total_amount"`
	Items           []OrderItem     `json:"order_items"`
	DeliveryAddress DeliveryAddress `json:"delivery_address"`
	Customer        Customer        `json:"customer"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderItem represents an item in an order
type OrderItem struct {
	ID         string  `json:"id,omitempty"`
	MenuItemID string  `json:"menu_item_id,omitempty"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price"`
	Notes      string  `json:"notes,omitempty"`
}

// DeliveryAddress is where an order is delivered
type DeliveryAddress struct {
	Street       string `json:"street"`
	City         string `json:"city"`
	PostalCode   string `json:"postal_code,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// Customer is the person who placed an order
type Customer struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// ItemNames returns the names of every item in the order
func (o *Order) ItemNames() []string {
	names := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		names = append(names, item.Name)
	}
	return names
}
