package models

import "time"

// InvoiceStatus represents the payment state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// Invoice is a billing record derived from an order
type Invoice struct {
	ID             string        `json:"id"`
	InvoiceNumber  string        `json:"invoice_number"`
	OrderID        string        `json:"order_id,omitempty"`
	RestaurantName string        `json:"restaurant_name"`
	CustomerName   string        `json:"customer_name"`
	Status         InvoiceStatus `json:"status"`
	Items          []InvoiceItem `json:"items"`
	Amount         float64       `json:"amount"`
	IssuedAt       time.Time     `json:"issued_at"`
	DueAt          time.Time     `json:"due_at"`
}

// InvoiceItem is a single billed line
type InvoiceItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}
