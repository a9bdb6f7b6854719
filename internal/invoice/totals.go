// Package invoice computes invoice totals and hands finished invoices to the
// external PDF renderer.
package invoice

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"maitred/internal/models"
)

// DefaultTaxRate is the flat tax applied to invoice subtotals
var DefaultTaxRate = decimal.RequireFromString("0.05")

// Line is a computed invoice line
type Line struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// Totals is the recomputed arithmetic of an invoice
type Totals struct {
	Lines    []Line          `json:"lines"`
	Subtotal decimal.Decimal `json:"subtotal"`
	TaxRate  decimal.Decimal `json:"tax_rate"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// Compute recomputes line totals, subtotal, tax and total.
// Line total = quantity x unit price; tax is rounded to cents.
func Compute(items []models.InvoiceItem, taxRate decimal.Decimal) Totals {
	t := Totals{
		Lines:    make([]Line, 0, len(items)),
		Subtotal: decimal.Zero,
		TaxRate:  taxRate,
	}
	for _, item := range items {
		price := decimal.NewFromFloat(item.UnitPrice)
		lineTotal := price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		t.Lines = append(t.Lines, Line{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   price,
			Total:       lineTotal,
		})
		t.Subtotal = t.Subtotal.Add(lineTotal)
	}
	t.Tax = t.Subtotal.Mul(taxRate).Round(2)
	t.Total = t.Subtotal.Add(t.Tax)
	return t
}

// ParseTaxRate parses a rate such as "0.05"
func ParseTaxRate(s string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid tax rate %q: %w", s, err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("tax rate %s must be in [0, 1)", rate)
	}
	return rate, nil
}

// FromOrder drafts an invoice for an order, one line per order item
func FromOrder(order models.Order, restaurantName string, issued time.Time, taxRate decimal.Decimal) models.Invoice {
	items := make([]models.InvoiceItem, 0, len(order.Items))
	for _, oi := range order.Items {
		items = append(items, models.InvoiceItem{
			Description: oi.Name,
			Quantity:    oi.Quantity,
			UnitPrice:   oi.Price,
		})
	}

	totals := Compute(items, taxRate)
	return models.Invoice{
		InvoiceNumber:  "INV-" + order.OrderNumber,
		OrderID:        order.ID,
		RestaurantName: restaurantName,
		CustomerName:   order.Customer.Name,
		Status:         models.InvoiceStatusPending,
		Items:          items,
		Amount:         totals.Total.InexactFloat64(),
		IssuedAt:       issued,
		DueAt:          issued.AddDate(0, 0, 30),
	}
}
