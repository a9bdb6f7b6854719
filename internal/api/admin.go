package api

import (
	"context"
	"net/http"

	"maitred/internal/models"
)

// ListInvoices retrieves the invoices of the admin portal
func (c *Client) ListInvoices(ctx context.Context) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := c.do(ctx, request{
		method: http.MethodGet,
		name:   "invoices",
		url:    c.endpoints.Invoices(),
		out:    &invoices,
	})
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

// GetInvoice retrieves one invoice
func (c *Client) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	var inv models.Invoice
	err := c.do(ctx, request{
		method: http.MethodGet,
		name:   "invoice",
		url:    c.endpoints.Invoice(id),
		out:    &inv,
	})
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// ListUsers retrieves the accounts of the admin portal
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := c.do(ctx, request{
		method: http.MethodGet,
		name:   "users",
		url:    c.endpoints.Users(),
		out:    &users,
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}
