package api

import (
	"context"
	"fmt"
	"net/http"

	"maitred/internal/models"
)

// ListOrders retrieves the orders of a restaurant
func (c *Client) ListOrders(ctx context.Context, restaurantID string) ([]models.Order, error) {
	var orders []models.Order
	err := c.do(ctx, request{
		method: http.MethodGet,
		name:   "orders",
		url:    c.endpoints.Orders(restaurantID),
		out:    &orders,
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrderStatus proposes a new status for an order.
// The backend decides whether the transition is legal.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	return c.do(ctx, request{
		method: http.MethodPatch,
		name:   "order_status",
		url:    c.endpoints.OrderStatus(orderID),
		body:   map[string]models.OrderStatus{"status": status},
	})
}

// AdvanceOrder moves an order to the next status in the flow and re-fetches
// the restaurant's orders. ErrNoNextStatus is returned for terminal or
// unknown statuses without contacting the backend.
func (c *Client) AdvanceOrder(ctx context.Context, restaurantID string, order models.Order) (models.OrderStatus, []models.Order, error) {
	next, ok := models.NextStatus(order.Status)
	if !ok {
		return "", nil, fmt.Errorf("%w: %s is %q", ErrNoNextStatus, order.OrderNumber, order.Status)
	}
	if err := c.UpdateOrderStatus(ctx, order.ID, next); err != nil {
		return next, nil, fmt.Errorf("failed to move order %s to %s: %w", order.OrderNumber, next, err)
	}

	orders, err := c.ListOrders(ctx, restaurantID)
	if err != nil {
		return next, nil, err
	}
	return next, orders, nil
}
