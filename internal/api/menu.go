package api

import (
	"context"
	"fmt"
	"net/http"

	"maitred/internal/models"
)

// ListMenuItems retrieves the menu of a restaurant
func (c *Client) ListMenuItems(ctx context.Context, restaurantID string) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := c.do(ctx, request{
		method: http.MethodGet,
		name:   "menu_items",
		url:    c.endpoints.MenuItems(restaurantID),
		out:    &items,
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateMenuItem replaces a menu item after validating it
func (c *Client) UpdateMenuItem(ctx context.Context, item models.MenuItem) (*models.MenuItem, error) {
	if item.ID == "" {
		return nil, fmt.Errorf("menu item id is required")
	}
	if err := models.ValidateMenuItem(&item); err != nil {
		return nil, err
	}

	var updated models.MenuItem
	err := c.do(ctx, request{
		method: http.MethodPut,
		name:   "menu_item",
		url:    c.endpoints.MenuItem(item.ID),
		body:   item,
		out:    &updated,
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// SetMenuItemAvailability toggles whether a menu item can be ordered
func (c *Client) SetMenuItemAvailability(ctx context.Context, id string, available bool) (*models.MenuItem, error) {
	var updated models.MenuItem
	err := c.do(ctx, request{
		method: http.MethodPatch,
		name:   "menu_item_availability",
		url:    c.endpoints.MenuItemAvailability(id),
		body:   map[string]bool{"is_available": available},
		out:    &updated,
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteMenuItem removes a menu item
func (c *Client) DeleteMenuItem(ctx context.Context, id string) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		name:   "menu_item",
		url:    c.endpoints.MenuItem(id),
	})
}
