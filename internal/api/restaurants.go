package api

import (
	"context"
	"net/http"
	"net/url"

	"maitred/internal/models"
)

// LoginResult is what the backend returns for valid credentials
type LoginResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Login exchanges credentials for a bearer token
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var out LoginResult
	err := c.do(ctx, request{
		method:    http.MethodPost,
		name:      "login",
		url:       c.endpoints.Login(),
		body:      map[string]string{"email": email, "password": password},
		out:       &out,
		anonymous: true,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RestaurantBySlug resolves a restaurant slug, serving fresh cached lookups
// without a request and caching what the backend returns
func (c *Client) RestaurantBySlug(ctx context.Context, slug string) (*models.Restaurant, error) {
	if c.cache != nil {
		r, ok, err := c.cache.CachedRestaurant(slug, c.cacheTTL)
		if err != nil {
			c.logger.Printf("restaurant cache read for %s failed: %v", slug, err)
		} else if ok {
			return r, nil
		}
	}

	var r models.Restaurant
	err := c.do(ctx, request{
		method: http.MethodGet,
		name:   "restaurant",
		url:    c.endpoints.RestaurantBySlug(slug),
		out:    &r,
	})
	if err != nil {
		return nil, err
	}
	if r.Slug == "" {
		r.Slug = slug
	}

	if c.cache != nil {
		if err := c.cache.CacheRestaurant(r); err != nil {
			c.logger.Printf("restaurant cache write for %s failed: %v", slug, err)
		}
	}
	return &r, nil
}

// Analytics fetches the dashboard summary of a restaurant for period
// ("today", "week", "month"); an empty period uses the backend default
func (c *Client) Analytics(ctx context.Context, restaurantID, period string) (*models.Analytics, error) {
	u := c.endpoints.Analytics(restaurantID)
	if period != "" {
		u += "?" + url.Values{"period": {period}}.Encode()
	}

	var a models.Analytics
	if err := c.do(ctx, request{method: http.MethodGet, name: "analytics", url: u, out: &a}); err != nil {
		return nil, err
	}
	return &a, nil
}
