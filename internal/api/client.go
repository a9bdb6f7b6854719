// Package api is the client of the restaurant backend's REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"maitred/internal/models"
)

// TokenSource supplies the bearer token attached to every request
type TokenSource interface {
	Token() (string, error)
}

// RestaurantCache keeps restaurant lookups between runs
type RestaurantCache interface {
	CachedRestaurant(slug string, ttl time.Duration) (*models.Restaurant, bool, error)
	CacheRestaurant(r models.Restaurant) error
}

// Observer receives one call per backend request
type Observer interface {
	ObserveRequest(endpoint string, status int, elapsed time.Duration)
}

// Client handles requests to the restaurant backend
type Client struct {
	httpClient *http.Client
	endpoints  *Endpoints
	tokens     TokenSource
	cache      RestaurantCache
	cacheTTL   time.Duration
	observer   Observer
	logger     *log.Logger
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRestaurantCache enables the read-through restaurant cache
func WithRestaurantCache(cache RestaurantCache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

// WithObserver reports every request to o
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithLogger sets the logger used for failed requests
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a new API client for the backend at baseURL
func NewClient(baseURL string, tokens TokenSource, opts ...Option) (*Client, error) {
	endpoints, err := NewEndpoints(baseURL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: time.Second * 10,
		},
		endpoints: endpoints,
		tokens:    tokens,
		logger:    log.New(os.Stderr, "[api] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoints returns the route table the client uses
func (c *Client) Endpoints() *Endpoints {
	return c.endpoints
}

type request struct {
	method    string
	name      string // endpoint label for metrics and logs
	url       string
	body      interface{}
	out       interface{}
	anonymous bool
}

func (c *Client) do(ctx context.Context, r request) error {
	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", r.name, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !r.anonymous && c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(r.name, 0, start)
		c.logger.Printf("%s %s failed: %v", r.method, r.name, err)
		return fmt.Errorf("%s request failed: %w", r.name, err)
	}
	defer resp.Body.Close()
	c.observe(r.name, resp.StatusCode, start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		apiErr := &APIError{Endpoint: r.name, StatusCode: resp.StatusCode, Message: errorMessage(data)}
		c.logger.Printf("%s %s: %v", r.method, r.name, apiErr)
		return apiErr
	}

	if r.out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", r.name, err)
	}
	if err := decode(data, r.out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", r.name, err)
	}
	return nil
}

func (c *Client) observe(name string, status int, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveRequest(name, status, time.Since(start))
	}
}

// decode accepts either a bare JSON value or one wrapped in {"data": ...}
func decode(data []byte, out interface{}) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}
	if trimmed[0] == '{' {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err == nil && len(envelope.Data) > 0 && string(envelope.Data) != "null" {
			return json.Unmarshal(envelope.Data, out)
		}
	}
	return json.Unmarshal(trimmed, out)
}
