package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maitred/internal/api"
	"maitred/internal/auth"
	"maitred/internal/invoice"
	"maitred/internal/models"
	"maitred/internal/monitoring"
	"maitred/internal/poller"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var day = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeBackend is an in-memory restaurant backend
type fakeBackend struct {
	mu       sync.Mutex
	orders   []models.Order
	menu     []models.MenuItem
	invoices []models.Invoice
	users    []models.User
	tickets  []models.SupportTicket
	replies  []models.TicketReply
	fail     error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		orders: []models.Order{
			{ID: "o1", OrderNumber: "1001", Status: models.OrderStatusPending, TotalAmount: 25, Customer: models.Customer{Name: "Ana"}, CreatedAt: day},
			{ID: "o2", OrderNumber: "1002", Status: models.OrderStatusReady, TotalAmount: 40, Customer: models.Customer{Name: "Ben"}, CreatedAt: day.Add(time.Hour)},
			{ID: "o3", OrderNumber: "1003", Status: models.OrderStatusDelivered, TotalAmount: 12.5, Customer: models.Customer{Name: "Caro"}, CreatedAt: day.Add(2 * time.Hour)},
		},
		menu: []models.MenuItem{
			{ID: "m1", Name: "Margherita", Price: 9, Category: "pizza", IsAvailable: true},
			{ID: "m2", Name: "Tiramisu", Price: 6, Category: "dessert", IsAvailable: false},
			{ID: "m3", Name: "Diavola", Price: 11, Category: "pizza", IsAvailable: true},
		},
		invoices: []models.Invoice{
			{ID: "i1", InvoiceNumber: "INV-1", Status: models.InvoiceStatusPaid, Amount: 472.5, IssuedAt: day,
				Items: []models.InvoiceItem{{Description: "Catering tray", Quantity: 2, UnitPrice: 180}, {Description: "Delivery", Quantity: 1, UnitPrice: 90}}},
			{ID: "i2", InvoiceNumber: "INV-2", Status: models.InvoiceStatusPending, Amount: 100, IssuedAt: day.AddDate(0, 0, 3)},
			{ID: "i3", InvoiceNumber: "INV-3", Status: models.InvoiceStatusPaid, Amount: 50, IssuedAt: day.AddDate(0, 0, 6)},
		},
		users: []models.User{
			{ID: "u1", Name: "Root", Role: models.UserRoleAdmin, Status: models.UserStatusActive, CreatedAt: day},
			{ID: "u2", Name: "Owner", Role: models.UserRoleRestaurantOwner, Status: models.UserStatusActive, CreatedAt: day},
		},
		tickets: []models.SupportTicket{
			{ID: "t1", TicketNumber: "T-1", Subject: "Payout missing", Status: models.TicketStatusOpen, Priority: models.TicketPriorityHigh},
			{ID: "t2", TicketNumber: "T-2", Subject: "Menu photo", Status: models.TicketStatusResolved, Priority: models.TicketPriorityLow},
		},
	}
}

func (f *fakeBackend) RestaurantBySlug(ctx context.Context, slug string) (*models.Restaurant, error) {
	if slug != "golden-fork" {
		return nil, api.ErrNotFound
	}
	return &models.Restaurant{ID: "r1", Slug: slug, Name: "Golden Fork"}, nil
}

func (f *fakeBackend) Analytics(ctx context.Context, restaurantID, period string) (*models.Analytics, error) {
	return &models.Analytics{Period: period, TotalOrders: len(f.orders)}, nil
}

func (f *fakeBackend) ListOrders(ctx context.Context, restaurantID string) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	return append([]models.Order(nil), f.orders...), nil
}

func (f *fakeBackend) AdvanceOrder(ctx context.Context, restaurantID string, order models.Order) (models.OrderStatus, []models.Order, error) {
	next, ok := models.NextStatus(order.Status)
	if !ok {
		return "", nil, api.ErrNoNextStatus
	}
	f.mu.Lock()
	for i := range f.orders {
		if f.orders[i].ID == order.ID {
			f.orders[i].Status = next
		}
	}
	f.mu.Unlock()
	orders, err := f.ListOrders(ctx, restaurantID)
	return next, orders, err
}

func (f *fakeBackend) ListMenuItems(ctx context.Context, restaurantID string) ([]models.MenuItem, error) {
	return f.menu, nil
}

func (f *fakeBackend) UpdateMenuItem(ctx context.Context, item models.MenuItem) (*models.MenuItem, error) {
	for i := range f.menu {
		if f.menu[i].ID == item.ID {
			f.menu[i] = item
			return &item, nil
		}
	}
	return nil, api.ErrNotFound
}

func (f *fakeBackend) SetMenuItemAvailability(ctx context.Context, id string, available bool) (*models.MenuItem, error) {
	for i := range f.menu {
		if f.menu[i].ID == id {
			f.menu[i].IsAvailable = available
			item := f.menu[i]
			return &item, nil
		}
	}
	return nil, api.ErrNotFound
}

func (f *fakeBackend) DeleteMenuItem(ctx context.Context, id string) error {
	for i := range f.menu {
		if f.menu[i].ID == id {
			f.menu = append(f.menu[:i], f.menu[i+1:]...)
			return nil
		}
	}
	return api.ErrNotFound
}

func (f *fakeBackend) ListInvoices(ctx context.Context) ([]models.Invoice, error) {
	return f.invoices, nil
}

func (f *fakeBackend) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	for _, inv := range f.invoices {
		if inv.ID == id {
			return &inv, nil
		}
	}
	return nil, &api.APIError{Endpoint: "invoice", StatusCode: http.StatusNotFound}
}

func (f *fakeBackend) ListUsers(ctx context.Context) ([]models.User, error) {
	return f.users, nil
}

func (f *fakeBackend) ListTickets(ctx context.Context) ([]models.SupportTicket, error) {
	return f.tickets, nil
}

func (f *fakeBackend) GetTicket(ctx context.Context, id string) (*models.SupportTicket, error) {
	for _, t := range f.tickets {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, api.ErrNotFound
}

func (f *fakeBackend) CreateTicketReply(ctx context.Context, ticketID string, reply models.TicketReply) (*models.TicketMessage, error) {
	f.replies = append(f.replies, reply)
	return &models.TicketMessage{ID: "msg-1", TicketID: ticketID, Content: reply.Content, IsInternal: reply.IsInternal}, nil
}

type fakeRenderer struct {
	doc invoice.Document
	err error
}

func (r *fakeRenderer) Render(ctx context.Context, doc invoice.Document) (string, error) {
	r.doc = doc
	if r.err != nil {
		return "", r.err
	}
	return base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 fake")), nil
}

type fakeDrafter struct{}

func (fakeDrafter) Draft(ctx context.Context, t models.SupportTicket) (string, error) {
	return "Thanks, we are on it: " + t.Subject, nil
}

func newTestServer(t *testing.T, backend *fakeBackend, opts ...Option) *Server {
	t.Helper()
	opts = append([]Option{WithLogger(log.New(io.Discard, "", 0))}, opts...)
	return New(Config{RestaurantSlug: "golden-fork"}, backend, opts...)
}

func do(s *Server, method, target, body string, header ...string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

func decodeList[T any](t *testing.T, w *httptest.ResponseRecorder) listResponse[T] {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out listResponse[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, newFakeBackend())
	w := do(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestListOrders(t *testing.T) {
	s := newTestServer(t, newFakeBackend())

	out := decodeList[models.Order](t, do(s, http.MethodGet, "/api/orders", ""))
	require.Len(t, out.Items, 3)
	assert.Equal(t, "o3", out.Items[0].ID, "newest first by default")

	out = decodeList[models.Order](t, do(s, http.MethodGet, "/api/orders?status=ready", ""))
	require.Len(t, out.Items, 1)
	assert.Equal(t, "o2", out.Items[0].ID)
	assert.Equal(t, 3, out.Total)

	out = decodeList[models.Order](t, do(s, http.MethodGet, "/api/orders?sort=amount&order=asc&min=20", ""))
	require.Len(t, out.Items, 2)
	assert.Equal(t, []string{"o1", "o2"}, []string{out.Items[0].ID, out.Items[1].ID})

	out = decodeList[models.Order](t, do(s, http.MethodGet, "/api/orders?q=caro", ""))
	require.Len(t, out.Items, 1)

	ref, ok := s.monitor.Refresh("orders")
	require.True(t, ok)
	assert.Equal(t, 3, ref.Count)
}

func TestListOrdersBadQuery(t *testing.T) {
	s := newTestServer(t, newFakeBackend())
	for _, q := range []string{
		"status=lost",
		"order=sideways",
		"sort=colour",
		"min=abc",
		"min=10&max=5",
		"from=yesterday",
		"from=2024-03-05&to=2024-03-01",
	} {
		w := do(s, http.MethodGet, "/api/orders?"+q, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
		assert.Contains(t, w.Body.String(), "error", q)
	}
}

func TestBackendFailureIs502(t *testing.T) {
	backend := newFakeBackend()
	backend.fail = errors.New("connection refused")
	s := newTestServer(t, backend)

	w := do(s, http.MethodGet, "/api/orders", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)

	ref, ok := s.monitor.Refresh("orders")
	require.True(t, ok)
	assert.Equal(t, 1, ref.Failures)
	assert.Equal(t, "connection refused", ref.LastErr)
}

func TestUnknownRestaurant(t *testing.T) {
	s := New(Config{RestaurantSlug: "nowhere"}, newFakeBackend(), WithLogger(log.New(io.Discard, "", 0)))
	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/api/orders", "").Code)

	s = New(Config{}, newFakeBackend(), WithLogger(log.New(io.Discard, "", 0)))
	assert.Equal(t, http.StatusServiceUnavailable, do(s, http.MethodGet, "/api/orders", "").Code)
}

func TestAdvanceOrder(t *testing.T) {
	backend := newFakeBackend()
	metrics := monitoring.NewMetrics()
	s := newTestServer(t, backend, WithMetrics(metrics))

	w := do(s, http.MethodPost, "/api/orders/o1/advance", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		From   models.OrderStatus `json:"from"`
		Status models.OrderStatus `json:"status"`
		Orders []models.Order     `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, models.OrderStatusPending, out.From)
	assert.Equal(t, models.OrderStatusConfirmed, out.Status)
	assert.Len(t, out.Orders, 3)
	assert.Equal(t, models.OrderStatusConfirmed, backend.orders[0].Status)

	// delivered orders cannot move
	w = do(s, http.MethodPost, "/api/orders/o3/advance", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(s, http.MethodPost, "/api/orders/nope/advance", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	expected := `
# HELP maitred_order_advances_total Order status advances proposed to the backend
# TYPE maitred_order_advances_total counter
maitred_order_advances_total{result="error",to=""} 1
maitred_order_advances_total{result="ok",to="confirmed"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(metrics.Registry(), strings.NewReader(expected), "maitred_order_advances_total"))
}

func TestMenu(t *testing.T) {
	backend := newFakeBackend()
	s := newTestServer(t, backend)

	out := decodeList[models.MenuItem](t, do(s, http.MethodGet, "/api/menu?category=pizza&available=true", ""))
	require.Len(t, out.Items, 2)
	assert.Equal(t, "Diavola", out.Items[0].Name, "name ascending by default")

	out = decodeList[models.MenuItem](t, do(s, http.MethodGet, "/api/menu?max=7", ""))
	require.Len(t, out.Items, 1)
	assert.Equal(t, "m2", out.Items[0].ID)

	w := do(s, http.MethodPatch, "/api/menu/m2/availability", `{"is_available":true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, backend.menu[1].IsAvailable)

	w = do(s, http.MethodPatch, "/api/menu/m2/availability", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(s, http.MethodPut, "/api/menu/m1", `{"name":"Margherita","price":0,"category":"pizza"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(s, http.MethodPut, "/api/menu/m1", `{"name":"Margherita DOP","price":10.5,"category":"pizza","is_available":true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Margherita DOP", backend.menu[0].Name)

	w = do(s, http.MethodDelete, "/api/menu/m3", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Len(t, backend.menu, 2)

	w = do(s, http.MethodDelete, "/api/menu/m3", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInvoices(t *testing.T) {
	s := newTestServer(t, newFakeBackend())

	w := do(s, http.MethodGet, "/api/invoices?status=paid", "")
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Items   []models.Invoice `json:"items"`
		Summary struct {
			Count int             `json:"count"`
			Total decimal.Decimal `json:"total"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Len(t, out.Items, 2)
	assert.Equal(t, 2, out.Summary.Count)
	assert.True(t, out.Summary.Total.Equal(decimal.RequireFromString("522.5")), out.Summary.Total.String())

	list := decodeList[models.Invoice](t, do(s, http.MethodGet, "/api/invoices?from=2024-03-02&to=2024-03-04", ""))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "i2", list.Items[0].ID)

	w = do(s, http.MethodGet, "/api/invoices/i1/totals", "")
	require.Equal(t, http.StatusOK, w.Code)
	var totals invoice.Totals
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &totals))
	assert.True(t, totals.Subtotal.Equal(decimal.NewFromInt(450)))
	assert.True(t, totals.Tax.Equal(decimal.RequireFromString("22.5")))
	assert.True(t, totals.Total.Equal(decimal.RequireFromString("472.5")))

	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/api/invoices/zz/totals", "").Code)
}

func TestInvoicePDF(t *testing.T) {
	s := newTestServer(t, newFakeBackend())
	assert.Equal(t, http.StatusServiceUnavailable, do(s, http.MethodGet, "/api/invoices/i1/pdf", "").Code)

	renderer := &fakeRenderer{}
	s = newTestServer(t, newFakeBackend(), WithRenderer(renderer))
	w := do(s, http.MethodGet, "/api/invoices/i1/pdf", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "invoice-INV-1.pdf")
	assert.Equal(t, "%PDF-1.4 fake", w.Body.String())
	assert.True(t, renderer.doc.Totals.Total.Equal(decimal.RequireFromString("472.5")))

	renderer.err = errors.New("renderer down")
	assert.Equal(t, http.StatusBadGateway, do(s, http.MethodGet, "/api/invoices/i1/pdf", "").Code)
}

func TestOrderInvoice(t *testing.T) {
	backend := newFakeBackend()
	backend.orders[0].Items = []models.OrderItem{
		{Name: "Catering tray", Quantity: 2, Price: 180},
		{Name: "Delivery", Quantity: 1, Price: 90},
	}
	s := newTestServer(t, backend)

	w := do(s, http.MethodGet, "/api/orders/o1/invoice", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out struct {
		Invoice models.Invoice `json:"invoice"`
		Totals  invoice.Totals `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "INV-1001", out.Invoice.InvoiceNumber)
	assert.Equal(t, "Golden Fork", out.Invoice.RestaurantName)
	assert.Equal(t, "Ana", out.Invoice.CustomerName)
	assert.Equal(t, 472.5, out.Invoice.Amount)
	assert.True(t, out.Totals.Subtotal.Equal(decimal.NewFromInt(450)))
	assert.True(t, out.Totals.Tax.Equal(decimal.RequireFromString("22.5")))

	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/api/orders/nope/invoice", "").Code)
}

func TestTriggerRefresh(t *testing.T) {
	backend := newFakeBackend()
	s := newTestServer(t, backend)
	defer s.Feed().Close()

	// without a poller the handler fetches directly
	w := do(s, http.MethodPost, "/api/orders/refresh", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var results []error
	p, err := poller.New(time.Hour, s.RefreshOrders,
		poller.WithLogger(log.New(io.Discard, "", 0)),
		poller.OnResult(func(err error) { results = append(results, err) }),
	)
	require.NoError(t, err)
	s.SetPoller(p)

	w = do(s, http.MethodPost, "/api/orders/refresh", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, results, 1)
	assert.NoError(t, results[0])

	backend.mu.Lock()
	backend.fail = errors.New("connection refused")
	backend.mu.Unlock()
	w = do(s, http.MethodPost, "/api/orders/refresh", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	require.Len(t, results, 2)
	assert.Error(t, results[1])
}

func TestSetPolling(t *testing.T) {
	s := newTestServer(t, newFakeBackend())
	assert.Equal(t, http.StatusServiceUnavailable, do(s, http.MethodPut, "/api/orders/polling", `{"paused":true}`).Code)

	p, err := poller.New(time.Hour, s.RefreshOrders, poller.WithLogger(log.New(io.Discard, "", 0)))
	require.NoError(t, err)
	s.SetPoller(p)

	assert.Equal(t, http.StatusBadRequest, do(s, http.MethodPut, "/api/orders/polling", `{}`).Code)

	w := do(s, http.MethodPut, "/api/orders/polling", `{"paused":true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"paused":true}`, w.Body.String())
	assert.True(t, p.Paused())

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(do(s, http.MethodGet, "/api/status", "").Body.Bytes(), &status))
	assert.Equal(t, true, status["polling_paused"])

	w = do(s, http.MethodPut, "/api/orders/polling", `{"paused":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, p.Paused())
}

func TestUsers(t *testing.T) {
	s := newTestServer(t, newFakeBackend())
	out := decodeList[models.User](t, do(s, http.MethodGet, "/api/users?role=admin", ""))
	require.Len(t, out.Items, 1)
	assert.Equal(t, "u1", out.Items[0].ID)

	assert.Equal(t, http.StatusBadRequest, do(s, http.MethodGet, "/api/users?role=chef", "").Code)
}

func TestTickets(t *testing.T) {
	backend := newFakeBackend()
	s := newTestServer(t, backend)

	out := decodeList[models.SupportTicket](t, do(s, http.MethodGet, "/api/tickets?priority=high", ""))
	require.Len(t, out.Items, 1)
	assert.Equal(t, "t1", out.Items[0].ID)

	w := do(s, http.MethodGet, "/api/tickets/t2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/api/tickets/t9", "").Code)

	w = do(s, http.MethodPost, "/api/tickets/t1/replies", `{"content":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, backend.replies)

	w = do(s, http.MethodPost, "/api/tickets/t1/replies", `{"content":" Looking into it ","is_internal":true}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, backend.replies, 1)
	assert.Equal(t, models.TicketReply{Content: "Looking into it", IsInternal: true}, backend.replies[0])
}

func TestDraftReply(t *testing.T) {
	s := newTestServer(t, newFakeBackend())
	assert.Equal(t, http.StatusServiceUnavailable, do(s, http.MethodPost, "/api/tickets/t1/draft", "").Code)

	s = newTestServer(t, newFakeBackend(), WithDrafter(fakeDrafter{}))
	w := do(s, http.MethodPost, "/api/tickets/t1/draft", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ticket_id":"t1","draft":"Thanks, we are on it: Payout missing"}`, w.Body.String())
}

func TestAnalyticsAndStatus(t *testing.T) {
	s := newTestServer(t, newFakeBackend())

	w := do(s, http.MethodGet, "/api/analytics?period=month", "")
	require.Equal(t, http.StatusOK, w.Code)
	var a models.Analytics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &a))
	assert.Equal(t, "month", a.Period)
	assert.Equal(t, 3, a.TotalOrders)

	do(s, http.MethodGet, "/api/orders", "")
	w = do(s, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Contains(t, status, "uptime_seconds")
	assert.Contains(t, status, "refreshes")
	assert.Equal(t, float64(0), status["feed_clients"])
}

func TestAuthMiddleware(t *testing.T) {
	s := New(Config{RestaurantSlug: "golden-fork", JWTSecret: "s3cret"}, newFakeBackend(), WithLogger(log.New(io.Discard, "", 0)))

	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(s, http.MethodGet, "/api/orders", "").Code)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
		Role:           "restaurant_owner",
		StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Hour).Unix()},
	})
	signed, err := token.SignedString([]byte("s3cret"))
	require.NoError(t, err)

	w := do(s, http.MethodGet, "/api/orders", "", "Authorization", "Bearer "+signed)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOrderFeed(t *testing.T) {
	backend := newFakeBackend()
	s := newTestServer(t, backend)
	srv := httptest.NewServer(s.Router)
	defer srv.Close()
	defer s.Feed().Close()

	require.NoError(t, s.RefreshOrders(context.Background()))

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/orders/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() Snapshot {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var snap Snapshot
		require.NoError(t, json.Unmarshal(data, &snap))
		return snap
	}

	// the latest snapshot arrives on connect
	snap := read()
	assert.Equal(t, "orders", snap.Type)
	assert.Len(t, snap.Orders, 3)
	assert.Equal(t, 3, snap.Summary.Count)

	require.Eventually(t, func() bool { return s.Feed().Clients() == 1 }, time.Second, 5*time.Millisecond)

	w := do(s, http.MethodPost, "/api/orders/o2/advance", "")
	require.Equal(t, http.StatusOK, w.Code)
	snap = read()
	assert.Equal(t, "o2", snap.Orders[1].ID)
	assert.Equal(t, models.OrderStatusDelivered, snap.Orders[1].Status)

	conn.Close()
	require.Eventually(t, func() bool { return s.Feed().Clients() == 0 }, time.Second, 5*time.Millisecond)
}

func TestRefreshOrdersRecordsPolls(t *testing.T) {
	backend := newFakeBackend()
	metrics := monitoring.NewMetrics()
	s := newTestServer(t, backend, WithMetrics(metrics))

	require.NoError(t, s.RefreshOrders(context.Background()))
	backend.fail = fmt.Errorf("timeout")
	assert.Error(t, s.RefreshOrders(context.Background()))

	expected := `
# HELP maitred_poll_cycles_total Polling cycles by result
# TYPE maitred_poll_cycles_total counter
maitred_poll_cycles_total{result="error"} 1
maitred_poll_cycles_total{result="ok"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(metrics.Registry(), strings.NewReader(expected), "maitred_poll_cycles_total"))
}
