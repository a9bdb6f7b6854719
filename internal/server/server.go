// Package server exposes the dashboard views over HTTP.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"maitred/internal/api"
	"maitred/internal/auth"
	"maitred/internal/invoice"
	"maitred/internal/models"
	"maitred/internal/monitoring"
)

// Backend is the restaurant backend as seen by the dashboard service
type Backend interface {
	RestaurantBySlug(ctx context.Context, slug string) (*models.Restaurant, error)
	Analytics(ctx context.Context, restaurantID, period string) (*models.Analytics, error)

	ListOrders(ctx context.Context, restaurantID string) ([]models.Order, error)
	AdvanceOrder(ctx context.Context, restaurantID string, order models.Order) (models.OrderStatus, []models.Order, error)

	ListMenuItems(ctx context.Context, restaurantID string) ([]models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, item models.MenuItem) (*models.MenuItem, error)
	SetMenuItemAvailability(ctx context.Context, id string, available bool) (*models.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id string) error

	ListInvoices(ctx context.Context) ([]models.Invoice, error)
	GetInvoice(ctx context.Context, id string) (*models.Invoice, error)
	ListUsers(ctx context.Context) ([]models.User, error)

	ListTickets(ctx context.Context) ([]models.SupportTicket, error)
	GetTicket(ctx context.Context, id string) (*models.SupportTicket, error)
	CreateTicketReply(ctx context.Context, ticketID string, reply models.TicketReply) (*models.TicketMessage, error)
}

// Drafter proposes ticket replies
type Drafter interface {
	Draft(ctx context.Context, ticket models.SupportTicket) (string, error)
}

// Poller is the background order refresh loop
type Poller interface {
	Trigger(ctx context.Context) error
	Pause()
	Resume()
	Paused() bool
}

// Config holds the values the handlers need
type Config struct {
	RestaurantSlug string
	TaxRate        decimal.Decimal
	JWTSecret      string
}

// Server handles dashboard requests
type Server struct {
	Router   *gin.Engine
	cfg      Config
	backend  Backend
	renderer invoice.Renderer
	drafter  Drafter
	monitor  *monitoring.Monitor
	metrics  *monitoring.Metrics
	feed     *OrderFeed
	logger   *log.Logger

	pollerMu sync.RWMutex
	poller   Poller

	restaurantMu sync.Mutex
	restaurant   *models.Restaurant
}

// Option configures a Server
type Option func(*Server)

// WithRenderer enables invoice PDF export
func WithRenderer(r invoice.Renderer) Option {
	return func(s *Server) { s.renderer = r }
}

// WithDrafter enables ticket reply drafts
func WithDrafter(d Drafter) Option {
	return func(s *Server) { s.drafter = d }
}

// WithMonitor shares a monitor with the rest of the process
func WithMonitor(m *monitoring.Monitor) Option {
	return func(s *Server) { s.monitor = m }
}

// WithMetrics records order advances and poll cycles
func WithMetrics(m *monitoring.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger sets the server logger
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a server and registers its routes
func New(cfg Config, backend Backend, opts ...Option) *Server {
	if cfg.TaxRate.IsZero() {
		cfg.TaxRate = invoice.DefaultTaxRate
	}
	s := &Server{
		Router:  gin.New(),
		cfg:     cfg,
		backend: backend,
		monitor: monitoring.NewMonitor(),
		logger:  log.New(os.Stderr, "[server] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.feed = NewOrderFeed(s.logger)

	s.Router.Use(gin.Recovery())
	s.setupRoutes()
	return s
}

// SetPoller attaches the loop feeding RefreshOrders. The poller is built
// after the server because its fetch function is s.RefreshOrders.
func (s *Server) SetPoller(p Poller) {
	s.pollerMu.Lock()
	defer s.pollerMu.Unlock()
	s.poller = p
}

func (s *Server) currentPoller() Poller {
	s.pollerMu.RLock()
	defer s.pollerMu.RUnlock()
	return s.poller
}

// Feed returns the live order feed
func (s *Server) Feed() *OrderFeed {
	return s.feed
}

// setupRoutes configures all dashboard endpoints
func (s *Server) setupRoutes() {
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := s.Router.Group("/api", auth.Middleware(s.cfg.JWTSecret))
	{
		v1.GET("/orders", s.ListOrders)
		v1.POST("/orders/:id/advance", s.AdvanceOrder)
		v1.GET("/orders/:id/invoice", s.OrderInvoice)
		v1.GET("/orders/stream", s.feed.Serve)
		v1.POST("/orders/refresh", s.TriggerRefresh)
		v1.PUT("/orders/polling", s.SetPolling)

		v1.GET("/menu", s.ListMenu)
		v1.PUT("/menu/:id", s.UpdateMenuItem)
		v1.PATCH("/menu/:id/availability", s.SetAvailability)
		v1.DELETE("/menu/:id", s.DeleteMenuItem)

		v1.GET("/invoices", s.ListInvoices)
		v1.GET("/invoices/:id/totals", s.InvoiceTotals)
		v1.GET("/invoices/:id/pdf", s.InvoicePDF)

		v1.GET("/users", s.ListUsers)

		v1.GET("/tickets", s.ListTickets)
		v1.GET("/tickets/:id", s.GetTicket)
		v1.POST("/tickets/:id/replies", s.ReplyToTicket)
		v1.POST("/tickets/:id/draft", s.DraftReply)

		v1.GET("/analytics", s.Analytics)
		v1.GET("/status", s.Status)
	}
}

// currentRestaurant resolves the configured slug once per process
func (s *Server) currentRestaurant(ctx context.Context) (*models.Restaurant, error) {
	s.restaurantMu.Lock()
	defer s.restaurantMu.Unlock()
	if s.restaurant != nil {
		return s.restaurant, nil
	}
	if s.cfg.RestaurantSlug == "" {
		return nil, errNoRestaurant
	}
	r, err := s.backend.RestaurantBySlug(ctx, s.cfg.RestaurantSlug)
	if err != nil {
		return nil, err
	}
	s.restaurant = r
	return r, nil
}

func (s *Server) restaurantID(ctx context.Context) (string, error) {
	r, err := s.currentRestaurant(ctx)
	if err != nil {
		return "", err
	}
	return r.ID, nil
}

var errNoRestaurant = errors.New("no restaurant slug configured")

const shutdownTimeout = 10 * time.Second

// fail maps an error to a JSON response
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, api.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, api.ErrUnauthorized), errors.Is(err, auth.ErrNotAuthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, api.ErrNoNextStatus):
		status = http.StatusConflict
	case errors.Is(err, errNoRestaurant):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		s.logger.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Router,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Printf("Starting dashboard server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Println("Shutting down dashboard server...")
	s.feed.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
