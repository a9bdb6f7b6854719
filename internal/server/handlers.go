package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"maitred/internal/invoice"
	"maitred/internal/listing"
	"maitred/internal/models"
)

// Order handlers

// ListOrders returns the filtered orders of the configured restaurant
func (s *Server) ListOrders(c *gin.Context) {
	var p listParams
	if err := c.ShouldBindQuery(&p); err != nil {
		badRequest(c, err)
		return
	}
	q, err := p.orderQuery()
	if err != nil {
		badRequest(c, err)
		return
	}

	orders, err := s.fetchOrders(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	items, err := q.Apply(orders)
	if err != nil {
		badRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":   items,
		"total":   len(orders),
		"summary": listing.SummarizeOrders(items),
	})
}

// AdvanceOrder moves an order to the next status of the workflow
func (s *Server) AdvanceOrder(c *gin.Context) {
	ctx := c.Request.Context()
	orderID := c.Param("id")

	rid, order, err := s.findOrder(ctx, orderID)
	if err != nil {
		s.fail(c, err)
		return
	}
	if order == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	next, refreshed, err := s.backend.AdvanceOrder(ctx, rid, *order)
	if s.metrics != nil {
		s.metrics.RecordAdvance(string(next), err)
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	s.monitor.RecordRefresh("orders", len(refreshed))
	s.feed.Publish(refreshed)

	c.JSON(http.StatusOK, gin.H{
		"order_id": orderID,
		"from":     order.Status,
		"status":   next,
		"orders":   refreshed,
	})
}

// findOrder looks an order up in the restaurant's current list. A nil
// order with a nil error means the id is unknown.
func (s *Server) findOrder(ctx context.Context, id string) (string, *models.Order, error) {
	rid, err := s.restaurantID(ctx)
	if err != nil {
		return "", nil, err
	}
	orders, err := s.backend.ListOrders(ctx, rid)
	if err != nil {
		return rid, nil, err
	}
	for i := range orders {
		if orders[i].ID == id {
			return rid, &orders[i], nil
		}
	}
	return rid, nil, nil
}

// OrderInvoice drafts the invoice of an order from its items
func (s *Server) OrderInvoice(c *gin.Context) {
	ctx := c.Request.Context()
	_, order, err := s.findOrder(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if order == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	restaurant, err := s.currentRestaurant(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}

	inv := invoice.FromOrder(*order, restaurant.Name, time.Now().UTC(), s.cfg.TaxRate)
	c.JSON(http.StatusOK, gin.H{
		"invoice": inv,
		"totals":  invoice.Compute(inv.Items, s.cfg.TaxRate),
	})
}

// TriggerRefresh re-fetches the orders outside the polling schedule
func (s *Server) TriggerRefresh(c *gin.Context) {
	refresh := s.RefreshOrders
	if p := s.currentPoller(); p != nil {
		refresh = p.Trigger
	}
	if err := refresh(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "refreshed", "feed_clients": s.feed.Clients()})
}

// SetPolling pauses or resumes background order polling
func (s *Server) SetPolling(c *gin.Context) {
	p := s.currentPoller()
	if p == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Order polling is not running"})
		return
	}
	var req struct {
		Paused *bool `json:"paused" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if *req.Paused {
		p.Pause()
	} else {
		p.Resume()
	}
	c.JSON(http.StatusOK, gin.H{"paused": p.Paused()})
}

func (s *Server) fetchOrders(ctx context.Context) ([]models.Order, error) {
	rid, err := s.restaurantID(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.backend.ListOrders(ctx, rid)
	if err != nil {
		s.monitor.RecordFailure("orders", err)
		return nil, err
	}
	s.monitor.RecordRefresh("orders", len(orders))
	return orders, nil
}

// RefreshOrders fetches the orders and pushes them to feed subscribers.
// It is the poller's fetch function.
func (s *Server) RefreshOrders(ctx context.Context) error {
	orders, err := s.fetchOrders(ctx)
	if s.metrics != nil {
		s.metrics.RecordPoll(err)
	}
	if err != nil {
		return err
	}
	s.feed.Publish(orders)
	return nil
}

// Menu handlers

// ListMenu returns the filtered menu items
func (s *Server) ListMenu(c *gin.Context) {
	var p menuParams
	if err := c.ShouldBindQuery(&p); err != nil {
		badRequest(c, err)
		return
	}
	q, err := p.menuQuery()
	if err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	rid, err := s.restaurantID(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	menu, err := s.backend.ListMenuItems(ctx, rid)
	if err != nil {
		s.monitor.RecordFailure("menu", err)
		s.fail(c, err)
		return
	}
	s.monitor.RecordRefresh("menu", len(menu))

	items, err := q.Apply(menu)
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":       items,
		"total":       len(menu),
		"by_category": listing.CountByCategory(items),
	})
}

// UpdateMenuItem replaces a menu item
func (s *Server) UpdateMenuItem(c *gin.Context) {
	var item models.MenuItem
	if err := c.ShouldBindJSON(&item); err != nil {
		badRequest(c, err)
		return
	}
	item.ID = c.Param("id")
	if err := models.ValidateMenuItem(&item); err != nil {
		badRequest(c, err)
		return
	}

	updated, err := s.backend.UpdateMenuItem(c.Request.Context(), item)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

type availabilityRequest struct {
	IsAvailable *bool `json:"is_available" binding:"required"`
}

// SetAvailability toggles whether a menu item can be ordered
func (s *Server) SetAvailability(c *gin.Context) {
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item, err := s.backend.SetMenuItemAvailability(c.Request.Context(), c.Param("id"), *req.IsAvailable)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteMenuItem removes a menu item
func (s *Server) DeleteMenuItem(c *gin.Context) {
	if err := s.backend.DeleteMenuItem(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Invoice handlers

// ListInvoices returns the filtered invoices with revenue per status
func (s *Server) ListInvoices(c *gin.Context) {
	var p listParams
	if err := c.ShouldBindQuery(&p); err != nil {
		badRequest(c, err)
		return
	}
	q, err := p.invoiceQuery()
	if err != nil {
		badRequest(c, err)
		return
	}

	invoices, err := s.backend.ListInvoices(c.Request.Context())
	if err != nil {
		s.monitor.RecordFailure("invoices", err)
		s.fail(c, err)
		return
	}
	s.monitor.RecordRefresh("invoices", len(invoices))

	items, err := q.Apply(invoices)
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":   items,
		"total":   len(invoices),
		"summary": listing.SummarizeInvoices(items),
	})
}

// InvoiceTotals recomputes an invoice's arithmetic
func (s *Server) InvoiceTotals(c *gin.Context) {
	inv, err := s.backend.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice.Compute(inv.Items, s.cfg.TaxRate))
}

// InvoicePDF renders an invoice through the external renderer
func (s *Server) InvoicePDF(c *gin.Context) {
	if s.renderer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "PDF export is not configured"})
		return
	}
	ctx := c.Request.Context()
	inv, err := s.backend.GetInvoice(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	pdf, err := invoice.Export(ctx, s.renderer, *inv, s.cfg.TaxRate)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+invoice.Filename(*inv)+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// User handlers

// ListUsers returns the filtered portal users
func (s *Server) ListUsers(c *gin.Context) {
	var p listParams
	if err := c.ShouldBindQuery(&p); err != nil {
		badRequest(c, err)
		return
	}
	q, err := p.userQuery(c.Query("role"))
	if err != nil {
		badRequest(c, err)
		return
	}

	users, err := s.backend.ListUsers(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	items, err := q.Apply(users)
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":   items,
		"total":   len(users),
		"by_role": listing.CountByRole(items),
	})
}

// Ticket handlers

// ListTickets returns the filtered support tickets
func (s *Server) ListTickets(c *gin.Context) {
	var p listParams
	if err := c.ShouldBindQuery(&p); err != nil {
		badRequest(c, err)
		return
	}
	q, err := p.ticketQuery(c.Query("priority"))
	if err != nil {
		badRequest(c, err)
		return
	}

	tickets, err := s.backend.ListTickets(c.Request.Context())
	if err != nil {
		s.monitor.RecordFailure("tickets", err)
		s.fail(c, err)
		return
	}
	s.monitor.RecordRefresh("tickets", len(tickets))

	items, err := q.Apply(tickets)
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":   items,
		"total":   len(tickets),
		"summary": listing.SummarizeTickets(items),
	})
}

// GetTicket returns one ticket with its conversation
func (s *Server) GetTicket(c *gin.Context) {
	ticket, err := s.backend.GetTicket(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

type replyRequest struct {
	Content    string `json:"content" binding:"required"`
	IsInternal bool   `json:"is_internal"`
}

// ReplyToTicket posts a reply to a ticket
func (s *Server) ReplyToTicket(c *gin.Context) {
	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		badRequest(c, errors.New("reply content is empty"))
		return
	}

	msg, err := s.backend.CreateTicketReply(c.Request.Context(), c.Param("id"), models.TicketReply{
		Content:    content,
		IsInternal: req.IsInternal,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// DraftReply asks the assistant for a reply suggestion; nothing is posted
func (s *Server) DraftReply(c *gin.Context) {
	if s.drafter == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "reply assistant is not enabled"})
		return
	}
	ctx := c.Request.Context()
	ticket, err := s.backend.GetTicket(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	draft, err := s.drafter.Draft(ctx, *ticket)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket_id": ticket.ID, "draft": draft})
}

// Analytics returns the restaurant's dashboard summary
func (s *Server) Analytics(c *gin.Context) {
	ctx := c.Request.Context()
	rid, err := s.restaurantID(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	a, err := s.backend.Analytics(ctx, rid, c.DefaultQuery("period", "week"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// Status returns the monitor snapshot
func (s *Server) Status(c *gin.Context) {
	metrics := s.monitor.GetMetrics()
	metrics["feed_clients"] = s.feed.Clients()
	if p := s.currentPoller(); p != nil {
		metrics["polling_paused"] = p.Paused()
	}
	c.JSON(http.StatusOK, metrics)
}
