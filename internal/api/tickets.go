package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"maitred/internal/models"
)

// ListTickets retrieves the support tickets visible to the signed-in user
func (c *Client) ListTickets(ctx context.Context) ([]models.SupportTicket, error) {
	var tickets []models.SupportTicket
	err := c.do(ctx, request{
		method: http.MethodGet,
		name:   "tickets",
		url:    c.endpoints.Tickets(),
		out:    &tickets,
	})
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// GetTicket retrieves a ticket with its messages
func (c *Client) GetTicket(ctx context.Context, id string) (*models.SupportTicket, error) {
	var ticket models.SupportTicket
	err := c.do(ctx, request{
		method: http.MethodGet,
		name:   "ticket",
		url:    c.endpoints.Ticket(id),
		out:    &ticket,
	})
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// CreateTicketReply posts a reply to a ticket
func (c *Client) CreateTicketReply(ctx context.Context, ticketID string, reply models.TicketReply) (*models.TicketMessage, error) {
	if strings.TrimSpace(reply.Content) == "" {
		return nil, fmt.Errorf("reply content is required")
	}

	var msg models.TicketMessage
	err := c.do(ctx, request{
		method: http.MethodPost,
		name:   "ticket_replies",
		url:    c.endpoints.TicketReplies(ticketID),
		body:   reply,
		out:    &msg,
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListChatSessions retrieves the live chat sessions of the signed-in user
func (c *Client) ListChatSessions(ctx context.Context) ([]models.ChatSession, error) {
	var sessions []models.ChatSession
	err := c.do(ctx, request{
		method: http.MethodGet,
		name:   "chat_sessions",
		url:    c.endpoints.ChatSessions(),
		out:    &sessions,
	})
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// CreateChatSession opens a new live chat session for a restaurant
func (c *Client) CreateChatSession(ctx context.Context, restaurantID, subject string) (*models.ChatSession, error) {
	var session models.ChatSession
	err := c.do(ctx, request{
		method: http.MethodPost,
		name:   "chat_sessions",
		url:    c.endpoints.ChatSessions(),
		body:   map[string]string{"restaurant_id": restaurantID, "subject": subject},
		out:    &session,
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}
