package main

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"maitred/internal/chat"
	"maitred/internal/models"
)

// Custom messages
type restaurantMsg struct {
	restaurant *models.Restaurant
}

type ordersMsg struct {
	orders []models.Order
}

type advancedMsg struct {
	orderNumber string
	status      models.OrderStatus
	orders      []models.Order
}

type ticketsMsg struct {
	tickets []models.SupportTicket
}

type ticketMsg struct {
	ticket *models.SupportTicket
}

type repliedMsg struct {
	ticketID string
}

type sessionsMsg struct {
	sessions []models.ChatSession
}

type chatStateMsg struct {
	state chat.State
}

type pollMsg time.Time

type errorMsg struct {
	err error
}

func fetchRestaurant(backend Backend, slug string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		restaurant, err := backend.RestaurantBySlug(ctx, slug)
		if err != nil {
			return errorMsg{err}
		}
		return restaurantMsg{restaurant}
	}
}

func fetchOrders(backend Backend, restaurantID string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		orders, err := backend.ListOrders(ctx, restaurantID)
		if err != nil {
			return errorMsg{err}
		}
		return ordersMsg{orders}
	}
}

func advanceOrder(backend Backend, restaurantID string, order models.Order, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		status, orders, err := backend.AdvanceOrder(ctx, restaurantID, order)
		if err != nil {
			return errorMsg{err}
		}
		return advancedMsg{orderNumber: order.OrderNumber, status: status, orders: orders}
	}
}

func fetchTickets(backend Backend, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		tickets, err := backend.ListTickets(ctx)
		if err != nil {
			return errorMsg{err}
		}
		return ticketsMsg{tickets}
	}
}

func fetchTicket(backend Backend, id string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		ticket, err := backend.GetTicket(ctx, id)
		if err != nil {
			return errorMsg{err}
		}
		return ticketMsg{ticket}
	}
}

func sendReply(backend Backend, ticketID, content string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if _, err := backend.CreateTicketReply(ctx, ticketID, models.TicketReply{Content: content}); err != nil {
			return errorMsg{err}
		}
		return repliedMsg{ticketID}
	}
}

func fetchSessions(c Chat, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		sessions, err := c.LoadSessions(ctx)
		if err != nil {
			return errorMsg{err}
		}
		return sessionsMsg{sessions}
	}
}

// waitForChat blocks until the chat client publishes a new state
func waitForChat(updates <-chan chat.State) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		state, ok := <-updates
		if !ok {
			return nil
		}
		return chatStateMsg{state}
	}
}

func pollTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return pollMsg(t)
	})
}
