package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/shopspring/decimal"

	"maitred/internal/listing"
	"maitred/internal/models"
)

// View renders the UI
func (m Model) View() string {
	var body string

	switch m.currentView {
	case viewMenu:
		body = m.mainMenu.View()

	case viewOrders:
		body = titleStyle.Render(m.ordersTitle()) + "\n\n"
		body += m.ordersTable.View() + "\n\n"
		body += summaryLine(listing.SummarizeOrders(m.visible)) + "\n"
		body += mutedStyle.Render(fmt.Sprintf("filter: %s  sort: date %s", orEmpty(string(m.orderQuery.Status), "all"), m.orderQuery.Direction)) + "\n"
		body += mutedStyle.Render("a: advance  f: status filter  s: flip sort  r: refresh  esc: back")

	case viewTickets:
		body = titleStyle.Render("Support Tickets") + "\n\n"
		body += m.ticketsTable.View() + "\n\n"
		body += mutedStyle.Render(fmt.Sprintf("priority: %s  sort: date %s", orEmpty(string(m.ticketQuery.Priority), "all"), m.ticketQuery.Direction)) + "\n"
		body += mutedStyle.Render("enter: open  p: priority filter  s: flip sort  r: refresh  esc: back")

	case viewTicket:
		if m.ticket != nil {
			body = ticketDetailView(*m.ticket)
		}
		if m.textInput.Focused() {
			body += "\n" + m.textInput.View() + "\n" + mutedStyle.Render("enter: send  esc: cancel")
		} else {
			body += "\n" + mutedStyle.Render("r: reply  esc: back")
		}

	case viewChat:
		body = m.chatView()
	}

	if m.loading {
		body += "\n\n" + m.spinner.View() + " Loading..."
	}
	if m.notice != "" {
		body += "\n\n" + successStyle.Render(m.notice)
	}
	if m.error != "" {
		body += "\n\n" + errorStyle.Render("Error: "+m.error)
	}

	return docStyle.Render(body)
}

func (m Model) ordersTitle() string {
	if m.restaurant == nil {
		return "Orders"
	}
	return "Orders - " + m.restaurant.Name
}

func (m Model) chatView() string {
	state := m.chatState
	status := infoStyle.Render("connecting")
	if state.Connected {
		status = successStyle.Render("connected")
	}

	if state.Current == nil {
		view := m.sessionList.View() + "\n" + status
		if state.LastError != "" {
			view += " " + errorStyle.Render(state.LastError)
		}
		return view + "\n" + mutedStyle.Render("enter: join  esc: back")
	}

	session := state.Current
	view := titleStyle.Render(orEmpty(session.Subject, "Chat "+session.ID)) + " " + status + "\n"
	if session.Agent != nil {
		view += mutedStyle.Render("with "+session.Agent.Name) + "\n"
	}
	view += "\n"

	for _, msg := range state.Messages {
		view += fmt.Sprintf("%s %s: %s\n",
			mutedStyle.Render(msg.CreatedAt.Local().Format("15:04")),
			orEmpty(msg.SenderName, msg.SenderType),
			msg.Content)
	}
	if len(state.Typing) > 0 {
		names := make([]string, 0, len(state.Typing))
		for _, u := range state.Typing {
			names = append(names, orEmpty(u.UserName, u.UserID))
		}
		view += mutedStyle.Render(strings.Join(names, ", ")+" typing...") + "\n"
	}
	if state.LastError != "" {
		view += errorStyle.Render(state.LastError) + "\n"
	}

	if m.textInput.Focused() {
		view += "\n" + m.textInput.View() + "\n" + mutedStyle.Render("enter: send  esc: stop typing")
	} else {
		view += "\n" + mutedStyle.Render("i: write  esc: leave session")
	}
	return view
}

func orderRows(orders []models.Order) []table.Row {
	rows := make([]table.Row, 0, len(orders))
	for _, o := range orders {
		next := "-"
		if status, ok := models.NextStatus(o.Status); ok {
			next = string(status)
		}
		rows = append(rows, table.Row{
			o.OrderNumber,
			o.Customer.Name,
			strings.Join(o.ItemNames(), ", "),
			money(o.TotalAmount),
			string(o.Status),
			next,
		})
	}
	return rows
}

func ticketRows(tickets []models.SupportTicket) []table.Row {
	rows := make([]table.Row, 0, len(tickets))
	for _, t := range tickets {
		rows = append(rows, table.Row{
			t.TicketNumber,
			t.Subject,
			string(t.Priority),
			string(t.Status),
			fmt.Sprintf("%d", t.ReplyCount),
		})
	}
	return rows
}

func sessionItems(sessions []models.ChatSession) []list.Item {
	items := make([]list.Item, len(sessions))
	for i, s := range sessions {
		desc := string(s.Status)
		if s.UnreadCount > 0 {
			desc += fmt.Sprintf(" - %d unread", s.UnreadCount)
		}
		items[i] = item{
			id:    s.ID,
			title: orEmpty(s.Subject, "Session "+s.ID),
			desc:  desc,
		}
	}
	return items
}

// ticketDetailView creates a detailed view of a ticket
func ticketDetailView(t models.SupportTicket) string {
	view := titleStyle.Render(fmt.Sprintf("Ticket %s", t.TicketNumber)) + "\n\n"
	view += fmt.Sprintf("Subject: %s\n", t.Subject)
	view += fmt.Sprintf("Status: %s\n", t.Status)
	view += fmt.Sprintf("Priority: %s\n", t.Priority)
	if t.Restaurant.Name != "" {
		view += fmt.Sprintf("Restaurant: %s\n", t.Restaurant.Name)
	}
	view += fmt.Sprintf("Opened: %s\n", t.CreatedAt.Format(time.RFC1123))
	if t.Description != "" {
		view += "\n" + t.Description + "\n"
	}

	view += "\nMessages:\n"
	if len(t.Messages) == 0 {
		view += "No messages yet\n"
	}
	for _, msg := range t.Messages {
		author := msg.Author.Name
		if msg.IsInternal {
			author += " (internal)"
		}
		view += fmt.Sprintf("%s  %s\n   %s\n", msg.CreatedAt.Format("Jan 2 15:04"), author, msg.Content)
	}
	return view
}

func summaryLine(s listing.Summary) string {
	parts := []string{fmt.Sprintf("%d orders", s.Count)}
	for _, status := range s.Statuses() {
		parts = append(parts, fmt.Sprintf("%s %d", status, s.ByStatus[status].Count))
	}
	return infoStyle.Render(strings.Join(parts, " | ") + " | total " + s.Total.StringFixed(2))
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func orEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
