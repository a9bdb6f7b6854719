package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"maitred/internal/chat"
	"maitred/internal/listing"
	"maitred/internal/models"
)

// Styling
var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#0a84ff")).
			Padding(0, 1)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#30d158")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#ff453a")).
			Padding(0, 1)

	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const (
	viewMenu    = "menu"
	viewOrders  = "orders"
	viewTickets = "tickets"
	viewTicket  = "ticket"
	viewChat    = "chat"
)

// Backend is the part of the REST client the console needs
type Backend interface {
	RestaurantBySlug(ctx context.Context, slug string) (*models.Restaurant, error)
	ListOrders(ctx context.Context, restaurantID string) ([]models.Order, error)
	AdvanceOrder(ctx context.Context, restaurantID string, order models.Order) (models.OrderStatus, []models.Order, error)
	ListTickets(ctx context.Context) ([]models.SupportTicket, error)
	GetTicket(ctx context.Context, id string) (*models.SupportTicket, error)
	CreateTicketReply(ctx context.Context, ticketID string, reply models.TicketReply) (*models.TicketMessage, error)
}

// Chat is the live chat session driven from the chat view
type Chat interface {
	Subscribe() (<-chan chat.State, func())
	LoadSessions(ctx context.Context) ([]models.ChatSession, error)
	JoinSession(id string) error
	LeaveSession() error
	SendMessage(content string) error
	StartTyping() error
}

// Model defines the application state
type Model struct {
	backend      Backend
	chat         Chat
	slug         string
	restaurant   *models.Restaurant
	pollInterval time.Duration
	timeout      time.Duration

	mainMenu     list.Model
	ordersTable  table.Model
	ticketsTable table.Model
	sessionList  list.Model
	textInput    textinput.Model
	spinner      spinner.Model

	orders      []models.Order
	visible     []models.Order
	orderQuery  listing.OrderQuery
	tickets     []models.SupportTicket
	ticketRows  []models.SupportTicket
	ticketQuery listing.TicketQuery
	ticket      *models.SupportTicket
	chatState   chat.State
	chatUpdates <-chan chat.State

	loading     bool
	currentView string
	notice      string
	error       string
}

// item represents a list item
type item struct {
	title, desc, id string
}

// FilterValue implements list.Item interface
func (i item) FilterValue() string { return i.title }

// Title implements list.Item interface
func (i item) Title() string { return i.title }

// Description implements list.Item interface
func (i item) Description() string { return i.desc }

func initialModel(backend Backend, chatClient Chat, slug string, pollInterval, timeout time.Duration) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	menuItems := []list.Item{
		item{title: "Orders", desc: "Track and advance live orders", id: viewOrders},
		item{title: "Support Tickets", desc: "Read and answer support tickets", id: viewTickets},
		item{title: "Live Chat", desc: "Talk to the support team", id: viewChat},
		item{title: "Exit", desc: "Quit maitredctl", id: "exit"},
	}
	mainMenu := list.New(menuItems, list.NewDefaultDelegate(), 0, 0)
	mainMenu.Title = "Maitred"

	ordersTable := table.New(
		table.WithColumns([]table.Column{
			{Title: "Order", Width: 10},
			{Title: "Customer", Width: 18},
			{Title: "Items", Width: 24},
			{Title: "Total", Width: 9},
			{Title: "Status", Width: 10},
			{Title: "Next", Width: 10},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	ticketsTable := table.New(
		table.WithColumns([]table.Column{
			{Title: "Ticket", Width: 10},
			{Title: "Subject", Width: 32},
			{Title: "Priority", Width: 9},
			{Title: "Status", Width: 12},
			{Title: "Replies", Width: 7},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	sessionList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	sessionList.Title = "Chat Sessions"

	ti := textinput.New()
	ti.Placeholder = "Type a message"
	ti.CharLimit = 1000
	ti.Width = 60

	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return Model{
		backend:      backend,
		chat:         chatClient,
		slug:         slug,
		pollInterval: pollInterval,
		timeout:      timeout,
		mainMenu:     mainMenu,
		ordersTable:  ordersTable,
		ticketsTable: ticketsTable,
		sessionList:  sessionList,
		textInput:    ti,
		spinner:      s,
		orderQuery:   listing.OrderQuery{SortKey: listing.SortByDate, Direction: listing.Descending},
		ticketQuery:  listing.TicketQuery{SortKey: listing.SortByDate, Direction: listing.Descending},
		currentView:  viewMenu,
	}
}

// Init starts the spinner, resolves the restaurant and starts the poll tick
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	if m.slug != "" {
		cmds = append(cmds, fetchRestaurant(m.backend, m.slug, m.timeout))
	}
	if m.pollInterval > 0 {
		cmds = append(cmds, pollTick(m.pollInterval))
	}
	return tea.Batch(cmds...)
}

// Update handles all the application logic
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.mainMenu.SetSize(msg.Width-h, msg.Height-v)
		m.sessionList.SetSize(msg.Width-h, msg.Height-v-6)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case restaurantMsg:
		m.restaurant = msg.restaurant
		if m.currentView == viewOrders {
			m.loading = true
			return m, fetchOrders(m.backend, m.restaurant.ID, m.timeout)
		}
		return m, nil

	case pollMsg:
		// Only the visible board is refreshed; the tick keeps running regardless.
		cmds = append(cmds, pollTick(m.pollInterval))
		if m.currentView == viewOrders && m.restaurant != nil && !m.loading {
			cmds = append(cmds, fetchOrders(m.backend, m.restaurant.ID, m.timeout))
		}
		return m, tea.Batch(cmds...)

	case ordersMsg:
		m.loading = false
		m.error = ""
		m.orders = msg.orders
		m.applyOrderQuery()
		return m, nil

	case advancedMsg:
		m.loading = false
		m.error = ""
		m.notice = fmt.Sprintf("Order %s moved to %s", msg.orderNumber, msg.status)
		m.orders = msg.orders
		m.applyOrderQuery()
		return m, nil

	case ticketsMsg:
		m.loading = false
		m.error = ""
		m.tickets = msg.tickets
		m.applyTicketQuery()
		return m, nil

	case ticketMsg:
		m.loading = false
		m.error = ""
		m.ticket = msg.ticket
		m.currentView = viewTicket
		return m, nil

	case repliedMsg:
		m.loading = false
		m.notice = "Reply sent"
		m.textInput.Reset()
		m.textInput.Blur()
		return m, fetchTicket(m.backend, msg.ticketID, m.timeout)

	case sessionsMsg:
		m.loading = false
		cmd := m.sessionList.SetItems(sessionItems(msg.sessions))
		return m, cmd

	case chatStateMsg:
		m.chatState = msg.state
		if m.currentView == viewChat && m.chatState.Current == nil {
			cmds = append(cmds, m.sessionList.SetItems(sessionItems(m.chatState.Sessions)))
		}
		cmds = append(cmds, waitForChat(m.chatUpdates))
		return m, tea.Batch(cmds...)

	case errorMsg:
		m.loading = false
		m.error = msg.err.Error()
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// Text entry swallows every other key.
	if m.textInput.Focused() {
		return m.handleInput(msg)
	}

	switch m.currentView {
	case viewMenu:
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "enter":
			selected, ok := m.mainMenu.SelectedItem().(item)
			if !ok {
				return m, nil
			}
			return m.open(selected.id)
		}
		var cmd tea.Cmd
		m.mainMenu, cmd = m.mainMenu.Update(msg)
		return m, cmd

	case viewOrders:
		switch msg.String() {
		case "q", "esc":
			m.currentView = viewMenu
			return m, nil
		case "r":
			return m.refreshOrders()
		case "a":
			return m.advanceSelected()
		case "f":
			m.orderQuery.Status = nextOrderFilter(m.orderQuery.Status)
			m.applyOrderQuery()
			return m, nil
		case "s":
			m.orderQuery.Direction = m.orderQuery.Direction.Toggle()
			m.applyOrderQuery()
			return m, nil
		}
		var cmd tea.Cmd
		m.ordersTable, cmd = m.ordersTable.Update(msg)
		return m, cmd

	case viewTickets:
		switch msg.String() {
		case "q", "esc":
			m.currentView = viewMenu
			return m, nil
		case "r":
			m.loading = true
			return m, fetchTickets(m.backend, m.timeout)
		case "p":
			m.ticketQuery.Priority = nextPriorityFilter(m.ticketQuery.Priority)
			m.applyTicketQuery()
			return m, nil
		case "s":
			m.ticketQuery.Direction = m.ticketQuery.Direction.Toggle()
			m.applyTicketQuery()
			return m, nil
		case "enter":
			cursor := m.ticketsTable.Cursor()
			if cursor < 0 || cursor >= len(m.ticketRows) {
				return m, nil
			}
			m.loading = true
			return m, fetchTicket(m.backend, m.ticketRows[cursor].ID, m.timeout)
		}
		var cmd tea.Cmd
		m.ticketsTable, cmd = m.ticketsTable.Update(msg)
		return m, cmd

	case viewTicket:
		switch msg.String() {
		case "q", "esc":
			m.currentView = viewTickets
			m.ticket = nil
			return m, nil
		case "r":
			m.textInput.Placeholder = "Write a reply"
			cmd := m.textInput.Focus()
			return m, cmd
		}

	case viewChat:
		if m.chatState.Current != nil {
			switch msg.String() {
			case "esc":
				if err := m.chat.LeaveSession(); err != nil {
					m.error = err.Error()
				}
				return m, nil
			case "i", "enter":
				m.textInput.Placeholder = "Type a message"
				cmd := m.textInput.Focus()
				return m, cmd
			}
			return m, nil
		}
		switch msg.String() {
		case "esc":
			m.currentView = viewMenu
			return m, nil
		case "enter":
			selected, ok := m.sessionList.SelectedItem().(item)
			if !ok {
				return m, nil
			}
			if err := m.chat.JoinSession(selected.id); err != nil {
				m.error = err.Error()
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.sessionList, cmd = m.sessionList.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.textInput.Blur()
		return m, nil
	case "enter":
		content := strings.TrimSpace(m.textInput.Value())
		if content == "" {
			return m, nil
		}
		switch m.currentView {
		case viewTicket:
			if m.ticket == nil {
				return m, nil
			}
			m.loading = true
			return m, sendReply(m.backend, m.ticket.ID, content, m.timeout)
		case viewChat:
			if err := m.chat.SendMessage(content); err != nil {
				m.error = err.Error()
				return m, nil
			}
			m.textInput.Reset()
			return m, nil
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	if m.currentView == viewChat && m.chat != nil {
		m.chat.StartTyping()
	}
	return m, cmd
}

func (m Model) open(view string) (tea.Model, tea.Cmd) {
	m.error = ""
	m.notice = ""
	switch view {
	case "exit":
		return m, tea.Quit
	case viewOrders:
		m.currentView = viewOrders
		return m.refreshOrders()
	case viewTickets:
		m.currentView = viewTickets
		m.loading = true
		return m, fetchTickets(m.backend, m.timeout)
	case viewChat:
		if m.chat == nil {
			m.error = "Live chat is not configured"
			return m, nil
		}
		m.currentView = viewChat
		m.loading = true
		cmds := []tea.Cmd{fetchSessions(m.chat, m.timeout)}
		if m.chatUpdates == nil {
			// The subscription lives as long as the program.
			m.chatUpdates, _ = m.chat.Subscribe()
			cmds = append(cmds, waitForChat(m.chatUpdates))
		}
		return m, tea.Batch(cmds...)
	}
	return m, nil
}

func (m Model) refreshOrders() (tea.Model, tea.Cmd) {
	if m.restaurant == nil {
		if m.slug == "" {
			m.error = "No restaurant configured (dashboard.restaurant_slug)"
			return m, nil
		}
		m.loading = true
		return m, fetchRestaurant(m.backend, m.slug, m.timeout)
	}
	m.loading = true
	return m, fetchOrders(m.backend, m.restaurant.ID, m.timeout)
}

func (m Model) advanceSelected() (tea.Model, tea.Cmd) {
	cursor := m.ordersTable.Cursor()
	if m.restaurant == nil || cursor < 0 || cursor >= len(m.visible) {
		return m, nil
	}
	order := m.visible[cursor]
	if _, ok := models.NextStatus(order.Status); !ok {
		m.error = fmt.Sprintf("Order %s is %s and cannot be advanced", order.OrderNumber, order.Status)
		return m, nil
	}
	m.loading = true
	m.error = ""
	return m, advanceOrder(m.backend, m.restaurant.ID, order, m.timeout)
}

func (m *Model) applyOrderQuery() {
	visible, err := m.orderQuery.Apply(m.orders)
	if err != nil {
		m.error = err.Error()
		return
	}
	m.visible = visible
	m.ordersTable.SetRows(orderRows(visible))
	clampCursor(&m.ordersTable, len(visible))
}

func (m *Model) applyTicketQuery() {
	rows, err := m.ticketQuery.Apply(m.tickets)
	if err != nil {
		m.error = err.Error()
		return
	}
	m.ticketRows = rows
	m.ticketsTable.SetRows(ticketRows(rows))
	clampCursor(&m.ticketsTable, len(rows))
}

// clampCursor keeps the selection on a row. An empty table leaves the
// cursor at -1, so it is pulled back to 0 once rows return.
func clampCursor(t *table.Model, rows int) {
	if c := t.Cursor(); c < 0 || c >= rows {
		t.SetCursor(max(0, rows-1))
	}
}

// nextOrderFilter cycles through no filter and every known status
func nextOrderFilter(current models.OrderStatus) models.OrderStatus {
	if current == "" {
		return models.AllOrderStatuses[0]
	}
	for i, status := range models.AllOrderStatuses {
		if status == current && i+1 < len(models.AllOrderStatuses) {
			return models.AllOrderStatuses[i+1]
		}
	}
	return ""
}

var priorityCycle = []models.TicketPriority{
	models.TicketPriorityUrgent,
	models.TicketPriorityHigh,
	models.TicketPriorityMedium,
	models.TicketPriorityLow,
}

func nextPriorityFilter(current models.TicketPriority) models.TicketPriority {
	if current == "" {
		return priorityCycle[0]
	}
	for i, p := range priorityCycle {
		if p == current && i+1 < len(priorityCycle) {
			return priorityCycle[i+1]
		}
	}
	return ""
}
