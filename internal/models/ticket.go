package models

import "time"

// TicketStatus represents the lifecycle state of a support ticket
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// TicketPriority represents how urgent a ticket is
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// Rank orders priorities from low (1) to urgent (4); unknown priorities rank 0
func (p TicketPriority) Rank() int {
	switch p {
	case TicketPriorityLow:
		return 1
	case TicketPriorityMedium:
		return 2
	case TicketPriorityHigh:
		return 3
	case TicketPriorityUrgent:
		return 4
	}
	return 0
}

// SupportTicket is a customer-support conversation record
type SupportTicket struct {
	ID           string          `json:"id"`
	TicketNumber string          `json:"ticket_number"`
	Subject      string          `json:"subject"`
	Description  string          `json:"description,omitempty"`
	Status       TicketStatus    `json:"status"`
	Priority     TicketPriority  `json:"priority"`
	Category     string          `json:"category,omitempty"`
	Restaurant   RestaurantRef   `json:"restaurant"`
	Messages     []TicketMessage `json:"messages,omitempty"`
	ReplyCount   int             `json:"reply_count"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TicketMessage is a single entry in a ticket conversation
type TicketMessage struct {
	ID         string    `json:"id"`
	TicketID   string    `json:"ticket_id"`
	Author     Author    `json:"author"`
	Content    string    `json:"content"`
	IsInternal bool      `json:"is_internal"`
	CreatedAt  time.Time `json:"created_at"`
}

// Author identifies who wrote a ticket message
type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// TicketReply is the payload for posting a reply to a ticket
type TicketReply struct {
	Content    string `json:"content"`
	IsInternal bool   `json:"is_internal"`
}
