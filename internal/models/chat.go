package models

import "time"

// ChatSessionStatus represents the state of a live chat session
type ChatSessionStatus string

const (
	ChatSessionWaiting ChatSessionStatus = "waiting"
	ChatSessionActive  ChatSessionStatus = "active"
	ChatSessionClosed  ChatSessionStatus = "closed"
)

// ChatSession is a live support conversation for one restaurant
type ChatSession struct {
	ID            string            `json:"id"`
	RestaurantID  string            `json:"restaurant_id"`
	Subject       string            `json:"subject,omitempty"`
	Status        ChatSessionStatus `json:"status"`
	Agent         *Author           `json:"agent,omitempty"`
	UnreadCount   int               `json:"unread_count"`
	CreatedAt     time.Time         `json:"created_at"`
	LastMessageAt *time.Time        `json:"last_message_at,omitempty"`
}

// ChatMessage is a single message exchanged in a chat session
type ChatMessage struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	SenderID    string    `json:"sender_id"`
	SenderName  string    `json:"sender_name,omitempty"`
	SenderType  string    `json:"sender_type"`
	Content     string    `json:"content"`
	MessageType string    `json:"message_type"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}
