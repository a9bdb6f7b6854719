package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"maitred/internal/models"
)

// LoadSessions refreshes the session list from the backend
func (c *Client) LoadSessions(ctx context.Context) ([]models.ChatSession, error) {
	if c.backend == nil {
		return nil, errors.New("chat: no backend configured")
	}
	sessions, err := c.backend.ListChatSessions(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Sessions = append([]models.ChatSession(nil), sessions...)
	c.publishLocked()
	return sessions, nil
}

// CreateSession opens a new session over REST and joins it
func (c *Client) CreateSession(ctx context.Context, restaurantID, subject string) (*models.ChatSession, error) {
	if c.backend == nil {
		return nil, errors.New("chat: no backend configured")
	}
	session, err := c.backend.CreateChatSession(ctx, restaurantID, subject)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.upsertSession(*session)
	if err := c.joinLocked(*session); err != nil {
		c.publishLocked()
		return session, err
	}
	return session, nil
}

// JoinSession makes id the current session and asks the gateway for its history
func (c *Client) JoinSession(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("chat: session id is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	session, ok := c.state.findSession(id)
	if !ok {
		session = models.ChatSession{ID: id}
	}
	return c.joinLocked(session)
}

func (c *Client) joinLocked(session models.ChatSession) error {
	if c.state.Current != nil && c.state.Current.ID != session.ID {
		c.leaveLocked()
	}
	if err := c.emitLocked(EventJoinSession, sessionRef{SessionID: session.ID}); err != nil {
		return err
	}
	c.state.Current = &session
	c.state.resetConversation()
	c.publishLocked()
	return nil
}

// LeaveSession leaves the current session, if any
func (c *Client) LeaveSession() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Current == nil {
		return nil
	}
	err := c.leaveLocked()
	c.publishLocked()
	return err
}

func (c *Client) leaveLocked() error {
	c.stopTypingLocked()
	id := c.state.Current.ID
	c.state.Current = nil
	c.state.resetConversation()
	return c.emitLocked(EventLeaveSession, sessionRef{SessionID: id})
}

// SendMessage emits a text message to the current session. Delivery is not
// acknowledged; the message shows up when the gateway echoes new_message.
func (c *Client) SendMessage(content string) error {
	return c.SendTyped(content, "text")
}

// SendTyped emits a message with an explicit message type
func (c *Client) SendTyped(content, messageType string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrEmptyMessage
	}
	if messageType == "" {
		messageType = "text"
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Current == nil {
		return ErrNoSession
	}
	c.stopTypingLocked()
	return c.emitLocked(EventSendMessage, outgoingMessage{
		SessionID:   c.state.Current.ID,
		Content:     content,
		MessageType: messageType,
	})
}

// StartTyping tells the session we are typing. Typing stops on its own after
// the typing timeout unless StartTyping is called again.
func (c *Client) StartTyping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Current == nil {
		return ErrNoSession
	}
	if err := c.emitLocked(EventTyping, sessionRef{SessionID: c.state.Current.ID}); err != nil {
		return err
	}

	c.stopTypingTimerLocked()
	var timer *time.Timer
	timer = time.AfterFunc(c.typingTimeout, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		// a newer keystroke replaced this timer
		if c.typingTimer != timer {
			return
		}
		c.stopTypingLocked()
	})
	c.typingTimer = timer
	return nil
}

// StopTyping tells the session we stopped typing
func (c *Client) StopTyping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Current == nil {
		return ErrNoSession
	}
	c.stopTypingTimerLocked()
	return c.emitLocked(EventStopTyping, sessionRef{SessionID: c.state.Current.ID})
}

// stopTypingLocked emits stop_typing only if a typing timer is pending
func (c *Client) stopTypingLocked() {
	if c.typingTimer == nil || c.state.Current == nil {
		c.stopTypingTimerLocked()
		return
	}
	c.stopTypingTimerLocked()
	if err := c.emitLocked(EventStopTyping, sessionRef{SessionID: c.state.Current.ID}); err != nil {
		c.logger.Printf("stop typing: %v", err)
	}
}

func (c *Client) stopTypingTimerLocked() {
	if c.typingTimer != nil {
		c.typingTimer.Stop()
		c.typingTimer = nil
	}
}
