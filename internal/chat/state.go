package chat

import (
	"encoding/json"
	"fmt"
	"time"

	"maitred/internal/models"
)

// Events emitted by the client
const (
	EventJoinSession  = "join_session"
	EventLeaveSession = "leave_session"
	EventSendMessage  = "send_message"
	EventTyping       = "typing"
	EventStopTyping   = "stop_typing"
)

// Events received from the gateway
const (
	EventSessionJoined = "session_joined"
	EventNewMessage    = "new_message"
	EventUserTyping    = "user_typing"
	EventTypingStopped = "typing_stopped"
	EventChatAccepted  = "chat_accepted"
	EventChatClosed    = "chat_closed"
	EventMessagesRead  = "messages_read"
	EventError         = "error"
)

// TypingUser is someone currently typing in the joined session
type TypingUser struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name,omitempty"`
}

// State is a snapshot of the chat as seen by one client
type State struct {
	Sessions  []models.ChatSession
	Current   *models.ChatSession
	Messages  []models.ChatMessage
	Typing    []TypingUser
	Connected bool
	LastError string
}

type sessionRef struct {
	SessionID string `json:"session_id"`
}

type outgoingMessage struct {
	SessionID   string `json:"session_id"`
	Content     string `json:"content"`
	MessageType string `json:"message_type"`
}

type sessionJoined struct {
	Session  models.ChatSession   `json:"session"`
	Messages []models.ChatMessage `json:"messages"`
}

type typingEvent struct {
	SessionID string `json:"session_id"`
	TypingUser
}

type chatAccepted struct {
	SessionID string         `json:"session_id"`
	Agent     *models.Author `json:"agent,omitempty"`
}

type messagesRead struct {
	SessionID  string   `json:"session_id"`
	MessageIDs []string `json:"message_ids,omitempty"`
}

type gatewayError struct {
	Message string `json:"message"`
}

// snapshot copies s so subscribers never share slices with the client
func (s *State) snapshot() State {
	out := State{
		Connected: s.Connected,
		LastError: s.LastError,
		Sessions:  append([]models.ChatSession(nil), s.Sessions...),
		Messages:  append([]models.ChatMessage(nil), s.Messages...),
		Typing:    append([]TypingUser(nil), s.Typing...),
	}
	if s.Current != nil {
		cur := *s.Current
		out.Current = &cur
	}
	return out
}

func (s *State) isCurrent(sessionID string) bool {
	return s.Current != nil && (sessionID == "" || sessionID == s.Current.ID)
}

// upsertSession replaces the session with the same id or appends it
func (s *State) upsertSession(session models.ChatSession) {
	for i := range s.Sessions {
		if s.Sessions[i].ID == session.ID {
			s.Sessions[i] = session
			return
		}
	}
	s.Sessions = append(s.Sessions, session)
}

// updateSession applies fn to the listed session and the current one
func (s *State) updateSession(id string, fn func(*models.ChatSession)) {
	for i := range s.Sessions {
		if s.Sessions[i].ID == id {
			fn(&s.Sessions[i])
		}
	}
	if s.Current != nil && s.Current.ID == id {
		fn(s.Current)
	}
}

func (s *State) findSession(id string) (models.ChatSession, bool) {
	for _, session := range s.Sessions {
		if session.ID == id {
			return session, true
		}
	}
	return models.ChatSession{}, false
}

func (s *State) resetConversation() {
	s.Messages = nil
	s.Typing = nil
}

// apply mutates the state for one gateway event. It reports whether the
// event was understood.
func (s *State) apply(event string, data json.RawMessage) (bool, error) {
	switch event {
	case EventSessionJoined:
		var p sessionJoined
		if err := json.Unmarshal(data, &p); err != nil {
			return false, fmt.Errorf("%s: %w", event, err)
		}
		session := p.Session
		s.Current = &session
		s.upsertSession(session)
		s.Messages = append([]models.ChatMessage(nil), p.Messages...)
		s.Typing = nil

	case EventNewMessage:
		var m models.ChatMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return false, fmt.Errorf("%s: %w", event, err)
		}
		if !s.isCurrent(m.SessionID) {
			s.updateSession(m.SessionID, func(cs *models.ChatSession) { cs.UnreadCount++ })
			return true, nil
		}
		s.Messages = append(s.Messages, m)
		at := m.CreatedAt
		if at.IsZero() {
			at = time.Now()
		}
		s.updateSession(s.Current.ID, func(cs *models.ChatSession) { cs.LastMessageAt = &at })

	case EventUserTyping:
		var t typingEvent
		if err := json.Unmarshal(data, &t); err != nil {
			return false, fmt.Errorf("%s: %w", event, err)
		}
		if !s.isCurrent(t.SessionID) {
			return true, nil
		}
		for _, u := range s.Typing {
			if u.UserID == t.UserID {
				return true, nil
			}
		}
		s.Typing = append(s.Typing, t.TypingUser)

	case EventTypingStopped:
		var t typingEvent
		if err := json.Unmarshal(data, &t); err != nil {
			return false, fmt.Errorf("%s: %w", event, err)
		}
		kept := s.Typing[:0]
		for _, u := range s.Typing {
			if u.UserID != t.UserID {
				kept = append(kept, u)
			}
		}
		s.Typing = kept

	case EventChatAccepted:
		var a chatAccepted
		if err := json.Unmarshal(data, &a); err != nil {
			return false, fmt.Errorf("%s: %w", event, err)
		}
		id := a.SessionID
		if id == "" && s.Current != nil {
			id = s.Current.ID
		}
		s.updateSession(id, func(cs *models.ChatSession) {
			cs.Status = models.ChatSessionActive
			if a.Agent != nil {
				agent := *a.Agent
				cs.Agent = &agent
			}
		})

	case EventChatClosed:
		var r sessionRef
		if err := json.Unmarshal(data, &r); err != nil {
			return false, fmt.Errorf("%s: %w", event, err)
		}
		id := r.SessionID
		if id == "" && s.Current != nil {
			id = s.Current.ID
		}
		s.updateSession(id, func(cs *models.ChatSession) { cs.Status = models.ChatSessionClosed })
		if s.Current != nil && s.Current.ID == id {
			s.Typing = nil
		}

	case EventMessagesRead:
		var r messagesRead
		if err := json.Unmarshal(data, &r); err != nil {
			return false, fmt.Errorf("%s: %w", event, err)
		}
		if !s.isCurrent(r.SessionID) {
			return true, nil
		}
		ids := make(map[string]bool, len(r.MessageIDs))
		for _, id := range r.MessageIDs {
			ids[id] = true
		}
		for i := range s.Messages {
			if len(ids) == 0 || ids[s.Messages[i].ID] {
				s.Messages[i].IsRead = true
			}
		}
		s.updateSession(s.Current.ID, func(cs *models.ChatSession) { cs.UnreadCount = 0 })

	case EventError:
		var e gatewayError
		if err := json.Unmarshal(data, &e); err != nil || e.Message == "" {
			// some gateways send a bare string
			var msg string
			if json.Unmarshal(data, &msg) == nil && msg != "" {
				e.Message = msg
			} else {
				e.Message = "chat gateway error"
			}
		}
		s.LastError = e.Message

	default:
		return false, nil
	}
	return true, nil
}
