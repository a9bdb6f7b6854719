// Package chat keeps a live support chat session over the Socket.IO gateway.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"

	"maitred/internal/models"
)

var (
	// ErrNotConnected is returned when emitting without a live connection
	ErrNotConnected = errors.New("chat: not connected")
	// ErrNoSession is returned when an action needs a joined session
	ErrNoSession = errors.New("chat: no session joined")
	// ErrEmptyMessage is returned for blank message content
	ErrEmptyMessage = errors.New("chat: message content is empty")
	// ErrRejected is returned when the gateway refuses the connection
	ErrRejected = errors.New("chat: connection rejected")
)

const (
	defaultTypingTimeout = 3 * time.Second
	defaultAttempts      = 5
	writeWait            = 10 * time.Second
	handshakeWait        = 10 * time.Second
	maxFrameSize         = 512 * 1024
)

// TokenSource supplies the bearer token sent in the connect packet
type TokenSource interface {
	Token() (string, error)
}

// Backend is the REST side of chat sessions
type Backend interface {
	ListChatSessions(ctx context.Context) ([]models.ChatSession, error)
	CreateChatSession(ctx context.Context, restaurantID, subject string) (*models.ChatSession, error)
}

// EventRecorder counts chat events
type EventRecorder interface {
	RecordChatEvent(event, direction string)
}

// link is a connected socket and the silence it tolerates before being
// considered dead
type link struct {
	conn    *websocket.Conn
	timeout time.Duration
}

// Client is one authenticated connection to the chat gateway
type Client struct {
	gateway       string
	namespace     string
	tokens        TokenSource
	backend       Backend
	recorder      EventRecorder
	logger        *log.Logger
	dialer        *websocket.Dialer
	typingTimeout time.Duration
	attempts      uint
	delay         time.Duration
	maxDelay      time.Duration

	mu          sync.Mutex
	state       State
	conn        *websocket.Conn
	send        chan []byte
	typingTimer *time.Timer
	subscribers map[int]chan State
	nextSub     int
	closed      bool
	cancel      context.CancelFunc
	done        chan struct{}
}

// Option configures a Client
type Option func(*Client)

// WithNamespace connects to a Socket.IO namespace other than "/"
func WithNamespace(ns string) Option {
	return func(c *Client) { c.namespace = normalizeNamespace(ns) }
}

// WithBackend enables the REST backed actions
func WithBackend(b Backend) Option {
	return func(c *Client) { c.backend = b }
}

// WithRecorder counts events in and out
func WithRecorder(r EventRecorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithLogger sets the client's logger
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTypingTimeout sets how long after the last keystroke typing stops
func WithTypingTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.typingTimeout = d
		}
	}
}

// WithReconnect sets the reconnection attempts and the exponential delay bounds
func WithReconnect(attempts uint, delay, maxDelay time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
		if delay > 0 {
			c.delay = delay
		}
		if maxDelay > 0 {
			c.maxDelay = maxDelay
		}
	}
}

// NewClient creates a client for the gateway at gatewayURL (http, https, ws or wss)
func NewClient(gatewayURL string, tokens TokenSource, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(gatewayURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid chat url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("invalid chat url %q: unsupported scheme", gatewayURL)
	}
	if tokens == nil {
		return nil, errors.New("token source is required")
	}
	u.Path += "/socket.io/"
	u.RawQuery = url.Values{"EIO": {"4"}, "transport": {"websocket"}}.Encode()

	c := &Client{
		gateway:       u.String(),
		namespace:     "/",
		tokens:        tokens,
		logger:        log.New(os.Stderr, "[chat] ", log.LstdFlags),
		dialer:        &websocket.Dialer{HandshakeTimeout: handshakeWait, Proxy: http.ProxyFromEnvironment},
		typingTimeout: defaultTypingTimeout,
		attempts:      defaultAttempts,
		delay:         time.Second,
		maxDelay:      5 * time.Second,
		subscribers:   make(map[int]chan State),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Connect dials the gateway and keeps the connection alive until Close
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("chat: client is closed")
	}
	if c.done != nil {
		select {
		case <-c.done:
		default:
			c.mu.Unlock()
			return errors.New("chat: already connected")
		}
	}
	c.mu.Unlock()

	l, err := c.dialWithRetry(ctx)
	if err != nil {
		c.setError(err)
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		cancel()
		l.conn.Close()
		return errors.New("chat: client is closed")
	}
	c.cancel = cancel
	c.done = make(chan struct{})
	c.mu.Unlock()

	go c.run(runCtx, l)
	return nil
}

// Close sends a disconnect packet and stops reconnecting
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.stopTypingTimerLocked()
	if c.send != nil {
		select {
		case c.send <- encodeDisconnect(c.namespace):
		default:
		}
	}
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	c.mu.Lock()
	for id, ch := range c.subscribers {
		close(ch)
		delete(c.subscribers, id)
	}
	c.mu.Unlock()
	return nil
}

// State returns a snapshot of the current chat state
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.snapshot()
}

// Subscribe returns a channel receiving a snapshot after every change. Slow
// subscribers miss snapshots instead of blocking the connection.
func (c *Client) Subscribe() (<-chan State, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan State, 16)
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subscribers[id] = ch
	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subscribers[id]; ok {
			close(sub)
			delete(c.subscribers, id)
		}
	}
}

// publishLocked fans the state out; c.mu must be held
func (c *Client) publishLocked() {
	snap := c.state.snapshot()
	for _, ch := range c.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
}

func (c *Client) setError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.LastError = err.Error()
	c.state.Connected = false
	c.publishLocked()
}

func (c *Client) record(event, direction string) {
	if c.recorder != nil {
		c.recorder.RecordChatEvent(event, direction)
	}
}

// dialWithRetry dials with exponential backoff
func (c *Client) dialWithRetry(ctx context.Context) (link, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.delay
	b.MaxInterval = c.maxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0.5

	return backoff.Retry(ctx, func() (link, error) {
		return c.dial(ctx)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.attempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Printf("connect failed: %v, retrying in %s", err, next.Round(time.Millisecond))
		}),
	)
}

// dial performs the Engine.IO and Socket.IO handshakes
func (c *Client) dial(ctx context.Context) (link, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return link{}, backoff.Permanent(err)
	}

	conn, _, err := c.dialer.DialContext(ctx, c.gateway, nil)
	if err != nil {
		return link{}, err
	}
	conn.SetReadLimit(maxFrameSize)

	hs, err := c.handshake(conn, token)
	if err != nil {
		conn.Close()
		if errors.Is(err, ErrRejected) {
			return link{}, backoff.Permanent(err)
		}
		return link{}, err
	}
	conn.SetReadDeadline(time.Time{})
	l := link{conn: conn, timeout: hs.readTimeout()}
	l.extend()
	return l, nil
}

// extend pushes the read deadline one ping cycle out
func (l link) extend() {
	if l.timeout > 0 {
		l.conn.SetReadDeadline(time.Now().Add(l.timeout))
	}
}

func (c *Client) handshake(conn *websocket.Conn, token string) (handshake, error) {
	var hs handshake
	conn.SetReadDeadline(time.Now().Add(handshakeWait))

	_, frame, err := conn.ReadMessage()
	if err != nil {
		return hs, fmt.Errorf("reading open packet: %w", err)
	}
	p, err := decodePacket(frame)
	if err != nil || p.engine != engineOpen {
		return hs, fmt.Errorf("expected open packet, got %q", frame)
	}
	if err := json.Unmarshal(p.data, &hs); err != nil {
		return hs, fmt.Errorf("decoding open packet: %w", err)
	}

	connect, err := encodeConnect(c.namespace, map[string]string{"token": token})
	if err != nil {
		return hs, err
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, connect); err != nil {
		return hs, err
	}

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return hs, fmt.Errorf("waiting for connect: %w", err)
		}
		p, err := decodePacket(frame)
		if err != nil {
			return hs, err
		}
		switch {
		case p.engine == enginePing:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, []byte{enginePong}); err != nil {
				return hs, err
			}
		case p.engine == engineClose:
			return hs, errors.New("gateway closed the connection during handshake")
		case p.engine != engineMessage || p.namespace != c.namespace:
		case p.socket == socketConnect:
			return hs, nil
		case p.socket == socketConnectError:
			var e gatewayError
			json.Unmarshal(p.data, &e)
			if e.Message == "" {
				e.Message = string(p.data)
			}
			return hs, fmt.Errorf("%w: %s", ErrRejected, e.Message)
		}
	}
}

// run owns the connection: it pumps frames until the socket drops, then
// reconnects and re-joins the current session
func (c *Client) run(ctx context.Context, l link) {
	defer func() {
		c.mu.Lock()
		close(c.done)
		c.mu.Unlock()
	}()

	c.attach(l.conn)
	for {
		serverDisconnect := c.readPump(ctx, l)
		c.detach(l.conn)

		if ctx.Err() != nil {
			return
		}
		if serverDisconnect {
			c.logger.Printf("disconnected by gateway")
			return
		}

		c.logger.Printf("connection lost, reconnecting")
		next, err := c.dialWithRetry(ctx)
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Printf("reconnect failed: %v", err)
				c.setError(fmt.Errorf("reconnect failed: %w", err))
			}
			return
		}
		l = next
		// The write pump must be running before join_session can be queued.
		c.attach(l.conn)
		c.rejoin()
	}
}

// attach starts the write pump for conn and marks the client connected
func (c *Client) attach(conn *websocket.Conn) {
	send := make(chan []byte, 256)
	c.mu.Lock()
	c.conn = conn
	c.send = send
	c.state.Connected = true
	c.state.LastError = ""
	c.publishLocked()
	c.mu.Unlock()
	go c.writePump(conn, send)
}

func (c *Client) detach(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn == conn {
		close(c.send)
		c.send = nil
		c.conn = nil
	}
	c.state.Connected = false
	c.state.Typing = nil
	c.publishLocked()
	c.mu.Unlock()
}

func (c *Client) rejoin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Current == nil {
		return
	}
	if err := c.emitLocked(EventJoinSession, sessionRef{SessionID: c.state.Current.ID}); err != nil {
		c.logger.Printf("re-joining session %s: %v", c.state.Current.ID, err)
	}
}

// readPump reads frames until the connection fails. It reports whether the
// gateway ended the session on purpose.
func (c *Client) readPump(ctx context.Context, l link) bool {
	stop := context.AfterFunc(ctx, func() {
		l.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		_, frame, err := l.conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Printf("read error: %v", err)
			}
			return false
		}
		l.extend()
		if ctx.Err() != nil {
			l.conn.SetReadDeadline(time.Now())
		}
		p, err := decodePacket(frame)
		if err != nil {
			c.logger.Printf("dropping frame %q: %v", frame, err)
			continue
		}

		switch p.engine {
		case enginePing:
			c.enqueue([]byte{enginePong})
		case engineClose:
			return true
		case engineMessage:
			if p.namespace != c.namespace {
				continue
			}
			switch p.socket {
			case socketEvent:
				c.handleEvent(p.event, p.data)
			case socketDisconnect:
				return true
			case socketConnectError:
				c.logger.Printf("connect error: %s", p.data)
			}
		}
	}
}

func (c *Client) writePump(conn *websocket.Conn, send <-chan []byte) {
	defer conn.Close()
	for frame := range send {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			c.logger.Printf("write error: %v", err)
			return
		}
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (c *Client) enqueue(frame []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enqueueLocked(frame)
}

func (c *Client) enqueueLocked(frame []byte) error {
	if c.send == nil {
		return ErrNotConnected
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return errors.New("chat: send buffer full")
	}
}

// emitLocked writes one event; c.mu must be held
func (c *Client) emitLocked(event string, payload interface{}) error {
	frame, err := encodeEvent(c.namespace, event, payload)
	if err != nil {
		return err
	}
	if err := c.enqueueLocked(frame); err != nil {
		return err
	}
	c.record(event, "out")
	return nil
}

func (c *Client) handleEvent(event string, data []byte) {
	c.record(event, "in")

	c.mu.Lock()
	defer c.mu.Unlock()
	known, err := c.state.apply(event, data)
	if err != nil {
		c.logger.Printf("bad %s payload: %v", event, err)
		return
	}
	if !known {
		return
	}
	if event == EventError {
		c.logger.Printf("gateway error: %s", c.state.LastError)
	}
	c.publishLocked()
}
