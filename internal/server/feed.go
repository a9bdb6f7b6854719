package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"maitred/internal/listing"
	"maitred/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Snapshot is one message of the live order feed
type Snapshot struct {
	Type    string          `json:"type"`
	Orders  []models.Order  `json:"orders"`
	Summary listing.Summary `json:"summary"`
	At      time.Time       `json:"at"`
}

// OrderFeed fans order snapshots out to WebSocket subscribers
type OrderFeed struct {
	mu      sync.Mutex
	clients map[*feedConn]struct{}
	latest  []byte
	logger  *log.Logger
}

// feedConn maintains the WebSocket connection with one dashboard
type feedConn struct {
	conn *websocket.Conn
	send chan []byte
}

// NewOrderFeed creates an empty feed
func NewOrderFeed(logger *log.Logger) *OrderFeed {
	return &OrderFeed{
		clients: make(map[*feedConn]struct{}),
		logger:  logger,
	}
}

// Publish sends the orders to every subscriber. New subscribers receive the
// latest snapshot on connect.
func (f *OrderFeed) Publish(orders []models.Order) {
	data, err := json.Marshal(Snapshot{
		Type:    "orders",
		Orders:  orders,
		Summary: listing.SummarizeOrders(orders),
		At:      time.Now().UTC(),
	})
	if err != nil {
		f.logger.Printf("Error marshaling orders: %v", err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.latest = data
	for fc := range f.clients {
		select {
		case fc.send <- data:
		default:
			f.logger.Println("WebSocket buffer full, dropping order snapshot")
		}
	}
}

// Clients returns the number of connected subscribers
func (f *OrderFeed) Clients() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

// Close disconnects every subscriber
func (f *OrderFeed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for fc := range f.clients {
		close(fc.send)
		delete(f.clients, fc)
	}
}

// Serve upgrades the request and subscribes it to the feed
func (f *OrderFeed) Serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		f.logger.Printf("Failed to upgrade connection: %v", err)
		return
	}

	fc := &feedConn{
		conn: conn,
		send: make(chan []byte, 16),
	}
	f.mu.Lock()
	f.clients[fc] = struct{}{}
	if f.latest != nil {
		fc.send <- f.latest
	}
	f.mu.Unlock()

	go f.writePump(fc)
	go f.readPump(fc)
}

func (f *OrderFeed) remove(fc *feedConn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clients[fc]; ok {
		close(fc.send)
		delete(f.clients, fc)
	}
}

// readPump discards client messages and notices disconnects
func (f *OrderFeed) readPump(fc *feedConn) {
	defer func() {
		f.remove(fc)
		fc.conn.Close()
	}()

	fc.conn.SetReadLimit(4096)
	fc.conn.SetReadDeadline(time.Now().Add(pongWait))
	fc.conn.SetPongHandler(func(string) error {
		fc.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := fc.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				f.logger.Printf("WebSocket error: %v", err)
			}
			return
		}
	}
}

// writePump pumps snapshots to the WebSocket connection
func (f *OrderFeed) writePump(fc *feedConn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		fc.conn.Close()
	}()

	for {
		select {
		case message, ok := <-fc.send:
			fc.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The channel was closed
				fc.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := fc.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			fc.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := fc.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
