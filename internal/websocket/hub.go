// Package websocket streams simulated paths and calibration results to
// websocket clients.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rzzdr/quant-analytics/internal/montecarlo"
	"github.com/rzzdr/quant-analytics/pkg/models"
	"github.com/rzzdr/quant-analytics/pkg/utils/errors"
	"github.com/rzzdr/quant-analytics/pkg/utils/logger"
)

// PathSource produces simulated paths
type PathSource interface {
	Simulate(h montecarlo.Handle, index int, source string) (montecarlo.Path, error)
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
	source     PathSource
	log        *logger.Logger
	mu         sync.RWMutex
}

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	id   string
}

// Message represents a WebSocket message sent to clients
type Message struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
	ID    string      `json:"id,omitempty"`
}

// Request is a message received from a client. A stream request sends
// Count paths starting at From; a non-positive Count streams to the end of
// the path population.
type Request struct {
	Type   string `json:"type"`
	Handle int    `json:"handle"`
	From   int    `json:"from"`
	Count  int    `json:"count"`
	ID     string `json:"id,omitempty"`
}

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

// NewHub creates a hub that streams paths from source
func NewHub(source PathSource) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		source:     source,
		log:        logger.GetLogger("websocket.hub"),
	}
}

// Run services client registration and broadcasts until ctx is done
func (h *Hub) Run(ctx context.Context) {
	h.log.Info("Starting WebSocket hub")

	for {
		select {
		case <-ctx.Done():
			close(h.quit)
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				client.conn.Close()
			}
			h.mu.Unlock()
			h.log.Info("WebSocket hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Infof("Client %s registered", client.id)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.log.Infof("Client %s unregistered", client.id)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

// ClientCount returns the number of registered clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket handles WebSocket upgrade and client management
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Errorf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
		done: make(chan struct{}),
		id:   uuid.NewString(),
	}

	select {
	case h.register <- client:
	case <-h.quit:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// PublishCalibration broadcasts a calibration result to every client. It
// fails instead of blocking when the broadcast queue is full.
func (h *Hub) PublishCalibration(ctx context.Context, event *models.CalibrationEvent) error {
	data, err := json.Marshal(Message{Type: "calibration", Data: event, ID: event.ID})
	if err != nil {
		return errors.Wrap(errors.WithType(err, errors.ErrorTypeInternal), "encode calibration")
	}

	select {
	case h.broadcast <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return errors.ResourceExhausted("websocket broadcast queue is full")
	}
}

// broadcastToClients queues a message for every client. Slow clients miss
// the message rather than stall the hub.
func (h *Hub) broadcastToClients(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			h.log.Warnf("Dropping broadcast for slow client %s", client.id)
		}
	}
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.quit:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Errorf("WebSocket error: %v", err)
			}
			return
		}

		c.handleMessage(data)
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(c.done)
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.hub.quit:
			return
		}
	}
}

// handleMessage handles incoming messages from the client
func (c *Client) handleMessage(data []byte) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("", "invalid message format")
		return
	}

	switch req.Type {
	case "stream":
		c.stream(req)
	case "ping":
		c.sendMessage(Message{Type: "pong", ID: req.ID})
	default:
		c.sendError(req.ID, "unknown message type")
	}
}

// stream sends the requested paths in index order, then a completion
// message. The first simulation error ends the stream.
func (c *Client) stream(req Request) {
	end := montecarlo.TotalPaths
	if req.Count > 0 && req.From+req.Count < end {
		end = req.From + req.Count
	}

	sent := 0
	for i := req.From; i < end; i++ {
		path, err := c.hub.source.Simulate(montecarlo.Handle(req.Handle), i, "websocket")
		if err != nil {
			c.sendError(req.ID, err.Error())
			return
		}
		msg := Message{
			Type: "path",
			ID:   req.ID,
			Data: models.Path{Handle: req.Handle, Index: i, Levels: models.Values(path.Active())},
		}
		if !c.sendMessage(msg) {
			return
		}
		sent++
	}

	c.sendMessage(Message{Type: "stream_complete", ID: req.ID, Data: map[string]int{"paths": sent}})
}

// sendMessage queues a message, waiting while the buffer is full. It
// returns false once the connection has gone away.
func (c *Client) sendMessage(msg Message) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		c.hub.log.Errorf("Failed to marshal message: %v", err)
		return false
	}

	select {
	case c.send <- data:
		return true
	case <-c.done:
		return false
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(id, errorMsg string) {
	c.sendMessage(Message{Type: "error", Error: errorMsg, ID: id})
}
