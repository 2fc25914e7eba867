package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// StateProvider supplies the full state sent to a client when it connects.
type StateProvider interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	SnapshotTimeout time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		SnapshotTimeout: 5 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// WebSocketHandler upgrades viewers to WebSocket connections fed by a Hub.
type WebSocketHandler struct {
	hub      *Hub
	state    StateProvider
	upgrader websocket.Upgrader
	config   ConnectionConfig
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *Hub, state StateProvider, config ConnectionConfig) *WebSocketHandler {
	return &WebSocketHandler{
		hub:   hub,
		state: state,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
	}
}

// RegisterRoutes registers WebSocket routes
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.HandleConnection)
	r.Get("/ws/stats", h.HandleConnectionStats)
}

// connection is one viewer socket. Only writePump writes to conn.
type connection struct {
	conn    *websocket.Conn
	sub     *Subscription
	handler *WebSocketHandler
	replies chan []byte

	connectedAt time.Time
}

// HandleConnection upgrades the request and streams a snapshot followed by live events.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return
	}

	// Subscribe before reading state so no commit falls between the two.
	c := &connection{
		conn:        conn,
		sub:         h.hub.Subscribe(),
		handler:     h,
		replies:     make(chan []byte, 8),
		connectedAt: time.Now(),
	}

	go c.writePump()
	go c.readPump()

	log.Info().
		Str("connection_id", c.sub.ID).
		Str("remote_addr", r.RemoteAddr).
		Msg("WebSocket connection established")
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.hub.Stats()); err != nil {
		log.Error().Err(err).Msg("failed to write connection stats")
	}
}

func (c *connection) snapshot() ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.handler.config.SnapshotTimeout)
	defer cancel()

	sequence := c.handler.hub.Sequence()
	state, err := c.handler.state.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return json.Marshal(SnapshotMessage{
		Type:      EventTypeSnapshot,
		Sequence:  sequence,
		Snapshot:  *state,
		Timestamp: time.Now().UTC(),
	})
}

// writePump sends the snapshot, then events and replies, pinging on an interval.
func (c *connection) writePump() {
	config := c.handler.config
	ticker := time.NewTicker(config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.handler.hub.Unsubscribe(c.sub)
	}()

	data, err := c.snapshot()
	if err != nil {
		log.Error().Err(err).Str("connection_id", c.sub.ID).Msg("failed to send initial state")
		return
	}
	if err := c.write(websocket.TextMessage, data); err != nil {
		return
	}

	events := c.sub.C()
	for {
		select {
		case message, ok := <-events:
			if !ok {
				// Unsubscribed or evicted
				_ = c.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(websocket.TextMessage, message); err != nil {
				return
			}

		case reply := <-c.replies:
			if err := c.write(websocket.TextMessage, reply); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *connection) write(messageType int, data []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.handler.config.WriteTimeout))
	if err := c.conn.WriteMessage(messageType, data); err != nil {
		log.Debug().
			Err(err).
			Str("connection_id", c.sub.ID).
			Msg("failed to write to WebSocket")
		return err
	}
	return nil
}

// readPump handles reading messages from the WebSocket connection
func (c *connection) readPump() {
	config := c.handler.config
	defer func() {
		c.handler.hub.Unsubscribe(c.sub)
		c.conn.Close()
		log.Info().
			Str("connection_id", c.sub.ID).
			Dur("connected_for", time.Since(c.connectedAt)).
			Msg("WebSocket connection closed")
	}()

	c.conn.SetReadLimit(config.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(config.ReadTimeout))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.sub.ID).
					Msg("unexpected WebSocket close error")
			}
			return
		}

		c.handleClientMessage(message)
		_ = c.conn.SetReadDeadline(time.Now().Add(config.ReadTimeout))
	}
}

// handleClientMessage answers application-level pings. Anything else is ignored.
func (c *connection) handleClientMessage(message []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Debug().Str("connection_id", c.sub.ID).Msg("ignoring malformed client message")
		return
	}

	switch msg.Type {
	case "ping":
		reply, err := json.Marshal(pongMessage{Type: EventTypePong, Timestamp: time.Now().UTC()})
		if err != nil {
			return
		}
		select {
		case c.replies <- reply:
		default:
			log.Warn().Str("connection_id", c.sub.ID).Msg("reply buffer full, dropping pong")
		}
	default:
		log.Debug().
			Str("connection_id", c.sub.ID).
			Str("type", msg.Type).
			Msg("received client message")
	}
}
