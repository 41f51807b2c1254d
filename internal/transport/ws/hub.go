package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mcoot/bullscows/internal/model"
	"github.com/mcoot/bullscows/internal/transport"
)

// Handler receives inbound traffic from websocket connections
type Handler interface {
	HandleMessage(ctx context.Context, conn transport.ConnID, env model.Envelope)
	HandleDisconnect(ctx context.Context, conn transport.ConnID)
}

// Config holds configuration for websocket connections
type Config struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBuffer      int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConfig returns default websocket configuration
func DefaultConfig() Config {
	return Config{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBuffer:      256,
		CheckOrigin: func(r *http.Request) bool {
			// Origins are enforced by the CORS layer
			return true
		},
	}
}

// Hub owns every websocket connection and the room channels they belong
// to. It implements transport.Transport.
type Hub struct {
	config   Config
	upgrader websocket.Upgrader
	handler  Handler
	logger   *slog.Logger

	mu       sync.RWMutex
	conns    map[transport.ConnID]*Connection
	channels map[model.RoomID]map[transport.ConnID]struct{}
}

var _ transport.Transport = (*Hub)(nil)

// Connection is one client websocket
type Connection struct {
	ID          transport.ConnID
	ConnectedAt time.Time

	ws        *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewHub creates a Hub. SetHandler must be called before serving.
func NewHub(config Config, logger *slog.Logger) *Hub {
	return &Hub{
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		logger:   logger.With(slog.String("component", "ws")),
		conns:    make(map[transport.ConnID]*Connection),
		channels: make(map[model.RoomID]map[transport.ConnID]struct{}),
	}
}

// SetHandler sets the receiver of inbound messages
func (h *Hub) SetHandler(handler Handler) {
	h.handler = handler
}

// ServeHTTP upgrades the request to a websocket connection
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade websocket connection", slog.String("error", err.Error()))
		return
	}

	c := &Connection{
		ID:          transport.ConnID(uuid.NewString()),
		ConnectedAt: time.Now(),
		ws:          ws,
		send:        make(chan []byte, h.config.SendBuffer),
		done:        make(chan struct{}),
	}
	h.register(c)

	go h.writePump(c)
	go h.readPump(c)

	h.logger.Info("websocket connection established",
		slog.String("conn_id", string(c.ID)),
		slog.String("remote_addr", r.RemoteAddr))
}

// Send delivers an event to one connection
func (h *Hub) Send(conn transport.ConnID, event model.EventName, payload any) {
	data, ok := h.encode(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	c, exists := h.conns[conn]
	h.mu.RUnlock()
	if exists {
		h.enqueue(c, data)
	}
}

// Broadcast delivers an event to every connection in a room's channel
func (h *Hub) Broadcast(room model.RoomID, event model.EventName, payload any, exclude ...transport.ConnID) {
	data, ok := h.encode(event, payload)
	if !ok {
		return
	}

	h.mu.RLock()
	var targets []*Connection
	for id := range h.channels[room] {
		if slices.Contains(exclude, id) {
			continue
		}
		if c, ok := h.conns[id]; ok {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.enqueue(c, data)
	}

	h.logger.Debug("event broadcast",
		slog.String("room_id", string(room)),
		slog.String("event", string(event)),
		slog.Int("connections", len(targets)))
}

// JoinChannel subscribes a connection to a room's broadcasts
func (h *Hub) JoinChannel(conn transport.ConnID, room model.RoomID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.channels[room] == nil {
		h.channels[room] = make(map[transport.ConnID]struct{})
	}
	h.channels[room][conn] = struct{}{}
}

// LeaveChannel unsubscribes a connection from a room's broadcasts
func (h *Hub) LeaveChannel(conn transport.ConnID, room model.RoomID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(conn, room)
}

// Len returns the number of open connections
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Close closes every connection. Their disconnects still reach the handler.
func (h *Hub) Close() {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		c.close()
	}
}

func (h *Hub) register(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.ID] = c
}

func (h *Hub) unregister(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, c.ID)
	for room := range h.channels {
		h.leaveLocked(c.ID, room)
	}
}

func (h *Hub) leaveLocked(conn transport.ConnID, room model.RoomID) {
	members, ok := h.channels[room]
	if !ok {
		return
	}
	delete(members, conn)
	if len(members) == 0 {
		delete(h.channels, room)
	}
}

func (h *Hub) encode(event model.EventName, payload any) ([]byte, bool) {
	env, err := model.NewEnvelope(event, payload)
	if err == nil {
		var data []byte
		if data, err = json.Marshal(env); err == nil {
			return data, true
		}
	}
	h.logger.Error("failed to encode event",
		slog.String("event", string(event)),
		slog.String("error", err.Error()))
	return nil, false
}

// enqueue never blocks. A connection whose buffer is full is closed.
func (h *Hub) enqueue(c *Connection, data []byte) {
	select {
	case <-c.done:
	case c.send <- data:
	default:
		h.logger.Warn("connection send buffer full, closing connection",
			slog.String("conn_id", string(c.ID)))
		c.close()
	}
}

func (h *Hub) writePump(c *Connection) {
	ticker := time.NewTicker(h.config.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.ws.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			_ = c.ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case message := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.Debug("failed to write websocket message",
					slog.String("conn_id", string(c.ID)),
					slog.String("error", err.Error()))
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}

// readPump owns the connection's lifetime: when it returns the connection
// is unregistered and the handler sees exactly one disconnect
func (h *Hub) readPump(c *Connection) {
	ctx := context.Background()
	defer func() {
		h.unregister(c)
		c.close()
		_ = c.ws.Close()
		if h.handler != nil {
			h.handler.HandleDisconnect(ctx, c.ID)
		}
		h.logger.Info("websocket connection closed", slog.String("conn_id", string(c.ID)))
	}()

	c.ws.SetReadLimit(h.config.MaxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(h.config.ReadTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(h.config.ReadTimeout))
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Warn("unexpected websocket close",
					slog.String("conn_id", string(c.ID)),
					slog.String("error", err.Error()))
			}
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(h.config.ReadTimeout))

		var env model.Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			h.Send(c.ID, model.EventError, model.NewErrorPayload(model.ErrInvalidPayload))
			continue
		}
		if h.handler != nil {
			h.handler.HandleMessage(ctx, c.ID, env)
		}
	}
}

func (c *Connection) close() {
	c.closeOnce.Do(func() { close(c.done) })
}
