package sse

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/bullscows/internal/model"
	"github.com/mcoot/bullscows/internal/transport"
)

// Hub manages SSE clients watching a single room
type Hub struct {
	roomID  model.RoomID
	clients map[*Client]bool
	closed  bool
	mu      sync.RWMutex
	logger  *slog.Logger

	broadcast chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewHub creates a new Hub for a room
func NewHub(roomID model.RoomID, logger *slog.Logger) *Hub {
	return &Hub{
		roomID:     roomID,
		clients:   make(map[*Client]bool),
		logger:    logger.With(slog.String("room_id", string(roomID))),
		broadcast: make(chan []byte, 256),
		done:      make(chan struct{}),
	}
}

// Run starts the hub's broadcast loop
func (h *Hub) Run() {
	h.logger.Info("sse hub started")
	for {
		select {
		case message := <-h.broadcast:
			h.mu.RLock()
			dropped := 0
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					dropped++
				}
			}
			h.mu.RUnlock()
			if dropped > 0 {
				h.logger.Warn("sse message dropped - client buffer full", slog.Int("dropped", dropped))
			}

		case <-h.done:
			h.logger.Info("sse hub stopped")
			return
		}
	}
}

// Register adds a client to the hub. Reports false if the hub is closed.
// The client is counted as soon as Register returns.
func (h *Hub) Register(client *Client) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.clients[client] = true
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("sse client registered",
		slog.String("watcher", client.watcher),
		slog.Int("total_clients", clientCount))
	return true
}

// Unregister removes a client from the hub and closes its channel
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("sse client unregistered",
		slog.String("watcher", client.watcher),
		slog.Duration("connection_duration", time.Since(client.connectedAt)),
		slog.Int("total_clients", clientCount))
}

// Broadcast sends a message to all clients
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("sse broadcast dropped - hub buffer full")
	}
}

// BroadcastEvent sends an SSE event with a name and data
func (h *Hub) BroadcastEvent(eventName, data string) {
	h.Broadcast(formatSSEMessage(eventName, data))
}

// Close shuts down the hub and disconnects its clients
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		h.mu.Lock()
		h.closed = true
		clientCount := len(h.clients)
		for client := range h.clients {
			close(client.send)
			delete(h.clients, client)
		}
		h.mu.Unlock()
		close(h.done)
		if clientCount > 0 {
			h.logger.Info("sse clients disconnected", slog.Int("disconnected_clients", clientCount))
		}
	})
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// formatSSEMessage formats an SSE message with event name and data
// Multi-line data is properly formatted with "data: " prefix on each line
func formatSSEMessage(eventName, data string) []byte {
	var msg strings.Builder
	msg.WriteString("event: " + eventName + "\n")
	// SSE requires each line of data to be prefixed with "data: "
	for _, line := range splitLines(data) {
		msg.WriteString("data: " + line + "\n")
	}
	msg.WriteString("\n")
	return []byte(msg.String())
}

// splitLines splits a string into lines, handling various line endings
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}

// HubManager manages hubs for all watched rooms. It is a transport.Watcher:
// room broadcasts are mirrored to the room's SSE clients.
type HubManager struct {
	hubs   map[model.RoomID]*Hub
	closed bool
	mu     sync.RWMutex
	logger *slog.Logger
}

var _ transport.Watcher = (*HubManager)(nil)

// NewHubManager creates a new HubManager
func NewHubManager(logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:   make(map[model.RoomID]*Hub),
		logger: logger.With(slog.String("component", "sse")),
	}
}

// Publish mirrors a room event to the room's watchers, if it has any
func (m *HubManager) Publish(roomID model.RoomID, event model.EventName, payload any) {
	hub := m.GetHub(roomID)
	if hub == nil {
		return
	}
	data := []byte("{}")
	if payload != nil {
		var err error
		if data, err = json.Marshal(payload); err != nil {
			m.logger.Error("failed to marshal sse payload",
				slog.String("event", string(event)),
				slog.String("error", err.Error()))
			return
		}
	}
	hub.BroadcastEvent(string(event), string(data))
}

// Subscribe registers a new client on the room's hub, creating the hub if
// needed. Reports false once the manager is closed.
func (m *HubManager) Subscribe(roomID model.RoomID, watcher string) (*Client, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, false
	}
	hub := m.getOrCreateLocked(roomID)
	client := NewClient(hub, watcher)
	if !hub.Register(client) {
		return nil, false
	}
	return client, true
}

// Unsubscribe removes a client. The room's hub is removed with its last client.
func (m *HubManager) Unsubscribe(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hub := client.hub
	hub.Unregister(client)
	if hub.ClientCount() == 0 && m.hubs[hub.roomID] == hub {
		m.removeLocked(hub.roomID)
	}
}

// GetOrCreateHub returns the hub for a room, creating one if it doesn't exist
func (m *HubManager) GetOrCreateHub(roomID model.RoomID) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrCreateLocked(roomID)
}

func (m *HubManager) getOrCreateLocked(roomID model.RoomID) *Hub {
	if hub, ok := m.hubs[roomID]; ok {
		return hub
	}

	hub := NewHub(roomID, m.logger)
	m.hubs[roomID] = hub
	go hub.Run()
	return hub
}

// GetHub returns the hub for a room, or nil if it doesn't exist
func (m *HubManager) GetHub(roomID model.RoomID) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[roomID]
}

// RemoveHub removes and closes a hub
func (m *HubManager) RemoveHub(roomID model.RoomID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(roomID)
}

func (m *HubManager) removeLocked(roomID model.RoomID) {
	if hub, ok := m.hubs[roomID]; ok {
		hub.Close()
		delete(m.hubs, roomID)
		m.logger.Info("sse hub removed", slog.String("room_id", string(roomID)))
	}
}

// Close shuts down every hub. Later subscriptions are refused.
func (m *HubManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for id, hub := range m.hubs {
		hub.Close()
		delete(m.hubs, id)
	}
}
