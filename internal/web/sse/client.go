package sse

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mcoot/bullscows/internal/model"
)

const (
	// Time between keepalive pings
	pingPeriod = 30 * time.Second

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// Client represents a connected SSE client
type Client struct {
	hub         *Hub
	watcher     string
	send        chan []byte
	connectedAt time.Time
}

// NewClient creates a new SSE client. watcher identifies the client in logs.
func NewClient(hub *Hub, watcher string) *Client {
	return &Client{
		hub:         hub,
		watcher:     watcher,
		send:        make(chan []byte, sendBufferSize),
		connectedAt: time.Now(),
	}
}

// ServeSSE streams a room's events to the request until it disconnects
func ServeSSE(w http.ResponseWriter, r *http.Request, manager *HubManager, roomID model.RoomID) {
	// Check if SSE is supported
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	client, ok := manager.Subscribe(roomID, r.RemoteAddr)
	if !ok {
		http.Error(w, "Room feed closed", http.StatusServiceUnavailable)
		return
	}
	defer manager.Unsubscribe(client)

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	// Send initial connection event
	connected, _ := json.Marshal(map[string]string{"roomId": string(roomID)})
	_, _ = w.Write(formatSSEMessage("connected", string(connected)))
	flusher.Flush()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				// Hub closed the channel
				return
			}
			if _, err := w.Write(message); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// Pending returns the number of messages queued for the client
func (c *Client) Pending() int {
	return len(c.send)
}
