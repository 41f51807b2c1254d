package testutil

import (
	"slices"
	"sync"

	"github.com/mcoot/bullscows/internal/model"
	"github.com/mcoot/bullscows/internal/transport"
)

// Delivery is one event as received by one connection
type Delivery struct {
	Conn    transport.ConnID
	Event   model.EventName
	Payload any
}

// RecordingTransport is an in-memory Transport that expands broadcasts
// into per-connection deliveries so tests can assert what each client saw.
type RecordingTransport struct {
	mu         sync.Mutex
	channels   map[model.RoomID][]transport.ConnID
	deliveries []Delivery
}

var _ transport.Transport = (*RecordingTransport)(nil)

// NewRecordingTransport creates an empty RecordingTransport
func NewRecordingTransport() *RecordingTransport {
	return &RecordingTransport{channels: make(map[model.RoomID][]transport.ConnID)}
}

func (t *RecordingTransport) Send(conn transport.ConnID, event model.EventName, payload any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deliveries = append(t.deliveries, Delivery{Conn: conn, Event: event, Payload: payload})
}

func (t *RecordingTransport) Broadcast(room model.RoomID, event model.EventName, payload any, exclude ...transport.ConnID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, conn := range t.channels[room] {
		if slices.Contains(exclude, conn) {
			continue
		}
		t.deliveries = append(t.deliveries, Delivery{Conn: conn, Event: event, Payload: payload})
	}
}

func (t *RecordingTransport) JoinChannel(conn transport.ConnID, room model.RoomID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !slices.Contains(t.channels[room], conn) {
		t.channels[room] = append(t.channels[room], conn)
	}
}

func (t *RecordingTransport) LeaveChannel(conn transport.ConnID, room model.RoomID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	members := slices.DeleteFunc(t.channels[room], func(c transport.ConnID) bool { return c == conn })
	if len(members) == 0 {
		delete(t.channels, room)
		return
	}
	t.channels[room] = members
}

// Members returns the connections subscribed to room
func (t *RecordingTransport) Members(room model.RoomID) []transport.ConnID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.channels[room])
}

// Received returns every delivery to conn in order
func (t *RecordingTransport) Received(conn transport.ConnID) []Delivery {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Delivery
	for _, d := range t.deliveries {
		if d.Conn == conn {
			out = append(out, d)
		}
	}
	return out
}

// Events returns the event names delivered to conn in order
func (t *RecordingTransport) Events(conn transport.ConnID) []model.EventName {
	var names []model.EventName
	for _, d := range t.Received(conn) {
		names = append(names, d.Event)
	}
	return names
}

// Count returns how many times event was delivered to conn
func (t *RecordingTransport) Count(conn transport.ConnID, event model.EventName) int {
	n := 0
	for _, d := range t.Received(conn) {
		if d.Event == event {
			n++
		}
	}
	return n
}

// Last returns the payload of the most recent event delivered to conn
func (t *RecordingTransport) Last(conn transport.ConnID, event model.EventName) (any, bool) {
	received := t.Received(conn)
	for _, d := range slices.Backward(received) {
		if d.Event == event {
			return d.Payload, true
		}
	}
	return nil, false
}

// Clear forgets recorded deliveries but keeps channel membership
func (t *RecordingTransport) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deliveries = nil
}
