package transport

import "github.com/mcoot/bullscows/internal/model"

// ConnID identifies one live client connection. A player gets a new ConnID
// every time they reconnect.
type ConnID string

// Transport delivers outbound events to connections and room channels.
// Sends never block; a connection that cannot keep up is dropped.
type Transport interface {
	Send(conn ConnID, event model.EventName, payload any)
	Broadcast(room model.RoomID, event model.EventName, payload any, exclude ...ConnID)
	JoinChannel(conn ConnID, room model.RoomID)
	LeaveChannel(conn ConnID, room model.RoomID)
}

// Watcher observes room broadcasts without being a participant
type Watcher interface {
	Publish(room model.RoomID, event model.EventName, payload any)
}

// Fanout forwards everything to a primary Transport and mirrors room
// broadcasts to watchers
type Fanout struct {
	primary  Transport
	watchers []Watcher
}

var _ Transport = (*Fanout)(nil)

// NewFanout creates a Fanout over primary
func NewFanout(primary Transport, watchers ...Watcher) *Fanout {
	return &Fanout{primary: primary, watchers: watchers}
}

func (f *Fanout) Send(conn ConnID, event model.EventName, payload any) {
	f.primary.Send(conn, event, payload)
}

func (f *Fanout) Broadcast(room model.RoomID, event model.EventName, payload any, exclude ...ConnID) {
	f.primary.Broadcast(room, event, payload, exclude...)
	for _, w := range f.watchers {
		w.Publish(room, event, payload)
	}
}

func (f *Fanout) JoinChannel(conn ConnID, room model.RoomID) {
	f.primary.JoinChannel(conn, room)
}

func (f *Fanout) LeaveChannel(conn ConnID, room model.RoomID) {
	f.primary.LeaveChannel(conn, room)
}
