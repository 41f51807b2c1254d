package room

import (
	"log/slog"
	"sync"

	"github.com/mcoot/bullscows/internal/model"
	"github.com/mcoot/bullscows/internal/services/match"
	"github.com/mcoot/bullscows/internal/transport"
)

// Room is one two-player room. All fields are guarded by the room lock.
type Room struct {
	ID     model.RoomID
	Engine *match.Engine
	State  model.RoomState

	mu     sync.Mutex
	closed bool
	conns  map[model.PlayerID]transport.ConnID
}

// Lock acquires the room lock
func (r *Room) Lock() { r.mu.Lock() }

// Unlock releases the room lock
func (r *Room) Unlock() { r.mu.Unlock() }

// Closed reports whether the room has been removed from its registry
func (r *Room) Closed() bool { return r.closed }

// Conn returns the live connection of a player
func (r *Room) Conn(id model.PlayerID) (transport.ConnID, bool) {
	conn, ok := r.conns[id]
	return conn, ok
}

// SetConn records conn as the live connection of a player
func (r *Room) SetConn(id model.PlayerID, conn transport.ConnID) {
	r.conns[id] = conn
}

// DropConn forgets the live connection of a player
func (r *Room) DropConn(id model.PlayerID) {
	delete(r.conns, id)
}

// Status returns a snapshot of the room
func (r *Room) Status() model.RoomStatus {
	return model.RoomStatus{
		Exists:      !r.closed,
		IsFull:      r.Engine.IsFull(),
		PlayerCount: r.Engine.Len(),
		State:       r.State,
		Phase:       r.Engine.Phase(),
	}
}

// Binding is the identity a connection speaks for
type Binding struct {
	RoomID   model.RoomID
	PlayerID model.PlayerID
}

// Registry maps room ids to rooms and connections to identities.
//
// Lock order: a room lock may be held while calling into the registry,
// never the other way around.
type Registry struct {
	newEngine func() *match.Engine
	logger    *slog.Logger

	mu       sync.Mutex
	rooms    map[model.RoomID]*Room
	bindings map[transport.ConnID]Binding
}

// NewRegistry creates an empty registry. newEngine builds the engine of
// each new room.
func NewRegistry(newEngine func() *match.Engine, logger *slog.Logger) *Registry {
	return &Registry{
		newEngine: newEngine,
		logger:    logger.With(slog.String("component", "rooms")),
		rooms:     make(map[model.RoomID]*Room),
		bindings:  make(map[transport.ConnID]Binding),
	}
}

// GetOrCreate returns the room with id, creating it in Forming
func (r *Registry) GetOrCreate(id model.RoomID) *Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	if room, ok := r.rooms[id]; ok {
		return room
	}
	room := &Room{
		ID:     id,
		Engine: r.newEngine(),
		State:  model.RoomStateForming,
		conns:  make(map[model.PlayerID]transport.ConnID),
	}
	r.rooms[id] = room
	r.logger.Info("room created", slog.String("room_id", string(id)))
	return room
}

// Get returns the room with id
func (r *Registry) Get(id model.RoomID) (*Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	return room, ok
}

// Acquire returns the room with id, locked. If create is false a missing
// room yields ErrRoomNotFound. A room deleted between lookup and lock is
// looked up again.
func (r *Registry) Acquire(id model.RoomID, create bool) (*Room, error) {
	for {
		var room *Room
		if create {
			room = r.GetOrCreate(id)
		} else {
			var ok bool
			if room, ok = r.Get(id); !ok {
				return nil, model.ErrRoomNotFound
			}
		}

		room.Lock()
		if !room.closed {
			return room, nil
		}
		room.Unlock()
	}
}

// Exists reports whether a room with id is registered
func (r *Registry) Exists(id model.RoomID) bool {
	_, ok := r.Get(id)
	return ok
}

// Len returns the number of registered rooms
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

// Status returns a snapshot of the room with id without creating it
func (r *Registry) Status(id model.RoomID) model.RoomStatus {
	room, err := r.Acquire(id, false)
	if err != nil {
		return model.RoomStatus{}
	}
	defer room.Unlock()
	return room.Status()
}

// DeleteIfEmpty removes room if its roster is empty and no reconnection
// is pending. The caller must hold the room lock. Reports whether the room
// was deleted.
func (r *Registry) DeleteIfEmpty(room *Room) bool {
	if room.closed {
		return true
	}
	if room.Engine.Len() > 0 || room.State == model.RoomStateAwaitingReconnect {
		return false
	}

	r.mu.Lock()
	if r.rooms[room.ID] == room {
		delete(r.rooms, room.ID)
	}
	r.mu.Unlock()

	room.closed = true
	room.State = model.RoomStateTerminated
	r.logger.Info("room deleted", slog.String("room_id", string(room.ID)))
	return true
}

// Bind records that conn speaks for playerID in roomID
func (r *Registry) Bind(conn transport.ConnID, roomID model.RoomID, playerID model.PlayerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[conn] = Binding{RoomID: roomID, PlayerID: playerID}
}

// Lookup returns the identity bound to conn
func (r *Registry) Lookup(conn transport.ConnID) (Binding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bindings[conn]
	return b, ok
}

// Unbind forgets conn and returns what it was bound to
func (r *Registry) Unbind(conn transport.ConnID) (Binding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bindings[conn]
	delete(r.bindings, conn)
	return b, ok
}
