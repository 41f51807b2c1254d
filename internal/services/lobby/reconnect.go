package lobby

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"github.com/mcoot/bullscows/internal/model"
	"github.com/mcoot/bullscows/internal/services/reconnect"
	"github.com/mcoot/bullscows/internal/services/room"
	"github.com/mcoot/bullscows/internal/transport"
)

// ResolveChoice applies the remaining player's answer to an open
// reconnection window
func (c *Controller) ResolveChoice(ctx context.Context, conn transport.ConnID, choice model.Choice) error {
	b, ok := c.registry.Lookup(conn)
	if !ok {
		return model.ErrNotInRoom
	}
	rm, err := c.registry.Acquire(b.RoomID, false)
	if err != nil {
		return err
	}
	defer rm.Unlock()

	w, err := c.broker.Resolve(rm.ID, choice)
	if err != nil {
		return err
	}

	c.logger.Info("reconnection choice made",
		slog.String("room_id", string(rm.ID)),
		slog.String("player_id", string(b.PlayerID)),
		slog.String("choice", string(choice)))

	switch choice {
	case model.ChoiceWait:
		c.transport.Send(conn, model.EventAwaitingReconnect, model.AwaitingReconnectPayload{
			Name:    w.Awaited.Name,
			Timeout: seconds(c.broker.Remaining(rm.ID).Seconds()),
		})
	case model.ChoicePractice:
		c.removeLocked(ctx, rm, w.Awaited.ID)
		rm.State = model.RoomStatePractice
		rm.Engine.StartPractice()
		c.transport.Send(conn, model.EventPracticeStarted, model.PracticeStartedPayload{
			Players: rm.Engine.Players(),
		})
		c.announceTurnLocked(rm)
	case model.ChoiceQuit:
		c.registry.Unbind(conn)
		c.transport.LeaveChannel(conn, rm.ID)
		c.quitLocked(ctx, rm)
		c.transport.Send(conn, model.EventLeftRoom, nil)
	}
	return nil
}

// rejoinLocked admits the awaited player back into a room that is waiting
// for them. Anyone else is told who the room is waiting for.
func (c *Controller) rejoinLocked(ctx context.Context, conn transport.ConnID, rm *room.Room, token string) error {
	w, err := c.broker.Admit(ctx, rm.ID, token)
	if errors.Is(err, model.ErrReconnectionRequired) {
		c.transport.Send(conn, model.EventReconnectionRequired, model.ReconnectionRequiredPayload{
			AwaitedName: w.Awaited.Name,
		})
		c.logger.Info("arrival rejected while awaiting reconnection",
			slog.String("room_id", string(rm.ID)),
			slog.String("conn_id", string(conn)))
		return nil
	}
	if err != nil {
		return err
	}

	awaited := w.Awaited
	rm.SetConn(awaited.ID, conn)
	c.registry.Bind(conn, rm.ID, awaited.ID)
	c.transport.JoinChannel(conn, rm.ID)
	rm.State = model.RoomStateActive

	c.transport.Send(conn, model.EventReconnected, model.ReconnectedPayload{
		RoomID:     rm.ID,
		PlayerID:   awaited.ID,
		Players:    rm.Engine.Players(),
		MatchPhase: rm.Engine.Phase(),
		Token:      token,
	})
	if opponent, ok := rm.Engine.Opponent(awaited.ID); ok {
		c.sendToPlayer(rm, opponent.ID, model.EventOpponentReconnected,
			model.OpponentReconnectedPayload{Name: awaited.Name})
	}
	if !rm.Engine.IsOver() {
		c.announceTurnLocked(rm)
	}

	c.logger.Info("player reconnected",
		slog.String("room_id", string(rm.ID)),
		slog.String("player_id", string(awaited.ID)),
		slog.String("conn_id", string(conn)))
	return nil
}

// openWindowLocked starts waiting for a player who dropped out of a
// running match
func (c *Controller) openWindowLocked(ctx context.Context, rm *room.Room, departed model.Player) {
	c.turns.Cancel(rm.ID)

	if _, _, err := c.broker.Open(ctx, rm.ID, departed, c.onWindowExpired); err != nil {
		c.logger.Error("failed to open reconnection window",
			slog.String("room_id", string(rm.ID)),
			slog.String("player_id", string(departed.ID)),
			slog.String("error", err.Error()))
		c.removeLocked(ctx, rm, departed.ID)
		rm.State = model.RoomStateForming
	} else {
		rm.State = model.RoomStateAwaitingReconnect
	}

	if opponent, ok := rm.Engine.Opponent(departed.ID); ok {
		c.sendToPlayer(rm, opponent.ID, model.EventOpponentLeft, model.OpponentLeftPayload{Name: departed.Name})
	}
}

// onWindowExpired drops the awaited player for good. The room goes back
// to Forming so a new opponent can join.
func (c *Controller) onWindowExpired(w reconnect.Window) {
	rm, ok := c.registry.Get(w.RoomID)
	if !ok {
		return
	}
	rm.Lock()
	defer rm.Unlock()

	if rm.Closed() || !c.broker.Claim(w) {
		c.logger.Debug("stale reconnection timer ignored", slog.String("room_id", string(w.RoomID)))
		return
	}

	c.logger.Info("reconnection window expired",
		slog.String("room_id", string(rm.ID)),
		slog.String("player_id", string(w.Awaited.ID)))

	c.removeLocked(context.Background(), rm, w.Awaited.ID)
	rm.State = model.RoomStateForming
	for _, p := range rm.Engine.Players() {
		c.sendToPlayer(rm, p.ID, model.EventReconnectionTimedOut, nil)
	}
	c.registry.DeleteIfEmpty(rm)
}

// quitLocked empties the room and deletes it
func (c *Controller) quitLocked(ctx context.Context, rm *room.Room) {
	c.broker.Cancel(rm.ID)
	c.turns.Cancel(rm.ID)

	for _, p := range rm.Engine.Players() {
		if conn, ok := rm.Conn(p.ID); ok {
			c.registry.Unbind(conn)
			c.transport.LeaveChannel(conn, rm.ID)
		}
		c.removeLocked(ctx, rm, p.ID)
	}
	rm.State = model.RoomStateForming
	c.registry.DeleteIfEmpty(rm)
}

// seconds rounds a remaining duration up to whole seconds
func seconds(s float64) int {
	return int(math.Ceil(s))
}
