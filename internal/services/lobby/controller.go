package lobby

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mcoot/bullscows/internal/dependencies/clock"
	"github.com/mcoot/bullscows/internal/dependencies/random"
	"github.com/mcoot/bullscows/internal/model"
	"github.com/mcoot/bullscows/internal/services/credentials"
	"github.com/mcoot/bullscows/internal/services/history"
	"github.com/mcoot/bullscows/internal/services/reconnect"
	"github.com/mcoot/bullscows/internal/services/room"
	"github.com/mcoot/bullscows/internal/services/turnclock"
	"github.com/mcoot/bullscows/internal/transport"
)

const (
	// RoomCodeLength is the length of generated room codes
	RoomCodeLength = 6
	// RoomCodeAlphabet is the characters used in room codes (avoid confusing chars)
	RoomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	// roomCodeAttempts bounds the search for a free room code before
	// falling back to a uuid
	roomCodeAttempts = 16
)

// Controller turns inbound connection events into room operations and
// room outcomes into outbound events. Every room mutation happens under
// that room's lock.
type Controller struct {
	registry    *room.Registry
	turns       *turnclock.Clock
	broker      *reconnect.Broker
	credentials *credentials.Store
	history     *history.Recorder
	transport   transport.Transport
	clock       clock.Clock
	random      random.Random
	logger      *slog.Logger
}

// NewController creates a new lobby Controller
func NewController(
	registry *room.Registry,
	turns *turnclock.Clock,
	broker *reconnect.Broker,
	credentials *credentials.Store,
	history *history.Recorder,
	transport transport.Transport,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		registry:    registry,
		turns:       turns,
		broker:      broker,
		credentials: credentials,
		history:     history,
		transport:   transport,
		clock:       clock,
		random:      random,
		logger:      logger.With(slog.String("component", "lobby")),
	}
}

// NewRoomID returns a room id that is not currently in use
func (c *Controller) NewRoomID() model.RoomID {
	for range roomCodeAttempts {
		id := model.RoomID(c.random.String(RoomCodeLength, RoomCodeAlphabet))
		if id != "" && !c.registry.Exists(id) {
			return id
		}
	}
	c.logger.Warn("no free room code found, using uuid", slog.Int("attempts", roomCodeAttempts))
	return model.RoomID(c.random.UUID())
}

// Status returns a snapshot of a room without creating it
func (c *Controller) Status(roomID model.RoomID) model.RoomStatus {
	return c.registry.Status(roomID)
}

// Join adds the connection to a room, creating the room on first join.
// While the room awaits a reconnection only the awaited player, presenting
// their token, may enter.
func (c *Controller) Join(ctx context.Context, conn transport.ConnID, p model.JoinRoomPayload) error {
	name := strings.TrimSpace(p.Name)
	if p.RoomID == "" {
		return model.ErrEmptyRoomID
	}
	if name == "" {
		return model.ErrEmptyName
	}
	if _, bound := c.registry.Lookup(conn); bound {
		return model.ErrAlreadyInRoom
	}

	rm, err := c.registry.Acquire(p.RoomID, true)
	if err != nil {
		return err
	}
	defer rm.Unlock()

	if rm.State == model.RoomStateAwaitingReconnect {
		return c.rejoinLocked(ctx, conn, rm, p.Token)
	}

	player := model.Player{ID: model.PlayerID(c.random.UUID()), Name: name}
	starter, err := rm.Engine.AddPlayer(player)
	if err != nil {
		c.registry.DeleteIfEmpty(rm)
		return err
	}
	token, err := c.credentials.Issue(ctx, rm.ID, player)
	if err != nil {
		rm.Engine.RemovePlayer(player.ID)
		c.registry.DeleteIfEmpty(rm)
		return err
	}

	rm.SetConn(player.ID, conn)
	c.registry.Bind(conn, rm.ID, player.ID)
	c.transport.JoinChannel(conn, rm.ID)

	players := rm.Engine.Players()
	c.transport.Send(conn, model.EventJoined, model.JoinedPayload{
		RoomID:   rm.ID,
		PlayerID: player.ID,
		Players:  players,
		IsFull:   rm.Engine.IsFull(),
		Token:    token.Token,
	})
	c.transport.Broadcast(rm.ID, model.EventPlayerArrived, model.PlayerArrivedPayload{
		Player:  player,
		Players: players,
	})

	c.logger.Info("player joined",
		slog.String("room_id", string(rm.ID)),
		slog.String("player_id", string(player.ID)),
		slog.String("conn_id", string(conn)),
		slog.Int("player_count", len(players)))

	if starter != nil {
		rm.State = model.RoomStateActive
		c.transport.Broadcast(rm.ID, model.EventMatchReady, nil)
		c.announceTurnLocked(rm)
		c.logger.Info("match started",
			slog.String("room_id", string(rm.ID)),
			slog.String("starter_id", string(starter.ID)))
	}
	return nil
}

// SubmitGuess records a guess from the connection's player
func (c *Controller) SubmitGuess(ctx context.Context, conn transport.ConnID, guess string) error {
	b, ok := c.registry.Lookup(conn)
	if !ok {
		return model.ErrNotInRoom
	}
	rm, err := c.registry.Acquire(b.RoomID, false)
	if err != nil {
		return err
	}

	summary, err := c.guessLocked(rm, b.PlayerID, guess)
	rm.Unlock()

	c.archive(ctx, summary)
	return err
}

// RequestRestart records a restart vote and restarts once every player
// has voted
func (c *Controller) RequestRestart(ctx context.Context, conn transport.ConnID) error {
	b, ok := c.registry.Lookup(conn)
	if !ok {
		return model.ErrNotInRoom
	}
	rm, err := c.registry.Acquire(b.RoomID, false)
	if err != nil {
		return err
	}
	defer rm.Unlock()

	if rm.State == model.RoomStateAwaitingReconnect {
		return model.ErrReconnectionRequired
	}
	ready, err := rm.Engine.RequestRestart(b.PlayerID)
	if err != nil {
		return err
	}

	if !ready {
		c.transport.Send(conn, model.EventRestartPending, nil)
		requester, _ := rm.Engine.Player(b.PlayerID)
		if opponent, ok := rm.Engine.Opponent(b.PlayerID); ok {
			c.sendToPlayer(rm, opponent.ID, model.EventOpponentRequestedRestart,
				model.OpponentRequestedRestartPayload{Name: requester.Name})
		}
		return nil
	}

	c.turns.Cancel(rm.ID)
	rm.Engine.Reset()
	c.transport.Broadcast(rm.ID, model.EventMatchRestarted, nil)
	c.announceTurnLocked(rm)

	c.logger.Info("match restarted", slog.String("room_id", string(rm.ID)))
	return nil
}

// Leave handles an explicit leaveRoom from the connection
func (c *Controller) Leave(ctx context.Context, conn transport.ConnID) error {
	return c.depart(ctx, conn, true)
}

// Disconnect handles the loss of a connection
func (c *Controller) Disconnect(ctx context.Context, conn transport.ConnID) {
	if err := c.depart(ctx, conn, false); err != nil {
		c.logger.Warn("failed to handle disconnect",
			slog.String("conn_id", string(conn)),
			slog.String("error", err.Error()))
	}
}

// CheckStatus reports a room's status to the connection without joining
func (c *Controller) CheckStatus(conn transport.ConnID, roomID model.RoomID) error {
	if roomID == "" {
		return model.ErrEmptyRoomID
	}
	status := c.registry.Status(roomID)
	c.transport.Send(conn, model.EventRoomStatus, model.RoomStatusPayload{
		RoomID:      roomID,
		Exists:      status.Exists,
		IsFull:      status.IsFull,
		PlayerCount: status.PlayerCount,
	})
	return nil
}

// Stop cancels every pending turn and reconnection timer
func (c *Controller) Stop() {
	c.turns.Stop()
	c.broker.Stop()
}

// depart removes the connection from its room. A player dropping out of a
// running two-player match opens a reconnection window instead of leaving
// for good.
func (c *Controller) depart(ctx context.Context, conn transport.ConnID, explicit bool) error {
	b, ok := c.registry.Unbind(conn)
	if !ok {
		if explicit {
			return model.ErrNotInRoom
		}
		return nil
	}
	c.transport.LeaveChannel(conn, b.RoomID)
	if explicit {
		defer c.transport.Send(conn, model.EventLeftRoom, nil)
	}

	rm, err := c.registry.Acquire(b.RoomID, false)
	if err != nil {
		return nil
	}
	defer rm.Unlock()

	// The identity may already be speaking through a newer connection
	if current, ok := rm.Conn(b.PlayerID); !ok || current != conn {
		return nil
	}
	rm.DropConn(b.PlayerID)

	player, _ := rm.Engine.Player(b.PlayerID)
	logger := c.logger.With(
		slog.String("room_id", string(rm.ID)),
		slog.String("player_id", string(b.PlayerID)),
		slog.Bool("explicit", explicit))

	switch {
	case rm.State == model.RoomStateAwaitingReconnect:
		logger.Info("remaining player left during reconnection window")
		c.quitLocked(ctx, rm)
	case rm.State == model.RoomStateActive && rm.Engine.Len() == model.MaxPlayers:
		logger.Info("player dropped from match")
		c.openWindowLocked(ctx, rm, player)
	default:
		logger.Info("player left room")
		c.removeLocked(ctx, rm, b.PlayerID)
		if rm.Engine.Len() < model.MaxPlayers && rm.State != model.RoomStatePractice {
			rm.State = model.RoomStateForming
		}
		c.registry.DeleteIfEmpty(rm)
	}
	return nil
}

// guessLocked applies a guess and announces the outcome. A summary is
// returned when the guess won a contested match.
func (c *Controller) guessLocked(rm *room.Room, playerID model.PlayerID, guess string) (*model.MatchSummary, error) {
	if rm.State == model.RoomStateAwaitingReconnect {
		return nil, model.ErrReconnectionRequired
	}
	record, err := rm.Engine.Guess(playerID, guess)
	if err != nil {
		return nil, err
	}
	c.turns.Cancel(rm.ID)

	player, _ := rm.Engine.Player(playerID)
	c.transport.Broadcast(rm.ID, model.EventGuessRecorded, model.GuessRecordedPayload{
		Player:  player,
		Guess:   record.Guess,
		Exact:   record.Exact,
		Partial: record.Partial,
	})

	if !rm.Engine.IsOver() {
		c.announceTurnLocked(rm)
		return nil, nil
	}
	return c.finishLocked(rm), nil
}

func (c *Controller) finishLocked(rm *room.Room) *model.MatchSummary {
	winner, _ := rm.Engine.Winner()
	guesses := rm.Engine.Log()
	c.transport.Broadcast(rm.ID, model.EventMatchOver, model.MatchOverPayload{
		Winner:  winner,
		Secret:  rm.Engine.Secret(),
		Guesses: guesses,
	})

	c.logger.Info("match over",
		slog.String("room_id", string(rm.ID)),
		slog.String("winner_id", string(winner.ID)),
		slog.Int("guesses", len(guesses)),
		slog.Bool("practice", rm.Engine.Practice()))

	if rm.Engine.Practice() {
		return nil
	}
	return &model.MatchSummary{
		RoomID:     rm.ID,
		Winner:     winner,
		Players:    rm.Engine.Players(),
		Secret:     rm.Engine.Secret(),
		Guesses:    guesses,
		FinishedAt: c.clock.Now(),
	}
}

// announceTurnLocked tells the room whose turn it is and arms the turn
// clock. Practice turns are untimed.
func (c *Controller) announceTurnLocked(rm *room.Room) {
	current, ok := rm.Engine.CurrentPlayer()
	if !ok {
		return
	}

	timeLeft := 0
	if !rm.Engine.Practice() {
		c.turns.Arm(rm.ID, current.ID, c.onTurnExpired)
		timeLeft = int(c.turns.Duration().Seconds())
	}

	conn, ok := rm.Conn(current.ID)
	if ok {
		c.transport.Send(conn, model.EventYourTurn, model.YourTurnPayload{TimeLeft: timeLeft})
	}
	if rm.Engine.Practice() {
		return
	}
	if ok {
		c.transport.Broadcast(rm.ID, model.EventOpponentsTurn, model.OpponentsTurnPayload{Player: current}, conn)
	} else {
		c.transport.Broadcast(rm.ID, model.EventOpponentsTurn, model.OpponentsTurnPayload{Player: current})
	}
}

// onTurnExpired forfeits the turn of a player who ran out of time
func (c *Controller) onTurnExpired(exp turnclock.Expiry) {
	rm, ok := c.registry.Get(exp.RoomID)
	if !ok {
		return
	}

	rm.Lock()
	if rm.Closed() || !c.turns.Claim(exp) {
		rm.Unlock()
		c.logger.Debug("stale turn timer ignored", slog.String("room_id", string(exp.RoomID)))
		return
	}
	if current, ok := rm.Engine.CurrentPlayer(); !ok || current.ID != exp.PlayerID {
		rm.Unlock()
		c.logger.Debug("turn already moved on", slog.String("room_id", string(exp.RoomID)))
		return
	}

	c.logger.Info("turn timed out",
		slog.String("room_id", string(exp.RoomID)),
		slog.String("player_id", string(exp.PlayerID)))
	summary, err := c.guessLocked(rm, exp.PlayerID, model.ForfeitGuess)
	rm.Unlock()

	if err != nil {
		c.logger.Warn("failed to forfeit turn",
			slog.String("room_id", string(exp.RoomID)),
			slog.String("error", err.Error()))
	}
	c.archive(context.Background(), summary)
}

// removeLocked takes a player off the roster for good
func (c *Controller) removeLocked(ctx context.Context, rm *room.Room, playerID model.PlayerID) {
	rm.Engine.RemovePlayer(playerID)
	rm.DropConn(playerID)
	if err := c.credentials.InvalidatePlayer(ctx, rm.ID, playerID); err != nil {
		c.logger.Warn("failed to invalidate token",
			slog.String("room_id", string(rm.ID)),
			slog.String("player_id", string(playerID)),
			slog.String("error", err.Error()))
	}
}

func (c *Controller) sendToPlayer(rm *room.Room, playerID model.PlayerID, event model.EventName, payload any) {
	if conn, ok := rm.Conn(playerID); ok {
		c.transport.Send(conn, event, payload)
	}
}

// archive records a finished match. Called without any room lock held.
func (c *Controller) archive(ctx context.Context, summary *model.MatchSummary) {
	if summary == nil {
		return
	}
	// Record logs its own failures
	_ = c.history.Record(context.WithoutCancel(ctx), summary)
}
