package lobby

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/bullscows/internal/model"
	"github.com/mcoot/bullscows/internal/transport"
)

// HandleMessage dispatches one inbound envelope. Rejections are reported
// to the originating connection as an error event.
func (c *Controller) HandleMessage(ctx context.Context, conn transport.ConnID, env model.Envelope) {
	var err error
	switch env.Type {
	case model.EventJoinRoom:
		var p model.JoinRoomPayload
		if err = env.Decode(&p); err == nil {
			err = c.Join(ctx, conn, p)
		}
	case model.EventSubmitGuess:
		var p model.SubmitGuessPayload
		if err = env.Decode(&p); err == nil {
			err = c.SubmitGuess(ctx, conn, p.Guess)
		}
	case model.EventRequestRestart:
		err = c.RequestRestart(ctx, conn)
	case model.EventLeaveRoom:
		err = c.Leave(ctx, conn)
	case model.EventResolveChoice:
		var p model.ResolveChoicePayload
		if err = env.Decode(&p); err == nil {
			err = c.ResolveChoice(ctx, conn, p.Choice)
		}
	case model.EventCheckRoomStatus:
		var p model.CheckRoomStatusPayload
		if err = env.Decode(&p); err == nil {
			err = c.CheckStatus(conn, p.RoomID)
		}
	default:
		err = model.ErrUnknownEvent
	}

	if err != nil {
		c.reject(conn, env.Type, err)
	}
}

// HandleDisconnect is called once when a connection goes away
func (c *Controller) HandleDisconnect(ctx context.Context, conn transport.ConnID) {
	c.Disconnect(ctx, conn)
}

func (c *Controller) reject(conn transport.ConnID, event model.EventName, err error) {
	payload := model.NewErrorPayload(err)
	level := slog.LevelInfo
	if payload.Code == model.CodeInternalError || errors.Is(err, model.ErrUnknownEvent) {
		level = slog.LevelWarn
	}
	c.logger.Log(context.Background(), level, "event rejected",
		slog.String("conn_id", string(conn)),
		slog.String("event", string(event)),
		slog.String("code", payload.Code),
		slog.String("error", err.Error()))
	c.transport.Send(conn, model.EventError, payload)
}
