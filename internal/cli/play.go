package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/mcoot/bullscows/internal/model"
)

const playHelp = `Commands:
  1234       guess (four distinct digits)
  restart    ask for a rematch once the match is over
  leave      leave the room
  wait       keep waiting for a dropped opponent
  practice   carry on alone while they are gone
  quit       give up on the room
  status     show the room's status
  help       show this help`

func newPlayCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "play <room>",
		Short: "Join a room and play interactively",
		Long: `Join (or create) a room over a websocket and play from the terminal.

The reconnection token handed out on join is saved, so running the same
command again after a dropped connection resumes your seat.

` + playHelp,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(name) == "" {
				return errors.New("--name is required")
			}
			ctx, stop := signal.NotifyContext(contextOrBackground(cmd.Context()), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runPlay(ctx, args[0], name, os.Stdin, os.Stdout)
		},
	}

	cmd.Flags().StringVar(&name, "name", os.Getenv("USER"), "Display name")

	return cmd
}

// playSession renders server events for one room and keeps its token file
// up to date
type playSession struct {
	cfg    *Config
	roomID string

	mu  sync.Mutex
	out io.Writer
}

func runPlay(ctx context.Context, roomID, name string, in io.Reader, out io.Writer) error {
	session := &playSession{cfg: cfg, roomID: roomID, out: out}

	token, err := cfg.LoadRoomToken(roomID)
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}
	if token != "" && cfg.Verbose {
		session.println("Found a saved token for this room, trying to resume")
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, client.WebSocketURL("/ws"), nil)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	join, err := model.NewEnvelope(model.EventJoinRoom, model.JoinRoomPayload{
		RoomID: model.RoomID(roomID),
		Name:   name,
		Token:  token,
	})
	if err != nil {
		return err
	}
	if err := conn.WriteJSON(join); err != nil {
		return fmt.Errorf("failed to join: %w", err)
	}

	// Reader goroutine: the only reader of conn
	readErr := make(chan error, 1)
	go func() {
		for {
			var env model.Envelope
			if err := conn.ReadJSON(&env); err != nil {
				readErr <- err
				return
			}
			if session.handle(env) {
				readErr <- nil
				return
			}
		}
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	input := lines
	for {
		select {
		case <-ctx.Done():
			closeSocket(conn)
			return nil
		case err := <-readErr:
			closeSocket(conn)
			if err == nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("connection lost: %w", err)
		case line, ok := <-input:
			if !ok {
				// Input is done; let the server end the session
				input = nil
				continue
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if line == "help" {
				session.println(playHelp)
				continue
			}
			env, err := parseCommand(line, roomID)
			if err != nil {
				session.println(err.Error())
				continue
			}
			if err := conn.WriteJSON(env); err != nil {
				return fmt.Errorf("failed to send: %w", err)
			}
		}
	}
}

func closeSocket(conn *websocket.Conn) {
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// parseCommand turns a line typed at the prompt into an envelope
func parseCommand(line, roomID string) (model.Envelope, error) {
	switch cmd := strings.ToLower(strings.TrimSpace(line)); cmd {
	case "restart":
		return model.NewEnvelope(model.EventRequestRestart, nil)
	case "leave":
		return model.NewEnvelope(model.EventLeaveRoom, nil)
	case "wait", "practice", "quit":
		return model.NewEnvelope(model.EventResolveChoice, model.ResolveChoicePayload{Choice: model.Choice(cmd)})
	case "status":
		return model.NewEnvelope(model.EventCheckRoomStatus, model.CheckRoomStatusPayload{RoomID: model.RoomID(roomID)})
	default:
		if isDigits(cmd) {
			return model.NewEnvelope(model.EventSubmitGuess, model.SubmitGuessPayload{Guess: cmd})
		}
		return model.Envelope{}, fmt.Errorf("unknown command %q (type help)", line)
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// handle prints one event. Reports whether the session is over.
func (p *playSession) handle(env model.Envelope) bool {
	switch env.Type {
	case model.EventJoined:
		var v model.JoinedPayload
		if p.decode(env, &v) {
			p.saveToken(v.Token)
			p.printf("Joined room %s as %s (%d/2 players)\n", v.RoomID, v.PlayerID, len(v.Players))
		}
	case model.EventReconnected:
		var v model.ReconnectedPayload
		if p.decode(env, &v) {
			p.saveToken(v.Token)
			p.printf("Reconnected to room %s (match %s)\n", v.RoomID, v.MatchPhase)
		}
	case model.EventPlayerArrived:
		var v model.PlayerArrivedPayload
		if p.decode(env, &v) {
			p.printf("%s joined the room\n", v.Player.Name)
		}
	case model.EventMatchReady:
		p.println("Match started. Crack the secret: four distinct digits.")
	case model.EventYourTurn:
		var v model.YourTurnPayload
		if p.decode(env, &v) {
			if v.TimeLeft > 0 {
				p.printf("Your turn (%ds)\n", v.TimeLeft)
			} else {
				p.println("Your turn")
			}
		}
	case model.EventOpponentsTurn:
		var v model.OpponentsTurnPayload
		if p.decode(env, &v) {
			p.printf("Waiting for %s\n", v.Player.Name)
		}
	case model.EventGuessRecorded:
		var v model.GuessRecordedPayload
		if p.decode(env, &v) {
			if v.Guess == model.ForfeitGuess {
				p.printf("%s ran out of time\n", v.Player.Name)
			} else {
				p.printf("%s guessed %s: %d bulls, %d cows\n", v.Player.Name, v.Guess, v.Exact, v.Partial)
			}
		}
	case model.EventMatchOver:
		var v model.MatchOverPayload
		if p.decode(env, &v) {
			p.printf("%s wins! The secret was %s. Type restart for a rematch.\n", v.Winner.Name, v.Secret)
		}
	case model.EventRestartPending:
		p.println("Restart requested, waiting for your opponent")
	case model.EventOpponentRequestedRestart:
		var v model.OpponentRequestedRestartPayload
		if p.decode(env, &v) {
			p.printf("%s wants a rematch. Type restart to accept.\n", v.Name)
		}
	case model.EventMatchRestarted:
		p.println("New match started")
	case model.EventOpponentLeft:
		var v model.OpponentLeftPayload
		if p.decode(env, &v) {
			p.printf("%s left. Type wait, practice or quit.\n", v.Name)
		}
	case model.EventAwaitingReconnect:
		var v model.AwaitingReconnectPayload
		if p.decode(env, &v) {
			p.printf("Waiting up to %ds for %s to come back\n", v.Timeout, v.Name)
		}
	case model.EventPracticeStarted:
		p.println("Practice mode: keep guessing on your own")
	case model.EventOpponentReconnected:
		var v model.OpponentReconnectedPayload
		if p.decode(env, &v) {
			p.printf("%s is back\n", v.Name)
		}
	case model.EventReconnectionRequired:
		var v model.ReconnectionRequiredPayload
		if p.decode(env, &v) {
			p.printf("This room is holding a seat for %s. Try again later.\n", v.AwaitedName)
		}
		return true
	case model.EventReconnectionTimedOut:
		p.println("Your opponent did not come back. Waiting for a new player.")
	case model.EventRoomStatus:
		var v model.RoomStatusPayload
		if p.decode(env, &v) {
			p.printf("Room %s: exists=%t players=%d full=%t\n", v.RoomID, v.Exists, v.PlayerCount, v.IsFull)
		}
	case model.EventLeftRoom:
		p.forgetToken()
		p.println("You left the room")
		return true
	case model.EventError:
		var v model.ErrorPayload
		if p.decode(env, &v) {
			p.printf("Error: %s (%s)\n", v.Message, v.Code)
			if v.Code == model.CodeInvalidToken {
				p.forgetToken()
			}
		}
	default:
		p.printf("%s: %s\n", env.Type, string(env.Payload))
	}
	return false
}

func (p *playSession) decode(env model.Envelope, v any) bool {
	if err := env.Decode(v); err != nil {
		p.printf("Unreadable %s event: %v\n", env.Type, err)
		return false
	}
	return true
}

func (p *playSession) saveToken(token string) {
	if token == "" {
		return
	}
	if err := p.cfg.SaveRoomToken(p.roomID, token); err != nil {
		p.printf("Warning: could not save token: %v\n", err)
	}
}

func (p *playSession) forgetToken() {
	if err := p.cfg.ForgetRoomToken(p.roomID); err != nil {
		p.printf("Warning: could not remove token: %v\n", err)
	}
}

func (p *playSession) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.out, format, args...)
}

func (p *playSession) println(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintln(p.out, s)
}
