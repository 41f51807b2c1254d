package model

import "errors"

// Common errors used across the application
var (
	// Validation errors
	ErrEmptyName      = errors.New("name must not be empty")
	ErrEmptyRoomID    = errors.New("room id must not be empty")
	ErrInvalidFormat  = errors.New("guess must be 4 distinct digits")
	ErrInvalidPayload = errors.New("invalid event payload")
	ErrUnknownEvent   = errors.New("unknown event type")
	ErrInvalidChoice  = errors.New("choice must be wait, practice or quit")

	// Room errors
	ErrRoomNotFound  = errors.New("room not found")
	ErrRoomFull      = errors.New("room is full")
	ErrNameTaken     = errors.New("name is already taken in this room")
	ErrNotInRoom     = errors.New("connection has not joined a room")
	ErrAlreadyInRoom = errors.New("connection is already in a room")

	// Match errors
	ErrNotInMatch      = errors.New("player is not in this match")
	ErrNotYourTurn     = errors.New("not this player's turn")
	ErrMatchNotStarted = errors.New("match has not started")
	ErrMatchOver       = errors.New("match is over")

	// Reconnection errors
	ErrInvalidToken         = errors.New("invalid reconnection token")
	ErrReconnectionRequired = errors.New("room is waiting for a player to reconnect")
	ErrNoChoicePending      = errors.New("no reconnection choice is pending")
)

// Error codes sent to clients
const (
	CodeEmptyName            = "EMPTY_NAME"
	CodeEmptyRoomID          = "EMPTY_ROOM_ID"
	CodeInvalidFormat        = "INVALID_FORMAT"
	CodeInvalidPayload       = "INVALID_PAYLOAD"
	CodeUnknownEvent         = "UNKNOWN_EVENT"
	CodeInvalidChoice        = "INVALID_CHOICE"
	CodeRoomNotFound         = "ROOM_NOT_FOUND"
	CodeRoomFull             = "ROOM_FULL"
	CodeNameTaken            = "NAME_TAKEN"
	CodeNotInRoom            = "NOT_IN_ROOM"
	CodeAlreadyInRoom        = "ALREADY_IN_ROOM"
	CodeNotInMatch           = "NOT_IN_MATCH"
	CodeNotYourTurn          = "NOT_YOUR_TURN"
	CodeMatchNotStarted      = "MATCH_NOT_STARTED"
	CodeMatchOver            = "MATCH_OVER"
	CodeInvalidToken         = "INVALID_TOKEN"
	CodeReconnectionRequired = "RECONNECTION_REQUIRED"
	CodeNoChoicePending      = "NO_CHOICE_PENDING"
	CodeInternalError        = "INTERNAL_ERROR"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrEmptyName, CodeEmptyName},
	{ErrEmptyRoomID, CodeEmptyRoomID},
	{ErrInvalidFormat, CodeInvalidFormat},
	{ErrInvalidPayload, CodeInvalidPayload},
	{ErrUnknownEvent, CodeUnknownEvent},
	{ErrInvalidChoice, CodeInvalidChoice},
	{ErrRoomNotFound, CodeRoomNotFound},
	{ErrRoomFull, CodeRoomFull},
	{ErrNameTaken, CodeNameTaken},
	{ErrNotInRoom, CodeNotInRoom},
	{ErrAlreadyInRoom, CodeAlreadyInRoom},
	{ErrNotInMatch, CodeNotInMatch},
	{ErrNotYourTurn, CodeNotYourTurn},
	{ErrMatchNotStarted, CodeMatchNotStarted},
	{ErrMatchOver, CodeMatchOver},
	{ErrInvalidToken, CodeInvalidToken},
	{ErrReconnectionRequired, CodeReconnectionRequired},
	{ErrNoChoicePending, CodeNoChoicePending},
}

// Code returns the client-facing code for err, or CodeInternalError if
// err is not one of the errors above.
func Code(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeInternalError
}
