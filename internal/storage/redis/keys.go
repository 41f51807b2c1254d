package redis

import (
	"fmt"

	"github.com/mcoot/bullscows/internal/model"
)

// Key prefix for all bullscows data
const keyPrefix = "bullscows"

// tokenKey returns the Redis key for a SessionToken
func tokenKey(token string) string {
	return fmt.Sprintf("%s:token:%s", keyPrefix, token)
}

// playerTokenIndexKey returns the Redis key for the (room, player) -> token index
func playerTokenIndexKey(roomID model.RoomID, playerID model.PlayerID) string {
	return fmt.Sprintf("%s:idx:player_token:%s:%s", keyPrefix, roomID, playerID)
}

// matchesKey returns the Redis key for the LIST of match summaries for a room
func matchesKey(roomID model.RoomID) string {
	return fmt.Sprintf("%s:matches:%s", keyPrefix, roomID)
}
