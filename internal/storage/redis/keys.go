package redis

import (
	"fmt"

	"github.com/mcoot/fillblank/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "fillblank"

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// registeredPlayerKey returns the Redis key for a RegisteredPlayer
func registeredPlayerKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:registered_player:%s", keyPrefix, playerID)
}

// usernameIndexKey returns the Redis key for the username -> player_id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// sessionKey returns the Redis key for a GameSession
func sessionKey(id model.SessionID) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, id)
}

// sessionNameIndexKey returns the Redis key for the game name -> session_id index
func sessionNameIndexKey(name string) string {
	return fmt.Sprintf("%s:idx:session_name:%s", keyPrefix, name)
}

// allSessionsKey returns the Redis key for the SET of every session ID
func allSessionsKey() string {
	return fmt.Sprintf("%s:idx:sessions", keyPrefix)
}

// activeSessionsKey returns the Redis key for the SET of active session IDs
func activeSessionsKey() string {
	return fmt.Sprintf("%s:idx:sessions_active", keyPrefix)
}

// historyKey returns the Redis key for the LIST of a session's round results
func historyKey(id model.SessionID) string {
	return fmt.Sprintf("%s:history:%s", keyPrefix, id)
}

// cardSetKey returns the Redis key for a CardSet
func cardSetKey(name string) string {
	return fmt.Sprintf("%s:cardset:%s", keyPrefix, name)
}

// cardSetsIndexKey returns the Redis key for the SET of card set names
func cardSetsIndexKey() string {
	return fmt.Sprintf("%s:idx:cardsets", keyPrefix)
}
