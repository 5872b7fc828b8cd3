package model

import "time"

// PlayerID uniquely identifies an account across the system
type PlayerID string

// Player represents an authenticated participant.
// DisplayName is the name the player takes when joining a game.
type Player struct {
	ID          PlayerID
	DisplayName string
	Email       string // registered players only, used for the avatar
	IsGuest     bool   // true for unregistered players
	CreatedAt   time.Time
}

// RegisteredPlayer extends Player with authentication data
// Stored separately for security (password never in memory with session)
type RegisteredPlayer struct {
	PlayerID     PlayerID
	Username     string // login username (immutable)
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Seat is an account's claim on a place in one game
type Seat struct {
	Owner  PlayerID
	Name   PlayerName
	Avatar string
}
