package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	EventGameCreated     EventType = "game_created"
	EventPlayerJoined    EventType = "player_joined"
	EventPlayerLeft      EventType = "player_left"
	EventCardsSubmitted  EventType = "cards_submitted"
	EventSelectionBegan  EventType = "selection_began"
	EventRoundStarted    EventType = "round_started"
	EventGameDeactivated EventType = "game_deactivated"
)

// Event announces that a session changed after a successful save
type Event struct {
	Type      EventType
	Timestamp time.Time
	SessionID SessionID
	GameName  string
	Player    PlayerName // The player who triggered the change, if any
	Version   int64
}
