package request

// CreateGuestRequest is the request body for creating a guest player
type CreateGuestRequest struct {
	DisplayName string `json:"display_name"`
}

// RegisterRequest is the request body for registering a player
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateGameRequest is the request body for creating a game.
// Zero-valued rules fall back to the server defaults.
type CreateGameRequest struct {
	Name        string   `json:"name"`
	CardSets    []string `json:"card_sets,omitempty"`
	HandSize    int      `json:"hand_size,omitempty"`
	LosingCards string   `json:"losing_cards,omitempty"`
	ShortRoster string   `json:"short_roster,omitempty"`
}

// JoinByNameRequest is the request body for joining a game by name, creating it if needed
type JoinByNameRequest struct {
	Name string `json:"name"`
}

// SubmitRequest is the request body for submitting answer cards
type SubmitRequest struct {
	CardIDs []int `json:"card_ids"`
}

// SelectWinnerRequest is the request body for the czar's pick.
// Exactly one of Choice (index into the displayed entries) or PlayerName is set.
type SelectWinnerRequest struct {
	Choice     *int   `json:"choice,omitempty"`
	PlayerName string `json:"player_name,omitempty"`
}
