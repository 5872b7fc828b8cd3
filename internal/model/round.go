package model

import "time"

// Phase is the current stage of a round
type Phase string

const (
	PhaseSubmission Phase = "submission" // Non-czar players choose answers
	PhaseSelection  Phase = "selection"  // Czar picks a winner
)

// FilledIn is one submission rendered into the prompt, as shown to the czar
type FilledIn struct {
	Player PlayerName
	Text   string
}

// RoundState tracks the round in progress
type RoundState struct {
	Number      int
	Phase       Phase
	Czar        PlayerName // Empty before the first round starts
	Prompt      CardID     // NoCard before the first deal
	Submissions map[PlayerName][]CardID
	Arrivals    []PlayerName // Submission arrival order
	FilledIn    []FilledIn   // Populated on entering selection, shuffled
	StartedAt   time.Time
}

// NewRoundState returns an empty round awaiting its first deal
func NewRoundState() RoundState {
	return RoundState{
		Phase:       PhaseSubmission,
		Prompt:      NoCard,
		Submissions: make(map[PlayerName][]CardID),
	}
}

// HasSubmitted returns true if the player has a submission this round
func (r *RoundState) HasSubmitted(name PlayerName) bool {
	_, ok := r.Submissions[name]
	return ok
}

// Clone returns a deep copy of the round
func (r RoundState) Clone() RoundState {
	c := r
	c.Submissions = make(map[PlayerName][]CardID, len(r.Submissions))
	for name, cards := range r.Submissions {
		c.Submissions[name] = cloneSlice(cards)
	}
	c.Arrivals = cloneSlice(r.Arrivals)
	c.FilledIn = cloneSlice(r.FilledIn)
	return c
}
