package model

import "time"

// SubmissionRecord is one player's entry in a resolved round
type SubmissionRecord struct {
	Player   PlayerName
	Cards    []CardID
	Text     string // Prompt with the answers filled in
	IsWinner bool
}

// RoundResult records how a round was resolved, for history and auditing
type RoundResult struct {
	SessionID    SessionID
	RoundNumber  int
	Prompt       CardID
	Czar         PlayerName
	Winner       PlayerName
	WinningCards []CardID
	Entries      []SubmissionRecord
	ResolvedAt   time.Time
}

// Clone returns a deep copy of the result
func (r RoundResult) Clone() RoundResult {
	c := r
	c.WinningCards = cloneSlice(r.WinningCards)
	c.Entries = make([]SubmissionRecord, len(r.Entries))
	for i, e := range r.Entries {
		e.Cards = cloneSlice(e.Cards)
		c.Entries[i] = e
	}
	return c
}
