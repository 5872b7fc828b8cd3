package model

import "strings"

// BlankMarker is the token in prompt text that an answer replaces
const BlankMarker = "{}"

// DisplayBlank is shown in place of an unfilled blank
const DisplayBlank = "______"

// CardID identifies a card within its pool (black and white IDs are separate spaces)
type CardID int

// NoCard marks the absence of a prompt before the first deal
const NoCard CardID = 0

// BlackCard is a prompt card. Immutable once imported.
type BlackCard struct {
	ID      CardID
	Text    string
	Pick    int // Number of answers required, >= 1
	CardSet string
}

// WhiteCard is an answer card. Immutable once imported.
type WhiteCard struct {
	ID      CardID
	Text    string
	CardSet string
}

// CardSet is a named group of cards that a game can draw from
type CardSet struct {
	Name        string
	Description string
	BlackCards  []BlackCard
	WhiteCards  []WhiteCard
}

// CountBlanks returns the number of blank markers in a prompt
func CountBlanks(text string) int {
	return strings.Count(text, BlankMarker)
}

// DisplayPrompt returns the prompt text with blanks shown as underscores
func (b BlackCard) DisplayPrompt() string {
	return strings.ReplaceAll(b.Text, BlankMarker, DisplayBlank)
}

// FillBlanks substitutes answers into the prompt's blanks in order.
// Answers beyond the number of blanks are appended after the text.
func FillBlanks(prompt string, answers []string) string {
	var sb strings.Builder
	rest := prompt
	i := 0
	for i < len(answers) {
		idx := strings.Index(rest, BlankMarker)
		if idx < 0 {
			break
		}
		sb.WriteString(rest[:idx])
		sb.WriteString(answers[i])
		rest = rest[idx+len(BlankMarker):]
		i++
	}
	sb.WriteString(strings.ReplaceAll(rest, BlankMarker, DisplayBlank))

	for ; i < len(answers); i++ {
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(answers[i])
	}
	return sb.String()
}
