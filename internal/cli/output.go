package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mcoot/fillblank/internal/api/response"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Player:
		o.printPlayer(v)
	case response.AuthResponse:
		o.printAuthResult(v)
	case response.GameList:
		o.printGameList(v)
	case response.GameView:
		o.printGameView(v)
	case response.History:
		o.printHistory(v)
	case response.CardSetList:
		o.printCardSets(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printPlayer(p response.Player) {
	guestStr := "no"
	if p.IsGuest {
		guestStr = "yes"
	}
	fmt.Printf("Player: %s (%s)\n", p.DisplayName, p.ID)
	fmt.Printf("Guest: %s\n", guestStr)
	if p.AvatarURL != "" {
		fmt.Printf("Avatar: %s\n", p.AvatarURL)
	}
}

func (o *Output) printAuthResult(a response.AuthResponse) {
	o.printPlayer(a.Player)
	fmt.Printf("Token: %s\n", a.SessionToken)
}

func (o *Output) printGameList(l response.GameList) {
	if len(l.Games) == 0 {
		fmt.Println("No games")
		return
	}
	for _, g := range l.Games {
		status := "active"
		if !g.Active {
			status = "inactive"
		}
		fmt.Printf("%s  %s  [%s] players=%d round=%d sets=%s\n",
			g.ID, g.Name, status, g.PlayerCount, g.RoundNumber, strings.Join(g.CardSets, ","))
	}
}

func (o *Output) printGameView(g response.GameView) {
	fmt.Printf("Game: %s (%s)\n", g.Name, g.ID)
	if !g.Active {
		fmt.Println("Inactive")
	}
	fmt.Printf("Round %d, %s\n", g.RoundNumber, g.Phase)
	if g.Czar != "" {
		fmt.Printf("Czar: %s\n", g.Czar)
	}
	if g.Prompt != "" {
		fmt.Printf("\n  %s  (pick %d)\n\n", g.Prompt, g.Pick)
	}

	fmt.Printf("Players (%d):\n", len(g.Players))
	for _, p := range g.Players {
		var tags []string
		if p.IsCzar {
			tags = append(tags, "czar")
		}
		if p.HasSubmitted {
			tags = append(tags, "submitted")
		}
		if p.SittingOut {
			tags = append(tags, "sitting out")
		}
		tagStr := ""
		if len(tags) > 0 {
			tagStr = " [" + strings.Join(tags, ", ") + "]"
		}
		fmt.Printf("  - %s: %d wins%s\n", p.Name, p.Wins, tagStr)
	}

	if len(g.Hand) > 0 {
		fmt.Println("\nYour hand:")
		for _, c := range g.Hand {
			fmt.Printf("  %4d  %s\n", c.ID, c.Text)
		}
	}
	if g.OwnSubmission != "" {
		fmt.Printf("\nYour answer: %s\n", g.OwnSubmission)
	}

	if len(g.Choices) > 0 {
		fmt.Println("\nEntries:")
		for _, c := range g.Choices {
			fmt.Printf("  %d) %s\n", c.Index, c.Text)
		}
	}

	switch {
	case g.CanSubmit:
		fmt.Printf("\nSubmit %d card(s) with: fillblank game submit %s <card-id>...\n", g.Pick, g.ID)
	case g.CanSelect:
		fmt.Printf("\nPick a winner with: fillblank game winner %s <choice>\n", g.ID)
	}

	if g.LastRound != nil {
		fmt.Println("\nLast round:")
		o.printRound(*g.LastRound)
	}
}

func (o *Output) printRound(r response.Round) {
	fmt.Printf("  Round %d (czar %s), won by %s\n", r.Number, r.Czar, r.Winner)
	for _, e := range r.Entries {
		marker := " "
		if e.IsWinner {
			marker = "*"
		}
		fmt.Printf("   %s %s: %s\n", marker, e.Player, e.Text)
	}
}

func (o *Output) printHistory(h response.History) {
	if len(h.Rounds) == 0 {
		fmt.Println("No rounds played yet")
		return
	}
	for _, r := range h.Rounds {
		o.printRound(r)
	}
}

func (o *Output) printCardSets(l response.CardSetList) {
	if len(l.CardSets) == 0 {
		fmt.Println("No card sets loaded")
		return
	}
	for _, s := range l.CardSets {
		fmt.Printf("%s: %d prompts, %d answers", s.Name, s.BlackCount, s.WhiteCount)
		if s.Description != "" {
			fmt.Printf("  (%s)", s.Description)
		}
		fmt.Println()
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
