package cli

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcoot/fillblank/internal/api/request"
	"github.com/mcoot/fillblank/internal/api/response"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Game commands",
	}

	cmd.AddCommand(newGameListCmd())
	cmd.AddCommand(newGameCreateCmd())
	cmd.AddCommand(newGameJoinCmd())
	cmd.AddCommand(newGameJoinNameCmd())
	cmd.AddCommand(newGameGetCmd())
	cmd.AddCommand(newGameLeaveCmd())
	cmd.AddCommand(newGameRoundCmd())
	cmd.AddCommand(newGameSubmitCmd())
	cmd.AddCommand(newGameWinnerCmd())
	cmd.AddCommand(newGameHistoryCmd())
	cmd.AddCommand(newGameQRCmd())

	return cmd
}

func gamePath(id string, suffix string) string {
	return "/api/v1/games/" + url.PathEscape(id) + suffix
}

// postView posts to a game endpoint that answers with the caller's view
func postView(path string, body any) error {
	var result response.GameView
	if err := client.Post(path, body, &result); err != nil {
		return err
	}
	NewOutput(cfg.Output).Print(result)
	return nil
}

func newGameListCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List games",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.GameList

			path := "/api/v1/games"
			if all {
				path += "?active=false"
			}
			if err := client.Get(path, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include inactive games")

	return cmd
}

func newGameCreateCmd() *cobra.Command {
	var (
		cardSets    []string
		handSize    int
		losingCards string
		shortRoster string
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a game and join it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.GameView

			req := request.CreateGameRequest{
				Name:        args[0],
				CardSets:    cardSets,
				HandSize:    handSize,
				LosingCards: losingCards,
				ShortRoster: shortRoster,
			}
			if err := client.Post("/api/v1/games", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&cardSets, "cards", nil, "Card sets to play with (default: all)")
	cmd.Flags().IntVar(&handSize, "hand-size", 0, "Cards per hand (default: server setting)")
	cmd.Flags().StringVar(&losingCards, "losing-cards", "", "What happens to losing cards: discard or return")
	cmd.Flags().StringVar(&shortRoster, "short-roster", "", "When one player remains: wait or deactivate")

	return cmd
}

func newGameJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <id>",
		Short: "Join a game by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postView(gamePath(args[0], "/join"), nil)
		},
	}
}

func newGameJoinNameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join-name <name>",
		Short: "Join a game by name, creating it if it does not exist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postView("/api/v1/games/join", request.JoinByNameRequest{Name: args[0]})
		},
	}
}

func newGameGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show the game as you see it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.GameView

			if err := client.Get(gamePath(args[0], ""), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newGameLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave <id>",
		Short: "Leave a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post(gamePath(args[0], "/leave"), nil, nil); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage("Left game")
			return nil
		},
	}
}

func newGameRoundCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "round <id>",
		Short: "Start a fresh round with a new prompt (before anyone has submitted)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postView(gamePath(args[0], "/rounds"), nil)
		},
	}
}

func newGameSubmitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submit <id> <card-id>...",
		Short: "Submit answer cards from your hand, in blank order",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cardIDs := make([]int, 0, len(args)-1)
			for _, arg := range args[1:] {
				id, err := strconv.Atoi(arg)
				if err != nil {
					return fmt.Errorf("invalid card id %q: %w", arg, err)
				}
				cardIDs = append(cardIDs, id)
			}

			return postView(gamePath(args[0], "/submissions"), request.SubmitRequest{CardIDs: cardIDs})
		},
	}
}

func newGameWinnerCmd() *cobra.Command {
	var player string

	cmd := &cobra.Command{
		Use:   "winner <id> [choice]",
		Short: "Pick the winning entry (czar only)",
		Long: `Pick the winning entry by its choice number as shown in the game view,
or by the player's name with --player.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req request.SelectWinnerRequest

			switch {
			case len(args) == 2 && player != "":
				return fmt.Errorf("give either a choice or --player, not both")
			case len(args) == 2:
				choice, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("invalid choice %q: %w", args[1], err)
				}
				req.Choice = &choice
			case player != "":
				req.PlayerName = player
			default:
				return fmt.Errorf("a choice or --player is required")
			}

			return postView(gamePath(args[0], "/winner"), req)
		},
	}

	cmd.Flags().StringVar(&player, "player", "", "Name of the winning player")

	return cmd
}

func newGameHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Show the rounds played so far",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.History

			if err := client.Get(gamePath(args[0], "/history"), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newGameQRCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "qr <id>",
		Short: "Save a QR code linking to the game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			png, err := client.GetBytes(gamePath(args[0], "/qr"), "image/png")
			if err != nil {
				return err
			}

			if file == "" {
				file = args[0] + ".png"
			}
			if err := os.WriteFile(file, png, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", file, err)
			}

			NewOutput(cfg.Output).PrintMessage("QR code saved to " + file)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Output file (default: <id>.png)")

	return cmd
}

func newCardSetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cardsets",
		Short: "List available card sets",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.CardSetList

			if err := client.Get("/api/v1/cardsets", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}
