package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mcoot/fillblank/internal/factory"
)

func newImportCmd(cfg *Config) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import card sets from a JSON file",
		Long: `Import card sets from a JSON file keyed by card set name:

  {"base": {"description": "...", "blackcards": [{"text": "Why {}?"}], "whitecards": [{"text": "Cake"}]}}

Running servers pick up imported cards on restart.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := cfg.logger()

			app, err := factory.New(cfg.factoryConfig(logger))
			if err != nil {
				return fmt.Errorf("failed to create application: %w", err)
			}
			defer func() { _ = app.Close() }()

			results, err := app.Catalog.ImportFile(cmd.Context(), args[0], replace)
			if err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}

			total := 0
			for _, r := range results {
				total += r.BlackCount + r.WhiteCount
			}
			logger.Info("import complete", slog.Int("card_sets", len(results)), slog.Int("cards", total))
			return nil
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "replace card sets that already exist")

	return cmd
}
