package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mcoot/fillblank/internal/factory"
)

func newSweepCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Deactivate idle games once and exit",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := cfg.logger()
			if cfg.storage == factory.StorageTypeMemory {
				logger.Warn("sweeping in-memory storage has no effect on running servers")
			}

			app, err := factory.New(cfg.factoryConfig(logger))
			if err != nil {
				return fmt.Errorf("failed to create application: %w", err)
			}
			defer func() { _ = app.Close() }()

			count, err := app.Sweeper.SweepOnce(cmd.Context())
			if err != nil {
				return fmt.Errorf("sweep: %w", err)
			}
			logger.Info("sweep complete", slog.Int("deactivated", count))
			return nil
		},
	}
}
