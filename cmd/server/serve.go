package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/fillblank/internal/api"
	"github.com/mcoot/fillblank/internal/factory"
)

func newServeCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the game server",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.port < 1 || cfg.port > 65535 {
				return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", cfg.port)
			}
			return serve(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.StringVarP(&cfg.bind, "bind", "b", "", "address to bind to (env: FILLBLANK_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: FILLBLANK_PORT)")
	fs.StringVar(&cfg.baseURL, "base-url", "", "public URL used in join links, derived from requests if empty (env: FILLBLANK_BASE_URL)")
	fs.DurationVar(&cfg.sweepInterval, "sweep-interval", 5*time.Minute, "how often idle games are swept (env: FILLBLANK_SWEEP_INTERVAL)")

	return cmd
}

func serve(ctx context.Context, cfg *Config) error {
	logger := cfg.logger()
	slog.SetDefault(logger)

	app, err := factory.New(cfg.factoryConfig(logger))
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close application", slog.String("error", err.Error()))
		}
	}()

	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	if err := app.Start(workerCtx); err != nil {
		return err
	}
	if !app.Catalog.IsLoaded() {
		logger.Warn("no card sets in storage, import some with the import command")
	}

	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		AuthService:    app.AuthService,
		GameController: app.GameController,
		Catalog:        app.Catalog,
		HubManager:     app.HubManager,
		BaseURL:        cfg.baseURL,
	})

	mux := http.NewServeMux()
	mux.Handle("/api/", router)

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.bind
	serverConfig.Port = cfg.port
	server := api.NewServer(mux, serverConfig, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.storage),
		slog.String("version", releaseVersion))

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			return err
		}
	}

	stopWorkers()
	app.Wait()
	logger.Info("server stopped")
	return nil
}
