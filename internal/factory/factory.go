package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/fillblank/internal/dependencies/clock"
	"github.com/mcoot/fillblank/internal/dependencies/random"
	"github.com/mcoot/fillblank/internal/engine"
	"github.com/mcoot/fillblank/internal/model"
	"github.com/mcoot/fillblank/internal/notify"
	"github.com/mcoot/fillblank/internal/services/auth"
	"github.com/mcoot/fillblank/internal/services/catalog"
	"github.com/mcoot/fillblank/internal/services/game"
	"github.com/mcoot/fillblank/internal/services/sweeper"
	"github.com/mcoot/fillblank/internal/sse"
	"github.com/mcoot/fillblank/internal/storage"
	"github.com/mcoot/fillblank/internal/storage/memory"
	redisstorage "github.com/mcoot/fillblank/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Catalog        *catalog.Service
	Engine         *engine.Engine
	GameController *game.Controller
	AuthService    *auth.Service
	Sweeper        *sweeper.Sweeper

	// Push notifications
	HubManager  *sse.HubManager
	Broadcaster *sse.Broadcaster
	Notifier    notify.Notifier
	// Relay feeds events published by any instance into the local hubs; nil without redis
	Relay *notify.Relay

	logger *slog.Logger
	wg     sync.WaitGroup
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// GameConfig holds the controller's retry limit and default rules (optional)
	// If zero value, defaults to game.DefaultConfig()
	GameConfig game.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// NotifyChannel is the redis pub/sub channel for game events (redis only)
	// If empty, defaults to notify.DefaultChannel
	NotifyChannel string
	// IdleTimeout and SweepInterval tune the idle game sweeper (optional)
	IdleTimeout   time.Duration
	SweepInterval time.Duration
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var (
		store       storage.Storage
		redisClient *redis.Client
	)
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
		redisClient = redisStore.Client()
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory' or 'redis'", storageType)
	}

	if cfg.AuthConfig.SessionDuration == 0 {
		cfg.AuthConfig = auth.DefaultConfig()
	}
	if cfg.GameConfig.MaxRetries == 0 {
		cfg.GameConfig.MaxRetries = game.DefaultConfig().MaxRetries
	}
	rules, err := cfg.GameConfig.Rules.WithDefaults(model.DefaultSessionConfig())
	if err != nil {
		return nil, fmt.Errorf("default game rules: %w", err)
	}
	cfg.GameConfig.Rules = rules
	if cfg.NotifyChannel == "" {
		cfg.NotifyChannel = notify.DefaultChannel
	}

	return newWithDependencies(store, redisClient, clock.New(), random.New(), cfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing).
// With a redis client, events go through pub/sub so every instance's hubs hear them.
func newWithDependencies(store storage.Storage, redisClient *redis.Client, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) *App {
	cardCatalog := catalog.New(store, logger)
	eng := engine.New(cardCatalog, rnd, clk)
	hubManager := sse.NewHubManager(logger)
	broadcaster := sse.NewBroadcaster(hubManager, logger)

	var (
		notifier notify.Notifier = broadcaster
		relay    *notify.Relay
	)
	if redisClient != nil {
		notifier = notify.NewPublisher(redisClient, cfg.NotifyChannel)
		relay = notify.NewRelay(redisClient, cfg.NotifyChannel, broadcaster, logger)
	}
	notifier = notify.Multi{notifier, eventLogger(logger)}

	gameController := game.NewController(store, eng, cardCatalog, notifier, clk, logger, cfg.GameConfig)
	authService := auth.New(store, clk, cfg.AuthConfig)

	sw := sweeper.New(store, notifier, clk, logger)
	if cfg.IdleTimeout > 0 {
		sw.IdleTimeout = cfg.IdleTimeout
	}
	if cfg.SweepInterval > 0 {
		sw.Interval = cfg.SweepInterval
	}
	sw.AfterSweep = func() {
		hubManager.CleanupEmptyHubs()
		authService.CleanExpiredSessions()
	}

	return &App{
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		Catalog:        cardCatalog,
		Engine:         eng,
		GameController: gameController,
		AuthService:    authService,
		Sweeper:        sw,
		HubManager:     hubManager,
		Broadcaster:    broadcaster,
		Notifier:       notifier,
		Relay:          relay,
		logger:         logger,
	}
}

// Start loads the card catalog and starts the background workers.
// Workers stop when ctx is cancelled; call Wait to block until they have.
func (a *App) Start(ctx context.Context) error {
	if err := a.Catalog.LoadFromStorage(ctx); err != nil {
		return fmt.Errorf("failed to load card catalog: %w", err)
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.Sweeper.Run(ctx)
	}()

	if a.Relay != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := a.Relay.Run(ctx); err != nil {
				a.logger.Error("event relay stopped", slog.String("error", err.Error()))
			}
		}()
	}
	return nil
}

// Wait blocks until the background workers have stopped
func (a *App) Wait() {
	a.wg.Wait()
}

// Close disconnects SSE clients and releases storage connections
func (a *App) Close() error {
	a.HubManager.CloseAll()
	if closer, ok := a.Storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// eventLogger records every game event at debug level
func eventLogger(logger *slog.Logger) notify.Notifier {
	return notify.Func(func(ctx context.Context, event model.Event) error {
		logger.DebugContext(ctx, "game event",
			slog.String("event", string(event.Type)),
			slog.String("session_id", string(event.SessionID)),
			slog.String("player", string(event.Player)),
			slog.Int64("version", event.Version))
		return nil
	})
}
