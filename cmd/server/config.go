package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mcoot/fillblank/internal/factory"
	"github.com/mcoot/fillblank/internal/model"
	"github.com/mcoot/fillblank/internal/services/game"
	redisstorage "github.com/mcoot/fillblank/internal/storage/redis"
)

// Config holds every server setting. Each flag can also be set through a
// FILLBLANK_ prefixed environment variable or a .env file.
type Config struct {
	envFile  string
	logLevel string
	verbose  bool

	storage       string
	redisURL      string
	redisPoolSize int
	notifyChannel string

	bind    string
	port    int
	baseURL string

	idleTimeout   time.Duration
	sweepInterval time.Duration

	handSize    int
	losingCards string
	shortRoster string
	maxRetries  int
}

func (c *Config) validate() error {
	if c.storage != factory.StorageTypeMemory && c.storage != factory.StorageTypeRedis {
		return fmt.Errorf("invalid storage %q: must be %q or %q", c.storage, factory.StorageTypeMemory, factory.StorageTypeRedis)
	}
	if c.storage == factory.StorageTypeRedis && c.redisURL == "" {
		return errors.New("--redis-url is required with --storage=redis")
	}
	if c.maxRetries < 1 {
		return fmt.Errorf("invalid max retries (must be at least 1): %d", c.maxRetries)
	}
	return nil
}

func (c *Config) logger() *slog.Logger {
	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	} else if err := level.UnmarshalText([]byte(c.logLevel)); err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// factoryConfig translates flags into the application factory's config
func (c *Config) factoryConfig(logger *slog.Logger) factory.Config {
	gameCfg := game.DefaultConfig()
	gameCfg.MaxRetries = c.maxRetries
	gameCfg.Rules = model.SessionConfig{
		HandSize:    c.handSize,
		LosingCards: model.LosingCardsPolicy(c.losingCards),
		ShortRoster: model.ShortRosterPolicy(c.shortRoster),
	}

	fc := factory.Config{
		GameConfig:    gameCfg,
		Logger:        logger,
		StorageType:   c.storage,
		NotifyChannel: c.notifyChannel,
		IdleTimeout:   c.idleTimeout,
		SweepInterval: c.sweepInterval,
	}
	if c.storage == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = c.redisURL
		if c.redisPoolSize > 0 {
			redisCfg.PoolSize = c.redisPoolSize
		}
		fc.RedisConfig = &redisCfg
	}
	return fc
}

// loadEnvFile loads variables from path without overriding ones already set.
// A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// newViper reads FILLBLANK_ prefixed variables, with dashes in flag names as underscores
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("FILLBLANK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// bindEnv fills any flag not set on the command line from its environment variable
func bindEnv(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

// normalizeFlagName lets --hand_size stand in for --hand-size
func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func newRootCmd(cfg *Config) *cobra.Command {
	v := newViper()

	cmd := &cobra.Command{
		Use:     "fillblank-server",
		Short:   "Server for a fill-in-the-blank party card game.",
		Args:    cobra.ExactArgs(0),
		Version: releaseVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnvFile(cfg.envFile); err != nil {
				return err
			}
			bindEnv(v, cmd.Flags())
			return cfg.validate()
		},
	}

	fs := cmd.PersistentFlags()

	fs.StringVar(&cfg.envFile, "env-file", ".env", "optional file of environment variables to load")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "minimum log level: debug, info, warn, error (env: FILLBLANK_LOG_LEVEL)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "log at debug level (env: FILLBLANK_VERBOSE)")
	fs.StringVar(&cfg.storage, "storage", factory.StorageTypeMemory, "storage backend: memory or redis (env: FILLBLANK_STORAGE)")
	fs.StringVar(&cfg.redisURL, "redis-url", "", "redis connection URL (env: FILLBLANK_REDIS_URL)")
	fs.IntVar(&cfg.redisPoolSize, "redis-pool-size", 0, "redis connection pool size, 0 for the default (env: FILLBLANK_REDIS_POOL_SIZE)")
	fs.StringVar(&cfg.notifyChannel, "notify-channel", "", "redis pub/sub channel for game events (env: FILLBLANK_NOTIFY_CHANNEL)")
	fs.DurationVar(&cfg.idleTimeout, "idle-timeout", 2*time.Hour, "time before idle games are deactivated (env: FILLBLANK_IDLE_TIMEOUT)")
	fs.IntVar(&cfg.maxRetries, "max-retries", game.DefaultConfig().MaxRetries, "attempts per game action when saves conflict (env: FILLBLANK_MAX_RETRIES)")
	fs.IntVar(&cfg.handSize, "hand-size", model.DefaultHandSize, "default cards per hand (env: FILLBLANK_HAND_SIZE)")
	fs.StringVar(&cfg.losingCards, "losing-cards", string(model.LosingCardsDiscard), "default losing card policy: discard or return (env: FILLBLANK_LOSING_CARDS)")
	fs.StringVar(&cfg.shortRoster, "short-roster", string(model.ShortRosterWait), "default policy when one player remains: wait or deactivate (env: FILLBLANK_SHORT_ROSTER)")

	cmd.AddCommand(newServeCmd(cfg))
	cmd.AddCommand(newImportCmd(cfg))
	cmd.AddCommand(newSweepCmd(cfg))
	cmd.SetGlobalNormalizationFunc(normalizeFlagName)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("fillblank-server v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
