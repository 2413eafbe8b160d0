package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/influencer-game/influencer-server-go/internal/config"
	"github.com/influencer-game/influencer-server-go/internal/game"
	"github.com/influencer-game/influencer-server-go/internal/game/indicator"
	"github.com/influencer-game/influencer-server-go/internal/server"
)

var version = "dev" // set via ldflags during build

func main() {
	if err := newCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "influencer-server",
		Short:         "Hot-seat rules engine for the influencer card game, served to a local renderer over WebSocket.",
		Args:          cobra.NoArgs,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			if path == "" {
				path = os.Getenv(config.EnvPrefix + "_CONFIG")
			}
			cfg, err := config.Load(path, cmd.Flags())
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, path)
		},
	}
	config.RegisterFlags(cmd.Flags())
	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetVersionTemplate("influencer-server {{.Version}}\n")
	return cmd
}

func run(parent context.Context, cfg *config.Config, path string) error {
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting influencer server",
		zap.String("version", version),
		zap.String("config", path),
	)

	comp, err := cfg.Deck.Composition()
	if err != nil {
		return err
	}

	clock := clockwork.NewRealClock()
	engine := game.NewEngine(game.Options{
		Logger: logger,
		Clock:  clock,
		Rules:  cfg.Rules.EngineRules(),

		RecordReplay: cfg.Replay.Enabled,
	})

	bridge := server.New(server.Options{
		Engine:      engine,
		Board:       indicator.NewBoard(clock, cfg.Indicator.TTL),
		Logger:      logger,
		Clock:       clock,
		Composition: &comp,

		ReplayDirectory: cfg.Replay.Directory,
	})

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("influencer server initialized",
		zap.String("address", cfg.Server.Address),
		zap.Int("target_score", cfg.Rules.TargetScore),
		zap.Bool("network_cards", len(comp.Network) > 0),
		zap.Duration("indicator_ttl", cfg.Indicator.TTL),
		zap.Bool("replay", cfg.Replay.Enabled),
	)

	if err := bridge.ListenAndServe(ctx, cfg.Server.Address); err != nil {
		logger.Error("WebSocket server error", zap.Error(err))
		return err
	}
	logger.Info("influencer server stopped")
	return nil
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
