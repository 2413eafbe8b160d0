// Package config loads server and rules configuration from an optional YAML file,
// INFLUENCER_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/influencer-game/influencer-server-go/internal/game"
	"github.com/influencer-game/influencer-server-go/internal/game/catalog"
	"github.com/influencer-game/influencer-server-go/internal/game/deck"
	"github.com/influencer-game/influencer-server-go/internal/game/indicator"
)

// EnvPrefix prefixes every environment override, e.g. INFLUENCER_RULES_TARGET_SCORE.
const EnvPrefix = "INFLUENCER"

// Config is the complete server configuration.
type Config struct {
	Rules     RulesConfig     `mapstructure:"rules"`
	Deck      DeckConfig      `mapstructure:"deck"`
	Indicator IndicatorConfig `mapstructure:"indicator"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Server    ServerConfig    `mapstructure:"server"`
	Replay    ReplayConfig    `mapstructure:"replay"`
}

// RulesConfig holds the rule constants of a match.
type RulesConfig struct {
	TargetScore             int `mapstructure:"target_score"`
	WallLimit               int `mapstructure:"wall_limit"`
	HandSize                int `mapstructure:"hand_size"`
	MinPlayers              int `mapstructure:"min_players"`
	MaxPlayers              int `mapstructure:"max_players"`
	ProfileTokensMinPlayers int `mapstructure:"profile_tokens_min_players"`
}

// DeckConfig describes the deck built for every match.
type DeckConfig struct {
	// Content maps a card value to its copies per interest. Empty means the
	// standard distribution.
	Content      map[int]int `mapstructure:"content"`
	NetworkCards bool        `mapstructure:"network_cards"`
	// FocusEffect, when set, replaces the network cards with FocusCopies copies of
	// one effect.
	FocusEffect string `mapstructure:"focus_effect"`
	FocusCopies int    `mapstructure:"focus_copies"`
}

// IndicatorConfig configures the score-delta annotation.
type IndicatorConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig configures the local WebSocket bridge.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// ReplayConfig controls match recording. Finished matches are written to
// Directory when it is set.
type ReplayConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"address":       "server.address",
	"log-level":     "logging.level",
	"log-format":    "logging.format",
	"target-score":  "rules.target_score",
	"network-cards": "deck.network_cards",
	"focus-effect":  "deck.focus_effect",
	"focus-copies":  "deck.focus_copies",
	"indicator-ttl": "indicator.ttl",
	"replay":        "replay.enabled",
	"replay-dir":    "replay.directory",
}

// RegisterFlags adds the flags Load understands to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "path to a YAML configuration file (env: INFLUENCER_CONFIG)")
	fs.StringP("address", "a", "127.0.0.1:8080", "address the WebSocket bridge listens on (env: INFLUENCER_SERVER_ADDRESS)")
	fs.String("log-level", "info", "log level: debug, info, warn or error (env: INFLUENCER_LOGGING_LEVEL)")
	fs.String("log-format", "console", "log format: console or json (env: INFLUENCER_LOGGING_FORMAT)")
	fs.Int("target-score", 40, "position that wins the match (env: INFLUENCER_RULES_TARGET_SCORE)")
	fs.Bool("network-cards", true, "include network cards in the deck (env: INFLUENCER_DECK_NETWORK_CARDS)")
	fs.String("focus-effect", "", "build the deck with copies of a single network effect (env: INFLUENCER_DECK_FOCUS_EFFECT)")
	fs.Int("focus-copies", 10, "copies of the focus effect (env: INFLUENCER_DECK_FOCUS_COPIES)")
	fs.Duration("indicator-ttl", indicator.DefaultTTL, "how long score deltas stay visible (env: INFLUENCER_INDICATOR_TTL)")
	fs.Bool("replay", true, "record matches (env: INFLUENCER_REPLAY_ENABLED)")
	fs.String("replay-dir", "", "directory finished matches are saved to (env: INFLUENCER_REPLAY_DIRECTORY)")
}

func setDefaults(v *viper.Viper) {
	rules := game.DefaultRules()
	v.SetDefault("rules.target_score", rules.TargetScore)
	v.SetDefault("rules.wall_limit", rules.WallLimit)
	v.SetDefault("rules.hand_size", rules.HandSize)
	v.SetDefault("rules.min_players", rules.MinPlayers)
	v.SetDefault("rules.max_players", rules.MaxPlayers)
	v.SetDefault("rules.profile_tokens_min_players", rules.ProfileTokensMinPlayers)

	v.SetDefault("deck.network_cards", true)
	v.SetDefault("deck.focus_effect", "")
	v.SetDefault("deck.focus_copies", 10)

	v.SetDefault("indicator.ttl", indicator.DefaultTTL)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("server.address", "127.0.0.1:8080")

	v.SetDefault("replay.enabled", true)
	v.SetDefault("replay.directory", "")
}

// Load reads the configuration. Precedence, highest first: flags set on the command
// line, environment, the YAML file at path, defaults. path may be empty and fs may be
// nil.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if fs != nil {
		var bindErr error
		fs.VisitAll(func(f *pflag.Flag) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return
			}
			bindErr = errors.Join(bindErr, v.BindPFlag(key, f))
		})
		if bindErr != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", bindErr)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	r := c.Rules
	switch {
	case r.TargetScore < 1:
		return fmt.Errorf("rules.target_score must be positive, got %d", r.TargetScore)
	case r.WallLimit < 1:
		return fmt.Errorf("rules.wall_limit must be positive, got %d", r.WallLimit)
	case r.HandSize < 1:
		return fmt.Errorf("rules.hand_size must be positive, got %d", r.HandSize)
	case r.MinPlayers < 2 || r.MaxPlayers > len(catalog.Interests()) || r.MinPlayers > r.MaxPlayers:
		return fmt.Errorf("rules.min_players/max_players must satisfy 2 <= %d <= %d <= %d",
			r.MinPlayers, r.MaxPlayers, len(catalog.Interests()))
	}

	if _, err := c.Deck.Composition(); err != nil {
		return err
	}
	if c.Indicator.TTL <= 0 {
		return fmt.Errorf("indicator.ttl must be positive, got %s", c.Indicator.TTL)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	if c.Server.Address == "" {
		return errors.New("server.address must not be empty")
	}
	if c.Replay.Directory != "" && !c.Replay.Enabled {
		return errors.New("replay.directory requires replay.enabled")
	}
	return nil
}

// Composition returns the deck composition described by the config.
func (d DeckConfig) Composition() (deck.Composition, error) {
	var comp deck.Composition
	if d.FocusEffect != "" {
		effect, err := catalog.ParseEffectKey(d.FocusEffect)
		if err != nil {
			return comp, fmt.Errorf("deck.focus_effect: %w", err)
		}
		comp = deck.FocusComposition(effect, d.FocusCopies)
	} else {
		comp = deck.StandardComposition(d.NetworkCards)
	}
	if len(d.Content) > 0 {
		comp.Content = make(map[int]int, len(d.Content))
		for value, copies := range d.Content {
			comp.Content[value] = copies
		}
	}
	if err := comp.Validate(); err != nil {
		return comp, fmt.Errorf("deck: %w", err)
	}
	return comp, nil
}

// EngineRules converts the rules section for game.NewEngine.
func (r RulesConfig) EngineRules() game.RulesConfig {
	return game.RulesConfig{
		TargetScore:             r.TargetScore,
		WallLimit:               r.WallLimit,
		HandSize:                r.HandSize,
		MinPlayers:              r.MinPlayers,
		MaxPlayers:              r.MaxPlayers,
		ProfileTokensMinPlayers: r.ProfileTokensMinPlayers,
	}
}
