package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/influencer-game/influencer-server-go/internal/game"
	"github.com/influencer-game/influencer-server-go/internal/game/catalog"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, game.DefaultRules(), cfg.Rules.EngineRules())
	assert.Empty(t, cfg.Deck.Content)
	assert.True(t, cfg.Deck.NetworkCards)
	assert.Equal(t, 3*time.Second, cfg.Indicator.TTL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Address)
	assert.True(t, cfg.Replay.Enabled)
	assert.Empty(t, cfg.Replay.Directory)

	comp, err := cfg.Deck.Composition()
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1: 6, 2: 3, 3: 1}, comp.Content)
	assert.Len(t, comp.Network, len(catalog.NetworkCards()))
}

func TestLoadFileAndEnvironment(t *testing.T) {
	path := writeConfig(t, `
rules:
  target_score: 25
deck:
  network_cards: false
  content:
    "1": 2
    "3": 4
logging:
  format: json
`)
	t.Setenv("INFLUENCER_LOGGING_LEVEL", "debug")
	t.Setenv("INFLUENCER_RULES_TARGET_SCORE", "30")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Rules.TargetScore, "environment beats the file")
	assert.Equal(t, 3, cfg.Rules.WallLimit)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	comp, err := cfg.Deck.Composition()
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1: 2, 3: 4}, comp.Content)
	assert.Empty(t, comp.Network)
}

func TestLoadFlagsWin(t *testing.T) {
	t.Setenv("INFLUENCER_SERVER_ADDRESS", "127.0.0.1:9000")
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--address", "127.0.0.1:9100", "--focus-effect", "steal", "--focus-copies", "5", "--replay-dir", "/tmp/replays"}))

	cfg, err := Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9100", cfg.Server.Address)
	assert.Equal(t, 40, cfg.Rules.TargetScore, "unset flags keep their defaults")
	assert.Equal(t, "/tmp/replays", cfg.Replay.Directory)

	comp, err := cfg.Deck.Composition()
	require.NoError(t, err)
	assert.Equal(t, map[catalog.EffectKey]int{catalog.EffectSteal: 5}, comp.Network)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad level", "logging:\n  level: loud\n"},
		{"bad format", "logging:\n  format: xml\n"},
		{"bad players", "rules:\n  min_players: 4\n  max_players: 3\n"},
		{"bad value", "deck:\n  content:\n    \"4\": 1\n"},
		{"bad focus", "deck:\n  focus_effect: meteor\n"},
		{"bad ttl", "indicator:\n  ttl: 0s\n"},
		{"replay dir without recording", "replay:\n  enabled: false\n  directory: out\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body), nil)
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}
