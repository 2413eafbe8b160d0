package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterestsAreClosedSetOfSix(t *testing.T) {
	all := Interests()
	require.Len(t, all, 6)

	seen := make(map[Interest]bool)
	for _, info := range all {
		assert.False(t, seen[info.Interest], "duplicate interest %s", info.Interest)
		seen[info.Interest] = true
		assert.NotEmpty(t, info.Icon)
		assert.NotEmpty(t, info.Color)
	}
}

func TestParseInterest(t *testing.T) {
	got, err := ParseInterest("  Music ")
	require.NoError(t, err)
	assert.Equal(t, InterestMusic, got)

	_, err = ParseInterest("politics")
	assert.Error(t, err)
}

func TestNetworkCardsCoverEveryEffectOnce(t *testing.T) {
	defs := NetworkCards()
	require.Len(t, defs, 10)

	seen := make(map[EffectKey]bool)
	for _, def := range defs {
		assert.False(t, seen[def.Effect])
		seen[def.Effect] = true
		assert.NotEmpty(t, def.Title)
	}

	_, err := ParseEffectKey("challenge")
	require.NoError(t, err)
	_, err = ParseEffectKey("meteor")
	assert.Error(t, err)
}
