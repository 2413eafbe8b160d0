package game

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/influencer-game/influencer-server-go/internal/game/rules"
)

func testFrame(turn int) *Frame {
	return newFrame(rules.ActionEndTurn, turn%2, &View{MatchID: "match-1", Turn: turn}, "sum", time.Unix(int64(turn), 0))
}

func TestNewReplay(t *testing.T) {
	replay := NewReplay("match-1")
	assert.Equal(t, "match-1", replay.MatchID)
	assert.Equal(t, 0, replay.CurrentIndex)
	assert.Equal(t, 0, replay.Size())
	assert.Nil(t, replay.Last())
}

func TestReplayNavigation(t *testing.T) {
	replay := NewReplay("match-1")
	for i := 0; i < 5; i++ {
		replay.Record(testFrame(i))
	}
	require.Equal(t, 5, replay.Size())
	assert.Equal(t, 4, replay.Last().View.Turn)

	replay.Start()
	for i := 0; i < 5; i++ {
		frame := replay.Next()
		require.NotNil(t, frame)
		assert.Equal(t, i, frame.View.Turn)
	}
	assert.Nil(t, replay.Next())

	frame := replay.Previous()
	require.NotNil(t, frame)
	assert.Equal(t, 4, frame.View.Turn)

	replay.Start()
	assert.Nil(t, replay.Previous())
}

func TestReplaySkipClamps(t *testing.T) {
	replay := NewReplay("match-1")
	assert.Nil(t, replay.Skip(3))

	for i := 0; i < 10; i++ {
		replay.Record(testFrame(i))
	}

	assert.Equal(t, 3, replay.Skip(3).View.Turn)
	assert.Equal(t, 9, replay.Skip(100).View.Turn)
	assert.Equal(t, 0, replay.Skip(-100).View.Turn)

	assert.Equal(t, 7, replay.FrameAt(7).View.Turn)
	assert.Nil(t, replay.FrameAt(-1))
	assert.Nil(t, replay.FrameAt(10))
}

func TestReplaySaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	replay := NewReplay("match-1")
	replay.Record(testFrame(0))
	winner := 0
	replay.Record(newFrame(rules.ActionEndTurn, 0, &View{MatchID: "match-1", Turn: 1, Winner: &winner}, "final", time.Unix(1, 0)))

	savedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	path, err := replay.SaveToFile(dir, savedAt)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "match-1.replay"), path)
	_, err = os.Stat(path)
	require.NoError(t, err)

	loaded, err := LoadReplayFromFile(dir, "match-1")
	require.NoError(t, err)
	assert.Equal(t, "match-1", loaded.MatchID)
	assert.True(t, loaded.SavedAt.Equal(savedAt), "saved at %s", loaded.SavedAt)
	require.Equal(t, 2, loaded.Size())

	first := loaded.FrameAt(0)
	assert.Equal(t, rules.ActionEndTurn, first.Action)
	assert.Nil(t, first.View.Winner)
	assert.Equal(t, -1, first.Winner)
	assert.True(t, first.At.Equal(time.Unix(0, 0)))

	last := loaded.Last()
	assert.Equal(t, "final", last.Checksum)
	require.NotNil(t, last.View.Winner, "winner at seat 0 survives the round trip")
	assert.Equal(t, 0, *last.View.Winner)
}

func TestLoadReplayMissingFile(t *testing.T) {
	_, err := LoadReplayFromFile(t.TempDir(), "nope")
	assert.Error(t, err)
}

func TestLoadReplayRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.replay"), []byte("not a replay"), 0o600))
	_, err := LoadReplayFromFile(dir, "bad")
	assert.Error(t, err)
}

func TestEngineRecordsAcceptedActions(t *testing.T) {
	clock := clockwork.NewFakeClock()
	engine := NewEngine(Options{
		Logger:       zaptest.NewLogger(t),
		Clock:        clock,
		Rand:         rand.New(rand.NewPCG(5, 6)),
		NewMatchID:   func() string { return "recorded" },
		RecordReplay: true,
	})
	assert.Nil(t, engine.Replay())

	_, err := engine.StartMatch(MatchConfig{Players: []PlayerSetup{{Interest: food}, {Interest: music}}})
	require.NoError(t, err)
	replay := engine.Replay()
	require.NotNil(t, replay)
	assert.Equal(t, "recorded", replay.MatchID)
	require.Equal(t, 1, replay.Size())
	assert.Equal(t, ActionStartMatch, replay.Last().Action)

	require.NoError(t, engine.DrawCard())
	require.Error(t, engine.DrawCard(), "second draw is illegal")
	require.NoError(t, engine.PlayCard(0))
	clock.Advance(time.Second)
	require.NoError(t, engine.EndTurn())

	require.Equal(t, 4, replay.Size(), "rejected actions are not recorded")
	actions := []rules.Action{ActionStartMatch, rules.ActionDrawCard, rules.ActionPlayCard, rules.ActionEndTurn}
	for i, want := range actions {
		assert.Equal(t, want, replay.FrameAt(i).Action)
	}

	last := replay.Last()
	assert.Equal(t, 0, last.Seat, "the frame names the seat that acted")
	assert.Equal(t, 1, last.View.CurrentPlayer)
	assert.Equal(t, clock.Now(), last.At)
	sum, err := engine.Checksum()
	require.NoError(t, err)
	assert.Equal(t, sum, last.Checksum)

	engine.Reset()
	assert.Nil(t, engine.Replay())
}

func TestEngineWithoutRecording(t *testing.T) {
	engine := NewEngine(Options{Logger: zaptest.NewLogger(t)})
	_, err := engine.StartMatch(MatchConfig{Players: []PlayerSetup{{Interest: food}, {Interest: music}}})
	require.NoError(t, err)
	require.NoError(t, engine.DrawCard())
	assert.Nil(t, engine.Replay())
}
