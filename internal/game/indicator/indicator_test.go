package indicator

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/influencer-game/influencer-server-go/internal/game/state"
)

func TestVisibleExpiresAfterTTL(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	events := []ScoreEvent{{Player: 0, Delta: 2, At: start}}

	got := Visible(events, start.Add(time.Second), DefaultTTL)
	require.Contains(t, got, state.PlayerID(0))
	assert.Equal(t, 2, got[0].Delta)
	assert.Equal(t, 2*time.Second, got[0].Remaining)

	assert.Empty(t, Visible(events, start.Add(DefaultTTL), DefaultTTL))
}

func TestVisibleLatestEventWins(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	events := []ScoreEvent{
		{Player: 1, Delta: -3, At: start.Add(time.Second)},
		{Player: 1, Delta: 4, At: start},
		{Player: 2, Delta: 0, At: start},
	}

	got := Visible(events, start.Add(2*time.Second), DefaultTTL)
	assert.Len(t, got, 1)
	assert.Equal(t, -3, got[1].Delta)
}

func TestBoardUsesClock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := NewBoard(clock, 0)

	b.Record(ScoreEvent{Player: 0, Delta: 5, At: clock.Now()})
	b.Record(ScoreEvent{Player: 1, Delta: 0, At: clock.Now()})
	assert.Len(t, b.Current(), 1)

	clock.Advance(2 * time.Second)
	assert.Equal(t, time.Second, b.Current()[0].Remaining)

	clock.Advance(time.Second)
	assert.Empty(t, b.Current())

	b.Record(ScoreEvent{Player: 0, Delta: 1, At: clock.Now()})
	b.Reset()
	assert.Empty(t, b.Current())
}
