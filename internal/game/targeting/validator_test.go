package targeting

import (
	"errors"
	"testing"

	"github.com/influencer-game/influencer-server-go/internal/game/catalog"
	"github.com/influencer-game/influencer-server-go/internal/game/rules"
	"github.com/influencer-game/influencer-server-go/internal/game/state"
	"github.com/influencer-game/influencer-server-go/internal/game/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTargetMatch seats one player per interest, grants one of every token type and
// puts a value-1 card of the owner's interest on every wall.
func newTargetMatch(t *testing.T, interests ...catalog.Interest) *state.Match {
	t.Helper()
	m := &state.Match{
		ID:     "targeting",
		Turn:   rules.NewTurnManager(len(interests)),
		Limits: state.Limits{TargetScore: 40, WallLimit: 3},
	}
	for i, interest := range interests {
		id := state.PlayerID(i)
		m.Players = append(m.Players, &state.Player{
			ID:       id,
			Interest: interest,
			Pool:     tokens.NewPool(nil),
			Granted:  tokens.NewPool(nil),
			Wall:     []state.Card{state.NewContentCard(state.CardID(100+i), interest, 1)},
		})
		for _, tt := range tokens.AllTypes() {
			m.Grant(id, tt, 1)
		}
	}
	m.TotalCards = len(interests)
	return m
}

func TestValidateCardTarget(t *testing.T) {
	m := newTargetMatch(t, catalog.InterestFood, catalog.InterestMusic, catalog.InterestGaming)
	tv := NewTargetValidator(m)

	tests := []struct {
		name   string
		token  tokens.Type
		target state.PlayerID
		idx    int
		valid  bool
	}{
		{"like own wall", tokens.Like, 0, 0, true},
		{"dislike other wall", tokens.Dislike, 1, 0, true},
		{"report own wall", tokens.Report, 0, 0, false},
		{"report other wall", tokens.Report, 2, 0, true},
		{"share own wall", tokens.Share, 0, 0, false},
		{"share inactive interest", tokens.Share, 1, 0, false},
		{"follow on card", tokens.Follow, 1, 0, false},
		{"ban on card", tokens.Ban, 1, 0, false},
		{"index out of range", tokens.Like, 1, 3, false},
		{"unknown player", tokens.Like, 9, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tv.IsCardValidTarget(tt.token, 0, tt.target, tt.idx))
		})
	}
}

func TestShareFollowsActiveInterests(t *testing.T) {
	m := newTargetMatch(t, catalog.InterestFood, catalog.InterestMusic, catalog.InterestGaming)
	tv := NewTargetValidator(m)

	// Player 1 shows a food card: matches player 0's own interest.
	m.Players[1].Wall = append(m.Players[1].Wall, state.NewContentCard(200, catalog.InterestFood, 2))
	assert.True(t, tv.IsCardValidTarget(tokens.Share, 0, 1, 1))
	assert.False(t, tv.IsCardValidTarget(tokens.Share, 0, 2, 0))

	m.Follow(0, 2)
	assert.True(t, tv.IsCardValidTarget(tokens.Share, 0, 2, 0), "followed interest becomes active")
}

func TestValidateProfileTarget(t *testing.T) {
	m := newTargetMatch(t, catalog.InterestFood, catalog.InterestMusic, catalog.InterestGaming)
	tv := NewTargetValidator(m)

	assert.False(t, tv.IsProfileValidTarget(tokens.Follow, 0, 0), "never self")
	assert.False(t, tv.IsProfileValidTarget(tokens.Ban, 0, 0), "never self")
	assert.False(t, tv.IsProfileValidTarget(tokens.Like, 0, 1), "card token")
	assert.True(t, tv.IsProfileValidTarget(tokens.Follow, 0, 1))

	m.Follow(0, 1)
	assert.False(t, tv.IsProfileValidTarget(tokens.Follow, 0, 1), "duplicate follow")
	assert.True(t, tv.IsProfileValidTarget(tokens.Follow, 0, 2), "switching target")

	m.Dump = append(m.Dump, tokens.DumpEntry{Type: tokens.Ban, Owner: 2, Against: 1})
	assert.False(t, tv.IsProfileValidTarget(tokens.Ban, 0, 1), "already banned")
	assert.True(t, tv.IsProfileValidTarget(tokens.Ban, 0, 2))

	err := tv.ValidateProfileTarget(tokens.Ban, 0, 1)
	assert.True(t, errors.Is(err, ErrInvalidTarget))
}

func TestPlaceOnCardTakesFromPool(t *testing.T) {
	m := newTargetMatch(t, catalog.InterestFood, catalog.InterestMusic)

	require.NoError(t, PlaceOnCard(m, tokens.Dislike, 0, 1, 0))
	assert.Equal(t, 0, m.Players[0].Pool.Count(tokens.Dislike))
	assert.Equal(t, []tokens.Placed{{Type: tokens.Dislike, Owner: 0}}, m.Players[1].Wall[0].Tokens)

	err := PlaceOnCard(m, tokens.Dislike, 0, 1, 0)
	assert.True(t, errors.Is(err, tokens.ErrInsufficient))
	require.NoError(t, m.Audit())
}

func TestFollowReplacesExistingLink(t *testing.T) {
	m := newTargetMatch(t, catalog.InterestFood, catalog.InterestMusic, catalog.InterestGaming)

	res, err := Follow(m, 0, 1)
	require.NoError(t, err)
	assert.False(t, res.Replaced)
	assert.Equal(t, 0, m.Players[0].Pool.Count(tokens.Follow))

	m.Grant(0, tokens.Follow, 1)
	res, err = Follow(m, 0, 2)
	require.NoError(t, err)
	assert.True(t, res.Replaced)
	assert.Equal(t, state.PlayerID(1), res.Unfollowed)

	assert.Equal(t, []state.PlayerID{2}, m.Players[0].Following)
	assert.Empty(t, m.Players[1].FollowedBy)
	assert.Equal(t, 1, m.Players[0].Pool.Count(tokens.Follow), "old follow token refunded")
	require.NoError(t, m.Audit())
}

func TestBanSideEffects(t *testing.T) {
	m := newTargetMatch(t, catalog.InterestFood, catalog.InterestMusic, catalog.InterestGaming)

	// Player 1 places a like on player 0 and follows player 2.
	require.NoError(t, PlaceOnCard(m, tokens.Like, 1, 0, 0))
	_, err := Follow(m, 1, 2)
	require.NoError(t, err)
	// Player 2 follows player 1 and places a dislike on player 1.
	_, err = Follow(m, 2, 1)
	require.NoError(t, err)
	require.NoError(t, PlaceOnCard(m, tokens.Dislike, 2, 1, 0))

	res, err := Ban(m, 0, 1)
	require.NoError(t, err)

	assert.Empty(t, m.Players[0].Wall[0].Tokens, "banned player's like dumped")
	assert.Equal(t, []tokens.Placed{{Type: tokens.Dislike, Owner: 2}}, m.Players[1].Wall[0].Tokens)
	assert.Empty(t, m.Players[1].Following)
	assert.Empty(t, m.Players[1].FollowedBy)
	assert.Empty(t, m.Players[2].Following)
	assert.Equal(t, 1, m.Players[2].Pool.Count(tokens.Follow), "follower refunded")
	assert.Equal(t, []state.PlayerID{2}, res.Unfollowed)

	assert.ElementsMatch(t, []tokens.DumpEntry{
		{Type: tokens.Like, Owner: 1, Against: tokens.NoPlayer},
		{Type: tokens.Follow, Owner: 1, Against: tokens.NoPlayer},
		{Type: tokens.Ban, Owner: 0, Against: 1},
	}, m.Dump)
	assert.True(t, m.BannedInDump(1))
	require.NoError(t, m.Audit())

	_, err = Ban(m, 2, 1)
	assert.True(t, errors.Is(err, ErrInvalidTarget), "double ban")
}
