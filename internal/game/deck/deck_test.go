package deck

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/influencer-game/influencer-server-go/internal/game/catalog"
	"github.com/influencer-game/influencer-server-go/internal/game/rules"
	"github.com/influencer-game/influencer-server-go/internal/game/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(7, 11))
}

func TestBuildStandardDeck(t *testing.T) {
	interests := []catalog.Interest{catalog.InterestFood, catalog.InterestMusic, catalog.InterestFood}
	cards := Build(interests, StandardComposition(true))

	require.Len(t, cards, 2*10+10)

	values := map[catalog.Interest]map[int]int{}
	effects := map[catalog.EffectKey]int{}
	ids := map[state.CardID]bool{}
	for _, c := range cards {
		assert.False(t, ids[c.ID], "duplicate id %d", c.ID)
		ids[c.ID] = true
		if c.IsContent() {
			if values[c.Interest] == nil {
				values[c.Interest] = map[int]int{}
			}
			values[c.Interest][c.Value]++
		} else {
			effects[c.Effect]++
		}
	}
	for _, interest := range []catalog.Interest{catalog.InterestFood, catalog.InterestMusic} {
		assert.Equal(t, map[int]int{1: 6, 2: 3, 3: 1}, values[interest])
	}
	assert.Len(t, effects, 10)
	for _, n := range effects {
		assert.Equal(t, 1, n)
	}
}

func TestBuildWithoutNetworkCards(t *testing.T) {
	cards := Build([]catalog.Interest{catalog.InterestGaming}, StandardComposition(false))
	require.Len(t, cards, 10)
	for _, c := range cards {
		assert.True(t, c.IsContent())
	}
}

func TestFocusComposition(t *testing.T) {
	comp := FocusComposition(catalog.EffectChallenge, 10)
	require.NoError(t, comp.Validate())

	cards := Build([]catalog.Interest{catalog.InterestFood}, comp)
	network := 0
	for _, c := range cards {
		if c.IsNetwork() {
			network++
			assert.Equal(t, catalog.EffectChallenge, c.Effect)
		}
	}
	assert.Equal(t, 10, network)
}

func TestWithNetworkCards(t *testing.T) {
	custom := Composition{Content: map[int]int{1: 2, 3: 1}, Network: map[catalog.EffectKey]int{}}

	on := custom.WithNetworkCards(true)
	assert.Equal(t, map[int]int{1: 2, 3: 1}, on.Content)
	assert.Len(t, on.Network, len(catalog.NetworkCards()))

	focus := FocusComposition(catalog.EffectBot, 4)
	assert.Equal(t, map[catalog.EffectKey]int{catalog.EffectBot: 4}, focus.WithNetworkCards(true).Network)

	off := StandardComposition(true).WithNetworkCards(false)
	assert.Empty(t, off.Network)
	assert.Equal(t, map[int]int{1: 6, 2: 3, 3: 1}, off.Content)

	copied := custom.WithNetworkCards(false)
	copied.Content[1] = 0
	assert.Equal(t, 2, custom.Content[1], "the result shares no maps")
}

func TestCompositionValidate(t *testing.T) {
	assert.Error(t, Composition{Content: map[int]int{4: 1}}.Validate())
	assert.Error(t, Composition{Content: map[int]int{1: -1}}.Validate())
	assert.Error(t, Composition{Network: map[catalog.EffectKey]int{"meteor": 1}}.Validate())
}

func TestShuffleIsPermutation(t *testing.T) {
	cards := Build([]catalog.Interest{catalog.InterestFood, catalog.InterestMusic}, StandardComposition(true))
	shuffled := Shuffle(testRand(), cards)

	require.Len(t, shuffled, len(cards))
	assert.ElementsMatch(t, cards, shuffled)
	assert.NotEqual(t, cards, shuffled)
	assert.Equal(t, state.CardID(1), cards[0].ID, "input untouched")
}

func TestDealInitialRoundRobin(t *testing.T) {
	cards := Build([]catalog.Interest{catalog.InterestFood, catalog.InterestMusic}, StandardComposition(false))
	m := &state.Match{
		Turn:    rules.NewTurnManager(2),
		Players: []*state.Player{{ID: 0}, {ID: 1}},
		Deck:    cards,
	}

	require.NoError(t, DealInitial(m, 3))

	assert.Equal(t, []state.CardID{1, 3, 5}, handIDs(m.Players[0]))
	assert.Equal(t, []state.CardID{2, 4, 6}, handIDs(m.Players[1]))
	assert.Len(t, m.Deck, 20-6)
}

func TestDealInitialShortDeck(t *testing.T) {
	m := &state.Match{
		Players: []*state.Player{{ID: 0}, {ID: 1}},
		Deck:    Build([]catalog.Interest{catalog.InterestFood}, Composition{Content: map[int]int{1: 2}}),
	}
	err := DealInitial(m, 3)
	assert.True(t, errors.Is(err, ErrExhausted))
}

func TestDrawOneReshufflesDiscard(t *testing.T) {
	discard := Build([]catalog.Interest{catalog.InterestFood}, Composition{Content: map[int]int{1: 5}})

	card, deck, newDiscard, reshuffled, err := DrawOne(testRand(), nil, discard)
	require.NoError(t, err)
	assert.True(t, reshuffled)
	assert.Empty(t, newDiscard)
	assert.Len(t, deck, 4)
	assert.True(t, card.IsContent())
}

func TestDrawOneTakesTop(t *testing.T) {
	cards := Build([]catalog.Interest{catalog.InterestFood}, StandardComposition(false))

	card, deck, _, reshuffled, err := DrawOne(testRand(), cards, nil)
	require.NoError(t, err)
	assert.False(t, reshuffled)
	assert.Equal(t, cards[0].ID, card.ID)
	assert.Len(t, deck, len(cards)-1)
}

func TestDrawOneExhausted(t *testing.T) {
	_, _, _, _, err := DrawOne(testRand(), nil, nil)
	assert.True(t, errors.Is(err, ErrExhausted))
}

func handIDs(p *state.Player) []state.CardID {
	ids := make([]state.CardID, len(p.Hand))
	for i, c := range p.Hand {
		ids[i] = c.ID
	}
	return ids
}
