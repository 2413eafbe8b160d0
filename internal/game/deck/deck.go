package deck

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/influencer-game/influencer-server-go/internal/game/catalog"
	"github.com/influencer-game/influencer-server-go/internal/game/state"
)

// ErrExhausted is returned when both the deck and the discard pile are empty.
var ErrExhausted = errors.New("deck and discard pile are both empty")

// Composition describes how many cards a deck build emits.
type Composition struct {
	// Content maps a card value to the number of copies per interest in play.
	Content map[int]int
	// Network maps an effect key to the number of copies in the deck.
	Network map[catalog.EffectKey]int
}

// StandardComposition is six 1s, three 2s and one 3 per interest, plus one of each
// network card when enabled.
func StandardComposition(networkCards bool) Composition {
	comp := Composition{
		Content: map[int]int{1: 6, 2: 3, 3: 1},
		Network: map[catalog.EffectKey]int{},
	}
	if networkCards {
		for _, def := range catalog.NetworkCards() {
			comp.Network[def.Effect] = 1
		}
	}
	return comp
}

// FocusComposition replaces the network cards with copies of a single effect.
func FocusComposition(effect catalog.EffectKey, copies int) Composition {
	comp := StandardComposition(false)
	comp.Network[effect] = copies
	return comp
}

// WithNetworkCards keeps the content distribution of c and switches the network cards
// on or off. Enabling keeps c's own network cards, or adds one of each when c has none.
func (c Composition) WithNetworkCards(enabled bool) Composition {
	out := StandardComposition(enabled)
	if len(c.Content) > 0 {
		out.Content = make(map[int]int, len(c.Content))
		for value, copies := range c.Content {
			out.Content[value] = copies
		}
	}
	if enabled && len(c.Network) > 0 {
		out.Network = make(map[catalog.EffectKey]int, len(c.Network))
		for effect, copies := range c.Network {
			out.Network[effect] = copies
		}
	}
	return out
}

// Validate rejects values outside 1..3, negative counts and unknown effects.
func (c Composition) Validate() error {
	for value, copies := range c.Content {
		if value < 1 || value > 3 {
			return fmt.Errorf("content value %d out of range 1..3", value)
		}
		if copies < 0 {
			return fmt.Errorf("negative copy count %d for value %d", copies, value)
		}
	}
	for effect, copies := range c.Network {
		if _, ok := catalog.LookupNetworkCard(effect); !ok {
			return fmt.Errorf("unknown network effect %q", effect)
		}
		if copies < 0 {
			return fmt.Errorf("negative copy count %d for effect %s", copies, effect)
		}
	}
	return nil
}

// Build emits the content cards for every distinct interest followed by the network
// cards. Card ids start at 1 and follow build order. The result is not shuffled.
func Build(interests []catalog.Interest, comp Composition) []state.Card {
	var cards []state.Card
	nextID := state.CardID(1)

	values := make([]int, 0, len(comp.Content))
	for v := range comp.Content {
		values = append(values, v)
	}
	sort.Ints(values)

	seen := make(map[catalog.Interest]bool)
	for _, interest := range interests {
		if seen[interest] {
			continue
		}
		seen[interest] = true
		for _, v := range values {
			for i := 0; i < comp.Content[v]; i++ {
				cards = append(cards, state.NewContentCard(nextID, interest, v))
				nextID++
			}
		}
	}

	for _, def := range catalog.NetworkCards() {
		for i := 0; i < comp.Network[def.Effect]; i++ {
			cards = append(cards, state.NewNetworkCard(nextID, def.Effect))
			nextID++
		}
	}
	return cards
}

// Shuffle returns a uniformly random permutation of cards. The input is untouched.
func Shuffle(r *rand.Rand, cards []state.Card) []state.Card {
	out := make([]state.Card, len(cards))
	copy(out, cards)
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// DealInitial deals perPlayer rounds of one card to each player in seat order.
func DealInitial(m *state.Match, perPlayer int) error {
	need := perPlayer * len(m.Players)
	if len(m.Deck) < need {
		return fmt.Errorf("deal %d cards from a deck of %d: %w", need, len(m.Deck), ErrExhausted)
	}
	for round := 0; round < perPlayer; round++ {
		for _, p := range m.Players {
			p.Hand = append(p.Hand, m.Deck[0])
			m.Deck = m.Deck[1:]
		}
	}
	return nil
}

// DrawOne takes the top card. An empty deck is first refilled by shuffling the
// discard pile into it. reshuffled reports whether that happened.
func DrawOne(r *rand.Rand, deck, discard []state.Card) (card state.Card, newDeck, newDiscard []state.Card, reshuffled bool, err error) {
	if len(deck) == 0 {
		if len(discard) == 0 {
			return state.Card{}, deck, discard, false, ErrExhausted
		}
		deck = Shuffle(r, discard)
		discard = nil
		reshuffled = true
	}
	return deck[0], deck[1:], discard, reshuffled, nil
}
