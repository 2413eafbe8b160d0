package game

import (
	"errors"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/influencer-game/influencer-server-go/internal/game/catalog"
	"github.com/influencer-game/influencer-server-go/internal/game/rules"
	"github.com/influencer-game/influencer-server-go/internal/game/state"
)

// MatchHarness drives an Engine with a fixed seed and a fake clock and lets tests
// arrange the match directly.
type MatchHarness struct {
	t      *testing.T
	engine *Engine
	clock  *clockwork.FakeClock

	mu     sync.Mutex
	events []rules.Event
	nextID state.CardID
}

// NewMatchHarness starts a match with one player per interest and no network cards.
func NewMatchHarness(t *testing.T, interests ...catalog.Interest) *MatchHarness {
	t.Helper()
	clock := clockwork.NewFakeClock()
	engine := NewEngine(Options{
		Logger:     zaptest.NewLogger(t),
		Clock:      clock,
		Rand:       rand.New(rand.NewPCG(1, 2)),
		NewMatchID: func() string { return "test-match" },
	})
	h := &MatchHarness{t: t, engine: engine, clock: clock, nextID: 1000}
	engine.Events().Subscribe(func(ev rules.Event) {
		h.mu.Lock()
		h.events = append(h.events, ev)
		h.mu.Unlock()
	})

	cfg := MatchConfig{}
	for _, interest := range interests {
		cfg.Players = append(cfg.Players, PlayerSetup{Name: string(interest), Interest: interest})
	}
	_, err := engine.StartMatch(cfg)
	require.NoError(t, err)
	return h
}

// Match returns the live match. Use Arrange to change it.
func (h *MatchHarness) Match() *state.Match {
	h.engine.mu.Lock()
	defer h.engine.mu.Unlock()
	return h.engine.match
}

// Arrange mutates the live match and re-baselines the card count. Token grants must
// go through Match.Grant so the audit still holds.
func (h *MatchHarness) Arrange(fn func(m *state.Match)) {
	h.t.Helper()
	h.engine.mu.Lock()
	m := h.engine.match
	fn(m)
	m.TotalCards = m.CardCount()
	err := m.Audit()
	h.engine.mu.Unlock()
	require.NoError(h.t, err, "arranged match breaks an invariant")
}

// Content returns a fresh content card with an id no deck card uses.
func (h *MatchHarness) Content(interest catalog.Interest, value int) state.Card {
	h.nextID++
	return state.NewContentCard(h.nextID, interest, value)
}

// Network returns a fresh network card.
func (h *MatchHarness) Network(effect catalog.EffectKey) state.Card {
	h.nextID++
	return state.NewNetworkCard(h.nextID, effect)
}

// Checksum returns the digest of the live match.
func (h *MatchHarness) Checksum() string {
	h.t.Helper()
	sum, err := h.engine.Checksum()
	require.NoError(h.t, err)
	return sum
}

// View returns a snapshot of the live match.
func (h *MatchHarness) View() *View {
	h.t.Helper()
	v, err := h.engine.View()
	require.NoError(h.t, err)
	return v
}

// Events returns the published events of the given type.
func (h *MatchHarness) Events(t rules.EventType) []rules.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []rules.Event
	for _, ev := range h.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// Must fails the test on error and checks the invariants afterwards.
func (h *MatchHarness) Must(err error) {
	h.t.Helper()
	require.NoError(h.t, err)
	require.NoError(h.t, h.engine.Audit())
}

// Rejected asserts err is an ActionError with the reason and that the match did not
// change.
func (h *MatchHarness) Rejected(reason rules.Reason, before string, err error) {
	h.t.Helper()
	require.Error(h.t, err)
	require.True(h.t, errors.Is(err, ErrIllegalAction), "not an illegal action: %v", err)
	require.Equal(h.t, reason, ReasonOf(err))
	require.Equal(h.t, before, h.Checksum(), "rejected action changed the match")
}

// PlayFirst draws and plays the first hand card of the acting player.
func (h *MatchHarness) PlayFirst() {
	h.t.Helper()
	h.Must(h.engine.DrawCard())
	h.Must(h.engine.PlayCard(0))
}

// TopDeck puts cards on top of the deck in the given order.
func (h *MatchHarness) TopDeck(cards ...state.Card) {
	h.Arrange(func(m *state.Match) {
		m.Deck = append(append([]state.Card(nil), cards...), m.Deck...)
	})
}

// SetHand replaces a player's hand. The old hand goes to the discard pile.
func (h *MatchHarness) SetHand(id state.PlayerID, cards ...state.Card) {
	h.Arrange(func(m *state.Match) {
		p, _ := m.Player(id)
		m.Discard = append(m.Discard, p.Hand...)
		p.Hand = append([]state.Card(nil), cards...)
	})
}
