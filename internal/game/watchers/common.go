// Package watchers tallies match activity from the engine events.
package watchers

import (
	"sync"

	"github.com/influencer-game/influencer-server-go/internal/game/catalog"
	"github.com/influencer-game/influencer-server-go/internal/game/rules"
	"github.com/influencer-game/influencer-server-go/internal/game/tokens"
)

// Watcher keys.
const (
	KeyCardsDrawn     = "CardsDrawnWatcher"
	KeyCardsPublished = "CardsPublishedWatcher"
	KeyNetworkCards   = "NetworkCardsWatcher"
	KeyTokensPlaced   = "TokensPlacedWatcher"
	KeyTurnScore      = "TurnScoreWatcher"
)

// CardsDrawnWatcher counts the cards each player drew.
type CardsDrawnWatcher struct {
	*rules.BaseWatcher
	cardsDrawn map[tokens.PlayerID]int
}

// NewCardsDrawnWatcher creates a new cards drawn watcher.
func NewCardsDrawnWatcher() *CardsDrawnWatcher {
	return &CardsDrawnWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeMatch, KeyCardsDrawn),
		cardsDrawn:  make(map[tokens.PlayerID]int),
	}
}

// Watch implements the Watcher interface.
func (w *CardsDrawnWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventCardDrawn || event.PlayerID < 0 {
		return
	}
	w.cardsDrawn[tokens.PlayerID(event.PlayerID)]++
}

// Reset clears the watcher's state.
func (w *CardsDrawnWatcher) Reset() {
	w.cardsDrawn = make(map[tokens.PlayerID]int)
}

// GetCount returns the number of cards drawn by a player.
func (w *CardsDrawnWatcher) GetCount(id tokens.PlayerID) int {
	return w.cardsDrawn[id]
}

// CardsPublishedWatcher counts the content cards that reached each wall, including
// cards published by the bot.
type CardsPublishedWatcher struct {
	*rules.BaseWatcher
	published  map[tokens.PlayerID]int
	byInterest map[catalog.Interest]int
}

// NewCardsPublishedWatcher creates a new cards published watcher.
func NewCardsPublishedWatcher() *CardsPublishedWatcher {
	return &CardsPublishedWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeMatch, KeyCardsPublished),
		published:   make(map[tokens.PlayerID]int),
		byInterest:  make(map[catalog.Interest]int),
	}
}

// Watch implements the Watcher interface.
func (w *CardsPublishedWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventCardPublished || event.PlayerID < 0 {
		return
	}
	w.published[tokens.PlayerID(event.PlayerID)]++
	w.byInterest[catalog.Interest(event.Data)]++
}

// Reset clears the watcher's state.
func (w *CardsPublishedWatcher) Reset() {
	w.published = make(map[tokens.PlayerID]int)
	w.byInterest = make(map[catalog.Interest]int)
}

// GetCount returns the number of cards published by a player.
func (w *CardsPublishedWatcher) GetCount(id tokens.PlayerID) int {
	return w.published[id]
}

// GetInterestCount returns the number of published cards of an interest.
func (w *CardsPublishedWatcher) GetInterestCount(interest catalog.Interest) int {
	return w.byInterest[interest]
}

// NetworkCardsWatcher counts the network cards each player played, per effect.
type NetworkCardsWatcher struct {
	*rules.BaseWatcher
	played   map[tokens.PlayerID]int
	byEffect map[catalog.EffectKey]int
}

// NewNetworkCardsWatcher creates a new network cards watcher.
func NewNetworkCardsWatcher() *NetworkCardsWatcher {
	return &NetworkCardsWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeMatch, KeyNetworkCards),
		played:      make(map[tokens.PlayerID]int),
		byEffect:    make(map[catalog.EffectKey]int),
	}
}

// Watch implements the Watcher interface.
func (w *NetworkCardsWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventNetworkCardPlay || event.PlayerID < 0 {
		return
	}
	w.played[tokens.PlayerID(event.PlayerID)]++
	w.byEffect[catalog.EffectKey(event.Data)]++
}

// Reset clears the watcher's state.
func (w *NetworkCardsWatcher) Reset() {
	w.played = make(map[tokens.PlayerID]int)
	w.byEffect = make(map[catalog.EffectKey]int)
}

// GetCount returns the number of network cards played by a player.
func (w *NetworkCardsWatcher) GetCount(id tokens.PlayerID) int {
	return w.played[id]
}

// GetEffectCount returns how often an effect was played.
func (w *NetworkCardsWatcher) GetEffectCount(effect catalog.EffectKey) int {
	return w.byEffect[effect]
}

// TokensPlacedWatcher counts the tokens each player placed, per token type.
type TokensPlacedWatcher struct {
	*rules.BaseWatcher
	placed map[tokens.PlayerID]map[tokens.Type]int
}

// NewTokensPlacedWatcher creates a new tokens placed watcher.
func NewTokensPlacedWatcher() *TokensPlacedWatcher {
	return &TokensPlacedWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeMatch, KeyTokensPlaced),
		placed:      make(map[tokens.PlayerID]map[tokens.Type]int),
	}
}

// Watch implements the Watcher interface.
func (w *TokensPlacedWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventTokenPlaced || event.PlayerID < 0 {
		return
	}
	id := tokens.PlayerID(event.PlayerID)
	if w.placed[id] == nil {
		w.placed[id] = make(map[tokens.Type]int)
	}
	w.placed[id][tokens.Type(event.Data)]++
}

// Reset clears the watcher's state.
func (w *TokensPlacedWatcher) Reset() {
	w.placed = make(map[tokens.PlayerID]map[tokens.Type]int)
}

// GetCount returns the number of tokens of type t placed by a player.
func (w *TokensPlacedWatcher) GetCount(id tokens.PlayerID, t tokens.Type) int {
	return w.placed[id][t]
}

// GetTotal returns the number of tokens placed by a player.
func (w *TokensPlacedWatcher) GetTotal(id tokens.PlayerID) int {
	total := 0
	for _, n := range w.placed[id] {
		total += n
	}
	return total
}

// TurnScoreWatcher sums the score changes of the turn in progress per player.
type TurnScoreWatcher struct {
	*rules.BaseWatcher
	delta map[tokens.PlayerID]int
}

// NewTurnScoreWatcher creates a new turn score watcher.
func NewTurnScoreWatcher() *TurnScoreWatcher {
	return &TurnScoreWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeTurn, KeyTurnScore),
		delta:       make(map[tokens.PlayerID]int),
	}
}

// Watch implements the Watcher interface.
func (w *TurnScoreWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventScoreChanged || event.PlayerID < 0 {
		return
	}
	w.delta[tokens.PlayerID(event.PlayerID)] += event.Amount
}

// Reset clears the watcher's state.
func (w *TurnScoreWatcher) Reset() {
	w.delta = make(map[tokens.PlayerID]int)
}

// GetDelta returns the net score change of a player during the current turn.
func (w *TurnScoreWatcher) GetDelta(id tokens.PlayerID) int {
	return w.delta[id]
}

// PlayerStats is the activity summary of one player.
type PlayerStats struct {
	CardsDrawn       int                 `json:"cards_drawn"`
	CardsPublished   int                 `json:"cards_published"`
	NetworkCardsPlay int                 `json:"network_cards_played"`
	TokensPlaced     map[tokens.Type]int `json:"tokens_placed,omitempty"`
	TurnScoreDelta   int                 `json:"turn_score_delta"`
}

// MatchStats owns the standard watchers of a match. It is safe for concurrent use.
type MatchStats struct {
	mu        sync.Mutex
	registry  *rules.WatcherRegistry
	drawn     *CardsDrawnWatcher
	published *CardsPublishedWatcher
	network   *NetworkCardsWatcher
	placed    *TokensPlacedWatcher
	turn      *TurnScoreWatcher
}

// NewMatchStats creates the standard watchers in a fresh registry.
func NewMatchStats() *MatchStats {
	s := &MatchStats{
		registry:  rules.NewWatcherRegistry(),
		drawn:     NewCardsDrawnWatcher(),
		published: NewCardsPublishedWatcher(),
		network:   NewNetworkCardsWatcher(),
		placed:    NewTokensPlacedWatcher(),
		turn:      NewTurnScoreWatcher(),
	}
	for _, w := range []rules.Watcher{s.drawn, s.published, s.network, s.placed, s.turn} {
		s.registry.AddWatcher(w)
	}
	return s
}

// Watch feeds one event to the watchers.
func (s *MatchStats) Watch(event rules.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry.NotifyWatchers(event)
}

// Attach subscribes the stats to bus and returns the subscription handle.
func (s *MatchStats) Attach(bus *rules.EventBus) int {
	return bus.Subscribe(s.Watch)
}

// Reset clears every watcher.
func (s *MatchStats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry.ResetWatchers()
}

// Summary returns the stats of seats 0..players-1.
func (s *MatchStats) Summary(players int) map[tokens.PlayerID]PlayerStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[tokens.PlayerID]PlayerStats, players)
	for i := 0; i < players; i++ {
		id := tokens.PlayerID(i)
		ps := PlayerStats{
			CardsDrawn:       s.drawn.GetCount(id),
			CardsPublished:   s.published.GetCount(id),
			NetworkCardsPlay: s.network.GetCount(id),
			TurnScoreDelta:   s.turn.GetDelta(id),
		}
		if placed := s.placed.placed[id]; len(placed) > 0 {
			ps.TokensPlaced = make(map[tokens.Type]int, len(placed))
			for t, n := range placed {
				ps.TokensPlaced[t] = n
			}
		}
		out[id] = ps
	}
	return out
}
