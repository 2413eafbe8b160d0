// Package indicator derives the transient "score delta" annotation shown next to a
// player after a position change. Annotations are a pure function of score events and
// the current time; nothing here feeds back into the match.
package indicator

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/influencer-game/influencer-server-go/internal/game/state"
)

// DefaultTTL is how long an annotation stays visible.
const DefaultTTL = 3 * time.Second

// ScoreEvent is one applied position change.
type ScoreEvent struct {
	Player state.PlayerID
	Delta  int
	At     time.Time
}

// Annotation is the visible delta for a player.
type Annotation struct {
	Player    state.PlayerID `json:"player"`
	Delta     int            `json:"delta"`
	Remaining time.Duration  `json:"remaining"`
}

// Visible returns the annotation for every player whose latest non-zero score event
// happened less than ttl before now. A later event replaces an earlier one.
func Visible(events []ScoreEvent, now time.Time, ttl time.Duration) map[state.PlayerID]Annotation {
	latest := make(map[state.PlayerID]ScoreEvent)
	for _, ev := range events {
		if ev.Delta == 0 {
			continue
		}
		if prev, ok := latest[ev.Player]; ok && prev.At.After(ev.At) {
			continue
		}
		latest[ev.Player] = ev
	}

	out := make(map[state.PlayerID]Annotation, len(latest))
	for id, ev := range latest {
		age := now.Sub(ev.At)
		if age < 0 || age >= ttl {
			continue
		}
		out[id] = Annotation{Player: id, Delta: ev.Delta, Remaining: ttl - age}
	}
	return out
}

// Board keeps the most recent score events for a renderer and evaluates Visible
// against its clock.
type Board struct {
	mu     sync.Mutex
	clock  clockwork.Clock
	ttl    time.Duration
	events map[state.PlayerID]ScoreEvent
}

// NewBoard creates a board. A nil clock means the real clock.
func NewBoard(clock clockwork.Clock, ttl time.Duration) *Board {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Board{
		clock:  clock,
		ttl:    ttl,
		events: make(map[state.PlayerID]ScoreEvent),
	}
}

// Record stores ev if it is newer than the player's current event.
func (b *Board) Record(ev ScoreEvent) {
	if ev.Delta == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if prev, ok := b.events[ev.Player]; ok && prev.At.After(ev.At) {
		return
	}
	b.events[ev.Player] = ev
}

// Reset forgets every event.
func (b *Board) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = make(map[state.PlayerID]ScoreEvent)
}

// Current returns the annotations visible now.
func (b *Board) Current() map[state.PlayerID]Annotation {
	b.mu.Lock()
	events := make([]ScoreEvent, 0, len(b.events))
	for _, ev := range b.events {
		events = append(events, ev)
	}
	b.mu.Unlock()
	return Visible(events, b.clock.Now(), b.ttl)
}
