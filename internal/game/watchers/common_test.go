package watchers

import (
	"testing"
	"time"

	"github.com/influencer-game/influencer-server-go/internal/game/catalog"
	"github.com/influencer-game/influencer-server-go/internal/game/rules"
	"github.com/influencer-game/influencer-server-go/internal/game/tokens"
)

func event(t rules.EventType, player int, data string) rules.Event {
	ev := rules.NewEvent(t, "match", time.Time{})
	ev.PlayerID = player
	ev.Data = data
	return ev
}

func TestCardsDrawnWatcher(t *testing.T) {
	watcher := NewCardsDrawnWatcher()
	if watcher.GetCount(1) != 0 {
		t.Fatal("watcher should start empty")
	}

	watcher.Watch(event(rules.EventCardDrawn, 1, ""))
	watcher.Watch(event(rules.EventCardDrawn, 1, ""))
	watcher.Watch(event(rules.EventCardDrawn, -1, ""))
	watcher.Watch(event(rules.EventCardPublished, 1, ""))

	if got := watcher.GetCount(1); got != 2 {
		t.Fatalf("expected 2 cards drawn, got %d", got)
	}

	watcher.Reset()
	if watcher.GetCount(1) != 0 {
		t.Fatal("watcher should be empty after reset")
	}
}

func TestCardsPublishedWatcher(t *testing.T) {
	watcher := NewCardsPublishedWatcher()
	watcher.Watch(event(rules.EventCardPublished, 0, string(catalog.InterestFood)))
	watcher.Watch(event(rules.EventCardPublished, 2, string(catalog.InterestFood)))
	watcher.Watch(event(rules.EventCardPublished, 2, string(catalog.InterestMusic)))

	if got := watcher.GetCount(2); got != 2 {
		t.Fatalf("expected 2 cards published by seat 2, got %d", got)
	}
	if got := watcher.GetInterestCount(catalog.InterestFood); got != 2 {
		t.Fatalf("expected 2 food cards, got %d", got)
	}
}

func TestNetworkCardsWatcher(t *testing.T) {
	watcher := NewNetworkCardsWatcher()
	watcher.Watch(event(rules.EventNetworkCardPlay, 0, string(catalog.EffectSteal)))
	watcher.Watch(event(rules.EventNetworkCardPlay, 1, string(catalog.EffectSteal)))

	if got := watcher.GetCount(0); got != 1 {
		t.Fatalf("expected 1 network card, got %d", got)
	}
	if got := watcher.GetEffectCount(catalog.EffectSteal); got != 2 {
		t.Fatalf("expected 2 steals, got %d", got)
	}
}

func TestTokensPlacedWatcher(t *testing.T) {
	watcher := NewTokensPlacedWatcher()
	watcher.Watch(event(rules.EventTokenPlaced, 0, string(tokens.Like)))
	watcher.Watch(event(rules.EventTokenPlaced, 0, string(tokens.Dislike)))
	watcher.Watch(event(rules.EventTokenPlaced, 0, string(tokens.Like)))

	if got := watcher.GetCount(0, tokens.Like); got != 2 {
		t.Fatalf("expected 2 likes, got %d", got)
	}
	if got := watcher.GetTotal(0); got != 3 {
		t.Fatalf("expected 3 tokens, got %d", got)
	}
	if got := watcher.GetTotal(1); got != 0 {
		t.Fatalf("expected no tokens for seat 1, got %d", got)
	}
}

func TestMatchStatsSummary(t *testing.T) {
	stats := NewMatchStats()
	bus := rules.NewEventBus()
	stats.Attach(bus)

	bus.Publish(event(rules.EventMatchStarted, -1, ""))
	bus.Publish(event(rules.EventCardDrawn, 0, ""))
	bus.Publish(event(rules.EventCardPublished, 0, string(catalog.InterestFood)))
	bus.Publish(event(rules.EventTokenPlaced, 1, string(tokens.Like)))
	score := event(rules.EventScoreChanged, 0, "publish")
	score.Amount = 2
	bus.Publish(score)

	summary := stats.Summary(2)
	if len(summary) != 2 {
		t.Fatalf("expected 2 players, got %d", len(summary))
	}
	if s := summary[0]; s.CardsDrawn != 1 || s.CardsPublished != 1 || s.TurnScoreDelta != 2 {
		t.Fatalf("unexpected seat 0 stats: %+v", s)
	}
	if s := summary[1]; s.TokensPlaced[tokens.Like] != 1 {
		t.Fatalf("unexpected seat 1 stats: %+v", s)
	}

	bus.Publish(event(rules.EventTurnEnded, 0, ""))
	summary = stats.Summary(2)
	if summary[0].TurnScoreDelta != 0 {
		t.Fatal("turn delta should clear when the turn ends")
	}
	if summary[0].CardsPublished != 1 {
		t.Fatal("match tallies should survive the end of a turn")
	}

	bus.Publish(event(rules.EventMatchStarted, -1, ""))
	if summary = stats.Summary(2); summary[0].CardsDrawn != 0 {
		t.Fatal("a new match should clear the tallies")
	}
}
