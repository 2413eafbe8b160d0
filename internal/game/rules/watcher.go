package rules

import (
	"sync"
)

// WatcherScope defines how long a watcher keeps what it tracked.
type WatcherScope int

const (
	// WatcherScopeMatch tracks events for the whole match.
	WatcherScopeMatch WatcherScope = iota
	// WatcherScopeTurn tracks events until the current turn ends.
	WatcherScopeTurn
)

// String returns the string representation of the watcher scope.
func (ws WatcherScope) String() string {
	switch ws {
	case WatcherScopeMatch:
		return "MATCH"
	case WatcherScopeTurn:
		return "TURN"
	default:
		return "UNKNOWN"
	}
}

// Watcher observes match events and keeps a tally.
type Watcher interface {
	// Watch is called for every published event.
	Watch(event Event)

	// Reset clears everything the watcher tracked.
	Reset()

	// GetScope returns the scope of this watcher.
	GetScope() WatcherScope

	// GetKey returns a unique key for this watcher instance.
	GetKey() string
}

// BaseWatcher provides the scope and key of a watcher.
type BaseWatcher struct {
	scope WatcherScope
	key   string
}

// NewBaseWatcher creates a new base watcher with the specified scope and key.
func NewBaseWatcher(scope WatcherScope, key string) *BaseWatcher {
	return &BaseWatcher{
		scope: scope,
		key:   key,
	}
}

// GetScope returns the watcher's scope.
func (bw *BaseWatcher) GetScope() WatcherScope {
	return bw.scope
}

// GetKey returns the unique key for this watcher.
func (bw *BaseWatcher) GetKey() string {
	return bw.key
}

// WatcherRegistry dispatches events to watchers and resets them at the boundary of
// their scope: every watcher when a match starts, turn watchers after a turn ends.
type WatcherRegistry struct {
	mu       sync.Mutex
	watchers map[string]Watcher
	order    []string
}

// NewWatcherRegistry creates a new watcher registry.
func NewWatcherRegistry() *WatcherRegistry {
	return &WatcherRegistry{
		watchers: make(map[string]Watcher),
	}
}

// AddWatcher adds a watcher, replacing any watcher with the same key.
func (wr *WatcherRegistry) AddWatcher(watcher Watcher) {
	if watcher == nil {
		return
	}

	wr.mu.Lock()
	defer wr.mu.Unlock()

	key := watcher.GetKey()
	if _, ok := wr.watchers[key]; !ok {
		wr.order = append(wr.order, key)
	}
	wr.watchers[key] = watcher
}

// ResetWatchers resets every watcher.
func (wr *WatcherRegistry) ResetWatchers() {
	wr.mu.Lock()
	defer wr.mu.Unlock()
	for _, key := range wr.order {
		wr.watchers[key].Reset()
	}
}

// NotifyWatchers delivers event to every watcher in registration order. A match
// start clears all watchers before delivery; a turn end clears turn watchers after.
func (wr *WatcherRegistry) NotifyWatchers(event Event) {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	if event.Type == EventMatchStarted {
		for _, key := range wr.order {
			wr.watchers[key].Reset()
		}
	}
	for _, key := range wr.order {
		wr.watchers[key].Watch(event)
	}
	if event.Type == EventTurnEnded {
		for _, key := range wr.order {
			if w := wr.watchers[key]; w.GetScope() == WatcherScopeTurn {
				w.Reset()
			}
		}
	}
}

// Attach subscribes the registry to bus and returns the subscription handle.
func (wr *WatcherRegistry) Attach(bus *EventBus) int {
	return bus.Subscribe(wr.NotifyWatchers)
}
