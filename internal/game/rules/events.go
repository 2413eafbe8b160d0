package rules

import (
	"sort"
	"sync"
	"time"
)

// EventType indicates the category of a match event.
type EventType string

const (
	// Match lifecycle
	EventMatchStarted EventType = "MATCH_STARTED"
	EventTurnEnded    EventType = "TURN_ENDED"
	EventGameOver     EventType = "GAME_OVER"

	// Card movement
	EventCardDrawn        EventType = "CARD_DRAWN"
	EventDeckReshuffled   EventType = "DECK_RESHUFFLED"
	EventCardPublished    EventType = "CARD_PUBLISHED"
	EventCardDiscarded    EventType = "CARD_DISCARDED"
	EventCardStolen       EventType = "CARD_STOLEN"
	EventCardRevealed     EventType = "CARD_REVEALED"
	EventHandsRedealt     EventType = "HANDS_REDEALT"
	EventNetworkCardPlay  EventType = "NETWORK_CARD_PLAYED"
	EventSubInteraction   EventType = "SUB_INTERACTION_OPENED"
	EventSubInteractionOK EventType = "SUB_INTERACTION_RESOLVED"

	// Tokens and the follow graph
	EventTokenSelected EventType = "TOKEN_SELECTED"
	EventTokenPlaced   EventType = "TOKEN_PLACED"
	EventTokenReturned EventType = "TOKEN_RETURNED"
	EventTokenGranted  EventType = "TOKEN_GRANTED"
	EventFollowed      EventType = "FOLLOWED"
	EventUnfollowed    EventType = "UNFOLLOWED"
	EventBanned        EventType = "BANNED"

	// Score
	EventScoreChanged EventType = "SCORE_CHANGED"

	EventActionRejected EventType = "ACTION_REJECTED"
)

// Event represents something that happened during a match.
type Event struct {
	Type      EventType         `json:"type"`
	MatchID   string            `json:"match_id"`
	PlayerID  int               `json:"player_id"` // acting or affected seat, -1 when not applicable
	TargetID  int               `json:"target_id"` // target seat, -1 when not applicable
	CardID    int               `json:"card_id"`   // card involved, -1 when not applicable
	Amount    int               `json:"amount"`    // score delta, token count, etc.
	Data      string            `json:"data"`      // token type, effect key, reason code
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// NewEvent creates an event with every reference field unset.
func NewEvent(eventType EventType, matchID string, at time.Time) Event {
	return Event{
		Type:      eventType,
		MatchID:   matchID,
		PlayerID:  -1,
		TargetID:  -1,
		CardID:    -1,
		Timestamp: at,
		Metadata:  make(map[string]string),
	}
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

// TypedListener defines a callback that reacts to a specific event type.
type TypedListener struct {
	Handle    int
	EventType EventType
	Callback  func(Event)
}

// EventBus provides a synchronous publish/subscribe implementation with type filtering.
type EventBus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener
	typedListeners map[EventType][]TypedListener
	nextHandle     int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[EventType][]TypedListener),
	}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, callback func(Event)) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.typedListeners[eventType] = append(bus.typedListeners[eventType], TypedListener{
		Handle:    handle,
		EventType: eventType,
		Callback:  callback,
	})
	return handle
}

// Unsubscribe removes the listener identified by the provided handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
	for eventType, listeners := range bus.typedListeners {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].Handle == handle {
				bus.typedListeners[eventType] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to all registered listeners synchronously, in subscription order.
// Listeners run outside the bus lock and may subscribe or unsubscribe.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	handles := make([]int, 0, len(bus.listeners))
	for handle := range bus.listeners {
		handles = append(handles, handle)
	}
	sort.Ints(handles)
	callbacks := make([]func(Event), 0, len(handles)+len(bus.typedListeners[event.Type]))
	for _, handle := range handles {
		callbacks = append(callbacks, bus.listeners[handle])
	}
	for _, typed := range bus.typedListeners[event.Type] {
		callbacks = append(callbacks, typed.Callback)
	}
	bus.mu.RUnlock()

	for _, callback := range callbacks {
		callback(event)
	}
}

// PublishBatch publishes multiple events in order.
func (bus *EventBus) PublishBatch(events []Event) {
	for _, event := range events {
		bus.Publish(event)
	}
}
