package game

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/influencer-game/influencer-server-go/internal/game/catalog"
	"github.com/influencer-game/influencer-server-go/internal/game/deck"
	"github.com/influencer-game/influencer-server-go/internal/game/rules"
	"github.com/influencer-game/influencer-server-go/internal/game/scoring"
	"github.com/influencer-game/influencer-server-go/internal/game/state"
	"github.com/influencer-game/influencer-server-go/internal/game/tokens"
)

// RulesConfig holds the rule constants of a match.
type RulesConfig struct {
	TargetScore             int
	WallLimit               int
	HandSize                int
	MinPlayers              int
	MaxPlayers              int
	ProfileTokensMinPlayers int
}

// DefaultRules returns the standard rule constants.
func DefaultRules() RulesConfig {
	return RulesConfig{
		TargetScore:             40,
		WallLimit:               3,
		HandSize:                3,
		MinPlayers:              2,
		MaxPlayers:              6,
		ProfileTokensMinPlayers: 3,
	}
}

// Options configures an Engine. Zero values select defaults.
type Options struct {
	Logger     *zap.Logger
	Clock      clockwork.Clock
	Rand       *rand.Rand
	Rules      RulesConfig
	NewMatchID func() string
	// RecordReplay keeps a frame per accepted action, available from Replay.
	RecordReplay bool
}

// PlayerSetup is one seat of a new match.
type PlayerSetup struct {
	Name     string           `json:"name"`
	Interest catalog.Interest `json:"interest"`
}

// MatchConfig is the setup of a new match.
type MatchConfig struct {
	Players      []PlayerSetup `json:"players"`
	NetworkCards bool          `json:"network_cards"`
	// Composition overrides the deck built from NetworkCards when set.
	Composition *deck.Composition `json:"-"`
}

// Engine owns a single match and serializes every operation on it.
type Engine struct {
	logger *zap.Logger
	clock  clockwork.Clock
	rng    *rand.Rand
	cfg    RulesConfig
	newID  func() string
	bus    *rules.EventBus
	record bool

	mu        sync.Mutex
	match     *state.Match
	lastScore *scoring.Breakdown
	replay    *Replay
}

// NewEngine creates an engine with no match in progress.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		logger: opts.Logger,
		clock:  opts.Clock,
		rng:    opts.Rand,
		cfg:    opts.Rules,
		newID:  opts.NewMatchID,
		bus:    rules.NewEventBus(),
		record: opts.RecordReplay,
	}
	if e.clock == nil {
		e.clock = clockwork.NewRealClock()
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if e.cfg == (RulesConfig{}) {
		e.cfg = DefaultRules()
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	return e
}

// Events returns the bus every accepted and rejected action is published on.
// Listeners run after the engine lock is released and may call back into the engine.
func (e *Engine) Events() *rules.EventBus {
	return e.bus
}

// Rules returns the rule constants in effect.
func (e *Engine) Rules() RulesConfig {
	return e.cfg
}

// StartMatch validates the setup and replaces any match in progress.
func (e *Engine) StartMatch(cfg MatchConfig) (*View, error) {
	players, err := e.validateSetup(cfg)
	if err != nil {
		if e.logger != nil {
			e.logger.Info("match setup rejected", zap.Error(err))
		}
		return nil, err
	}
	cfg.Players = players

	comp := deck.StandardComposition(cfg.NetworkCards)
	if cfg.Composition != nil {
		comp = *cfg.Composition
	}
	interests := make([]catalog.Interest, len(cfg.Players))
	for i, p := range cfg.Players {
		interests[i] = p.Interest
	}

	e.mu.Lock()
	m := &state.Match{
		ID:     e.newID(),
		Turn:   rules.NewTurnManager(len(cfg.Players)),
		Limits: state.Limits{TargetScore: e.cfg.TargetScore, WallLimit: e.cfg.WallLimit},
		Flags:  state.TurnFlags{MustDraw: true},
	}
	m.Deck = deck.Shuffle(e.rng, deck.Build(interests, comp))
	m.TotalCards = len(m.Deck)

	for i, setup := range cfg.Players {
		name := setup.Name
		if name == "" {
			name = fmt.Sprintf("Player %d", i+1)
		}
		id := state.PlayerID(i)
		m.Players = append(m.Players, &state.Player{
			ID:       id,
			Name:     name,
			Interest: setup.Interest,
			Pool:     tokens.NewPool(nil),
			Granted:  tokens.NewPool(nil),
		})
		for _, t := range []tokens.Type{tokens.Like, tokens.Dislike, tokens.Share, tokens.Report} {
			m.Grant(id, t, 1)
		}
		if len(cfg.Players) >= e.cfg.ProfileTokensMinPlayers {
			m.Grant(id, tokens.Follow, 1)
			m.Grant(id, tokens.Ban, 1)
		}
	}

	if err := deck.DealInitial(m, e.cfg.HandSize); err != nil {
		e.mu.Unlock()
		return nil, &ConfigurationError{Field: "deck", Message: err.Error()}
	}

	e.match = m
	e.lastScore = nil
	view := buildView(m, nil)
	now := e.clock.Now()
	e.replay = nil
	if e.record {
		e.replay = NewReplay(m.ID)
		e.recordFrame(ActionStartMatch, m.Turn.CurrentPlayer(), m, now)
	}
	e.mu.Unlock()

	ev := rules.NewEvent(rules.EventMatchStarted, m.ID, now)
	ev.Amount = len(cfg.Players)
	ev.Metadata["deck_size"] = strconv.Itoa(m.TotalCards)
	e.bus.Publish(ev)

	if e.logger != nil {
		e.logger.Info("match started",
			zap.String("match_id", m.ID),
			zap.Int("players", len(cfg.Players)),
			zap.Int("deck_size", m.TotalCards),
			zap.Bool("network_cards", len(comp.Network) > 0),
		)
	}
	return view, nil
}

// validateSetup checks the setup and returns the players with normalized interests.
func (e *Engine) validateSetup(cfg MatchConfig) ([]PlayerSetup, error) {
	n := len(cfg.Players)
	if n < e.cfg.MinPlayers || n > e.cfg.MaxPlayers {
		return nil, &ConfigurationError{
			Field:   "players",
			Message: fmt.Sprintf("%d players, supported range is %d-%d", n, e.cfg.MinPlayers, e.cfg.MaxPlayers),
		}
	}
	players := make([]PlayerSetup, n)
	seen := make(map[catalog.Interest]int, n)
	for i, p := range cfg.Players {
		field := fmt.Sprintf("players[%d].interest", i)
		interest, err := catalog.ParseInterest(string(p.Interest))
		if err != nil {
			return nil, &ConfigurationError{Field: field, Message: err.Error()}
		}
		if prev, dup := seen[interest]; dup {
			return nil, &ConfigurationError{Field: field, Message: fmt.Sprintf("interest %s already taken by player %d", interest, prev+1)}
		}
		seen[interest] = i
		players[i] = PlayerSetup{Name: p.Name, Interest: interest}
	}
	if cfg.Composition != nil {
		if err := cfg.Composition.Validate(); err != nil {
			return nil, &ConfigurationError{Field: "deck", Message: err.Error()}
		}
	}
	return players, nil
}

// Reset drops the match in progress.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.match != nil && e.logger != nil {
		e.logger.Info("match reset", zap.String("match_id", e.match.ID))
	}
	e.match = nil
	e.lastScore = nil
	e.replay = nil
}

// Replay returns the recording of the current match, or nil when recording is off
// or no match was started.
func (e *Engine) Replay() *Replay {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.replay
}

// recordFrame appends the state of m after seat acted. The caller holds e.mu.
func (e *Engine) recordFrame(op rules.Action, seat int, m *state.Match, at time.Time) {
	if e.replay == nil {
		return
	}
	sum, err := ComputeChecksum(m)
	if err != nil && e.logger != nil {
		e.logger.Warn("replay checksum failed", zap.String("match_id", m.ID), zap.Error(err))
	}
	e.replay.Record(newFrame(op, seat, buildView(m, e.lastScore), sum, at))
}

// View returns a read-only snapshot of the match.
func (e *Engine) View() (*View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.match == nil {
		return nil, reject("view", rules.ReasonNoMatch, nil)
	}
	return buildView(e.match, e.lastScore), nil
}

// Checksum returns the deterministic digest of the match in progress.
func (e *Engine) Checksum() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.match == nil {
		return "", reject("checksum", rules.ReasonNoMatch, nil)
	}
	return ComputeChecksum(e.match)
}

// Audit runs the conservation checks against the match in progress.
func (e *Engine) Audit() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.match == nil {
		return nil
	}
	return e.match.Audit()
}

// txn is one action applied to a private copy of the match. The copy replaces the
// live match only when the action succeeds.
type txn struct {
	m      *state.Match
	now    time.Time
	events []rules.Event
	score  *scoring.Breakdown
}

// event appends an event and returns it for filling in. The pointer is valid until
// the next call.
func (tx *txn) event(t rules.EventType) *rules.Event {
	tx.events = append(tx.events, rules.NewEvent(t, tx.m.ID, tx.now))
	return &tx.events[len(tx.events)-1]
}

// move shifts a position, records a score event for non-zero changes, and returns
// the applied delta.
func (tx *txn) move(id state.PlayerID, delta int, cause string) int {
	applied := tx.m.MovePosition(id, delta)
	if applied != 0 {
		p, _ := tx.m.Player(id)
		ev := tx.event(rules.EventScoreChanged)
		ev.PlayerID = int(id)
		ev.Amount = applied
		ev.Data = cause
		ev.Metadata["position"] = strconv.Itoa(p.Position)
	}
	return applied
}

// publish pushes a card onto a wall and records the overflow.
func (tx *txn) publish(id state.PlayerID, card state.Card) {
	card.PublishedThisTurn = true
	discarded, returned := tx.m.PushToWall(id, card)

	ev := tx.event(rules.EventCardPublished)
	ev.PlayerID = int(id)
	ev.CardID = int(card.ID)
	ev.Data = string(card.Interest)

	for _, c := range discarded {
		ev := tx.event(rules.EventCardDiscarded)
		ev.PlayerID = int(id)
		ev.CardID = int(c.ID)
		ev.Data = "wall_overflow"
	}
	for _, tok := range returned {
		ev := tx.event(rules.EventTokenReturned)
		ev.PlayerID = int(tok.Owner)
		ev.Data = string(tok.Type)
	}
}

// grant adds tokens to the acting player's pool and records it.
func (tx *txn) grant(id state.PlayerID, t tokens.Type, n int) {
	tx.m.Grant(id, t, n)
	ev := tx.event(rules.EventTokenGranted)
	ev.PlayerID = int(id)
	ev.Amount = n
	ev.Data = string(t)
}

// apply runs fn against a copy of the match after the phase check. On success the
// copy becomes the match and the collected events are published; on failure the
// match is untouched and a rejection event is published.
func (e *Engine) apply(op rules.Action, seat *int, fn func(tx *txn) error) error {
	e.mu.Lock()
	if e.match == nil {
		e.mu.Unlock()
		return reject(op, rules.ReasonNoMatch, nil)
	}
	m := e.match
	err := e.check(op, seat, m)
	var tx *txn
	if err == nil {
		tx = &txn{m: m.Clone(), now: e.clock.Now()}
		err = fn(tx)
	}
	if err != nil {
		matchID, turn, now := m.ID, m.Turn.CurrentPlayer(), e.clock.Now()
		e.mu.Unlock()

		reason := ReasonOf(err)
		if e.logger != nil {
			e.logger.Debug("action rejected",
				zap.String("match_id", matchID),
				zap.String("action", string(op)),
				zap.String("reason", string(reason)),
				zap.Error(err),
			)
		}
		ev := rules.NewEvent(rules.EventActionRejected, matchID, now)
		ev.PlayerID = turn
		ev.Data = string(reason)
		ev.Metadata["action"] = string(op)
		e.bus.Publish(ev)
		return err
	}

	e.match = tx.m
	if tx.score != nil {
		e.lastScore = tx.score
	}
	e.recordFrame(op, m.Turn.CurrentPlayer(), tx.m, tx.now)
	matchID, phase := tx.m.ID, tx.m.Phase()
	e.mu.Unlock()

	if e.logger != nil {
		e.logger.Debug("action applied",
			zap.String("match_id", matchID),
			zap.String("action", string(op)),
			zap.Stringer("phase", phase),
			zap.Int("events", len(tx.events)),
		)
	}
	e.bus.PublishBatch(tx.events)
	return nil
}

func (e *Engine) check(op rules.Action, seat *int, m *state.Match) error {
	res := rules.CheckAction(op, m.Phase(), m.PendingKind())
	if !res.Legal {
		return reject(op, res.Reason, nil)
	}
	if seat != nil && *seat != m.Turn.CurrentPlayer() {
		return reject(op, rules.ReasonNotYourTurn, fmt.Errorf("seat %d acted during the turn of seat %d", *seat, m.Turn.CurrentPlayer()))
	}
	return nil
}
