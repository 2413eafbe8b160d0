package rules

import (
	"fmt"
)

// Phase represents where the acting player is within a turn.
type Phase int

const (
	PhaseAwaitingDraw Phase = iota
	PhaseAwaitingPlay
	PhaseSubInteraction
	PhaseTokens
	PhaseGameOver
)

var phaseNames = map[Phase]string{
	PhaseAwaitingDraw:   "AWAITING_DRAW",
	PhaseAwaitingPlay:   "AWAITING_PLAY",
	PhaseSubInteraction: "SUB_INTERACTION",
	PhaseTokens:         "TOKEN_PHASE",
	PhaseGameOver:       "GAME_OVER",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// MarshalText renders the phase name for JSON views.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a phase name written by MarshalText.
func (p *Phase) UnmarshalText(text []byte) error {
	for phase, name := range phaseNames {
		if name == string(text) {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// SubKind tags the nested decision a network card opened.
type SubKind string

const (
	SubNone       SubKind = ""
	SubReveal     SubKind = "reveal"
	SubSteal      SubKind = "steal"
	SubPlanner    SubKind = "planner"
	SubBot        SubKind = "bot"
	SubGrantToken SubKind = "grant_token"
)

// TurnManager tracks the current player pointer, the turn number and the phase.
// It is a plain value so match snapshots can copy it.
type TurnManager struct {
	current     int
	playerCount int
	turnNumber  int
	phase       Phase
	winner      int
}

// NewTurnManager creates a turn manager at turn 1, seat 0, awaiting a draw.
func NewTurnManager(playerCount int) TurnManager {
	return TurnManager{
		playerCount: playerCount,
		turnNumber:  1,
		phase:       PhaseAwaitingDraw,
		winner:      -1,
	}
}

// CurrentPlayer returns the seat index of the acting player.
func (tm *TurnManager) CurrentPlayer() int {
	return tm.current
}

// TurnNumber returns the current turn number (1-based, counted across all players).
func (tm *TurnManager) TurnNumber() int {
	return tm.turnNumber
}

// Phase returns the phase currently in progress.
func (tm *TurnManager) Phase() Phase {
	return tm.phase
}

// Winner returns the winning seat once the match is over.
func (tm *TurnManager) Winner() (int, bool) {
	if tm.phase != PhaseGameOver {
		return -1, false
	}
	return tm.winner, true
}

// CardDrawn moves from AwaitingDraw to AwaitingPlay.
func (tm *TurnManager) CardDrawn() {
	tm.phase = PhaseAwaitingPlay
}

// OpenSubInteraction suspends the turn until the pending decision is resolved.
func (tm *TurnManager) OpenSubInteraction() {
	tm.phase = PhaseSubInteraction
}

// EnterTokenPhase moves to the optional token step of the turn.
func (tm *TurnManager) EnterTokenPhase() {
	tm.phase = PhaseTokens
}

// AdvanceTurn hands the turn to the next seat and returns its index.
func (tm *TurnManager) AdvanceTurn() int {
	if tm.playerCount > 0 {
		tm.current = (tm.current + 1) % tm.playerCount
	}
	tm.turnNumber++
	tm.phase = PhaseAwaitingDraw
	return tm.current
}

// Finish moves to the terminal state with the given winner.
func (tm *TurnManager) Finish(winner int) {
	tm.phase = PhaseGameOver
	tm.winner = winner
}
