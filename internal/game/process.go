package game

import (
	"time"

	"github.com/influencer-game/influencer-server-go/internal/game/rules"
	"github.com/influencer-game/influencer-server-go/internal/game/state"
	"github.com/influencer-game/influencer-server-go/internal/game/tokens"
)

// PlayerAction is a transport-neutral action message. Seat, when set, must be the
// acting seat.
type PlayerAction struct {
	Seat      *int         `json:"seat,omitempty"`
	Action    rules.Action `json:"action"`
	Index     int          `json:"index,omitempty"`
	Target    int          `json:"target,omitempty"`
	Indices   []int        `json:"indices,omitempty"`
	Token     tokens.Type  `json:"token,omitempty"`
	Timestamp time.Time    `json:"timestamp,omitempty"`
}

// ProcessAction routes an action message to the matching operation.
func (e *Engine) ProcessAction(action PlayerAction) error {
	seat := action.Seat
	target := state.PlayerID(action.Target)

	switch action.Action {
	case rules.ActionDrawCard:
		return e.drawCard(seat)
	case rules.ActionPlayCard:
		return e.playCard(seat, action.Index)
	case rules.ActionSelectToken:
		return e.selectToken(seat, action.Token)
	case rules.ActionPlaceTokenOnCard:
		return e.placeTokenOnCard(seat, target, action.Index)
	case rules.ActionPlaceTokenOnProfile:
		return e.placeTokenOnProfile(seat, target)
	case rules.ActionEndTurn:
		return e.endTurn(seat)
	case rules.ActionRevealHandCard:
		return e.revealHandCard(seat, action.Index)
	case rules.ActionSelectStealTarget:
		return e.selectStealTarget(seat, target, action.Index)
	case rules.ActionSelectPlannerCards:
		return e.selectPlannerCards(seat, action.Indices)
	case rules.ActionConfirmPlanner:
		return e.confirmPlanner(seat)
	case rules.ActionSelectBotCards:
		return e.selectBotCards(seat, action.Indices)
	case rules.ActionConfirmBot:
		return e.confirmBot(seat)
	case rules.ActionChooseGrantedToken:
		return e.chooseGrantedToken(seat, action.Token)
	default:
		// The phase check rejects it as unknown and publishes the rejection.
		return e.apply(action.Action, seat, func(*txn) error { return nil })
	}
}
