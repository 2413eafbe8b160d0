package game

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/influencer-game/influencer-server-go/internal/game/deck"
	"github.com/influencer-game/influencer-server-go/internal/game/rules"
	"github.com/influencer-game/influencer-server-go/internal/game/scoring"
	"github.com/influencer-game/influencer-server-go/internal/game/state"
	"github.com/influencer-game/influencer-server-go/internal/game/targeting"
	"github.com/influencer-game/influencer-server-go/internal/game/tokens"
)

// DrawCard draws the top card into the acting player's hand. An empty deck is
// refilled from the discard pile first.
func (e *Engine) DrawCard() error {
	return e.drawCard(nil)
}

func (e *Engine) drawCard(seat *int) error {
	return e.apply(rules.ActionDrawCard, seat, func(tx *txn) error {
		m := tx.m
		card, newDeck, newDiscard, reshuffled, err := deck.DrawOne(e.rng, m.Deck, m.Discard)
		if err != nil {
			return reject(rules.ActionDrawCard, rules.ReasonDeckExhausted, err)
		}
		m.Deck, m.Discard = newDeck, newDiscard
		acting := m.Acting()
		acting.Hand = append(acting.Hand, card)
		m.Flags.MustDraw = false
		m.Turn.CardDrawn()

		if reshuffled {
			ev := tx.event(rules.EventDeckReshuffled)
			ev.Amount = len(m.Deck) + 1
		}
		ev := tx.event(rules.EventCardDrawn)
		ev.PlayerID = int(acting.ID)
		ev.CardID = int(card.ID)
		return nil
	})
}

// PlayCard plays the hand card at idx. Content cards are published to the acting
// player's wall; network cards are discarded and their effect resolved.
func (e *Engine) PlayCard(idx int) error {
	return e.playCard(nil, idx)
}

func (e *Engine) playCard(seat *int, idx int) error {
	return e.apply(rules.ActionPlayCard, seat, func(tx *txn) error {
		m := tx.m
		if m.Flags.HasPlayedCardThisTurn {
			return reject(rules.ActionPlayCard, rules.ReasonCardAlreadyPlayed, nil)
		}
		acting := m.Acting()
		card, err := m.RemoveFromHand(acting.ID, idx)
		if err != nil {
			return reject(rules.ActionPlayCard, rules.ReasonInvalidIndex, err)
		}
		m.Flags.HasPlayedCardThisTurn = true

		if card.IsContent() {
			tx.publish(acting.ID, card)
			m.Turn.EnterTokenPhase()
			return nil
		}

		m.Discard = append(m.Discard, card)
		ev := tx.event(rules.EventNetworkCardPlay)
		ev.PlayerID = int(acting.ID)
		ev.CardID = int(card.ID)
		ev.Data = string(card.Effect)

		e.dispatch(tx, card.Effect)
		if m.PendingKind() == rules.SubNone {
			m.Turn.EnterTokenPhase()
		}
		return nil
	})
}

// SelectToken toggles the tentative token selection. Selecting the selected type
// again clears it.
func (e *Engine) SelectToken(t tokens.Type) error {
	return e.selectToken(nil, t)
}

func (e *Engine) selectToken(seat *int, t tokens.Type) error {
	return e.apply(rules.ActionSelectToken, seat, func(tx *txn) error {
		m := tx.m
		if _, err := tokens.ParseType(string(t)); err != nil {
			return reject(rules.ActionSelectToken, rules.ReasonInvalidSelection, err)
		}
		ev := tx.event(rules.EventTokenSelected)
		ev.PlayerID = int(m.Acting().ID)
		if m.Selected == t {
			m.Selected = ""
			return nil
		}
		if !m.Acting().Pool.Has(t) {
			return reject(rules.ActionSelectToken, rules.ReasonTokenUnavailable, fmt.Errorf("no %s tokens left", t))
		}
		m.Selected = t
		ev.Data = string(t)
		return nil
	})
}

// PlaceTokenOnCard places the selected token on the wall card at idx of target.
func (e *Engine) PlaceTokenOnCard(target state.PlayerID, idx int) error {
	return e.placeTokenOnCard(nil, target, idx)
}

func (e *Engine) placeTokenOnCard(seat *int, target state.PlayerID, idx int) error {
	const op = rules.ActionPlaceTokenOnCard
	return e.apply(op, seat, func(tx *txn) error {
		m := tx.m
		t, err := selectedToken(op, m)
		if err != nil {
			return err
		}
		actor := m.Acting().ID
		if err := targeting.PlaceOnCard(m, t, actor, target, idx); err != nil {
			return placementError(op, err)
		}
		m.Selected = ""

		owner, _ := m.Player(target)
		ev := tx.event(rules.EventTokenPlaced)
		ev.PlayerID = int(actor)
		ev.TargetID = int(target)
		ev.CardID = int(owner.Wall[idx].ID)
		ev.Data = string(t)
		return nil
	})
}

// PlaceTokenOnProfile places the selected follow or ban token on target.
func (e *Engine) PlaceTokenOnProfile(target state.PlayerID) error {
	return e.placeTokenOnProfile(nil, target)
}

func (e *Engine) placeTokenOnProfile(seat *int, target state.PlayerID) error {
	const op = rules.ActionPlaceTokenOnProfile
	return e.apply(op, seat, func(tx *txn) error {
		m := tx.m
		t, err := selectedToken(op, m)
		if err != nil {
			return err
		}
		actor := m.Acting().ID

		switch t {
		case tokens.Follow:
			res, err := targeting.Follow(m, actor, target)
			if err != nil {
				return placementError(op, err)
			}
			if res.Replaced {
				ev := tx.event(rules.EventUnfollowed)
				ev.PlayerID = int(actor)
				ev.TargetID = int(res.Unfollowed)
				ev = tx.event(rules.EventTokenReturned)
				ev.PlayerID = int(actor)
				ev.Data = string(tokens.Follow)
			}
			ev := tx.event(rules.EventFollowed)
			ev.PlayerID = int(actor)
			ev.TargetID = int(target)
		case tokens.Ban:
			res, err := targeting.Ban(m, actor, target)
			if err != nil {
				return placementError(op, err)
			}
			for _, follower := range res.Unfollowed {
				ev := tx.event(rules.EventUnfollowed)
				ev.PlayerID = int(follower)
				ev.TargetID = int(target)
				ev = tx.event(rules.EventTokenReturned)
				ev.PlayerID = int(follower)
				ev.Data = string(tokens.Follow)
			}
			ev := tx.event(rules.EventBanned)
			ev.PlayerID = int(actor)
			ev.TargetID = int(target)
			ev.Amount = len(res.Dumped)
		default:
			return reject(op, rules.ReasonInvalidTarget, fmt.Errorf("%s tokens go on cards", t))
		}
		m.Selected = ""

		ev := tx.event(rules.EventTokenPlaced)
		ev.PlayerID = int(actor)
		ev.TargetID = int(target)
		ev.Data = string(t)
		return nil
	})
}

// EndTurn scores the acting player, then either ends the match or hands the turn on.
func (e *Engine) EndTurn() error {
	return e.endTurn(nil)
}

func (e *Engine) endTurn(seat *int) error {
	return e.apply(rules.ActionEndTurn, seat, func(tx *txn) error {
		m := tx.m
		acting := m.Acting()
		breakdown := scoring.Settle(m, acting.ID)
		tx.score = &breakdown
		tx.move(acting.ID, breakdown.Total, "end_of_turn")

		ev := tx.event(rules.EventTurnEnded)
		ev.PlayerID = int(acting.ID)
		ev.Amount = breakdown.Total

		if acting.Position >= m.Limits.TargetScore {
			m.Turn.Finish(int(acting.ID))
			m.Selected = ""
			ev := tx.event(rules.EventGameOver)
			ev.PlayerID = int(acting.ID)
			ev.Amount = acting.Position
			if e.logger != nil {
				e.logger.Info("match won",
					zap.String("match_id", m.ID),
					zap.Int("player", int(acting.ID)),
					zap.String("name", acting.Name),
					zap.Int("turn", m.Turn.TurnNumber()),
				)
			}
			return nil
		}

		next := m.Turn.AdvanceTurn()
		m.Flags = state.TurnFlags{MustDraw: true}
		m.Selected = ""
		if e.logger != nil {
			e.logger.Info("turn ended",
				zap.String("match_id", m.ID),
				zap.Int("player", int(acting.ID)),
				zap.Int("score", breakdown.Total),
				zap.Int("position", acting.Position),
				zap.Int("next_player", next),
			)
		}
		return nil
	})
}

// IsCardValidTarget reports whether the selected token may go on the wall card at
// idx of target. It is false outside the token phase or without a selection.
func (e *Engine) IsCardValidTarget(target state.PlayerID, idx int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	m := e.match
	if m == nil || m.Phase() != rules.PhaseTokens || m.Selected == "" {
		return false
	}
	return targeting.NewTargetValidator(m).IsCardValidTarget(m.Selected, m.Acting().ID, target, idx)
}

// IsProfileValidTarget reports whether the selected token may go on target's profile.
func (e *Engine) IsProfileValidTarget(target state.PlayerID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	m := e.match
	if m == nil || m.Phase() != rules.PhaseTokens || m.Selected == "" {
		return false
	}
	return targeting.NewTargetValidator(m).IsProfileValidTarget(m.Selected, m.Acting().ID, target)
}

func selectedToken(op rules.Action, m *state.Match) (tokens.Type, error) {
	if m.Selected == "" {
		return "", reject(op, rules.ReasonNoTokenSelected, nil)
	}
	if !m.Acting().Pool.Has(m.Selected) {
		return "", reject(op, rules.ReasonTokenUnavailable, fmt.Errorf("no %s tokens left", m.Selected))
	}
	return m.Selected, nil
}

func placementError(op rules.Action, err error) error {
	if errors.Is(err, tokens.ErrInsufficient) {
		return reject(op, rules.ReasonTokenUnavailable, err)
	}
	return reject(op, rules.ReasonInvalidTarget, err)
}
