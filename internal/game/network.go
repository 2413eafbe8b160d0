package game

import (
	"fmt"
	"slices"

	"github.com/influencer-game/influencer-server-go/internal/game/catalog"
	"github.com/influencer-game/influencer-server-go/internal/game/deck"
	"github.com/influencer-game/influencer-server-go/internal/game/rules"
	"github.com/influencer-game/influencer-server-go/internal/game/state"
	"github.com/influencer-game/influencer-server-go/internal/game/tokens"
)

const (
	shitstormLoss   = 3
	challengePoints = 2
	botMaxPick      = 3
	stalkerLikes    = 3
	trollDislikes   = 3
)

// dispatch resolves a network card effect for the acting player. Effects that need a
// decision push a sub-interaction; an effect with nothing to choose from resolves
// immediately with no effect.
func (e *Engine) dispatch(tx *txn, effect catalog.EffectKey) {
	m := tx.m
	acting := m.Acting()

	switch effect {
	case catalog.EffectShitstorm:
		for _, p := range m.Players {
			if p.ID != acting.ID {
				tx.move(p.ID, -shitstormLoss, string(effect))
			}
		}

	case catalog.EffectSponsored:
		n := 0
		for _, p := range m.Players {
			for _, c := range p.Wall {
				if c.IsContent() && c.Interest == acting.Interest {
					n++
				}
			}
		}
		tx.move(acting.ID, n, string(effect))

	case catalog.EffectChallenge:
		var choices []state.CardRef
		for i, c := range acting.Hand {
			if c.IsContent() {
				choices = append(choices, state.CardRef{Zone: state.ZoneHand, Player: acting.ID, Index: i})
			}
		}
		tx.open(state.SubInteraction{Kind: rules.SubReveal, Source: effect, Choices: choices, MinPick: 1, MaxPick: 1})

	case catalog.EffectSteal:
		var choices []state.CardRef
		for _, p := range m.Players {
			if p.ID == acting.ID {
				continue
			}
			for i, c := range p.Wall {
				if c.IsContent() {
					choices = append(choices, state.CardRef{Zone: state.ZoneWall, Player: p.ID, Index: i})
				}
			}
		}
		tx.open(state.SubInteraction{Kind: rules.SubSteal, Source: effect, Choices: choices, MinPick: 1, MaxPick: 1})

	case catalog.EffectPlanner:
		var choices []state.CardRef
		for _, p := range m.Players {
			for i := range p.Hand {
				choices = append(choices, state.CardRef{Zone: state.ZoneHand, Player: p.ID, Index: i})
			}
		}
		pick := min(e.cfg.HandSize, len(choices))
		tx.open(state.SubInteraction{Kind: rules.SubPlanner, Source: effect, Choices: choices, MinPick: pick, MaxPick: pick})

	case catalog.EffectBot:
		var choices []state.CardRef
		for i, c := range m.Deck {
			if c.IsContent() {
				choices = append(choices, state.CardRef{Zone: state.ZoneDeck, Player: tokens.NoPlayer, Index: i})
			}
		}
		tx.open(state.SubInteraction{Kind: rules.SubBot, Source: effect, Choices: choices, MinPick: 0, MaxPick: botMaxPick})

	case catalog.EffectStalker:
		tx.grant(acting.ID, tokens.Like, stalkerLikes)

	case catalog.EffectTroll:
		tx.grant(acting.ID, tokens.Dislike, trollDislikes)

	case catalog.EffectOpinion:
		tx.open(state.SubInteraction{
			Kind: rules.SubGrantToken, Source: effect, MinPick: 1, MaxPick: 1,
			Grants: []tokens.Type{tokens.Follow, tokens.Ban},
		})

	case catalog.EffectActive:
		tx.open(state.SubInteraction{
			Kind: rules.SubGrantToken, Source: effect, MinPick: 1, MaxPick: 1,
			Grants: []tokens.Type{tokens.Share, tokens.Report},
		})
	}
}

// open pushes a sub-interaction unless it offers nothing to choose.
func (tx *txn) open(sub state.SubInteraction) {
	if len(sub.Choices) == 0 && len(sub.Grants) == 0 {
		ev := tx.event(rules.EventSubInteractionOK)
		ev.PlayerID = int(tx.m.Acting().ID)
		ev.Data = string(sub.Kind)
		ev.Metadata["source"] = string(sub.Source)
		ev.Metadata["outcome"] = "no_choices"
		return
	}
	tx.m.PushPending(sub)
	ev := tx.event(rules.EventSubInteraction)
	ev.PlayerID = int(tx.m.Acting().ID)
	ev.Amount = len(sub.Choices) + len(sub.Grants)
	ev.Data = string(sub.Kind)
	ev.Metadata["source"] = string(sub.Source)
}

// resolve closes the innermost sub-interaction.
func (tx *txn) resolve() {
	kind := tx.m.PendingKind()
	tx.m.PopPending()
	ev := tx.event(rules.EventSubInteractionOK)
	ev.PlayerID = int(tx.m.Acting().ID)
	ev.Data = string(kind)
}

// RevealHandCard reveals a content card for a social challenge. The acting player
// gains 2; every other player gains 2 when holding a card of the revealed interest
// and loses 2 otherwise. The revealed card stays in hand.
func (e *Engine) RevealHandCard(idx int) error {
	return e.revealHandCard(nil, idx)
}

func (e *Engine) revealHandCard(seat *int, idx int) error {
	const op = rules.ActionRevealHandCard
	return e.apply(op, seat, func(tx *txn) error {
		m := tx.m
		acting := m.Acting()
		if idx < 0 || idx >= len(acting.Hand) {
			return reject(op, rules.ReasonInvalidIndex, fmt.Errorf("hand index %d out of range", idx))
		}
		card := acting.Hand[idx]
		if !card.IsContent() {
			return reject(op, rules.ReasonNotRevealable, fmt.Errorf("%s cannot be revealed", card.Title()))
		}

		ev := tx.event(rules.EventCardRevealed)
		ev.PlayerID = int(acting.ID)
		ev.CardID = int(card.ID)
		ev.Data = string(card.Interest)

		tx.move(acting.ID, challengePoints, string(catalog.EffectChallenge))
		for _, p := range m.Players {
			if p.ID == acting.ID {
				continue
			}
			if p.HasContentInHand(card.Interest) {
				tx.move(p.ID, challengePoints, string(catalog.EffectChallenge))
			} else {
				tx.move(p.ID, -challengePoints, string(catalog.EffectChallenge))
			}
		}
		tx.resolve()
		return nil
	})
}

// SelectStealTarget moves the content card at idx of target's wall onto the acting
// player's wall. Tokens stay on the card.
func (e *Engine) SelectStealTarget(target state.PlayerID, idx int) error {
	return e.selectStealTarget(nil, target, idx)
}

func (e *Engine) selectStealTarget(seat *int, target state.PlayerID, idx int) error {
	const op = rules.ActionSelectStealTarget
	return e.apply(op, seat, func(tx *txn) error {
		m := tx.m
		acting := m.Acting()
		if target == acting.ID {
			return reject(op, rules.ReasonInvalidTarget, fmt.Errorf("cannot steal from own wall"))
		}
		victim, ok := m.Player(target)
		if !ok {
			return reject(op, rules.ReasonInvalidTarget, fmt.Errorf("player %d not found", target))
		}
		if idx < 0 || idx >= len(victim.Wall) {
			return reject(op, rules.ReasonInvalidIndex, fmt.Errorf("wall index %d out of range", idx))
		}
		if !victim.Wall[idx].IsContent() {
			return reject(op, rules.ReasonInvalidTarget, fmt.Errorf("card %d is not a content card", victim.Wall[idx].ID))
		}

		card, err := m.RemoveFromWall(target, idx)
		if err != nil {
			return reject(op, rules.ReasonInvalidIndex, err)
		}
		ev := tx.event(rules.EventCardStolen)
		ev.PlayerID = int(acting.ID)
		ev.TargetID = int(target)
		ev.CardID = int(card.ID)

		tx.publish(acting.ID, card)
		tx.resolve()
		return nil
	})
}

// SelectPlannerCards records which pooled cards the acting player keeps. indices
// point into the pooled choice list and may be changed until ConfirmPlanner.
func (e *Engine) SelectPlannerCards(indices []int) error {
	return e.selectPlannerCards(nil, indices)
}

func (e *Engine) selectPlannerCards(seat *int, indices []int) error {
	const op = rules.ActionSelectPlannerCards
	return e.apply(op, seat, func(tx *txn) error {
		top, _ := tx.m.PendingTop()
		if err := validateSelection(top, indices); err != nil {
			return reject(op, rules.ReasonInvalidSelection, err)
		}
		top.Selected = slices.Clone(indices)
		return nil
	})
}

// ConfirmPlanner gives the acting player the selected cards as their new hand, then
// shuffles the rest of the pool and deals it to the other players in seat order.
// Cards left after every other hand is full go to the bottom of the deck.
func (e *Engine) ConfirmPlanner() error {
	return e.confirmPlanner(nil)
}

func (e *Engine) confirmPlanner(seat *int) error {
	const op = rules.ActionConfirmPlanner
	return e.apply(op, seat, func(tx *txn) error {
		m := tx.m
		top, _ := m.PendingTop()
		if len(top.Selected) != top.MinPick {
			return reject(op, rules.ReasonInvalidSelection, fmt.Errorf("select %d cards first", top.MinPick))
		}

		picked := make(map[int]bool, len(top.Selected))
		for _, i := range top.Selected {
			picked[i] = true
		}
		keep := make([]state.Card, 0, len(top.Selected))
		for _, i := range top.Selected {
			ref := top.Choices[i]
			keep = append(keep, m.Players[ref.Player].Hand[ref.Index])
		}
		var rest []state.Card
		for i, ref := range top.Choices {
			if !picked[i] {
				rest = append(rest, m.Players[ref.Player].Hand[ref.Index])
			}
		}

		acting := m.Acting()
		for _, p := range m.Players {
			p.Hand = nil
		}
		acting.Hand = keep

		rest = deck.Shuffle(e.rng, rest)
		n := len(m.Players)
		for round := 0; round < e.cfg.HandSize && len(rest) > 0; round++ {
			for off := 1; off < n && len(rest) > 0; off++ {
				p := m.Players[(int(acting.ID)+off)%n]
				p.Hand = append(p.Hand, rest[0])
				rest = rest[1:]
			}
		}
		m.Deck = append(m.Deck, rest...)

		ev := tx.event(rules.EventHandsRedealt)
		ev.PlayerID = int(acting.ID)
		ev.Amount = len(rest)
		tx.resolve()
		return nil
	})
}

// SelectBotCards records up to three deck content cards to publish. indices point
// into the browse list and may be changed until ConfirmBot.
func (e *Engine) SelectBotCards(indices []int) error {
	return e.selectBotCards(nil, indices)
}

func (e *Engine) selectBotCards(seat *int, indices []int) error {
	const op = rules.ActionSelectBotCards
	return e.apply(op, seat, func(tx *txn) error {
		top, _ := tx.m.PendingTop()
		if err := validateSelection(top, indices); err != nil {
			return reject(op, rules.ReasonInvalidSelection, err)
		}
		top.Selected = slices.Clone(indices)
		return nil
	})
}

// ConfirmBot publishes the selected deck cards to the acting player's wall one by
// one, then shuffles what is left of the deck.
func (e *Engine) ConfirmBot() error {
	return e.confirmBot(nil)
}

func (e *Engine) confirmBot(seat *int) error {
	const op = rules.ActionConfirmBot
	return e.apply(op, seat, func(tx *txn) error {
		m := tx.m
		top, _ := m.PendingTop()
		taken := make(map[int]bool, len(top.Selected))
		var publish []state.Card
		for _, i := range top.Selected {
			ref := top.Choices[i]
			taken[ref.Index] = true
			publish = append(publish, m.Deck[ref.Index])
		}
		var remaining []state.Card
		for i, c := range m.Deck {
			if !taken[i] {
				remaining = append(remaining, c)
			}
		}
		m.Deck = deck.Shuffle(e.rng, remaining)

		acting := m.Acting()
		for _, c := range publish {
			tx.publish(acting.ID, c)
		}
		ev := tx.event(rules.EventDeckReshuffled)
		ev.Amount = len(m.Deck)
		tx.resolve()
		return nil
	})
}

// ChooseGrantedToken picks the token an opinion or active card grants.
func (e *Engine) ChooseGrantedToken(t tokens.Type) error {
	return e.chooseGrantedToken(nil, t)
}

func (e *Engine) chooseGrantedToken(seat *int, t tokens.Type) error {
	const op = rules.ActionChooseGrantedToken
	return e.apply(op, seat, func(tx *txn) error {
		top, _ := tx.m.PendingTop()
		if !slices.Contains(top.Grants, t) {
			return reject(op, rules.ReasonInvalidSelection, fmt.Errorf("%q is not offered, choose one of %v", t, top.Grants))
		}
		tx.grant(tx.m.Acting().ID, t, 1)
		tx.resolve()
		return nil
	})
}

func validateSelection(top *state.SubInteraction, indices []int) error {
	if len(indices) < top.MinPick || len(indices) > top.MaxPick {
		if top.MinPick == top.MaxPick {
			return fmt.Errorf("select exactly %d cards, got %d", top.MinPick, len(indices))
		}
		return fmt.Errorf("select %d to %d cards, got %d", top.MinPick, top.MaxPick, len(indices))
	}
	seen := make(map[int]bool, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(top.Choices) {
			return fmt.Errorf("choice %d out of range", i)
		}
		if seen[i] {
			return fmt.Errorf("choice %d selected twice", i)
		}
		seen[i] = true
	}
	return nil
}
