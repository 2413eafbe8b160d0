package state

import (
	"errors"
	"fmt"

	"github.com/influencer-game/influencer-server-go/internal/game/tokens"
)

// CardCount returns the number of cards currently in deck, discard, hands and walls.
func (m *Match) CardCount() int {
	n := len(m.Deck) + len(m.Discard)
	for _, p := range m.Players {
		n += len(p.Hand) + len(p.Wall)
	}
	return n
}

// Audit checks card conservation, the wall bound, token conservation and the
// position range. It returns every violation found.
func (m *Match) Audit() error {
	var errs []error

	if n := m.CardCount(); n != m.TotalCards {
		errs = append(errs, fmt.Errorf("card count %d, built %d", n, m.TotalCards))
	}

	seen := make(map[CardID]int)
	count := func(cards []Card) {
		for _, c := range cards {
			seen[c.ID]++
		}
	}
	count(m.Deck)
	count(m.Discard)
	for _, p := range m.Players {
		count(p.Hand)
		count(p.Wall)

		if len(p.Wall) > m.Limits.WallLimit {
			errs = append(errs, fmt.Errorf("player %d wall holds %d cards", p.ID, len(p.Wall)))
		}
		if p.Position < 0 || p.Position > m.Limits.TargetScore {
			errs = append(errs, fmt.Errorf("player %d position %d out of range", p.ID, p.Position))
		}
		for _, c := range p.Hand {
			if len(c.Tokens) > 0 {
				errs = append(errs, fmt.Errorf("card %d in hand of player %d carries tokens", c.ID, p.ID))
			}
		}
	}
	for id, n := range seen {
		if n > 1 {
			errs = append(errs, fmt.Errorf("card %d appears %d times", id, n))
		}
	}
	for _, c := range m.Discard {
		if len(c.Tokens) > 0 {
			errs = append(errs, fmt.Errorf("discarded card %d carries tokens", c.ID))
		}
	}

	if err := m.auditTokens(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// auditTokens checks pool + placed + dumped == granted for every (owner, type).
func (m *Match) auditTokens() error {
	type key struct {
		owner PlayerID
		t     tokens.Type
	}
	accounted := make(map[key]int)

	for _, p := range m.Players {
		for _, t := range tokens.AllTypes() {
			accounted[key{p.ID, t}] += p.Pool.Count(t)
		}
		for _, c := range p.Wall {
			for _, tok := range c.Tokens {
				accounted[key{tok.Owner, tok.Type}]++
			}
		}
		accounted[key{p.ID, tokens.Follow}] += len(p.Following)
	}
	for _, entry := range m.Dump {
		accounted[key{entry.Owner, entry.Type}]++
	}

	var errs []error
	for _, p := range m.Players {
		for _, t := range tokens.AllTypes() {
			if got, want := accounted[key{p.ID, t}], p.Granted.Count(t); got != want {
				errs = append(errs, fmt.Errorf("player %d %s tokens: accounted %d, granted %d", p.ID, t, got, want))
			}
		}
	}
	return errors.Join(errs...)
}
