package targeting

import (
	"fmt"

	"github.com/influencer-game/influencer-server-go/internal/game/state"
	"github.com/influencer-game/influencer-server-go/internal/game/tokens"
)

// FollowResult reports the link a follow replaced, if any.
type FollowResult struct {
	Replaced    bool
	Unfollowed  state.PlayerID
	NewFollowed state.PlayerID
}

// BanResult lists what a ban removed from play.
type BanResult struct {
	Banned state.PlayerID
	// Dumped are the banned player's tokens taken off walls and profiles.
	Dumped []tokens.DumpEntry
	// Unfollowed are the players whose link to the banned player was severed.
	Unfollowed []state.PlayerID
}

// PlaceOnCard validates and places a card token. The token leaves the actor's pool.
func PlaceOnCard(m *state.Match, t tokens.Type, actor, target state.PlayerID, idx int) error {
	if err := NewTargetValidator(m).ValidateCardTarget(t, actor, target, idx); err != nil {
		return err
	}
	p, _ := m.Player(actor)
	pool, err := p.Pool.Take(t)
	if err != nil {
		return fmt.Errorf("place %s: %w", t, err)
	}
	p.Pool = pool

	owner, _ := m.Player(target)
	card := &owner.Wall[idx]
	card.Tokens = append(card.Tokens, tokens.Placed{Type: t, Owner: actor})
	return nil
}

// Follow links actor to target. A player follows at most one other player: an
// existing link is severed first and its follow token returns to the pool.
func Follow(m *state.Match, actor, target state.PlayerID) (FollowResult, error) {
	res := FollowResult{Unfollowed: tokens.NoPlayer, NewFollowed: target}
	if err := NewTargetValidator(m).ValidateProfileTarget(tokens.Follow, actor, target); err != nil {
		return res, err
	}
	p, _ := m.Player(actor)
	pool, err := p.Pool.Take(tokens.Follow)
	if err != nil {
		return res, fmt.Errorf("place follow: %w", err)
	}
	p.Pool = pool

	for _, old := range append([]state.PlayerID(nil), p.Following...) {
		if m.Unfollow(actor, old) {
			m.Refund(tokens.Placed{Type: tokens.Follow, Owner: actor})
			res.Replaced = true
			res.Unfollowed = old
		}
	}
	m.Follow(actor, target)
	return res, nil
}

// Ban removes every token owned by target from play, severs every follow link that
// touches target, and dumps the ban token. Followers of target get their follow
// token back; target's own follow token is dumped.
func Ban(m *state.Match, actor, target state.PlayerID) (BanResult, error) {
	res := BanResult{Banned: target}
	if err := NewTargetValidator(m).ValidateProfileTarget(tokens.Ban, actor, target); err != nil {
		return res, err
	}
	p, _ := m.Player(actor)
	pool, err := p.Pool.Take(tokens.Ban)
	if err != nil {
		return res, fmt.Errorf("place ban: %w", err)
	}
	p.Pool = pool

	for _, owner := range m.Players {
		for i := range owner.Wall {
			card := &owner.Wall[i]
			kept := card.Tokens[:0:0]
			for _, tok := range card.Tokens {
				if tok.Owner == target {
					res.Dumped = append(res.Dumped, tokens.DumpEntry{Type: tok.Type, Owner: tok.Owner, Against: tokens.NoPlayer})
					continue
				}
				kept = append(kept, tok)
			}
			if len(kept) == 0 {
				kept = nil
			}
			card.Tokens = kept
		}
	}

	banned, _ := m.Player(target)
	for _, followed := range append([]state.PlayerID(nil), banned.Following...) {
		if m.Unfollow(target, followed) {
			res.Dumped = append(res.Dumped, tokens.DumpEntry{Type: tokens.Follow, Owner: target, Against: tokens.NoPlayer})
		}
	}
	for _, follower := range append([]state.PlayerID(nil), banned.FollowedBy...) {
		if m.Unfollow(follower, target) {
			m.Refund(tokens.Placed{Type: tokens.Follow, Owner: follower})
			res.Unfollowed = append(res.Unfollowed, follower)
		}
	}

	m.Dump = append(m.Dump, res.Dumped...)
	m.Dump = append(m.Dump, tokens.DumpEntry{Type: tokens.Ban, Owner: actor, Against: target})
	return res, nil
}
