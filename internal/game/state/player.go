package state

import (
	"github.com/influencer-game/influencer-server-go/internal/game/catalog"
	"github.com/influencer-game/influencer-server-go/internal/game/tokens"
)

// PlayerID is the stable seat identity used by every token, follow and ban record.
type PlayerID = tokens.PlayerID

// Player holds one influencer's hand, wall, token pool and follow links.
type Player struct {
	ID       PlayerID
	Name     string
	Interest catalog.Interest
	Position int
	Hand     []Card
	Wall     []Card // newest first
	Pool     tokens.Pool

	// Granted counts every token this player has ever received, per type.
	Granted tokens.Pool

	Following  []PlayerID
	FollowedBy []PlayerID
}

// IsFollowing reports whether p currently follows target.
func (p *Player) IsFollowing(target PlayerID) bool {
	return containsID(p.Following, target)
}

// HasContentInHand reports whether p holds a content card of the given interest.
func (p *Player) HasContentInHand(interest catalog.Interest) bool {
	for _, c := range p.Hand {
		if c.IsContent() && c.Interest == interest {
			return true
		}
	}
	return false
}

func (p *Player) clone() *Player {
	out := *p
	out.Hand = cloneCards(p.Hand)
	out.Wall = cloneCards(p.Wall)
	out.Following = append([]PlayerID(nil), p.Following...)
	out.FollowedBy = append([]PlayerID(nil), p.FollowedBy...)
	return &out
}

func containsID(ids []PlayerID, id PlayerID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func removeID(ids []PlayerID, id PlayerID) []PlayerID {
	out := ids[:0:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}
