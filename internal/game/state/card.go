package state

import (
	"github.com/influencer-game/influencer-server-go/internal/game/catalog"
	"github.com/influencer-game/influencer-server-go/internal/game/tokens"
)

// CardID is assigned once at deck build and never reused within a match.
type CardID int

// CardKind separates interest-typed content cards from one-shot network cards.
type CardKind string

const (
	KindContent CardKind = "content"
	KindNetwork CardKind = "network"
)

// Card is either a content card (Interest, Value, Tokens) or a network card (Effect).
type Card struct {
	ID                CardID
	Kind              CardKind
	Interest          catalog.Interest
	Value             int
	Effect            catalog.EffectKey
	Tokens            []tokens.Placed
	PublishedThisTurn bool
}

// NewContentCard creates an untouched content card.
func NewContentCard(id CardID, interest catalog.Interest, value int) Card {
	return Card{ID: id, Kind: KindContent, Interest: interest, Value: value}
}

// NewNetworkCard creates a network card for the given effect.
func NewNetworkCard(id CardID, effect catalog.EffectKey) Card {
	return Card{ID: id, Kind: KindNetwork, Effect: effect}
}

// IsContent reports whether the card can be published to a wall.
func (c Card) IsContent() bool {
	return c.Kind == KindContent
}

// IsNetwork reports whether the card carries a network effect.
func (c Card) IsNetwork() bool {
	return c.Kind == KindNetwork
}

// Title returns the catalog title for network cards and the interest for content cards.
func (c Card) Title() string {
	if c.IsNetwork() {
		if def, ok := catalog.LookupNetworkCard(c.Effect); ok {
			return def.Title
		}
		return string(c.Effect)
	}
	return string(c.Interest)
}

// CountTokens returns how many tokens of type t sit on the card.
func (c Card) CountTokens(t tokens.Type) int {
	n := 0
	for _, tok := range c.Tokens {
		if tok.Type == t {
			n++
		}
	}
	return n
}

// HasToken reports whether any token of type t sits on the card.
func (c Card) HasToken(t tokens.Type) bool {
	return c.CountTokens(t) > 0
}

// HasTokenFrom reports whether owner placed a token of type t on the card.
func (c Card) HasTokenFrom(t tokens.Type, owner tokens.PlayerID) bool {
	for _, tok := range c.Tokens {
		if tok.Type == t && tok.Owner == owner {
			return true
		}
	}
	return false
}

// Reported reports whether a report token nullifies the card.
func (c Card) Reported() bool {
	return c.HasToken(tokens.Report)
}

// ModifiedValue is the printed value plus likes minus dislikes.
func (c Card) ModifiedValue() int {
	return c.Value + c.CountTokens(tokens.Like) - c.CountTokens(tokens.Dislike)
}

// Clone returns a copy that shares no slices with c.
func (c Card) Clone() Card {
	out := c
	if c.Tokens != nil {
		out.Tokens = append([]tokens.Placed(nil), c.Tokens...)
	}
	return out
}

func cloneCards(cards []Card) []Card {
	if cards == nil {
		return nil
	}
	out := make([]Card, len(cards))
	for i, c := range cards {
		out[i] = c.Clone()
	}
	return out
}
