package catalog

import "fmt"

// EffectKey identifies the effect of a network card.
type EffectKey string

const (
	EffectShitstorm EffectKey = "shitstorm"
	EffectSponsored EffectKey = "sponsored"
	EffectChallenge EffectKey = "challenge"
	EffectSteal     EffectKey = "steal"
	EffectPlanner   EffectKey = "planner"
	EffectBot       EffectKey = "bot"
	EffectStalker   EffectKey = "stalker"
	EffectTroll     EffectKey = "troll"
	EffectOpinion   EffectKey = "opinion"
	EffectActive    EffectKey = "active"
)

// NetworkCardDef is the static definition of a network card.
type NetworkCardDef struct {
	Effect      EffectKey `json:"effect"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
}

var networkCards = []NetworkCardDef{
	{EffectShitstorm, "SHIT STORM", "All influencers but you lose 3 Pp."},
	{EffectSponsored, "SPONSORED POST", "You gain as many Pp as the number of posts of your interest in play."},
	{EffectChallenge, "SOCIAL CHALLENGE", "Reveal a post from your hand and gain 2 Pp. All players with a card of the same interest also get 2 Pp. Others lose 2 Pp."},
	{EffectSteal, "STEAL IDEA", "Remove one post from another influencer's wall and publish it on your wall."},
	{EffectPlanner, "CONTENT PLANNER", "Collect all players' hands. Add 3 posts to your hand, then shuffle and redistribute the rest."},
	{EffectBot, "BOT", "Browse the deck, publish up to 3 posts directly on your wall, then shuffle the deck."},
	{EffectStalker, "STALKER", "Gain 3 Like tokens."},
	{EffectTroll, "TROLL", "Gain 3 Dislike tokens."},
	{EffectOpinion, "OPINION MAKER", "Gain 1 Follow or Ban token."},
	{EffectActive, "ACTIVE USER", "Gain 1 Share or Report token."},
}

// NetworkCards returns the ten network card definitions in catalog order.
func NetworkCards() []NetworkCardDef {
	out := make([]NetworkCardDef, len(networkCards))
	copy(out, networkCards)
	return out
}

// LookupNetworkCard returns the definition for an effect key.
func LookupNetworkCard(key EffectKey) (NetworkCardDef, bool) {
	for _, def := range networkCards {
		if def.Effect == key {
			return def, true
		}
	}
	return NetworkCardDef{}, false
}

// ParseEffectKey validates an effect key read from configuration.
func ParseEffectKey(s string) (EffectKey, error) {
	key := EffectKey(s)
	if _, ok := LookupNetworkCard(key); !ok {
		return "", fmt.Errorf("unknown network card effect %q", s)
	}
	return key, nil
}
