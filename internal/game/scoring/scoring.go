package scoring

import (
	"github.com/influencer-game/influencer-server-go/internal/game/catalog"
	"github.com/influencer-game/influencer-server-go/internal/game/state"
	"github.com/influencer-game/influencer-server-go/internal/game/tokens"
)

// Reason explains why a card did or did not contribute to a score.
type Reason string

const (
	ReasonPublished Reason = "published"
	ReasonInterest  Reason = "active_interest"
	ReasonShared    Reason = "shared"
	ReasonReported  Reason = "reported"
	ReasonInactive  Reason = "inactive"
)

// Entry is one line of the score log.
type Entry struct {
	CardID   state.CardID     `json:"card_id"`
	Owner    state.PlayerID   `json:"owner"`
	Interest catalog.Interest `json:"interest"`
	Reason   Reason           `json:"reason"`
	Points   int              `json:"points"`
}

// Breakdown is the result of one end-of-turn score calculation.
type Breakdown struct {
	Player  state.PlayerID     `json:"player"`
	Active  []catalog.Interest `json:"active"`
	Entries []Entry            `json:"entries"`
	Total   int                `json:"total"`
}

// Calculate computes the end-of-turn score of player id without touching the match.
//
// Own wall: reported cards give 0. Otherwise a card scores its modified value once
// if it was published this turn, or every turn while its interest is active.
// Other walls: an unreported card carrying a share token of the player scores its
// modified value while its interest is active.
func Calculate(m *state.Match, id state.PlayerID) Breakdown {
	b := Breakdown{Player: id}
	p, ok := m.Player(id)
	if !ok {
		return b
	}
	active := m.ActiveInterests(id)
	for _, info := range catalog.Interests() {
		if active[info.Interest] {
			b.Active = append(b.Active, info.Interest)
		}
	}

	for _, c := range p.Wall {
		if !c.IsContent() {
			continue
		}
		e := Entry{CardID: c.ID, Owner: id, Interest: c.Interest}
		switch {
		case c.Reported():
			e.Reason = ReasonReported
		case c.PublishedThisTurn:
			e.Reason = ReasonPublished
			e.Points = c.ModifiedValue()
		case active[c.Interest]:
			e.Reason = ReasonInterest
			e.Points = c.ModifiedValue()
		default:
			e.Reason = ReasonInactive
		}
		b.add(e)
	}

	for _, other := range m.Players {
		if other.ID == id {
			continue
		}
		for _, c := range other.Wall {
			if !c.IsContent() || !c.HasTokenFrom(tokens.Share, id) {
				continue
			}
			e := Entry{CardID: c.ID, Owner: other.ID, Interest: c.Interest}
			switch {
			case c.Reported():
				e.Reason = ReasonReported
			case active[c.Interest]:
				e.Reason = ReasonShared
				e.Points = c.ModifiedValue()
			default:
				e.Reason = ReasonInactive
			}
			b.add(e)
		}
	}
	return b
}

// Settle calculates the score and clears the published flag on every card of the
// player's wall so a publication credits only once.
func Settle(m *state.Match, id state.PlayerID) Breakdown {
	b := Calculate(m, id)
	if p, ok := m.Player(id); ok {
		for i := range p.Wall {
			p.Wall[i].PublishedThisTurn = false
		}
	}
	return b
}

func (b *Breakdown) add(e Entry) {
	b.Entries = append(b.Entries, e)
	b.Total += e.Points
}
