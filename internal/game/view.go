package game

import (
	"github.com/influencer-game/influencer-server-go/internal/game/catalog"
	"github.com/influencer-game/influencer-server-go/internal/game/rules"
	"github.com/influencer-game/influencer-server-go/internal/game/scoring"
	"github.com/influencer-game/influencer-server-go/internal/game/state"
	"github.com/influencer-game/influencer-server-go/internal/game/targeting"
	"github.com/influencer-game/influencer-server-go/internal/game/tokens"
)

// View is a read-only snapshot of a match for renderers. It shares nothing with the
// live match.
type View struct {
	MatchID       string             `json:"match_id"`
	Phase         rules.Phase        `json:"phase"`
	Turn          int                `json:"turn"`
	CurrentPlayer int                `json:"current_player"`
	Winner        *int               `json:"winner,omitempty"`
	MustDraw      bool               `json:"must_draw"`
	HasPlayed     bool               `json:"has_played_card"`
	Selected      tokens.Type        `json:"selected_token,omitempty"`
	ValidTargets  *TargetsView       `json:"valid_targets,omitempty"`
	Players       []PlayerView       `json:"players"`
	DeckCount     int                `json:"deck_count"`
	DiscardCount  int                `json:"discard_count"`
	Dump          []tokens.DumpEntry `json:"dump"`
	Pending       *PendingView       `json:"pending,omitempty"`
	LegalActions  []rules.Action     `json:"legal_actions"`
	LastScore     *scoring.Breakdown `json:"last_score,omitempty"`
}

// PlayerView is one seat of a View.
type PlayerView struct {
	ID         state.PlayerID      `json:"id"`
	Name       string              `json:"name"`
	Interest   catalog.Interest    `json:"interest"`
	Position   int                 `json:"position"`
	Hand       []CardView          `json:"hand"`
	Wall       []CardView          `json:"wall"`
	Tokens     map[tokens.Type]int `json:"tokens"`
	Following  []state.PlayerID    `json:"following"`
	FollowedBy []state.PlayerID    `json:"followed_by"`
}

// CardView is a card in a hand, on a wall, or offered by a sub-interaction.
type CardView struct {
	ID                state.CardID      `json:"id"`
	Kind              state.CardKind    `json:"kind"`
	Title             string            `json:"title"`
	Description       string            `json:"description,omitempty"`
	Interest          catalog.Interest  `json:"interest,omitempty"`
	Value             int               `json:"value,omitempty"`
	ModifiedValue     int               `json:"modified_value,omitempty"`
	Effect            catalog.EffectKey `json:"effect,omitempty"`
	Tokens            []tokens.Placed   `json:"tokens,omitempty"`
	PublishedThisTurn bool              `json:"published_this_turn,omitempty"`
}

// PendingView describes the innermost open sub-interaction.
type PendingView struct {
	Kind     rules.SubKind     `json:"kind"`
	Source   catalog.EffectKey `json:"source"`
	Choices  []ChoiceView      `json:"choices,omitempty"`
	Selected []int             `json:"selected,omitempty"`
	MinPick  int               `json:"min_pick"`
	MaxPick  int               `json:"max_pick"`
	Grants   []tokens.Type     `json:"grants,omitempty"`
}

// TargetsView lists where the selected token may be placed.
type TargetsView struct {
	Cards    []CardTarget     `json:"cards"`
	Profiles []state.PlayerID `json:"profiles"`
}

// CardTarget is a wall card by owner and wall index.
type CardTarget struct {
	Player state.PlayerID `json:"player"`
	Index  int            `json:"index"`
}

// ChoiceView is one selectable card and where it lives.
type ChoiceView struct {
	Ref  state.CardRef `json:"ref"`
	Card CardView      `json:"card"`
}

func buildView(m *state.Match, last *scoring.Breakdown) *View {
	v := &View{
		MatchID:       m.ID,
		Phase:         m.Phase(),
		Turn:          m.Turn.TurnNumber(),
		CurrentPlayer: m.Turn.CurrentPlayer(),
		MustDraw:      m.Flags.MustDraw,
		HasPlayed:     m.Flags.HasPlayedCardThisTurn,
		Selected:      m.Selected,
		DeckCount:     len(m.Deck),
		DiscardCount:  len(m.Discard),
		Dump:          append([]tokens.DumpEntry(nil), m.Dump...),
		LegalActions:  rules.LegalActions(m.Phase(), m.PendingKind()),
	}
	if w, ok := m.Turn.Winner(); ok {
		v.Winner = &w
	}
	if m.Phase() == rules.PhaseTokens && m.Selected != "" {
		v.ValidTargets = validTargets(m)
	}
	if last != nil {
		b := *last
		b.Active = append([]catalog.Interest(nil), last.Active...)
		b.Entries = append([]scoring.Entry(nil), last.Entries...)
		v.LastScore = &b
	}

	for _, p := range m.Players {
		v.Players = append(v.Players, PlayerView{
			ID:         p.ID,
			Name:       p.Name,
			Interest:   p.Interest,
			Position:   p.Position,
			Hand:       cardViews(p.Hand),
			Wall:       cardViews(p.Wall),
			Tokens:     p.Pool.Counts(),
			Following:  append([]state.PlayerID(nil), p.Following...),
			FollowedBy: append([]state.PlayerID(nil), p.FollowedBy...),
		})
	}

	if top, ok := m.PendingTop(); ok {
		pv := &PendingView{
			Kind:     top.Kind,
			Source:   top.Source,
			Selected: append([]int(nil), top.Selected...),
			MinPick:  top.MinPick,
			MaxPick:  top.MaxPick,
			Grants:   append([]tokens.Type(nil), top.Grants...),
		}
		for _, ref := range top.Choices {
			if c, ok := resolveRef(m, ref); ok {
				pv.Choices = append(pv.Choices, ChoiceView{Ref: ref, Card: cardView(c)})
			}
		}
		v.Pending = pv
	}
	return v
}

func validTargets(m *state.Match) *TargetsView {
	tv := targeting.NewTargetValidator(m)
	actor := m.Acting().ID
	t := m.Selected
	out := &TargetsView{Cards: []CardTarget{}, Profiles: []state.PlayerID{}}
	for _, p := range m.Players {
		if t.CardToken() {
			for i := range p.Wall {
				if tv.IsCardValidTarget(t, actor, p.ID, i) {
					out.Cards = append(out.Cards, CardTarget{Player: p.ID, Index: i})
				}
			}
		}
		if t.ProfileToken() && tv.IsProfileValidTarget(t, actor, p.ID) {
			out.Profiles = append(out.Profiles, p.ID)
		}
	}
	return out
}

func resolveRef(m *state.Match, ref state.CardRef) (state.Card, bool) {
	var cards []state.Card
	switch ref.Zone {
	case state.ZoneDeck:
		cards = m.Deck
	case state.ZoneHand, state.ZoneWall:
		p, ok := m.Player(ref.Player)
		if !ok {
			return state.Card{}, false
		}
		if ref.Zone == state.ZoneHand {
			cards = p.Hand
		} else {
			cards = p.Wall
		}
	}
	if ref.Index < 0 || ref.Index >= len(cards) {
		return state.Card{}, false
	}
	return cards[ref.Index], true
}

func cardViews(cards []state.Card) []CardView {
	out := make([]CardView, 0, len(cards))
	for _, c := range cards {
		out = append(out, cardView(c))
	}
	return out
}

func cardView(c state.Card) CardView {
	cv := CardView{
		ID:                c.ID,
		Kind:              c.Kind,
		Title:             c.Title(),
		Interest:          c.Interest,
		Value:             c.Value,
		Effect:            c.Effect,
		Tokens:            append([]tokens.Placed(nil), c.Tokens...),
		PublishedThisTurn: c.PublishedThisTurn,
	}
	if c.IsContent() {
		cv.ModifiedValue = c.ModifiedValue()
	} else if def, ok := catalog.LookupNetworkCard(c.Effect); ok {
		cv.Description = def.Description
	}
	return cv
}
