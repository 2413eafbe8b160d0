package state

import (
	"fmt"

	"github.com/influencer-game/influencer-server-go/internal/game/catalog"
	"github.com/influencer-game/influencer-server-go/internal/game/rules"
	"github.com/influencer-game/influencer-server-go/internal/game/tokens"
)

// Zone names where a card reference points.
type Zone string

const (
	ZoneDeck Zone = "deck"
	ZoneHand Zone = "hand"
	ZoneWall Zone = "wall"
)

// CardRef points at a card without owning it.
type CardRef struct {
	Zone   Zone     `json:"zone"`
	Player PlayerID `json:"player"`
	Index  int      `json:"index"`
}

// SubInteraction is a pending decision opened by a network card.
// Choices reference cards in place: nothing moves until the decision is confirmed.
type SubInteraction struct {
	Kind     rules.SubKind
	Source   catalog.EffectKey
	Choices  []CardRef
	Selected []int
	MinPick  int
	MaxPick  int
	Grants   []tokens.Type
}

func (s SubInteraction) clone() SubInteraction {
	out := s
	out.Choices = append([]CardRef(nil), s.Choices...)
	out.Selected = append([]int(nil), s.Selected...)
	out.Grants = append([]tokens.Type(nil), s.Grants...)
	return out
}

// TurnFlags are reset at the start of every turn.
type TurnFlags struct {
	MustDraw              bool
	HasPlayedCardThisTurn bool
}

// Limits are the rule constants a match was created with.
type Limits struct {
	TargetScore int
	WallLimit   int
}

// Match is the single mutable object of a running game. One writer at a time.
type Match struct {
	ID       string
	Players  []*Player
	Turn     rules.TurnManager
	Deck     []Card // index 0 is drawn first
	Discard  []Card
	Dump     []tokens.DumpEntry
	Pending  []SubInteraction
	Flags    TurnFlags
	Selected tokens.Type
	Limits   Limits

	// TotalCards is the number of cards built at match start.
	TotalCards int
}

// Player returns the player with the given id.
func (m *Match) Player(id PlayerID) (*Player, bool) {
	if int(id) < 0 || int(id) >= len(m.Players) {
		return nil, false
	}
	return m.Players[id], true
}

// Acting returns the player whose turn it is.
func (m *Match) Acting() *Player {
	return m.Players[m.Turn.CurrentPlayer()]
}

// Phase is a shorthand for the turn manager phase.
func (m *Match) Phase() rules.Phase {
	return m.Turn.Phase()
}

// PendingTop returns the innermost pending sub-interaction.
func (m *Match) PendingTop() (*SubInteraction, bool) {
	if len(m.Pending) == 0 {
		return nil, false
	}
	return &m.Pending[len(m.Pending)-1], true
}

// PendingKind returns the kind of the innermost sub-interaction or SubNone.
func (m *Match) PendingKind() rules.SubKind {
	if top, ok := m.PendingTop(); ok {
		return top.Kind
	}
	return rules.SubNone
}

// PushPending opens a sub-interaction and suspends the turn.
func (m *Match) PushPending(s SubInteraction) {
	m.Pending = append(m.Pending, s)
	m.Turn.OpenSubInteraction()
}

// PopPending closes the innermost sub-interaction. The turn resumes in the token
// phase once the stack is empty.
func (m *Match) PopPending() {
	if len(m.Pending) == 0 {
		return
	}
	m.Pending = m.Pending[:len(m.Pending)-1]
	if len(m.Pending) == 0 {
		m.Turn.EnterTokenPhase()
	}
}

// ActiveInterests returns the player's own interest plus those of everyone they follow.
func (m *Match) ActiveInterests(id PlayerID) map[catalog.Interest]bool {
	out := make(map[catalog.Interest]bool)
	p, ok := m.Player(id)
	if !ok {
		return out
	}
	out[p.Interest] = true
	for _, followed := range p.Following {
		if f, ok := m.Player(followed); ok {
			out[f.Interest] = true
		}
	}
	return out
}

// MovePosition shifts a player's position by delta, clamped to [0, TargetScore],
// and returns the applied delta.
func (m *Match) MovePosition(id PlayerID, delta int) int {
	p, ok := m.Player(id)
	if !ok {
		return 0
	}
	next := p.Position + delta
	if next < 0 {
		next = 0
	}
	if next > m.Limits.TargetScore {
		next = m.Limits.TargetScore
	}
	applied := next - p.Position
	p.Position = next
	return applied
}

// Grant adds n tokens of type t to a player's pool and records the grant.
func (m *Match) Grant(id PlayerID, t tokens.Type, n int) {
	p, ok := m.Player(id)
	if !ok || n <= 0 {
		return
	}
	p.Pool = p.Pool.Add(t, n)
	p.Granted = p.Granted.Add(t, n)
}

// Refund returns a previously placed token to its owner's pool.
func (m *Match) Refund(tok tokens.Placed) {
	if p, ok := m.Player(tok.Owner); ok {
		p.Pool = p.Pool.Add(tok.Type, 1)
	}
}

// RemoveFromHand takes the card at idx out of a player's hand.
func (m *Match) RemoveFromHand(id PlayerID, idx int) (Card, error) {
	p, ok := m.Player(id)
	if !ok {
		return Card{}, fmt.Errorf("player %d not found", id)
	}
	if idx < 0 || idx >= len(p.Hand) {
		return Card{}, fmt.Errorf("hand index %d out of range", idx)
	}
	card := p.Hand[idx]
	p.Hand = append(p.Hand[:idx:idx], p.Hand[idx+1:]...)
	return card, nil
}

// RemoveFromWall takes the card at idx off a wall. Tokens stay attached.
func (m *Match) RemoveFromWall(id PlayerID, idx int) (Card, error) {
	p, ok := m.Player(id)
	if !ok {
		return Card{}, fmt.Errorf("player %d not found", id)
	}
	if idx < 0 || idx >= len(p.Wall) {
		return Card{}, fmt.Errorf("wall index %d out of range", idx)
	}
	card := p.Wall[idx]
	p.Wall = append(p.Wall[:idx:idx], p.Wall[idx+1:]...)
	return card, nil
}

// PushToWall publishes card as the newest entry of a wall. When the wall grows past
// its limit the oldest card is stripped, its tokens go back to their owners, and it
// is discarded. The discarded cards and the returned tokens are reported.
func (m *Match) PushToWall(id PlayerID, card Card) ([]Card, []tokens.Placed) {
	p, ok := m.Player(id)
	if !ok {
		return nil, nil
	}
	p.Wall = append([]Card{card}, p.Wall...)

	var discarded []Card
	var returned []tokens.Placed
	for len(p.Wall) > m.Limits.WallLimit {
		oldest := p.Wall[len(p.Wall)-1]
		p.Wall = p.Wall[:len(p.Wall)-1]
		returned = append(returned, m.StripTokens(&oldest)...)
		oldest.PublishedThisTurn = false
		m.Discard = append(m.Discard, oldest)
		discarded = append(discarded, oldest)
	}
	return discarded, returned
}

// StripTokens refunds every token on the card and leaves it bare.
func (m *Match) StripTokens(card *Card) []tokens.Placed {
	returned := card.Tokens
	for _, tok := range returned {
		m.Refund(tok)
	}
	card.Tokens = nil
	return returned
}

// Follow links follower to target.
func (m *Match) Follow(follower, target PlayerID) {
	f, ok := m.Player(follower)
	t, ok2 := m.Player(target)
	if !ok || !ok2 || f.IsFollowing(target) {
		return
	}
	f.Following = append(f.Following, target)
	t.FollowedBy = append(t.FollowedBy, follower)
}

// Unfollow severs the link from follower to target.
func (m *Match) Unfollow(follower, target PlayerID) bool {
	f, ok := m.Player(follower)
	t, ok2 := m.Player(target)
	if !ok || !ok2 || !f.IsFollowing(target) {
		return false
	}
	f.Following = removeID(f.Following, target)
	t.FollowedBy = removeID(t.FollowedBy, follower)
	return true
}

// BannedInDump reports whether a ban token against target is already in the dump.
func (m *Match) BannedInDump(target PlayerID) bool {
	for _, entry := range m.Dump {
		if entry.Type == tokens.Ban && entry.Against == target {
			return true
		}
	}
	return false
}

// Clone returns a deep copy for read-only snapshots.
func (m *Match) Clone() *Match {
	out := *m
	out.Players = make([]*Player, len(m.Players))
	for i, p := range m.Players {
		out.Players[i] = p.clone()
	}
	out.Deck = cloneCards(m.Deck)
	out.Discard = cloneCards(m.Discard)
	out.Dump = append([]tokens.DumpEntry(nil), m.Dump...)
	if m.Pending != nil {
		out.Pending = make([]SubInteraction, len(m.Pending))
		for i, s := range m.Pending {
			out.Pending[i] = s.clone()
		}
	}
	return &out
}
