package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/influencer-game/influencer-server-go/internal/game/state"
	"github.com/influencer-game/influencer-server-go/internal/game/tokens"
)

// ComputeChecksum returns a SHA-256 digest of every authoritative field of the match.
// Two matches with the same checksum are indistinguishable to the rules engine.
func ComputeChecksum(m *state.Match) (string, error) {
	hash := sha256.New()
	if _, err := hash.Write([]byte(buildDeterministicRepresentation(m))); err != nil {
		return "", fmt.Errorf("failed to compute hash: %w", err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// buildDeterministicRepresentation writes the match as canonical text. Sequences
// keep their order since deck, hand and wall order are part of the state.
func buildDeterministicRepresentation(m *state.Match) string {
	var buf bytes.Buffer

	winner, _ := m.Turn.Winner()
	fmt.Fprintf(&buf, "MATCH:%s|%s|%d|%d|%d\n",
		m.ID,
		m.Phase(),
		m.Turn.CurrentPlayer(),
		m.Turn.TurnNumber(),
		winner,
	)
	fmt.Fprintf(&buf, "FLAGS:%t|%t|%s\n", m.Flags.MustDraw, m.Flags.HasPlayedCardThisTurn, m.Selected)

	for _, p := range m.Players {
		fmt.Fprintf(&buf, "PLAYER:%d|%s|%s|%d\n", p.ID, p.Name, p.Interest, p.Position)
		writePool(&buf, "POOL", p.Pool)
		writePool(&buf, "GRANTED", p.Granted)
		buf.WriteString("  FOLLOWING:" + joinIDs(p.Following) + "\n")
		buf.WriteString("  FOLLOWED_BY:" + joinIDs(p.FollowedBy) + "\n")
		writeCards(&buf, "  HAND", p.Hand)
		writeCards(&buf, "  WALL", p.Wall)
	}

	writeCards(&buf, "DECK", m.Deck)
	writeCards(&buf, "DISCARD", m.Discard)

	buf.WriteString("DUMP:\n")
	for _, entry := range m.Dump {
		fmt.Fprintf(&buf, "  %s|%d|%d\n", entry.Type, entry.Owner, entry.Against)
	}

	// Pending stack: order matters
	buf.WriteString("PENDING:\n")
	for i, sub := range m.Pending {
		fmt.Fprintf(&buf, "  %d:%s|%s|%d|%d\n", i, sub.Kind, sub.Source, sub.MinPick, sub.MaxPick)
		for _, ref := range sub.Choices {
			fmt.Fprintf(&buf, "    CHOICE:%s|%d|%d\n", ref.Zone, ref.Player, ref.Index)
		}
		fmt.Fprintf(&buf, "    SELECTED:%v\n", sub.Selected)
		fmt.Fprintf(&buf, "    GRANTS:%v\n", sub.Grants)
	}

	return buf.String()
}

func writePool(buf *bytes.Buffer, label string, pool tokens.Pool) {
	parts := make([]string, 0, len(tokens.AllTypes()))
	for _, t := range tokens.AllTypes() {
		parts = append(parts, fmt.Sprintf("%s=%d", t, pool.Count(t)))
	}
	fmt.Fprintf(buf, "  %s:%s\n", label, strings.Join(parts, ","))
}

func writeCards(buf *bytes.Buffer, label string, cards []state.Card) {
	fmt.Fprintf(buf, "%s:\n", label)
	for _, c := range cards {
		fmt.Fprintf(buf, "    %d|%s|%s|%d|%s|%t", c.ID, c.Kind, c.Interest, c.Value, c.Effect, c.PublishedThisTurn)
		for _, tok := range c.Tokens {
			fmt.Fprintf(buf, "|%s:%d", tok.Type, tok.Owner)
		}
		buf.WriteString("\n")
	}
}

func joinIDs(ids []state.PlayerID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(int(id))
	}
	return strings.Join(parts, ",")
}
