package tokens

import "fmt"

// Type is an interaction token type.
type Type string

const (
	Like    Type = "like"
	Dislike Type = "dislike"
	Share   Type = "share"
	Report  Type = "report"
	Follow  Type = "follow"
	Ban     Type = "ban"
)

// order is the display order used by renderers and by Pool.Types.
var order = []Type{Like, Dislike, Share, Report, Follow, Ban}

var tooltips = map[Type]string{
	Like:    "Like - Adds 1 point per turn",
	Dislike: "Dislike - Subtracts 1 point per turn",
	Report:  "Report - Nullifies post points",
	Share:   "Share - Counts post points on your wall",
	Follow:  "Follow - Acquires interest of followed player",
	Ban:     "Ban - Removes all tokens of the banned player",
}

// AllTypes returns every token type in display order.
func AllTypes() []Type {
	out := make([]Type, len(order))
	copy(out, order)
	return out
}

// Tooltip returns the player-facing help text for a token type.
func (t Type) Tooltip() string {
	return tooltips[t]
}

// Valid reports whether t is a known token type.
func (t Type) Valid() bool {
	_, ok := tooltips[t]
	return ok
}

// CardToken reports whether tokens of this type are placed on content cards.
func (t Type) CardToken() bool {
	return t == Like || t == Dislike || t == Share || t == Report
}

// ProfileToken reports whether tokens of this type are placed on player profiles.
func (t Type) ProfileToken() bool {
	return t == Follow || t == Ban
}

// ParseType validates a token type read from a transport message.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown token type %q", s)
	}
	return t, nil
}

// PlayerID is the stable seat identity assigned at match start.
type PlayerID int

// NoPlayer marks an absent player reference.
const NoPlayer PlayerID = -1

// Placed is a token sitting on a card. It is a value record and is never shared.
type Placed struct {
	Type  Type     `json:"type"`
	Owner PlayerID `json:"owner"`
}

// DumpEntry is a token removed from play by a ban. Against is set for ban tokens only.
type DumpEntry struct {
	Type    Type     `json:"type"`
	Owner   PlayerID `json:"owner"`
	Against PlayerID `json:"against"`
}
