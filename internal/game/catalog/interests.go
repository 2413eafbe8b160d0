package catalog

import (
	"fmt"
	"strings"
)

// Interest is one of the six content themes a player can pick at setup.
type Interest string

const (
	InterestFashion Interest = "fashion"
	InterestTourism Interest = "tourism"
	InterestFood    Interest = "food"
	InterestFitness Interest = "fitness"
	InterestMusic   Interest = "music"
	InterestGaming  Interest = "gaming"
)

// InterestInfo carries display data for an interest. Renderers use it; the rules engine never does.
type InterestInfo struct {
	Interest Interest `json:"interest"`
	Icon     string   `json:"icon"`
	Color    string   `json:"color"`
}

var interestTable = []InterestInfo{
	{InterestFashion, "👗", "#e040fb"},
	{InterestTourism, "🌍", "#40c4ff"},
	{InterestFood, "🍔", "#ffa726"},
	{InterestFitness, "🏋️", "#66bb6a"},
	{InterestMusic, "🎵", "#7e57c2"},
	{InterestGaming, "🎮", "#ff7043"},
}

// Interests returns every interest in canonical order.
func Interests() []InterestInfo {
	out := make([]InterestInfo, len(interestTable))
	copy(out, interestTable)
	return out
}

// LookupInterest returns the display data for an interest.
func LookupInterest(i Interest) (InterestInfo, bool) {
	for _, info := range interestTable {
		if info.Interest == i {
			return info, true
		}
	}
	return InterestInfo{}, false
}

// Valid reports whether i belongs to the closed interest set.
func (i Interest) Valid() bool {
	_, ok := LookupInterest(i)
	return ok
}

// ParseInterest normalizes user input into an Interest.
func ParseInterest(s string) (Interest, error) {
	i := Interest(strings.ToLower(strings.TrimSpace(s)))
	if !i.Valid() {
		return "", fmt.Errorf("unknown interest %q", s)
	}
	return i, nil
}
