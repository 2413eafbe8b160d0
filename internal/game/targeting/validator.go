package targeting

import (
	"errors"
	"fmt"

	"github.com/influencer-game/influencer-server-go/internal/game/catalog"
	"github.com/influencer-game/influencer-server-go/internal/game/state"
	"github.com/influencer-game/influencer-server-go/internal/game/tokens"
)

// ErrInvalidTarget is wrapped by every validation failure.
var ErrInvalidTarget = errors.New("invalid target")

// MatchAccessor provides the match state needed for target validation.
type MatchAccessor interface {
	// Player returns a player by seat id
	Player(id state.PlayerID) (*state.Player, bool)
	// ActiveInterests returns own interest plus followed interests
	ActiveInterests(id state.PlayerID) map[catalog.Interest]bool
	// BannedInDump reports an unresolved ban against the player
	BannedInDump(target state.PlayerID) bool
}

// TargetValidator validates that selected token targets are legal.
type TargetValidator struct {
	match MatchAccessor
}

// NewTargetValidator creates a new target validator.
func NewTargetValidator(match MatchAccessor) *TargetValidator {
	return &TargetValidator{match: match}
}

// ValidateCardTarget checks whether a token of type t owned by actor may be placed on
// the wall card at index idx of target.
func (tv *TargetValidator) ValidateCardTarget(t tokens.Type, actor, target state.PlayerID, idx int) error {
	if tv == nil || tv.match == nil {
		return fmt.Errorf("target validator not initialized")
	}
	if _, ok := tv.match.Player(actor); !ok {
		return fmt.Errorf("%w: acting player %d not found", ErrInvalidTarget, actor)
	}
	owner, ok := tv.match.Player(target)
	if !ok {
		return fmt.Errorf("%w: player %d not found", ErrInvalidTarget, target)
	}
	if idx < 0 || idx >= len(owner.Wall) {
		return fmt.Errorf("%w: wall index %d out of range", ErrInvalidTarget, idx)
	}
	card := owner.Wall[idx]
	if !card.IsContent() {
		return fmt.Errorf("%w: card %d is not a content card", ErrInvalidTarget, card.ID)
	}

	if t.ProfileToken() {
		return fmt.Errorf("%w: %s tokens go on profiles", ErrInvalidTarget, t)
	}
	switch t {
	case tokens.Like, tokens.Dislike:
		return nil
	case tokens.Report:
		if target == actor {
			return fmt.Errorf("%w: report on own wall", ErrInvalidTarget)
		}
		return nil
	case tokens.Share:
		if target == actor {
			return fmt.Errorf("%w: share on own wall", ErrInvalidTarget)
		}
		if !tv.match.ActiveInterests(actor)[card.Interest] {
			return fmt.Errorf("%w: %s is not an active interest", ErrInvalidTarget, card.Interest)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown token type %q", ErrInvalidTarget, t)
	}
}

// ValidateProfileTarget checks whether a token of type t owned by actor may be placed
// on the profile of target.
func (tv *TargetValidator) ValidateProfileTarget(t tokens.Type, actor, target state.PlayerID) error {
	if tv == nil || tv.match == nil {
		return fmt.Errorf("target validator not initialized")
	}
	p, ok := tv.match.Player(actor)
	if !ok {
		return fmt.Errorf("%w: acting player %d not found", ErrInvalidTarget, actor)
	}
	if _, ok := tv.match.Player(target); !ok {
		return fmt.Errorf("%w: player %d not found", ErrInvalidTarget, target)
	}
	if actor == target {
		return fmt.Errorf("%w: %s on own profile", ErrInvalidTarget, t)
	}

	if t.CardToken() {
		return fmt.Errorf("%w: %s tokens go on cards", ErrInvalidTarget, t)
	}
	switch t {
	case tokens.Follow:
		if p.IsFollowing(target) {
			return fmt.Errorf("%w: already following player %d", ErrInvalidTarget, target)
		}
		return nil
	case tokens.Ban:
		if tv.match.BannedInDump(target) {
			return fmt.Errorf("%w: player %d is already banned", ErrInvalidTarget, target)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown token type %q", ErrInvalidTarget, t)
	}
}

// IsCardValidTarget is the boolean form of ValidateCardTarget for renderers.
func (tv *TargetValidator) IsCardValidTarget(t tokens.Type, actor, target state.PlayerID, idx int) bool {
	return tv.ValidateCardTarget(t, actor, target, idx) == nil
}

// IsProfileValidTarget is the boolean form of ValidateProfileTarget for renderers.
func (tv *TargetValidator) IsProfileValidTarget(t tokens.Type, actor, target state.PlayerID) bool {
	return tv.ValidateProfileTarget(t, actor, target) == nil
}
