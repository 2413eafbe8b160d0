package game

import (
	"errors"
	"fmt"

	"github.com/influencer-game/influencer-server-go/internal/game/rules"
)

// ErrIllegalAction matches every rejected match action.
var ErrIllegalAction = errors.New("illegal action")

// ConfigurationError reports a bad match setup. No match state exists when it is returned.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid match configuration: %s: %s", e.Field, e.Message)
}

// ActionError reports a rejected action. The match is left untouched.
type ActionError struct {
	Op     rules.Action
	Reason rules.Reason
	Err    error
}

func (e *ActionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s rejected (%s): %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s rejected (%s)", e.Op, e.Reason)
}

// Is makes errors.Is(err, ErrIllegalAction) hold for every ActionError.
func (e *ActionError) Is(target error) bool {
	return target == ErrIllegalAction
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

func reject(op rules.Action, reason rules.Reason, err error) *ActionError {
	return &ActionError{Op: op, Reason: reason, Err: err}
}

// ReasonOf extracts the reason code from an error returned by the engine.
func ReasonOf(err error) rules.Reason {
	var ae *ActionError
	if errors.As(err, &ae) {
		return ae.Reason
	}
	return rules.ReasonNone
}
