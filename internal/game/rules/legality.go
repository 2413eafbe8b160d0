package rules

// Action names an operation of the match surface.
type Action string

const (
	ActionDrawCard            Action = "draw_card"
	ActionPlayCard            Action = "play_card"
	ActionSelectToken         Action = "select_token"
	ActionPlaceTokenOnCard    Action = "place_token_on_card"
	ActionPlaceTokenOnProfile Action = "place_token_on_profile"
	ActionEndTurn             Action = "end_turn"
	ActionRevealHandCard      Action = "reveal_hand_card"
	ActionSelectStealTarget   Action = "select_steal_target"
	ActionSelectPlannerCards  Action = "select_planner_cards"
	ActionConfirmPlanner      Action = "confirm_planner"
	ActionSelectBotCards      Action = "select_bot_cards"
	ActionConfirmBot          Action = "confirm_bot"
	ActionChooseGrantedToken  Action = "choose_granted_token"
)

// Reason is the code returned to callers when an action is rejected.
type Reason string

const (
	ReasonNone                  Reason = ""
	ReasonNoMatch               Reason = "no_match"
	ReasonGameOver              Reason = "game_over"
	ReasonWrongPhase            Reason = "wrong_phase"
	ReasonSubInteractionPending Reason = "sub_interaction_pending"
	ReasonCardAlreadyPlayed     Reason = "card_already_played"
	ReasonInvalidIndex          Reason = "invalid_index"
	ReasonNoTokenSelected       Reason = "no_token_selected"
	ReasonTokenUnavailable      Reason = "token_unavailable"
	ReasonInvalidTarget         Reason = "invalid_target"
	ReasonDeckExhausted         Reason = "deck_exhausted"
	ReasonNotRevealable         Reason = "not_revealable"
	ReasonInvalidSelection      Reason = "invalid_selection"
	ReasonUnknownAction         Reason = "unknown_action"
	ReasonNotYourTurn           Reason = "not_your_turn"
)

var phaseActions = map[Phase][]Action{
	PhaseAwaitingDraw: {ActionDrawCard},
	PhaseAwaitingPlay: {ActionPlayCard},
	PhaseTokens:       {ActionSelectToken, ActionPlaceTokenOnCard, ActionPlaceTokenOnProfile, ActionEndTurn},
}

var subActions = map[SubKind][]Action{
	SubReveal:     {ActionRevealHandCard},
	SubSteal:      {ActionSelectStealTarget},
	SubPlanner:    {ActionSelectPlannerCards, ActionConfirmPlanner},
	SubBot:        {ActionSelectBotCards, ActionConfirmBot},
	SubGrantToken: {ActionChooseGrantedToken},
}

// LegalityResult is the outcome of a phase check.
type LegalityResult struct {
	Legal  bool
	Reason Reason
}

// LegalActions derives the legal action set from the phase and the pending sub-interaction.
func LegalActions(phase Phase, pending SubKind) []Action {
	if phase == PhaseGameOver {
		return nil
	}
	if pending != SubNone {
		return append([]Action(nil), subActions[pending]...)
	}
	return append([]Action(nil), phaseActions[phase]...)
}

// CheckAction reports whether action may be issued in the given phase.
// It only checks timing; targets and indices are validated by the caller.
func CheckAction(action Action, phase Phase, pending SubKind) LegalityResult {
	if !knownAction(action) {
		return LegalityResult{Reason: ReasonUnknownAction}
	}
	if phase == PhaseGameOver {
		return LegalityResult{Reason: ReasonGameOver}
	}
	for _, a := range LegalActions(phase, pending) {
		if a == action {
			return LegalityResult{Legal: true}
		}
	}
	if pending != SubNone {
		return LegalityResult{Reason: ReasonSubInteractionPending}
	}
	if action == ActionPlayCard && phase == PhaseTokens {
		return LegalityResult{Reason: ReasonCardAlreadyPlayed}
	}
	return LegalityResult{Reason: ReasonWrongPhase}
}

func knownAction(action Action) bool {
	for _, actions := range phaseActions {
		for _, a := range actions {
			if a == action {
				return true
			}
		}
	}
	for _, actions := range subActions {
		for _, a := range actions {
			if a == action {
				return true
			}
		}
	}
	return false
}
