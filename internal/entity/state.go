package entity

import "fmt"

// State is the controller's position in the submission flow.
type State string

const (
	StateIdle             State = "idle"
	StateSelecting        State = "selecting"
	StateProbing          State = "probing"
	StateValid            State = "valid"
	StateInvalid          State = "invalid"
	StateSubmitting       State = "submitting"
	StateRedirecting      State = "redirecting"
	StateSubmissionFailed State = "submission_failed"
)

// Phase is what the UI shows.
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhasePreviewing    Phase = "previewing"
	PhaseErrorShown    Phase = "error"
	PhaseLoading       Phase = "loading"
	PhaseNavigatedAway Phase = "navigated_away"
)

func CanTransition(from, to State) bool {
	switch from {
	case StateIdle:
		return to == StateSelecting
	case StateSelecting:
		return to == StateProbing || to == StateInvalid
	case StateProbing:
		return to == StateValid || to == StateInvalid || to == StateSelecting
	case StateValid:
		return to == StateSubmitting || to == StateSelecting || to == StateInvalid
	case StateInvalid:
		return to == StateSelecting || to == StateProbing
	case StateSubmitting:
		return to == StateRedirecting || to == StateSubmissionFailed || to == StateSelecting
	case StateSubmissionFailed:
		return to == StateSelecting || to == StateSubmitting || to == StateInvalid
	case StateRedirecting:
		return false
	default:
		return false
	}
}

func ValidateTransition(from, to State) error {
	if from == to {
		return nil
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("invalid transition: %s -> %s", from, to)
	}
	return nil
}

// Phase maps a controller state onto the UI phase it is rendered as.
// Selecting and Probing keep whatever is on screen, reported here as Idle.
func (s State) Phase() Phase {
	switch s {
	case StateValid:
		return PhasePreviewing
	case StateInvalid, StateSubmissionFailed:
		return PhaseErrorShown
	case StateSubmitting:
		return PhaseLoading
	case StateRedirecting:
		return PhaseNavigatedAway
	default:
		return PhaseIdle
	}
}
