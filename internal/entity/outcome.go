package entity

import (
	"encoding/json"
)

// ValidationOutcome is either Valid or Invalid(reason).
type ValidationOutcome struct {
	reason string
	valid  bool
}

func Valid() ValidationOutcome { return ValidationOutcome{valid: true} }

func Invalid(reason string) ValidationOutcome { return ValidationOutcome{reason: reason} }

func (o ValidationOutcome) OK() bool { return o.valid }

func (o ValidationOutcome) Reason() string { return o.reason }

func (o ValidationOutcome) String() string {
	if o.valid {
		return "Valid"
	}
	return "Invalid(" + o.reason + ")"
}

// SubmissionResult is produced by exactly one exchange with the prediction endpoint.
type SubmissionResult struct {
	Payload json.RawMessage
	Message string
	ok      bool
}

func Success(payload json.RawMessage) SubmissionResult {
	return SubmissionResult{Payload: payload, ok: true}
}

func Failure(message string) SubmissionResult {
	return SubmissionResult{Message: message}
}

func (r SubmissionResult) OK() bool { return r.ok }
