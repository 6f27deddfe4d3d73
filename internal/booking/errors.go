package booking

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnknownField is returned when a change names a field the form does not have.
	ErrUnknownField = errors.New("booking: unknown field")

	// ErrInvalidReferral is returned when a referral outside the allowed set is selected.
	ErrInvalidReferral = errors.New("booking: referral not in allowed set")

	// ErrValidationBlocked is returned when required fields are missing or malformed.
	ErrValidationBlocked = errors.New("booking: required fields missing or malformed")

	// ErrSubmitInProgress is returned when a submit arrives while another is in flight.
	ErrSubmitInProgress = errors.New("booking: submission already in progress")

	// ErrRemoteRejected is returned when the webhook answers with a non-2xx status.
	ErrRemoteRejected = errors.New("booking: webhook rejected submission")

	// ErrTransportFailure is returned when the webhook request could not complete.
	ErrTransportFailure = errors.New("booking: webhook transport failure")
)

// ValidationError lists the fields that blocked a submission, keyed by field
// name, with a user-facing message per field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("booking: invalid fields: %s", strings.Join(names, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrValidationBlocked }

// RemoteRejectedError carries the webhook response for diagnostics. It is never
// shown to the visitor.
type RemoteRejectedError struct {
	StatusCode int
	Body       string
}

func (e *RemoteRejectedError) Error() string {
	return fmt.Sprintf("booking: webhook returned %d", e.StatusCode)
}

func (e *RemoteRejectedError) Unwrap() error { return ErrRemoteRejected }

// Outcome labels used in logs and metrics.
const (
	OutcomeSuccess           = "success"
	OutcomeRemoteRejected    = "remote_rejected"
	OutcomeTransportFailure  = "transport_failure"
	OutcomeValidationBlocked = "validation_blocked"
	OutcomeInProgress        = "in_progress"
)

// Classify maps a submit error onto an outcome label.
func Classify(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrValidationBlocked):
		return OutcomeValidationBlocked
	case errors.Is(err, ErrSubmitInProgress):
		return OutcomeInProgress
	case errors.Is(err, ErrRemoteRejected):
		return OutcomeRemoteRejected
	default:
		return OutcomeTransportFailure
	}
}
