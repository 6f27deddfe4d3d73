package booking

import "fmt"

// Status describes where the current submit attempt is in its lifecycle.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusSubmitting Status = "submitting"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusIdle, StatusSubmitting, StatusSuccess, StatusError:
		return Status(s), nil
	default:
		return "", fmt.Errorf("booking: unknown status %q", s)
	}
}

var allowedTransitions = map[Status]map[Status]bool{
	StatusIdle:       {StatusSubmitting: true},
	StatusSubmitting: {StatusSuccess: true, StatusError: true},
	StatusSuccess:    {StatusSubmitting: true},
	StatusError:      {StatusSubmitting: true},
}

// CanTransition reports whether the state machine may move from one status to another.
func CanTransition(from, to Status) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// Terminal reports whether s is the outcome of a finished attempt.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusError
}

func (s Status) String() string {
	return string(s)
}
