package job

import "errors"

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending Status = "pending" // created, waiting for a worker
	StatusRunning Status = "running" // claimed by exactly one worker
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// ErrInvalidTransition is returned when a status transition is not allowed.
var ErrInvalidTransition = errors.New("invalid job status transition")

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusFailed
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := ValidTransitions[s]
	return ok
}

// ValidTransitions moves forward only; failed is reachable from every
// non-terminal state.
var ValidTransitions = map[Status][]Status{
	StatusPending: {StatusRunning, StatusFailed},
	StatusRunning: {StatusDone, StatusFailed},
	StatusDone:    {},
	StatusFailed:  {},
}

// CanTransitionTo checks if a transition from s to target is valid.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range ValidTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// TransitionTo returns target, or s and ErrInvalidTransition.
func (s Status) TransitionTo(target Status) (Status, error) {
	if !s.CanTransitionTo(target) {
		return s, ErrInvalidTransition
	}
	return target, nil
}
