package match

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidTransition = errors.New("invalid match transition")
	ErrDeadlineExceeded  = errors.New("response deadline exceeded")
	ErrAlreadyUnlocked   = errors.New("match already unlocked")
)

type Event string

const (
	EventAccept Event = "accept"
	EventReject Event = "reject"
	EventExpire Event = "expire"
	EventUnlock Event = "unlock"
)

func ParseDecision(s string) (Event, error) {
	switch Event(s) {
	case EventAccept, EventReject:
		return Event(s), nil
	}
	return "", fmt.Errorf("%w: unknown decision %q", ErrInvalidTransition, s)
}

type rule struct {
	to Status
	// guard returns nil when the transition may be applied at now.
	guard func(now, deadline time.Time) error
}

func beforeDeadline(now, deadline time.Time) error {
	if now.After(deadline) {
		return ErrDeadlineExceeded
	}
	return nil
}

func afterDeadline(now, deadline time.Time) error {
	if !now.After(deadline) {
		return fmt.Errorf("%w: deadline not reached", ErrInvalidTransition)
	}
	return nil
}

var table = map[Status]map[Event]rule{
	StatusProposed: {
		EventAccept: {to: StatusAccepted, guard: beforeDeadline},
		EventReject: {to: StatusRejected, guard: beforeDeadline},
		EventExpire: {to: StatusExpired, guard: afterDeadline},
	},
	StatusAccepted: {
		EventUnlock: {to: StatusUnlocked},
	},
}

// Transition validates applying ev to a match in state current and returns the
// next state. It performs no I/O.
func Transition(current Status, ev Event, now, deadline time.Time) (Status, error) {
	if current == StatusUnlocked && ev == EventUnlock {
		return current, ErrAlreadyUnlocked
	}
	r, ok := table[current][ev]
	if !ok {
		return current, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, ev, current)
	}
	if r.guard != nil {
		if err := r.guard(now, deadline); err != nil {
			return current, err
		}
	}
	return r.to, nil
}
