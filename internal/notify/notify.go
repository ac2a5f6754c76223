// Package notify carries lifecycle events from the matching engine to
// delivery channels. Delivery is best effort: a failed notification never
// rolls back the state change that produced it.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	EventOfferCreated    = "offer.created"
	EventMatchAccepted   = "match.accepted"
	EventMatchRejected   = "match.rejected"
	EventMatchExpired    = "match.expired"
	EventContactUnlocked = "contact.unlocked"
	EventJobSatisfied    = "job.satisfied"
)

type Event struct {
	Type       string    `json:"type"`
	JobID      uuid.UUID `json:"job_id"`
	MatchID    uuid.UUID `json:"match_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload,omitempty"`

	// Recipients are the users the event is addressed to (worker, employer).
	Recipients []uuid.UUID `json:"-"`
}

type Notifier interface {
	Notify(ctx context.Context, evt Event) error
}

type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, evt Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps events in memory. Tests use it to assert what was emitted.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(_ context.Context, evt Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *Recorder) Events(typ string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, 0)
	for _, e := range r.events {
		if typ == "" || e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}
