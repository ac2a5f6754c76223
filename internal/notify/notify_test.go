package notify

import (
	"context"
	"errors"
	"testing"
)

type failing struct{ err error }

func (f failing) Notify(context.Context, Event) error { return f.err }

func TestMulti_DeliversToAllAndJoinsErrors(t *testing.T) {
	rec := NewRecorder()
	boom := errors.New("broker down")
	m := Multi{failing{err: boom}, nil, rec, Nop{}}

	err := m.Notify(context.Background(), Event{Type: EventOfferCreated})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error to wrap %v, got %v", boom, err)
	}
	if got := len(rec.Events(EventOfferCreated)); got != 1 {
		t.Fatalf("expected recorder to receive the event despite the failure, got %d", got)
	}
	if got := len(rec.Events(EventMatchAccepted)); got != 0 {
		t.Fatalf("expected no %s events, got %d", EventMatchAccepted, got)
	}
}

func TestMulti_NoErrors(t *testing.T) {
	if err := (Multi{Nop{}, NewRecorder()}).Notify(context.Background(), Event{}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}
