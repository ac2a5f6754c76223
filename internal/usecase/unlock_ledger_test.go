package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"shift-match/internal/domain/job"
	"shift-match/internal/domain/match"
	"shift-match/internal/notify"

	"github.com/google/uuid"
)

func confirmation(matchID uuid.UUID, ref string) PaymentConfirmation {
	return PaymentConfirmation{
		Reference: ref,
		MatchID:   matchID,
		Amount:    DefaultLeadPrice,
		Currency:  "usd",
		Status:    "Completed",
	}
}

func TestUnlock_ConcurrentDuplicatesUnlockOnce(t *testing.T) {
	f := newFixture(t)
	j, w, m := f.proposeOne(t)
	if _, err := f.uc.RespondToMatch(context.Background(), m.ID, w.ID, match.EventAccept); err != nil {
		t.Fatalf("accept: %v", err)
	}

	const callers = 16
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes = map[UnlockOutcome]int{}
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.uc.UnlockMatch(context.Background(), m.ID, j.EmployerID, confirmation(m.ID, "pay_123"))
			if err != nil {
				t.Errorf("unlock: %v", err)
				return
			}
			if res.Contact.FullName == "" {
				t.Errorf("expected contact in %s result", res.Outcome)
			}
			mu.Lock()
			outcomes[res.Outcome]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if outcomes[OutcomeUnlocked] != 1 || outcomes[OutcomeAlreadyUnlocked] != callers-1 {
		t.Fatalf("expected exactly one first-time unlock, got %v", outcomes)
	}
	if f.store.UnlockCount() != 1 {
		t.Fatalf("expected one ledger entry, got %d", f.store.UnlockCount())
	}
	if got := len(f.notifier.Events(notify.EventContactUnlocked)); got != 1 {
		t.Fatalf("expected one contact.unlocked event, got %d", got)
	}

	stored, _ := f.store.Matches().GetByID(context.Background(), m.ID)
	if stored.Status != match.StatusUnlocked || stored.PaymentRef == nil || *stored.PaymentRef != "pay_123" || stored.UnlockedAt == nil {
		t.Fatalf("unexpected stored match: %+v", stored)
	}
}

func TestUnlock_Rejections(t *testing.T) {
	f := newFixture(t)
	j, w, m := f.proposeOne(t)

	if _, err := f.uc.UnlockMatch(context.Background(), m.ID, j.EmployerID, confirmation(m.ID, "pay_early")); !errors.Is(err, ErrNotAccepted) {
		t.Fatalf("expected ErrNotAccepted before accept, got %v", err)
	}

	if _, err := f.uc.RespondToMatch(context.Background(), m.ID, w.ID, match.EventAccept); err != nil {
		t.Fatalf("accept: %v", err)
	}

	tests := []struct {
		name     string
		employer uuid.UUID
		conf     func(PaymentConfirmation) PaymentConfirmation
		want     error
	}{
		{name: "other employer", employer: uuid.New(), conf: func(c PaymentConfirmation) PaymentConfirmation { return c }, want: ErrNotOwner},
		{name: "missing reference", employer: j.EmployerID, conf: func(c PaymentConfirmation) PaymentConfirmation {
			c.Reference = "  "
			return c
		}, want: ErrPaymentInvalid},
		{name: "pending payment", employer: j.EmployerID, conf: func(c PaymentConfirmation) PaymentConfirmation {
			c.Status = "pending"
			return c
		}, want: ErrPaymentInvalid},
		{name: "other match", employer: j.EmployerID, conf: func(c PaymentConfirmation) PaymentConfirmation {
			c.MatchID = uuid.New()
			return c
		}, want: ErrPaymentInvalid},
		{name: "below lead price", employer: j.EmployerID, conf: func(c PaymentConfirmation) PaymentConfirmation {
			c.Amount = 1
			return c
		}, want: ErrPaymentInvalid},
		{name: "bad currency", employer: j.EmployerID, conf: func(c PaymentConfirmation) PaymentConfirmation {
			c.Currency = "dollars"
			return c
		}, want: ErrPaymentInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.UnlockMatch(context.Background(), m.ID, tt.employer, tt.conf(confirmation(m.ID, "pay_ok")))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if f.matchStatus(t, m.ID) != match.StatusAccepted {
				t.Fatalf("match must stay accepted")
			}
		})
	}

	if _, err := f.uc.UnlockMatch(context.Background(), uuid.New(), j.EmployerID, confirmation(uuid.Nil, "x")); !errors.Is(err, ErrPaymentInvalid) {
		t.Fatalf("expected ErrPaymentInvalid for a confirmation without match id, got %v", err)
	}
}

func TestUnlock_ReusedPaymentReferenceIsInvalid(t *testing.T) {
	f := newFixture(t)
	j, w1, m1 := f.proposeOne(t)
	w2 := f.addWorker(nil)

	j2 := f.addJob(func(jj *job.Job) {
		jj.EmployerID = j.EmployerID
		jj.WorkersNeeded = 1
	})
	res, err := f.uc.TriggerMatching(context.Background(), j2.ID)
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	var m2 match.JobMatch
	for _, m := range res.Matches {
		if m.WorkerID == w2.ID {
			m2 = m
		}
	}
	if m2.ID == uuid.Nil {
		t.Fatalf("expected a match for the second worker")
	}

	for _, p := range []struct {
		id     uuid.UUID
		worker uuid.UUID
	}{{m1.ID, w1.ID}, {m2.ID, w2.ID}} {
		if _, err := f.uc.RespondToMatch(context.Background(), p.id, p.worker, match.EventAccept); err != nil {
			t.Fatalf("accept: %v", err)
		}
	}

	if _, err := f.uc.UnlockMatch(context.Background(), m1.ID, j.EmployerID, confirmation(m1.ID, "pay_shared")); err != nil {
		t.Fatalf("first unlock: %v", err)
	}
	if _, err := f.uc.UnlockMatch(context.Background(), m2.ID, j.EmployerID, confirmation(m2.ID, "pay_shared")); !errors.Is(err, ErrPaymentInvalid) {
		t.Fatalf("expected ErrPaymentInvalid for a reused reference, got %v", err)
	}
	if f.matchStatus(t, m2.ID) != match.StatusAccepted {
		t.Fatalf("second match must stay accepted")
	}
}
