package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"shift-match/internal/domain/geo"
	"shift-match/internal/domain/match"
	"shift-match/internal/domain/worker"
	"shift-match/internal/repository"

	"github.com/google/uuid"
)

func TestMatchStore_CreateIfAbsentOncePerOpenPair(t *testing.T) {
	s := NewStore().Matches()
	ctx := context.Background()
	jobID, workerID := uuid.New(), uuid.New()

	var created atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.CreateIfAbsent(ctx, match.JobMatch{JobID: jobID, WorkerID: workerID})
			if err != nil {
				t.Errorf("unexpected err: %v", err)
			}
			if ok {
				created.Add(1)
			}
		}()
	}
	wg.Wait()

	if created.Load() != 1 {
		t.Fatalf("expected exactly one proposed match, got %d", created.Load())
	}

	open, _ := s.ListByJob(ctx, jobID, match.StatusProposed)
	if ok, _ := s.CompareAndSetStatus(ctx, open[0].ID, match.StatusProposed, match.StatusRejected, nil); !ok {
		t.Fatalf("expected reject to succeed")
	}
	if ok, _ := s.CreateIfAbsent(ctx, match.JobMatch{JobID: jobID, WorkerID: workerID}); !ok {
		t.Fatalf("expected a new proposal once the previous one closed")
	}
}

func TestMatchStore_AcceptedAndUnlockedHoldThePair(t *testing.T) {
	s := NewStore().Matches()
	ctx := context.Background()
	jobID, workerID := uuid.New(), uuid.New()
	m := match.JobMatch{ID: uuid.New(), JobID: jobID, WorkerID: workerID}
	if ok, _ := s.CreateIfAbsent(ctx, m); !ok {
		t.Fatalf("expected first proposal to be created")
	}

	if ok, _ := s.CompareAndSetStatus(ctx, m.ID, match.StatusProposed, match.StatusAccepted, nil); !ok {
		t.Fatalf("expected accept to succeed")
	}
	if ok, _ := s.CreateIfAbsent(ctx, match.JobMatch{JobID: jobID, WorkerID: workerID}); ok {
		t.Fatalf("accepted match must block a new proposal")
	}

	ok, err := s.Unlock(ctx, repository.UnlockRecord{MatchID: m.ID, PaymentRef: "pay-hold", Amount: 3, Currency: "INR", At: time.Now()})
	if err != nil || !ok {
		t.Fatalf("unlock: %v %v", ok, err)
	}
	if ok, _ := s.CreateIfAbsent(ctx, match.JobMatch{JobID: jobID, WorkerID: workerID}); ok {
		t.Fatalf("unlocked match must block a new proposal")
	}

	if n, _ := s.CountByJobAndStatuses(ctx, jobID, match.StatusAccepted, match.StatusUnlocked); n != 1 {
		t.Fatalf("expected one distinct worker, got %d", n)
	}
}

func TestMatchStore_CountByJobCountsDistinctWorkers(t *testing.T) {
	s := NewStore().Matches()
	ctx := context.Background()
	jobID, workerID := uuid.New(), uuid.New()

	for i := 0; i < 2; i++ {
		m := match.JobMatch{ID: uuid.New(), JobID: jobID, WorkerID: workerID}
		if ok, _ := s.CreateIfAbsent(ctx, m); !ok {
			t.Fatalf("round %d: expected proposal", i)
		}
		if ok, _ := s.CompareAndSetStatus(ctx, m.ID, match.StatusProposed, match.StatusRejected, nil); !ok {
			t.Fatalf("round %d: expected reject", i)
		}
	}
	other := match.JobMatch{ID: uuid.New(), JobID: jobID, WorkerID: uuid.New()}
	_, _ = s.CreateIfAbsent(ctx, other)

	if n, _ := s.CountByJobAndStatuses(ctx, jobID, match.StatusRejected, match.StatusProposed); n != 2 {
		t.Fatalf("expected 2 distinct workers, got %d", n)
	}
}

func TestMatchStore_CompareAndSetStatus(t *testing.T) {
	s := NewStore().Matches()
	ctx := context.Background()
	m := match.JobMatch{ID: uuid.New(), JobID: uuid.New(), WorkerID: uuid.New()}
	if _, err := s.CreateIfAbsent(ctx, m); err != nil {
		t.Fatalf("create: %v", err)
	}

	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	if ok, _ := s.CompareAndSetStatus(ctx, m.ID, match.StatusAccepted, match.StatusUnlocked, nil); ok {
		t.Fatalf("expected CAS from wrong status to fail")
	}
	if ok, _ := s.CompareAndSetStatus(ctx, m.ID, match.StatusProposed, match.StatusAccepted, &at); !ok {
		t.Fatalf("expected CAS to succeed")
	}
	got, err := s.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != match.StatusAccepted || got.RespondedAt == nil || !got.RespondedAt.Equal(at) {
		t.Fatalf("unexpected match: %+v", got)
	}
	if _, err := s.GetByID(ctx, uuid.New()); !errors.Is(err, match.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMatchStore_UnlockRejectsReusedPaymentRef(t *testing.T) {
	store := NewStore()
	s := store.Matches()
	ctx := context.Background()

	first := match.JobMatch{ID: uuid.New(), JobID: uuid.New(), WorkerID: uuid.New()}
	second := match.JobMatch{ID: uuid.New(), JobID: uuid.New(), WorkerID: uuid.New()}
	for _, m := range []match.JobMatch{first, second} {
		_, _ = s.CreateIfAbsent(ctx, m)
		_, _ = s.CompareAndSetStatus(ctx, m.ID, match.StatusProposed, match.StatusAccepted, nil)
	}

	now := time.Now().UTC()
	if ok, err := s.Unlock(ctx, repository.UnlockRecord{MatchID: first.ID, PaymentRef: "pay_1", At: now}); !ok || err != nil {
		t.Fatalf("expected unlock, got %v %v", ok, err)
	}
	if ok, err := s.Unlock(ctx, repository.UnlockRecord{MatchID: first.ID, PaymentRef: "pay_2", At: now}); ok || err != nil {
		t.Fatalf("expected second unlock to lose CAS, got %v %v", ok, err)
	}
	if _, err := s.Unlock(ctx, repository.UnlockRecord{MatchID: second.ID, PaymentRef: "pay_1", At: now}); !errors.Is(err, repository.ErrDuplicatePaymentRef) {
		t.Fatalf("expected ErrDuplicatePaymentRef, got %v", err)
	}
	if store.UnlockCount() != 1 {
		t.Fatalf("expected one ledger entry, got %d", store.UnlockCount())
	}
}

func TestWorkerStore_ListActiveWithin(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	center := geo.Point{Lat: 19.07, Lng: 72.87}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	near := worker.Worker{ID: uuid.New(), Location: center, Status: worker.StatusActive, RegisteredAt: base.Add(time.Hour)}
	earlier := worker.Worker{ID: uuid.New(), Location: center, Status: worker.StatusActive, RegisteredAt: base}
	suspended := worker.Worker{ID: uuid.New(), Location: center, Status: worker.StatusSuspended, RegisteredAt: base}
	far := worker.Worker{ID: uuid.New(), Location: geo.Point{Lat: 28.6, Lng: 77.2}, Status: worker.StatusActive, RegisteredAt: base}
	for _, w := range []worker.Worker{near, earlier, suspended, far} {
		store.PutWorker(w, worker.Contact{FullName: "x"})
	}

	got, err := store.Workers().ListActiveWithin(ctx, geo.Around(center, 10))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 2 || got[0].ID != earlier.ID || got[1].ID != near.ID {
		t.Fatalf("unexpected workers: %+v", got)
	}
	if _, err := store.Workers().GetContact(ctx, uuid.New()); !errors.Is(err, worker.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
