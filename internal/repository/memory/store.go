// Package memory is a process-local store used for local runs and tests.
// All mutations are compare-and-set under a single mutex.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"shift-match/internal/domain/geo"
	"shift-match/internal/domain/job"
	"shift-match/internal/domain/match"
	"shift-match/internal/domain/worker"
	"shift-match/internal/repository"

	"github.com/google/uuid"
)

type pairKey struct {
	jobID    uuid.UUID
	workerID uuid.UUID
}

type workerRecord struct {
	worker  worker.Worker
	contact worker.Contact
}

type Store struct {
	mu sync.Mutex

	jobs    map[uuid.UUID]job.Job
	workers map[uuid.UUID]workerRecord
	matches map[uuid.UUID]match.JobMatch
	// held indexes proposed, accepted and unlocked matches by (job, worker).
	held     map[pairKey]uuid.UUID
	unlocks  map[uuid.UUID]repository.UnlockRecord
	payments map[string]uuid.UUID
}

// Jobs, Workers and Matches return repository views sharing this store's state.
func (s *Store) Jobs() *JobStore { return &JobStore{s: s} }

func (s *Store) Workers() *WorkerStore { return &WorkerStore{s: s} }

func (s *Store) Matches() *MatchStore { return &MatchStore{s: s} }

type JobStore struct{ s *Store }

type WorkerStore struct{ s *Store }

type MatchStore struct{ s *Store }

var (
	_ repository.JobRepository      = (*JobStore)(nil)
	_ repository.WorkerRepository   = (*WorkerStore)(nil)
	_ repository.JobMatchRepository = (*MatchStore)(nil)
)

func NewStore() *Store {
	return &Store{
		jobs:     map[uuid.UUID]job.Job{},
		workers:  map[uuid.UUID]workerRecord{},
		matches:  map[uuid.UUID]match.JobMatch{},
		held:     map[pairKey]uuid.UUID{},
		unlocks:  map[uuid.UUID]repository.UnlockRecord{},
		payments: map[string]uuid.UUID{},
	}
}

func (s *Store) PutJob(j job.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.ID] = j
}

func (s *Store) PutWorker(w worker.Worker, c worker.Contact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers[w.ID] = workerRecord{worker: w, contact: c}
}

func (r *JobStore) GetByID(_ context.Context, jobID uuid.UUID) (job.Job, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[jobID]
	if !ok {
		return job.Job{}, job.ErrNotFound
	}
	return j, nil
}

func (r *JobStore) UpdateStatus(_ context.Context, jobID uuid.UUID, from, to job.Status) (bool, error) {
	s := r.s
	if !job.CanTransition(from, to) {
		return false, job.ErrInvalidTransition
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[jobID]
	if !ok || j.Status != from {
		return false, nil
	}
	j.Status = to
	j.UpdatedAt = time.Now().UTC()
	s.jobs[jobID] = j
	return true, nil
}

func (r *WorkerStore) ListActiveWithin(_ context.Context, box geo.BoundingBox) ([]worker.Worker, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]worker.Worker, 0)
	for _, rec := range s.workers {
		if rec.worker.Status != worker.StatusActive || !box.Contains(rec.worker.Location) {
			continue
		}
		out = append(out, rec.worker)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RegisteredAt.Equal(out[j].RegisteredAt) {
			return out[i].RegisteredAt.Before(out[j].RegisteredAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *WorkerStore) GetContact(_ context.Context, workerID uuid.UUID) (worker.Contact, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.workers[workerID]
	if !ok {
		return worker.Contact{}, worker.ErrNotFound
	}
	return rec.contact, nil
}

func (r *MatchStore) CreateIfAbsent(_ context.Context, m match.JobMatch) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{jobID: m.JobID, workerID: m.WorkerID}
	if _, exists := s.held[key]; exists {
		return false, nil
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	m.Status = match.StatusProposed
	s.matches[m.ID] = m
	s.held[key] = m.ID
	return true, nil
}

func (r *MatchStore) GetByID(_ context.Context, id uuid.UUID) (match.JobMatch, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return match.JobMatch{}, match.ErrNotFound
	}
	return m, nil
}

func (r *MatchStore) CompareAndSetStatus(_ context.Context, id uuid.UUID, from, to match.Status, respondedAt *time.Time) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok || m.Status != from {
		return false, nil
	}
	m.Status = to
	if respondedAt != nil {
		at := *respondedAt
		m.RespondedAt = &at
	}
	s.matches[id] = m
	if !to.HoldsPair() {
		delete(s.held, pairKey{jobID: m.JobID, workerID: m.WorkerID})
	}
	return true, nil
}

func (r *MatchStore) ListExpirable(_ context.Context, now time.Time, limit int) ([]match.JobMatch, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]match.JobMatch, 0)
	for _, m := range s.matches {
		if m.Status == match.StatusProposed && m.ResponseDeadline.Before(now) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ResponseDeadline.Before(out[j].ResponseDeadline) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MatchStore) CountByJobAndStatuses(_ context.Context, jobID uuid.UUID, statuses ...match.Status) (int, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[uuid.UUID]struct{}{}
	for _, m := range s.matches {
		if m.JobID == jobID && hasStatus(statuses, m.Status) {
			seen[m.WorkerID] = struct{}{}
		}
	}
	return len(seen), nil
}

func (r *MatchStore) ListByJob(_ context.Context, jobID uuid.UUID, statuses ...match.Status) ([]match.JobMatch, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]match.JobMatch, 0)
	for _, m := range s.matches {
		if m.JobID != jobID {
			continue
		}
		if len(statuses) > 0 && !hasStatus(statuses, m.Status) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MatchStore) ListByWorker(_ context.Context, workerID uuid.UUID) ([]match.JobMatch, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]match.JobMatch, 0)
	for _, m := range s.matches {
		if m.WorkerID == workerID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MatchStore) Unlock(_ context.Context, rec repository.UnlockRecord) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[rec.MatchID]
	if !ok || m.Status != match.StatusAccepted {
		return false, nil
	}
	if _, used := s.payments[rec.PaymentRef]; used {
		return false, repository.ErrDuplicatePaymentRef
	}
	at := rec.At
	ref := rec.PaymentRef
	m.Status = match.StatusUnlocked
	m.UnlockedAt = &at
	m.PaymentRef = &ref
	s.matches[m.ID] = m
	s.unlocks[m.ID] = rec
	s.payments[rec.PaymentRef] = m.ID
	return true, nil
}

// UnlockCount returns the number of ledger entries recorded.
func (s *Store) UnlockCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.unlocks)
}

func hasStatus(statuses []match.Status, s match.Status) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}
