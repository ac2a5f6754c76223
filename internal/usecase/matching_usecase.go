package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shift-match/internal/domain/geo"
	"shift-match/internal/domain/job"
	"shift-match/internal/domain/match"
	"shift-match/internal/domain/matching"
	"shift-match/internal/domain/worker"
	"shift-match/internal/notify"
	"shift-match/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultResponseWindow = 24 * time.Hour
	DefaultLeadPrice      = 3.0
)

type MatchingUsecase interface {
	TriggerMatching(ctx context.Context, jobID uuid.UUID) (TriggerResult, error)
	RespondToMatch(ctx context.Context, matchID, workerID uuid.UUID, decision match.Event) (match.JobMatch, error)
	UnlockMatch(ctx context.Context, matchID, employerID uuid.UUID, conf PaymentConfirmation) (UnlockResult, error)
	Expire(ctx context.Context, matchID uuid.UUID, now time.Time) (bool, error)
	ListJobMatches(ctx context.Context, jobID, employerID uuid.UUID, status string) ([]MatchView, error)
	ListWorkerOffers(ctx context.Context, workerID uuid.UUID) ([]match.JobMatch, error)
	AuthorizeJob(ctx context.Context, jobID, employerID uuid.UUID) error
}

// LifecycleConfig holds the defaults applied to matches of jobs that do not
// override them.
type LifecycleConfig struct {
	ResponseWindow time.Duration
	LeadPrice      float64
}

type TriggerResult struct {
	Created           int
	Skipped           int
	Failed            int
	JobStatus         job.Status
	NoEligibleWorkers bool
	Matches           []match.JobMatch
}

// MatchView is a match as seen by the employer. Contact is set only once the
// match is unlocked.
type MatchView struct {
	Match   match.JobMatch
	Contact *worker.Contact
}

type Matching struct {
	jobs     repository.JobRepository
	workers  repository.WorkerRepository
	matches  repository.JobMatchRepository
	ranker   *matching.Ranker
	ledger   *UnlockLedger
	notifier notify.Notifier
	cfg      LifecycleConfig
	logger   *zap.Logger
	now      func() time.Time
}

func NewMatchingUsecase(
	jobs repository.JobRepository,
	workers repository.WorkerRepository,
	matches repository.JobMatchRepository,
	ranker *matching.Ranker,
	notifier notify.Notifier,
	cfg LifecycleConfig,
	logger *zap.Logger,
) *Matching {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if cfg.ResponseWindow <= 0 {
		cfg.ResponseWindow = DefaultResponseWindow
	}
	if cfg.LeadPrice <= 0 {
		cfg.LeadPrice = DefaultLeadPrice
	}
	u := &Matching{
		jobs:     jobs,
		workers:  workers,
		matches:  matches,
		ranker:   ranker,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
	u.ledger = NewUnlockLedger(matches, workers, notifier, logger)
	u.ledger.now = func() time.Time { return u.now() }
	return u
}

// SetClock replaces the time source used for deadlines and responses.
func (u *Matching) SetClock(now func() time.Time) {
	if now != nil {
		u.now = now
	}
}

func (u *Matching) TriggerMatching(ctx context.Context, jobID uuid.UUID) (TriggerResult, error) {
	if jobID == uuid.Nil {
		return TriggerResult{}, ErrJobNotFound
	}

	j, err := u.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			return TriggerResult{}, ErrJobNotFound
		}
		u.logger.Error("load job", zap.String("job_id", jobID.String()), zap.Error(err))
		return TriggerResult{}, ErrInternal
	}
	if !j.Status.Matchable() {
		return TriggerResult{JobStatus: j.Status}, ErrInvalidJobState
	}
	if err := j.Validate(); err != nil {
		return TriggerResult{JobStatus: j.Status}, fmt.Errorf("%w: %v", ErrInvalidJobState, err)
	}

	box := geo.Around(j.Location, u.ranker.Radius(j))
	candidates, err := u.workers.ListActiveWithin(ctx, box)
	if err != nil {
		u.logger.Error("list candidate workers", zap.String("job_id", jobID.String()), zap.Error(err))
		return TriggerResult{JobStatus: j.Status}, ErrInternal
	}

	ranked := u.ranker.Rank(j, candidates)
	res := TriggerResult{
		JobStatus:         j.Status,
		NoEligibleWorkers: len(ranked) == 0,
		Matches:           make([]match.JobMatch, 0, len(ranked)),
	}

	now := u.now()
	window := u.responseWindow(j)
	price := u.leadPrice(j)
	for _, r := range ranked {
		m := match.JobMatch{
			ID:               uuid.New(),
			JobID:            j.ID,
			WorkerID:         r.Worker.ID,
			EmployerID:       j.EmployerID,
			Score:            r.Score,
			DistanceKm:       r.DistanceKm,
			Status:           match.StatusProposed,
			CreatedAt:        now,
			ResponseDeadline: now.Add(window),
			LeadPrice:        price,
		}

		created, err := u.matches.CreateIfAbsent(ctx, m)
		if err != nil {
			res.Failed++
			u.logger.Warn("create match",
				zap.String("job_id", j.ID.String()),
				zap.String("worker_id", r.Worker.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if !created {
			res.Skipped++
			continue
		}

		res.Created++
		res.Matches = append(res.Matches, m)
		u.emit(ctx, notify.Event{
			Type:       notify.EventOfferCreated,
			JobID:      j.ID,
			MatchID:    m.ID,
			OccurredAt: now,
			Payload:    offerPayload(j, m),
			Recipients: []uuid.UUID{m.WorkerID},
		})
	}

	if res.Created > 0 && j.Status == job.StatusPublished {
		ok, err := u.jobs.UpdateStatus(ctx, j.ID, job.StatusPublished, job.StatusMatching)
		switch {
		case err != nil:
			u.logger.Warn("move job to matching", zap.String("job_id", j.ID.String()), zap.Error(err))
		case ok:
			res.JobStatus = job.StatusMatching
		}
	}

	u.logger.Info("matching triggered",
		zap.String("job_id", j.ID.String()),
		zap.Int("candidates", len(candidates)),
		zap.Int("created", res.Created),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

func (u *Matching) RespondToMatch(ctx context.Context, matchID, workerID uuid.UUID, decision match.Event) (match.JobMatch, error) {
	if decision != match.EventAccept && decision != match.EventReject {
		return match.JobMatch{}, ErrInvalidInput
	}

	m, err := u.loadMatch(ctx, matchID)
	if err != nil {
		return match.JobMatch{}, err
	}
	if m.WorkerID != workerID {
		return match.JobMatch{}, ErrNotOwner
	}

	now := u.now()
	next, err := match.Transition(m.Status, decision, now, m.ResponseDeadline)
	if errors.Is(err, match.ErrDeadlineExceeded) {
		if _, xerr := u.Expire(ctx, m.ID, now); xerr != nil && !errors.Is(xerr, match.ErrInvalidTransition) {
			u.logger.Warn("expire late match", zap.String("match_id", m.ID.String()), zap.Error(xerr))
		}
		if cur, gerr := u.matches.GetByID(ctx, m.ID); gerr == nil {
			m = cur
		}
		return m, match.ErrDeadlineExceeded
	}
	if err != nil {
		return m, err
	}

	respondedAt := now
	ok, err := u.matches.CompareAndSetStatus(ctx, m.ID, m.Status, next, &respondedAt)
	if err != nil {
		u.logger.Error("respond to match", zap.String("match_id", m.ID.String()), zap.Error(err))
		return m, ErrInternal
	}
	if !ok {
		// Another transition won the race; m.Status is stale.
		if cur, gerr := u.matches.GetByID(ctx, m.ID); gerr == nil {
			m = cur
		}
		return m, match.ErrInvalidTransition
	}

	m.Status = next
	m.RespondedAt = &respondedAt

	evtType := notify.EventMatchRejected
	if next == match.StatusAccepted {
		evtType = notify.EventMatchAccepted
	}
	u.emit(ctx, notify.Event{
		Type:       evtType,
		JobID:      m.JobID,
		MatchID:    m.ID,
		OccurredAt: now,
		Recipients: []uuid.UUID{m.EmployerID},
	})

	if next == match.StatusAccepted {
		u.checkSatisfied(ctx, m.JobID, now)
	}
	return m, nil
}

func (u *Matching) UnlockMatch(ctx context.Context, matchID, employerID uuid.UUID, conf PaymentConfirmation) (UnlockResult, error) {
	return u.ledger.Unlock(ctx, matchID, employerID, conf)
}

// Expire moves an overdue proposed match to expired. It reports false without
// error when the match already left proposed.
func (u *Matching) Expire(ctx context.Context, matchID uuid.UUID, now time.Time) (bool, error) {
	m, err := u.loadMatch(ctx, matchID)
	if err != nil {
		return false, err
	}
	if _, err := match.Transition(m.Status, match.EventExpire, now, m.ResponseDeadline); err != nil {
		return false, err
	}

	ok, err := u.matches.CompareAndSetStatus(ctx, m.ID, match.StatusProposed, match.StatusExpired, nil)
	if err != nil {
		u.logger.Error("expire match", zap.String("match_id", m.ID.String()), zap.Error(err))
		return false, ErrInternal
	}
	if ok {
		u.emit(ctx, notify.Event{
			Type:       notify.EventMatchExpired,
			JobID:      m.JobID,
			MatchID:    m.ID,
			OccurredAt: now,
			Recipients: []uuid.UUID{m.WorkerID},
		})
	}
	return ok, nil
}

// ListJobMatches returns the job's matches for its employer. An empty status
// lists accepted matches; "all" lists every status.
func (u *Matching) ListJobMatches(ctx context.Context, jobID, employerID uuid.UUID, status string) ([]MatchView, error) {
	j, err := u.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, ErrInternal
	}
	if j.EmployerID != employerID {
		return nil, ErrNotOwner
	}

	var filter []match.Status
	switch s := strings.ToLower(strings.TrimSpace(status)); s {
	case "":
		filter = []match.Status{match.StatusAccepted}
	case "all":
	default:
		st, err := match.ParseStatus(s)
		if err != nil {
			return nil, ErrInvalidInput
		}
		filter = []match.Status{st}
	}

	ms, err := u.matches.ListByJob(ctx, jobID, filter...)
	if err != nil {
		u.logger.Error("list job matches", zap.String("job_id", jobID.String()), zap.Error(err))
		return nil, ErrInternal
	}

	out := make([]MatchView, 0, len(ms))
	for _, m := range ms {
		v := MatchView{Match: m}
		if m.ContactVisible() {
			c, err := u.workers.GetContact(ctx, m.WorkerID)
			if err != nil {
				u.logger.Warn("load worker contact", zap.String("worker_id", m.WorkerID.String()), zap.Error(err))
			} else {
				v.Contact = &c
			}
		}
		out = append(out, v)
	}
	return out, nil
}

// AuthorizeJob reports ErrNotOwner unless employerID posted the job.
func (u *Matching) AuthorizeJob(ctx context.Context, jobID, employerID uuid.UUID) error {
	j, err := u.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			return ErrJobNotFound
		}
		u.logger.Error("load job", zap.String("job_id", jobID.String()), zap.Error(err))
		return ErrInternal
	}
	if j.EmployerID != employerID {
		return ErrNotOwner
	}
	return nil
}

func (u *Matching) ListWorkerOffers(ctx context.Context, workerID uuid.UUID) ([]match.JobMatch, error) {
	if workerID == uuid.Nil {
		return nil, ErrInvalidInput
	}
	ms, err := u.matches.ListByWorker(ctx, workerID)
	if err != nil {
		u.logger.Error("list worker offers", zap.String("worker_id", workerID.String()), zap.Error(err))
		return nil, ErrInternal
	}
	return ms, nil
}

// checkSatisfied moves the job to filled once enough workers accepted.
func (u *Matching) checkSatisfied(ctx context.Context, jobID uuid.UUID, now time.Time) {
	j, err := u.jobs.GetByID(ctx, jobID)
	if err != nil {
		u.logger.Warn("load job after accept", zap.String("job_id", jobID.String()), zap.Error(err))
		return
	}
	if !j.Status.Matchable() {
		return
	}

	n, err := u.matches.CountByJobAndStatuses(ctx, jobID, match.StatusAccepted, match.StatusUnlocked)
	if err != nil {
		u.logger.Warn("count accepted matches", zap.String("job_id", jobID.String()), zap.Error(err))
		return
	}
	if n < j.Needed() {
		return
	}

	ok, err := u.jobs.UpdateStatus(ctx, jobID, j.Status, job.StatusFilled)
	if err != nil {
		u.logger.Warn("move job to filled", zap.String("job_id", jobID.String()), zap.Error(err))
		return
	}
	if ok {
		u.emit(ctx, notify.Event{
			Type:       notify.EventJobSatisfied,
			JobID:      jobID,
			OccurredAt: now,
			Payload:    map[string]int{"accepted": n, "needed": j.Needed()},
			Recipients: []uuid.UUID{j.EmployerID},
		})
	}
}

func (u *Matching) loadMatch(ctx context.Context, matchID uuid.UUID) (match.JobMatch, error) {
	if matchID == uuid.Nil {
		return match.JobMatch{}, ErrMatchNotFound
	}
	m, err := u.matches.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, match.ErrNotFound) {
			return match.JobMatch{}, ErrMatchNotFound
		}
		u.logger.Error("load match", zap.String("match_id", matchID.String()), zap.Error(err))
		return match.JobMatch{}, ErrInternal
	}
	return m, nil
}

func (u *Matching) emit(ctx context.Context, evt notify.Event) {
	if err := u.notifier.Notify(ctx, evt); err != nil {
		u.logger.Warn("notify",
			zap.String("event", evt.Type),
			zap.String("match_id", evt.MatchID.String()),
			zap.Error(err),
		)
	}
}

func (u *Matching) responseWindow(j job.Job) time.Duration {
	if j.ResponseWindow > 0 {
		return j.ResponseWindow
	}
	return u.cfg.ResponseWindow
}

func (u *Matching) leadPrice(j job.Job) float64 {
	if j.LeadPrice > 0 {
		return j.LeadPrice
	}
	return u.cfg.LeadPrice
}

func offerPayload(j job.Job, m match.JobMatch) map[string]any {
	return map[string]any{
		"title":             j.Title,
		"score":             m.Score,
		"distance_km":       m.DistanceKm,
		"response_deadline": m.ResponseDeadline,
	}
}
