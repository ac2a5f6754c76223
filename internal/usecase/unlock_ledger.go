package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shift-match/internal/domain/match"
	"shift-match/internal/domain/worker"
	"shift-match/internal/notify"
	"shift-match/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const PaymentStatusCompleted = "completed"

// PaymentConfirmation is what the payment gateway reports for a lead purchase.
// Only its structure is checked here; settlement is the gateway's concern.
type PaymentConfirmation struct {
	Reference string    `json:"reference" validate:"required,max=128"`
	MatchID   uuid.UUID `json:"match_id" validate:"required"`
	Amount    float64   `json:"amount" validate:"gt=0"`
	Currency  string    `json:"currency" validate:"required,len=3,alpha"`
	Status    string    `json:"status" validate:"required,eq=completed"`
}

type UnlockOutcome string

const (
	OutcomeUnlocked        UnlockOutcome = "unlocked"
	OutcomeAlreadyUnlocked UnlockOutcome = "already_unlocked"
)

type UnlockResult struct {
	Outcome UnlockOutcome
	Match   match.JobMatch
	Contact worker.Contact
}

// UnlockLedger records at most one paid unlock per match.
type UnlockLedger struct {
	matches  repository.JobMatchRepository
	workers  repository.WorkerRepository
	notifier notify.Notifier
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

func NewUnlockLedger(matches repository.JobMatchRepository, workers repository.WorkerRepository, notifier notify.Notifier, logger *zap.Logger) *UnlockLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &UnlockLedger{
		matches:  matches,
		workers:  workers,
		notifier: notifier,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (l *UnlockLedger) Unlock(ctx context.Context, matchID, employerID uuid.UUID, conf PaymentConfirmation) (UnlockResult, error) {
	conf.Reference = strings.TrimSpace(conf.Reference)
	conf.Currency = strings.ToUpper(strings.TrimSpace(conf.Currency))
	conf.Status = strings.ToLower(strings.TrimSpace(conf.Status))
	if err := l.validate.Struct(conf); err != nil {
		return UnlockResult{}, fmt.Errorf("%w: %v", ErrPaymentInvalid, err)
	}
	if conf.MatchID != matchID {
		return UnlockResult{}, fmt.Errorf("%w: confirmation is for another match", ErrPaymentInvalid)
	}

	m, err := l.load(ctx, matchID)
	if err != nil {
		return UnlockResult{}, err
	}
	if m.EmployerID != employerID {
		return UnlockResult{}, ErrNotOwner
	}

	now := l.now()
	if _, err := match.Transition(m.Status, match.EventUnlock, now, m.ResponseDeadline); err != nil {
		if errors.Is(err, match.ErrAlreadyUnlocked) {
			return l.alreadyUnlocked(ctx, m)
		}
		return UnlockResult{Match: m}, ErrNotAccepted
	}
	if conf.Amount < m.LeadPrice {
		return UnlockResult{Match: m}, fmt.Errorf("%w: amount %.2f below lead price %.2f", ErrPaymentInvalid, conf.Amount, m.LeadPrice)
	}

	ok, err := l.matches.Unlock(ctx, repository.UnlockRecord{
		MatchID:    m.ID,
		PaymentRef: conf.Reference,
		Amount:     conf.Amount,
		Currency:   conf.Currency,
		At:         now,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicatePaymentRef) {
			return UnlockResult{Match: m}, fmt.Errorf("%w: %v", ErrPaymentInvalid, err)
		}
		l.logger.Error("unlock match", zap.String("match_id", m.ID.String()), zap.Error(err))
		return UnlockResult{Match: m}, ErrInternal
	}
	if !ok {
		cur, err := l.load(ctx, m.ID)
		if err != nil {
			return UnlockResult{}, err
		}
		if cur.Status == match.StatusUnlocked {
			return l.alreadyUnlocked(ctx, cur)
		}
		return UnlockResult{Match: cur}, ErrNotAccepted
	}

	ref := conf.Reference
	m.Status = match.StatusUnlocked
	m.UnlockedAt = &now
	m.PaymentRef = &ref

	contact, err := l.workers.GetContact(ctx, m.WorkerID)
	if err != nil {
		l.logger.Error("load contact after unlock", zap.String("match_id", m.ID.String()), zap.Error(err))
		return UnlockResult{Outcome: OutcomeUnlocked, Match: m}, ErrInternal
	}

	if err := l.notifier.Notify(ctx, notify.Event{
		Type:       notify.EventContactUnlocked,
		JobID:      m.JobID,
		MatchID:    m.ID,
		OccurredAt: now,
		Recipients: []uuid.UUID{m.EmployerID, m.WorkerID},
	}); err != nil {
		l.logger.Warn("notify", zap.String("event", notify.EventContactUnlocked), zap.Error(err))
	}

	l.logger.Info("contact unlocked",
		zap.String("match_id", m.ID.String()),
		zap.String("payment_ref", ref),
		zap.Float64("amount", conf.Amount),
	)
	return UnlockResult{Outcome: OutcomeUnlocked, Match: m, Contact: contact}, nil
}

func (l *UnlockLedger) alreadyUnlocked(ctx context.Context, m match.JobMatch) (UnlockResult, error) {
	contact, err := l.workers.GetContact(ctx, m.WorkerID)
	if err != nil {
		l.logger.Error("load contact", zap.String("match_id", m.ID.String()), zap.Error(err))
		return UnlockResult{Outcome: OutcomeAlreadyUnlocked, Match: m}, ErrInternal
	}
	return UnlockResult{Outcome: OutcomeAlreadyUnlocked, Match: m, Contact: contact}, nil
}

func (l *UnlockLedger) load(ctx context.Context, matchID uuid.UUID) (match.JobMatch, error) {
	m, err := l.matches.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, match.ErrNotFound) {
			return match.JobMatch{}, ErrMatchNotFound
		}
		l.logger.Error("load match", zap.String("match_id", matchID.String()), zap.Error(err))
		return match.JobMatch{}, ErrInternal
	}
	return m, nil
}
