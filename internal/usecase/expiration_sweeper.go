package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"shift-match/internal/domain/match"
	"shift-match/internal/pkg/workerpool"
	"shift-match/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const sweepLockKey = "shift-match:sweep:lock"

type Expirer interface {
	Expire(ctx context.Context, matchID uuid.UUID, now time.Time) (bool, error)
}

// Locker guards a sweep run across instances.
type Locker interface {
	AcquireLock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, owner string) error
}

type SweeperConfig struct {
	Interval  time.Duration
	BatchSize int
	Workers   int
	// RateLimit caps expirations per second across batches and ticks. Zero
	// means unlimited.
	RateLimit int
	LockTTL   time.Duration
}

type Sweeper struct {
	expirer Expirer
	matches repository.JobMatchRepository
	locker  Locker
	cfg     SweeperConfig
	limiter *rate.Limiter
	owner   string
	logger  *zap.Logger
	now     func() time.Time
}

func NewSweeper(expirer Expirer, matches repository.JobMatchRepository, locker Locker, cfg SweeperConfig, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 200
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = cfg.Interval
	}
	return &Sweeper{
		expirer: expirer,
		matches: matches,
		locker:  locker,
		cfg:     cfg,
		limiter: workerpool.NewLimiter(cfg.RateLimit),
		owner:   uuid.NewString(),
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Sweep expires every proposed match whose deadline is before now and returns
// how many it moved. Matches that left proposed concurrently are skipped.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (int, error) {
	total := 0
	for {
		batch, err := s.matches.ListExpirable(ctx, now, s.cfg.BatchSize)
		if err != nil {
			s.logger.Error("list expirable matches", zap.Error(err))
			return total, ErrInternal
		}
		if len(batch) == 0 {
			break
		}

		n := s.expireBatch(ctx, batch, now)
		total += n
		if len(batch) < s.cfg.BatchSize || n == 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			return total, err
		}
	}

	if total > 0 {
		s.logger.Info("sweep finished", zap.Int("expired", total), zap.Time("now", now))
	}
	return total, nil
}

func (s *Sweeper) expireBatch(ctx context.Context, batch []match.JobMatch, now time.Time) int {
	var opts []workerpool.Option
	if s.limiter != nil {
		opts = append(opts, workerpool.WithLimiter(s.limiter))
	}
	pool := workerpool.New(s.cfg.Workers, len(batch), opts...)
	results := pool.Run(ctx)

	var expired atomic.Int64
	for _, m := range batch {
		id := m.ID
		pool.Submit(func(ctx context.Context) error {
			ok, err := s.expirer.Expire(ctx, id, now)
			if err != nil {
				if errors.Is(err, match.ErrInvalidTransition) {
					return nil
				}
				return err
			}
			if ok {
				expired.Add(1)
			}
			return nil
		})
	}
	pool.Close()

	for r := range results {
		if r.Err != nil {
			s.logger.Warn("expire match", zap.Error(r.Err))
		}
	}
	return int(expired.Load())
}

// Start sweeps every Interval until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.logger.Info("sweeper started", zap.Duration("interval", s.cfg.Interval), zap.Int("workers", s.cfg.Workers))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	if s.locker != nil {
		ok, err := s.locker.AcquireLock(ctx, sweepLockKey, s.owner, s.cfg.LockTTL)
		if err != nil {
			s.logger.Warn("acquire sweep lock", zap.Error(err))
			return
		}
		if !ok {
			s.logger.Debug("sweep lock held elsewhere")
			return
		}
		defer func() {
			if err := s.locker.ReleaseLock(context.Background(), sweepLockKey, s.owner); err != nil {
				s.logger.Warn("release sweep lock", zap.Error(err))
			}
		}()
	}

	if _, err := s.Sweep(ctx, s.now()); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("sweep", zap.Error(err))
	}
}
