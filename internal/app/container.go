package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shift-match/internal/config"
	"shift-match/internal/database"
	dbpostgres "shift-match/internal/database/postgres"
	"shift-match/internal/domain/matching"
	"shift-match/internal/infrastructure/cache"
	"shift-match/internal/infrastructure/messaging"
	"shift-match/internal/notify"
	"shift-match/internal/pkg/jwt"
	"shift-match/internal/repository"
	"shift-match/internal/repository/memory"
	"shift-match/internal/usecase"
	"shift-match/internal/ws"

	"go.uber.org/zap"
)

// Container owns every long-lived dependency of the engine.
type Container struct {
	Config config.Config
	Logger *zap.Logger

	DB        database.DB
	Memory    *memory.Store
	Redis     *cache.Redis
	Hub       *ws.Hub
	Publisher *messaging.Publisher

	Jobs    repository.JobRepository
	Workers repository.WorkerRepository
	Matches repository.JobMatchRepository

	JWT      *jwt.HMACService
	Matching *usecase.Matching
	Sweeper  *usecase.Sweeper
}

func NewContainer(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Container{Config: cfg, Logger: logger}

	if err := c.openStore(ctx); err != nil {
		return nil, err
	}

	c.Redis = cache.NewRedis(ctx, cache.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger.Named("redis"))

	c.Hub = ws.NewHub(logger.Named("ws"))
	notifiers := notify.Multi{c.Hub}
	if cfg.AMQP.URL != "" {
		pub, err := messaging.Dial(cfg.AMQP.URL, cfg.AMQP.Exchange, logger.Named("amqp"))
		if err != nil {
			// Lifecycle events still reach websocket clients.
			logger.Warn("rabbitmq unavailable, publishing disabled", zap.Error(err))
		} else {
			c.Publisher = pub
			notifiers = append(notifiers, pub)
		}
	}

	ranker, err := matching.NewRanker(cfg.Match.Ranker())
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	c.JWT = jwt.NewHMACService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)
	c.Matching = usecase.NewMatchingUsecase(
		c.Jobs, c.Workers, c.Matches, ranker, notifiers,
		usecase.LifecycleConfig{ResponseWindow: cfg.Match.ResponseWindow, LeadPrice: cfg.Match.LeadPrice},
		logger.Named("matching"),
	)
	c.Sweeper = usecase.NewSweeper(c.Matching, c.Matches, c.Redis, usecase.SweeperConfig{
		Interval:  cfg.Sweep.Interval,
		BatchSize: cfg.Sweep.BatchSize,
		Workers:   cfg.Sweep.Workers,
		RateLimit: cfg.Sweep.RateLimit,
	}, logger.Named("sweeper"))

	return c, nil
}

func (c *Container) openStore(ctx context.Context) error {
	switch c.Config.Store.Driver {
	case config.StoreMemory:
		c.Memory = memory.NewStore()
		c.Jobs = c.Memory.Jobs()
		c.Workers = c.Memory.Workers()
		c.Matches = c.Memory.Matches()
		c.Logger.Warn("using in-memory store, data is lost on exit")
		return nil
	case config.StorePostgres:
		connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		db, err := dbpostgres.Connect(connCtx, c.Config.Database)
		if err != nil {
			return err
		}
		c.DB = db
		c.Jobs = repository.NewPostgresJobRepository(db)
		c.Workers = repository.NewPostgresWorkerRepository(db)
		c.Matches = repository.NewPostgresJobMatchRepository(db)
		return nil
	default:
		return fmt.Errorf("unknown store driver %q", c.Config.Store.Driver)
	}
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Publisher != nil {
		errs = append(errs, c.Publisher.Close())
	}
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}
