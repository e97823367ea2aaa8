package commands

import (
	"context"
	"fmt"

	"github.com/wonny/dlmm-orders/internal/events"
	"github.com/wonny/dlmm-orders/internal/execution"
	"github.com/wonny/dlmm-orders/internal/oracle"
	"github.com/wonny/dlmm-orders/internal/orders"
	"github.com/wonny/dlmm-orders/internal/pool"
	"github.com/wonny/dlmm-orders/internal/scheduler"
	"github.com/wonny/dlmm-orders/internal/scheduler/jobs"
	"github.com/wonny/dlmm-orders/internal/storage"
	"github.com/wonny/dlmm-orders/internal/wallet"
	"github.com/wonny/dlmm-orders/pkg/config"
	"github.com/wonny/dlmm-orders/pkg/database"
	"github.com/wonny/dlmm-orders/pkg/logger"
	redisx "github.com/wonny/dlmm-orders/pkg/redis"
)

// app holds the wired components shared by every command
type app struct {
	cfg    *config.Config
	logger *logger.Logger

	db     *database.DB
	redis  *redisx.Client
	sqlite *storage.SQLiteKV
	amqp   *events.AMQPPublisher

	repo    orders.Repository
	kv      pool.PositionStore // medium of the order list; nil for memory
	adapter pool.Adapter
	signer  wallet.Signer
	oracle  *oracle.Aggregator
	sink    *events.Fanout
	service *orders.Service
}

// newApp connects the configured backends
// ⭐ SSOT: 의존성 조립은 여기서만
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	a := &app{
		cfg:    cfg,
		logger: logger.New(cfg),
		sink:   events.NewFanout(),
	}

	if err := a.connect(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) connect(ctx context.Context) error {
	cfg := a.cfg

	if cfg.Redis.Enabled {
		client, err := redisx.New(ctx, cfg)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		a.redis = client
	}

	repo, err := a.openRepository(ctx)
	if err != nil {
		return err
	}
	a.repo = repo

	adapter, err := pool.New(cfg, a.logger, a.kv)
	if err != nil {
		return fmt.Errorf("pool adapter: %w", err)
	}
	a.adapter = adapter

	signer, err := wallet.FromConfig(cfg)
	if err != nil {
		return fmt.Errorf("wallet: %w", err)
	}
	a.signer = signer
	if !wallet.Connected(signer) {
		a.logger.Warn("No wallet configured; placement and execution are disabled")
	}

	local := oracle.NewIntervalThrottle(cfg.Oracle.MinInterval)
	var throttle oracle.Throttle = local
	if cfg.Oracle.SharedThrottle {
		shared := redisx.NewRateLimiter(a.redis, "dlmm").Throttle(redisx.OracleRateLimit(cfg.Oracle.MinInterval))
		throttle = oracle.NewFailoverThrottle(shared, local, a.logger)
	}
	a.oracle = oracle.NewFromConfig(cfg, a.logger, throttle)

	if cfg.Events.AMQPURL != "" {
		publisher, err := events.DialAMQP(cfg.Events.AMQPURL, cfg.Events.Exchange, a.logger)
		if err != nil {
			return fmt.Errorf("connect to amqp: %w", err)
		}
		a.amqp = publisher
		a.sink.Add(publisher)
	}

	a.service = orders.NewService(a.repo, a.adapter, a.sink, a.logger)
	return nil
}

// openRepository selects the order store by ORDER_STORE
func (a *app) openRepository(ctx context.Context) (orders.Repository, error) {
	cfg := a.cfg

	switch cfg.Store.Driver {
	case "memory":
		return orders.NewMemoryRepository(), nil

	case "sqlite":
		kv, err := storage.OpenSQLiteKV(ctx, cfg.Store.SQLitePath)
		if err != nil {
			// 저장소 없이도 동작; 읽기는 비고 쓰기는 무시됨
			a.logger.WithError(err).Warn("SQLite order store unavailable, orders will not persist")
			return orders.NewKVRepository(nil, cfg.Store.Key, a.logger), nil
		}
		a.sqlite = kv
		a.kv = kv
		return orders.NewKVRepository(kv, cfg.Store.Key, a.logger), nil

	case "redis":
		kv := redisx.NewKVStore(a.redis, "dlmm")
		a.kv = kv
		return orders.NewKVRepository(kv, cfg.Store.Key, a.logger), nil

	case "postgres":
		db, err := database.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db

		repo := orders.NewPostgresRepository(db.Pool)
		if err := repo.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate orders table: %w", err)
		}
		kv := database.NewKVStore(db.Pool)
		if err := kv.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate kv table: %w", err)
		}
		a.kv = kv
		return repo, nil

	default:
		return nil, fmt.Errorf("unknown order store %q", cfg.Store.Driver)
	}
}

// newMonitor builds the stop-loss monitor over the app's components
func (a *app) newMonitor() *execution.Monitor {
	executor := execution.NewExecutor(a.repo, a.adapter, a.signer, a.sink, a.logger)
	return execution.NewMonitor(a.repo, a.oracle, executor, a.sink, a.logger)
}

// newScheduler registers the maintenance jobs
func (a *app) newScheduler() (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.logger)
	if err := sched.AddJob(jobs.NewOrderRetentionJob(a.service, a.cfg.Monitor.Retention, a.logger.WithComponent("jobs"))); err != nil {
		return nil, err
	}
	return sched, nil
}

// Close releases every connection
func (a *app) Close() {
	if a.amqp != nil {
		if err := a.amqp.Close(); err != nil {
			a.logger.WithError(err).Warn("Failed to close amqp publisher")
		}
	}
	if a.sqlite != nil {
		if err := a.sqlite.Close(); err != nil {
			a.logger.WithError(err).Warn("Failed to close sqlite store")
		}
	}
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
}
