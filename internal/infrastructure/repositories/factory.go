package repositories

import (
	"context"
	"fmt"
	"time"

	"camwatch/internal/core/ports"
	"camwatch/internal/infrastructure/repositories/memory"
	pgrepo "camwatch/internal/infrastructure/repositories/postgres"
	redisrepo "camwatch/internal/infrastructure/repositories/redis"
	"camwatch/pkg/config"
	"camwatch/pkg/retry"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RepositoryFactory builds the registry repositories for the configured
// storage driver and owns the backing connection.
type RepositoryFactory struct {
	driver      string
	db          *gorm.DB
	redisClient *redis.Client

	cameras ports.CameraRepository
	alerts  ports.AlertRepository
	users   ports.UserRepository

	logger *zap.SugaredLogger
}

// NewRepositoryFactory connects to the configured backend, retrying with
// backoff. A backend that stays unreachable is an error: there is no silent
// fallback to memory for durable data.
func NewRepositoryFactory(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*RepositoryFactory, error) {
	factory := &RepositoryFactory{
		driver: cfg.Storage.Driver,
		logger: logger,
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = cfg.Storage.ConnectRetries + 1
	retryCfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		logger.Warnw("Storage connection failed, retrying",
			"driver", cfg.Storage.Driver,
			"attempt", attempt,
			"retry_in", delay,
			"error", err,
		)
	}

	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		db, err := retry.DoWithResult(ctx, retryCfg, func(ctx context.Context) (*gorm.DB, error) {
			return pgrepo.Open(ctx, cfg.PostgresDSN(), cfg.Storage.Postgres.MaxOpenConns, logger)
		})
		if err != nil {
			return nil, fmt.Errorf("postgres storage: %w", err)
		}
		factory.db = db
		factory.cameras = pgrepo.NewPostgresCameraRepository(db)
		factory.alerts = pgrepo.NewPostgresAlertRepository(db)
		factory.users = pgrepo.NewPostgresUserRepository(db)

	case config.StorageRedis:
		rc := cfg.Storage.Redis
		client, err := retry.DoWithResult(ctx, retryCfg, func(ctx context.Context) (*redis.Client, error) {
			return redisrepo.NewRedisClient(ctx, redisrepo.Options{
				Address:   rc.Address,
				Password:  rc.Password,
				DB:        rc.DB,
				PoolSize:  rc.PoolSize,
				KeyPrefix: rc.KeyPrefix,
			}, logger)
		})
		if err != nil {
			return nil, fmt.Errorf("redis storage: %w", err)
		}
		factory.redisClient = client
		factory.cameras = redisrepo.NewRedisCameraRepository(client, rc.KeyPrefix)
		factory.alerts = redisrepo.NewRedisAlertRepository(client, rc.KeyPrefix)
		factory.users = redisrepo.NewRedisUserRepository(client, rc.KeyPrefix)

	case config.StorageMemory:
		factory.cameras = memory.NewMemoryCameraRepository()
		factory.alerts = memory.NewMemoryAlertRepository()
		factory.users = memory.NewMemoryUserRepository()
		logger.Warn("Using memory repositories; data is lost on restart")

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	logger.Infow("Repositories ready", "driver", factory.driver)
	return factory, nil
}

func (f *RepositoryFactory) Driver() string {
	return f.driver
}

func (f *RepositoryFactory) CameraRepository() ports.CameraRepository {
	return f.cameras
}

func (f *RepositoryFactory) AlertRepository() ports.AlertRepository {
	return f.alerts
}

func (f *RepositoryFactory) UserRepository() ports.UserRepository {
	return f.users
}

// HealthCheck pings the storage backend.
func (f *RepositoryFactory) HealthCheck(ctx context.Context) error {
	switch {
	case f.db != nil:
		return pgrepo.Ping(ctx, f.db)
	case f.redisClient != nil:
		return f.redisClient.Ping(ctx).Err()
	}
	return nil
}

// Close releases the backend connection.
func (f *RepositoryFactory) Close() error {
	switch {
	case f.db != nil:
		return pgrepo.Close(f.db)
	case f.redisClient != nil:
		return redisrepo.CloseRedisClient(f.redisClient)
	}
	return nil
}
