package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Options configures the Redis connection used by the registry.
type Options struct {
	Address   string
	Password  string
	DB        int
	PoolSize  int
	KeyPrefix string
}

// NewRedisClient creates a Redis client, checks connectivity and runs
// pending key-layout migrations.
func NewRedisClient(ctx context.Context, opts Options, logger *zap.SugaredLogger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Address,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if err := Migrate(pingCtx, client, opts.KeyPrefix, logger); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if logger != nil {
		logger.Infow("Connected to Redis",
			"address", opts.Address,
			"db", opts.DB,
			"pool_size", opts.PoolSize,
		)
	}

	return client, nil
}

// CloseRedisClient closes the Redis client connection
func CloseRedisClient(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}

// keys builds every key the registry uses from one prefix.
type keys struct {
	prefix string
}

func (k keys) schemaVersion() string {
	return k.prefix + "schema:version"
}

func (k keys) camera(id string) string {
	return k.prefix + "camera:" + id
}

func (k keys) cameraPattern() string {
	return k.prefix + "camera:*"
}

func (k keys) cameraIndex() string {
	return k.prefix + "cameras"
}

func (k keys) alert(id string) string {
	return k.prefix + "alert:" + id
}

func (k keys) alertIndex() string {
	return k.prefix + "alerts"
}

func (k keys) alertSequence() string {
	return k.prefix + "alerts:seq"
}

func (k keys) user(username string) string {
	return k.prefix + "user:" + username
}

func (k keys) userSet() string {
	return k.prefix + "users"
}

// maxWatchAttempts bounds optimistic retries when a watched key changes
// between read and commit.
const maxWatchAttempts = 10

// watch runs fn in a WATCH/MULTI transaction on key, retrying while a
// concurrent writer invalidates it.
func watch(ctx context.Context, client *redis.Client, key string, fn func(tx *redis.Tx) error) error {
	for attempt := 0; attempt < maxWatchAttempts; attempt++ {
		err := client.Watch(ctx, fn, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("transaction on %s kept conflicting: %w", key, redis.TxFailedErr)
}
