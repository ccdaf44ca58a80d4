package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"camwatch/internal/core/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const currentSchemaVersion = 1

// Migration represents a key-layout migration
type Migration struct {
	Version int
	Up      func(ctx context.Context, client *redis.Client, k keys) error
}

// Migrate runs all pending migrations
func Migrate(ctx context.Context, client *redis.Client, prefix string, logger *zap.SugaredLogger) error {
	k := keys{prefix: prefix}

	currentVersion, err := getSchemaVersion(ctx, client, k)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	if currentVersion >= currentSchemaVersion {
		if logger != nil {
			logger.Infow("Redis schema is up to date",
				"current_version", currentVersion,
				"target_version", currentSchemaVersion,
			)
		}
		return nil
	}

	for _, migration := range getMigrations() {
		if migration.Version <= currentVersion {
			continue
		}
		if logger != nil {
			logger.Infow("Running Redis migration", "version", migration.Version)
		}

		if err := migration.Up(ctx, client, k); err != nil {
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if err := setSchemaVersion(ctx, client, k, migration.Version); err != nil {
			return fmt.Errorf("failed to update schema version: %w", err)
		}
	}

	return nil
}

func getSchemaVersion(ctx context.Context, client *redis.Client, k keys) (int, error) {
	val, err := client.Get(ctx, k.schemaVersion()).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return val, nil
}

func setSchemaVersion(ctx context.Context, client *redis.Client, k keys, version int) error {
	return client.Set(ctx, k.schemaVersion(), version, 0).Err()
}

func getMigrations() []Migration {
	return []Migration{
		{
			// Rebuild the creation-time index from camera records written
			// before the index existed.
			Version: 1,
			Up: func(ctx context.Context, client *redis.Client, k keys) error {
				iter := client.Scan(ctx, 0, k.cameraPattern(), 100).Iterator()
				for iter.Next(ctx) {
					data, err := client.Get(ctx, iter.Val()).Bytes()
					if errors.Is(err, redis.Nil) {
						continue
					}
					if err != nil {
						return err
					}

					var camera domain.Camera
					if err := json.Unmarshal(data, &camera); err != nil {
						return fmt.Errorf("decode %s: %w", iter.Val(), err)
					}
					if err := client.ZAdd(ctx, k.cameraIndex(), redis.Z{
						Score:  float64(camera.CreatedAt.UnixMicro()),
						Member: string(camera.ID),
					}).Err(); err != nil {
						return err
					}
				}
				return iter.Err()
			},
		},
	}
}
