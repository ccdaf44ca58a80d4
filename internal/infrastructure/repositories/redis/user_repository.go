package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"camwatch/internal/core/domain"
	"camwatch/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// userRecord is the stored shape; domain.User hides the hash from JSON.
type userRecord struct {
	ID           domain.UserID `json:"id"`
	Username     string        `json:"username"`
	PasswordHash string        `json:"password_hash"`
}

type RedisUserRepository struct {
	client *redis.Client
	keys   keys
}

func NewRedisUserRepository(client *redis.Client, prefix string) ports.UserRepository {
	return &RedisUserRepository{
		client: client,
		keys:   keys{prefix: prefix},
	}
}

func (r *RedisUserRepository) Create(ctx context.Context, user *domain.User) error {
	data, err := json.Marshal(userRecord{
		ID:           user.ID,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	key := r.keys.user(user.Username)
	err = watch(ctx, r.client, key, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrUsernameTaken
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.SAdd(ctx, r.keys.userSet(), user.Username)
			return nil
		})
		return err
	})
	if errors.Is(err, domain.ErrUsernameTaken) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to store user in Redis: %w", err)
	}
	return nil
}

func (r *RedisUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	data, err := r.client.Get(ctx, r.keys.user(username)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user from Redis: %w", err)
	}

	var rec userRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}

	return &domain.User{
		ID:           rec.ID,
		Username:     rec.Username,
		PasswordHash: rec.PasswordHash,
	}, nil
}

func (r *RedisUserRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.client.SCard(ctx, r.keys.userSet()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}
