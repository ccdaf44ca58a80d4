package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"camwatch/internal/core/domain"
	"camwatch/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// RedisAlertRepository indexes alerts by an insertion sequence so ListRecent
// returns them in the order they were stored.
type RedisAlertRepository struct {
	client *redis.Client
	keys   keys
}

func NewRedisAlertRepository(client *redis.Client, prefix string) ports.AlertRepository {
	return &RedisAlertRepository{
		client: client,
		keys:   keys{prefix: prefix},
	}
}

func (r *RedisAlertRepository) Create(ctx context.Context, alert *domain.Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	seq, err := r.client.Incr(ctx, r.keys.alertSequence()).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate alert sequence: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.keys.alert(string(alert.ID)), data, 0)
		pipe.ZAdd(ctx, r.keys.alertIndex(), redis.Z{
			Score:  float64(seq),
			Member: string(alert.ID),
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store alert in Redis: %w", err)
	}

	return nil
}

func (r *RedisAlertRepository) ListRecent(ctx context.Context, limit int) ([]*domain.Alert, error) {
	ids, err := r.client.ZRevRange(ctx, r.keys.alertIndex(), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list alert index: %w", err)
	}
	if len(ids) == 0 {
		return []*domain.Alert{}, nil
	}

	alertKeys := make([]string, len(ids))
	for i, id := range ids {
		alertKeys[i] = r.keys.alert(id)
	}

	values, err := r.client.MGet(ctx, alertKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load alerts: %w", err)
	}

	alerts := make([]*domain.Alert, 0, len(values))
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		var alert domain.Alert
		if err := json.Unmarshal([]byte(raw), &alert); err != nil {
			return nil, fmt.Errorf("failed to unmarshal alert: %w", err)
		}
		alerts = append(alerts, &alert)
	}

	return alerts, nil
}
