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

var errCameraExists = errors.New("camera exists")

// RedisCameraRepository stores each camera as a JSON string and keeps a
// sorted set of ids scored by creation time.
type RedisCameraRepository struct {
	client *redis.Client
	keys   keys
}

func NewRedisCameraRepository(client *redis.Client, prefix string) ports.CameraRepository {
	return &RedisCameraRepository{
		client: client,
		keys:   keys{prefix: prefix},
	}
}

func (r *RedisCameraRepository) Create(ctx context.Context, camera *domain.Camera) error {
	data, err := json.Marshal(camera)
	if err != nil {
		return fmt.Errorf("failed to marshal camera: %w", err)
	}

	key := r.keys.camera(string(camera.ID))
	err = watch(ctx, r.client, key, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return errCameraExists
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.ZAdd(ctx, r.keys.cameraIndex(), redis.Z{
				Score:  float64(camera.CreatedAt.UnixMicro()),
				Member: string(camera.ID),
			})
			return nil
		})
		return err
	})
	if errors.Is(err, errCameraExists) {
		return fmt.Errorf("camera already exists: %s", camera.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to store camera in Redis: %w", err)
	}

	return nil
}

func (r *RedisCameraRepository) GetByID(ctx context.Context, id domain.CameraID) (*domain.Camera, error) {
	data, err := r.client.Get(ctx, r.keys.camera(string(id))).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCameraNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get camera from Redis: %w", err)
	}

	var camera domain.Camera
	if err := json.Unmarshal(data, &camera); err != nil {
		return nil, fmt.Errorf("failed to unmarshal camera: %w", err)
	}

	return &camera, nil
}

func (r *RedisCameraRepository) Update(ctx context.Context, id domain.CameraID, patch ports.UpdateCameraInput) (*domain.Camera, error) {
	key := r.keys.camera(string(id))

	var camera domain.Camera
	err := watch(ctx, r.client, key, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return domain.ErrCameraNotFound
		}
		if err != nil {
			return err
		}

		camera = domain.Camera{}
		if err := json.Unmarshal(data, &camera); err != nil {
			return fmt.Errorf("failed to unmarshal camera: %w", err)
		}
		if patch.Status != nil {
			camera.Status = *patch.Status
		}
		if patch.AIEnabled != nil {
			camera.AIEnabled = *patch.AIEnabled
		}

		out, err := json.Marshal(&camera)
		if err != nil {
			return fmt.Errorf("failed to marshal camera: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		return err
	})
	if errors.Is(err, domain.ErrCameraNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update camera in Redis: %w", err)
	}

	return &camera, nil
}

func (r *RedisCameraRepository) Delete(ctx context.Context, id domain.CameraID) error {
	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, r.keys.camera(string(id)))
		pipe.ZRem(ctx, r.keys.cameraIndex(), string(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete camera from Redis: %w", err)
	}
	if del.Val() == 0 {
		return domain.ErrCameraNotFound
	}

	return nil
}

func (r *RedisCameraRepository) List(ctx context.Context) ([]*domain.Camera, error) {
	ids, err := r.client.ZRevRange(ctx, r.keys.cameraIndex(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list camera index: %w", err)
	}
	if len(ids) == 0 {
		return []*domain.Camera{}, nil
	}

	cameraKeys := make([]string, len(ids))
	for i, id := range ids {
		cameraKeys[i] = r.keys.camera(id)
	}

	values, err := r.client.MGet(ctx, cameraKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load cameras: %w", err)
	}

	cameras := make([]*domain.Camera, 0, len(values))
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			// Index entry outlived its record.
			continue
		}
		var camera domain.Camera
		if err := json.Unmarshal([]byte(raw), &camera); err != nil {
			return nil, fmt.Errorf("failed to unmarshal camera: %w", err)
		}
		cameras = append(cameras, &camera)
	}

	return cameras, nil
}
