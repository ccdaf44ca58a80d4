package redis

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"camwatch/internal/core/domain"
	"camwatch/internal/core/ports"
	"camwatch/pkg/utils"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestClient connects to the Redis named by CAMWATCH_TEST_REDIS_ADDR, or
// to an in-process miniredis when it is unset, and returns a client plus a
// key prefix unique to the test.
func newTestClient(t *testing.T) (*goredis.Client, string) {
	t.Helper()
	addr := os.Getenv("CAMWATCH_TEST_REDIS_ADDR")
	if addr == "" {
		addr = miniredis.RunT(t).Addr()
	}

	prefix := "camwatch-test:" + utils.NewEntityID() + ":"
	client, err := NewRedisClient(context.Background(), Options{
		Address:   addr,
		PoolSize:  4,
		KeyPrefix: prefix,
	}, zap.NewNop().Sugar())
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx := context.Background()
		iter := client.Scan(ctx, 0, prefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			client.Del(ctx, iter.Val())
		}
		_ = CloseRedisClient(client)
	})
	return client, prefix
}

func newTestCamera(id domain.CameraID, createdAt time.Time) *domain.Camera {
	return &domain.Camera{
		ID:        id,
		Name:      string(id),
		RTSPURL:   "rtsp://x",
		Location:  domain.DefaultCameraLocation,
		Status:    domain.CameraStatusActive,
		AIEnabled: true,
		CreatedAt: createdAt,
	}
}

func TestRedisCameraRepository(t *testing.T) {
	client, prefix := newTestClient(t)
	repo := NewRedisCameraRepository(client, prefix)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []domain.CameraID{"a", "b", "c"} {
		require.NoError(t, repo.Create(ctx, newTestCamera(id, base.Add(time.Duration(i)*time.Minute))))
	}

	cameras, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, cameras, 3)
	assert.Equal(t, domain.CameraID("c"), cameras[0].ID)
	assert.Equal(t, domain.CameraID("b"), cameras[1].ID)
	assert.Equal(t, domain.CameraID("a"), cameras[2].ID)

	disabled := false
	cam, err := repo.Update(ctx, "b", ports.UpdateCameraInput{AIEnabled: &disabled})
	require.NoError(t, err)
	assert.False(t, cam.AIEnabled)
	assert.Equal(t, domain.CameraStatusActive, cam.Status)

	cam, err = repo.GetByID(ctx, "b")
	require.NoError(t, err)
	assert.False(t, cam.AIEnabled)
	assert.Equal(t, domain.CameraStatusActive, cam.Status)
	assert.Equal(t, base.Add(time.Minute), cam.CreatedAt.UTC())

	require.NoError(t, repo.Delete(ctx, "b"))
	assert.ErrorIs(t, repo.Delete(ctx, "b"), domain.ErrCameraNotFound)
	_, err = repo.Update(ctx, "b", ports.UpdateCameraInput{AIEnabled: &disabled})
	assert.ErrorIs(t, err, domain.ErrCameraNotFound)

	_, err = repo.GetByID(ctx, "b")
	assert.ErrorIs(t, err, domain.ErrCameraNotFound)

	cameras, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, cameras, 2)
}

func TestRedisCameraRepository_CreateIndexesOnce(t *testing.T) {
	client, prefix := newTestClient(t)
	repo := NewRedisCameraRepository(client, prefix)
	ctx := context.Background()
	k := keys{prefix: prefix}

	cam := newTestCamera("dup", time.Now())
	require.NoError(t, repo.Create(ctx, cam))
	assert.Error(t, repo.Create(ctx, cam))

	n, err := client.ZCard(ctx, k.cameraIndex()).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	score, err := client.ZScore(ctx, k.cameraIndex(), "dup").Result()
	require.NoError(t, err)
	assert.Equal(t, float64(cam.CreatedAt.UnixMicro()), score)
}

func TestRedisCameraRepository_ConcurrentCreateSameID(t *testing.T) {
	client, prefix := newTestClient(t)
	repo := NewRedisCameraRepository(client, prefix)
	ctx := context.Background()

	const writers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if repo.Create(ctx, newTestCamera("same", time.Now())) == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	cameras, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, cameras, 1)
}

func TestRedisCameraRepository_ConcurrentPartialUpdates(t *testing.T) {
	client, prefix := newTestClient(t)
	repo := NewRedisCameraRepository(client, prefix)
	ctx := context.Background()

	const cameras = 5
	for i := 0; i < cameras; i++ {
		require.NoError(t, repo.Create(ctx, newTestCamera(domain.CameraID(fmt.Sprintf("cam-%d", i)), time.Now())))
	}

	inactive := domain.CameraStatusInactive
	disabled := false

	var wg sync.WaitGroup
	for i := 0; i < cameras; i++ {
		id := domain.CameraID(fmt.Sprintf("cam-%d", i))
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := repo.Update(ctx, id, ports.UpdateCameraInput{Status: &inactive})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := repo.Update(ctx, id, ports.UpdateCameraInput{AIEnabled: &disabled})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, cameras)
	for _, cam := range all {
		assert.Equal(t, domain.CameraStatusInactive, cam.Status, cam.ID)
		assert.False(t, cam.AIEnabled, cam.ID)
	}
}

func TestRedisAlertRepository(t *testing.T) {
	client, prefix := newTestClient(t)
	repo := NewRedisAlertRepository(client, prefix)
	ctx := context.Background()

	for _, id := range []domain.AlertID{"x1", "x2", "x3"} {
		require.NoError(t, repo.Create(ctx, &domain.Alert{ID: id, Message: "motion", CameraID: "cam", CreatedAt: time.Now()}))
	}

	alerts, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, domain.AlertID("x3"), alerts[0].ID)
	assert.Equal(t, domain.AlertID("x2"), alerts[1].ID)
}

func TestRedisUserRepository(t *testing.T) {
	client, prefix := newTestClient(t)
	repo := NewRedisUserRepository(client, prefix)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.User{ID: "u1", Username: "admin", PasswordHash: "hash"}))
	assert.ErrorIs(t, repo.Create(ctx, &domain.User{ID: "u2", Username: "admin"}), domain.ErrUsernameTaken)

	user, err := repo.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "hash", user.PasswordHash)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = repo.GetByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	members, err := client.SMembers(ctx, keys{prefix: prefix}.userSet()).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"admin"}, members)
}

func TestKeys(t *testing.T) {
	k := keys{prefix: "camwatch:"}
	assert.Equal(t, "camwatch:camera:42", k.camera("42"))
	assert.Equal(t, "camwatch:cameras", k.cameraIndex())
	assert.Equal(t, "camwatch:user:admin", k.user("admin"))
	assert.Equal(t, "camwatch:alerts:seq", k.alertSequence())
}
