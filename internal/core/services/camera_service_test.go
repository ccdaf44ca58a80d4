package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"camwatch/internal/core/domain"
	"camwatch/internal/core/ports"
	"camwatch/internal/infrastructure/repositories/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func statusPtr(s domain.CameraStatus) *domain.CameraStatus { return &s }

func TestCameraService_CreateDefaults(t *testing.T) {
	repo := new(MockCameraRepository)
	svc := NewCameraService(repo, testLogger())

	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Camera")).Return(nil)

	camera, err := svc.Create(context.Background(), ports.CreateCameraInput{
		Name:    "Lobby",
		RTSPURL: "rtsp://10.0.0.5/stream",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, camera.ID)
	assert.Equal(t, "Lobby", camera.Name)
	assert.Equal(t, "rtsp://10.0.0.5/stream", camera.RTSPURL)
	assert.Equal(t, domain.DefaultCameraLocation, camera.Location)
	assert.Equal(t, domain.CameraStatusActive, camera.Status)
	assert.True(t, camera.AIEnabled)
	assert.WithinDuration(t, time.Now(), camera.CreatedAt, 5*time.Second)
	repo.AssertExpectations(t)
}

func TestCameraService_CreateWithOptionalFields(t *testing.T) {
	repo := new(MockCameraRepository)
	svc := NewCameraService(repo, testLogger())

	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Camera")).Return(nil)

	camera, err := svc.Create(context.Background(), ports.CreateCameraInput{
		Name:      "  Gate  ",
		RTSPURL:   "rtsp://10.0.0.6/stream",
		Location:  "North entrance",
		AIEnabled: boolPtr(false),
	})

	require.NoError(t, err)
	assert.Equal(t, "Gate", camera.Name)
	assert.Equal(t, "North entrance", camera.Location)
	assert.False(t, camera.AIEnabled)
}

func TestCameraService_CreateInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		in   ports.CreateCameraInput
	}{
		{"missing name", ports.CreateCameraInput{RTSPURL: "rtsp://x"}},
		{"blank name", ports.CreateCameraInput{Name: "   ", RTSPURL: "rtsp://x"}},
		{"missing url", ports.CreateCameraInput{Name: "Lobby"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockCameraRepository)
			svc := NewCameraService(repo, testLogger())

			_, err := svc.Create(context.Background(), tt.in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCameraService_UpdatePartial(t *testing.T) {
	repo := new(MockCameraRepository)
	svc := NewCameraService(repo, testLogger())
	ctx := context.Background()

	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	patch := ports.UpdateCameraInput{AIEnabled: boolPtr(false)}
	stored := &domain.Camera{
		ID:        "cam-1",
		Name:      "Lobby",
		RTSPURL:   "rtsp://x",
		Location:  "Hall",
		Status:    domain.CameraStatusActive,
		AIEnabled: false,
		CreatedAt: created,
	}

	repo.On("Update", ctx, domain.CameraID("cam-1"), patch).Return(stored, nil)

	updated, err := svc.Update(ctx, "cam-1", patch)
	require.NoError(t, err)

	assert.Equal(t, stored, updated)
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestCameraService_UpdateRejectsUnknownStatus(t *testing.T) {
	repo := new(MockCameraRepository)
	svc := NewCameraService(repo, testLogger())

	_, err := svc.Update(context.Background(), "cam-1", ports.UpdateCameraInput{Status: statusPtr("broken")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestCameraService_UpdateNotFound(t *testing.T) {
	repo := new(MockCameraRepository)
	svc := NewCameraService(repo, testLogger())
	ctx := context.Background()

	patch := ports.UpdateCameraInput{AIEnabled: boolPtr(false)}
	repo.On("Update", ctx, domain.CameraID("missing"), patch).Return(nil, domain.ErrCameraNotFound)

	_, err := svc.Update(ctx, "missing", patch)
	assert.ErrorIs(t, err, domain.ErrCameraNotFound)
}

// slowReadCameraRepository widens the window between a read and a write so
// a read-modify-write in the service would lose one of two concurrent patches.
type slowReadCameraRepository struct {
	ports.CameraRepository
}

func (r slowReadCameraRepository) GetByID(ctx context.Context, id domain.CameraID) (*domain.Camera, error) {
	time.Sleep(50 * time.Millisecond)
	return r.CameraRepository.GetByID(ctx, id)
}

func TestCameraService_ConcurrentPartialUpdates(t *testing.T) {
	repo := slowReadCameraRepository{memory.NewMemoryCameraRepository()}
	svc := NewCameraService(repo, testLogger())
	ctx := context.Background()

	camera, err := svc.Create(ctx, ports.CreateCameraInput{Name: "Lobby", RTSPURL: "rtsp://x"})
	require.NoError(t, err)

	patches := []ports.UpdateCameraInput{
		{Status: statusPtr(domain.CameraStatusInactive)},
		{AIEnabled: boolPtr(false)},
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(patches))
	for _, patch := range patches {
		wg.Add(1)
		go func(patch ports.UpdateCameraInput) {
			defer wg.Done()
			_, err := svc.Update(ctx, camera.ID, patch)
			errs <- err
		}(patch)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := svc.Get(ctx, camera.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CameraStatusInactive, got.Status)
	assert.False(t, got.AIEnabled)
	assert.Equal(t, "Lobby", got.Name)
}

func TestCameraService_Delete(t *testing.T) {
	repo := new(MockCameraRepository)
	svc := NewCameraService(repo, testLogger())
	ctx := context.Background()

	repo.On("Delete", ctx, domain.CameraID("cam-1")).Return(nil).Once()
	repo.On("Delete", ctx, domain.CameraID("cam-1")).Return(domain.ErrCameraNotFound).Once()

	assert.NoError(t, svc.Delete(ctx, "cam-1"))
	assert.ErrorIs(t, svc.Delete(ctx, "cam-1"), domain.ErrCameraNotFound)
	repo.AssertExpectations(t)
}

func TestCameraService_ListPropagatesErrors(t *testing.T) {
	repo := new(MockCameraRepository)
	svc := NewCameraService(repo, testLogger())
	ctx := context.Background()
	storeErr := errors.New("store unavailable")

	repo.On("List", ctx).Return(nil, storeErr)

	_, err := svc.List(ctx)
	assert.ErrorIs(t, err, storeErr)
	_, err = svc.ListForWorker(ctx)
	assert.ErrorIs(t, err, storeErr)
}
