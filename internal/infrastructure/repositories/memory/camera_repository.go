package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"camwatch/internal/core/domain"
	"camwatch/internal/core/ports"
)

type MemoryCameraRepository struct {
	cameras map[domain.CameraID]*domain.Camera
	mu      sync.RWMutex
}

func NewMemoryCameraRepository() ports.CameraRepository {
	return &MemoryCameraRepository{
		cameras: make(map[domain.CameraID]*domain.Camera),
	}
}

func (r *MemoryCameraRepository) Create(ctx context.Context, camera *domain.Camera) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.cameras[camera.ID]; exists {
		return fmt.Errorf("camera already exists: %s", camera.ID)
	}

	cp := *camera
	r.cameras[camera.ID] = &cp
	return nil
}

func (r *MemoryCameraRepository) GetByID(ctx context.Context, id domain.CameraID) (*domain.Camera, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	camera, exists := r.cameras[id]
	if !exists {
		return nil, domain.ErrCameraNotFound
	}

	cp := *camera
	return &cp, nil
}

func (r *MemoryCameraRepository) Update(ctx context.Context, id domain.CameraID, patch ports.UpdateCameraInput) (*domain.Camera, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	camera, exists := r.cameras[id]
	if !exists {
		return nil, domain.ErrCameraNotFound
	}

	if patch.Status != nil {
		camera.Status = *patch.Status
	}
	if patch.AIEnabled != nil {
		camera.AIEnabled = *patch.AIEnabled
	}

	cp := *camera
	return &cp, nil
}

func (r *MemoryCameraRepository) Delete(ctx context.Context, id domain.CameraID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.cameras[id]; !exists {
		return domain.ErrCameraNotFound
	}

	delete(r.cameras, id)
	return nil
}

func (r *MemoryCameraRepository) List(ctx context.Context) ([]*domain.Camera, error) {
	r.mu.RLock()
	cameras := make([]*domain.Camera, 0, len(r.cameras))
	for _, camera := range r.cameras {
		cp := *camera
		cameras = append(cameras, &cp)
	}
	r.mu.RUnlock()

	sort.SliceStable(cameras, func(i, j int) bool {
		if cameras[i].CreatedAt.Equal(cameras[j].CreatedAt) {
			return cameras[i].ID > cameras[j].ID
		}
		return cameras[i].CreatedAt.After(cameras[j].CreatedAt)
	})
	return cameras, nil
}
