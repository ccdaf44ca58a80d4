package ports

import (
	"context"

	"camwatch/internal/core/domain"
)

type CameraRepository interface {
	Create(ctx context.Context, camera *domain.Camera) error
	GetByID(ctx context.Context, id domain.CameraID) (*domain.Camera, error)
	// Update writes only the fields set in patch and returns the stored
	// camera.
	Update(ctx context.Context, id domain.CameraID, patch UpdateCameraInput) (*domain.Camera, error)
	Delete(ctx context.Context, id domain.CameraID) error
	// List returns every camera ordered by CreatedAt, newest first.
	List(ctx context.Context) ([]*domain.Camera, error)
}

type AlertRepository interface {
	Create(ctx context.Context, alert *domain.Alert) error
	// ListRecent returns at most limit alerts, newest first.
	ListRecent(ctx context.Context, limit int) ([]*domain.Alert, error)
}

type UserRepository interface {
	// Create fails with domain.ErrUsernameTaken when the username exists.
	Create(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Count(ctx context.Context) (int64, error)
}
