package ports

import (
	"context"

	"camwatch/internal/core/domain"
)

type CreateCameraInput struct {
	Name      string
	RTSPURL   string
	Location  string
	AIEnabled *bool
}

// UpdateCameraInput carries a partial update; nil fields keep their value.
type UpdateCameraInput struct {
	Status    *domain.CameraStatus
	AIEnabled *bool
}

type SubmitAlertInput struct {
	Message  string
	CameraID domain.CameraID
	ImageURL *string
}

type CameraService interface {
	Create(ctx context.Context, in CreateCameraInput) (*domain.Camera, error)
	Get(ctx context.Context, id domain.CameraID) (*domain.Camera, error)
	Update(ctx context.Context, id domain.CameraID, in UpdateCameraInput) (*domain.Camera, error)
	Delete(ctx context.Context, id domain.CameraID) error
	List(ctx context.Context) ([]*domain.Camera, error)
	ListForWorker(ctx context.Context) ([]*domain.Camera, error)
}

type AlertService interface {
	Submit(ctx context.Context, in SubmitAlertInput) (*domain.Alert, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.Alert, error)
}

type CredentialService interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
	Verify(ctx context.Context, username, password string) (*domain.User, error)
	EnsureAdmin(ctx context.Context, username, password string) (bool, error)
}

// Broadcaster delivers an already-serialized payload to every live viewer and
// reports how many viewers it was queued for.
type Broadcaster interface {
	Broadcast(payload []byte) int
}
