package services

import (
	"context"
	"fmt"
	"time"

	"camwatch/internal/core/domain"
	"camwatch/internal/core/ports"
	"camwatch/pkg/utils"
	"camwatch/pkg/validation"

	"go.uber.org/zap"
)

type cameraService struct {
	cameras ports.CameraRepository
	logger  *zap.SugaredLogger
	now     func() time.Time
}

func NewCameraService(cameras ports.CameraRepository, logger *zap.SugaredLogger) ports.CameraService {
	return &cameraService{
		cameras: cameras,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *cameraService) Create(ctx context.Context, in ports.CreateCameraInput) (*domain.Camera, error) {
	name := utils.SanitizeString(in.Name)
	rtspURL := utils.SanitizeString(in.RTSPURL)

	if err := validation.ValidateCameraName(name); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if err := validation.ValidateStreamURL(rtspURL); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	aiEnabled := true
	if in.AIEnabled != nil {
		aiEnabled = *in.AIEnabled
	}

	camera := &domain.Camera{
		ID:        domain.CameraID(utils.NewEntityID()),
		Name:      name,
		RTSPURL:   rtspURL,
		Location:  utils.StringOrDefault(utils.SanitizeString(in.Location), domain.DefaultCameraLocation),
		Status:    domain.CameraStatusActive,
		AIEnabled: aiEnabled,
		CreatedAt: s.now().UTC(),
	}

	if err := s.cameras.Create(ctx, camera); err != nil {
		return nil, fmt.Errorf("create camera: %w", err)
	}

	s.logger.Infow("Camera created",
		"camera_id", camera.ID,
		"name", camera.Name,
		"location", camera.Location,
	)
	return camera, nil
}

func (s *cameraService) Get(ctx context.Context, id domain.CameraID) (*domain.Camera, error) {
	return s.cameras.GetByID(ctx, id)
}

func (s *cameraService) Update(ctx context.Context, id domain.CameraID, in ports.UpdateCameraInput) (*domain.Camera, error) {
	if in.Status != nil && !in.Status.Valid() {
		return nil, fmt.Errorf("%w: status must be %q or %q", domain.ErrInvalidInput,
			domain.CameraStatusActive, domain.CameraStatusInactive)
	}

	camera, err := s.cameras.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Camera updated",
		"camera_id", camera.ID,
		"status", camera.Status,
		"ai_enabled", camera.AIEnabled,
	)
	return camera, nil
}

func (s *cameraService) Delete(ctx context.Context, id domain.CameraID) error {
	if err := s.cameras.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Infow("Camera deleted", "camera_id", id)
	return nil
}

func (s *cameraService) List(ctx context.Context) ([]*domain.Camera, error) {
	return s.cameras.List(ctx)
}

// ListForWorker serves the analysis worker's poll. Order is not part of the
// contract; the repository order is returned as is.
func (s *cameraService) ListForWorker(ctx context.Context) ([]*domain.Camera, error) {
	return s.cameras.List(ctx)
}
