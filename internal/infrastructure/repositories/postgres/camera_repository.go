package postgres

import (
	"context"
	"errors"
	"fmt"

	"camwatch/internal/core/domain"
	"camwatch/internal/core/ports"
	"camwatch/pkg/tracing"

	"gorm.io/gorm"
)

type PostgresCameraRepository struct {
	db *gorm.DB
}

func NewPostgresCameraRepository(db *gorm.DB) ports.CameraRepository {
	return &PostgresCameraRepository{db: db}
}

func (r *PostgresCameraRepository) Create(ctx context.Context, camera *domain.Camera) error {
	ctx, span := tracing.TraceDatabaseOperation(ctx, "insert", "cameras")
	defer span.End()

	if err := r.db.WithContext(ctx).Create(newCameraModel(camera)).Error; err != nil {
		tracing.RecordError(ctx, err)
		return fmt.Errorf("failed to insert camera: %w", err)
	}
	return nil
}

func (r *PostgresCameraRepository) GetByID(ctx context.Context, id domain.CameraID) (*domain.Camera, error) {
	ctx, span := tracing.TraceDatabaseOperation(ctx, "select", "cameras")
	defer span.End()

	var m cameraModel
	err := r.db.WithContext(ctx).Where("id = ?", string(id)).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrCameraNotFound
	}
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, fmt.Errorf("failed to get camera: %w", err)
	}
	return m.toDomain(), nil
}

func (r *PostgresCameraRepository) Update(ctx context.Context, id domain.CameraID, patch ports.UpdateCameraInput) (*domain.Camera, error) {
	changes := make(map[string]interface{}, 2)
	if patch.Status != nil {
		changes["status"] = string(*patch.Status)
	}
	if patch.AIEnabled != nil {
		changes["ai_enabled"] = *patch.AIEnabled
	}
	if len(changes) == 0 {
		return r.GetByID(ctx, id)
	}

	ctx, span := tracing.TraceDatabaseOperation(ctx, "update", "cameras")
	defer span.End()

	var m cameraModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&cameraModel{}).Where("id = ?", string(id)).Updates(changes)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrCameraNotFound
		}
		return tx.Where("id = ?", string(id)).Take(&m).Error
	})
	if errors.Is(err, domain.ErrCameraNotFound) {
		return nil, err
	}
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, fmt.Errorf("failed to update camera: %w", err)
	}
	return m.toDomain(), nil
}

func (r *PostgresCameraRepository) Delete(ctx context.Context, id domain.CameraID) error {
	ctx, span := tracing.TraceDatabaseOperation(ctx, "delete", "cameras")
	defer span.End()

	result := r.db.WithContext(ctx).Where("id = ?", string(id)).Delete(&cameraModel{})
	if result.Error != nil {
		tracing.RecordError(ctx, result.Error)
		return fmt.Errorf("failed to delete camera: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrCameraNotFound
	}
	return nil
}

func (r *PostgresCameraRepository) List(ctx context.Context) ([]*domain.Camera, error) {
	ctx, span := tracing.TraceDatabaseOperation(ctx, "select", "cameras")
	defer span.End()

	var rows []cameraModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		tracing.RecordError(ctx, err)
		return nil, fmt.Errorf("failed to list cameras: %w", err)
	}

	cameras := make([]*domain.Camera, 0, len(rows))
	for i := range rows {
		cameras = append(cameras, rows[i].toDomain())
	}
	return cameras, nil
}
