package postgres

import (
	"context"
	"fmt"

	"camwatch/internal/core/domain"
	"camwatch/internal/core/ports"
	"camwatch/pkg/tracing"

	"gorm.io/gorm"
)

type PostgresAlertRepository struct {
	db *gorm.DB
}

func NewPostgresAlertRepository(db *gorm.DB) ports.AlertRepository {
	return &PostgresAlertRepository{db: db}
}

func (r *PostgresAlertRepository) Create(ctx context.Context, alert *domain.Alert) error {
	ctx, span := tracing.TraceDatabaseOperation(ctx, "insert", "alerts")
	defer span.End()

	if err := r.db.WithContext(ctx).Create(newAlertModel(alert)).Error; err != nil {
		tracing.RecordError(ctx, err)
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	return nil
}

func (r *PostgresAlertRepository) ListRecent(ctx context.Context, limit int) ([]*domain.Alert, error) {
	ctx, span := tracing.TraceDatabaseOperation(ctx, "select", "alerts")
	defer span.End()

	var rows []alertModel
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}

	alerts := make([]*domain.Alert, 0, len(rows))
	for i := range rows {
		alerts = append(alerts, rows[i].toDomain())
	}
	return alerts, nil
}
