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

type PostgresUserRepository struct {
	db *gorm.DB
}

func NewPostgresUserRepository(db *gorm.DB) ports.UserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	ctx, span := tracing.TraceDatabaseOperation(ctx, "insert", "users")
	defer span.End()

	err := r.db.WithContext(ctx).Create(newUserModel(user)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrUsernameTaken
	}
	if err != nil {
		tracing.RecordError(ctx, err)
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	ctx, span := tracing.TraceDatabaseOperation(ctx, "select", "users")
	defer span.End()

	var m userModel
	err := r.db.WithContext(ctx).Where("username = ?", username).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return m.toDomain(), nil
}

func (r *PostgresUserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&userModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
