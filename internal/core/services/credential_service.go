package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"camwatch/internal/core/domain"
	"camwatch/internal/core/ports"
	"camwatch/pkg/utils"
	"camwatch/pkg/validation"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type credentialService struct {
	users  ports.UserRepository
	cost   int
	dummy  []byte
	logger *zap.SugaredLogger
}

// NewCredentialService hashes passwords with bcrypt at the given cost.
// Out-of-range costs fall back to bcrypt.DefaultCost.
func NewCredentialService(users ports.UserRepository, cost int, logger *zap.SugaredLogger) ports.CredentialService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	// Compared against on unknown usernames so lookups and mismatches cost the same.
	dummy, err := bcrypt.GenerateFromPassword([]byte("camwatch-dummy-password"), cost)
	if err != nil {
		panic(fmt.Sprintf("bcrypt dummy hash: %v", err))
	}
	return &credentialService{
		users:  users,
		cost:   cost,
		dummy:  dummy,
		logger: logger,
	}
}

func (s *credentialService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if err := validation.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           domain.UserID(utils.NewEntityID()),
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Infow("User registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

func (s *credentialService) Verify(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummy, []byte(password))
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// EnsureAdmin creates the given account when the user store is empty.
// It reports whether an account was created.
func (s *credentialService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}

	count, err := s.users.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	if _, err := s.Register(ctx, username, password); err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			return false, nil
		}
		return false, err
	}
	s.logger.Warnw("Bootstrap admin account created; change its password", "username", username)
	return true, nil
}
