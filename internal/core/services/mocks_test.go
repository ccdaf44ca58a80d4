package services

import (
	"context"
	"sync"

	"camwatch/internal/core/domain"
	"camwatch/internal/core/ports"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

type MockCameraRepository struct {
	mock.Mock
}

func (m *MockCameraRepository) Create(ctx context.Context, camera *domain.Camera) error {
	args := m.Called(ctx, camera)
	return args.Error(0)
}

func (m *MockCameraRepository) GetByID(ctx context.Context, id domain.CameraID) (*domain.Camera, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Camera), args.Error(1)
}

func (m *MockCameraRepository) Update(ctx context.Context, id domain.CameraID, patch ports.UpdateCameraInput) (*domain.Camera, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Camera), args.Error(1)
}

func (m *MockCameraRepository) Delete(ctx context.Context, id domain.CameraID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCameraRepository) List(ctx context.Context) ([]*domain.Camera, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Camera), args.Error(1)
}

type MockAlertRepository struct {
	mock.Mock
}

func (m *MockAlertRepository) Create(ctx context.Context, alert *domain.Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

func (m *MockAlertRepository) ListRecent(ctx context.Context, limit int) ([]*domain.Alert, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Alert), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// recordingBroadcaster keeps every payload it was asked to deliver.
type recordingBroadcaster struct {
	mu       sync.Mutex
	payloads [][]byte
	viewers  int
}

func (b *recordingBroadcaster) Broadcast(payload []byte) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.payloads = append(b.payloads, payload)
	return b.viewers
}

func (b *recordingBroadcaster) Payloads() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]byte(nil), b.payloads...)
}

// userStore is a small map-backed UserRepository for credential tests.
type userStore struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newUserStore() *userStore {
	return &userStore{users: make(map[string]*domain.User)}
}

func (s *userStore) Create(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Username]; ok {
		return domain.ErrUsernameTaken
	}
	cp := *user
	s.users[user.Username] = &cp
	return nil
}

func (s *userStore) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (s *userStore) Count(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.users)), nil
}
