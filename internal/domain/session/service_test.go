package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/exp/slog"
)

// MockRepository is a mock implementation of the Repository interface for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *MockRepository) Validate(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	args := m.Called(ctx, tokenHash)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func TestService_Create(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, time.Hour, slog.Default())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }

	userID := uuid.New()

	mockRepo.On("Create", mock.Anything, userID, mock.MatchedBy(func(hash string) bool {
		return len(hash) == 64
	}), now.Add(time.Hour)).Return(nil)

	token, err := service.Create(context.Background(), userID)
	assert.NoError(t, err)
	// base64 от 32 байт с выравниванием - 44 символа
	assert.Len(t, token, 44)

	mockRepo.AssertExpectations(t)
}

func TestService_Create_RepositoryError(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, 0, slog.Default())

	userID := uuid.New()

	mockRepo.On("Create", mock.Anything, userID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(errors.New("database error"))

	_, err := service.Create(context.Background(), userID)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database error")

	mockRepo.AssertExpectations(t)
}

func TestService_Validate_EmptyToken(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, time.Hour, slog.Default())

	_, err := service.Validate(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidSession)
	mockRepo.AssertNotCalled(t, "Validate", mock.Anything, mock.Anything)
}

func TestService_Validate_InvalidToken(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, time.Hour, slog.Default())

	mockRepo.On("Validate", mock.Anything, mock.AnythingOfType("string")).Return(uuid.Nil, ErrInvalidSession)

	_, err := service.Validate(context.Background(), "expired_token")
	assert.ErrorIs(t, err, ErrInvalidSession)

	mockRepo.AssertExpectations(t)
}

// Create и Validate должны использовать один и тот же хэш токена
func TestService_CreateAndValidate(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, time.Hour, slog.Default())

	userID := uuid.New()
	var stored string

	mockRepo.On("Create", mock.Anything, userID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) { stored = args.String(2) }).
		Return(nil)

	token, err := service.Create(context.Background(), userID)
	assert.NoError(t, err)
	assert.NotEqual(t, token, stored, "raw token is never stored")

	mockRepo.On("Validate", mock.Anything, mock.MatchedBy(func(hash string) bool { return hash == stored })).Return(userID, nil)

	validatedUserID, err := service.Validate(context.Background(), token)
	assert.NoError(t, err)
	assert.Equal(t, userID, validatedUserID)

	mockRepo.AssertExpectations(t)
}
