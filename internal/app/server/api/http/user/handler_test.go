package user

import (
	"context"
	"errors"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"postercart/internal/domain/user"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, email, password string) (uuid.UUID, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockUserService) Authenticate(ctx context.Context, email, password string) (user.User, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(user.User), args.Error(1)
}

type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) Create(ctx context.Context, userID uuid.UUID) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockSessionService) Validate(ctx context.Context, token string) (uuid.UUID, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var se huma.StatusError
	require.True(t, errors.As(err, &se))
	return se.GetStatus()
}

func TestHandler_Register(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name       string
		retID      uuid.UUID
		retErr     error
		wantStatus int
	}{
		{name: "ok", retID: id},
		{name: "invalid", retErr: user.ErrInvalidInput, wantStatus: 422},
		{name: "taken", retErr: user.ErrEmailTaken, wantStatus: 409},
		{name: "storage", retErr: errors.New("db down"), wantStatus: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockUserService)
			svc.On("Register", mock.Anything, "alice@example.com", "poster4wall").Return(tt.retID, tt.retErr)
			h := NewHandler(svc, new(MockSessionService), slog.Default(), huma.Middlewares{})

			input := &registerInput{}
			input.Body.Email = "alice@example.com"
			input.Body.Password = "poster4wall"

			out, err := h.register(context.Background(), input)
			if tt.wantStatus != 0 {
				assert.Equal(t, tt.wantStatus, statusOf(t, err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, id.String(), out.Body.ID)
			assert.Equal(t, "Ok", out.Body.Status)
		})
	}
}

func TestHandler_Login(t *testing.T) {
	u := user.User{ID: uuid.New(), Email: "alice@example.com"}

	t.Run("ok", func(t *testing.T) {
		svc := new(MockUserService)
		sessions := new(MockSessionService)
		svc.On("Authenticate", mock.Anything, "alice@example.com", "poster4wall").Return(u, nil)
		sessions.On("Create", mock.Anything, u.ID).Return("opaque-token", nil)
		h := NewHandler(svc, sessions, slog.Default(), huma.Middlewares{})

		input := &loginInput{}
		input.Body.Email = "alice@example.com"
		input.Body.Password = "poster4wall"

		out, err := h.login(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, u.ID.String(), out.Body.UserID)
		assert.Equal(t, "opaque-token", out.Body.Token)
	})

	t.Run("bad credentials", func(t *testing.T) {
		svc := new(MockUserService)
		sessions := new(MockSessionService)
		svc.On("Authenticate", mock.Anything, mock.Anything, mock.Anything).Return(user.User{}, user.ErrInvalidAuth)
		h := NewHandler(svc, sessions, slog.Default(), huma.Middlewares{})

		_, err := h.login(context.Background(), &loginInput{})
		assert.Equal(t, 401, statusOf(t, err))
		sessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("session failure", func(t *testing.T) {
		svc := new(MockUserService)
		sessions := new(MockSessionService)
		svc.On("Authenticate", mock.Anything, mock.Anything, mock.Anything).Return(u, nil)
		sessions.On("Create", mock.Anything, u.ID).Return("", errors.New("db down"))
		h := NewHandler(svc, sessions, slog.Default(), huma.Middlewares{})

		_, err := h.login(context.Background(), &loginInput{})
		assert.Equal(t, 500, statusOf(t, err))
	})
}
