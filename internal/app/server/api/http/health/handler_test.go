package health

import (
	"context"
	"errors"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHandler_healthCheck(t *testing.T) {
	healthy := pingFunc(func(context.Context) error { return nil })
	broken := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name           string
		deps           []Dependency
		expectedStatus string
		expectedChecks int
		expectedCode   int
	}{
		{
			name:           "no dependencies",
			expectedStatus: "OK",
		},
		{
			name:           "healthy dependencies",
			deps:           []Dependency{{Name: "postgres", Pinger: healthy}, {Name: "redis", Pinger: healthy}},
			expectedStatus: "OK",
			expectedChecks: 2,
		},
		{
			name:         "database down",
			deps:         []Dependency{{Name: "redis", Pinger: healthy}, {Name: "postgres", Pinger: broken}},
			expectedCode: 503,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			handler := NewHandler(slog.Default(), huma.Middlewares{}, tt.deps...)

			// Act
			output, err := handler.healthCheck(context.Background(), &Input{})

			// Assert
			if tt.expectedCode != 0 {
				var se huma.StatusError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, tt.expectedCode, se.GetStatus())
				return
			}
			assert.NoError(t, err)
			require.NotNil(t, output)
			assert.Equal(t, tt.expectedStatus, output.Body.Status)
			assert.Len(t, output.Body.Checks, tt.expectedChecks)
		})
	}
}

func TestNewHandler(t *testing.T) {
	// Arrange
	log := slog.Default()
	middleware := huma.Middlewares{}

	// Act
	handler := NewHandler(log, middleware)

	// Assert
	assert.NotNil(t, handler)
	assert.NotNil(t, handler.log)
	assert.NotNil(t, handler.middleware)
}
