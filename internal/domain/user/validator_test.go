package user

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordValidator_ValidateEmail(t *testing.T) {
	validator := NewPasswordValidator()

	tests := []struct {
		name        string
		email       string
		wantErr     bool
		expectedErr string
	}{
		{
			name:  "valid email",
			email: "alice@example.com",
		},
		{
			name:  "valid with plus",
			email: "alice+posters@example.com",
		},
		{
			name:        "empty",
			email:       "",
			wantErr:     true,
			expectedErr: "email is not valid",
		},
		{
			name:        "no domain",
			email:       "alice@",
			wantErr:     true,
			expectedErr: "email is not valid",
		},
		{
			name:        "too long",
			email:       strings.Repeat("a", 250) + "@example.com",
			wantErr:     true,
			expectedErr: "email must be at most 254 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateEmail(tt.email)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestPasswordValidator_ValidatePassword(t *testing.T) {
	validator := NewPasswordValidator()

	tests := []struct {
		name        string
		password    string
		wantErr     bool
		expectedErr string
	}{
		{
			name:        "too short",
			password:    "abc123",
			wantErr:     true,
			expectedErr: "password must be at least 8 characters",
		},
		{
			name:        "too long",
			password:    strings.Repeat("a1", 40),
			wantErr:     true,
			expectedErr: "password must be at most 72 bytes",
		},
		{
			name:        "no lowercase",
			password:    "ABC12345",
			wantErr:     true,
			expectedErr: "password must contain at least one lowercase letter",
		},
		{
			name:        "no digit",
			password:    "abcdefgh",
			wantErr:     true,
			expectedErr: "password must contain at least one digit",
		},
		{
			name:     "uppercase optional",
			password: "poster4wall",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidatePassword(tt.password)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestPasswordValidator_ValidateRegister(t *testing.T) {
	validator := NewPasswordValidator()

	tests := []struct {
		name           string
		email          string
		password       string
		wantErr        bool
		expectedErrMsg string
	}{
		{
			name:     "valid registration",
			email:    "alice@example.com",
			password: "poster4wall",
		},
		{
			name:           "invalid email",
			email:          "alice",
			password:       "poster4wall",
			wantErr:        true,
			expectedErrMsg: "email validation failed",
		},
		{
			name:           "invalid password",
			email:          "alice@example.com",
			password:       "abc",
			wantErr:        true,
			expectedErrMsg: "password validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateRegister(tt.email, tt.password)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedErrMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "alice@example.com", NormalizeEmail("  ALICE@Example.COM\n"))
}
