package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	// Validate возвращает владельца действующей сессии или ErrInvalidSession
	Validate(ctx context.Context, tokenHash string) (uuid.UUID, error)
}
