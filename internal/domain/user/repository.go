package user

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create возвращает ErrEmailTaken, если email уже занят
	Create(ctx context.Context, email, passwordHash string) (uuid.UUID, error)
	FindByEmail(ctx context.Context, email string) (User, error)
}
