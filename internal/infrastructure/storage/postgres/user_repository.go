package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"postercart/internal/domain/user"
)

func NewUserRepository(pool *pgxpool.Pool, log *slog.Logger) *UserRepository {
	return &UserRepository{
		pool: pool,
		log:  log.With("component", "user_repository"),
	}
}

type UserRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func (r *UserRepository) Create(ctx context.Context, email, passwordHash string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id`,
		email, passwordHash).Scan(&userID)
	if isUniqueViolation(err) {
		return uuid.Nil, user.ErrEmailTaken
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert user: %w", err)
	}
	return userID, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Email, &u.Password, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return u, user.ErrNotFound
	}
	if err != nil {
		return u, fmt.Errorf("select user: %w", err)
	}

	return u, nil
}
