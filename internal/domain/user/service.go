package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

type Servicer interface {
	Register(ctx context.Context, email, password string) (uuid.UUID, error)
	Authenticate(ctx context.Context, email, password string) (User, error)
}

type Service struct {
	repo      Repository
	validator Validator
	log       *slog.Logger
}

func NewService(repo Repository, validator Validator, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		validator: validator,
		log:       log.With("component", "user_service"),
	}
}

func (s *Service) Register(ctx context.Context, email, password string) (uuid.UUID, error) {
	email = NormalizeEmail(email)
	if err := s.validator.ValidateRegister(email, password); err != nil {
		s.log.Debug("validation failed", "email", email, "error", err)
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return uuid.Nil, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.repo.Create(ctx, email, string(hash))
	if err != nil {
		return uuid.Nil, err
	}

	s.log.Info("user registered", "user_id", id)
	return id, nil
}

// Authenticate не различает неизвестный email и неверный пароль
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	email = NormalizeEmail(email)
	if err := s.validator.ValidateEmail(email); err != nil {
		return User{}, ErrInvalidAuth
	}

	u, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrInvalidAuth
	}
	if err != nil {
		return User{}, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		s.log.Debug("password mismatch", "user_id", u.ID)
		return User{}, ErrInvalidAuth
	}

	return u, nil
}
