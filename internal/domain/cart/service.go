package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

const maxItems = 500

type Servicer interface {
	GetActive(ctx context.Context, userID uuid.UUID) (*Cart, error)
	Create(ctx context.Context, userID uuid.UUID, items []ItemInput) (*Cart, error)
	AddItem(ctx context.Context, userID, cartID uuid.UUID, item ItemInput) (*Item, error)
	// UpdateQuantity deletes the line when quantity <= 0 and returns a nil item.
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*Item, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
	Clear(ctx context.Context, userID, cartID uuid.UUID) error
	Touch(ctx context.Context, userID, cartID uuid.UUID) error
}

type Service struct {
	repo     Repository
	cache    Cache
	validate *validator.Validate
	log      *slog.Logger
}

// NewService creates the cart service. cache may be nil.
func NewService(repo Repository, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		validate: validator.New(),
		log:      log.With("component", "cart_service"),
	}
}

func (s *Service) GetActive(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	if s.cache != nil {
		c, err := s.cache.Get(ctx, userID.String())
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.log.Warn("cart cache read failed", "user_id", userID, "error", err)
		}
	}

	c, err := s.repo.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, userID.String(), c); err != nil {
			s.log.Warn("cart cache write failed", "user_id", userID, "error", err)
		}
	}
	return c, nil
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID, items []ItemInput) (*Cart, error) {
	if len(items) > maxItems {
		return nil, fmt.Errorf("%w: at most %d items", ErrInvalidInput, maxItems)
	}
	for i := range items {
		if err := s.validate.Struct(items[i]); err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrInvalidInput, i, err)
		}
	}

	c, err := s.repo.Create(ctx, userID, mergeInputs(items))
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)

	s.log.Info("cart created", "user_id", userID, "cart_id", c.ID, "items", len(c.Items))
	return c, nil
}

func (s *Service) AddItem(ctx context.Context, userID, cartID uuid.UUID, item ItemInput) (*Item, error) {
	if err := s.validate.Struct(item); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	it, err := s.repo.AddItem(ctx, userID, cartID, item.normalized())
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)
	return it, nil
}

func (s *Service) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*Item, error) {
	if quantity <= 0 {
		return nil, s.RemoveItem(ctx, userID, itemID)
	}
	if quantity > MaxQuantity {
		return nil, fmt.Errorf("%w: quantity above %d", ErrInvalidInput, MaxQuantity)
	}

	it, err := s.repo.UpdateQuantity(ctx, userID, itemID, quantity)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)
	return it, nil
}

func (s *Service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	if err := s.repo.RemoveItem(ctx, userID, itemID); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *Service) Clear(ctx context.Context, userID, cartID uuid.UUID) error {
	if err := s.repo.Clear(ctx, userID, cartID); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *Service) Touch(ctx context.Context, userID, cartID uuid.UUID) error {
	if err := s.repo.Touch(ctx, userID, cartID); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *Service) invalidate(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, userID.String()); err != nil {
		s.log.Warn("cart cache invalidation failed", "user_id", userID, "error", err)
	}
}

// mergeInputs folds lines of the same product and variant into one.
func mergeInputs(items []ItemInput) []ItemInput {
	merged := make([]ItemInput, 0, len(items))
	index := make(map[[2]string]int, len(items))

	for _, in := range items {
		in = in.normalized()
		key := [2]string{in.ProductID, in.VariantID}
		if i, ok := index[key]; ok {
			merged[i].Quantity = min(merged[i].Quantity+in.Quantity, MaxQuantity)
			continue
		}
		index[key] = len(merged)
		merged = append(merged, in)
	}
	return merged
}
