package cart

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists carts. Every operation is scoped to userID: a cart or
// item owned by someone else is reported as not found.
type Repository interface {
	GetActive(ctx context.Context, userID uuid.UUID) (*Cart, error)
	// Create deactivates the user's current cart and inserts a new active one.
	Create(ctx context.Context, userID uuid.UUID, items []ItemInput) (*Cart, error)
	// AddItem inserts a line or increments the quantity of the line with the
	// same product and variant.
	AddItem(ctx context.Context, userID, cartID uuid.UUID, item ItemInput) (*Item, error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*Item, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
	Clear(ctx context.Context, userID, cartID uuid.UUID) error
	Touch(ctx context.Context, userID, cartID uuid.UUID) error
}

// Cache keeps the active cart per user. Get returns ErrCacheMiss when absent.
type Cache interface {
	Get(ctx context.Context, userID string) (*Cart, error)
	Set(ctx context.Context, userID string, cart *Cart) error
	Delete(ctx context.Context, userID string) error
}
