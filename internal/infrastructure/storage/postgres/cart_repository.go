package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"postercart/internal/domain/cart"
)

const itemColumns = `i.id, i.cart_id, i.product_id, i.variant_id, i.title, i.handle,
       i.price, i.currency_code, i.image_url, i.quantity`

type CartRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewCartRepository(pool *pgxpool.Pool, log *slog.Logger) *CartRepository {
	return &CartRepository{
		pool: pool,
		log:  log.With("component", "cart_repository"),
	}
}

func (r *CartRepository) GetActive(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	var c cart.Cart
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, active, created_at, updated_at
         FROM carts WHERE user_id = $1 AND active`, userID).
		Scan(&c.ID, &c.UserID, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, cart.ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select cart: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+itemColumns+`
         FROM cart_items i WHERE i.cart_id = $1
         ORDER BY i.created_at, i.id`, c.ID)
	if err != nil {
		return nil, fmt.Errorf("select cart items: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (cart.Item, error) {
		var it cart.Item
		err := scanItem(row, &it)
		return it, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan cart items: %w", err)
	}

	c.Items = items
	return &c, nil
}

func (r *CartRepository) Create(ctx context.Context, userID uuid.UUID, items []cart.ItemInput) (*cart.Cart, error) {
	var c cart.Cart

	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE carts SET active = FALSE, updated_at = NOW()
             WHERE user_id = $1 AND active`, userID)
		if err != nil {
			return fmt.Errorf("deactivate cart: %w", err)
		}
		if tag.RowsAffected() > 0 {
			r.log.Debug("previous cart superseded", "user_id", userID)
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO carts (user_id) VALUES ($1)
             RETURNING id, user_id, active, created_at, updated_at`, userID).
			Scan(&c.ID, &c.UserID, &c.Active, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert cart: %w", err)
		}

		c.Items = make([]cart.Item, 0, len(items))
		for _, in := range items {
			it, err := upsertItem(ctx, tx, c.ID, in)
			if err != nil {
				return err
			}
			c.Items = append(c.Items, *it)
		}
		return nil
	})
	if isUniqueViolation(err) {
		return nil, cart.ErrCartConflict
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CartRepository) AddItem(ctx context.Context, userID, cartID uuid.UUID, in cart.ItemInput) (*cart.Item, error) {
	var it *cart.Item

	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := touchOwned(ctx, tx, userID, cartID); err != nil {
			return err
		}
		var err error
		it, err = upsertItem(ctx, tx, cartID, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (r *CartRepository) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*cart.Item, error) {
	var it cart.Item

	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`UPDATE cart_items i SET quantity = $3, updated_at = NOW()
             FROM carts c
             WHERE i.id = $1 AND i.cart_id = c.id AND c.user_id = $2 AND c.active
             RETURNING `+itemColumns, itemID, userID, quantity)
		if err := scanItem(row, &it); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return cart.ErrItemNotFound
			}
			return fmt.Errorf("update cart item: %w", err)
		}
		return touchOwned(ctx, tx, userID, it.CartID)
	})
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *CartRepository) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		var cartID uuid.UUID
		err := tx.QueryRow(ctx,
			`DELETE FROM cart_items i USING carts c
             WHERE i.id = $1 AND i.cart_id = c.id AND c.user_id = $2 AND c.active
             RETURNING i.cart_id`, itemID, userID).Scan(&cartID)
		if errors.Is(err, pgx.ErrNoRows) {
			return cart.ErrItemNotFound
		}
		if err != nil {
			return fmt.Errorf("delete cart item: %w", err)
		}
		return touchOwned(ctx, tx, userID, cartID)
	})
}

func (r *CartRepository) Clear(ctx context.Context, userID, cartID uuid.UUID) error {
	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := touchOwned(ctx, tx, userID, cartID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		return nil
	})
}

func (r *CartRepository) Touch(ctx context.Context, userID, cartID uuid.UUID) error {
	return touchOwned(ctx, r.pool, userID, cartID)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// touchOwned bumps updated_at of the user's active cart, or returns
// ErrCartNotFound when the cart is not the user's active one.
func touchOwned(ctx context.Context, db execer, userID, cartID uuid.UUID) error {
	tag, err := db.Exec(ctx,
		`UPDATE carts SET updated_at = NOW()
         WHERE id = $1 AND user_id = $2 AND active`, cartID, userID)
	if err != nil {
		return fmt.Errorf("touch cart: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrCartNotFound
	}
	return nil
}

func upsertItem(ctx context.Context, tx pgx.Tx, cartID uuid.UUID, in cart.ItemInput) (*cart.Item, error) {
	var it cart.Item
	row := tx.QueryRow(ctx,
		`INSERT INTO cart_items AS i
             (cart_id, product_id, variant_id, title, handle, price, currency_code, image_url, quantity)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
         ON CONFLICT (cart_id, product_id, variant_id) DO UPDATE
         SET quantity = LEAST(i.quantity + EXCLUDED.quantity, $10),
             title = EXCLUDED.title,
             handle = EXCLUDED.handle,
             price = EXCLUDED.price,
             currency_code = EXCLUDED.currency_code,
             image_url = EXCLUDED.image_url,
             updated_at = NOW()
         RETURNING `+itemColumns,
		cartID, in.ProductID, in.VariantID, in.Title, in.Handle, in.Price, in.CurrencyCode, in.ImageURL, in.Quantity, cart.MaxQuantity)
	if err := scanItem(row, &it); err != nil {
		return nil, fmt.Errorf("upsert cart item: %w", err)
	}
	return &it, nil
}

func scanItem(row pgx.Row, it *cart.Item) error {
	return row.Scan(&it.ID, &it.CartID, &it.ProductID, &it.VariantID, &it.Title, &it.Handle,
		&it.Price, &it.CurrencyCode, &it.ImageURL, &it.Quantity)
}
