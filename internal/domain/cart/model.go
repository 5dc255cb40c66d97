package cart

import (
	"time"

	"github.com/google/uuid"
)

// DefaultVariantID is stored for products without variants.
const DefaultVariantID = "default"

// MaxQuantity caps a single line. Keep in sync with the ItemInput tag.
const MaxQuantity = 10000

// Cart is a user's cart. At most one cart per user is active; older carts
// are kept deactivated.
type Cart struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Active    bool      `json:"active"`
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Item is a cart line with the product snapshot taken when it was added.
type Item struct {
	ID           uuid.UUID `json:"id"`
	CartID       uuid.UUID `json:"cart_id"`
	ProductID    string    `json:"product_id"`
	VariantID    string    `json:"variant_id"`
	Title        string    `json:"title"`
	Handle       string    `json:"handle"`
	Price        string    `json:"price"`
	CurrencyCode string    `json:"currency_code"`
	ImageURL     string    `json:"image_url,omitempty"`
	Quantity     int       `json:"quantity"`
}

type ItemInput struct {
	ProductID    string `json:"product_id" validate:"required,max=255"`
	VariantID    string `json:"variant_id" validate:"max=255"`
	Title        string `json:"title" validate:"required,max=512"`
	Handle       string `json:"handle" validate:"max=255"`
	Price        string `json:"price" validate:"omitempty,numeric"`
	CurrencyCode string `json:"currency_code" validate:"omitempty,len=3,alpha"`
	ImageURL     string `json:"image_url,omitempty" validate:"max=2048"`
	Quantity     int    `json:"quantity" validate:"min=1,max=10000"`
}

func (in ItemInput) normalized() ItemInput {
	if in.VariantID == "" {
		in.VariantID = DefaultVariantID
	}
	return in
}

// TotalQuantity sums quantities over all lines.
func (c *Cart) TotalQuantity() int {
	total := 0
	for _, it := range c.Items {
		total += it.Quantity
	}
	return total
}
