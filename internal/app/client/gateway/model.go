package gateway

import "time"

// Identity - аутентифицированный пользователь, от имени которого идут запросы
type Identity struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
}

// IsZero сообщает, что идентичность не задана
func (i Identity) IsZero() bool {
	return i.UserID == "" || i.Token == ""
}

// ServerCart - активная корзина пользователя на сервере
type ServerCart struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	Active    bool         `json:"active"`
	Items     []ServerItem `json:"items"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// ServerItem - строка серверной корзины
type ServerItem struct {
	ID           string `json:"id"`
	ProductID    string `json:"product_id"`
	VariantID    string `json:"variant_id"`
	Title        string `json:"title"`
	Handle       string `json:"handle"`
	Price        string `json:"price"`
	CurrencyCode string `json:"currency_code"`
	ImageURL     string `json:"image_url,omitempty"`
	Quantity     int    `json:"quantity"`
}

// ItemInput - строка для создания корзины или добавления товара
type ItemInput struct {
	ProductID    string `json:"product_id"`
	VariantID    string `json:"variant_id"`
	Title        string `json:"title"`
	Handle       string `json:"handle"`
	Price        string `json:"price"`
	CurrencyCode string `json:"currency_code"`
	ImageURL     string `json:"image_url,omitempty"`
	Quantity     int    `json:"quantity"`
}

type createCartRequest struct {
	Items []ItemInput `json:"items"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type cartResponse struct {
	Cart   ServerCart `json:"cart"`
	Status string     `json:"status"`
}

type itemResponse struct {
	Item   ServerItem `json:"item"`
	Status string     `json:"status"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

type loginResponse struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
	Status string `json:"status"`
}

// problem - тело ошибки huma (RFC 9457)
type problem struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}
