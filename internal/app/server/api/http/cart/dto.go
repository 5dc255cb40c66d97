package cart

import "postercart/internal/domain/cart"

type getInput struct{}

type createInput struct {
	Body createRequest
}

type createRequest struct {
	Items []cart.ItemInput `json:"items" maxItems:"500" doc:"Lines of the new cart"`
}

type cartOutput struct {
	Body cartResponse
}

type cartResponse struct {
	Cart   *cart.Cart `json:"cart"`
	Status string     `json:"status" example:"Ok"`
}

type cartPathInput struct {
	CartID string `path:"cartID" doc:"Cart ID"`
}

type addItemInput struct {
	CartID string `path:"cartID" doc:"Cart ID"`
	Body   cart.ItemInput
}

type updateQuantityInput struct {
	ItemID string `path:"itemID" doc:"Cart item ID"`
	Body   updateQuantityRequest
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity" maximum:"10000" doc:"New quantity; zero or less removes the line"`
}

type itemPathInput struct {
	ItemID string `path:"itemID" doc:"Cart item ID"`
}

type itemOutput struct {
	Body itemResponse
}

type itemResponse struct {
	Item   *cart.Item `json:"item,omitempty"`
	Status string     `json:"status" example:"Ok"`
}

type statusOutput struct {
	Body statusResponse
}

type statusResponse struct {
	Status string `json:"status" example:"Ok"`
}
