package cart

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

var bearer = []map[string][]string{{"bearer": {}}}

func (h *Handler) getOp() huma.Operation {
	return huma.Operation{
		OperationID: "cart-get-active",
		Method:      http.MethodGet,
		Path:        "/api/cart",
		Summary:     "Get the active cart",
		Tags:        []string{"cart"},
		Security:    bearer,
		Middlewares: h.middleware,
	}
}

func (h *Handler) createOp() huma.Operation {
	return huma.Operation{
		OperationID:   "cart-create",
		Method:        http.MethodPost,
		Path:          "/api/cart",
		Summary:       "Create the active cart",
		Description:   "Supersedes the previous active cart of the user.",
		Tags:          []string{"cart"},
		DefaultStatus: http.StatusCreated,
		Security:      bearer,
		Middlewares:   h.middleware,
	}
}

func (h *Handler) addItemOp() huma.Operation {
	return huma.Operation{
		OperationID: "cart-add-item",
		Method:      http.MethodPost,
		Path:        "/api/cart/{cartID}/items",
		Summary:     "Add a product or increase its quantity",
		Tags:        []string{"cart"},
		Security:    bearer,
		Middlewares: h.middleware,
	}
}

func (h *Handler) clearOp() huma.Operation {
	return huma.Operation{
		OperationID: "cart-clear",
		Method:      http.MethodDelete,
		Path:        "/api/cart/{cartID}/items",
		Summary:     "Remove all lines",
		Tags:        []string{"cart"},
		Security:    bearer,
		Middlewares: h.middleware,
	}
}

func (h *Handler) touchOp() huma.Operation {
	return huma.Operation{
		OperationID: "cart-touch",
		Method:      http.MethodPost,
		Path:        "/api/cart/{cartID}/touch",
		Summary:     "Mark the cart as updated",
		Tags:        []string{"cart"},
		Security:    bearer,
		Middlewares: h.middleware,
	}
}

func (h *Handler) updateQuantityOp() huma.Operation {
	return huma.Operation{
		OperationID: "cart-update-quantity",
		Method:      http.MethodPatch,
		Path:        "/api/cart/items/{itemID}",
		Summary:     "Set the quantity of a line",
		Tags:        []string{"cart"},
		Security:    bearer,
		Middlewares: h.middleware,
	}
}

func (h *Handler) removeItemOp() huma.Operation {
	return huma.Operation{
		OperationID: "cart-remove-item",
		Method:      http.MethodDelete,
		Path:        "/api/cart/items/{itemID}",
		Summary:     "Remove a line",
		Tags:        []string{"cart"},
		Security:    bearer,
		Middlewares: h.middleware,
	}
}
