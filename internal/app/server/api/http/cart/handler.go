package cart

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"postercart/internal/app/server/api/http/middleware/auth"
	"postercart/internal/domain/cart"
)

const statusOk = "Ok"

type Handler struct {
	service    cart.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service cart.Servicer, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log.With("component", "cart_handler"),
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.getOp(), h.get)
	huma.Register(api, h.createOp(), h.create)
	huma.Register(api, h.addItemOp(), h.addItem)
	huma.Register(api, h.clearOp(), h.clear)
	huma.Register(api, h.touchOp(), h.touch)
	huma.Register(api, h.updateQuantityOp(), h.updateQuantity)
	huma.Register(api, h.removeItemOp(), h.removeItem)
}

func (h *Handler) get(ctx context.Context, _ *getInput) (*cartOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	c, err := h.service.GetActive(ctx, userID)
	if err != nil {
		return nil, h.toHTTP(err)
	}
	return &cartOutput{Body: cartResponse{Cart: c, Status: statusOk}}, nil
}

func (h *Handler) create(ctx context.Context, input *createInput) (*cartOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	c, err := h.service.Create(ctx, userID, input.Body.Items)
	if err != nil {
		return nil, h.toHTTP(err)
	}
	return &cartOutput{Body: cartResponse{Cart: c, Status: statusOk}}, nil
}

func (h *Handler) addItem(ctx context.Context, input *addItemInput) (*itemOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}
	cartID, err := uuid.Parse(input.CartID)
	if err != nil {
		return nil, huma.Error404NotFound("cart not found")
	}

	it, err := h.service.AddItem(ctx, userID, cartID, input.Body)
	if err != nil {
		return nil, h.toHTTP(err)
	}
	return &itemOutput{Body: itemResponse{Item: it, Status: statusOk}}, nil
}

func (h *Handler) clear(ctx context.Context, input *cartPathInput) (*statusOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}
	cartID, err := uuid.Parse(input.CartID)
	if err != nil {
		return nil, huma.Error404NotFound("cart not found")
	}

	if err := h.service.Clear(ctx, userID, cartID); err != nil {
		return nil, h.toHTTP(err)
	}
	return &statusOutput{Body: statusResponse{Status: statusOk}}, nil
}

func (h *Handler) touch(ctx context.Context, input *cartPathInput) (*statusOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}
	cartID, err := uuid.Parse(input.CartID)
	if err != nil {
		return nil, huma.Error404NotFound("cart not found")
	}

	if err := h.service.Touch(ctx, userID, cartID); err != nil {
		return nil, h.toHTTP(err)
	}
	return &statusOutput{Body: statusResponse{Status: statusOk}}, nil
}

func (h *Handler) updateQuantity(ctx context.Context, input *updateQuantityInput) (*itemOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}
	itemID, err := uuid.Parse(input.ItemID)
	if err != nil {
		return nil, huma.Error404NotFound("cart item not found")
	}

	it, err := h.service.UpdateQuantity(ctx, userID, itemID, input.Body.Quantity)
	if err != nil {
		return nil, h.toHTTP(err)
	}
	return &itemOutput{Body: itemResponse{Item: it, Status: statusOk}}, nil
}

func (h *Handler) removeItem(ctx context.Context, input *itemPathInput) (*statusOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}
	itemID, err := uuid.Parse(input.ItemID)
	if err != nil {
		return nil, huma.Error404NotFound("cart item not found")
	}

	if err := h.service.RemoveItem(ctx, userID, itemID); err != nil {
		return nil, h.toHTTP(err)
	}
	return &statusOutput{Body: statusResponse{Status: statusOk}}, nil
}

func (h *Handler) toHTTP(err error) error {
	switch {
	case errors.Is(err, cart.ErrCartNotFound):
		return huma.Error404NotFound("cart not found")
	case errors.Is(err, cart.ErrItemNotFound):
		return huma.Error404NotFound("cart item not found")
	case errors.Is(err, cart.ErrCartConflict):
		return huma.Error409Conflict("active cart already exists")
	case errors.Is(err, cart.ErrInvalidInput):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, context.Canceled):
		return huma.NewError(499, "request canceled")
	default:
		h.log.Error("cart operation failed", "error", err)
		return huma.Error500InternalServerError("internal error")
	}
}
