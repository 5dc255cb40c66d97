package user

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"postercart/internal/domain/session"
	"postercart/internal/domain/user"
)

type Handler struct {
	service    user.Servicer
	session    session.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service user.Servicer, session session.Servicer, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		session:    session,
		log:        log.With("component", "user_handler"),
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.registerOp(), h.register)
	huma.Register(api, h.loginOp(), h.login)
}

func (h *Handler) register(ctx context.Context, input *registerInput) (*registerOutput, error) {
	userID, err := h.service.Register(ctx, input.Body.Email, input.Body.Password)
	switch {
	case errors.Is(err, user.ErrInvalidInput):
		return nil, huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, user.ErrEmailTaken):
		return nil, huma.Error409Conflict("email already registered")
	case err != nil:
		h.log.Error("register failed", "error", err)
		return nil, huma.Error500InternalServerError("internal error")
	}

	return &registerOutput{
		Body: RegisterResponse{ID: userID.String(), Status: "Ok"},
	}, nil
}

func (h *Handler) login(ctx context.Context, input *loginInput) (*loginOutput, error) {
	u, err := h.service.Authenticate(ctx, input.Body.Email, input.Body.Password)
	if errors.Is(err, user.ErrInvalidAuth) {
		return nil, huma.Error401Unauthorized("invalid credentials")
	}
	if err != nil {
		h.log.Error("authenticate failed", "error", err)
		return nil, huma.Error500InternalServerError("internal error")
	}

	token, err := h.session.Create(ctx, u.ID)
	if err != nil {
		h.log.Error("create session failed", "user_id", u.ID, "error", err)
		return nil, huma.Error500InternalServerError("internal error")
	}

	return &loginOutput{
		Body: LoginResponse{
			UserID: u.ID.String(),
			Token:  token,
			Status: "Ok",
		},
	}, nil
}
