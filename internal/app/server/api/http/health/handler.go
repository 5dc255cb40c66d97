package health

import (
	"context"
	"fmt"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

const pingTimeout = 2 * time.Second

// Pinger - зависимость, без которой сервис не может обслуживать корзины
type Pinger interface {
	Ping(ctx context.Context) error
}

type Dependency struct {
	Name   string
	Pinger Pinger
}

type Handler struct {
	log        *slog.Logger
	middleware huma.Middlewares
	deps       []Dependency
}

func NewHandler(log *slog.Logger, middleware huma.Middlewares, deps ...Dependency) *Handler {
	return &Handler{
		log:        log.With("component", "health_handler"),
		middleware: middleware,
		deps:       deps,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.healthCheckOp(), h.healthCheck)
}

func (h *Handler) healthCheck(ctx context.Context, _ *Input) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	checks := make(map[string]string, len(h.deps))
	for _, dep := range h.deps {
		if err := dep.Pinger.Ping(ctx); err != nil {
			h.log.Warn("dependency unavailable", "dependency", dep.Name, "error", err)
			return nil, huma.Error503ServiceUnavailable(fmt.Sprintf("%s unavailable", dep.Name))
		}
		checks[dep.Name] = "OK"
	}

	return &Output{
		Body: Response{
			Status: "OK",
			Checks: checks,
		},
	}, nil
}
