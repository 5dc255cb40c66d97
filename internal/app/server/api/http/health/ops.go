package health

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) healthCheckOp() huma.Operation {
	return huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/v1/health",
		Summary:     "Cart server liveness",
		Description: "Pings the storage dependencies. Used by clients as a connectivity probe.",
		Tags:        []string{"health"},
		Middlewares: h.middleware,
	}
}
