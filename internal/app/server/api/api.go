// POST   /user/register              # Регистрация (публичный)
// POST   /user/login                 # Логин (публичный)
// GET    /api/cart                   # Активная корзина (auth)
// POST   /api/cart                   # Создать корзину (auth)
// POST   /api/cart/{cartID}/items    # Добавить товар (auth)
// DELETE /api/cart/{cartID}/items    # Очистить корзину (auth)
// POST   /api/cart/{cartID}/touch    # Отметить обновление (auth)
// PATCH  /api/cart/items/{itemID}    # Изменить количество (auth)
// DELETE /api/cart/items/{itemID}    # Удалить строку (auth)

package api

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/exp/slog"

	"postercart/internal/app/server/api/http/cart"
	"postercart/internal/app/server/api/http/health"
	"postercart/internal/app/server/api/http/middleware"
	"postercart/internal/app/server/api/http/middleware/auth"
	"postercart/internal/app/server/api/http/middleware/logger"
	"postercart/internal/app/server/api/http/middleware/metrics"
	"postercart/internal/app/server/api/http/user"
	"postercart/internal/app/server/config"
	cartDomain "postercart/internal/domain/cart"
	"postercart/internal/domain/session"
	userDomain "postercart/internal/domain/user"
	"postercart/internal/infrastructure/storage/postgres"
)

type Handlers struct {
	Health *health.Handler
	User   *user.Handler
	Cart   *cart.Handler
}

// Deps - инфраструктура, из которой собираются обработчики
type Deps struct {
	Config   *config.Config
	Storage  *postgres.Storage
	Cache    cartDomain.Cache
	Registry *prometheus.Registry
}

// New создает *chi.Mux с ВСЕМИ операциями через huma.Register и /metrics
func New(deps Deps, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()

	humaConfig := huma.DefaultConfig("Postercart API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer"},
	}

	API := humachi.New(mux, humaConfig)

	h := handlers(deps, log)
	h.Health.SetupRoutes(API)
	h.User.SetupRoutes(API)
	h.Cart.SetupRoutes(API)

	if deps.Registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	return mux
}

func handlers(deps Deps, log *slog.Logger) *Handlers {
	pool := deps.Storage.Pool()

	sessionRepo := postgres.NewSessionRepository(pool, log)
	sessionService := session.NewService(sessionRepo, deps.Config.Session.TTL, log)
	authMW := auth.New(sessionService, log)
	loggerMW := logger.New(log)
	var registerer prometheus.Registerer
	if deps.Registry != nil {
		registerer = deps.Registry
	}
	metricsMW := metrics.New(registerer)
	middlewares := middleware.NewContainer()

	middlewares.Add(metricsMW.Middleware())
	healthHandler := health.NewHandler(log, middlewares.GetAllAndClear(), health.Dependency{Name: "postgres", Pinger: deps.Storage})

	userRepo := postgres.NewUserRepository(pool, log)
	userService := userDomain.NewService(userRepo, userDomain.NewPasswordValidator(), log)
	middlewares.Add(metricsMW.Middleware())
	middlewares.Add(loggerMW.Middleware())
	userHandler := user.NewHandler(userService, sessionService, log, middlewares.GetAllAndClear())

	cartRepo := postgres.NewCartRepository(pool, log)
	cartService := cartDomain.NewService(cartRepo, deps.Cache, log)
	middlewares.Add(metricsMW.Middleware())
	middlewares.Add(loggerMW.Middleware())
	middlewares.Add(authMW.Middleware())
	cartHandler := cart.NewHandler(cartService, log, middlewares.GetAllAndClear())

	return &Handlers{
		Health: healthHandler,
		User:   userHandler,
		Cart:   cartHandler,
	}
}
