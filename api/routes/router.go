package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dnofulla/marketcove-backend/api/controllers"
	"github.com/dnofulla/marketcove-backend/api/middleware"
	"github.com/dnofulla/marketcove-backend/internal/auth"
	"github.com/dnofulla/marketcove-backend/internal/cart"
	"github.com/dnofulla/marketcove-backend/pkg/config"
	"github.com/dnofulla/marketcove-backend/pkg/enums"
	"github.com/dnofulla/marketcove-backend/pkg/logger"
	"github.com/dnofulla/marketcove-backend/pkg/metrics"
	"github.com/dnofulla/marketcove-backend/pkg/redis"
)

// Deps carries everything the router mounts.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DBPinger    controllers.Pinger
	Redis       *redis.Client
	HTTPMetrics *metrics.HTTPMetrics

	AuthService     auth.Service
	RegisterService auth.RegisterService
	ResetService    auth.PasswordResetService
	CartService     cart.Service

	MetricsHandler http.Handler
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	var limiter redis.RateLimiter
	var idemStore redis.IdempotencyStore
	var redisPinger controllers.Pinger
	if deps.Redis != nil {
		limiter = deps.Redis
		idemStore = deps.Redis
		redisPinger = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DBPinger, redisPinger))
	})

	metricsHandler := deps.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).
			Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.With(
			middleware.AuthRateLimit(registerPolicy, limiter, logg),
			middleware.Idempotency(idemStore, logg),
		).Post("/register", controllers.AuthRegister(deps.RegisterService, logg))
		r.Post("/refresh-token", controllers.AuthRefresh(deps.AuthService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).
			Post("/forgot-password", controllers.AuthForgotPassword(deps.ResetService, logg))
		r.Post("/reset-password", controllers.AuthResetPassword(deps.ResetService, logg))
		r.Get("/verify-email", controllers.AuthVerifyEmail(deps.ResetService, logg))
	})

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, string(enums.UserRoleCustomer)))

		// Idempotency is attached inline so the full route pattern is
		// resolved by the time the middleware inspects it.
		idem := middleware.Idempotency(idemStore, logg)

		r.Get("/", controllers.CartFetch(deps.CartService, logg))
		r.Get("/count", controllers.CartItemCount(deps.CartService, logg))
		r.With(idem).Post("/add", controllers.CartAddItem(deps.CartService, logg))
		r.With(idem).Put("/items/{lineId}", controllers.CartUpdateItem(deps.CartService, logg))
		r.Delete("/items/{lineId}", controllers.CartRemoveItem(deps.CartService, logg))
		r.Delete("/clear", controllers.CartClear(deps.CartService, logg))
	})

	return r
}
