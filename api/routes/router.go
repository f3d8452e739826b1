package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/bakery-backend/api/controllers"
	"github.com/angelmondragon/bakery-backend/api/middleware"
	"github.com/angelmondragon/bakery-backend/internal/auth"
	"github.com/angelmondragon/bakery-backend/internal/catalog"
	"github.com/angelmondragon/bakery-backend/internal/orders"
	"github.com/angelmondragon/bakery-backend/internal/profiles"
	"github.com/angelmondragon/bakery-backend/pkg/auth/session"
	"github.com/angelmondragon/bakery-backend/pkg/config"
	"github.com/angelmondragon/bakery-backend/pkg/delivery"
	"github.com/angelmondragon/bakery-backend/pkg/logger"
	"github.com/angelmondragon/bakery-backend/pkg/metrics"
	"github.com/angelmondragon/bakery-backend/pkg/ratelimit"
	pkgredis "github.com/angelmondragon/bakery-backend/pkg/redis"
)

type rateLimiter interface {
	Check(ctx context.Context, identifier string, policy ratelimit.Policy) (ratelimit.Result, error)
}

// Dependencies is everything the HTTP surface needs. Idempotency may be nil,
// in which case retried order requests are not deduplicated.
type Dependencies struct {
	Config      *config.Config
	Logger      *logger.Logger
	Health      map[string]controllers.Pinger
	Sessions    session.AccessSessionChecker
	Limiter     rateLimiter
	Idempotency pkgredis.IdempotencyStore
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics
	Calendar    *delivery.Calculator

	Auth        auth.Service
	Profiles    profiles.Service
	Orders      orders.Service
	AdminOrders orders.AdminService
	Catalog     catalog.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.Health, logg))
	})
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	requireAuth := middleware.Auth(cfg.JWT, deps.Sessions, logg)
	idempotent := middleware.Idempotency(deps.Idempotency, middleware.OrderIdempotencyRules(cfg.Idempotency), logg)
	if deps.Idempotency == nil {
		idempotent = passThrough
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(
			deps.Limiter,
			ratelimit.GeneralAPI(cfg.RateLimit.GeneralMax, cfg.RateLimit.GeneralWindow),
			deps.Calendar.Location(),
			logg,
		))

		r.Route("/public", func(r chi.Router) {
			r.Get("/catalog", controllers.PublicCatalog(deps.Catalog, logg))
			r.Get("/delivery-options", controllers.DeliveryOptions(deps.Calendar))
		})

		r.Route("/v1", func(r chi.Router) {
			r.Route("/auth", func(r chi.Router) {
				r.Post("/register", controllers.AuthRegister(deps.Auth, logg))
				r.Post("/login", controllers.AuthLogin(deps.Auth, logg))
				r.Post("/admin/login", controllers.AdminAuthLogin(deps.Auth, logg))
				r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
				r.With(requireAuth).Post("/logout", controllers.AuthLogout(deps.Auth, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)

				r.Get("/profile", controllers.ProfileGet(deps.Profiles, logg))
				r.Put("/profile", controllers.ProfileUpdate(deps.Profiles, logg))

				r.Get("/orders", controllers.OrdersList(deps.Orders, logg))
				r.With(idempotent).Post("/orders", controllers.OrdersCreate(deps.Orders, logg))
				r.With(idempotent).Post("/orders/{orderId}/cancel", controllers.OrdersCancel(deps.Orders, logg))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAuth, middleware.RequireAdmin(deps.Profiles, logg))

			r.Get("/orders", controllers.AdminOrdersList(deps.AdminOrders, logg))
			r.Get("/orders/stats", controllers.AdminOrdersStats(deps.AdminOrders, logg))
			r.Patch("/orders/{orderId}/status", controllers.AdminOrderStatus(deps.AdminOrders, logg))
			r.Patch("/orders/{orderId}/archive", controllers.AdminOrderArchive(deps.AdminOrders, logg))

			r.Get("/catalog/revisions", controllers.AdminCatalogRevisions(deps.Catalog, logg))
			r.Put("/catalog", controllers.AdminCatalogSave(deps.Catalog, logg))
			r.Patch("/catalog", controllers.AdminCatalogEdit(deps.Catalog, logg))
		})
	})

	return r
}

func passThrough(next http.Handler) http.Handler { return next }
