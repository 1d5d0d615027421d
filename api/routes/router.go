package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/tablepos-backend/api/controllers"
	sessioncontrollers "github.com/angelmondragon/tablepos-backend/api/controllers/cashsessions"
	expensecontrollers "github.com/angelmondragon/tablepos-backend/api/controllers/expenses"
	inventorycontrollers "github.com/angelmondragon/tablepos-backend/api/controllers/inventory"
	ordercontrollers "github.com/angelmondragon/tablepos-backend/api/controllers/orders"
	"github.com/angelmondragon/tablepos-backend/api/middleware"
	"github.com/angelmondragon/tablepos-backend/internal/cashsessions"
	"github.com/angelmondragon/tablepos-backend/internal/catalog"
	"github.com/angelmondragon/tablepos-backend/internal/expenses"
	"github.com/angelmondragon/tablepos-backend/internal/inventory"
	"github.com/angelmondragon/tablepos-backend/internal/orders"
	"github.com/angelmondragon/tablepos-backend/pkg/config"
	"github.com/angelmondragon/tablepos-backend/pkg/db"
	"github.com/angelmondragon/tablepos-backend/pkg/enums"
	"github.com/angelmondragon/tablepos-backend/pkg/logger"
	"github.com/angelmondragon/tablepos-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/tablepos-backend/pkg/redis"
)

// RedisStore is the slice of the redis client the HTTP layer uses.
type RedisStore interface {
	pkgredis.IdempotencyStore
	pkgredis.RateLimiterStore
	Ping(ctx context.Context) error
}

// Services bundles the domain services exposed over HTTP.
type Services struct {
	Catalog      catalog.Service
	Inventory    inventory.Service
	CashSessions cashsessions.Service
	Orders       orders.Service
	Expenses     expenses.Service
}

// Observability carries the prometheus wiring. A nil Gatherer disables /metrics.
type Observability struct {
	HTTP     *metrics.HTTPMetrics
	Gatherer prometheus.Gatherer
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	loc *time.Location,
	dbP db.Pinger,
	redisStore RedisStore,
	svcs Services,
	obs Observability,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(obs.HTTP),
		middleware.CORS(cfg.HTTP.CORSOrigins),
	)

	writePolicy := middleware.NewWriteRateLimitPolicy(cfg.HTTP.WriteRateWindow, cfg.HTTP.WriteRateLimit)
	idempotent := middleware.Idempotency(redisStore, cfg.Redis.IdempotencyTTL, logg)

	manager := middleware.RequireRoles(logg, enums.RoleManager)
	staff := middleware.RequireRoles(logg, enums.RoleManager, enums.RoleCashier)
	kitchen := middleware.RequireRoles(logg, enums.RoleManager, enums.RoleKitchen)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg,
			controllers.ReadinessCheck{Name: "postgres", Ping: pingFunc(dbP)},
			controllers.ReadinessCheck{Name: "redis", Ping: pingFunc(redisStore)},
		))
	})

	if cfg.Metrics.Enabled && obs.Gatherer != nil {
		r.Method(http.MethodGet, cfg.Metrics.Path, promhttp.HandlerFor(obs.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.WriteRateLimit(writePolicy, redisStore, logg))

		r.Get("/products", controllers.ListProducts(svcs.Catalog, logg))

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/availability", inventorycontrollers.Availability(svcs.Inventory, logg))
			r.With(manager).Get("/movements", inventorycontrollers.Movements(svcs.Inventory, logg))
			r.With(manager).Put("/dishes/{productId}/quota", inventorycontrollers.SetDailyQuota(svcs.Inventory, logg))
			r.With(manager, idempotent).Post("/beverages/{productId}/ingress", inventorycontrollers.Ingress(svcs.Inventory, logg))
			r.With(manager, idempotent).Post("/shrinkage", inventorycontrollers.Shrink(svcs.Inventory, logg))
		})

		r.Route("/cash-sessions", func(r chi.Router) {
			r.With(staff, idempotent).Post("/", sessioncontrollers.Open(svcs.CashSessions, logg))
			r.With(manager).Get("/", sessioncontrollers.History(svcs.CashSessions, loc, logg))
			r.With(staff).Get("/current", sessioncontrollers.Current(svcs.CashSessions, logg))
			r.With(staff).Get("/{sessionId}/summary", sessioncontrollers.Summary(svcs.CashSessions, logg))
			r.With(staff, idempotent).Post("/{sessionId}/close", sessioncontrollers.Close(svcs.CashSessions, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(staff, idempotent).Post("/", ordercontrollers.Create(svcs.Orders, logg))
			r.With(staff).Get("/", ordercontrollers.List(svcs.Orders, loc, logg))
			r.Get("/kitchen", ordercontrollers.Kitchen(svcs.Orders, loc, logg))
			r.With(kitchen).Post("/lines/{lineId}/ready", ordercontrollers.LineReady(svcs.Orders, logg))

			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", ordercontrollers.Detail(svcs.Orders, logg))
				r.With(staff).Patch("/", ordercontrollers.UpdateHeader(svcs.Orders, logg))
				r.With(staff).Delete("/", ordercontrollers.Delete(svcs.Orders, logg))
				r.With(staff).Put("/items", ordercontrollers.ReplaceItems(svcs.Orders, logg))
				r.With(staff, idempotent).Post("/items", ordercontrollers.AddItems(svcs.Orders, logg))
				r.With(staff).Patch("/items/{lineId}", ordercontrollers.EditItem(svcs.Orders, logg))
				r.With(staff).Delete("/items/{lineId}", ordercontrollers.RemoveItem(svcs.Orders, logg))
				r.With(staff, idempotent).Post("/pay", ordercontrollers.Pay(svcs.Orders, logg))
			})
		})

		r.Route("/expenses", func(r chi.Router) {
			r.With(staff, idempotent).Post("/", expensecontrollers.Create(svcs.Expenses, logg))
			r.With(staff).Get("/", expensecontrollers.List(svcs.Expenses, logg))
			r.With(manager).Get("/summary", expensecontrollers.Summary(svcs.Expenses, logg))
			r.With(staff).Get("/{expenseId}", expensecontrollers.Detail(svcs.Expenses, logg))
			r.With(staff).Patch("/{expenseId}", expensecontrollers.Update(svcs.Expenses, logg))
			r.With(manager).Delete("/{expenseId}", expensecontrollers.Delete(svcs.Expenses, logg))
		})
	})

	return r
}

type pinger interface {
	Ping(ctx context.Context) error
}

func pingFunc(p pinger) func(context.Context) error {
	if p == nil {
		return nil
	}
	return p.Ping
}
