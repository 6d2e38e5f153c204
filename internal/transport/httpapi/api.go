package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/delivery/internal/health"
	"github.com/vladislavdragonenkov/delivery/internal/metrics"
	"github.com/vladislavdragonenkov/delivery/internal/service/catalog"
	"github.com/vladislavdragonenkov/delivery/internal/service/idempotency"
	"github.com/vladislavdragonenkov/delivery/internal/service/ordering"
	"github.com/vladislavdragonenkov/delivery/internal/service/reporting"
	"github.com/vladislavdragonenkov/delivery/internal/version"
)

// Services — прикладные сервисы, которые обслуживает REST API.
type Services struct {
	Catalog   *catalog.Service
	Ordering  *ordering.Service
	Reporting *reporting.Service
}

// API связывает HTTP-маршруты с прикладными сервисами.
type API struct {
	catalog   *catalog.Service
	ordering  *ordering.Service
	reporting *reporting.Service

	guard          *idempotency.Guard
	health         *health.Handler
	metrics        *metrics.HTTPMetrics
	metricsHandler http.Handler
	logger         *log.Entry
}

// Option настраивает API.
type Option func(*API)

// WithLogger задаёт логгер API.
func WithLogger(logger *log.Entry) Option {
	return func(a *API) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithMetrics включает метрики HTTP и отдаёт handler на /metrics.
func WithMetrics(m *metrics.HTTPMetrics, handler http.Handler) Option {
	return func(a *API) {
		a.metrics = m
		a.metricsHandler = handler
	}
}

// WithIdempotency включает обработку Idempotency-Key для POST /api/orders.
func WithIdempotency(guard *idempotency.Guard) Option {
	return func(a *API) { a.guard = guard }
}

// WithHealth подключает проверки для /healthz и /readyz.
func WithHealth(h *health.Handler) Option {
	return func(a *API) { a.health = h }
}

// New создаёт API.
func New(services Services, opts ...Option) *API {
	a := &API{
		catalog:   services.Catalog,
		ordering:  services.Ordering,
		reporting: services.Reporting,
		logger:    log.WithField("component", "http-api"),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.health == nil {
		a.health = health.NewHandler(version.Current().Version)
	}
	return a
}

// Routes собирает chi-роутер со всеми маршрутами сервиса.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(a.accessLog)
	r.Use(a.observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", a.health.ServeHTTP)
	r.Get("/livez", health.LivenessHandler)
	r.Get("/readyz", a.health.ReadinessHandler)
	r.Get("/version", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, version.Current())
	})
	if a.metricsHandler != nil {
		r.Handle("/metrics", a.metricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/customers", func(r chi.Router) {
			r.Post("/", a.registerCustomer)
			r.Get("/", a.listCustomers)
			r.Get("/{id}", a.getCustomer)
			r.Put("/{id}", a.updateCustomer)
			r.Delete("/{id}", a.deactivateCustomer)
			r.Get("/{id}/orders", a.customerOrders)
		})
		r.Route("/restaurants", func(r chi.Router) {
			r.Post("/", a.registerRestaurant)
			r.Get("/", a.listRestaurants)
			r.Get("/{id}", a.getRestaurant)
			r.Put("/{id}", a.updateRestaurant)
			r.Patch("/{id}/active", a.setRestaurantActive)
			r.Get("/{id}/products", a.restaurantProducts)
			r.Get("/{id}/orders", a.restaurantOrders)
		})
		r.Route("/products", func(r chi.Router) {
			r.Post("/", a.registerProduct)
			r.Get("/", a.searchProducts)
			r.Get("/{id}", a.getProduct)
			r.Put("/{id}", a.updateProduct)
			r.Patch("/{id}/active", a.setProductActive)
			r.Delete("/{id}", a.deactivateProduct)
		})
		r.Route("/orders", func(r chi.Router) {
			r.With(a.idempotent).Post("/", a.createOrder)
			r.Post("/preview", a.previewTotal)
			r.Get("/", a.listOrders)
			r.Get("/{id}", a.getOrder)
			r.Patch("/{id}/status", a.updateStatus)
			r.Delete("/{id}", a.cancelOrder)
		})
		r.Route("/reports", func(r chi.Router) {
			r.Get("/sales-by-restaurant", a.salesByRestaurant)
			r.Get("/top-products", a.topProducts)
			r.Get("/customer-ranking", a.customerRanking)
			r.Get("/revenue-by-category", a.revenueByCategory)
			r.Get("/orders-by-period", a.ordersByPeriod)
		})
	})

	return r
}
