package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/snapreviews/snapreviews/internal/service"
	"github.com/snapreviews/snapreviews/internal/view"
	"github.com/snapreviews/snapreviews/pkg/health"
	"github.com/snapreviews/snapreviews/pkg/middleware"
)

const serviceName = "snapreviews"

// RouterDeps groups what NewRouter wires together.
type RouterDeps struct {
	Businesses     *service.BusinessService
	Reviews        *service.ReviewService
	Renderer       *view.Renderer
	Roles          *RoleResolver
	RateLimiter    *middleware.RateLimiter
	Health         *health.Handler
	CORS           middleware.CORSConfig
	PprofCIDRs     []string
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// NewRouter creates a chi router with every SnapReviews route registered.
func NewRouter(deps RouterDeps) http.Handler {
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = 30 * time.Second
	}
	logger := deps.Logger

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.CORS(deps.CORS))
	r.Use(chimw.Compress(5))
	r.Use(middleware.MethodOverride)

	// Operational endpoints
	r.Get("/health/live", deps.Health.LivenessHandler())
	r.Get("/health/ready", deps.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())
	middleware.RegisterPprof(r, deps.PprofCIDRs, logger)

	r.With(middleware.CacheControl(86400)).Handle("/static/*", view.Static())

	businessHandler := NewBusinessHandler(deps.Businesses, deps.Renderer, logger)
	reviewHandler := NewReviewHandler(deps.Reviews, logger)

	mutating := func(next http.Handler) http.Handler { return next }
	if deps.RateLimiter != nil {
		mutating = deps.RateLimiter.Handler
	}

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(deps.RequestTimeout))
		r.Use(deps.Roles.Handler)
		r.Use(middleware.RequestLogger(logger))
		r.Use(middleware.NoStore)

		r.Get("/", businessHandler.Home)

		r.Route("/business", func(r chi.Router) {
			r.Get("/", businessHandler.List)
			r.Get("/new", businessHandler.New)
			r.Get("/{id}", businessHandler.Show)
			r.Get("/{id}/update", businessHandler.Edit)

			r.Group(func(r chi.Router) {
				r.Use(mutating)

				r.Post("/", businessHandler.Create)
				r.Put("/{id}", businessHandler.Update)
				r.Delete("/{id}", businessHandler.Delete)
				r.Post("/{id}/reviews", reviewHandler.Add)
				r.Delete("/{id}/reviews/{reviewId}", reviewHandler.Remove)
			})
		})
	})

	return r
}
