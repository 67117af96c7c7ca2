package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"complyguard-lab/internal/api/handlers"
	apimiddleware "complyguard-lab/internal/api/middleware"
	"complyguard-lab/internal/config"
	"complyguard-lab/internal/infrastructure/cache"
	"complyguard-lab/pkg/logger"
)

// Router holds dependencies for the API router
type Router struct {
	config   config.Config
	handlers *handlers.Handlers
	cache    *cache.RedisCache
	logger   *logger.Logger
}

// NewRouter creates a new Router instance
func NewRouter(cfg config.Config, h *handlers.Handlers, c *cache.RedisCache, log *logger.Logger) *Router {
	return &Router{
		config:   cfg,
		handlers: h,
		cache:    c,
		logger:   log.WithComponent("router"),
	}
}

// Setup sets up the Chi router with all routes and middleware
func (r *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Core middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(apimiddleware.Logger(r.logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   r.config.CORS.AllowedOrigins,
		AllowedMethods:   r.config.CORS.AllowedMethods,
		AllowedHeaders:   r.config.CORS.AllowedHeaders,
		AllowCredentials: r.config.CORS.AllowCredentials,
		MaxAge:           r.config.CORS.MaxAge,
	}))

	// Rate limiting
	if r.config.RateLimit.Enabled {
		router.Use(apimiddleware.RateLimiter(r.cache, r.config.RateLimit))
	}

	// Public routes
	router.Group(func(pub chi.Router) {
		// Health check
		pub.Get("/health", r.handlers.Health.Check)
		pub.Get("/ready", r.handlers.Health.Ready)

		// Public stats
		pub.Get("/api/v1/stats", r.handlers.Stats.Get)
	})

	// API v1 routes (authenticated)
	router.Route("/api/v1", func(api chi.Router) {
		// Auth middleware for protected routes
		api.Use(apimiddleware.APIKeyAuth(r.config.JWT.Secret))

		// Framework catalog endpoints
		api.Route("/frameworks", func(fw chi.Router) {
			fw.Get("/", r.handlers.Frameworks.List)
			fw.Get("/{id}", r.handlers.Frameworks.Get)
			fw.Get("/{id}/controls", r.handlers.Frameworks.Controls)
		})

		// Cross-framework mapping endpoints
		api.Route("/mappings", func(mp chi.Router) {
			mp.Get("/{source}/{target}", r.handlers.Mappings.Get)
		})

		// Assessment endpoints
		api.Route("/assessments", func(as chi.Router) {
			as.Post("/", r.handlers.Assessments.Run)
			as.Get("/", r.handlers.Assessments.List)
			as.Get("/{session_id}", r.handlers.Assessments.GetSession)
		})

		// Gap lifecycle endpoints
		api.Route("/gaps", func(gaps chi.Router) {
			gaps.Post("/analyze", r.handlers.Gaps.Analyze)
			gaps.Get("/", r.handlers.Gaps.List)
			gaps.Get("/{id}", r.handlers.Gaps.Get)
			gaps.Get("/{id}/events", r.handlers.Gaps.ListEvents)
			gaps.Post("/{id}/status", r.handlers.Gaps.UpdateStatus)
			gaps.Post("/{id}/owner", r.handlers.Gaps.AssignOwner)
		})

		// Breach incident endpoints
		api.Route("/incidents", func(inc chi.Router) {
			inc.Post("/", r.handlers.Incidents.Create)
			inc.Get("/", r.handlers.Incidents.List)
			inc.Get("/authorities/{jurisdiction}", r.handlers.Incidents.Authorities)
			inc.Get("/{id}", r.handlers.Incidents.Get)
			inc.Get("/{id}/events", r.handlers.Incidents.ListEvents)
			inc.Post("/{id}/report", r.handlers.Incidents.Report)
		})

		// Admin endpoints
		api.Route("/admin", func(admin chi.Router) {
			// Require admin auth
			admin.Use(apimiddleware.AdminAuth(r.config.JWT.Secret))

			admin.Post("/frameworks/reload", r.handlers.Frameworks.Reload)
		})
	})

	// WebSocket streaming endpoint (real-time compliance updates for dashboards)
	router.Get("/ws/compliance", r.handlers.Streaming.HandleWebSocket)
	router.Get("/api/v1/streaming/stats", r.handlers.Streaming.GetStats)

	return router
}
