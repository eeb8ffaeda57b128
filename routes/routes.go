package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/provider-manager/backend/app"
	"github.com/provider-manager/backend/handlers"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	healthHandler := handlers.NewHealthHandler(deps.DB.DB, deps.Logger)
	runtimeHandler := handlers.NewRuntimeHandler(deps.Runtime, deps.Logger)
	usageHandler := handlers.NewUsageHandler(deps.Usage, deps.Logger)
	auditHandler := handlers.NewAuditHandler(deps.Audit, deps.Logger)
	killSwitchHandler := handlers.NewKillSwitchHandler(deps.KillSwitch, deps.Audit, deps.Logger)

	// Health check endpoints
	r.Get("/healthz", healthHandler.HandleHealth)
	r.Get("/readyz", healthHandler.HandleReadiness)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Runtime execution (requires tenant authentication)
		r.Route("/runtime", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Post("/execute", runtimeHandler.HandleExecute)
		})

		// Usage reporting
		r.Route("/usage", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Get("/summary", usageHandler.HandleDailyTotals)
			r.Get("/events", usageHandler.HandleListEvents)
			r.With(deps.AuthMiddleware.RequireAdmin).Get("/all", usageHandler.HandleSummary)
		})

		// Audit trail (requires admin role)
		r.Route("/audit", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Use(deps.AuthMiddleware.RequireAdmin)
			r.Get("/events", auditHandler.HandleListEvents)
		})

		// Kill switch administration (requires admin role)
		r.Route("/admin", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Use(deps.AuthMiddleware.RequireAdmin)

			r.Get("/kill-switch", killSwitchHandler.HandleGetGlobal)
			r.Put("/kill-switch", killSwitchHandler.HandleSetGlobal)
			r.Put("/tenants/{tenantID}/kill-switch", killSwitchHandler.HandleSetTenant)
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not_found","message":"The requested resource was not found"}`))
	})

	return r
}
