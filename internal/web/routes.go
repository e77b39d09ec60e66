package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kmuriithi/vehicleguard/internal/web/handlers"
	"github.com/kmuriithi/vehicleguard/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	authHandler := handlers.NewAuthHandler(s.coord, s.logger)
	engineHandler := handlers.NewEngineHandler(s.coord, s.logger)
	vehicleHandler := handlers.NewVehicleHandler(s.store, s.logger)
	telemetryHandler := handlers.NewTelemetryHandler(s.coord, s.store, s.logger)

	// Health check (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireAPIKey(s.config.Web.APIKey))

		r.Post("/authenticate", authHandler.Authenticate)

		r.Route("/vehicles/{id}", func(r chi.Router) {
			r.Get("/", vehicleHandler.Status)
			r.Get("/logs", vehicleHandler.Logs)
			r.Get("/events", vehicleHandler.Events)
			r.Post("/engine", engineHandler.Set)
			r.Get("/location", telemetryHandler.Location)
			r.Post("/location", telemetryHandler.ProbeLocation)
		})

		r.Post("/heartbeat", telemetryHandler.Heartbeat)
	})
}
