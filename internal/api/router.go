package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
)

type RouterConfig struct {
	Service      *appointment.Service
	Logger       *zap.Logger
	Dependencies []Dependency
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(middleware.Recoverer)

	health := NewHealthHandler(cfg.Dependencies, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	svc := cfg.Service

	r.Route("/doctors/{id}", func(r chi.Router) {
		r.Get("/available-times", availableTimesHandler(svc, logger))
		r.Get("/specializations", listSpecializationsHandler(svc, logger))
		r.Get("/availability", listAvailabilityHandler(svc, logger))
		r.Post("/availability", createAvailabilityHandler(svc, logger))
		r.Delete("/availability/{windowID}", deleteAvailabilityHandler(svc, logger))
	})

	r.Route("/appointments", func(r chi.Router) {
		r.Use(ActorMiddleware)
		r.Post("/", createAppointmentHandler(svc, logger))
		r.Get("/", listAppointmentsHandler(svc, logger))
		r.Get("/{id}", getAppointmentHandler(svc, logger))
		r.Patch("/{id}/status", updateStatusHandler(svc, logger))
	})

	return r
}
