package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mobilevet/routefill/internal/http/handlers"
	httpmiddleware "github.com/mobilevet/routefill/internal/http/middleware"
	"github.com/mobilevet/routefill/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	GapfillHandler *handlers.GapfillHandler
	MetricsHandler http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", cfg.GapfillHandler.HealthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/gapfill", func(r chi.Router) {
		r.Post("/candidates", cfg.GapfillHandler.FetchCandidates)
		r.Post("/preview", cfg.GapfillHandler.Preview)
		r.Route("/outreach", func(r chi.Router) {
			r.Post("/open", cfg.GapfillHandler.OpenOutreach)
			r.Post("/message", cfg.GapfillHandler.EditOutreach)
			r.Post("/send", cfg.GapfillHandler.SendOutreach)
			r.Post("/cancel", cfg.GapfillHandler.CancelOutreach)
			r.Post("/dismiss", cfg.GapfillHandler.DismissOutreachError)
			r.Get("/status", cfg.GapfillHandler.OutreachStatus)
			r.Get("/history/{clientID}", cfg.GapfillHandler.OutreachHistory)
		})
	})

	return r
}
