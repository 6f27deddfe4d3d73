package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/wolfman30/mojito-booking/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/mojito-booking/internal/http/middleware"
	"github.com/wolfman30/mojito-booking/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	BookingHandler     *handlers.BookingHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// SubmitLimiter throttles POST /booking/submit per client IP (optional).
	SubmitLimiter httpmiddleware.Limiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", handlers.Health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.BookingHandler != nil {
		r.Route("/booking", func(b chi.Router) {
			b.Get("/", cfg.BookingHandler.Page)
			b.Get("/state", cfg.BookingHandler.State)
			b.Post("/fields", cfg.BookingHandler.ChangeField)
			submit := http.HandlerFunc(cfg.BookingHandler.Submit)
			if cfg.SubmitLimiter != nil {
				b.With(httpmiddleware.RateLimit(cfg.SubmitLimiter, cfg.Logger)).Post("/submit", submit)
			} else {
				b.Post("/submit", submit)
			}
		})
	}

	return r
}
