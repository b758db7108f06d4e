package router

import (
	"net/http"

	"github.com/garanley/claims-intake/internal/content"
	httpmiddleware "github.com/garanley/claims-intake/internal/http/middleware"
	"github.com/garanley/claims-intake/internal/leads"
	"github.com/garanley/claims-intake/internal/webchat"
	"github.com/garanley/claims-intake/internal/wizard"
	"github.com/garanley/claims-intake/pkg/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Config holds router configuration. Nil handlers leave their routes out.
type Config struct {
	Logger             *logging.Logger
	LeadsHandler       *leads.Handler
	WizardHandler      *wizard.Handler
	ChatHandler        *webchat.Handler
	ContentHandler     *content.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	AdminAuthSecret    string

	// RateLimiter guards the routes that reach the model. Nil disables it.
	RateLimiter *httpmiddleware.RateLimiter

	// ReadinessChecks run on GET /ready, keyed by dependency name.
	ReadinessChecks map[string]Check
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5, "application/json"))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	limited := func(next http.Handler) http.Handler { return next }
	if cfg.RateLimiter != nil {
		limited = cfg.RateLimiter.Middleware
	}

	r.Get("/health", health)
	r.Get("/ready", ready(cfg.ReadinessChecks, cfg.Logger))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		if cfg.LeadsHandler != nil {
			api.Route("/leads", func(r chi.Router) {
				r.Post("/contact", cfg.LeadsHandler.ContactForm)
				r.Post("/call-request", cfg.LeadsHandler.CallRequest)
				r.Post("/traffic", cfg.LeadsHandler.TrafficForm)
			})
		}
		if cfg.WizardHandler != nil {
			api.Route("/wizard", func(r chi.Router) {
				cfg.WizardHandler.Routes(r, limited)
			})
		}
		if cfg.ChatHandler != nil {
			api.Route("/chat", func(r chi.Router) {
				cfg.ChatHandler.Routes(r, limited)
			})
		}
		if cfg.ContentHandler != nil {
			cfg.ContentHandler.Routes(api, limited)
		}
	})

	if cfg.AdminAuthSecret != "" && cfg.LeadsHandler != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/leads", cfg.LeadsHandler.ListLeads)
		})
	}

	return r
}
