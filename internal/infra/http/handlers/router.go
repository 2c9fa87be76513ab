package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riandyrn/otelchi"
	"go.uber.org/zap"

	"github.com/fsrviagens/leads-api/internal/infra/http/middleware"
	"github.com/fsrviagens/leads-api/internal/infra/ratelimit"
)

type RouterConfig struct {
	ServiceName   string
	CORSOrigins   []string
	AdminUser     string
	AdminPassword string
	Limiter       ratelimit.Limiter
	TrustProxy    bool // só atrás de um proxy que reescreve X-Forwarded-For
	Log           *zap.SugaredLogger

	Lead   *LeadHandler
	Admin  *AdminHandler
	Health *HealthHandler
}

// NewRouter monta as rotas públicas, o /metrics e a área admin (só quando há
// credenciais).
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	r := chi.NewRouter()

	if cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(otelchi.Middleware(cfg.ServiceName, otelchi.WithChiRoutes(r)))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	if cfg.Health != nil {
		r.Get("/health", cfg.Health.Handle)
	}
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if cfg.Limiter != nil {
			r.Use(middleware.RateLimit(cfg.Limiter, log))
		}
		r.Post("/api/leads", cfg.Lead.Submit)
		r.Post("/processa_cadastro", cfg.Lead.Submit)
	})

	if cfg.Admin != nil && cfg.AdminUser != "" && cfg.AdminPassword != "" {
		r.Route("/admin", func(r chi.Router) {
			r.Use(chimw.BasicAuth("leads-admin", map[string]string{cfg.AdminUser: cfg.AdminPassword}))
			r.Get("/leads", cfg.Admin.List)
		})
	}

	return r
}
