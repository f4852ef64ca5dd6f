package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/candyxpe/supportbot/internal/middleware"
)

// RouterConfig configures the operations router.
type RouterConfig struct {
	// Token guards /api and /ws routes when set.
	Token         string
	AllowedOrigin string
	// Feed serves /ws/staff; nil leaves the route unregistered.
	Feed http.Handler
}

// NewRouter builds the operations router.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	if cfg.AllowedOrigin != "" {
		r.Use(middleware.CORS(cfg.AllowedOrigin))
	}

	r.Get("/health", h.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireToken(cfg.Token))

		r.Route("/api", func(r chi.Router) {
			r.Get("/stats", h.Stats)
			r.Get("/agents", h.Agents)
			r.Get("/bans", h.Bans)
		})
		if cfg.Feed != nil {
			r.Get("/ws/staff", cfg.Feed.ServeHTTP)
		}
	})

	return r
}
