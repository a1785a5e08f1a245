package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wadjakorntonsri/shorturl/pkg/config"
	"github.com/wadjakorntonsri/shorturl/pkg/ports"
)

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, log *slog.Logger, mappings ports.MappingService, resolver ports.Resolver) http.Handler {
	h := NewHTTPHandler(mappings, resolver)
	mw := NewMiddleware(cfg)
	authHandler := NewAuthHandler(cfg)

	r := chi.NewRouter()
	r.Use(RequestLogger(log), Recovery)

	// Public routes
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})
	r.Get("/go/{code}", h.RedirectCode)
	r.Get("/redirect/{path}", h.RedirectTo)
	r.Get("/auth/google/login", authHandler.Login)
	r.Get("/auth/google/callback", authHandler.Callback)
	r.Get("/auth/logout", authHandler.Logout)

	r.Route("/api/v1/mappings", func(r chi.Router) {
		r.Get("/", h.List)

		// Mutations need a caller identity
		r.Group(func(r chi.Router) {
			r.Use(mw.AuthMiddleware)
			r.Post("/", h.Add)
			r.Get("/{id}/edit", h.EditForm)
			r.Put("/{id}", h.Edit)
			r.Delete("/{id}", h.Delete)
		})
	})

	return r
}
