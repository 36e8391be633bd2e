package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Get("/statistics", h.Statistics)
		r.Get("/startIndexing", h.StartIndexing)
		r.Get("/stopIndexing", h.StopIndexing)
		r.Get("/search", h.Search)
		r.Post("/indexPage", h.IndexPage)
	})
	return r
}
