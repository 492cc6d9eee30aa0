package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sevigo/code-atlas/internal/search"
	"github.com/sevigo/code-atlas/internal/server/handler"
)

// NewRouter creates the HTTP router with middleware and the search API
// routes.
func NewRouter(service *search.Service, defaultCfg search.Config, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	searchHandler := handler.NewSearchHandler(service, defaultCfg, logger)
	r.Post("/search", searchHandler.Search)
	r.Get("/search", searchHandler.SearchGet)
	r.Get("/explain", searchHandler.Explain)
	r.Post("/hierarchy/call", searchHandler.CallHierarchy)
	r.Post("/hierarchy/inheritance", searchHandler.InheritanceHierarchy)
	r.Get("/node/{id}", searchHandler.Node)
	r.Get("/stats", searchHandler.Stats)

	return r
}
