// Package httpapi serves the entity index over HTTP.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/ports/driving"
)

// Server is the HTTP API server for ailawyer.
type Server struct {
	router   chi.Router
	entities driving.EntityService
	exports  driving.ExportService
}

// NewServer creates and configures the HTTP server.
// exports may be nil, in which case /api/export is not mounted.
func NewServer(entities driving.EntityService, exports driving.ExportService) *Server {
	s := &Server{
		entities: entities,
		exports:  exports,
	}
	s.setupRoutes()
	return s
}

// Mount attaches another handler, such as the MCP transport, under pattern.
// Requests to it share the API middleware.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.router.Mount(pattern, h)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/persons", s.handleSearchPersons)
		r.Get("/persons/{personID}", s.handleGetPerson)
		r.Get("/persons/{personID}/occurrences", s.handleOccurrences)
		r.Post("/pending", s.handlePending)
		r.Get("/snapshots", s.handleSnapshots)
		r.Delete("/cases/{caseID}", s.handleClearCase)
		if s.exports != nil {
			r.Get("/export", s.handleExport)
		}
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
