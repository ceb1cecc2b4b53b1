// Package api exposes the calibration engine over HTTP for collaborators.
// The surface is deliberately thin: every invariant lives in the engine.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"calengine/internal"
	"calengine/ports"
)

// Server is the HTTP front of the engine.
type Server struct {
	router     *chi.Mux
	calibrator ports.Calibrator
	certs      ports.CertificateRepository // optional, nil disables lookups
	logger     *internal.Logger
}

// NewServer wires the routes. certs may be nil when no repository is
// configured; certificate lookup endpoints then return 404.
func NewServer(calibrator ports.Calibrator, certs ports.CertificateRepository, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	s := &Server{
		router:     chi.NewRouter(),
		calibrator: calibrator,
		certs:      certs,
		logger:     logger,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))

	s.router.Get("/health", s.handleHealth)
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/calibrate", s.handleCalibrate)
		r.Post("/certificates/verify", s.handleVerify)
		r.Get("/certificates/{instanceID}", s.handleGetCertificate)
	})
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe starts serving on addr.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("calibration API listening on %s", addr)
	return http.ListenAndServe(addr, s.router)
}
