// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/raceroom/internal/config"
	"github.com/tomtom215/raceroom/internal/racetime"
)

// SessionLister reports the joined race rooms. *racetime.Client satisfies it.
type SessionLister interface {
	Sessions() []racetime.SessionInfo
}

// Router wires handlers and middleware for the ops server.
type Router struct {
	handler    *Handler
	middleware *Middleware
	gatherer   prometheus.Gatherer
}

// NewRouter creates a router serving sessions. A nil gatherer serves the
// default Prometheus registry.
func NewRouter(cfg *config.ServerConfig, sessions SessionLister, gatherer prometheus.Gatherer) *Router {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Router{
		handler: NewHandler(sessions),
		middleware: NewMiddleware(MiddlewareConfig{
			CORSAllowedOrigins: cfg.CORSOrigins,
			CORSMaxAge:         86400,
			RateLimitRequests:  cfg.RateLimitReqs,
			RateLimitWindow:    cfg.RateLimitWindow,
		}),
		gatherer: gatherer,
	}
}

// Setup builds the Chi route tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.middleware.CORS()) // global so OPTIONS preflight is answered
	r.Use(router.middleware.RateLimit())

	// ========================
	// Health & Metrics
	// ========================
	r.Get("/healthz", router.handler.Health)
	r.Handle("/metrics", promhttp.HandlerFor(router.gatherer, promhttp.HandlerOpts{}))

	// ========================
	// Session API
	// ========================
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Get("/sessions", router.handler.Sessions)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}
