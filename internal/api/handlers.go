// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/raceroom/internal/logging"
	"github.com/tomtom215/raceroom/internal/racetime"
)

// Handler serves the ops endpoints.
type Handler struct {
	sessions  SessionLister
	startTime time.Time
}

// NewHandler creates a handler over sessions.
func NewHandler(sessions SessionLister) *Handler {
	return &Handler{sessions: sessions, startTime: time.Now()}
}

// HealthStatus is the body of GET /healthz.
type HealthStatus struct {
	Status   string  `json:"status"`
	Sessions int     `json:"sessions"`
	Uptime   float64 `json:"uptime_seconds"`
}

// Health handles GET /healthz. The daemon is healthy while it runs; the
// session count tells monitors how many rooms are joined.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, HealthStatus{
		Status:   "ok",
		Sessions: len(h.list()),
		Uptime:   time.Since(h.startTime).Seconds(),
	})
}

// Sessions handles GET /api/v1/sessions.
func (h *Handler) Sessions(w http.ResponseWriter, r *http.Request) {
	sessions := h.list()
	logging.Ctx(r.Context()).Debug().Int("sessions", len(sessions)).Msg("Listing race room sessions")
	respondJSON(w, http.StatusOK, sessions)
}

func (h *Handler) list() []racetime.SessionInfo {
	if h.sessions == nil {
		return []racetime.SessionInfo{}
	}
	sessions := h.sessions.Sessions()
	if sessions == nil {
		return []racetime.SessionInfo{}
	}
	return sessions
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondJSON sends v as JSON with status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}
