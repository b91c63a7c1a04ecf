package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dukerupert/fieldtrack/internal/metrics"
	"github.com/dukerupert/fieldtrack/internal/middleware"
	"github.com/dukerupert/fieldtrack/internal/session"
	ws "github.com/dukerupert/fieldtrack/internal/websocket"
)

// Logout requests are limited per client address.
const (
	logoutLimit  = 10
	logoutWindow = time.Minute
)

// Session is the part of the session controller the status server drives.
type Session interface {
	Status() session.Status
	Logout(ctx context.Context, confirmed bool) error
}

// Server is the agent's local status API.
type Server struct {
	sess        Session
	hub         *ws.Hub
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(sess Session, hub *ws.Hub, logger *slog.Logger) *Server {
	return &Server{
		sess:        sess,
		hub:         hub,
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(middleware.RequestLogger(s.logger.With("component", "http")))

	r.Get("/health", s.healthHandler)
	r.Get("/api/status", s.statusHandler)
	r.With(
		middleware.LocalOnly,
		middleware.RateLimit(s.rateLimiter, middleware.RealIP, logoutLimit, logoutWindow),
	).Post("/api/logout", s.logoutHandler)
	r.Get("/ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.Status())
}

type logoutRequest struct {
	Confirm bool `json:"confirm"`
}

type result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, result{Message: "Invalid request body"})
		return
	}

	err := s.sess.Logout(r.Context(), req.Confirm)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, result{Success: true, Message: "Logging out..."})
	case errors.Is(err, session.ErrNotConfirmed):
		writeJSON(w, http.StatusBadRequest, result{Message: "Logout must be confirmed"})
	case errors.Is(err, session.ErrEnded):
		writeJSON(w, http.StatusConflict, result{Message: "Session already ended"})
	default:
		s.logger.Error("logout", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, result{Message: "Session unavailable"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
