// Package server exposes the dispatch pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prashantdagar001/automation-api/config"
	"github.com/prashantdagar001/automation-api/dispatch"
	"github.com/prashantdagar001/automation-api/errors"
	"github.com/prashantdagar001/automation-api/internal/mylog"
	"github.com/prashantdagar001/automation-api/registry"
	"github.com/prashantdagar001/automation-api/session"
)

const (
	serviceName        = "Automation Function API"
	serviceDescription = "API service for retrieving and executing automation functions"
	serviceVersion     = "1.0.0"
)

type Server struct {
	logger   *mylog.Logger
	config   *config.ServerConfig
	sessions session.Manager

	httpServer *http.Server
}

func New(
	logger *mylog.Logger,
	conf *config.ServerConfig,
	dispatcher dispatch.Service,
	reg registry.Service,
	sessions session.Manager,
	sessionConf *config.SessionConfig,
) *Server {
	s := &Server{
		logger:   logger,
		config:   conf,
		sessions: sessions,
	}
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", conf.Host, conf.Port),
		Handler:           s.buildHandler(dispatcher, reg, sessionConf),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe blocks until the listener fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("starting http server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrapf(err, "http server failed")
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return errors.WithStack(s.httpServer.Shutdown(ctx))
}

// Handler returns the fully wrapped handler, exported for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) buildHandler(dispatcher dispatch.Service, reg registry.Service, sessionConf *config.SessionConfig) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, s.logger, http.StatusOK, map[string]any{
			"name":        serviceName,
			"description": serviceDescription,
			"version":     serviceVersion,
		})
	}).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/execute", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt    string `json:"prompt"`
			SessionID string `json:"session_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		resp, err := dispatcher.Execute(r.Context(), req.Prompt, req.SessionID)
		if err != nil {
			// A failed match or unresolved parameters are user-facing
			// outcomes, not transport errors.
			if resp != nil && (errors.Is(err, errors.ErrNoMatch) || errors.Is(err, errors.ErrMissingParameter)) {
				writeJSON(w, s.logger, http.StatusOK, resp)
				return
			}
			s.writeError(w, err)
			return
		}

		writeJSON(w, s.logger, http.StatusOK, resp)
	}).Methods("POST")

	api.HandleFunc("/session/create", func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.sessions.CreateSession(r.Context())
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, s.logger, http.StatusOK, map[string]any{
			"session_id": sess.ID,
		})
	}).Methods("POST")

	api.HandleFunc("/session/history", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			SessionID string `json:"session_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.SessionID == "" {
			s.writeError(w, errors.Wrapf(errors.ErrInvalidRequest, "session_id is required"))
			return
		}

		history, err := s.sessions.GetHistory(r.Context(), req.SessionID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if history == nil {
			history = []session.Interaction{}
		}
		writeJSON(w, s.logger, http.StatusOK, map[string]any{
			"session_id": req.SessionID,
			"history":    history,
		})
	}).Methods("POST")

	api.HandleFunc("/registry/initialize", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ModulePaths []string `json:"module_paths"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if len(req.ModulePaths) == 0 {
			s.writeError(w, errors.Wrapf(errors.ErrInvalidRequest, "module_paths is required"))
			return
		}

		summaries, err := reg.RegisterModules(r.Context(), req.ModulePaths)
		if err != nil && len(summaries) == 0 {
			s.writeError(w, err)
			return
		}
		writeJSON(w, s.logger, http.StatusOK, map[string]any{
			"results": summaries,
		})
	}).Methods("POST")

	api.HandleFunc("/registry/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, s.logger, http.StatusOK, reg.Status())
	}).Methods("GET")

	api.HandleFunc("/cleanup", func(w http.ResponseWriter, r *http.Request) {
		removed, err := s.sessions.Cleanup(r.Context(), sessionConf.MaxAge)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, s.logger, http.StatusOK, map[string]any{
			"success":          true,
			"sessions_removed": removed,
		})
	}).Methods("POST")

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.PrintRecoveryStack(true),
		handlers.RecoveryLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError)),
	)

	return cors(recovery(router))
}

// writeError maps classified errors onto HTTP statuses. Upstream provider
// and module import failures surface as 502 so callers can tell degraded
// service from a bad request.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errors.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, errors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errors.ErrImportFailure), errors.Is(err, errors.ErrProviderUnavailable):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}

	writeJSON(w, s.logger, status, map[string]any{
		"success": false,
		"error":   err.Error(),
	})
}

func writeJSON(w http.ResponseWriter, logger *mylog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", "err", err)
	}
}
