// Package api exposes the workspace over HTTP/JSON.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"mimi-cli/internal/projtree"
	"mimi-cli/internal/workspace"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// maxActionBody bounds POST /actions; a whole tree travels in loadTree.
const maxActionBody = 16 << 20

type Server struct {
	ws  *workspace.Workspace
	log zerolog.Logger
}

func NewServer(ws *workspace.Workspace, log zerolog.Logger) *Server {
	return &Server{ws: ws, log: log}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLog)

	r.Get("/health", s.handleHealth)
	r.Route("/projects", func(r chi.Router) {
		r.Get("/", s.handleProjects)
		r.Post("/{id}/activate", s.handleActivate)
	})
	r.Route("/state", func(r chi.Router) {
		r.Get("/", s.handleState)
		r.Get("/{projectId}", s.handleProjectState)
	})
	r.Post("/actions", s.handleAction)
	return r
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("http")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"data": s.ws.Catalog.State()})
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing project id")
		return
	}
	ref, err := s.ws.ActivateProject(r.Context(), id)
	if err != nil {
		s.log.Error().Err(err).Str("project", id).Msg("activate project")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": ref})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"data": s.ws.Trees.State()})
}

func (s *Server) handleProjectState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectId")
	ps, ok := s.ws.Trees.Project(id)
	if !ok {
		writeError(w, http.StatusNotFound, "project not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": ps})
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var a projtree.Action
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxActionBody))
	if err := dec.Decode(&a); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "action body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := a.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.ws.Dispatch(r.Context(), a)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	data := map[string]any{"applied": out.Applied}
	if ps, ok := s.ws.Trees.Project(a.ProjectID); ok {
		data["state"] = ps
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}
