package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/ShayCichocki/bugtriage/internal/store"
	"github.com/ShayCichocki/bugtriage/internal/triage"
	"github.com/ShayCichocki/bugtriage/internal/version"
	"github.com/ShayCichocki/bugtriage/pkg/models"
)

type errorResponse struct {
	Error string `json:"error"`
}

type countResponse struct {
	Count int `json:"count"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, healthResponse{Status: "ok", Version: version.Get()})
}

// handleTriage never answers 500: a panic while triaging or storing is
// reported as an error record with status 200.
func (s *Server) handleTriage(w http.ResponseWriter, r *http.Request) {
	var report models.FailureReport
	if err := render.DecodeJSON(r.Body, &report); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: "invalid failure report: " + err.Error()})
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("triage panicked", "test", report.TestName, "panic", rec)
			render.JSON(w, r, models.ErrorResult(fmt.Sprint(rec)))
		}
	}()

	result := s.engine.Triage(r.Context(), report)

	stored, err := s.store.Create(r.Context(), triage.Fingerprint(report), result)
	if err != nil {
		s.logger.Warn("store triage result failed", "test", report.TestName, "error", err)
		render.JSON(w, r, result)
		return
	}
	render.JSON(w, r, stored)
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", store.DefaultListLimit)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	offset, err := intParam(r, "offset", 0)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}

	results, err := s.store.List(r.Context(), limit, offset)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	render.JSON(w, r, results)
}

func (s *Server) handleCountResults(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.Count(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	render.JSON(w, r, countResponse{Count: n})
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	res, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		s.notFound(w, r)
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	render.JSON(w, r, res)
}

func (s *Server) handleDeleteResult(w http.ResponseWriter, r *http.Request) {
	err := s.store.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		s.notFound(w, r)
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	render.NoContent(w, r)
}

func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, errorResponse{Error: err.Error()})
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusNotFound)
	render.JSON(w, r, errorResponse{Error: store.ErrNotFound.Error()})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, errorResponse{Error: "internal error"})
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}
