package api

import (
	"net/http"
	"strconv"

	"github.com/dgallion1/lessongen/internal/lessonio"
	"github.com/go-chi/chi/v5"
)

func (s *Server) publishEnabled(w http.ResponseWriter) bool {
	if s.publisher == nil {
		jsonError(w, kindUnavailable, "publishing is not configured", http.StatusServiceUnavailable)
		return false
	}
	return true
}

// handlePublish exports the session's lesson and stores it under its slug.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if !s.publishEnabled(w) {
		return
	}
	l := sess.Lesson()
	if l.Slug == "" {
		jsonError(w, kindValidation, "publish: lesson has no slug", http.StatusUnprocessableEntity)
		return
	}
	doc, err := lessonio.ExportJSON(l)
	if err != nil {
		writeError(w, err)
		return
	}
	receipt, err := s.publisher.Put(r.Context(), l.Slug, doc)
	if err != nil {
		s.log.Error("publish failed", "session_id", sess.ID, "slug", l.Slug, "error", err)
		jsonError(w, kindUpstream, "publish failed: "+err.Error(), http.StatusBadGateway)
		return
	}
	s.log.Info("lesson published", "session_id", sess.ID, "slug", receipt.Slug, "attempts", receipt.Attempts)
	writeJSON(w, http.StatusOK, receipt)
}

func (s *Server) handleListPublished(w http.ResponseWriter, r *http.Request) {
	if !s.publishEnabled(w) {
		return
	}
	limit := 200
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	entries, err := s.publisher.List(r.Context(), limit)
	if err != nil {
		jsonError(w, kindUpstream, "failed to list lessons: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lessons": entries})
}

func (s *Server) handleGetPublished(w http.ResponseWriter, r *http.Request) {
	if !s.publishEnabled(w) {
		return
	}
	slug := chi.URLParam(r, "slug")
	doc, err := s.publisher.Get(r.Context(), slug)
	if err != nil {
		jsonError(w, kindUpstream, "failed to read lesson: "+err.Error(), http.StatusBadGateway)
		return
	}
	if doc == nil {
		jsonError(w, kindNotFound, "lesson not published", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(doc)
}

func (s *Server) handleDeletePublished(w http.ResponseWriter, r *http.Request) {
	if !s.publishEnabled(w) {
		return
	}
	slug := chi.URLParam(r, "slug")
	if err := s.publisher.Delete(r.Context(), slug); err != nil {
		jsonError(w, kindUpstream, "failed to delete lesson: "+err.Error(), http.StatusBadGateway)
		return
	}
	s.log.Info("lesson unpublished", "slug", slug)
	writeJSON(w, http.StatusOK, map[string]any{"slug": slug, "deleted": true})
}
