package api

import (
	"net/http"

	"github.com/dgallion1/lessongen/internal/lesson"
	"github.com/dgallion1/lessongen/internal/session"
	"github.com/go-chi/chi/v5"
)

// session resolves the {sessionID} URL parameter, answering 404 when the
// session does not exist or has expired.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "sessionID")
	sess := s.sessions.Get(id)
	if sess == nil {
		jsonError(w, kindNotFound, "session not found", http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()
	s.log.Info("session created", "session_id", sess.ID)
	w.Header().Set("Location", "/api/sessions/"+sess.ID)
	s.writeLesson(w, http.StatusCreated, sess, nil, nil)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.writeLesson(w, http.StatusOK, sess, nil, lesson.Check(sess.Lesson()))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if !s.sessions.Delete(id) {
		jsonError(w, kindNotFound, "session not found", http.StatusNotFound)
		return
	}
	s.log.Info("session deleted", "session_id", id)
	writeJSON(w, http.StatusOK, map[string]any{"session_id": id, "deleted": true})
}

func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Do(func(e *lesson.Editor) error {
		e.Reset()
		return nil
	})
	s.writeLesson(w, http.StatusOK, sess, nil, nil)
}
