package api

import (
	"net/http"

	"github.com/dgallion1/lessongen/internal/publish"
)

// statsReporter is implemented by publishers that track their upstream calls.
type statsReporter interface {
	Stats() map[string]publish.CallStats
}

func (s *Server) handlePublishStats(w http.ResponseWriter, r *http.Request) {
	reporter, ok := s.publisher.(statsReporter)
	if !ok {
		jsonError(w, kindUnavailable, "publish stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": s.sessions.Len(),
		"calls":    reporter.Stats(),
	})
}
