package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/lessongen/internal/lesson"
	"github.com/dgallion1/lessongen/internal/lessonio"
	"github.com/dgallion1/lessongen/internal/preview"
	"github.com/dgallion1/lessongen/internal/session"
)

// Error kinds carried in error bodies.
const (
	kindFormat       = "format"
	kindValidation   = "validation"
	kindPrecondition = "precondition"
	kindIndex        = "index"
	kindNotFound     = "not_found"
	kindBadRequest   = "bad_request"
	kindMediaType    = "unsupported_media_type"
	kindTooLarge     = "too_large"
	kindUnavailable  = "unavailable"
	kindUpstream     = "upstream"
	kindInternal     = "internal"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func jsonError(w http.ResponseWriter, kind, msg string, code int) {
	writeJSON(w, code, errorBody{Error: msg, Kind: kind})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

// writeError maps editor and import errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	var (
		formatErr       *lesson.FormatError
		validationErr   *lesson.ValidationError
		preconditionErr *lesson.PreconditionError
		indexErr        *lesson.IndexError
	)
	switch {
	case errors.As(err, &formatErr):
		jsonError(w, kindFormat, err.Error(), http.StatusBadRequest)
	case errors.As(err, &validationErr):
		jsonError(w, kindValidation, err.Error(), http.StatusUnprocessableEntity)
	case errors.As(err, &preconditionErr):
		jsonError(w, kindPrecondition, err.Error(), http.StatusConflict)
	case errors.As(err, &indexErr):
		jsonError(w, kindIndex, err.Error(), http.StatusNotFound)
	default:
		jsonError(w, kindInternal, err.Error(), http.StatusInternalServerError)
	}
}

// lessonView is the answer to every request that reads or changes a session.
type lessonView struct {
	Session  session.Info       `json:"session"`
	Lesson   json.RawMessage    `json:"lesson"`
	Form     preview.FormView   `json:"form"`
	Index    *int               `json:"index,omitempty"`
	Warnings []lesson.Violation `json:"warnings,omitempty"`
}

func (s *Server) writeLesson(w http.ResponseWriter, code int, sess *session.Session, index *int, warnings []lesson.Violation) {
	l := sess.Lesson()
	doc, err := lessonio.ExportJSON(l)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, code, lessonView{
		Session:  sess.Info(),
		Lesson:   doc,
		Form:     preview.Form(l),
		Index:    index,
		Warnings: warnings,
	})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
