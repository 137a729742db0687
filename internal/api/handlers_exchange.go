package api

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/lessongen/internal/draft"
	"github.com/dgallion1/lessongen/internal/lesson"
	"github.com/dgallion1/lessongen/internal/lessonio"
)

type exchangeFormat int

const (
	formatUnknown exchangeFormat = iota
	formatJSON
	formatYAML
)

func formatForMediaType(mediaType string) exchangeFormat {
	switch mediaType {
	case "", "application/json", "text/json":
		return formatJSON
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return formatYAML
	}
	return formatUnknown
}

func formatForFilename(name string) exchangeFormat {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return formatJSON
	case ".yaml", ".yml":
		return formatYAML
	}
	return formatUnknown
}

// readLimited reads at most the configured upload size from r.
func (s *Server) readLimited(w http.ResponseWriter, r io.Reader) ([]byte, bool) {
	data, err := io.ReadAll(io.LimitReader(r, s.cfg.MaxUploadBytes+1))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			jsonError(w, kindTooLarge, fmt.Sprintf("upload exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return nil, false
		}
		jsonError(w, kindBadRequest, "failed to read upload", http.StatusBadRequest)
		return nil, false
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, kindTooLarge, fmt.Sprintf("upload exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return nil, false
	}
	return data, true
}

// readUploadedFile returns the multipart "file" part.
func (s *Server) readUploadedFile(w http.ResponseWriter, r *http.Request) (data []byte, filename, contentType string, ok bool) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, kindBadRequest, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return nil, "", "", false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, kindBadRequest, "file is required: "+err.Error(), http.StatusBadRequest)
		return nil, "", "", false
	}
	defer file.Close()

	data, ok = s.readLimited(w, file)
	return data, sanitizeFilename(header.Filename), header.Header.Get("Content-Type"), ok
}

// handleImport replaces the session's lesson with an uploaded exchange
// document. Consistency problems are reported as warnings, not refused.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var (
		data   []byte
		format exchangeFormat
	)
	if mediaType == "multipart/form-data" {
		var filename, partType string
		data, filename, partType, ok = s.readUploadedFile(w, r)
		if !ok {
			return
		}
		format = formatForFilename(filename)
		if format == formatUnknown {
			pt, _, _ := mime.ParseMediaType(partType)
			if pt != "" && pt != "application/octet-stream" {
				format = formatForMediaType(pt)
			}
		}
		if format == formatUnknown {
			jsonError(w, kindMediaType, fmt.Sprintf("%s is not a JSON or YAML lesson file", filename), http.StatusUnsupportedMediaType)
			return
		}
	} else {
		format = formatForMediaType(mediaType)
		if format == formatUnknown {
			jsonError(w, kindMediaType, "unsupported content type: "+mediaType, http.StatusUnsupportedMediaType)
			return
		}
		if data, ok = s.readLimited(w, r.Body); !ok {
			return
		}
	}

	var (
		l   *lesson.Lesson
		err error
	)
	if format == formatYAML {
		l, err = lessonio.ImportYAML(data)
	} else {
		l, err = lessonio.ImportJSON(data)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	warnings := lesson.Check(l)
	sess.Do(func(e *lesson.Editor) error {
		e.Replace(l)
		return nil
	})
	s.log.Info("lesson imported",
		"session_id", sess.ID,
		"slug", l.Slug,
		"sections", len(l.Sections),
		"warnings", len(warnings),
	)
	s.writeLesson(w, http.StatusOK, sess, nil, warnings)
}

// handleDraft builds a lesson from an uploaded document and replaces the
// session's lesson with it.
func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	data, filename, _, ok := s.readUploadedFile(w, r)
	if !ok {
		return
	}
	if !draft.IsSupportedExtension(filename) {
		jsonError(w, kindMediaType, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusUnsupportedMediaType)
		return
	}
	imp, err := draft.ForFile(filename, draft.Options{FallbackPdftotext: s.cfg.PDFFallbackPdftotext})
	if err != nil {
		jsonError(w, kindMediaType, err.Error(), http.StatusUnsupportedMediaType)
		return
	}
	l, err := imp.Import(bytes.NewReader(data), filename)
	if err != nil {
		s.log.Warn("draft import failed", "session_id", sess.ID, "filename", filename, "error", err)
		jsonError(w, kindFormat, fmt.Sprintf("could not read %s: %v", filename, err), http.StatusUnprocessableEntity)
		return
	}

	sess.Do(func(e *lesson.Editor) error {
		e.Replace(l)
		return nil
	})
	s.log.Info("lesson drafted",
		"session_id", sess.ID,
		"filename", filename,
		"sections", len(l.Sections),
	)
	s.writeLesson(w, http.StatusOK, sess, nil, lesson.Check(l))
}

// handleExport downloads the lesson as JSON (default) or YAML.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	l := sess.Lesson()
	name := lessonio.FileName(l, s.now())

	var (
		data        []byte
		err         error
		contentType string
	)
	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		data, err = lessonio.ExportJSON(l)
		contentType = "application/json"
	case "yaml", "yml":
		data, err = lessonio.ExportYAML(l)
		contentType = "application/yaml"
		name = strings.TrimSuffix(name, ".json") + ".yaml"
	default:
		jsonError(w, kindBadRequest, fmt.Sprintf("unknown export format %q", format), http.StatusBadRequest)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	etag := `"` + contentHashHex(data)[:32] + `"`
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", contentType+"; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// contentHashHex returns the hex-encoded SHA-256 of data.
func contentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
