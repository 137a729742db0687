package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dgallion1/lessongen/internal/config"
	"github.com/dgallion1/lessongen/internal/publish"
	"github.com/dgallion1/lessongen/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Publisher hands exported lessons to the content store. *publish.Client
// implements it.
type Publisher interface {
	Put(ctx context.Context, slug string, doc []byte) (publish.Receipt, error)
	Get(ctx context.Context, slug string) (json.RawMessage, error)
	Delete(ctx context.Context, slug string) error
	List(ctx context.Context, limit int) ([]publish.Entry, error)
}

// Server is the HTTP API server for lessongen.
type Server struct {
	router    chi.Router
	sessions  *session.Store
	publisher Publisher
	log       *slog.Logger
	cfg       config.Config
	now       func() time.Time
}

// NewServer creates and configures the HTTP server. publisher may be nil, in
// which case the publish endpoints answer 503.
func NewServer(sessions *session.Store, publisher Publisher, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		sessions:  sessions,
		publisher: publisher,
		log:       log,
		cfg:       cfg,
		now:       time.Now,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	if s.cfg.RateLimitRPS > 0 {
		r.Use(RateLimitMiddleware(s.cfg.RateLimitRPS, s.cfg.RateLimitBurst))
	}

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.cfg.LessongenAPIKey != "" {
			r.Use(AuthMiddleware(s.cfg.LessongenAPIKey, s.log))
		}

		r.Post("/api/sessions", s.handleCreateSession)
		r.Route("/api/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/reset", s.handleResetSession)
			r.Post("/ops", s.handleOp)
			r.Post("/import", s.handleImport)
			r.Post("/draft", s.handleDraft)
			r.Get("/export", s.handleExport)
			r.Get("/preview", s.handlePreview)
			r.Get("/live", s.handleLive)
			r.Post("/publish", s.handlePublish)
		})

		r.Get("/api/stats/publish", s.handlePublishStats)

		r.Get("/api/published", s.handleListPublished)
		r.Get("/api/published/{slug}", s.handleGetPublished)
		r.Delete("/api/published/{slug}", s.handleDeletePublished)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
		"publish":  s.publisher != nil,
	})
}
