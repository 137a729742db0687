package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dgallion1/lessongen/internal/lesson"
	"github.com/dgallion1/lessongen/internal/lessonio"
	"github.com/dgallion1/lessongen/internal/preview"
	"github.com/gorilla/websocket"
)

const liveWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins
	},
}

// handlePreview renders the lesson as a standalone HTML page, or as a bare
// fragment with ?fragment=1.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	l := sess.Lesson()
	render := preview.RenderPage
	if r.URL.Query().Get("fragment") != "" {
		render = preview.Render
	}
	page, err := render(l)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(page))
}

// liveFrame is pushed to websocket clients after every edit.
type liveFrame struct {
	Preview string          `json:"preview"`
	Lesson  json.RawMessage `json:"lesson"`
}

func newLiveFrame(l *lesson.Lesson) (liveFrame, error) {
	html, err := preview.Render(l)
	if err != nil {
		return liveFrame{}, err
	}
	doc, err := lessonio.ExportJSON(l)
	if err != nil {
		return liveFrame{}, err
	}
	return liveFrame{Preview: html, Lesson: doc}, nil
}

// handleLive streams the preview and the lesson over a websocket: once on
// connect, then after every successful edit. Client messages are ignored.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "session_id", sess.ID, "error", err)
		return
	}
	defer conn.Close()

	updates, cancel := sess.Watch()
	defer cancel()

	// The read loop only notices the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.log.Debug("live client read failed", "session_id", sess.ID, "error", err)
				}
				return
			}
		}
	}()

	send := func(l *lesson.Lesson) bool {
		frame, err := newLiveFrame(l)
		if err != nil {
			s.log.Error("render live frame", "session_id", sess.ID, "error", err)
			return false
		}
		conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
		if err := conn.WriteJSON(frame); err != nil {
			s.log.Debug("live client write failed", "session_id", sess.ID, "error", err)
			return false
		}
		return true
	}

	s.log.Info("live preview connected", "session_id", sess.ID)
	if !send(sess.Lesson()) {
		return
	}
	for {
		select {
		case l, open := <-updates:
			if !open {
				conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				return
			}
			if !send(l) {
				return
			}
		case <-gone:
			s.log.Info("live preview disconnected", "session_id", sess.ID)
			return
		}
	}
}
