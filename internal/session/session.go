// Package session keeps the lessons being edited in memory, one editor per
// session, and evicts sessions that have been idle longer than a TTL.
package session

import (
	"sync"
	"time"

	"github.com/dgallion1/lessongen/internal/lesson"
)

// Session owns one editor. All access goes through Do, which serialises
// edits on the session's lock.
type Session struct {
	mu sync.Mutex

	ID        string
	CreatedAt time.Time
	updatedAt time.Time

	editor   *lesson.Editor
	watchers map[chan *lesson.Lesson]struct{}
	closed   bool
	now      func() time.Time
}

func newSession(id string, now func() time.Time) *Session {
	t := now()
	s := &Session{
		ID:        id,
		CreatedAt: t,
		updatedAt: t,
		editor:    lesson.NewEditor(lesson.WithClock(now)),
		watchers:  make(map[chan *lesson.Lesson]struct{}),
		now:       now,
	}
	s.editor.Subscribe(s.publish)
	return s
}

// Do runs fn with exclusive access to the session's editor and marks the
// session as recently used.
func (s *Session) Do(fn func(*lesson.Editor) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updatedAt = s.now()
	return fn(s.editor)
}

// Lesson returns a copy of the current document.
func (s *Session) Lesson() *lesson.Lesson {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Snapshot()
}

// UpdatedAt reports when the session was last used.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// Watch returns a channel that receives a copy of the document after every
// successful edit. Only the latest document is kept for a slow reader. The
// channel is closed by cancel or when the session ends.
func (s *Session) Watch() (<-chan *lesson.Lesson, func()) {
	ch := make(chan *lesson.Lesson, 1)
	s.mu.Lock()
	if s.closed {
		close(ch)
	} else {
		s.watchers[ch] = struct{}{}
	}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.watchers[ch]; ok {
			delete(s.watchers, ch)
			close(ch)
		}
	}
	return ch, cancel
}

// publish runs inside Do, with s.mu held.
func (s *Session) publish(l *lesson.Lesson) {
	if len(s.watchers) == 0 {
		return
	}
	snap := l.Clone()
	for ch := range s.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for ch := range s.watchers {
		delete(s.watchers, ch)
		close(ch)
	}
}

// Info is a JSON-safe summary of a session.
type Info struct {
	ID        string    `json:"session_id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Sections  int       `json:"sections"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Info returns a summary of the session.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.editor.Lesson()
	return Info{
		ID:        s.ID,
		Slug:      l.Slug,
		Title:     l.Meta.Title,
		Sections:  len(l.Sections),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.updatedAt,
	}
}
