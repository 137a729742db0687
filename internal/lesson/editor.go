package lesson

import (
	"fmt"
	"strings"
	"time"

	"github.com/dgallion1/lessongen/internal/audio"
)

// Editor owns one lesson and applies edits to it. Every operation either
// succeeds completely or leaves the lesson untouched. Editor is not safe for
// concurrent use; callers serialise access (see internal/session).
type Editor struct {
	doc     *Lesson
	counter int
	now     func() time.Time

	subs    []subscriber
	nextSub int
}

type subscriber struct {
	id int
	fn func(*Lesson)
}

// Option configures an Editor.
type Option func(*Editor)

// WithClock replaces the wall clock used for generated section ids.
func WithClock(now func() time.Time) Option {
	return func(e *Editor) { e.now = now }
}

// NewEditor returns an editor holding a new lesson with one default section.
func NewEditor(opts ...Option) *Editor {
	e := &Editor{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	e.doc = New()
	e.appendSection()
	return e
}

// Lesson returns the live document. Callers must treat it as read-only.
func (e *Editor) Lesson() *Lesson { return e.doc }

// Snapshot returns a deep copy of the document.
func (e *Editor) Snapshot() *Lesson { return e.doc.Clone() }

// Counter returns the section counter used for generated ids and titles.
func (e *Editor) Counter() int { return e.counter }

// Subscribe registers fn to run after every successful mutation. The returned
// function removes the subscription.
func (e *Editor) Subscribe(fn func(*Lesson)) (cancel func()) {
	e.nextSub++
	id := e.nextSub
	e.subs = append(e.subs, subscriber{id: id, fn: fn})
	return func() {
		for i, s := range e.subs {
			if s.id == id {
				e.subs = append(e.subs[:i], e.subs[i+1:]...)
				return
			}
		}
	}
}

func (e *Editor) changed() {
	for _, s := range e.subs {
		s.fn(e.doc)
	}
}

// Reset discards the document and starts a new one with a single section.
func (e *Editor) Reset() {
	e.doc = New()
	e.counter = 0
	e.appendSection()
	e.changed()
}

// Replace swaps in l as the new document. The section counter continues from
// the number of imported sections. A lesson without sections gets a default one.
func (e *Editor) Replace(l *Lesson) {
	e.doc = l
	e.counter = len(l.Sections)
	if len(l.Sections) == 0 {
		e.appendSection()
	}
	e.changed()
}

// Meta fields accepted by UpdateMeta.
const (
	MetaSlug       = "slug"
	MetaTitle      = "title"
	MetaSubtitle   = "subtitle"
	MetaDifficulty = "difficulty"
	MetaIcon       = "icon"
	MetaTags       = "tags"
	MetaBadges     = "badges"
)

// UpdateMeta sets a lesson-level field. Tags and badges take a comma separated
// list. wantAudio applies the audio marker to the title and to every badge; it
// is ignored for the other fields.
func (e *Editor) UpdateMeta(field, value string, wantAudio bool) error {
	const op = "update meta"
	switch field {
	case MetaSlug:
		e.doc.Slug = value
	case MetaTitle:
		e.doc.Meta.Title = audio.Apply(value, wantAudio)
	case MetaSubtitle:
		e.doc.Meta.Subtitle = value
	case MetaDifficulty:
		if value == "" {
			value = DefaultDifficulty
		}
		e.doc.Meta.Difficulty = value
	case MetaIcon:
		e.doc.Meta.Icon = value
	case MetaTags:
		e.doc.Meta.Tags = SplitList(value)
	case MetaBadges:
		badges := SplitList(value)
		for i, b := range badges {
			badges[i] = audio.Apply(b, wantAudio)
		}
		e.doc.Header.Badges = badges
	default:
		return validationf(op, "unknown field %q", field)
	}
	e.changed()
	return nil
}

// SplitList splits a comma separated list and trims every entry. An empty
// string yields no entries.
func SplitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func (e *Editor) appendSection() int {
	e.counter++
	e.doc.Sections = append(e.doc.Sections, Section{
		ID:    fmt.Sprintf("section-%d-%d", e.counter, e.now().UnixMilli()),
		Title: fmt.Sprintf(SectionTitleTmpl, e.counter),
		Type:  InfoGrid,
	})
	return len(e.doc.Sections) - 1
}

// AddSection appends a new info-grid section and returns its index.
func (e *Editor) AddSection() int {
	i := e.appendSection()
	e.changed()
	return i
}

func (e *Editor) section(op string, i int) (*Section, error) {
	if err := checkIndex(op, "section", i, len(e.doc.Sections)); err != nil {
		return nil, err
	}
	return &e.doc.Sections[i], nil
}

// RemoveSection deletes the section at index. The last remaining section cannot
// be removed. When confirm is non-nil it is asked before deleting; a false
// answer cancels the removal.
func (e *Editor) RemoveSection(index int, confirm func(Section) bool) error {
	const op = "remove section"
	if len(e.doc.Sections) <= 1 {
		return &PreconditionError{Op: op, Reason: "a lesson needs at least one section"}
	}
	sec, err := e.section(op, index)
	if err != nil {
		return err
	}
	if confirm != nil && !confirm(*sec) {
		return &PreconditionError{Op: op, Reason: fmt.Sprintf("removal of section %q was not confirmed", sec.Title)}
	}
	e.doc.Sections = append(e.doc.Sections[:index], e.doc.Sections[index+1:]...)
	e.changed()
	return nil
}

// Section fields accepted by UpdateSection.
const (
	SectionID    = "id"
	SectionTitle = "title"
	SectionKind  = "type"
)

// UpdateSection sets a section field. Changing the type drops every block the
// new type does not allow.
func (e *Editor) UpdateSection(index int, field, value string) error {
	const op = "update section"
	sec, err := e.section(op, index)
	if err != nil {
		return err
	}
	switch field {
	case SectionID:
		for i, other := range e.doc.Sections {
			if i != index && other.ID == value {
				return validationf(op, "section id %q is already used by section %d", value, i)
			}
		}
		sec.ID = value
	case SectionTitle:
		sec.Title = value
	case SectionKind:
		t := SectionType(value)
		if !KnownSectionType(t) {
			return validationf(op, "unknown section type %q", value)
		}
		sec.Type = t
		var kept []Block
		for _, b := range sec.Blocks {
			if IsAllowed(t, b.Type) {
				kept = append(kept, b)
			}
		}
		sec.Blocks = kept
	default:
		return validationf(op, "unknown field %q", field)
	}
	e.changed()
	return nil
}

// MoveSection moves the section at from so that it ends up at index to.
func (e *Editor) MoveSection(from, to int) error {
	const op = "move section"
	n := len(e.doc.Sections)
	if err := checkIndex(op, "section", from, n); err != nil {
		return err
	}
	if err := checkIndex(op, "section", to, n); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	e.doc.Sections = move(e.doc.Sections, from, to)
	e.changed()
	return nil
}

func move[T any](s []T, from, to int) []T {
	item := s[from]
	s = append(s[:from], s[from+1:]...)
	s = append(s[:to], append([]T{item}, s[to:]...)...)
	return s
}
