package draft

import (
	"fmt"
	"strings"

	"github.com/dgallion1/lessongen/internal/lesson"
)

// Builder assembles a lesson from a stream of headings and blocks. A block
// whose type the current section does not accept opens a new section of a
// fitting type, so the result always satisfies the block catalog.
type Builder struct {
	doc     *lesson.Lesson
	cur     *lesson.Section
	heading string
	label   string
	ids     map[string]bool
}

// NewBuilder starts a draft whose title defaults to fallbackTitle.
func NewBuilder(fallbackTitle string) *Builder {
	b := &Builder{doc: lesson.New(), ids: make(map[string]bool)}
	b.doc.Meta.Title = strings.TrimSpace(fallbackTitle)
	return b
}

// Title replaces the lesson title.
func (b *Builder) Title(title string) {
	if t := strings.TrimSpace(title); t != "" {
		b.doc.Meta.Title = t
	}
}

// Section opens a new, still empty section. Its type is settled by the
// first block added to it.
func (b *Builder) Section(title string) {
	b.heading = strings.TrimSpace(title)
	b.label = ""
	b.open(lesson.InfoGrid)
}

// Label sets the label of the next block.
func (b *Builder) Label(text string) {
	b.label = strings.TrimSpace(text)
}

// Add appends a block, opening a new section when the current one cannot
// hold it.
func (b *Builder) Add(block lesson.Block) {
	if !lesson.KnownBlockType(block.Type) {
		return
	}
	if b.label != "" && block.Label == "" {
		block.Label = b.label
	}
	b.label = ""

	st, _ := lesson.SectionFor(block.Type)
	switch {
	case b.cur == nil:
		b.open(st)
	case lesson.IsAllowed(b.cur.Type, block.Type):
	case len(b.cur.Blocks) == 0:
		b.cur.Type = st
	default:
		b.open(st)
	}
	b.cur.Blocks = append(b.cur.Blocks, block)
}

// Paragraph adds a paragraph block unless text is blank.
func (b *Builder) Paragraph(text string) {
	if t := strings.TrimSpace(text); t != "" {
		b.Add(lesson.Block{Type: lesson.Paragraph, Content: t})
	}
}

func (b *Builder) open(t lesson.SectionType) {
	n := len(b.doc.Sections) + 1
	title := b.heading
	if title == "" {
		title = fmt.Sprintf("Section %d", n)
	}
	b.doc.Sections = append(b.doc.Sections, lesson.Section{
		ID:    b.sectionID(title, n),
		Title: title,
		Type:  t,
	})
	b.cur = &b.doc.Sections[len(b.doc.Sections)-1]
}

func (b *Builder) sectionID(title string, n int) string {
	base := Slugify(title)
	if base == "" {
		base = fmt.Sprintf("section-%d", n)
	}
	id := base
	for c := 2; b.ids[id]; c++ {
		id = fmt.Sprintf("%s-%d", base, c)
	}
	b.ids[id] = true
	return id
}

// Lesson finishes the draft. Empty trailing headings are kept so the author
// sees the outline; a draft with no content gets one empty section.
func (b *Builder) Lesson() *lesson.Lesson {
	if len(b.doc.Sections) == 0 {
		b.open(lesson.InfoGrid)
	}
	b.doc.Slug = Slugify(b.doc.Meta.Title)
	return b.doc
}
