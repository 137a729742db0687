// Package lesson holds the lesson document model: a lesson is an ordered list of
// typed sections, each holding typed content blocks. The Editor type applies
// edits while keeping the document consistent with the block catalog.
package lesson

import "strings"

// Lesson is the root of an authored document.
type Lesson struct {
	Slug     string
	Meta     Meta
	Header   Header
	Sections []Section
}

// Meta describes the lesson as a whole.
type Meta struct {
	Title      string
	Subtitle   string
	Difficulty string // free text, conventionally a CEFR level
	Tags       []string
	Icon       string
}

// Header carries the badges shown under the lesson title.
type Header struct {
	Badges []string
}

// Section is a titled group of blocks. Its Type decides which block types it may hold.
type Section struct {
	ID     string
	Title  string
	Type   SectionType
	Blocks []Block
}

// Block is a single content unit. Only the fields listed by Fields(Type) are
// meaningful for a given block type.
type Block struct {
	Type        BlockType
	Label       string
	Content     string
	Style       string
	Value       string
	Description string
	Items       []Item
	Headers     []string
	Rows        []TableGroup
}

// TableGroup is a headed run of table rows. Each row holds one cell per header.
type TableGroup struct {
	Group string
	Items [][]string
}

// ItemKind distinguishes the shapes a block item can take.
type ItemKind int

const (
	ItemText ItemKind = iota // plain string
	ItemPair                 // {label, content}
	ItemRow                  // array of cells
)

// Item is one entry of a list, chips or code-block block.
type Item struct {
	Kind    ItemKind
	Text    string
	Label   string
	Content string
	Cells   []string
}

// TextItem returns a plain string item.
func TextItem(s string) Item {
	return Item{Kind: ItemText, Text: s}
}

// String returns the item's display text.
func (it Item) String() string {
	switch it.Kind {
	case ItemPair:
		return it.Label + ": " + it.Content
	case ItemRow:
		return strings.Join(it.Cells, ", ")
	}
	return it.Text
}

// New returns an empty lesson with the default difficulty.
func New() *Lesson {
	return &Lesson{Meta: Meta{Difficulty: DefaultDifficulty}}
}

// DefaultDifficulty is used when a lesson does not declare one.
const DefaultDifficulty = "A2"

// Clone returns a deep copy of l.
func (l *Lesson) Clone() *Lesson {
	if l == nil {
		return nil
	}
	out := &Lesson{
		Slug: l.Slug,
		Meta: Meta{
			Title:      l.Meta.Title,
			Subtitle:   l.Meta.Subtitle,
			Difficulty: l.Meta.Difficulty,
			Tags:       cloneStrings(l.Meta.Tags),
			Icon:       l.Meta.Icon,
		},
		Header: Header{Badges: cloneStrings(l.Header.Badges)},
	}
	if l.Sections != nil {
		out.Sections = make([]Section, len(l.Sections))
		for i, s := range l.Sections {
			out.Sections[i] = s.clone()
		}
	}
	return out
}

func (s Section) clone() Section {
	out := s
	if s.Blocks != nil {
		out.Blocks = make([]Block, len(s.Blocks))
		for i, b := range s.Blocks {
			out.Blocks[i] = b.clone()
		}
	}
	return out
}

func (b Block) clone() Block {
	out := b
	out.Headers = cloneStrings(b.Headers)
	if b.Items != nil {
		out.Items = make([]Item, len(b.Items))
		for i, it := range b.Items {
			it.Cells = cloneStrings(it.Cells)
			out.Items[i] = it
		}
	}
	if b.Rows != nil {
		out.Rows = make([]TableGroup, len(b.Rows))
		for i, g := range b.Rows {
			out.Rows[i] = g.clone()
		}
	}
	return out
}

func (g TableGroup) clone() TableGroup {
	out := TableGroup{Group: g.Group}
	if g.Items != nil {
		out.Items = make([][]string, len(g.Items))
		for i, row := range g.Items {
			out.Items[i] = cloneStrings(row)
		}
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
