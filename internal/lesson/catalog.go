package lesson

// SectionType selects the layout of a section and the block types it accepts.
type SectionType string

const (
	InfoGrid    SectionType = "info-grid"
	TwoColumns  SectionType = "two-columns"
	Formulas    SectionType = "formulas"
	GridCompare SectionType = "grid-compare"
	Comparison  SectionType = "comparison"
)

// BlockType is the variant tag of a Block.
type BlockType string

const (
	Paragraph  BlockType = "paragraph"
	Quote      BlockType = "quote"
	List       BlockType = "list"
	Chips      BlockType = "chips"
	Table      BlockType = "table"
	CodeBlock  BlockType = "code-block"
	InfoBox    BlockType = "info-box"
	Card       BlockType = "card"
	CompareBox BlockType = "compare-box"
)

// Block fields, as named in the exchange format.
const (
	FieldLabel       = "label"
	FieldContent     = "content"
	FieldStyle       = "style"
	FieldValue       = "value"
	FieldDescription = "description"
	FieldItems       = "items"
	FieldHeaders     = "headers"
	FieldRows        = "rows"
)

// SectionTypes lists every section type in catalog order.
var SectionTypes = []SectionType{InfoGrid, TwoColumns, Formulas, GridCompare, Comparison}

// BlockTypes lists every block type in catalog order.
var BlockTypes = []BlockType{Paragraph, Quote, List, Chips, Table, CodeBlock, InfoBox, Card, CompareBox}

var allowedBlocks = map[SectionType][]BlockType{
	InfoGrid:    {Paragraph, Quote, List, Chips},
	TwoColumns:  {Table},
	Formulas:    {CodeBlock, InfoBox},
	GridCompare: {Card},
	Comparison:  {CompareBox, Table},
}

var blockFields = map[BlockType][]string{
	Paragraph:  {FieldLabel, FieldContent},
	Quote:      {FieldLabel, FieldContent},
	List:       {FieldLabel, FieldStyle, FieldItems},
	Chips:      {FieldLabel, FieldItems},
	Table:      {FieldLabel, FieldHeaders, FieldRows},
	CodeBlock:  {FieldLabel, FieldItems},
	InfoBox:    {FieldLabel, FieldContent},
	Card:       {FieldLabel, FieldContent, FieldValue},
	CompareBox: {FieldLabel, FieldContent, FieldDescription},
}

// Allowed returns the block types a section of type t may hold. Unknown section
// types allow nothing.
func Allowed(t SectionType) []BlockType {
	return allowedBlocks[t]
}

// IsAllowed reports whether a block of type b may live in a section of type t.
func IsAllowed(t SectionType, b BlockType) bool {
	for _, a := range allowedBlocks[t] {
		if a == b {
			return true
		}
	}
	return false
}

// KnownSectionType reports whether t is in the catalog.
func KnownSectionType(t SectionType) bool {
	_, ok := allowedBlocks[t]
	return ok
}

// KnownBlockType reports whether b is in the catalog.
func KnownBlockType(b BlockType) bool {
	_, ok := blockFields[b]
	return ok
}

// SectionFor returns the first section type, in catalog order, that accepts b.
func SectionFor(b BlockType) (SectionType, bool) {
	for _, t := range SectionTypes {
		if IsAllowed(t, b) {
			return t, true
		}
	}
	return "", false
}

// ShowsLabel reports whether the editing form offers a label input for b.
func ShowsLabel(b BlockType) bool {
	return b != Card && b != CompareBox
}

// Fields returns the fields meaningful for block type b.
func Fields(b BlockType) []string {
	return blockFields[b]
}

// HasField reports whether field is part of block type b's schema.
func HasField(b BlockType, field string) bool {
	for _, f := range blockFields[b] {
		if f == field {
			return true
		}
	}
	return false
}

// Placeholder texts used by the default shapes and list edits.
const (
	NewItemText      = "New item"
	FirstItemText    = "Item 1"
	NewGroupName     = "New Group"
	ResetGroupName   = "Group"
	SectionTitleTmpl = "New Section %d"
)

// NewBlock builds a block of type b in its default shape.
func NewBlock(b BlockType) Block {
	block := Block{Type: b}
	switch b {
	case Table:
		block.Headers = []string{"Verb", "Rule", "Sound"}
		block.Rows = []TableGroup{
			{
				Group: "Regular Verbs - /t/ Sound",
				Items: [][]string{
					{"walked", "/t/", "after voiceless sounds"},
					{"looked", "/t/", "after voiceless sounds"},
				},
			},
			{
				Group: "Regular Verbs - /d/ Sound",
				Items: [][]string{
					{"played", "/d/", "after voiced sounds"},
					{"called", "/d/", "after voiced sounds"},
				},
			},
		}
	case List, Chips:
		block.Items = textItems("Item 1", "Item 2", "Item 3")
	case CodeBlock:
		block.Items = textItems("Subject + Past Verb", "I / You / We / They + verb", "He / She / It + verb + s")
	case Card:
		block.Label = "Singular"
		block.Content = "I / He / She / It"
		block.Value = "was"
	case CompareBox:
		block.Label = "Simple Past"
		block.Content = "I met him in 2019."
		block.Description = "Specific time in the past"
	}
	return block
}

func textItems(texts ...string) []Item {
	items := make([]Item, len(texts))
	for i, t := range texts {
		items[i] = TextItem(t)
	}
	return items
}
