package lesson

import (
	"fmt"

	"github.com/dgallion1/lessongen/internal/audio"
)

func (e *Editor) block(op string, si, bi int) (*Block, error) {
	sec, err := e.section(op, si)
	if err != nil {
		return nil, err
	}
	if err := checkIndex(op, "block", bi, len(sec.Blocks)); err != nil {
		return nil, err
	}
	return &sec.Blocks[bi], nil
}

// AddBlock appends a block of type t, in its default shape, to the section at
// sectionIndex and returns the new block's index.
func (e *Editor) AddBlock(sectionIndex int, t BlockType) (int, error) {
	const op = "add block"
	sec, err := e.section(op, sectionIndex)
	if err != nil {
		return 0, err
	}
	if !KnownBlockType(t) {
		return 0, validationf(op, "unknown block type %q", t)
	}
	if !IsAllowed(sec.Type, t) {
		return 0, validationf(op, "block type %q is not allowed in %q sections", t, sec.Type)
	}
	sec.Blocks = append(sec.Blocks, NewBlock(t))
	e.changed()
	return len(sec.Blocks) - 1, nil
}

// RemoveBlock deletes a block. Sections may end up empty.
func (e *Editor) RemoveBlock(sectionIndex, blockIndex int) error {
	const op = "remove block"
	if _, err := e.block(op, sectionIndex, blockIndex); err != nil {
		return err
	}
	sec := &e.doc.Sections[sectionIndex]
	sec.Blocks = append(sec.Blocks[:blockIndex], sec.Blocks[blockIndex+1:]...)
	if len(sec.Blocks) == 0 {
		sec.Blocks = nil
	}
	e.changed()
	return nil
}

// UpdateBlock sets a single field of a block. String fields take a string;
// items take a []string; headers take a comma separated string or a []string
// and resize every row to match. Fields outside the block type's schema are
// rejected. Rows are edited through the table operations.
func (e *Editor) UpdateBlock(sectionIndex, blockIndex int, field string, value any) error {
	const op = "update block"
	b, err := e.block(op, sectionIndex, blockIndex)
	if err != nil {
		return err
	}
	if KnownBlockType(b.Type) && !HasField(b.Type, field) {
		return validationf(op, "field %q does not apply to %q blocks", field, b.Type)
	}

	switch field {
	case FieldLabel, FieldContent, FieldStyle, FieldValue, FieldDescription:
		s, ok := value.(string)
		if !ok {
			return validationf(op, "field %q takes a string, got %T", field, value)
		}
		*b.stringField(field) = s
	case FieldItems:
		texts, ok := value.([]string)
		if !ok {
			return validationf(op, "field %q takes a list of strings, got %T", field, value)
		}
		var items []Item
		for _, t := range texts {
			items = append(items, TextItem(t))
		}
		b.Items = items
	case FieldHeaders:
		switch v := value.(type) {
		case string:
			b.setHeaders(splitHeaders(v))
		case []string:
			b.setHeaders(cloneStrings(v))
		default:
			return validationf(op, "field %q takes a string or list of strings, got %T", field, value)
		}
	case FieldRows:
		return validationf(op, "rows are edited with the table operations")
	default:
		return validationf(op, "unknown field %q", field)
	}
	e.changed()
	return nil
}

// SetBlockAudio adds or removes the audio marker on a block's content or value.
func (e *Editor) SetBlockAudio(sectionIndex, blockIndex int, field string, want bool) error {
	const op = "set block audio"
	b, err := e.block(op, sectionIndex, blockIndex)
	if err != nil {
		return err
	}
	if field != FieldContent && field != FieldValue {
		return validationf(op, "audio applies to content or value, not %q", field)
	}
	if KnownBlockType(b.Type) && !HasField(b.Type, field) {
		return validationf(op, "field %q does not apply to %q blocks", field, b.Type)
	}
	p := b.stringField(field)
	*p = audio.Apply(*p, want)
	e.changed()
	return nil
}

func (b *Block) stringField(field string) *string {
	switch field {
	case FieldLabel:
		return &b.Label
	case FieldContent:
		return &b.Content
	case FieldStyle:
		return &b.Style
	case FieldValue:
		return &b.Value
	case FieldDescription:
		return &b.Description
	}
	panic(fmt.Sprintf("lesson: %q is not a string field", field))
}

// MoveBlock reorders blocks within one section.
func (e *Editor) MoveBlock(sectionIndex, from, to int) error {
	const op = "move block"
	sec, err := e.section(op, sectionIndex)
	if err != nil {
		return err
	}
	n := len(sec.Blocks)
	if err := checkIndex(op, "block", from, n); err != nil {
		return err
	}
	if err := checkIndex(op, "block", to, n); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	sec.Blocks = move(sec.Blocks, from, to)
	e.changed()
	return nil
}

// MoveBlockTo handles a drop of a block onto another block position. Blocks
// cannot leave their section.
func (e *Editor) MoveBlockTo(fromSection, from, toSection, to int) error {
	if fromSection != toSection {
		return validationf("move block", "blocks can only be reordered within their own section")
	}
	return e.MoveBlock(fromSection, from, to)
}
