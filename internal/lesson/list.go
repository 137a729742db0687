package lesson

import "github.com/dgallion1/lessongen/internal/audio"

func (e *Editor) list(op string, si, bi int) (*Block, error) {
	b, err := e.block(op, si, bi)
	if err != nil {
		return nil, err
	}
	if !HasField(b.Type, FieldItems) {
		return nil, validationf(op, "%q blocks have no items", b.Type)
	}
	return b, nil
}

// AddListItem appends a placeholder item and returns its index.
func (e *Editor) AddListItem(sectionIndex, blockIndex int) (int, error) {
	b, err := e.list("add list item", sectionIndex, blockIndex)
	if err != nil {
		return 0, err
	}
	b.Items = append(b.Items, TextItem(NewItemText))
	e.changed()
	return len(b.Items) - 1, nil
}

// RemoveListItem deletes an item. A list never becomes empty: removing the
// only item resets the list to a single placeholder.
func (e *Editor) RemoveListItem(sectionIndex, blockIndex, itemIndex int) error {
	const op = "remove list item"
	b, err := e.list(op, sectionIndex, blockIndex)
	if err != nil {
		return err
	}
	if len(b.Items) > 1 {
		if err := checkIndex(op, "item", itemIndex, len(b.Items)); err != nil {
			return err
		}
		b.Items = append(b.Items[:itemIndex], b.Items[itemIndex+1:]...)
	} else {
		b.Items = []Item{TextItem(FirstItemText)}
	}
	e.changed()
	return nil
}

// UpdateListItem replaces an item with value, adding or removing the audio
// marker according to wantAudio.
func (e *Editor) UpdateListItem(sectionIndex, blockIndex, itemIndex int, value string, wantAudio bool) error {
	const op = "update list item"
	b, err := e.list(op, sectionIndex, blockIndex)
	if err != nil {
		return err
	}
	if err := checkIndex(op, "item", itemIndex, len(b.Items)); err != nil {
		return err
	}
	b.Items[itemIndex] = TextItem(audio.Apply(value, wantAudio))
	e.changed()
	return nil
}
