package lesson

import "strings"

func (e *Editor) table(op string, si, bi int) (*Block, error) {
	b, err := e.block(op, si, bi)
	if err != nil {
		return nil, err
	}
	if b.Type != Table {
		return nil, validationf(op, "block %d of section %d is a %q block, not a table", bi, si, b.Type)
	}
	return b, nil
}

func (e *Editor) tableGroup(op string, si, bi, gi int) (*Block, *TableGroup, error) {
	b, err := e.table(op, si, bi)
	if err != nil {
		return nil, nil, err
	}
	if err := checkIndex(op, "group", gi, len(b.Rows)); err != nil {
		return nil, nil, err
	}
	return b, &b.Rows[gi], nil
}

func (b *Block) emptyRow() []string {
	return make([]string, len(b.Headers))
}

// AddTableGroup appends a group with one empty row and returns its index.
func (e *Editor) AddTableGroup(sectionIndex, blockIndex int) (int, error) {
	b, err := e.table("add table group", sectionIndex, blockIndex)
	if err != nil {
		return 0, err
	}
	b.Rows = append(b.Rows, TableGroup{Group: NewGroupName, Items: [][]string{b.emptyRow()}})
	e.changed()
	return len(b.Rows) - 1, nil
}

// RemoveTableGroup deletes a group. A table always keeps one group: removing
// the last one replaces it with an empty group instead.
func (e *Editor) RemoveTableGroup(sectionIndex, blockIndex, groupIndex int) error {
	b, _, err := e.tableGroup("remove table group", sectionIndex, blockIndex, groupIndex)
	if err != nil {
		return err
	}
	if len(b.Rows) > 1 {
		b.Rows = append(b.Rows[:groupIndex], b.Rows[groupIndex+1:]...)
	} else {
		b.Rows[0] = TableGroup{Group: ResetGroupName, Items: [][]string{b.emptyRow()}}
	}
	e.changed()
	return nil
}

// UpdateTableGroup renames a group.
func (e *Editor) UpdateTableGroup(sectionIndex, blockIndex, groupIndex int, name string) error {
	_, g, err := e.tableGroup("update table group", sectionIndex, blockIndex, groupIndex)
	if err != nil {
		return err
	}
	g.Group = name
	e.changed()
	return nil
}

// AddTableRow appends an empty row to a group and returns its index.
func (e *Editor) AddTableRow(sectionIndex, blockIndex, groupIndex int) (int, error) {
	b, g, err := e.tableGroup("add table row", sectionIndex, blockIndex, groupIndex)
	if err != nil {
		return 0, err
	}
	g.Items = append(g.Items, b.emptyRow())
	e.changed()
	return len(g.Items) - 1, nil
}

// RemoveTableRow deletes a row. Removing a group's only row does nothing.
func (e *Editor) RemoveTableRow(sectionIndex, blockIndex, groupIndex, rowIndex int) error {
	const op = "remove table row"
	_, g, err := e.tableGroup(op, sectionIndex, blockIndex, groupIndex)
	if err != nil {
		return err
	}
	if err := checkIndex(op, "row", rowIndex, len(g.Items)); err != nil {
		return err
	}
	if len(g.Items) <= 1 {
		return nil
	}
	g.Items = append(g.Items[:rowIndex], g.Items[rowIndex+1:]...)
	e.changed()
	return nil
}

// UpdateTableCell sets one cell. A row shorter than colIndex is padded with
// empty cells; columns beyond the headers are rejected.
func (e *Editor) UpdateTableCell(sectionIndex, blockIndex, groupIndex, rowIndex, colIndex int, value string) error {
	const op = "update table cell"
	b, g, err := e.tableGroup(op, sectionIndex, blockIndex, groupIndex)
	if err != nil {
		return err
	}
	if err := checkIndex(op, "row", rowIndex, len(g.Items)); err != nil {
		return err
	}
	if err := checkIndex(op, "column", colIndex, len(b.Headers)); err != nil {
		return err
	}
	row := g.Items[rowIndex]
	for len(row) <= colIndex {
		row = append(row, "")
	}
	row[colIndex] = value
	g.Items[rowIndex] = row
	e.changed()
	return nil
}

// UpdateTableHeaders replaces the headers with a comma separated list and
// pads or truncates every row to the new column count.
func (e *Editor) UpdateTableHeaders(sectionIndex, blockIndex int, value string) error {
	b, err := e.table("update table headers", sectionIndex, blockIndex)
	if err != nil {
		return err
	}
	b.setHeaders(splitHeaders(value))
	e.changed()
	return nil
}

func splitHeaders(value string) []string {
	parts := strings.Split(value, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func (b *Block) setHeaders(headers []string) {
	if len(headers) == 0 {
		headers = nil
	}
	b.Headers = headers
	n := len(headers)
	for gi := range b.Rows {
		items := b.Rows[gi].Items
		for ri, row := range items {
			switch {
			case len(row) > n:
				items[ri] = row[:n:n]
			case len(row) < n:
				items[ri] = append(row, make([]string, n-len(row))...)
			}
		}
	}
}
