package lesson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableEditor(t *testing.T) *Editor {
	t.Helper()
	e := newTestEditor()
	require.NoError(t, e.UpdateSection(0, SectionKind, string(TwoColumns)))
	_, err := e.AddBlock(0, Table)
	require.NoError(t, err)
	return e
}

func rowArity(t *testing.T, b Block) {
	t.Helper()
	for gi, g := range b.Rows {
		for ri, row := range g.Items {
			assert.Len(t, row, len(b.Headers), "group %d row %d", gi, ri)
		}
	}
}

func TestUpdateTableHeaders_Resize(t *testing.T) {
	e := tableEditor(t)

	require.NoError(t, e.UpdateTableHeaders(0, 0, "A, B, C, D, E"))
	b := e.Lesson().Sections[0].Blocks[0]
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, b.Headers)
	rowArity(t, b)
	assert.Equal(t, []string{"walked", "/t/", "after voiceless sounds", "", ""}, b.Rows[0].Items[0])

	require.NoError(t, e.UpdateTableHeaders(0, 0, "A,B,C"))
	b = e.Lesson().Sections[0].Blocks[0]
	rowArity(t, b)
	assert.Equal(t, []string{"walked", "/t/", "after voiceless sounds"}, b.Rows[0].Items[0])

	require.NoError(t, e.UpdateBlock(0, 0, FieldHeaders, []string{"Verb"}))
	b = e.Lesson().Sections[0].Blocks[0]
	rowArity(t, b)
	assert.Equal(t, []string{"walked"}, b.Rows[0].Items[0])
}

func TestTableGroups(t *testing.T) {
	e := tableEditor(t)

	gi, err := e.AddTableGroup(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, gi)
	b := e.Lesson().Sections[0].Blocks[0]
	assert.Equal(t, TableGroup{Group: "New Group", Items: [][]string{{"", "", ""}}}, b.Rows[2])

	require.NoError(t, e.UpdateTableGroup(0, 0, 2, "Irregular Verbs"))
	assert.Equal(t, "Irregular Verbs", e.Lesson().Sections[0].Blocks[0].Rows[2].Group)

	for i := 0; i < 3; i++ {
		require.NoError(t, e.RemoveTableGroup(0, 0, 0))
	}
	rows := e.Lesson().Sections[0].Blocks[0].Rows
	require.Len(t, rows, 1, "a table keeps one group")
	assert.Equal(t, TableGroup{Group: "Group", Items: [][]string{{"", "", ""}}}, rows[0])

	var idx *IndexError
	assert.ErrorAs(t, e.RemoveTableGroup(0, 0, 4), &idx)
}

func TestTableRows(t *testing.T) {
	e := tableEditor(t)

	ri, err := e.AddTableRow(0, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, ri)
	assert.Equal(t, []string{"", "", ""}, e.Lesson().Sections[0].Blocks[0].Rows[1].Items[2])

	require.NoError(t, e.RemoveTableRow(0, 0, 1, 0))
	require.NoError(t, e.RemoveTableRow(0, 0, 1, 0))
	require.NoError(t, e.RemoveTableRow(0, 0, 1, 0))
	items := e.Lesson().Sections[0].Blocks[0].Rows[1].Items
	assert.Len(t, items, 1, "a group keeps its only row")

	var idx *IndexError
	assert.ErrorAs(t, e.RemoveTableRow(0, 0, 1, 3), &idx)
}

func TestUpdateTableCell(t *testing.T) {
	e := tableEditor(t)

	require.NoError(t, e.UpdateTableCell(0, 0, 0, 1, 2, "after /k/"))
	assert.Equal(t, "after /k/", e.Lesson().Sections[0].Blocks[0].Rows[0].Items[1][2])

	var idx *IndexError
	require.ErrorAs(t, e.UpdateTableCell(0, 0, 0, 1, 3, "x"), &idx)
	assert.Equal(t, "column", idx.What)
	require.ErrorAs(t, e.UpdateTableCell(0, 0, 0, 9, 0, "x"), &idx)
	assert.Equal(t, "row", idx.What)
}

func TestUpdateTableCell_PadsShortRow(t *testing.T) {
	e := tableEditor(t)
	l := e.Snapshot()
	l.Sections[0].Blocks[0].Rows[0].Items[0] = []string{"walked"}
	e.Replace(l)

	require.NoError(t, e.UpdateTableCell(0, 0, 0, 0, 2, "voiceless"))
	assert.Equal(t, []string{"walked", "", "voiceless"}, e.Lesson().Sections[0].Blocks[0].Rows[0].Items[0])
}

func TestTableOpsRejectOtherBlocks(t *testing.T) {
	e := newTestEditor()
	_, err := e.AddBlock(0, List)
	require.NoError(t, err)

	var verr *ValidationError
	_, err = e.AddTableGroup(0, 0)
	assert.ErrorAs(t, err, &verr)
	assert.ErrorAs(t, e.UpdateTableHeaders(0, 0, "a,b"), &verr)
}

func TestListItems(t *testing.T) {
	e := newTestEditor()
	_, err := e.AddBlock(0, List)
	require.NoError(t, err)

	ii, err := e.AddListItem(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, ii)
	assert.Equal(t, TextItem("New item"), e.Lesson().Sections[0].Blocks[0].Items[3])

	require.NoError(t, e.UpdateListItem(0, 0, 0, "I walked", true))
	require.NoError(t, e.UpdateListItem(0, 0, 1, "@_You walked", false))
	items := e.Lesson().Sections[0].Blocks[0].Items
	assert.Equal(t, "@_I walked", items[0].Text)
	assert.Equal(t, "You walked", items[1].Text)

	for i := 0; i < 5; i++ {
		require.NoError(t, e.RemoveListItem(0, 0, 0))
	}
	assert.Equal(t, []Item{TextItem("Item 1")}, e.Lesson().Sections[0].Blocks[0].Items)

	var idx *IndexError
	assert.ErrorAs(t, e.UpdateListItem(0, 0, 1, "x", false), &idx)
}

func TestListOpsOnChipsAndCode(t *testing.T) {
	e := newTestEditor()
	_, err := e.AddBlock(0, Chips)
	require.NoError(t, err)
	_, err = e.AddListItem(0, 0)
	require.NoError(t, err)
	assert.Len(t, e.Lesson().Sections[0].Blocks[0].Items, 4)

	_, err = e.AddBlock(0, Paragraph)
	require.NoError(t, err)
	var verr *ValidationError
	_, err = e.AddListItem(0, 1)
	assert.ErrorAs(t, err, &verr)
}
