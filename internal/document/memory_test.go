package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMemory() *Memory {
	return NewMemory(
		P("Impact Report", "Title"),
		P("Company Overview", "Heading 1"),
		P("Overview body", ""),
		P("Impact Mechanisms and Drivers", "Heading 1"),
		P("Closing", ""),
	)
}

func TestMemory_FindParagraph(t *testing.T) {
	m := sampleMemory()

	pos, ok := m.FindParagraph("Company Overview", "Heading 1")
	require.True(t, ok)
	assert.True(t, pos.Valid())

	_, ok = m.FindParagraph("Company Overview", "Normal")
	assert.False(t, ok)

	_, ok = m.FindParagraph("Company", "Heading 1")
	assert.False(t, ok, "exact text only")

	_, ok = m.FindParagraph("Overview body", "")
	assert.True(t, ok, "empty style matches any")
}

func TestMemory_FindInStyle(t *testing.T) {
	m := sampleMemory()

	pos, ok := m.FindInStyle("Mechanisms", "heading 1")
	require.True(t, ok)
	_, err := m.InsertTextAfter(pos, "x", true)
	require.NoError(t, err)
	assert.Equal(t, "Impact Mechanisms and Drivers", m.Blocks()[3].Text)

	_, ok = m.FindInStyle("Mechanisms", "Title")
	assert.False(t, ok)
}

func TestMemory_InsertKeepsHandlesStable(t *testing.T) {
	m := sampleMemory()
	head, _ := m.FindParagraph("Company Overview", "Heading 1")

	first, err := m.InsertTextAfter(head, "first", true)
	require.NoError(t, err)
	_, err = m.InsertTextAfter(head, "second", false)
	require.NoError(t, err)
	_, err = m.InsertTextAfter(first, "third", true)
	require.NoError(t, err)

	blocks := m.Blocks()
	var texts []string
	for _, b := range blocks {
		texts = append(texts, b.Text)
	}
	assert.Equal(t, []string{
		"Impact Report", "Company Overview", "second", "first", "third",
		"Overview body", "Impact Mechanisms and Drivers", "Closing",
	}, texts)
	assert.Equal(t, "Normal", blocks[2].Style)
	assert.Equal(t, "Heading 1", blocks[3].Style)
}

func TestMemory_InsertTable(t *testing.T) {
	m := sampleMemory()
	last, ok := m.LastParagraph()
	require.True(t, ok)

	tbl := Table{Header: []string{"A", "B"}, Rows: [][]string{{"1", "2"}}}
	pos, err := m.InsertTableAfter(last, tbl)
	require.NoError(t, err)
	tbl.Rows[0][0] = "mutated"

	blocks := m.Blocks()
	got := blocks[len(blocks)-1]
	assert.Equal(t, BlockTable, got.Kind)
	assert.Equal(t, [][]string{{"1", "2"}}, got.Table.Rows)

	again, ok := m.LastParagraph()
	require.True(t, ok)
	assert.Equal(t, last, again, "tables are not paragraphs")

	_, err = m.InsertTextAfter(pos, "after table", true)
	require.NoError(t, err)
	assert.Equal(t, "Normal", m.Blocks()[len(m.Blocks())-1].Style)
}

func TestMemory_UnknownPosition(t *testing.T) {
	m := sampleMemory()
	_, err := m.InsertTextAfter(Position{}, "x", true)
	assert.Error(t, err)
	_, err = m.InsertTableAfter(Position{id: 999}, Table{})
	assert.Error(t, err)
}

func TestMemory_EmptyDocument(t *testing.T) {
	m := NewMemory()
	_, ok := m.LastParagraph()
	assert.False(t, ok)
}

func TestMemory_Save(t *testing.T) {
	m := NewMemory(P("Title", "Title"))
	last, _ := m.LastParagraph()
	_, err := m.InsertTableAfter(last, Table{Header: []string{"A", "B"}, Rows: [][]string{{"1", "2"}}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, m.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Title\nA\tB\n1\t2\n", string(data))
}
