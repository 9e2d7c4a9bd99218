package document

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

type memBlock struct {
	id    int
	kind  BlockKind
	text  string
	style string
	table *Table
}

// Memory is an in-memory Document. Save writes a plain-text rendering.
type Memory struct {
	blocks []memBlock
	nextID int
}

// NewMemory creates a Memory holding paragraphs. Each paragraph is given
// as a (text, style) pair.
func NewMemory(paragraphs ...[2]string) *Memory {
	m := &Memory{}
	for _, p := range paragraphs {
		m.append(memBlock{kind: BlockParagraph, text: p[0], style: p[1]})
	}
	return m
}

// P is shorthand for building NewMemory arguments.
func P(text, style string) [2]string {
	return [2]string{text, style}
}

func (m *Memory) append(b memBlock) Position {
	m.nextID++
	b.id = m.nextID
	if b.kind == BlockParagraph && b.style == "" {
		b.style = DefaultStyle
	}
	m.blocks = append(m.blocks, b)
	return Position{id: b.id}
}

func (m *Memory) index(pos Position) int {
	for i, b := range m.blocks {
		if b.id == pos.id {
			return i
		}
	}
	return -1
}

// FindParagraph implements Document.
func (m *Memory) FindParagraph(text, style string) (Position, bool) {
	for _, b := range m.blocks {
		if b.kind != BlockParagraph || strings.TrimSpace(b.text) != text {
			continue
		}
		if style == "" || strings.EqualFold(b.style, style) {
			return Position{id: b.id}, true
		}
	}
	return Position{}, false
}

// FindInStyle implements Document.
func (m *Memory) FindInStyle(text, style string) (Position, bool) {
	for _, b := range m.blocks {
		if b.kind == BlockParagraph && strings.EqualFold(b.style, style) && strings.Contains(b.text, text) {
			return Position{id: b.id}, true
		}
	}
	return Position{}, false
}

// LastParagraph implements Document.
func (m *Memory) LastParagraph() (Position, bool) {
	for i := len(m.blocks) - 1; i >= 0; i-- {
		if m.blocks[i].kind == BlockParagraph {
			return Position{id: m.blocks[i].id}, true
		}
	}
	return Position{}, false
}

// InsertTextAfter implements Document.
func (m *Memory) InsertTextAfter(pos Position, text string, preserveStyle bool) (Position, error) {
	i := m.index(pos)
	if i < 0 {
		return Position{}, eris.New("document: unknown position")
	}
	style := DefaultStyle
	if preserveStyle && m.blocks[i].kind == BlockParagraph {
		style = m.blocks[i].style
	}
	return m.insert(i, memBlock{kind: BlockParagraph, text: text, style: style}), nil
}

// InsertTableAfter implements Document.
func (m *Memory) InsertTableAfter(pos Position, t Table) (Position, error) {
	i := m.index(pos)
	if i < 0 {
		return Position{}, eris.New("document: unknown position")
	}
	cp := copyTable(t)
	return m.insert(i, memBlock{kind: BlockTable, table: &cp}), nil
}

func (m *Memory) insert(after int, b memBlock) Position {
	m.nextID++
	b.id = m.nextID
	m.blocks = append(m.blocks, memBlock{})
	copy(m.blocks[after+2:], m.blocks[after+1:])
	m.blocks[after+1] = b
	return Position{id: b.id}
}

// Blocks implements Document.
func (m *Memory) Blocks() []Block {
	out := make([]Block, len(m.blocks))
	for i, b := range m.blocks {
		out[i] = Block{Kind: b.kind, Text: b.text, Style: b.style}
		if b.table != nil {
			cp := copyTable(*b.table)
			out[i].Table = &cp
		}
	}
	return out
}

// Save writes the document as plain text, tables as tab-separated rows.
func (m *Memory) Save(path string) error {
	if err := os.WriteFile(path, []byte(Render(m)), 0o644); err != nil {
		return eris.Wrap(err, "document: save")
	}
	return nil
}

// Render returns a plain-text rendering of a document.
func Render(d Document) string {
	var b strings.Builder
	for _, blk := range d.Blocks() {
		switch blk.Kind {
		case BlockParagraph:
			b.WriteString(blk.Text)
			b.WriteByte('\n')
		case BlockTable:
			b.WriteString(strings.Join(blk.Table.Header, "\t"))
			b.WriteByte('\n')
			for _, row := range blk.Table.Rows {
				b.WriteString(strings.Join(row, "\t"))
				b.WriteByte('\n')
			}
		}
	}
	return b.String()
}

func copyTable(t Table) Table {
	cp := t
	cp.Header = append([]string(nil), t.Header...)
	cp.Widths = append([]float64(nil), t.Widths...)
	cp.Rows = make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		cp.Rows[i] = append([]string(nil), r...)
	}
	return cp
}
