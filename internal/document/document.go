// Package document provides the mutable document model reports are
// assembled into.
package document

// Position is an opaque handle to a block in a document. Handles stay valid
// across insertions.
type Position struct {
	id int
}

// Valid reports whether the handle refers to a block.
func (p Position) Valid() bool {
	return p.id > 0
}

// BlockKind identifies the type of a top-level block.
type BlockKind string

const (
	BlockParagraph BlockKind = "paragraph"
	BlockTable     BlockKind = "table"
	BlockOther     BlockKind = "other"
)

// Block is a read-only view of one top-level block.
type Block struct {
	Kind  BlockKind
	Text  string
	Style string
	Table *Table
}

// Table is a grid of text cells with a header row.
type Table struct {
	Header []string
	Rows   [][]string
	// Widths are column widths in inches; zero leaves a column auto-sized.
	Widths           []float64
	Style            string
	HeaderBold       bool
	HeaderBackground string
	Border           bool
}

// Document is a mutable document. It is single-writer.
type Document interface {
	// FindParagraph returns the first paragraph whose trimmed text equals
	// text. An empty style matches any style.
	FindParagraph(text, style string) (Position, bool)
	// FindInStyle returns the first paragraph with the given style whose
	// text contains text.
	FindInStyle(text, style string) (Position, bool)
	// LastParagraph returns the final paragraph of the body.
	LastParagraph() (Position, bool)
	InsertTextAfter(pos Position, text string, preserveStyle bool) (Position, error)
	InsertTableAfter(pos Position, t Table) (Position, error)
	Blocks() []Block
	Save(path string) error
}

// Loader opens a document from a path.
type Loader interface {
	Load(path string) (Document, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(path string) (Document, error)

// Load calls f(path).
func (f LoaderFunc) Load(path string) (Document, error) {
	return f(path)
}

// DefaultStyle is the style of paragraphs with no explicit style.
const DefaultStyle = "Normal"
