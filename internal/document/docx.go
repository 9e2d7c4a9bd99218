package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/impact-report/internal/model"
)

const (
	documentPart = "word/document.xml"
	stylesPart   = "word/styles.xml"
	twipsPerInch = 1440
)

type zipEntry struct {
	header zip.FileHeader
	data   []byte
}

type docxBlock struct {
	id      int
	kind    BlockKind
	raw     []byte
	text    string
	styleID string
	table   *Table
}

// Docx is a Word document opened from a .docx package. Only the main body
// part is rewritten on Save; every other part is copied through unchanged.
type Docx struct {
	entries []zipEntry
	prefix  []byte
	suffix  []byte
	blocks  []docxBlock
	nextID  int

	// styleNames maps style IDs to display names; styleIDs is the reverse,
	// keyed by lowercased name.
	styleNames map[string]string
	styleIDs   map[string]string
}

// DocxLoader opens .docx files.
type DocxLoader struct{}

// Load implements Loader.
func (DocxLoader) Load(path string) (Document, error) {
	return OpenDocx(path)
}

// OpenDocx reads a .docx package into memory.
func OpenDocx(path string) (*Docx, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, eris.Wrapf(model.ErrNotFound, "document: template %s", path)
		}
		return nil, eris.Wrap(err, "document: open docx")
	}
	defer r.Close() //nolint:errcheck

	d := &Docx{styleNames: map[string]string{}, styleIDs: map[string]string{}}
	var body []byte
	for _, f := range r.File {
		data, err := readEntry(f)
		if err != nil {
			return nil, err
		}
		d.entries = append(d.entries, zipEntry{header: f.FileHeader, data: data})
		switch f.Name {
		case documentPart:
			body = data
		case stylesPart:
			if err := d.parseStyles(data); err != nil {
				return nil, err
			}
		}
	}
	if body == nil {
		return nil, eris.Errorf("document: %s has no %s", path, documentPart)
	}
	if err := d.parseBody(body); err != nil {
		return nil, err
	}
	return d, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, eris.Wrapf(err, "document: open part %s", f.Name)
	}
	defer rc.Close() //nolint:errcheck
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, eris.Wrapf(err, "document: read part %s", f.Name)
	}
	return data, nil
}

type stylesXML struct {
	Styles []struct {
		ID   string `xml:"styleId,attr"`
		Name struct {
			Val string `xml:"val,attr"`
		} `xml:"name"`
	} `xml:"style"`
}

func (d *Docx) parseStyles(data []byte) error {
	var s stylesXML
	if err := xml.Unmarshal(data, &s); err != nil {
		return eris.Wrap(err, "document: parse styles")
	}
	for _, st := range s.Styles {
		if st.ID == "" {
			continue
		}
		name := st.Name.Val
		if name == "" {
			name = st.ID
		}
		d.styleNames[st.ID] = name
		d.styleIDs[strings.ToLower(name)] = st.ID
	}
	return nil
}

// parseBody splits the body into top-level blocks, keeping each block's raw
// bytes so untouched content is written back verbatim.
func (d *Docx) parseBody(data []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	depth, bodyDepth := 0, -1
	bodyStart, bodyEnd := int64(-1), int64(-1)

	var (
		cur        *docxBlock
		blockStart int64
		inText     bool
		text       strings.Builder
		row        []string
		rows       [][]string
	)

	for {
		off := dec.InputOffset()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return eris.Wrap(err, "document: parse body")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if bodyDepth < 0 {
				if t.Name.Local == "body" {
					bodyDepth = depth
					bodyStart = dec.InputOffset()
				}
				continue
			}
			if depth == bodyDepth+1 {
				cur = &docxBlock{kind: blockKindOf(t.Name.Local)}
				blockStart = off
				text.Reset()
				rows = nil
			}
			if cur == nil {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				text.WriteByte('\t')
			case "br", "cr":
				text.WriteByte('\n')
			case "pStyle":
				if cur.kind == BlockParagraph && depth == bodyDepth+3 {
					cur.styleID = attr(t, "val")
				}
			case "tr":
				row = nil
			case "tc":
				text.Reset()
			case "p":
				if cur.kind == BlockTable && text.Len() > 0 {
					text.WriteByte('\n')
				}
			}

		case xml.EndElement:
			if cur != nil {
				switch t.Name.Local {
				case "t":
					inText = false
				case "tc":
					row = append(row, text.String())
				case "tr":
					rows = append(rows, row)
				}
				if depth == bodyDepth+1 {
					cur.raw = data[blockStart:dec.InputOffset()]
					switch cur.kind {
					case BlockParagraph:
						cur.text = text.String()
					case BlockTable:
						cur.table = tableFromRows(rows)
					}
					d.nextID++
					cur.id = d.nextID
					d.blocks = append(d.blocks, *cur)
					cur = nil
				}
			}
			if depth == bodyDepth && t.Name.Local == "body" {
				bodyEnd = off
			}
			depth--

		case xml.CharData:
			if cur != nil && inText {
				text.Write(t)
			}
		}
	}

	if bodyStart < 0 || bodyEnd < 0 {
		return eris.New("document: body element not found")
	}
	d.prefix = data[:bodyStart]
	d.suffix = data[bodyEnd:]
	return nil
}

func blockKindOf(local string) BlockKind {
	switch local {
	case "p":
		return BlockParagraph
	case "tbl":
		return BlockTable
	}
	return BlockOther
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func tableFromRows(rows [][]string) *Table {
	t := &Table{}
	if len(rows) > 0 {
		t.Header = rows[0]
		t.Rows = rows[1:]
	}
	return t
}

func (d *Docx) styleName(id string) string {
	if id == "" {
		return DefaultStyle
	}
	if name, ok := d.styleNames[id]; ok {
		return name
	}
	return id
}

func (d *Docx) styleIs(id, style string) bool {
	return strings.EqualFold(d.styleName(id), style) || strings.EqualFold(id, style)
}

func (d *Docx) index(pos Position) int {
	for i, b := range d.blocks {
		if b.id == pos.id {
			return i
		}
	}
	return -1
}

// FindParagraph implements Document.
func (d *Docx) FindParagraph(text, style string) (Position, bool) {
	for _, b := range d.blocks {
		if b.kind != BlockParagraph || strings.TrimSpace(b.text) != text {
			continue
		}
		if style == "" || d.styleIs(b.styleID, style) {
			return Position{id: b.id}, true
		}
	}
	return Position{}, false
}

// FindInStyle implements Document.
func (d *Docx) FindInStyle(text, style string) (Position, bool) {
	for _, b := range d.blocks {
		if b.kind == BlockParagraph && d.styleIs(b.styleID, style) && strings.Contains(b.text, text) {
			return Position{id: b.id}, true
		}
	}
	return Position{}, false
}

// LastParagraph implements Document.
func (d *Docx) LastParagraph() (Position, bool) {
	for i := len(d.blocks) - 1; i >= 0; i-- {
		if d.blocks[i].kind == BlockParagraph {
			return Position{id: d.blocks[i].id}, true
		}
	}
	return Position{}, false
}

// InsertTextAfter implements Document. Line breaks in text become breaks
// within the new paragraph.
func (d *Docx) InsertTextAfter(pos Position, text string, preserveStyle bool) (Position, error) {
	i := d.index(pos)
	if i < 0 {
		return Position{}, eris.New("document: unknown position")
	}
	var styleID string
	if preserveStyle && d.blocks[i].kind == BlockParagraph {
		styleID = d.blocks[i].styleID
	}
	return d.insert(i, docxBlock{
		kind:    BlockParagraph,
		raw:     paragraphXML(text, styleID),
		text:    text,
		styleID: styleID,
	}), nil
}

// InsertTableAfter implements Document.
func (d *Docx) InsertTableAfter(pos Position, t Table) (Position, error) {
	i := d.index(pos)
	if i < 0 {
		return Position{}, eris.New("document: unknown position")
	}
	cp := copyTable(t)
	return d.insert(i, docxBlock{
		kind:  BlockTable,
		raw:   tableXML(cp, d.styleIDs[strings.ToLower(t.Style)]),
		table: &cp,
	}), nil
}

func (d *Docx) insert(after int, b docxBlock) Position {
	d.nextID++
	b.id = d.nextID
	d.blocks = append(d.blocks, docxBlock{})
	copy(d.blocks[after+2:], d.blocks[after+1:])
	d.blocks[after+1] = b
	return Position{id: b.id}
}

// Blocks implements Document.
func (d *Docx) Blocks() []Block {
	out := make([]Block, len(d.blocks))
	for i, b := range d.blocks {
		out[i] = Block{Kind: b.kind, Text: b.text}
		if b.kind == BlockParagraph {
			out[i].Style = d.styleName(b.styleID)
		}
		if b.table != nil {
			cp := copyTable(*b.table)
			out[i].Table = &cp
		}
	}
	return out
}

// Save writes the package to path.
func (d *Docx) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "document: create output directory")
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "document: create output")
	}
	defer f.Close() //nolint:errcheck

	zw := zip.NewWriter(f)
	for _, e := range d.entries {
		data := e.data
		if e.header.Name == documentPart {
			data = d.render()
		}
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.header.Name,
			Method:   e.header.Method,
			Modified: e.header.Modified,
		})
		if err != nil {
			return eris.Wrapf(err, "document: write part %s", e.header.Name)
		}
		if _, err := w.Write(data); err != nil {
			return eris.Wrapf(err, "document: write part %s", e.header.Name)
		}
	}
	if err := zw.Close(); err != nil {
		return eris.Wrap(err, "document: finish package")
	}
	return nil
}

func (d *Docx) render() []byte {
	var b bytes.Buffer
	b.Write(d.prefix)
	for _, blk := range d.blocks {
		b.Write(blk.raw)
	}
	b.Write(d.suffix)
	return b.Bytes()
}

func paragraphXML(text, styleID string) []byte {
	var b bytes.Buffer
	b.WriteString("<w:p>")
	if styleID != "" {
		b.WriteString(`<w:pPr><w:pStyle w:val="`)
		escape(&b, styleID)
		b.WriteString(`"/></w:pPr>`)
	}
	if text != "" {
		b.WriteString("<w:r>")
		for i, line := range strings.Split(text, "\n") {
			if i > 0 {
				b.WriteString("<w:br/>")
			}
			b.WriteString(`<w:t xml:space="preserve">`)
			escape(&b, line)
			b.WriteString("</w:t>")
		}
		b.WriteString("</w:r>")
	}
	b.WriteString("</w:p>")
	return b.Bytes()
}

var borderEdges = []string{"top", "left", "bottom", "right", "insideH", "insideV"}

func tableXML(t Table, styleID string) []byte {
	cols := len(t.Header)
	for _, r := range t.Rows {
		if len(r) > cols {
			cols = len(r)
		}
	}

	var b bytes.Buffer
	b.WriteString("<w:tbl><w:tblPr>")
	if styleID != "" {
		b.WriteString(`<w:tblStyle w:val="`)
		escape(&b, styleID)
		b.WriteString(`"/>`)
	}
	b.WriteString(`<w:tblW w:w="0" w:type="auto"/>`)
	if t.Border {
		b.WriteString("<w:tblBorders>")
		for _, edge := range borderEdges {
			fmt.Fprintf(&b, `<w:%s w:val="single" w:sz="4" w:space="0" w:color="000000"/>`, edge)
		}
		b.WriteString("</w:tblBorders>")
	}
	b.WriteString("</w:tblPr><w:tblGrid>")
	for c := 0; c < cols; c++ {
		fmt.Fprintf(&b, `<w:gridCol w:w="%d"/>`, twips(t.Widths, c))
	}
	b.WriteString("</w:tblGrid>")

	writeRow(&b, t, t.Header, cols, true)
	for _, r := range t.Rows {
		writeRow(&b, t, r, cols, false)
	}
	b.WriteString("</w:tbl>")
	return b.Bytes()
}

func writeRow(b *bytes.Buffer, t Table, cells []string, cols int, header bool) {
	b.WriteString("<w:tr>")
	for c := 0; c < cols; c++ {
		var cell string
		if c < len(cells) {
			cell = cells[c]
		}
		b.WriteString("<w:tc><w:tcPr>")
		if w := twips(t.Widths, c); w > 0 {
			fmt.Fprintf(b, `<w:tcW w:w="%d" w:type="dxa"/>`, w)
		}
		if header && t.HeaderBackground != "" {
			b.WriteString(`<w:shd w:val="clear" w:color="auto" w:fill="`)
			escape(b, strings.TrimPrefix(t.HeaderBackground, "#"))
			b.WriteString(`"/>`)
		}
		b.WriteString("</w:tcPr><w:p>")
		if cell != "" {
			b.WriteString("<w:r>")
			if header && t.HeaderBold {
				b.WriteString("<w:rPr><w:b/></w:rPr>")
			}
			b.WriteString(`<w:t xml:space="preserve">`)
			escape(b, cell)
			b.WriteString("</w:t></w:r>")
		}
		b.WriteString("</w:p></w:tc>")
	}
	b.WriteString("</w:tr>")
}

func twips(widths []float64, c int) int {
	if c >= len(widths) || widths[c] <= 0 {
		return 0
	}
	return int(widths[c] * twipsPerInch)
}

func escape(b *bytes.Buffer, s string) {
	_ = xml.EscapeText(b, []byte(s))
}
