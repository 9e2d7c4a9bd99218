package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/impact-report/internal/document"
	"github.com/sells-group/impact-report/internal/generate"
	"github.com/sells-group/impact-report/internal/model"
	"github.com/sells-group/impact-report/internal/rules"
)

// StatusField is the variable every rule receives describing whether its
// data came from source records or fallbacks.
const StatusField = "data_source_status"

// AppendixTitle heads the traceability appendix.
const AppendixTitle = "Traceability Appendix"

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Generator produces text for ai_generated rules.
type Generator interface {
	Generate(ctx context.Context, req generate.Request) *model.GenerationOutcome
}

// SourceFiles names the workbooks citations point at.
type SourceFiles struct {
	Survey     string
	Mechanisms string
}

// Processor applies rules to one document. It is single-use: one Processor
// per document per run.
type Processor struct {
	doc   document.Document
	gen   Generator
	cfg   *rules.Config
	files SourceFiles
	log   *zap.Logger

	order    []string
	sections map[string]string
	warnings []string
	appendix []document.Position

	processed int
	skipped   int
}

// NewProcessor creates a Processor writing into doc. gen may be nil when no
// rule generates text.
func NewProcessor(doc document.Document, gen Generator, cfg *rules.Config, files SourceFiles) *Processor {
	return &Processor{
		doc:      doc,
		gen:      gen,
		cfg:      cfg,
		files:    files,
		log:      zap.L().With(zap.String("component", "processor")),
		sections: map[string]string{},
	}
}

// Process applies one rule. A missing anchor or unknown content type skips
// the rule with a warning. A generation failure is returned wrapped in
// model.ErrProvider and must abort the run.
func (p *Processor) Process(ctx context.Context, rule rules.Rule, rc *model.ReportContext) ([]model.Citation, error) {
	log := p.log.With(zap.String("rule", rule.Name), zap.String("content_type", rule.ContentType))

	anchor, ok := p.anchor(rule.Position)
	if !ok {
		p.skip(log, fmt.Sprintf("rule %q: insert position not found (%s %q)", rule.Name, rule.Position.Method, rule.Position.TargetText))
		return nil, nil
	}

	var (
		citations []model.Citation
		err       error
	)
	switch rule.ContentType {
	case rules.ContentTemplate:
		citations, err = p.template(rule, anchor, rc)
	case rules.ContentAIGenerated:
		citations, err = p.generated(ctx, rule, anchor, rc)
	case rules.ContentTable:
		citations, err = p.table(rule, anchor, rc)
	case rules.ContentTraceability:
		p.appendix = append(p.appendix, anchor)
	default:
		p.skip(log, fmt.Sprintf("rule %q: unknown content type %q", rule.Name, rule.ContentType))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.processed++
	log.Debug("rule applied", zap.Int("citations", len(citations)))
	return citations, nil
}

func (p *Processor) skip(log *zap.Logger, msg string) {
	log.Warn("pipeline: rule skipped", zap.String("reason", msg))
	p.warnings = append(p.warnings, msg)
	p.skipped++
}

func (p *Processor) anchor(pos rules.Position) (document.Position, bool) {
	switch pos.Method {
	case rules.AfterParagraph:
		return p.doc.FindParagraph(pos.TargetText, pos.TargetStyle)
	case rules.AfterSection:
		return p.doc.FindInStyle(pos.TargetText, pos.TargetStyle)
	case rules.EndOfDocument:
		return p.doc.LastParagraph()
	}
	return document.Position{}, false
}

// fields reads the rule's declared fields plus the status note.
func (p *Processor) fields(rule rules.Rule, rc *model.ReportContext) map[string]any {
	data := map[string]any{}
	if kind, ok := rule.DataSource.Kind(); ok {
		for _, name := range rule.DataSource.AllFields() {
			v, _ := rc.Field(kind, name)
			data[name] = v
		}
	}
	data[StatusField] = statusNote(rc)
	return data
}

func statusNote(rc *model.ReportContext) string {
	var lines []string
	if rc.Survey.Synthesized() {
		lines = append(lines, "Survey data: defaults used (no survey response found for this company)")
	} else {
		lines = append(lines, "Survey data: from the company's survey response")
	}
	if rc.Profile.Synthesized() {
		lines = append(lines, "Impact data: defaults used (no impact mechanism data found for this company)")
	} else {
		lines = append(lines, fmt.Sprintf("Impact data: %d impact mechanisms", len(rc.Profile.Mechanisms)))
	}
	return strings.Join(lines, "\n")
}

// source returns the citation origin for a rule's data source.
func (p *Processor) source(rule rules.Rule, rc *model.ReportContext) model.Citation {
	kind, _ := rule.DataSource.Kind()
	if kind == model.SourceProfile {
		return model.Citation{SourceFile: p.files.Mechanisms, Sheet: rc.Profile.Sheet}
	}
	return model.Citation{SourceFile: p.files.Survey, Row: rc.Survey.Row}
}

func (p *Processor) template(rule rules.Rule, anchor document.Position, rc *model.ReportContext) ([]model.Citation, error) {
	data := p.fields(rule, rc)
	text := generate.BuildPrompt(rule.Template, data)

	if _, err := p.doc.InsertTextAfter(anchor, text, rule.Style.Preserve()); err != nil {
		return nil, eris.Wrapf(err, "pipeline: rule %q: insert text", rule.Name)
	}
	p.record(rule.Name, text)
	p.checkPlaceholders(rule, text)

	base := p.source(rule, rc)
	var citations []model.Citation
	for _, name := range rule.DataSource.AllFields() {
		if !strings.Contains(rule.Template, "{"+name+"}") {
			continue
		}
		c := base
		c.Statement = name + ": " + model.Stringify(data[name])
		c.Column = model.CanonicalField(name)
		citations = append(citations, c)
	}
	return citations, nil
}

func (p *Processor) generated(ctx context.Context, rule rules.Rule, anchor document.Position, rc *model.ReportContext) ([]model.Citation, error) {
	if p.gen == nil {
		return nil, eris.Wrapf(model.ErrProvider, "pipeline: rule %q: no generation client configured", rule.Name)
	}
	data := p.fields(rule, rc)

	facts := map[string]any{
		"company_name": rc.Profile.CompanyName,
		"source_file":  p.files.Mechanisms,
	}
	for k, v := range data {
		facts[k] = v
	}

	req := generate.Request{
		PromptTemplate: rule.PromptTemplate,
		Variables:      data,
		GroundingFacts: facts,
		SkipGrounding:  !rule.RequireGrounding(),
	}
	if rule.AI != nil {
		req.Model = rule.AI.Model
		req.MaxTokens = rule.AI.MaxTokens
		req.Temperature = rule.AI.Temperature
	}

	out := p.gen.Generate(ctx, req)
	if !out.Success {
		return nil, eris.Wrapf(model.ErrProvider, "pipeline: rule %q: generation failed: %s", rule.Name, strings.Join(out.Errors, "; "))
	}
	for _, e := range out.Errors {
		p.warnings = append(p.warnings, fmt.Sprintf("rule %q: %s", rule.Name, e))
	}

	if _, err := p.doc.InsertTextAfter(anchor, out.Text, rule.Style.Preserve()); err != nil {
		return nil, eris.Wrapf(err, "pipeline: rule %q: insert text", rule.Name)
	}
	p.record(rule.Name, out.Text)
	return out.Citations, nil
}

func (p *Processor) table(rule rules.Rule, anchor document.Position, rc *model.ReportContext) ([]model.Citation, error) {
	tc := rule.Table
	if tc == nil {
		return nil, eris.Errorf("pipeline: rule %q: structured_table requires table_config", rule.Name)
	}
	t := document.Table{
		Header:           make([]string, len(tc.Columns)),
		Widths:           make([]float64, len(tc.Columns)),
		Rows:             [][]string{},
		HeaderBold:       tc.Style.HeaderBold,
		HeaderBackground: tc.Style.HeaderBackground,
		Border:           tc.Style.Border,
	}
	for i, col := range tc.Columns {
		t.Header[i] = col.Name
		t.Widths[i] = col.Width
	}

	sheet := rc.Profile.Sheet
	if sheet == "" {
		sheet = rc.Profile.CompanyName
	}
	citations := make([]model.Citation, 0, len(rc.Profile.Mechanisms))
	for _, m := range rc.Profile.Mechanisms {
		row := make([]string, len(tc.Columns))
		for i, col := range tc.Columns {
			v, _ := m.Field(col.Field)
			row[i] = formatCell(v, col.Format)
		}
		t.Rows = append(t.Rows, row)
		citations = append(citations, model.Citation{
			Statement:  mechanismStatement(m),
			SourceFile: p.files.Mechanisms,
			Sheet:      sheet,
			Row:        m.Row,
		})
	}

	if _, err := p.doc.InsertTableAfter(anchor, t); err != nil {
		return nil, eris.Wrapf(err, "pipeline: rule %q: insert table", rule.Name)
	}
	p.record(rule.Name, tableText(t))
	return citations, nil
}

// formatCell applies a fmt verb to numeric values only.
func formatCell(v any, format string) string {
	if f, ok := v.(float64); ok && format != "" {
		return fmt.Sprintf(format, f)
	}
	return model.Stringify(v)
}

func mechanismStatement(m model.MechanismEntry) string {
	s := fmt.Sprintf("Mechanism: %s (stakeholder: %s", m.Description, m.Stakeholder)
	if m.Value != nil {
		s += ", value: " + model.FormatValue(*m.Value)
		if m.Unit != "" {
			s += " " + m.Unit
		}
	}
	return s + ")"
}

func tableText(t document.Table) string {
	lines := []string{strings.Join(t.Header, "\t")}
	for _, r := range t.Rows {
		lines = append(lines, strings.Join(r, "\t"))
	}
	return strings.Join(lines, "\n")
}

func (p *Processor) checkPlaceholders(rule rules.Rule, text string) {
	if !p.cfg.Validation.CheckPlaceholders {
		return
	}
	for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		name := m[1]
		if model.HasField(model.SourceSurvey, name) || model.HasField(model.SourceProfile, name) || name == StatusField {
			p.warnings = append(p.warnings, fmt.Sprintf("rule %q: placeholder {%s} left unfilled", rule.Name, name))
		}
	}
}

func (p *Processor) record(rule, text string) {
	if _, ok := p.sections[rule]; !ok {
		p.order = append(p.order, rule)
	}
	p.sections[rule] = text
}

// AppendTraceability writes the citation appendix at every traceability
// anchor seen. It inserts nothing when no traceability rule matched.
func (p *Processor) AppendTraceability(citations []model.Citation) error {
	for _, anchor := range p.appendix {
		title, err := p.doc.InsertTextAfter(anchor, AppendixTitle, true)
		if err != nil {
			return eris.Wrap(err, "pipeline: insert traceability title")
		}
		t := document.Table{
			Header:     []string{"Statement", "Source file", "Sheet", "Row", "Column"},
			Rows:       make([][]string, 0, len(citations)),
			HeaderBold: true,
			Border:     true,
		}
		for _, c := range citations {
			row := ""
			if c.Row > 0 {
				row = fmt.Sprint(c.Row)
			}
			t.Rows = append(t.Rows, []string{c.Statement, c.SourceFile, c.Sheet, row, c.Column})
		}
		if _, err := p.doc.InsertTableAfter(title, t); err != nil {
			return eris.Wrap(err, "pipeline: insert traceability table")
		}
	}
	return nil
}

// Sections returns the inserted text of every applied rule, keyed by rule
// name.
func (p *Processor) Sections() map[string]string {
	out := make(map[string]string, len(p.sections))
	for k, v := range p.sections {
		out[k] = v
	}
	return out
}

// SectionOrder returns rule names in the order their sections were written.
func (p *Processor) SectionOrder() []string {
	return append([]string(nil), p.order...)
}

// Warnings returns the non-fatal problems seen so far.
func (p *Processor) Warnings() []string {
	return append([]string(nil), p.warnings...)
}

// Processed returns how many rules were applied.
func (p *Processor) Processed() int { return p.processed }

// Skipped returns how many rules were skipped.
func (p *Processor) Skipped() int { return p.skipped }
