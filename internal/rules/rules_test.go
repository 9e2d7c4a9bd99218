package rules

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/impact-report/internal/model"
)

const validYAML = `
template:
  path: templates/report.docx
  output_dir: out
insert_rules:
  - name: intro
    insert_position:
      method: after_paragraph
      target_text: "Company Overview"
      target_style: "Heading 1"
    content_type: template
    template: "{company_name} contact: {contact_name}"
    data_source:
      model: SDGResponse
      fields: [company_name, contact_name]
  - name: table
    insert_position:
      method: after_section
      target_text: "Mechanisms"
    content_type: structured_table
    data_source:
      model: CompanyImpactData
      field: mechanisms
    table_config:
      columns:
        - {name: Stakeholder, field: stakeholder_affected, width: 1.5}
        - {name: Value, field: value, width: 1, format: "%.1f"}
  - name: appendix
    insert_position:
      method: end_of_document
    content_type: traceability
`

func TestParse_Valid(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte(validYAML))
	require.NoError(t, err)
	require.Len(t, cfg.Rules, 3)

	intro := cfg.Rules[0]
	assert.Equal(t, AfterParagraph, intro.Position.Method)
	kind, ok := intro.DataSource.Kind()
	require.True(t, ok)
	assert.Equal(t, model.SourceSurvey, kind)
	assert.True(t, intro.Style.Preserve())
	assert.True(t, intro.RequireGrounding())

	table := cfg.Rules[1]
	assert.Equal(t, []string{"mechanisms"}, table.DataSource.AllFields())
	require.NotNil(t, table.Table)
	assert.Equal(t, "%.1f", table.Table.Columns[1].Format)

	// Defaults for omitted sections.
	assert.True(t, cfg.Validation.CheckConsistency)
	assert.True(t, cfg.Output.TraceabilityJSON)
	assert.Equal(t, DefaultFilenamePattern, cfg.Output.FilenamePattern)
	assert.Equal(t, "out", cfg.Template.OutputDir)
}

func TestParse_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown model",
			yaml: `
template: {path: t.docx}
insert_rules:
  - name: r
    insert_position: {method: end_of_document}
    content_type: template
    template: "x"
    data_source: {model: Spreadsheet, fields: [company_name]}
`,
			want: "unknown data source model",
		},
		{
			name: "unknown field",
			yaml: `
template: {path: t.docx}
insert_rules:
  - name: r
    insert_position: {method: end_of_document}
    content_type: template
    template: "x"
    data_source: {model: survey, fields: [salary]}
`,
			want: "unknown field",
		},
		{
			name: "unknown column field",
			yaml: `
template: {path: t.docx}
insert_rules:
  - name: r
    insert_position: {method: end_of_document}
    content_type: structured_table
    data_source: {model: impact_profile}
    table_config:
      columns: [{name: X, field: salary}]
`,
			want: "unknown mechanism field",
		},
		{
			name: "integer verb for numeric column",
			yaml: `
template: {path: t.docx}
insert_rules:
  - name: r
    insert_position: {method: end_of_document}
    content_type: structured_table
    data_source: {model: impact_profile}
    table_config:
      columns: [{name: Value, field: value, format: "%d"}]
`,
			want: "does not render a number",
		},
		{
			name: "format without verb",
			yaml: `
template: {path: t.docx}
insert_rules:
  - name: r
    insert_position: {method: end_of_document}
    content_type: structured_table
    data_source: {model: impact_profile}
    table_config:
      columns: [{name: Value, field: value, format: "n/a"}]
`,
			want: "does not render a number",
		},
		{
			name: "bad method",
			yaml: `
template: {path: t.docx}
insert_rules:
  - name: r
    insert_position: {method: before_everything, target_text: x}
    content_type: template
    template: "x"
`,
			want: "invalid config",
		},
		{
			name: "missing target text",
			yaml: `
template: {path: t.docx}
insert_rules:
  - name: r
    insert_position: {method: after_paragraph}
    content_type: template
    template: "x"
`,
			want: "invalid config",
		},
		{
			name: "duplicate names",
			yaml: `
template: {path: t.docx}
insert_rules:
  - name: r
    insert_position: {method: end_of_document}
    content_type: traceability
  - name: r
    insert_position: {method: end_of_document}
    content_type: traceability
`,
			want: "duplicate rule name",
		},
		{
			name: "missing template path",
			yaml: `
insert_rules: []
`,
			want: "invalid config",
		},
		{
			name: "malformed yaml",
			yaml: "insert_rules: [",
			want: "parse yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_UnknownContentTypeAllowed(t *testing.T) {
	t.Parallel()
	cfg, err := Parse([]byte(`
template: {path: t.docx}
insert_rules:
  - name: chart
    insert_position: {method: end_of_document}
    content_type: bar_chart
`))
	require.NoError(t, err)
	assert.Equal(t, "bar_chart", cfg.Rules[0].ContentType)
}

func TestParse_FontKeysIgnored(t *testing.T) {
	t.Parallel()
	cfg, err := Parse([]byte(`
template: {path: t.docx}
insert_rules:
  - name: intro
    insert_position: {method: end_of_document}
    content_type: template
    template: "x"
    style: {preserve_original: false, font_size: 11, font_name: Calibri}
    format: {value: "%.1f"}
`))
	require.NoError(t, err)
	assert.False(t, cfg.Rules[0].Style.Preserve())
}

func TestLoad_ResolvesPaths(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "config")
	require.NoError(t, os.MkdirAll(cfgDir, 0o755))
	path := filepath.Join(cfgDir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validYAML), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "templates", "report.docx"), cfg.TemplatePath())
	assert.Equal(t, filepath.Join(dir, "out"), cfg.OutputDir())
}

func TestLoad_Missing(t *testing.T) {
	t.Parallel()
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrNotFound))
}

func TestOutputFilename(t *testing.T) {
	t.Parallel()
	cfg, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Acme Corp_Impact_Assessment_Report_20260314.docx", cfg.OutputFilename("Acme Corp", date))
	assert.Equal(t, "Company B_Sparkinity_Impact_Assessment_Report_20260314.docx", cfg.OutputFilename("Company B/Sparkinity", date))
}

func TestRuleLookup(t *testing.T) {
	t.Parallel()
	cfg, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	r, ok := cfg.Rule("table")
	require.True(t, ok)
	assert.Equal(t, ContentTable, r.ContentType)

	_, ok = cfg.Rule("missing")
	assert.False(t, ok)
}

func TestRepoRulesFileParses(t *testing.T) {
	t.Parallel()
	cfg, err := Load(filepath.Join("..", "..", "config", "insert_rules.yaml"))
	require.NoError(t, err)
	assert.Len(t, cfg.Rules, 4)
}

func TestValidNumberFormat(t *testing.T) {
	t.Parallel()
	for format, want := range map[string]bool{
		"":          true,
		"%.1f":      true,
		"%.0f%%":    true,
		"%,.2f":     false,
		"%d":        false,
		"%s":        false,
		"%.1f-%.1f": false,
		"value":     false,
	} {
		assert.Equal(t, want, validNumberFormat(format), "format %q", format)
	}
}
