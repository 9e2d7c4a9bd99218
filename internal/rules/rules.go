// Package rules loads the declarative insertion configuration that drives
// report assembly.
package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/impact-report/internal/model"
)

// Insert position methods.
const (
	AfterParagraph = "after_paragraph"
	AfterSection   = "after_section"
	EndOfDocument  = "end_of_document"
)

// Content types.
const (
	ContentTemplate     = "template"
	ContentAIGenerated  = "ai_generated"
	ContentTable        = "structured_table"
	ContentTraceability = "traceability"
)

// DefaultFilenamePattern names output documents when the config omits one.
const DefaultFilenamePattern = "{company_name}_Impact_Assessment_Report_{date}.docx"

var validate = validator.New()

// Config is the parsed rule file. It is immutable after Load.
type Config struct {
	Template   TemplateInfo       `yaml:"template"`
	Rules      []Rule             `yaml:"insert_rules" validate:"dive"`
	Validation ValidationSettings `yaml:"validation"`
	Output     OutputSettings     `yaml:"output"`

	// BaseDir anchors relative template and output paths.
	BaseDir string `yaml:"-"`
}

// TemplateInfo locates the source document.
type TemplateInfo struct {
	Path           string `yaml:"path" validate:"required"`
	OutputDir      string `yaml:"output_dir"`
	BackupOriginal bool   `yaml:"backup_original"`
}

// Rule is one insertion rule.
type Rule struct {
	Name           string          `yaml:"name" validate:"required"`
	Position       Position        `yaml:"insert_position"`
	ContentType    string          `yaml:"content_type" validate:"required"`
	Template       string          `yaml:"template"`
	PromptTemplate string          `yaml:"prompt_template"`
	DataSource     DataSource      `yaml:"data_source"`
	Style          *Style          `yaml:"style"`
	Table          *TableConfig    `yaml:"table_config"`
	AI             *AIConfig       `yaml:"ai_config"`
	Check          *RuleValidation `yaml:"validation"`
}

// Position describes where a rule inserts its content.
type Position struct {
	Method      string `yaml:"method" validate:"required,oneof=after_paragraph after_section end_of_document"`
	TargetText  string `yaml:"target_text" validate:"required_unless=Method end_of_document"`
	TargetStyle string `yaml:"target_style"`
}

// DataSource names the record kind and fields a rule reads.
type DataSource struct {
	Model  string   `yaml:"model"`
	Fields []string `yaml:"fields"`
	Field  string   `yaml:"field"`
}

// AllFields returns Fields plus the single Field, if set.
func (d DataSource) AllFields() []string {
	out := append([]string(nil), d.Fields...)
	if d.Field != "" {
		out = append(out, d.Field)
	}
	return out
}

// Kind resolves the configured model name.
func (d DataSource) Kind() (model.SourceKind, bool) {
	return model.ParseSourceKind(d.Model)
}

// Style carries presentation hints for inserted content.
type Style struct {
	PreserveOriginal *bool  `yaml:"preserve_original"`
	HeaderBold       bool   `yaml:"header_bold"`
	HeaderBackground string `yaml:"header_background"`
	Border           bool   `yaml:"border"`
}

// Preserve reports whether inserted text keeps the anchor's style.
// A nil style preserves.
func (s *Style) Preserve() bool {
	if s == nil || s.PreserveOriginal == nil {
		return true
	}
	return *s.PreserveOriginal
}

// TableConfig describes a mechanism table.
type TableConfig struct {
	Columns []Column `yaml:"columns" validate:"required,min=1,dive"`
	Style   Style    `yaml:"style"`
}

// Column maps a table column onto a mechanism field. Format is a fmt verb
// applied only to numeric values, e.g. "%.1f".
type Column struct {
	Name   string  `yaml:"name" validate:"required"`
	Field  string  `yaml:"field" validate:"required"`
	Width  float64 `yaml:"width" validate:"gte=0"`
	Format string  `yaml:"format"`
}

// AIConfig overrides completion parameters for one rule.
type AIConfig struct {
	Model       string   `yaml:"model"`
	MaxTokens   int      `yaml:"max_tokens" validate:"gte=0"`
	Temperature *float64 `yaml:"temperature" validate:"omitempty,gte=0,lte=2"`
}

// RuleValidation toggles per-rule checks.
type RuleValidation struct {
	RequireGrounding bool `yaml:"require_grounding"`
}

// RequireGrounding reports whether generated text for the rule is grounded.
// Grounding is on unless explicitly disabled.
func (r Rule) RequireGrounding() bool {
	if r.Check == nil {
		return true
	}
	return r.Check.RequireGrounding
}

// ValidationSettings toggles the post-run analyses.
type ValidationSettings struct {
	CheckPlaceholders  bool `yaml:"check_all_placeholders_filled"`
	CheckHallucination bool `yaml:"check_no_hallucination"`
	CheckConsistency   bool `yaml:"check_data_consistency"`
	WriteReport        bool `yaml:"generate_validation_report"`
}

// OutputSettings controls output naming and side files.
type OutputSettings struct {
	FilenamePattern  string `yaml:"filename_pattern"`
	IncludeMetadata  bool   `yaml:"include_metadata"`
	TraceabilityJSON bool   `yaml:"generate_traceability_json"`
}

// defaults mirror a config file that only lists rules.
func defaults() Config {
	return Config{
		Template: TemplateInfo{OutputDir: "output", BackupOriginal: true},
		Validation: ValidationSettings{
			CheckPlaceholders:  true,
			CheckHallucination: true,
			CheckConsistency:   true,
			WriteReport:        true,
		},
		Output: OutputSettings{
			FilenamePattern:  DefaultFilenamePattern,
			IncludeMetadata:  true,
			TraceabilityJSON: true,
		},
	}
}

// Load reads and validates a rule file. Relative template and output paths
// resolve against the parent of the directory holding the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, eris.Wrapf(model.ErrNotFound, "rules: config file %s", path)
		}
		return nil, eris.Wrap(err, "rules: read config")
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.BaseDir = filepath.Dir(filepath.Dir(path))
	return cfg, nil
}

// Parse decodes and validates rule YAML.
func Parse(data []byte) (*Config, error) {
	cfg := defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, eris.Wrap(err, "rules: parse yaml")
	}
	if cfg.Output.FilenamePattern == "" {
		cfg.Output.FilenamePattern = DefaultFilenamePattern
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, eris.Wrap(err, "rules: invalid config")
	}

	seen := make(map[string]bool, len(cfg.Rules))
	for i := range cfg.Rules {
		r := &cfg.Rules[i]
		if seen[r.Name] {
			return nil, eris.Errorf("rules: duplicate rule name %q", r.Name)
		}
		seen[r.Name] = true
		if err := checkRule(r); err != nil {
			return nil, eris.Wrapf(err, "rules: rule %q", r.Name)
		}
	}
	return &cfg, nil
}

// checkRule rejects data-source references no accessor can serve.
func checkRule(r *Rule) error {
	switch r.ContentType {
	case ContentTemplate:
		if r.Template == "" {
			return eris.New("template content requires a template")
		}
	case ContentAIGenerated:
		if r.PromptTemplate == "" {
			return eris.New("ai_generated content requires a prompt_template")
		}
	case ContentTable:
		if r.Table == nil {
			return eris.New("structured_table content requires table_config")
		}
		for _, c := range r.Table.Columns {
			if !model.HasMechanismField(c.Field) {
				return eris.Errorf("unknown mechanism field %q in column %q", c.Field, c.Name)
			}
			if !validNumberFormat(c.Format) {
				return eris.Errorf("column %q format %q does not render a number", c.Name, c.Format)
			}
		}
	}

	fields := r.DataSource.AllFields()
	if r.DataSource.Model == "" {
		if len(fields) > 0 {
			return eris.New("data_source fields given without a model")
		}
		return nil
	}
	kind, ok := r.DataSource.Kind()
	if !ok {
		return eris.Errorf("unknown data source model %q", r.DataSource.Model)
	}
	for _, f := range fields {
		if !model.HasField(kind, f) {
			return eris.Errorf("unknown field %q for data source %q", f, r.DataSource.Model)
		}
	}
	return nil
}

// TemplatePath returns the template document path.
func (c *Config) TemplatePath() string {
	return c.resolve(c.Template.Path)
}

// OutputDir returns the directory output documents are written to.
func (c *Config) OutputDir() string {
	return c.resolve(c.Template.OutputDir)
}

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.BaseDir == "" {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

// OutputFilename renders the filename pattern for a company and date.
func (c *Config) OutputFilename(company string, date time.Time) string {
	name := strings.NewReplacer(
		"{company_name}", company,
		"{date}", date.Format("20060102"),
	).Replace(c.Output.FilenamePattern)
	return sanitizeFilename(name)
}

// Rule returns the rule with the given name.
func (c *Config) Rule(name string) (Rule, bool) {
	for _, r := range c.Rules {
		if r.Name == name {
			return r, true
		}
	}
	return Rule{}, false
}

func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}

// String summarises the config for logs.
func (c *Config) String() string {
	return fmt.Sprintf("rules(template=%s, rules=%d)", c.Template.Path, len(c.Rules))
}

// validNumberFormat reports whether format renders a single float cleanly.
// Column formats only apply to numeric values.
func validNumberFormat(format string) bool {
	if format == "" {
		return true
	}
	return strings.Contains(format, "%") && !strings.Contains(fmt.Sprintf(format, 100.0), "%!")
}
