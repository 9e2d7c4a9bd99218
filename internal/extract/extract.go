// Package extract reads survey records and company impact profiles from the
// source workbooks.
package extract

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/impact-report/internal/model"
)

// Mechanism sheet layout (zero-based).
const (
	surveyRefRow      = 0  // B1
	altScenarioRow    = 2  // B3
	stakeholderFirst  = 5  // B6
	stakeholderLast   = 10 // B11
	keyInfoCol        = 1  // column B
	mechanismFirstRow = 13 // row 14
	mechanismCols     = 8  // A-H
)

// Survey sheet columns.
const (
	colTimestamp = iota
	colCompany
	colContact
	colGoals
	colNarrative
)

// DefaultExcludedSheets lists non-company sheets in the mechanisms workbook.
var DefaultExcludedSheets = []string{"Template sheet", "extra FBB SME interview"}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02 15:04:05",
	"1/2/2006 15:04:05",
	"2006-01-02",
}

// Options configures an Extractor.
type Options struct {
	SurveyPath     string
	SurveySheet    string
	MechanismsPath string
	ExcludedSheets []string
	Cache          *WorkbookCache
	Now            func() time.Time
}

// Extractor reads typed records out of the two source workbooks.
type Extractor struct {
	opts     Options
	excluded map[string]bool
	log      *zap.Logger
}

// New creates an Extractor.
func New(opts Options) *Extractor {
	if opts.SurveySheet == "" {
		opts.SurveySheet = "Form Responses 1"
	}
	if opts.ExcludedSheets == nil {
		opts.ExcludedSheets = DefaultExcludedSheets
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	excluded := make(map[string]bool, len(opts.ExcludedSheets))
	for _, s := range opts.ExcludedSheets {
		excluded[s] = true
	}
	return &Extractor{
		opts:     opts,
		excluded: excluded,
		log:      zap.L().With(zap.String("component", "extract")),
	}
}

// Cache returns the workbook cache, nil when caching is off.
func (e *Extractor) Cache() *WorkbookCache { return e.opts.Cache }

// SurveyPath returns the survey workbook path.
func (e *Extractor) SurveyPath() string { return e.opts.SurveyPath }

// MechanismsPath returns the mechanisms workbook path.
func (e *Extractor) MechanismsPath() string { return e.opts.MechanismsPath }

// SurveyRecords reads every non-empty survey row. Missing required values
// are replaced with placeholders and logged; rows are never rejected.
func (e *Extractor) SurveyRecords(ctx context.Context) ([]model.SurveyRecord, error) {
	f, err := e.opts.Cache.Open(e.opts.SurveyPath)
	if err != nil {
		return nil, err
	}
	sheet, ok := f.Sheet[e.opts.SurveySheet]
	if !ok {
		return nil, eris.Wrapf(model.ErrNotFound, "extract: sheet %q in %s", e.opts.SurveySheet, e.opts.SurveyPath)
	}

	var records []model.SurveyRecord
	for i, row := range sheet.Rows {
		if i == 0 {
			continue // header
		}
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "extract: survey records")
		}
		if rowEmpty(row) {
			continue
		}
		records = append(records, e.surveyRecord(f, row, i+1))
	}

	e.log.Info("extracted survey records",
		zap.String("file", e.opts.SurveyPath),
		zap.Int("count", len(records)),
	)
	return records, nil
}

func (e *Extractor) surveyRecord(f *xlsx.File, row *xlsx.Row, rowNum int) model.SurveyRecord {
	log := e.log.With(zap.Int("row", rowNum))

	rec := model.SurveyRecord{
		CompanyName:             cellText(row, colCompany),
		ContactName:             cellText(row, colContact),
		GoalTags:                cellText(row, colGoals),
		ImplementationNarrative: cellText(row, colNarrative),
		Row:                     rowNum,
		Origin:                  model.OriginResolved,
	}

	ts, ok := cellTime(f, row, colTimestamp)
	if !ok {
		log.Warn("unparseable timestamp, using current time")
		ts = e.opts.Now()
	}
	rec.Timestamp = ts

	if rec.CompanyName == "" {
		log.Warn("empty company name, using placeholder")
		rec.CompanyName = model.UnknownCompany
	}
	if rec.ContactName == "" {
		log.Warn("empty contact name, using placeholder")
		rec.ContactName = model.UnknownContact
	}
	if len([]rune(rec.ImplementationNarrative)) < model.MinNarrativeLength {
		log.Warn("short implementation narrative, using placeholder")
		rec.ImplementationNarrative = model.MissingNarrative
	}
	return rec
}

// CompanySheets lists the company sheet names in workbook order.
func (e *Extractor) CompanySheets(ctx context.Context) ([]string, error) {
	f, err := e.opts.Cache.Open(e.opts.MechanismsPath)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "extract: company sheets")
	}
	var names []string
	for _, s := range f.Sheets {
		if !e.excluded[s.Name] {
			names = append(names, s.Name)
		}
	}
	return names, nil
}

// ImpactProfiles reads company profiles from the mechanisms workbook. An
// empty company reads every company sheet; otherwise only the sheet named
// company is read and its absence is ErrNotFound.
func (e *Extractor) ImpactProfiles(ctx context.Context, company string) ([]model.CompanyImpactProfile, error) {
	f, err := e.opts.Cache.Open(e.opts.MechanismsPath)
	if err != nil {
		return nil, err
	}

	var sheets []*xlsx.Sheet
	if company != "" {
		s, ok := f.Sheet[company]
		if !ok {
			return nil, eris.Wrapf(model.ErrNotFound, "extract: sheet %q in %s", company, e.opts.MechanismsPath)
		}
		sheets = append(sheets, s)
	} else {
		for _, s := range f.Sheets {
			if !e.excluded[s.Name] {
				sheets = append(sheets, s)
			}
		}
	}

	profiles := make([]model.CompanyImpactProfile, 0, len(sheets))
	for _, s := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "extract: impact profiles")
		}
		p := e.profile(s)
		e.log.Debug("extracted company sheet",
			zap.String("sheet", s.Name),
			zap.Int("stakeholders", len(p.Stakeholders)),
			zap.Int("mechanisms", len(p.Mechanisms)),
		)
		profiles = append(profiles, p)
	}

	e.log.Info("extracted impact profiles",
		zap.String("file", e.opts.MechanismsPath),
		zap.Int("count", len(profiles)),
	)
	return profiles, nil
}

func (e *Extractor) profile(s *xlsx.Sheet) model.CompanyImpactProfile {
	p := model.CompanyImpactProfile{
		CompanyName:         s.Name,
		SurveyReference:     sheetText(s, surveyRefRow, keyInfoCol),
		AlternativeScenario: sheetText(s, altScenarioRow, keyInfoCol),
		Stakeholders:        []string{},
		Mechanisms:          []model.MechanismEntry{},
		Sheet:               s.Name,
		Origin:              model.OriginResolved,
	}

	for r := stakeholderFirst; r <= stakeholderLast; r++ {
		if v := sheetText(s, r, keyInfoCol); v != "" {
			p.Stakeholders = append(p.Stakeholders, v)
		}
	}

	for r := mechanismFirstRow; r < len(s.Rows); r++ {
		row := s.Rows[r]
		if row == nil {
			continue
		}
		m := model.MechanismEntry{
			Stakeholder:     cellText(row, 0),
			Description:     cellText(row, 1),
			DrivingVariable: cellText(row, 2),
			ImpactType:      cellText(row, 3),
			Polarity:        cellText(row, 4),
			Method:          cellText(row, 5),
			Unit:            cellText(row, 7),
			Row:             r + 1,
		}
		if m.Stakeholder == "" && m.Description == "" {
			continue
		}
		if raw := cellText(row, 6); raw != "" {
			if v, ok := cellFloat(row, 6); ok {
				m.Value = &v
			} else {
				e.log.Warn("mechanism value is not numeric",
					zap.String("sheet", s.Name),
					zap.Int("row", r+1),
					zap.String("value", raw),
				)
			}
		}
		p.Mechanisms = append(p.Mechanisms, m)
	}
	return p
}

func sheetText(s *xlsx.Sheet, r, c int) string {
	if r >= len(s.Rows) || s.Rows[r] == nil {
		return ""
	}
	return cellText(s.Rows[r], c)
}

func cellAt(row *xlsx.Row, c int) *xlsx.Cell {
	if row == nil || c >= len(row.Cells) {
		return nil
	}
	return row.Cells[c]
}

func cellText(row *xlsx.Row, c int) string {
	cell := cellAt(row, c)
	if cell == nil {
		return ""
	}
	return strings.TrimSpace(cell.String())
}

func cellFloat(row *xlsx.Row, c int) (float64, bool) {
	cell := cellAt(row, c)
	if cell == nil {
		return 0, false
	}
	raw := strings.TrimSpace(cell.Value)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func cellTime(f *xlsx.File, row *xlsx.Row, c int) (time.Time, bool) {
	cell := cellAt(row, c)
	if cell == nil {
		return time.Time{}, false
	}
	if cell.Type() == xlsx.CellTypeNumeric {
		if t, err := cell.GetTime(f.Date1904); err == nil {
			return t, true
		}
	}
	raw := strings.TrimSpace(cell.String())
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func rowEmpty(row *xlsx.Row) bool {
	if row == nil {
		return true
	}
	for _, c := range row.Cells {
		if strings.TrimSpace(c.String()) != "" {
			return false
		}
	}
	return true
}
