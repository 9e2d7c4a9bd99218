// Package extracttest writes source workbooks laid out the way the extractor
// expects them, for tests in other packages.
package extracttest

import (
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

// SurveyRow is one survey response.
type SurveyRow struct {
	Timestamp string
	Company   string
	Contact   string
	Goals     string
	Narrative string
}

// Mechanism is one line item on a company sheet. Value is written verbatim;
// numeric strings are stored as numbers.
type Mechanism struct {
	Stakeholder string
	Description string
	Driver      string
	ImpactType  string
	Polarity    string
	Method      string
	Value       string
	Unit        string
}

// CompanySheet is one company sheet of the mechanisms workbook.
type CompanySheet struct {
	Name                string
	SurveyReference     string
	AlternativeScenario string
	Stakeholders        []string
	Mechanisms          []Mechanism
}

// WriteSurvey writes a survey workbook with a "Form Responses 1" sheet.
func WriteSurvey(t *testing.T, dir string, rows []SurveyRow) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Form Responses 1")
	require.NoError(t, err)

	addRow(sheet, "Timestamp", "Company Name", "Your Name", "SDG Goals", "How do you achieve these goals?")
	for _, r := range rows {
		addRow(sheet, r.Timestamp, r.Company, r.Contact, r.Goals, r.Narrative)
	}

	path := filepath.Join(dir, "survey.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

// WriteMechanisms writes a mechanisms workbook with one sheet per company,
// preceded by a "Template sheet" that the extractor skips.
func WriteMechanisms(t *testing.T, dir string, sheets []CompanySheet) string {
	t.Helper()
	f := xlsx.NewFile()

	tmpl, err := f.AddSheet("Template sheet")
	require.NoError(t, err)
	addRow(tmpl, "Template")

	for _, cs := range sheets {
		sheet, err := f.AddSheet(cs.Name)
		require.NoError(t, err)

		addRow(sheet, "SDG questionnaire response", cs.SurveyReference) // 1
		addRow(sheet, "")                                               // 2
		addRow(sheet, "Alternative scenario", cs.AlternativeScenario)   // 3
		addRow(sheet, "")                                               // 4
		addRow(sheet, "Stakeholders")                                   // 5
		for i := 0; i < 6; i++ {                                        // 6-11
			name := ""
			if i < len(cs.Stakeholders) {
				name = cs.Stakeholders[i]
			}
			addRow(sheet, "", name)
		}
		addRow(sheet, "") // 12
		addRow(sheet, "Stakeholder affected", "Mechanism", "Driving variable", "Type of impact",
			"Positive/Negative", "Method", "Value", "Unit") // 13

		for _, m := range cs.Mechanisms {
			row := sheet.AddRow()
			for _, v := range []string{m.Stakeholder, m.Description, m.Driver, m.ImpactType, m.Polarity, m.Method} {
				row.AddCell().SetString(v)
			}
			valueCell := row.AddCell()
			if num, ok := parseNumber(m.Value); ok {
				valueCell.SetFloat(num)
			} else {
				valueCell.SetString(m.Value)
			}
			row.AddCell().SetString(m.Unit)
		}
	}

	path := filepath.Join(dir, "mechanisms.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func addRow(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}
