// Package validate runs the post-assembly analyses over a report's section
// texts: cross-section consistency, numeric accuracy, traceability and
// hallucination heuristics. Every function here is pure.
package validate

import (
	"sort"

	"github.com/sells-group/impact-report/internal/model"
)

// Data warnings attached to reports built from thin profiles.
const (
	WarnNoMechanisms   = "no mechanisms found in the impact profile"
	WarnNoStakeholders = "no stakeholders defined in the impact profile"
)

// Options selects which analyses Run performs. Skipped analyses report a
// passing zero value.
type Options struct {
	Consistency   bool
	Hallucination bool
}

// AllChecks enables every analysis.
var AllChecks = Options{Consistency: true, Hallucination: true}

// Run composes every analysis into one report.
func Run(sections map[string]string, rc *model.ReportContext, citations []model.Citation) model.ValidationReport {
	return RunWith(AllChecks, sections, rc, citations)
}

// RunWith composes the selected analyses into one report. Numeric accuracy
// and traceability always run.
func RunWith(opts Options, sections map[string]string, rc *model.ReportContext, citations []model.Citation) model.ValidationReport {
	report := model.ValidationReport{
		Consistency: model.ConsistencyResult{
			IsConsistent:    true,
			Inconsistencies: []string{},
			CheckedValues:   map[string][]model.ValueOccurrence{},
		},
		Numeric:      NumericAccuracy(sections, rc),
		Traceability: Traceability(rc, citations),
		Hallucination: model.HallucinationResult{
			Details: []model.Hallucination{},
		},
		Warnings: DataWarnings(rc),
	}
	if opts.Consistency {
		report.Consistency = Consistency(sections, rc)
	}
	if opts.Hallucination {
		report.Hallucination = Hallucinations(sections, rc)
	}
	return report
}

// DataWarnings flags profiles with nothing to report on.
func DataWarnings(rc *model.ReportContext) []string {
	warnings := []string{}
	if len(rc.Profile.Mechanisms) == 0 {
		warnings = append(warnings, WarnNoMechanisms)
	}
	if len(rc.Profile.Stakeholders) == 0 {
		warnings = append(warnings, WarnNoStakeholders)
	}
	return warnings
}

func sortedSections(sections map[string]string) []string {
	names := make([]string, 0, len(sections))
	for k := range sections {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
