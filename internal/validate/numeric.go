package validate

import (
	"fmt"

	"github.com/sells-group/impact-report/internal/model"
)

// NumericAccuracy warns about numbers above StructuralThreshold that match
// no mechanism value.
func NumericAccuracy(sections map[string]string, rc *model.ReportContext) model.NumericResult {
	res := model.NumericResult{Warnings: []string{}}
	if len(rc.Profile.Mechanisms) == 0 {
		res.Warnings = append(res.Warnings, WarnNoMechanisms)
	}

	values := mechanismValues(rc)
	for _, name := range sortedSections(sections) {
		for _, tok := range numberToken.FindAllString(sections[name], -1) {
			if claim(tok) && !matchesSource(tok, values) {
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("number %s in section %q not found in source data", tok, name))
			}
		}
	}
	return res
}
