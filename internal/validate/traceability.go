package validate

import (
	"strings"
	"unicode/utf8"

	"github.com/sells-group/impact-report/internal/model"
)

const (
	surfaceMinLength = 50
	truncateLength   = 100
	statementMinFact = 5
)

type fact struct {
	text    string
	numeric bool
}

// sourceFacts lists the facts a report is expected to cite: company name,
// goals, narrative, alternative scenario, stakeholders and each mechanism's
// value, description and stakeholder. Empty facts are skipped.
func sourceFacts(rc *model.ReportContext) []fact {
	var facts []fact
	add := func(s string, numeric bool) {
		if strings.TrimSpace(s) != "" {
			facts = append(facts, fact{text: s, numeric: numeric})
		}
	}

	add(rc.CompanyName, false)
	add(rc.Survey.GoalTags, false)
	add(rc.Survey.ImplementationNarrative, false)
	add(rc.Profile.AlternativeScenario, false)
	for _, s := range rc.Profile.Stakeholders {
		add(s, false)
	}
	for _, m := range rc.Profile.Mechanisms {
		if m.Value != nil {
			add(model.FormatValue(*m.Value), true)
		}
		add(m.Description, false)
		add(m.Stakeholder, false)
	}
	return facts
}

// Traceability measures how many source facts appear in some citation
// statement. Adding citations never lowers the rate.
func Traceability(rc *model.ReportContext, citations []model.Citation) model.TraceabilityResult {
	facts := sourceFacts(rc)
	res := model.TraceabilityResult{
		Total:            len(facts),
		UntraceableItems: []string{},
	}

	for _, f := range facts {
		traced := false
		for _, c := range citations {
			if strings.Contains(c.Statement, f.text) {
				traced = true
				break
			}
		}
		if traced {
			res.Traceable++
			continue
		}
		if f.numeric || utf8.RuneCountInString(f.text) > surfaceMinLength {
			res.UntraceableItems = append(res.UntraceableItems, truncate(f.text, truncateLength))
		}
	}

	if res.Total > 0 {
		res.Rate = float64(res.Traceable) / float64(res.Total)
	}
	return res
}

// ValidateStatements checks free-text statements against the source facts
// by case-insensitive containment. Facts of five characters or fewer are
// ignored.
func ValidateStatements(statements []string, rc *model.ReportContext) model.TraceabilityResult {
	var facts []string
	for _, f := range sourceFacts(rc) {
		if utf8.RuneCountInString(f.text) > statementMinFact {
			facts = append(facts, model.Fold(f.text))
		}
	}

	res := model.TraceabilityResult{
		Total:            len(statements),
		UntraceableItems: []string{},
	}
	for _, s := range statements {
		folded := model.Fold(s)
		grounded := false
		for _, f := range facts {
			if strings.Contains(folded, f) {
				grounded = true
				break
			}
		}
		if grounded {
			res.Traceable++
		} else {
			res.UntraceableItems = append(res.UntraceableItems, truncate(s, truncateLength))
		}
	}
	if res.Total > 0 {
		res.Rate = float64(res.Traceable) / float64(res.Total)
	}
	return res
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
