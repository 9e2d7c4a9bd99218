package validate

import (
	"fmt"
	"strings"

	"github.com/sells-group/impact-report/internal/model"
)

const (
	maxUntraceableShown   = 10
	maxHallucinationShown = 5
)

// FormatReport renders a validation report as plain text.
func FormatReport(company string, r model.ValidationReport) string {
	var b strings.Builder
	rule := strings.Repeat("=", 80)
	sub := strings.Repeat("-", 80)
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("%s", rule)
	line("Report validation: %s", company)
	line("%s", rule)
	line("")

	line("## 1. Data consistency")
	line("%s", sub)
	line("Result: %s", verdict(r.Consistency.IsConsistent, "PASS", "FAIL"))
	line("Values checked: %d", len(r.Consistency.CheckedValues))
	line("Inconsistencies: %d", len(r.Consistency.Inconsistencies))
	for i, s := range r.Consistency.Inconsistencies {
		line("  %d. %s", i+1, s)
	}
	if len(r.Numeric.Warnings) > 0 {
		line("Numeric warnings: %d", len(r.Numeric.Warnings))
		for i, w := range r.Numeric.Warnings {
			line("  %d. %s", i+1, w)
		}
	}
	line("")

	t := r.Traceability
	line("## 2. Traceability")
	line("%s", sub)
	line("Source facts: %d", t.Total)
	line("Traceable: %d", t.Traceable)
	line("Rate: %.2f%%", t.Rate*100)
	line("Result: %s", verdict(t.Rate >= model.TraceabilityPassRate, "PASS", "FAIL"))
	if n := len(t.UntraceableItems); n > 0 {
		line("Untraceable items (%d):", n)
		for i, item := range t.UntraceableItems {
			if i == maxUntraceableShown {
				line("  ... %d more", n-maxUntraceableShown)
				break
			}
			line("  %d. %s", i+1, item)
		}
	}
	line("")

	h := r.Hallucination
	line("## 3. Hallucination check")
	line("%s", sub)
	line("Statements: %d", h.TotalStatements)
	line("Flagged: %d", h.Count)
	line("Rate: %.2f%%", h.Rate*100)
	line("Result: %s", verdict(h.Count == 0, "PASS", "WARN"))
	for i, d := range h.Details {
		if i == maxHallucinationShown {
			line("  ... %d more", len(h.Details)-maxHallucinationShown)
			break
		}
		line("  %d. section: %s", i+1, d.Section)
		line("     reason: %s", d.Reason)
		line("     sentence: %s", d.Sentence)
	}
	line("")

	if len(r.Warnings) > 0 {
		line("## Data warnings")
		line("%s", sub)
		for _, w := range r.Warnings {
			line("  - %s", w)
		}
		line("")
	}

	line("%s", rule)
	line("Overall: %s", verdict(r.Passed(), "ALL CHECKS PASSED", "ISSUES FOUND"))
	return b.String()
}

func verdict(ok bool, pass, fail string) string {
	if ok {
		return pass
	}
	return fail
}
