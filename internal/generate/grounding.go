package generate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/sells-group/impact-report/internal/model"
)

var numberPattern = regexp.MustCompile(`\b\d+(?:\.\d+)?\b`)

// BuildPrompt substitutes {key} placeholders with stringified values.
// Placeholders without a matching key are left as written.
func BuildPrompt(template string, vars map[string]any) string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", model.Stringify(vars[k]))
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// FlattenFacts renders facts as sorted "key: value" lines so the same facts
// always produce the same text.
func FlattenFacts(facts map[string]any) string {
	keys := make([]string, 0, len(facts))
	for k := range facts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(": ")
		writeFact(&b, facts[k])
		b.WriteByte('\n')
	}
	return b.String()
}

func writeFact(b *strings.Builder, v any) {
	switch x := v.(type) {
	case map[string]any:
		b.WriteString("{")
		b.WriteString(strings.ReplaceAll(strings.TrimSpace(FlattenFacts(x)), "\n", "; "))
		b.WriteString("}")
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			var sb strings.Builder
			writeFact(&sb, item)
			parts[i] = sb.String()
		}
		b.WriteString(strings.Join(parts, ", "))
	default:
		b.WriteString(model.Stringify(v))
	}
}

// CheckGrounding flags every numeric literal in text that does not appear
// verbatim in the flattened facts. Confidence drops by 0.2 per flag.
func CheckGrounding(text string, facts map[string]any) model.GroundingResult {
	flat := FlattenFacts(facts)
	flagged := []string{}
	for _, n := range numberPattern.FindAllString(text, -1) {
		if !strings.Contains(flat, n) {
			flagged = append(flagged, fmt.Sprintf("number %s not found in source data", n))
		}
	}

	confidence := 1.0 - 0.2*float64(len(flagged))
	if confidence < 0 {
		confidence = 0
	}

	res := model.GroundingResult{
		IsGrounded:     len(flagged) == 0,
		Hallucinations: flagged,
		Confidence:     confidence,
	}
	if res.IsGrounded {
		res.Details = "all numbers grounded in source data"
	} else {
		res.Details = fmt.Sprintf("%d ungrounded number(s)", len(flagged))
	}
	return res
}
