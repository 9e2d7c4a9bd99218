package validate

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/sells-group/impact-report/internal/model"
)

const sentenceDisplayLength = 200

// SuspiciousPhrases are rhetorical claims of outside authority that source
// facts cannot back.
var SuspiciousPhrases = []string{
	"according to our analysis",
	"studies show",
	"research shows",
	"research indicates",
	"it is well known",
	"experts believe",
	"根据我们的分析",
	"众所周知",
	"研究表明",
	"专家认为",
}

// Hallucinations flags sentences containing a suspicious phrase or a number
// above StructuralThreshold matching no mechanism value. A sentence is
// flagged at most once.
func Hallucinations(sections map[string]string, rc *model.ReportContext) model.HallucinationResult {
	res := model.HallucinationResult{Details: []model.Hallucination{}}
	values := mechanismValues(rc)

	for _, name := range sortedSections(sections) {
		sentences := SplitSentences(sections[name])
		res.TotalStatements += len(sentences)
		for _, s := range sentences {
			reason, flagged := suspicious(s, values)
			if !flagged {
				continue
			}
			res.Details = append(res.Details, model.Hallucination{
				Section:  name,
				Sentence: truncate(s, sentenceDisplayLength),
				Reason:   reason,
			})
		}
	}

	res.Count = len(res.Details)
	if res.TotalStatements > 0 {
		res.Rate = float64(res.Count) / float64(res.TotalStatements)
	}
	return res
}

func suspicious(sentence string, values []float64) (string, bool) {
	folded := model.Fold(sentence)
	for _, p := range SuspiciousPhrases {
		if strings.Contains(folded, p) {
			return "suspicious phrase: " + p, true
		}
	}
	for _, tok := range numberToken.FindAllString(sentence, -1) {
		if claim(tok) && !matchesSource(tok, values) {
			return fmt.Sprintf("number %s not found in source data", tok), true
		}
	}
	return "", false
}

// SplitSentences splits text on sentence punctuation, ASCII and full-width.
// A period ends a sentence only before whitespace or the end of text, so
// decimals stay whole.
func SplitSentences(text string) []string {
	var out []string
	runes := []rune(text)
	start := 0
	flush := func(end int) {
		if s := strings.TrimSpace(string(runes[start:end])); s != "" {
			out = append(out, s)
		}
		start = end + 1
	}
	for i, r := range runes {
		switch r {
		case '?', '!', ';', '。', '？', '！', '；':
			flush(i)
		case '.':
			if i == len(runes)-1 || unicode.IsSpace(runes[i+1]) {
				flush(i)
			}
		}
	}
	if start < len(runes) {
		flush(len(runes))
	}
	return out
}
