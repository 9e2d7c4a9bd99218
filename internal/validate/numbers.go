package validate

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/impact-report/internal/model"
)

// StructuralThreshold is the largest number assumed to be structural (list
// numbering, counts) rather than a factual claim.
const StructuralThreshold = 10

const tolerance = 0.01

var (
	numberToken  = regexp.MustCompile(`\b\d+(?:\.\d+)?\b`)
	literalToken = regexp.MustCompile(`\b\d{1,3}(?:,\d{3})+(?:\.\d+)?\b|\b\d+(?:\.\d+)?\b`)
	grouping     = message.NewPrinter(language.English)
)

// representations lists the literal forms a value may take in prose, most
// specific first.
func representations(v float64) []string {
	canonical := model.FormatValue(v)
	reps := []string{canonical}
	add := func(s string) {
		for _, r := range reps {
			if r == s {
				return
			}
		}
		reps = append(reps, s)
	}
	add(strconv.FormatFloat(v, 'f', -1, 64))
	add(strconv.FormatFloat(v, 'f', 2, 64))
	if math.Abs(v) >= 1000 {
		decimals := 0
		if i := strings.IndexByte(canonical, '.'); i >= 0 {
			decimals = len(canonical) - i - 1
		}
		add(grouping.Sprintf(fmt.Sprintf("%%.%df", decimals), v))
	}
	return reps
}

// mechanismValues returns every non-nil mechanism value.
func mechanismValues(rc *model.ReportContext) []float64 {
	var vals []float64
	for _, m := range rc.Profile.Mechanisms {
		if m.Value != nil {
			vals = append(vals, *m.Value)
		}
	}
	return vals
}

// matchesSource reports whether a numeric token equals a source value within
// tolerance or appears inside one of its rendered forms.
func matchesSource(token string, values []float64) bool {
	n, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return true
	}
	for _, v := range values {
		if math.Abs(v-n) < tolerance {
			return true
		}
		for _, r := range representations(v) {
			if strings.Contains(r, token) {
				return true
			}
		}
	}
	return false
}

// claim reports whether token is a number large enough to be a factual claim.
func claim(token string) bool {
	n, err := strconv.ParseFloat(token, 64)
	return err == nil && n > StructuralThreshold
}
