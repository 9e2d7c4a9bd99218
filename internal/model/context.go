package model

import (
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
)

// ReportContext is the canonical pair of records a single report is built from.
type ReportContext struct {
	CompanyName string               `json:"company_name"`
	Survey      SurveyRecord         `json:"survey"`
	Profile     CompanyImpactProfile `json:"profile"`
}

// Validate enforces the cross-record name invariant: the survey and profile
// names must be equal, or one must contain the other ignoring case.
func (rc *ReportContext) Validate() error {
	if strings.TrimSpace(rc.CompanyName) == "" {
		return eris.Wrap(ErrValidation, "report context: company name is empty")
	}
	if strings.TrimSpace(rc.Profile.CompanyName) == "" {
		return eris.Wrap(ErrValidation, "report context: profile company name is empty")
	}
	if !NamesOverlap(rc.Survey.CompanyName, rc.Profile.CompanyName) {
		return eris.Wrapf(ErrValidation, "company name mismatch: %q vs %q",
			rc.Survey.CompanyName, rc.Profile.CompanyName)
	}
	return nil
}

// HasFallback reports whether either side of the context was synthesized.
func (rc *ReportContext) HasFallback() bool {
	return rc.Survey.Synthesized() || rc.Profile.Synthesized()
}

// NamesOverlap reports whether a and b are equal or one contains the other
// under Unicode case folding.
func NamesOverlap(a, b string) bool {
	if a == b {
		return true
	}
	fa, fb := Fold(a), Fold(b)
	return strings.Contains(fa, fb) || strings.Contains(fb, fa)
}

// Fold returns the case-folded form of s for case-insensitive comparison.
func Fold(s string) string {
	return cases.Fold().String(s)
}
