// Package resolve reconciles a requested company name against the survey
// and impact-profile record sets.
package resolve

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/impact-report/internal/model"
)

// MatchKind records how a record was found.
type MatchKind string

const (
	MatchExact    MatchKind = "exact"
	MatchContains MatchKind = "contains"
	MatchCrossRef MatchKind = "cross_reference"
	MatchNone     MatchKind = "none"
)

// Resolution is the canonical record pair for one company plus how each
// side was obtained.
type Resolution struct {
	Context         model.ReportContext
	SurveyMatch     MatchKind
	ProfileMatch    MatchKind
	SurveyFallback  bool
	ProfileFallback bool
}

// Warnings returns human-readable notes for each synthesized side.
func (r *Resolution) Warnings() []string {
	var out []string
	if r.ProfileFallback {
		out = append(out, "no impact profile found for "+r.Context.CompanyName+"; using empty profile")
	}
	if r.SurveyFallback {
		out = append(out, "no survey response found for "+r.Context.CompanyName+"; using placeholder survey")
	}
	return out
}

// Resolver matches company names. The zero value is ready to use.
type Resolver struct {
	// Now stamps synthesized survey records. Defaults to time.Now.
	Now func() time.Time
}

// Resolve matches query with a zero-value Resolver.
func Resolve(query string, surveys []model.SurveyRecord, profiles []model.CompanyImpactProfile) (*Resolution, error) {
	var r Resolver
	return r.Resolve(query, surveys, profiles)
}

// Resolve finds one survey record and one profile for query. Each store is
// searched by exact folded name, then by containment in either direction.
// When only one side matches, the other is retried with the matched side's
// stored name. Sides that still miss are synthesized. The result is checked
// with ReportContext.Validate before it is returned.
func (r *Resolver) Resolve(query string, surveys []model.SurveyRecord, profiles []model.CompanyImpactProfile) (*Resolution, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, eris.Wrap(model.ErrValidation, "resolve: company name is required")
	}
	log := zap.L().With(zap.String("component", "resolve"), zap.String("query", query))

	surveyNames := make([]string, len(surveys))
	for i, s := range surveys {
		surveyNames[i] = s.CompanyName
	}
	profileNames := make([]string, len(profiles))
	for i, p := range profiles {
		profileNames[i] = p.CompanyName
	}

	si, sKind := find(query, surveyNames)
	pi, pKind := find(query, profileNames)

	switch {
	case si < 0 && pi >= 0:
		if i, _ := find(profiles[pi].CompanyName, surveyNames); i >= 0 {
			si, sKind = i, MatchCrossRef
		}
	case pi < 0 && si >= 0:
		if i, _ := find(surveys[si].CompanyName, profileNames); i >= 0 {
			pi, pKind = i, MatchCrossRef
		}
	}

	res := &Resolution{SurveyMatch: sKind, ProfileMatch: pKind}

	var profile model.CompanyImpactProfile
	if pi >= 0 {
		profile = profiles[pi]
		log.Debug("resolve: matched impact profile",
			zap.String("name", profile.CompanyName),
			zap.String("match", string(pKind)),
		)
	} else {
		log.Warn("resolve: no impact profile found, synthesizing empty profile")
		profile = model.NewSynthesizedProfile(query)
		res.ProfileFallback = true
	}

	var survey model.SurveyRecord
	if si >= 0 {
		survey = surveys[si]
		log.Debug("resolve: matched survey record",
			zap.String("name", survey.CompanyName),
			zap.String("match", string(sKind)),
		)
	} else {
		log.Warn("resolve: no survey record found, synthesizing placeholder survey",
			zap.String("profile", profile.CompanyName),
		)
		now := time.Now
		if r.Now != nil {
			now = r.Now
		}
		survey = model.NewSynthesizedSurvey(profile.CompanyName, now())
		res.SurveyFallback = true
	}

	res.Context = model.ReportContext{
		CompanyName: profile.CompanyName,
		Survey:      survey,
		Profile:     profile,
	}
	if err := res.Context.Validate(); err != nil {
		return nil, eris.Wrap(err, "resolve")
	}
	return res, nil
}

// find returns the index of the first exact folded match of query in names,
// or failing that the first containment match in either direction.
// Empty names never match.
func find(query string, names []string) (int, MatchKind) {
	q := model.Fold(strings.TrimSpace(query))
	if q == "" {
		return -1, MatchNone
	}
	folded := make([]string, len(names))
	for i, n := range names {
		folded[i] = model.Fold(strings.TrimSpace(n))
		if folded[i] != "" && folded[i] == q {
			return i, MatchExact
		}
	}
	for i, n := range folded {
		if n == "" {
			continue
		}
		if strings.Contains(n, q) || strings.Contains(q, n) {
			return i, MatchContains
		}
	}
	return -1, MatchNone
}
