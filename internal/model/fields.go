package model

import (
	"sort"
	"strings"
)

// SourceKind names a record kind a rule can read fields from.
type SourceKind string

const (
	SourceSurvey  SourceKind = "survey"
	SourceProfile SourceKind = "impact_profile"
)

// sourceAliases maps accepted configuration names to a SourceKind.
var sourceAliases = map[string]SourceKind{
	"survey":               SourceSurvey,
	"surveyrecord":         SourceSurvey,
	"sdgresponse":          SourceSurvey,
	"impact_profile":       SourceProfile,
	"companyimpactprofile": SourceProfile,
	"companyimpactdata":    SourceProfile,
}

// ParseSourceKind resolves a configured data-source model name.
func ParseSourceKind(name string) (SourceKind, bool) {
	k, ok := sourceAliases[strings.ToLower(strings.TrimSpace(name))]
	return k, ok
}

var surveyFields = map[string]func(SurveyRecord) any{
	"company_name":             func(s SurveyRecord) any { return s.CompanyName },
	"contact_name":             func(s SurveyRecord) any { return s.ContactName },
	"goal_tags":                func(s SurveyRecord) any { return s.GoalTags },
	"implementation_narrative": func(s SurveyRecord) any { return s.ImplementationNarrative },
	"timestamp":                func(s SurveyRecord) any { return s.Timestamp.Format("2006-01-02 15:04:05") },
}

var profileFields = map[string]func(CompanyImpactProfile) any{
	"company_name":         func(p CompanyImpactProfile) any { return p.CompanyName },
	"survey_reference":     func(p CompanyImpactProfile) any { return p.SurveyReference },
	"alternative_scenario": func(p CompanyImpactProfile) any { return p.AlternativeScenario },
	"stakeholders":         func(p CompanyImpactProfile) any { return p.Stakeholders },
	"mechanism_count":      func(p CompanyImpactProfile) any { return len(p.Mechanisms) },
	"mechanisms":           func(p CompanyImpactProfile) any { return mechanismSummaries(p.Mechanisms) },
}

var mechanismFields = map[string]func(MechanismEntry) any{
	"stakeholder":           func(m MechanismEntry) any { return m.Stakeholder },
	"mechanism_description": func(m MechanismEntry) any { return m.Description },
	"driving_variable":      func(m MechanismEntry) any { return m.DrivingVariable },
	"impact_type":           func(m MechanismEntry) any { return m.ImpactType },
	"polarity":              func(m MechanismEntry) any { return m.Polarity },
	"method":                func(m MechanismEntry) any { return m.Method },
	"value": func(m MechanismEntry) any {
		if m.Value == nil {
			return nil
		}
		return *m.Value
	},
	"unit": func(m MechanismEntry) any { return m.Unit },
}

// fieldAliases maps legacy column names onto canonical field names.
var fieldAliases = map[string]string{
	"sdg_goals":                  "goal_tags",
	"implementation_description": "implementation_narrative",
	"sdg_questionnaire_response": "survey_reference",
	"stakeholder_affected":       "stakeholder",
	"mechanism":                  "mechanism_description",
	"type_of_impact":             "impact_type",
	"positive_negative":          "polarity",
}

// CanonicalField returns the canonical name for a configured field name.
func CanonicalField(name string) string {
	if c, ok := fieldAliases[name]; ok {
		return c
	}
	return name
}

// HasField reports whether kind exposes the named field.
func HasField(kind SourceKind, name string) bool {
	name = CanonicalField(name)
	switch kind {
	case SourceSurvey:
		_, ok := surveyFields[name]
		return ok
	case SourceProfile:
		_, ok := profileFields[name]
		return ok
	}
	return false
}

// HasMechanismField reports whether MechanismEntry exposes the named field.
func HasMechanismField(name string) bool {
	_, ok := mechanismFields[CanonicalField(name)]
	return ok
}

// Fields lists the field names kind exposes, sorted.
func Fields(kind SourceKind) []string {
	var names []string
	switch kind {
	case SourceSurvey:
		for k := range surveyFields {
			names = append(names, k)
		}
	case SourceProfile:
		for k := range profileFields {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}

// Field reads a named field from the survey or profile side of the context.
func (rc *ReportContext) Field(kind SourceKind, name string) (any, bool) {
	name = CanonicalField(name)
	switch kind {
	case SourceSurvey:
		if fn, ok := surveyFields[name]; ok {
			return fn(rc.Survey), true
		}
	case SourceProfile:
		if fn, ok := profileFields[name]; ok {
			return fn(rc.Profile), true
		}
	}
	return nil, false
}

// Field reads a named field from the mechanism entry.
func (m MechanismEntry) Field(name string) (any, bool) {
	fn, ok := mechanismFields[CanonicalField(name)]
	if !ok {
		return nil, false
	}
	return fn(m), true
}

func mechanismSummaries(ms []MechanismEntry) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		s := m.Stakeholder + ": " + m.Description
		if m.Value != nil {
			s += " (" + FormatValue(*m.Value)
			if m.Unit != "" {
				s += " " + m.Unit
			}
			s += ")"
		}
		out = append(out, s)
	}
	return out
}
