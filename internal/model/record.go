package model

import "time"

// Origin tags whether a record came from a source workbook or was
// synthesized during resolution because no source row matched.
type Origin string

const (
	OriginResolved    Origin = "resolved"
	OriginSynthesized Origin = "synthesized"
)

// Placeholder values written into records that had to be filled in.
// Detection downstream uses Origin, never these strings.
const (
	UnknownCompany       = "Unknown Company"
	UnknownContact       = "Unknown Contact"
	MissingNarrative     = "No detailed implementation description provided"
	SynthesizedContact   = "No contact information provided"
	SynthesizedGoals     = "No sustainability goals found in the survey for this company"
	SynthesizedNarrative = "No implementation description found in the survey for this company"
)

// MinNarrativeLength is the shortest implementation narrative kept as-is
// at ingestion; shorter ones are replaced with MissingNarrative.
const MinNarrativeLength = 10

// SurveyRecord is one respondent's survey submission.
type SurveyRecord struct {
	Timestamp               time.Time `json:"timestamp"`
	CompanyName             string    `json:"company_name"`
	ContactName             string    `json:"contact_name"`
	GoalTags                string    `json:"goal_tags"`
	ImplementationNarrative string    `json:"implementation_narrative"`
	Row                     int       `json:"row,omitempty"`
	Origin                  Origin    `json:"origin"`
}

// Synthesized reports whether the record was created as a fallback.
func (s SurveyRecord) Synthesized() bool {
	return s.Origin == OriginSynthesized
}

// MechanismEntry is one causal-impact line item on a company sheet.
type MechanismEntry struct {
	Stakeholder     string   `json:"stakeholder"`
	Description     string   `json:"mechanism_description"`
	DrivingVariable string   `json:"driving_variable,omitempty"`
	ImpactType      string   `json:"impact_type,omitempty"`
	Polarity        string   `json:"polarity,omitempty"`
	Method          string   `json:"method,omitempty"`
	Value           *float64 `json:"value,omitempty"`
	Unit            string   `json:"unit,omitempty"`
	Row             int      `json:"row,omitempty"`
}

// CompanyImpactProfile aggregates one company sheet of the mechanisms workbook.
type CompanyImpactProfile struct {
	CompanyName         string           `json:"company_name"`
	SurveyReference     string           `json:"survey_reference,omitempty"`
	AlternativeScenario string           `json:"alternative_scenario,omitempty"`
	Stakeholders        []string         `json:"stakeholders"`
	Mechanisms          []MechanismEntry `json:"mechanisms"`
	Sheet               string           `json:"sheet,omitempty"`
	Origin              Origin           `json:"origin"`
}

// Synthesized reports whether the profile was created as a fallback.
func (p CompanyImpactProfile) Synthesized() bool {
	return p.Origin == OriginSynthesized
}

// NewSynthesizedProfile returns an empty profile keyed by name.
func NewSynthesizedProfile(name string) CompanyImpactProfile {
	return CompanyImpactProfile{
		CompanyName:  name,
		Stakeholders: []string{},
		Mechanisms:   []MechanismEntry{},
		Origin:       OriginSynthesized,
	}
}

// NewSynthesizedSurvey returns a placeholder survey record keyed by name.
func NewSynthesizedSurvey(name string, now time.Time) SurveyRecord {
	return SurveyRecord{
		Timestamp:               now,
		CompanyName:             name,
		ContactName:             SynthesizedContact,
		GoalTags:                SynthesizedGoals,
		ImplementationNarrative: SynthesizedNarrative,
		Origin:                  OriginSynthesized,
	}
}
