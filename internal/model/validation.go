package model

// ValueOccurrence records where a checked value was found.
type ValueOccurrence struct {
	Section string `json:"section"`
	Literal string `json:"literal"`
}

// ConsistencyResult reports cross-section consistency of source values.
type ConsistencyResult struct {
	IsConsistent    bool                         `json:"is_consistent"`
	Inconsistencies []string                     `json:"inconsistencies"`
	CheckedValues   map[string][]ValueOccurrence `json:"checked_values"`
}

// NumericResult reports numbers in the report that match no source value.
type NumericResult struct {
	Warnings []string `json:"warnings"`
}

// TraceabilityResult reports how many source facts are backed by citations.
type TraceabilityResult struct {
	Total            int      `json:"total_values"`
	Traceable        int      `json:"traceable_values"`
	Rate             float64  `json:"traceability_rate"`
	UntraceableItems []string `json:"untraceable_items"`
}

// Hallucination is one flagged sentence.
type Hallucination struct {
	Section  string `json:"section"`
	Sentence string `json:"sentence"`
	Reason   string `json:"reason"`
}

// HallucinationResult reports sentences flagged by the heuristics.
type HallucinationResult struct {
	TotalStatements int             `json:"total_statements"`
	Count           int             `json:"hallucination_count"`
	Rate            float64         `json:"hallucination_rate"`
	Details         []Hallucination `json:"hallucinations"`
}

// ValidationReport bundles the post-run analyses.
type ValidationReport struct {
	Consistency   ConsistencyResult   `json:"consistency"`
	Numeric       NumericResult       `json:"numerical_accuracy"`
	Traceability  TraceabilityResult  `json:"traceability"`
	Hallucination HallucinationResult `json:"hallucination"`
	Warnings      []string            `json:"warnings"`
}

// TraceabilityPassRate is the rate at or above which traceability passes.
const TraceabilityPassRate = 0.8

// Passed reports whether every analysis passed.
func (r *ValidationReport) Passed() bool {
	return r.Consistency.IsConsistent &&
		r.Traceability.Rate >= TraceabilityPassRate &&
		r.Hallucination.Count == 0
}
