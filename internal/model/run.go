package model

import "time"

// RunStatus represents the current state of a report run.
type RunStatus string

const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusResolving  RunStatus = "resolving"
	RunStatusInserting  RunStatus = "inserting"
	RunStatusValidating RunStatus = "validating"
	RunStatusComplete   RunStatus = "complete"
	RunStatusFailed     RunStatus = "failed"
)

// Run is one ledger entry for a report run.
type Run struct {
	ID         string     `json:"id"`
	Company    string     `json:"company"`
	Status     RunStatus  `json:"status"`
	OutputPath string     `json:"output_path,omitempty"`
	Tokens     int64      `json:"total_tokens"`
	CostUSD    float64    `json:"cost_usd"`
	Error      string     `json:"error,omitempty"`
	Result     *RunResult `json:"result,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// RunResult holds the final outcome of a run.
type RunResult struct {
	RunID            string            `json:"run_id,omitempty"`
	Success          bool              `json:"success"`
	CompanyName      string            `json:"company_name"`
	OutputPath       string            `json:"output_path,omitempty"`
	TraceabilityPath string            `json:"traceability_path,omitempty"`
	ValidationPath   string            `json:"validation_path,omitempty"`
	Errors           []string          `json:"validation_errors,omitempty"`
	Warnings         []string          `json:"warnings,omitempty"`
	Citations        []Citation        `json:"traceability_map"`
	Validation       *ValidationReport `json:"validation,omitempty"`
	Metrics          RunMetrics        `json:"metrics"`
	Phases           []PhaseResult     `json:"phases,omitempty"`
}

// RunMetrics carries timing and cost figures for a run.
type RunMetrics struct {
	TotalMs             int64      `json:"total_time_ms"`
	ExtractionMs        int64      `json:"data_extraction_time_ms"`
	RulesProcessed      int        `json:"rules_processed"`
	RulesSkipped        int        `json:"rules_skipped"`
	TokenUsage          TokenUsage `json:"ai_token_usage"`
	TraceabilityEntries int        `json:"traceability_entries"`
	SurveyFallback      bool       `json:"survey_fallback"`
	ProfileFallback     bool       `json:"profile_fallback"`
}

// RunPhase represents a phase within a run.
type RunPhase struct {
	ID        string       `json:"id"`
	RunID     string       `json:"run_id"`
	Name      string       `json:"name"`
	Status    PhaseStatus  `json:"status"`
	Result    *PhaseResult `json:"result,omitempty"`
	StartedAt time.Time    `json:"started_at"`
}

// PhaseStatus represents the current state of a pipeline phase.
type PhaseStatus string

const (
	PhaseStatusRunning  PhaseStatus = "running"
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
)

// PhaseResult holds the outcome of a pipeline phase.
type PhaseResult struct {
	Name       string         `json:"name"`
	Status     PhaseStatus    `json:"status"`
	Duration   int64          `json:"duration_ms"`
	TokenUsage TokenUsage     `json:"token_usage"`
	Error      string         `json:"error,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}
