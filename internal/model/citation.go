package model

// Citation links a statement in the report back to a source cell.
type Citation struct {
	Statement  string `json:"statement"`
	SourceFile string `json:"source_file"`
	Sheet      string `json:"source_sheet,omitempty"`
	Row        int    `json:"source_row,omitempty"`
	Column     string `json:"source_column,omitempty"`
}

// GroundingResult is the outcome of checking generated text against facts.
type GroundingResult struct {
	IsGrounded     bool     `json:"is_grounded"`
	Hallucinations []string `json:"hallucinations"`
	Confidence     float64  `json:"confidence_score"`
	Details        string   `json:"details,omitempty"`
}

// GenerationOutcome is the result of one generation request.
// Text is set iff Success.
type GenerationOutcome struct {
	Success   bool             `json:"success"`
	Text      string           `json:"text,omitempty"`
	Usage     TokenUsage       `json:"token_usage"`
	Grounding *GroundingResult `json:"grounding,omitempty"`
	Citations []Citation       `json:"citations"`
	Errors    []string         `json:"validation_errors,omitempty"`
}
