// Package cost prices completion token usage.
package cost

import "github.com/sells-group/impact-report/internal/model"

// Rates holds token pricing in USD per 1K tokens. Models overrides the flat
// rate for specific model names.
type Rates struct {
	InputPer1K  float64              `yaml:"input_per_1k" mapstructure:"input_per_1k"`
	OutputPer1K float64              `yaml:"output_per_1k" mapstructure:"output_per_1k"`
	Models      map[string]ModelRate `yaml:"models" mapstructure:"models"`
}

// ModelRate holds per-model token pricing (per 1K tokens).
type ModelRate struct {
	InputPer1K  float64 `yaml:"input_per_1k" mapstructure:"input_per_1k"`
	OutputPer1K float64 `yaml:"output_per_1k" mapstructure:"output_per_1k"`
}

// Calculator computes costs for completion usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Completion computes the cost of one completion call.
func (c *Calculator) Completion(modelName string, input, output int64) float64 {
	in, out := c.rates.InputPer1K, c.rates.OutputPer1K
	if rate, ok := c.rates.Models[modelName]; ok {
		in, out = rate.InputPer1K, rate.OutputPer1K
	}
	return (float64(input)/1000)*in + (float64(output)/1000)*out
}

// Usage builds a priced TokenUsage for one completion call.
func (c *Calculator) Usage(modelName string, input, output int64) model.TokenUsage {
	return model.TokenUsage{
		InputTokens:  input,
		OutputTokens: output,
		TotalTokens:  input + output,
		Cost:         c.Completion(modelName, input, output),
	}
}

// WithFlat returns r with the flat rate set to in/out. When that differs
// from r's flat rate the per-model entries are dropped, so an explicitly
// configured price applies to every model.
func (r Rates) WithFlat(in, out float64) Rates {
	if in == r.InputPer1K && out == r.OutputPer1K {
		return r
	}
	return Rates{InputPer1K: in, OutputPer1K: out}
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		InputPer1K:  0.003,
		OutputPer1K: 0.015,
		Models: map[string]ModelRate{
			"claude-haiku-4-5-20251001": {InputPer1K: 0.0008, OutputPer1K: 0.004},
			"claude-opus-4-6":           {InputPer1K: 0.015, OutputPer1K: 0.075},
		},
	}
}
