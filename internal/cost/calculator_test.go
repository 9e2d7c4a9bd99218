package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompletion(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(DefaultRates())

	tests := []struct {
		name   string
		model  string
		input  int64
		output int64
		want   float64
	}{
		{"flat rate", "claude-sonnet-4-5-20250929", 1000, 1000, 0.003 + 0.015},
		{"unknown model uses flat rate", "gpt-4o", 2000, 500, 0.006 + 0.0075},
		{"model override", "claude-haiku-4-5-20251001", 1000, 1000, 0.0008 + 0.004},
		{"zero tokens", "any", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, calc.Completion(tt.model, tt.input, tt.output), 1e-9)
		})
	}
}

func TestUsage(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(Rates{InputPer1K: 0.003, OutputPer1K: 0.015})

	u := calc.Usage("m", 1500, 500)
	assert.Equal(t, int64(1500), u.InputTokens)
	assert.Equal(t, int64(500), u.OutputTokens)
	assert.Equal(t, int64(2000), u.TotalTokens)
	assert.InDelta(t, 0.0045+0.0075, u.Cost, 1e-9)
}

func TestWithFlat(t *testing.T) {
	t.Parallel()
	const haiku = "claude-haiku-4-5-20251001"

	t.Run("default price keeps model entries", func(t *testing.T) {
		calc := NewCalculator(DefaultRates().WithFlat(0.003, 0.015))
		assert.InDelta(t, 0.0008+0.004, calc.Completion(haiku, 1000, 1000), 1e-9)
	})

	t.Run("custom price applies to every model", func(t *testing.T) {
		rates := DefaultRates().WithFlat(0.001, 0.002)
		assert.Empty(t, rates.Models)

		calc := NewCalculator(rates)
		assert.InDelta(t, 0.001+0.002, calc.Completion(haiku, 1000, 1000), 1e-9)
		assert.InDelta(t, 0.001+0.002, calc.Completion("gpt-4o", 1000, 1000), 1e-9)
	})
}
