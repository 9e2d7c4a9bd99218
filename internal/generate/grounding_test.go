package generate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt("{company} serves {stakeholders} in {region}", map[string]any{
		"company":      "Acme",
		"stakeholders": []string{"Staff", "Community"},
	})
	assert.Equal(t, "Acme serves Staff, Community in {region}", got)
}

func TestBuildPrompt_NilRendersEmpty(t *testing.T) {
	assert.Equal(t, "value: ", BuildPrompt("value: {v}", map[string]any{"v": nil}))
}

func TestFlattenFacts_Deterministic(t *testing.T) {
	facts := map[string]any{
		"b":      2.0,
		"a":      "x",
		"nested": map[string]any{"z": 1.5, "y": "w"},
		"list":   []any{"p", 3.0},
	}
	want := "a: x\nb: 2.0\nlist: p, 3.0\nnested: {y: w; z: 1.5}\n"
	assert.Equal(t, want, FlattenFacts(facts))
	assert.Equal(t, FlattenFacts(facts), FlattenFacts(facts))
}

func TestCheckGrounding(t *testing.T) {
	facts := map[string]any{"people": 100.0, "rate": 12.5}

	tests := []struct {
		name       string
		text       string
		grounded   bool
		flags      int
		confidence float64
	}{
		{"no numbers", "Acme helps people.", true, 0, 1.0},
		{"grounded", "Acme trained 100 staff and cut waste 12.5 percent.", true, 0, 1.0},
		{"one flag", "Acme trained 250 staff.", false, 1, 0.8},
		{"floor at zero", "7 8 9 44 66 77", false, 6, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckGrounding(tt.text, facts)
			assert.Equal(t, tt.grounded, got.IsGrounded)
			assert.Len(t, got.Hallucinations, tt.flags)
			assert.InDelta(t, tt.confidence, got.Confidence, 1e-9)
		})
	}
}

func TestCheckGrounding_Idempotent(t *testing.T) {
	facts := map[string]any{"a": 1.0, "b": "x"}
	text := "Numbers 1 and 99."
	assert.Equal(t, CheckGrounding(text, facts), CheckGrounding(text, facts))
}
