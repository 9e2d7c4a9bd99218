package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenUsageAdd(t *testing.T) {
	t.Parallel()

	t.Run("adds all fields", func(t *testing.T) {
		t.Parallel()
		a := TokenUsage{InputTokens: 100, OutputTokens: 50, TotalTokens: 150, Cost: 0.01}
		b := TokenUsage{InputTokens: 200, OutputTokens: 100, TotalTokens: 300, Cost: 0.02}
		a.Add(b)
		assert.Equal(t, int64(300), a.InputTokens)
		assert.Equal(t, int64(150), a.OutputTokens)
		assert.Equal(t, int64(450), a.TotalTokens)
		assert.InDelta(t, 0.03, a.Cost, 0.0001)
	})

	t.Run("add zero is no-op", func(t *testing.T) {
		t.Parallel()
		a := TokenUsage{InputTokens: 100, Cost: 0.01}
		a.Add(TokenUsage{})
		assert.Equal(t, int64(100), a.InputTokens)
		assert.InDelta(t, 0.01, a.Cost, 0.0001)
	})
}
