// Package generate wraps text completion with bounded retry, token
// accounting and a numeric grounding check.
package generate

import (
	"context"

	"github.com/sells-group/impact-report/internal/resilience"
)

// Retryable completion failures. Any other error from a Completer is fatal.
var (
	ErrRateLimited = resilience.ErrRateLimited
	ErrTimeout     = resilience.ErrTimeout
)

// CompletionRequest is one provider call.
type CompletionRequest struct {
	Model       string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Completion is a provider's answer to one call.
type Completion struct {
	Text         string
	Model        string
	InputTokens  int64
	OutputTokens int64
}

// Completer performs a single completion call. Implementations report
// throttling as ErrRateLimited and deadline or gateway timeouts as
// ErrTimeout.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}
