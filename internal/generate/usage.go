package generate

import (
	"sync"

	"github.com/sells-group/impact-report/internal/model"
)

// Accumulator totals token usage across calls. Totals only grow until
// Reset is called.
type Accumulator struct {
	mu    sync.Mutex
	total model.TokenUsage
}

// Add records one call's usage.
func (a *Accumulator) Add(u model.TokenUsage) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.total.Add(u)
}

// Total returns the usage recorded since the last Reset.
func (a *Accumulator) Total() model.TokenUsage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.total
}

// Reset zeroes the totals.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.total = model.TokenUsage{}
}
