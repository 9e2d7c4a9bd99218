package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/rotisserie/eris"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limited", ErrRateLimited, true},
		{"timeout", ErrTimeout, true},
		{"eris wrapped", eris.Wrap(ErrRateLimited, "anthropic: complete"), true},
		{"fmt wrapped", fmt.Errorf("call: %w", ErrTimeout), true},
		{"generic", errors.New("bad request"), false},
	}
	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestClassify(t *testing.T) {
	base := errors.New("boom")

	if err := Classify(429, base); !IsRetryable(err) || !eris.Is(err, ErrRateLimited) {
		t.Errorf("429 should classify as rate limited, got %v", err)
	}
	if err := Classify(504, base); !eris.Is(err, ErrTimeout) {
		t.Errorf("504 should classify as timeout, got %v", err)
	}
	if err := Classify(408, base); !eris.Is(err, ErrTimeout) {
		t.Errorf("408 should classify as timeout, got %v", err)
	}
	if err := Classify(500, base); err != base {
		t.Errorf("500 should pass through unchanged, got %v", err)
	}
	if err := Classify(0, fmt.Errorf("post: %w", context.DeadlineExceeded)); !eris.Is(err, ErrTimeout) {
		t.Errorf("deadline exceeded should classify as timeout, got %v", err)
	}
	if err := Classify(0, &net.DNSError{IsTimeout: true, Err: "timeout"}); !eris.Is(err, ErrTimeout) {
		t.Errorf("net timeout should classify as timeout, got %v", err)
	}
	if err := Classify(200, nil); err != nil {
		t.Errorf("nil error should stay nil, got %v", err)
	}
}
