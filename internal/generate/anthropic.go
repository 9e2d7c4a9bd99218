package generate

import (
	"context"

	"github.com/sells-group/impact-report/internal/resilience"
	"github.com/sells-group/impact-report/pkg/anthropic"
)

const systemPrompt = "You write company impact-assessment reports. Use only the facts supplied in the prompt and never invent figures."

// AnthropicCompleter adapts an Anthropic client to Completer.
type AnthropicCompleter struct {
	client anthropic.Client
}

// NewAnthropicCompleter creates a Completer backed by client.
func NewAnthropicCompleter(client anthropic.Client) *AnthropicCompleter {
	return &AnthropicCompleter{client: client}
}

// Complete sends the prompt as a single user message.
func (a *AnthropicCompleter) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	temp := req.Temperature
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       req.Model,
		MaxTokens:   int64(req.MaxTokens),
		System:      systemPrompt,
		Messages:    []anthropic.Message{{Role: "user", Content: req.Prompt}},
		Temperature: &temp,
	})
	if err != nil {
		return nil, resilience.Classify(anthropic.StatusCode(err), err)
	}
	resp.Usage.LogUsage(req.Model, "complete")
	return &Completion{
		Text:         resp.Text(),
		Model:        resp.Model,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}
