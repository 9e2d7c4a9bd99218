package generate

import (
	"context"

	"github.com/sells-group/impact-report/internal/resilience"
	"github.com/sells-group/impact-report/pkg/openai"
)

// OpenAICompleter adapts an OpenAI-compatible client to Completer.
type OpenAICompleter struct {
	client openai.Client
}

// NewOpenAICompleter creates a Completer backed by client.
func NewOpenAICompleter(client openai.Client) *OpenAICompleter {
	return &OpenAICompleter{client: client}
}

// Complete sends the prompt as a single user message.
func (o *OpenAICompleter) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	temp := req.Temperature
	resp, err := o.client.CreateChat(ctx, openai.ChatRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		System:      systemPrompt,
		Prompt:      req.Prompt,
		Temperature: &temp,
	})
	if err != nil {
		return nil, resilience.Classify(openai.StatusCode(err), err)
	}
	return &Completion{
		Text:         resp.Text,
		Model:        resp.Model,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}
