package generate

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/impact-report/internal/cost"
	"github.com/sells-group/impact-report/internal/model"
	"github.com/sells-group/impact-report/internal/resilience"
)

// Options configures a Client.
type Options struct {
	Provider    string
	Model       string
	MaxTokens   int
	Temperature float64
	// Timeout bounds each attempt. Zero means no per-attempt bound.
	Timeout time.Duration
	Retry   resilience.RetryConfig
	// Limiter paces requests when set.
	Limiter *rate.Limiter
	Rates   cost.Rates
}

// Request is one generation request.
type Request struct {
	PromptTemplate string
	Variables      map[string]any
	GroundingFacts map[string]any
	SkipGrounding  bool

	// Per-request overrides; zero values use the client defaults.
	Model       string
	MaxTokens   int
	Temperature *float64
}

// Client generates text through a Completer.
type Client struct {
	completer Completer
	opts      Options
	calc      *cost.Calculator
	usage     Accumulator
	log       *zap.Logger
}

// NewClient creates a Client.
func NewClient(c Completer, opts Options) *Client {
	if opts.Provider == "" {
		opts.Provider = "llm"
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4000
	}
	return &Client{
		completer: c,
		opts:      opts,
		calc:      cost.NewCalculator(opts.Rates),
		log:       zap.L().With(zap.String("component", "generate"), zap.String("provider", opts.Provider)),
	}
}

// Usage returns the client's token accumulator.
func (c *Client) Usage() *Accumulator {
	return &c.usage
}

// Generate builds the prompt, calls the provider under the retry policy and
// checks the result against the grounding facts. Provider failure yields an
// unsuccessful outcome with exactly one error; grounding problems never fail
// the call.
func (c *Client) Generate(ctx context.Context, req Request) *model.GenerationOutcome {
	creq := CompletionRequest{
		Model:       c.opts.Model,
		Prompt:      BuildPrompt(req.PromptTemplate, req.Variables),
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
	}
	if req.Model != "" {
		creq.Model = req.Model
	}
	if req.MaxTokens > 0 {
		creq.MaxTokens = req.MaxTokens
	}
	if req.Temperature != nil {
		creq.Temperature = *req.Temperature
	}

	retry := c.opts.Retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger(c.opts.Provider, "complete")
	}

	comp, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (*Completion, error) {
		return c.attempt(ctx, creq)
	})
	if err != nil {
		c.log.Error("generate: completion failed", zap.Error(err))
		return &model.GenerationOutcome{
			Success:   false,
			Citations: []model.Citation{},
			Errors:    []string{err.Error()},
		}
	}

	usage := c.calc.Usage(creq.Model, comp.InputTokens, comp.OutputTokens)
	c.usage.Add(usage)
	c.log.Info("cost attribution",
		zap.String("model", creq.Model),
		zap.Int64("input_tokens", usage.InputTokens),
		zap.Int64("output_tokens", usage.OutputTokens),
		zap.Float64("estimated_cost_usd", usage.Cost),
	)

	out := &model.GenerationOutcome{
		Success:   true,
		Text:      comp.Text,
		Usage:     usage,
		Citations: []model.Citation{},
	}

	if !req.SkipGrounding && len(req.GroundingFacts) > 0 {
		g := CheckGrounding(comp.Text, req.GroundingFacts)
		out.Grounding = &g
		if !g.IsGrounded {
			c.log.Warn("generate: grounding check failed",
				zap.Strings("hallucinations", g.Hallucinations),
				zap.Float64("confidence", g.Confidence),
			)
			out.Errors = append(out.Errors, "grounding check failed: "+strings.Join(g.Hallucinations, "; "))
		}
	}

	if cit, ok := companyCitation(comp.Text, req.GroundingFacts); ok {
		out.Citations = append(out.Citations, cit)
	}
	return out
}

func (c *Client) attempt(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if c.opts.Limiter != nil {
		if err := c.opts.Limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "generate: rate limiter")
		}
	}

	actx := ctx
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	comp, err := c.completer.Complete(actx, req)
	if err != nil {
		if ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded) && !resilience.IsRetryable(err) {
			return nil, eris.Wrap(ErrTimeout, err.Error())
		}
		return nil, err
	}
	return comp, nil
}

// companyCitation cites the company name when the generated text mentions
// it. The name and source file come from the grounding facts.
func companyCitation(text string, facts map[string]any) (model.Citation, bool) {
	name, _ := facts["company_name"].(string)
	if name == "" || !strings.Contains(model.Fold(text), model.Fold(name)) {
		return model.Citation{}, false
	}
	source, _ := facts["source_file"].(string)
	return model.Citation{
		Statement:  "Company name: " + name,
		SourceFile: source,
		Column:     "company_name",
	}, true
}
