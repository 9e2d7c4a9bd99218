package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/impact-report/internal/config"
	"github.com/sells-group/impact-report/internal/cost"
	"github.com/sells-group/impact-report/internal/document"
	"github.com/sells-group/impact-report/internal/extract"
	"github.com/sells-group/impact-report/internal/generate"
	"github.com/sells-group/impact-report/internal/pipeline"
	"github.com/sells-group/impact-report/internal/resilience"
	"github.com/sells-group/impact-report/internal/rules"
	"github.com/sells-group/impact-report/internal/store"
	anthropicpkg "github.com/sells-group/impact-report/pkg/anthropic"
	openaipkg "github.com/sells-group/impact-report/pkg/openai"
)

// reportEnv holds everything the generate and batch commands share.
type reportEnv struct {
	Store     store.Store
	Extractor *extract.Extractor
	Rules     *rules.Config
	Generator *generate.Client
	Pipeline  *pipeline.Pipeline
}

// Close releases resources held by the environment.
func (e *reportEnv) Close() {
	if e.Extractor != nil {
		cache := e.Extractor.Cache()
		zap.L().Debug("releasing workbook cache", zap.Int("workbooks", cache.Len()))
		cache.Flush()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initReportEnv validates config for mode, loads the rule file and wires
// the extractor, completion client, run store and pipeline. Callers should
// defer env.Close().
func initReportEnv(ctx context.Context, mode string) (*reportEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	rc, err := rules.Load(cfg.Template.RulesPath)
	if err != nil {
		return nil, eris.Wrap(err, "load insert rules")
	}
	zap.L().Info("loaded insert rules", zap.Stringer("rules", rc))

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	gen, err := newGenerator(cfg)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	ex := newExtractor(cfg)
	return &reportEnv{
		Store:     st,
		Extractor: ex,
		Rules:     rc,
		Generator: gen,
		Pipeline:  pipeline.New(rc, ex, document.DocxLoader{}, gen, st),
	}, nil
}

// initStore opens the run ledger configured under store.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "open run store")
	}
	return st, nil
}

func newExtractor(c *config.Config) *extract.Extractor {
	var cache *extract.WorkbookCache
	if c.Data.CacheTTLMinutes > 0 {
		cache = extract.NewWorkbookCache(time.Duration(c.Data.CacheTTLMinutes) * time.Minute)
	}
	return extract.New(extract.Options{
		SurveyPath:     c.Data.SurveyPath(),
		SurveySheet:    c.Data.SurveySheet,
		MechanismsPath: c.Data.MechanismsPath(),
		ExcludedSheets: c.Data.ExcludedSheets,
		Cache:          cache,
	})
}

// newCompleter selects the completion provider and its default model.
func newCompleter(c *config.Config) (generate.Completer, string, error) {
	switch c.ResolvedProvider() {
	case config.ProviderAnthropic:
		client := anthropicpkg.NewClient(anthropicpkg.Config{
			APIKey:  c.Anthropic.Key,
			BaseURL: c.Anthropic.BaseURL,
		})
		return generate.NewAnthropicCompleter(client), c.Anthropic.Model, nil
	case config.ProviderOpenAI:
		client := openaipkg.NewClient(openaipkg.Config{
			APIKey:  c.OpenAI.Key,
			BaseURL: c.OpenAI.BaseURL,
		})
		return generate.NewOpenAICompleter(client), c.OpenAI.Model, nil
	}
	return nil, "", eris.Errorf("llm provider %q is not supported", c.LLM.Provider)
}

func newGenerator(c *config.Config) (*generate.Client, error) {
	completer, modelName, err := newCompleter(c)
	if err != nil {
		return nil, err
	}

	var limiter *rate.Limiter
	if c.LLM.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(c.LLM.RequestsPerSecond), 1)
	}

	rates := cost.DefaultRates().WithFlat(c.Pricing.InputPer1K, c.Pricing.OutputPer1K)

	provider := c.ResolvedProvider()
	zap.L().Info("completion provider configured",
		zap.String("provider", provider),
		zap.String("model", modelName),
	)
	return generate.NewClient(completer, generate.Options{
		Provider:    provider,
		Model:       modelName,
		MaxTokens:   c.LLM.MaxTokens,
		Temperature: c.LLM.Temperature,
		Timeout:     c.LLM.Timeout(),
		Retry:       resilience.FromRetryConfig(c.LLM.MaxAttempts, c.LLM.InitialBackoffMs, c.LLM.MaxBackoffMs),
		Limiter:     limiter,
		Rates:       rates,
	}), nil
}
