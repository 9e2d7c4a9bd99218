package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Data      DataConfig      `yaml:"data" mapstructure:"data"`
	Template  TemplateConfig  `yaml:"template" mapstructure:"template"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI    OpenAIConfig    `yaml:"openai" mapstructure:"openai"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Pricing   PricingConfig   `yaml:"pricing" mapstructure:"pricing"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the source workbooks.
type DataConfig struct {
	Dir             string   `yaml:"dir" mapstructure:"dir"`
	SurveyFile      string   `yaml:"survey_file" mapstructure:"survey_file"`
	SurveySheet     string   `yaml:"survey_sheet" mapstructure:"survey_sheet"`
	MechanismsFile  string   `yaml:"mechanisms_file" mapstructure:"mechanisms_file"`
	ExcludedSheets  []string `yaml:"excluded_sheets" mapstructure:"excluded_sheets"`
	CacheTTLMinutes int      `yaml:"cache_ttl_minutes" mapstructure:"cache_ttl_minutes"`
}

// SurveyPath returns the survey workbook path joined onto Dir.
func (d DataConfig) SurveyPath() string {
	return joinData(d.Dir, d.SurveyFile)
}

// MechanismsPath returns the mechanisms workbook path joined onto Dir.
func (d DataConfig) MechanismsPath() string {
	return joinData(d.Dir, d.MechanismsFile)
}

func joinData(dir, file string) string {
	if dir == "" || filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(dir, file)
}

// TemplateConfig locates the insertion rule file.
type TemplateConfig struct {
	RulesPath string `yaml:"rules_path" mapstructure:"rules_path"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// OpenAIConfig holds settings for an OpenAI-compatible endpoint.
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// LLMConfig configures the completion call policy.
type LLMConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"`
	MaxTokens         int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature       float64 `yaml:"temperature" mapstructure:"temperature"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	MaxAttempts       int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs  int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs      int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// Timeout returns the per-attempt timeout.
func (l LLMConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSecs) * time.Second
}

// PricingConfig holds token pricing (USD per 1K tokens). Left at the
// defaults, built-in per-model prices still apply; any other value prices
// every model.
type PricingConfig struct {
	InputPer1K  float64 `yaml:"input_per_1k" mapstructure:"input_per_1k"`
	OutputPer1K float64 `yaml:"output_per_1k" mapstructure:"output_per_1k"`
}

// StoreConfig configures the run ledger backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Provider names.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("IMPACT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.survey_file", "SDG_Questionnaire_Responses.xlsx")
	v.SetDefault("data.survey_sheet", "Form Responses 1")
	v.SetDefault("data.mechanisms_file", "Impact_Mechanisms.xlsx")
	v.SetDefault("data.excluded_sheets", []string{"Template sheet", "extra FBB SME interview"})
	v.SetDefault("data.cache_ttl_minutes", 30)
	v.SetDefault("template.rules_path", "config/insert_rules.yaml")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("openai.model", "gpt-4o")
	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.max_tokens", 4000)
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.timeout_secs", 60)
	v.SetDefault("llm.requests_per_second", 0)
	v.SetDefault("llm.max_attempts", 3)
	v.SetDefault("llm.initial_backoff_ms", 4000)
	v.SetDefault("llm.max_backoff_ms", 10000)
	v.SetDefault("pricing.input_per_1k", 0.003)
	v.SetDefault("pricing.output_per_1k", 0.015)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "impact_runs.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	// Provider SDK conventions.
	if cfg.Anthropic.Key == "" {
		cfg.Anthropic.Key = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.OpenAI.Key == "" {
		cfg.OpenAI.Key = os.Getenv("OPENAI_API_KEY")
	}

	return &cfg, nil
}

// ResolvedProvider returns the completion provider to use. An explicit
// llm.provider wins; otherwise OpenAI is chosen when only its key is set.
func (c *Config) ResolvedProvider() string {
	if c.LLM.Provider != "" {
		return strings.ToLower(c.LLM.Provider)
	}
	if c.OpenAI.Key != "" && c.Anthropic.Key == "" {
		return ProviderOpenAI
	}
	return ProviderAnthropic
}

// Validate checks the fields required by a command mode.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "generate", "batch":
		if c.Data.SurveyFile == "" {
			errs = append(errs, "data.survey_file is required")
		}
		if c.Data.MechanismsFile == "" {
			errs = append(errs, "data.mechanisms_file is required")
		}
		if c.Template.RulesPath == "" {
			errs = append(errs, "template.rules_path is required")
		}
		switch c.ResolvedProvider() {
		case ProviderAnthropic:
			if c.Anthropic.Key == "" {
				errs = append(errs, "anthropic.key is required")
			}
		case ProviderOpenAI:
			if c.OpenAI.Key == "" {
				errs = append(errs, "openai.key is required")
			}
		default:
			errs = append(errs, fmt.Sprintf("llm.provider %q is not supported", c.LLM.Provider))
		}
		if c.LLM.MaxAttempts < 1 {
			errs = append(errs, "llm.max_attempts must be >= 1")
		}
		if c.LLM.TimeoutSecs <= 0 {
			errs = append(errs, "llm.timeout_secs must be > 0")
		}
		if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
			errs = append(errs, "llm.temperature must be between 0 and 2")
		}
		if c.LLM.RequestsPerSecond < 0 {
			errs = append(errs, "llm.requests_per_second must be >= 0")
		}
	case "list":
		if c.Data.SurveyFile == "" && c.Data.MechanismsFile == "" {
			errs = append(errs, "data.survey_file or data.mechanisms_file is required")
		}
	case "runs":
		if c.Store.Driver != "sqlite" {
			errs = append(errs, "store.driver must be sqlite to list runs")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Store.Driver != "sqlite" && c.Store.Driver != "none" {
		errs = append(errs, fmt.Sprintf("store.driver %q is not supported", c.Store.Driver))
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
