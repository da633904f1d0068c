package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/mrsclass/internal/cache"
	"github.com/ppiankov/mrsclass/internal/llm"
	"github.com/ppiankov/mrsclass/internal/logging"
	"github.com/ppiankov/mrsclass/internal/model"
	"github.com/ppiankov/mrsclass/internal/pipeline"
	"github.com/ppiankov/mrsclass/internal/ruleset"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// loadConfig layers defaults, the config file and MRS_* environment
// variables. Command flags are applied on top by the caller.
func loadConfig() (*model.Config, error) {
	v := viper.GetViper()
	if err := registerDefaults(v, model.DefaultConfig()); err != nil {
		return nil, err
	}

	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// Global flags win over everything else
	if rulesPath != "" {
		cfg.Rules.Path = rulesPath
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	if verbose {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
	}

	resolveAPIKey(&cfg.LLM)
	return cfg, nil
}

// registerDefaults makes every config key known to viper so MRS_* variables
// resolve even when no config file sets them
func registerDefaults(v *viper.Viper, defaults *model.Config) error {
	data, err := yaml.Marshal(defaults)
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("unmarshal defaults: %w", err)
	}
	setDefaults(v, "", tree)

	// Not serialised, but still settable from the environment
	v.SetDefault("llm.api_key", "")
	return nil
}

func setDefaults(v *viper.Viper, prefix string, tree map[string]any) {
	for key, value := range tree {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			setDefaults(v, full, nested)
			continue
		}
		v.SetDefault(full, value)
	}
}

// resolveAPIKey falls back to the providers' conventional variables
func resolveAPIKey(c *model.LLMConfig) {
	switch strings.ToLower(c.Provider) {
	case "openai":
		if c.APIKey == "" {
			c.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	case "anthropic", "claude":
		if c.APIKey == "" {
			c.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	case "ollama":
		if c.BaseURL == "" {
			c.BaseURL = os.Getenv("OLLAMA_BASE_URL")
		}
	}
}

// llmFlags are shared by classify and batch
type llmFlags struct {
	provider string
	model    string
	noCache  bool
}

func (f *llmFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.provider, "llm-provider", "", "span selector provider (openai, anthropic, ollama); empty disables it")
	cmd.Flags().StringVar(&f.model, "llm-model", "", "span selector model name")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the selector response cache")
}

func (f *llmFlags) apply(cmd *cobra.Command, cfg *model.Config) {
	if cmd.Flags().Changed("llm-provider") {
		cfg.LLM.Provider = f.provider
		cfg.LLM.APIKey = ""
		resolveAPIKey(&cfg.LLM)
	}
	if cmd.Flags().Changed("llm-model") {
		cfg.LLM.Model = f.model
	}
	if f.noCache {
		cfg.Cache.Enabled = false
	}
}

// environment is everything a command needs to classify
type environment struct {
	cfg      *model.Config
	logger   *zap.Logger
	pipeline *pipeline.Pipeline
}

func newEnvironment(cfg *model.Config) (*environment, error) {
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	rules, err := ruleset.Load(cfg.Rules.Path)
	if err != nil {
		return nil, fmt.Errorf("load ruleset: %w", err)
	}
	logger.Debug("ruleset loaded", zap.String("version", rules.Version), zap.Int("types", len(rules.Types)))

	opts := pipeline.Options{Logger: logger}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM), logger)
	if err != nil {
		return nil, fmt.Errorf("span selector: %w", err)
	}
	if provider != nil {
		opts.Selector = llm.NewSelector(
			provider,
			llm.SelectorOptionsFromModel(cfg.LLM, cfg.Cache.DiskTTL),
			cache.New(cfg.Cache),
			logger,
		)
		opts.SelectorModel = cfg.LLM.Model
		logger.Info("span selector enabled", zap.String("provider", provider.Name()), zap.String("model", cfg.LLM.Model))
	}

	return &environment{
		cfg:      cfg,
		logger:   logger,
		pipeline: pipeline.New(rules, opts),
	}, nil
}

func (e *environment) close() {
	_ = e.logger.Sync()
}
