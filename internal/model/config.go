package model

import "time"

// Config is the full runtime configuration. It is loaded once at process
// start and passed explicitly into every component.
type Config struct {
	Rules       RulesConfig       `yaml:"rules" mapstructure:"rules"`
	Vocabulary  VocabularyConfig  `yaml:"vocabulary" mapstructure:"vocabulary"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Fetch       FetchConfig       `yaml:"fetch" mapstructure:"fetch"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Logging     LoggingConfig     `yaml:"logging" mapstructure:"logging"`
}

// RulesConfig points at the pattern/decision tables
type RulesConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // Empty means the embedded default ruleset
}

// VocabularyConfig controls the corpus-wide domain vocabulary
type VocabularyConfig struct {
	Enabled  bool     `yaml:"enabled" mapstructure:"enabled"`
	MinCount int      `yaml:"min_count" mapstructure:"min_count"`
	Terms    []string `yaml:"terms" mapstructure:"terms"` // Always-on base terms
}

// LLMConfig configures the optional span selector
type LLMConfig struct {
	Provider    string        `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, "" (disabled)
	Model       string        `yaml:"model" mapstructure:"model"`
	APIKey      string        `yaml:"-" mapstructure:"api_key"`
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Retries     int           `yaml:"retries" mapstructure:"retries"` // Capped at 1
	Concurrency int           `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimit   float64       `yaml:"rate_limit" mapstructure:"rate_limit"` // Requests per second, 0 = unlimited
	HTTPProxy   string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy  string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy     string        `yaml:"no_proxy" mapstructure:"no_proxy"` // Comma-separated hosts that bypass the proxy
}

// FetchConfig controls reading requirement exports over HTTP
type FetchConfig struct {
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent  string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBytes   int64         `yaml:"max_bytes" mapstructure:"max_bytes"`
	HTTPProxy  string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy    string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// ConcurrencyConfig bounds corpus-level parallelism
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// CacheConfig controls caching of selector responses
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	ShowWeak      bool `yaml:"show_weak" mapstructure:"show_weak"`
	IncludeIssues bool `yaml:"include_issues" mapstructure:"include_issues"`
}

// LoggingConfig controls the zap logger
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // console or json
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Vocabulary: VocabularyConfig{
			Enabled:  true,
			MinCount: 2,
		},
		LLM: LLMConfig{
			Timeout:     20 * time.Second,
			MaxTokens:   800,
			Retries:     1,
			Concurrency: 4,
			RateLimit:   2,
		},
		Fetch: FetchConfig{
			Timeout:   30 * time.Second,
			UserAgent: "mrsclass/0.1 (+https://github.com/ppiankov/mrsclass)",
			MaxBytes:  20 << 20,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 8,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".mrsclass-cache",
			MemoryTTL: time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Output: OutputConfig{
			IncludeIssues: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
