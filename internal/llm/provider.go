package llm

import (
	"context"
	"time"

	"github.com/ppiankov/mrsclass/internal/model"
)

// Provider is an external span selector backend
type Provider interface {
	// Name returns the provider name
	Name() string

	// Select asks the backend to adjudicate candidate spans. Implementations
	// return ErrMalformedSelection (wrapped) when the reply cannot be parsed.
	Select(ctx context.Context, req SelectRequest) (*SelectResponse, error)

	// IsAvailable checks if the provider is properly configured and reachable
	IsAvailable(ctx context.Context) bool
}

// SelectRequest carries one requirement's text and its candidates per slot.
// Only slots that have candidates are included.
type SelectRequest struct {
	RawText    string                      `json:"raw_text"`
	Candidates map[model.SlotName][]string `json:"candidates_by_slot"`

	// Model overrides the configured model when set
	Model string `json:"-"`

	// MaxTokens limits the response length
	MaxTokens int `json:"-"`
}

// SelectResponse is a parsed selector reply
type SelectResponse struct {
	Selection  Selection
	Model      string
	TokensUsed int
}

// Config holds provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, OpenAI-compatible gateways)
	BaseURL string

	// Timeout bounds a single HTTP exchange
	Timeout time.Duration

	// MaxTokens for response generation
	MaxTokens int

	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults. The selector is disabled unless a
// provider is named.
func DefaultConfig() Config {
	return Config{
		Timeout:   20 * time.Second,
		MaxTokens: 800,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(c model.LLMConfig) Config {
	cfg := DefaultConfig()
	cfg.Provider = c.Provider
	cfg.Model = c.Model
	cfg.APIKey = c.APIKey
	cfg.BaseURL = c.BaseURL
	cfg.HTTPProxy = c.HTTPProxy
	cfg.HTTPSProxy = c.HTTPSProxy
	cfg.NoProxy = c.NoProxy
	if c.Timeout > 0 {
		cfg.Timeout = c.Timeout
	}
	if c.MaxTokens > 0 {
		cfg.MaxTokens = c.MaxTokens
	}
	return cfg
}

func (c Config) timeoutOr(fallback time.Duration) time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return fallback
}

func (c Config) maxTokensFor(req SelectRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 800
}

func (c Config) modelFor(req SelectRequest, fallback string) string {
	if req.Model != "" {
		return req.Model
	}
	if c.Model != "" {
		return c.Model
	}
	return fallback
}
