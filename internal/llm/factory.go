package llm

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultHTTPTimeout = 30 * time.Second

// NewProvider creates a provider from configuration. An empty provider name
// returns (nil, nil): the selector is disabled.
func NewProvider(config Config, logger *zap.Logger) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(config.Provider)) {
	case "openai":
		p, err := NewOpenAIProvider(config, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "anthropic", "claude":
		p, err := NewAnthropicProvider(config, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "ollama":
		p, err := NewOllamaProvider(config, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}
