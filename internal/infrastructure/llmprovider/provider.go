package llmprovider

import (
	"context"
	"fmt"

	"github.com/janhq/deck-server/internal/config"
	"github.com/janhq/deck-server/internal/domain/llm"
)

// New returns the provider selected by cfg.LLMProvider, or nil for "none".
func New(ctx context.Context, cfg *config.Config) (llm.Provider, error) {
	switch cfg.LLMProvider {
	case config.ProviderNone:
		return nil, nil
	case config.ProviderJan:
		return NewClient(cfg.LLMAPIURL, cfg.LLMAPIKey), nil
	case config.ProviderOpenAI:
		baseURL := ""
		if cfg.LLMAPIURL != "" && cfg.LLMAPIURL != "http://localhost:8080" {
			baseURL = cfg.LLMAPIURL
		}
		return NewOpenAIProvider(cfg.LLMAPIKey, baseURL), nil
	case config.ProviderGemini:
		p, err := NewGeminiProvider(ctx, cfg.LLMAPIKey)
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.LLMProvider)
	}
}
