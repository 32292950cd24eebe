package llm

import (
	"context"
	"fmt"
	"log/slog"

	"CaptureRouter/internal/config"
	"CaptureRouter/internal/ports"
)

// New selects the backend named in the config. It returns a nil backend
// when generation is disabled; callers then use their keyword fallbacks.
func New(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (ports.Generative, error) {
	if !cfg.Enabled() {
		logger.Info("llm backend disabled, keyword fallbacks only", "provider", cfg.Provider)
		return nil, nil
	}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		logger.Info("llm backend ready", "provider", cfg.Provider, "model", cfg.Model)
		return NewOpenAIClient(cfg), nil
	case config.ProviderGemini:
		client, err := NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("llm backend ready", "provider", cfg.Provider, "model", client.model)
		return client, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
