package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"CaptureRouter/internal/config"
	"CaptureRouter/internal/ports"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiClient implements ports.Generative on the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

var _ ports.Generative = (*GeminiClient)(nil)

// NewGeminiClient creates the underlying genai client. GeminiEndpoint in the
// config overrides the API base URL.
func NewGeminiClient(ctx context.Context, cfg config.LLMConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	model := cfg.Model
	if model == "" || strings.HasPrefix(model, "gpt-") {
		model = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, geminiClientConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

func geminiClientConfig(cfg config.LLMConfig) *genai.ClientConfig {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.GeminiEndpoint != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.GeminiEndpoint}
	}
	return clientCfg
}

// Complete runs a single-turn generation.
func (g *GeminiClient) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	var temperature float32
	genCfg := &genai.GenerateContentConfig{Temperature: &temperature}
	if maxTokens > 0 {
		genCfg.MaxOutputTokens = int32(maxTokens)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		genCfg,
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
