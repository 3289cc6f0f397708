package perception

import (
	"context"
	"fmt"
	"strings"

	"beeno/internal/config"
	"beeno/internal/logging"
)

// ClientConfigFromLLM resolves endpoint and API key from the environment
// names carried by the LLM config.
func ClientConfigFromLLM(cfg *config.Config) ClientConfig {
	return ClientConfig{
		APIKey:      cfg.LLM.ResolveAPIKey(),
		BaseURL:     cfg.LLM.ResolveEndpoint(),
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.GetTranslateTimeout(),
	}
}

// NewTranslator creates a traced translator for the configured provider.
// Unknown provider names fall back to the generic HTTP contract.
func NewTranslator(ctx context.Context, cfg *config.Config) (*TracingTranslator, error) {
	cc := ClientConfigFromLLM(cfg)
	provider := Provider(strings.ToLower(strings.TrimSpace(cfg.LLM.Provider)))
	backend, err := NewTranslatorFromConfig(ctx, provider, cc)
	if err != nil {
		return nil, err
	}
	return NewTracingTranslator(backend), nil
}

// NewTranslatorFromConfig creates a translator from an already resolved client config.
func NewTranslatorFromConfig(ctx context.Context, provider Provider, cc ClientConfig) (Translator, error) {
	logging.Perception("creating translator: provider=%s model=%s endpoint=%q", provider, cc.Model, cc.BaseURL)

	switch provider {
	case ProviderMock:
		return NewMockTranslator(), nil

	case ProviderOllama:
		return NewOllamaTranslator(cc)

	case ProviderChatGPT, ProviderOpenAI, ProviderOpenRouter, ProviderOpenAICompat:
		if cc.APIKey == "" && provider != ProviderOpenAICompat {
			logging.PerceptionWarn("provider %s configured without an API key", provider)
		}
		return NewOpenAITranslator(provider, cc), nil

	case ProviderAnthropic:
		return NewAnthropicTranslator(cc), nil

	case ProviderGemini:
		if cc.APIKey == "" {
			return nil, fmt.Errorf("gemini provider requires an API key")
		}
		return NewGeminiTranslator(ctx, cc)

	case ProviderHTTP, "":
		return NewHTTPTranslator(cc), nil

	default:
		logging.PerceptionWarn("unknown provider %q, using generic http contract", provider)
		return NewHTTPTranslator(cc), nil
	}
}
