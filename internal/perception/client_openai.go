package perception

import (
	"context"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"beeno/internal/logging"
	"beeno/internal/types"
)

// OpenAITranslator talks to any OpenAI-compatible chat completions API:
// OpenAI itself, OpenRouter, or a self-hosted gateway.
type OpenAITranslator struct {
	client      openai.Client
	provider    Provider
	model       string
	temperature float32
	maxTokens   uint32
}

// NewOpenAITranslator creates a chat-completions translator. BaseURL defaults
// per provider (OpenRouter or OpenAI).
func NewOpenAITranslator(provider Provider, cfg ClientConfig) *OpenAITranslator {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultOpenAIEndpoint
		if provider == ProviderOpenRouter {
			baseURL = DefaultOpenRouterEndpoint
		}
	}

	opts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &OpenAITranslator{
		client:      openai.NewClient(opts...),
		provider:    provider,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// Translate implements Translator.
func (c *OpenAITranslator) Translate(ctx context.Context, req types.TranslateRequest) (*types.TranslateResult, error) {
	start := time.Now()
	prompt := BuildPrompt(req)

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt.System),
			openai.UserMessage(prompt.User),
		},
		Temperature: openai.Float(float64(c.temperature)),
	}
	if c.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.maxTokens))
	}

	logging.PerceptionDebug("[%s] chat completion: model=%s user_len=%d", c.provider, c.model, len(prompt.User))
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, requestError(c.provider, "chat completion", err)
	}
	if len(resp.Choices) == 0 {
		return nil, invalidResponse(c.provider, "no choices in response", nil)
	}

	meta := map[string]any{
		"model":         resp.Model,
		"id":            resp.ID,
		"finish_reason": resp.Choices[0].FinishReason,
	}
	logging.PerceptionDebug("[%s] completed in %v tokens=%d", c.provider, time.Since(start), resp.Usage.TotalTokens)
	return completionResult(c.provider, resp.Choices[0].Message.Content, uint32Ptr(resp.Usage.TotalTokens), meta)
}
