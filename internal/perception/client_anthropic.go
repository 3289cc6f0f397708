package perception

import (
	"context"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"beeno/internal/logging"
	"beeno/internal/types"
)

// AnthropicTranslator uses the Anthropic messages API.
type AnthropicTranslator struct {
	client      anthropic.Client
	model       string
	temperature float32
	maxTokens   uint32
}

// NewAnthropicTranslator creates an Anthropic translator.
func NewAnthropicTranslator(cfg ClientConfig) *AnthropicTranslator {
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	return &AnthropicTranslator{
		client:      anthropic.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// Translate implements Translator.
func (c *AnthropicTranslator) Translate(ctx context.Context, req types.TranslateRequest) (*types.TranslateResult, error) {
	start := time.Now()
	prompt := BuildPrompt(req)

	maxTokens := int64(c.maxTokens)
	if maxTokens <= 0 {
		maxTokens = 512
	}
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   maxTokens,
		System:      []anthropic.TextBlockParam{{Text: prompt.System}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt.User))},
		Temperature: anthropic.Float(float64(c.temperature)),
	}

	logging.PerceptionDebug("[Anthropic] messages: model=%s user_len=%d", c.model, len(prompt.User))
	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, requestError(ProviderAnthropic, "create message", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	meta := map[string]any{
		"model":       string(msg.Model),
		"id":          msg.ID,
		"stop_reason": string(msg.StopReason),
	}
	logging.PerceptionDebug("[Anthropic] completed in %v output_tokens=%d", time.Since(start), msg.Usage.OutputTokens)
	return completionResult(ProviderAnthropic, text.String(),
		uint32Ptr(msg.Usage.InputTokens+msg.Usage.OutputTokens), meta)
}
