package perception

import (
	"context"
	"net/http"
	"time"

	"google.golang.org/genai"

	"beeno/internal/logging"
	"beeno/internal/types"
)

// GeminiTranslator uses the Gemini API through the genai SDK.
type GeminiTranslator struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   uint32
}

// NewGeminiTranslator creates a Gemini translator. The API key is required
// by the SDK at construction time.
func NewGeminiTranslator(ctx context.Context, cfg ClientConfig) (*GeminiTranslator, error) {
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, requestError(ProviderGemini, "create client", err)
	}
	return &GeminiTranslator{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Translate implements Translator.
func (c *GeminiTranslator) Translate(ctx context.Context, req types.TranslateRequest) (*types.TranslateResult, error) {
	start := time.Now()
	prompt := BuildPrompt(req)

	temp := c.temperature
	gc := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(prompt.System, genai.RoleUser),
		Temperature:       &temp,
	}
	if c.maxTokens > 0 {
		gc.MaxOutputTokens = int32(c.maxTokens)
	}

	logging.PerceptionDebug("[Gemini] generate: model=%s user_len=%d", c.model, len(prompt.User))
	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromText(prompt.User, genai.RoleUser)}, gc)
	if err != nil {
		return nil, requestError(ProviderGemini, "generate content", err)
	}

	var tokens *uint32
	if resp.UsageMetadata != nil {
		tokens = uint32Ptr(int64(resp.UsageMetadata.TotalTokenCount))
	}
	meta := map[string]any{"model": resp.ModelVersion}
	logging.PerceptionDebug("[Gemini] completed in %v", time.Since(start))
	return completionResult(ProviderGemini, resp.Text(), tokens, meta)
}
