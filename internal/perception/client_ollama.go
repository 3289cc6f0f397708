package perception

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"beeno/internal/logging"
	"beeno/internal/types"
)

// OllamaTranslator uses a local Ollama server's chat endpoint.
type OllamaTranslator struct {
	client      *api.Client
	model       string
	temperature float32
	maxTokens   uint32
}

// NewOllamaTranslator creates an Ollama translator. A BaseURL ending in the
// legacy /api/generate path is accepted and trimmed to the server root.
func NewOllamaTranslator(cfg ClientConfig) (*OllamaTranslator, error) {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultOllamaEndpoint
	}
	base = strings.TrimSuffix(strings.TrimSuffix(base, "/"), "/api/generate")

	parsed, err := url.Parse(base)
	if err != nil {
		return nil, requestError(ProviderOllama, "parse endpoint "+base, err)
	}
	return &OllamaTranslator{
		client:      api.NewClient(parsed, &http.Client{Timeout: cfg.Timeout}),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Translate implements Translator.
func (c *OllamaTranslator) Translate(ctx context.Context, req types.TranslateRequest) (*types.TranslateResult, error) {
	start := time.Now()
	prompt := BuildPrompt(req)

	stream := false
	chatReq := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		Stream: &stream,
		Options: map[string]any{
			"temperature": c.temperature,
		},
	}
	if c.maxTokens > 0 {
		chatReq.Options["num_predict"] = c.maxTokens
	}

	logging.PerceptionDebug("[Ollama] chat: model=%s user_len=%d", c.model, len(prompt.User))
	var (
		text       strings.Builder
		evalTokens int
		model      string
	)
	err := c.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		text.WriteString(resp.Message.Content)
		if resp.Done {
			evalTokens = resp.EvalCount + resp.PromptEvalCount
			model = resp.Model
		}
		return nil
	})
	if err != nil {
		return nil, requestError(ProviderOllama, "chat", err)
	}

	logging.PerceptionDebug("[Ollama] completed in %v", time.Since(start))
	return completionResult(ProviderOllama, text.String(), uint32Ptr(int64(evalTokens)),
		map[string]any{"model": model})
}
