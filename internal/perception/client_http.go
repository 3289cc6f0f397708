package perception

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"beeno/internal/logging"
	"beeno/internal/types"
)

// HTTPTranslator speaks beeno's generic JSON translation contract:
// POST {model, input, temperature, max_tokens, metadata} and expect
// {code, explanation?, confidence?, tokens?} back.
type HTTPTranslator struct {
	endpoint    string
	apiKey      string
	model       string
	temperature float32
	maxTokens   uint32
	httpClient  *http.Client
}

type httpTranslateRequest struct {
	Model       string       `json:"model"`
	Input       string       `json:"input"`
	Temperature float32      `json:"temperature"`
	MaxTokens   uint32       `json:"max_tokens"`
	Metadata    httpMetadata `json:"metadata"`
}

type httpMetadata struct {
	FileMetadata *types.FileMetadata `json:"file_metadata"`
}

// NewHTTPTranslator creates a generic HTTP translator.
func NewHTTPTranslator(cfg ClientConfig) *HTTPTranslator {
	endpoint := cfg.BaseURL
	if endpoint == "" {
		endpoint = DefaultHTTPEndpoint
	}
	return &HTTPTranslator{
		endpoint:    endpoint,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
	}
}

// Translate implements Translator.
func (c *HTTPTranslator) Translate(ctx context.Context, req types.TranslateRequest) (*types.TranslateResult, error) {
	start := time.Now()
	payload := httpTranslateRequest{
		Model:       c.model,
		Input:       BuildPrompt(req).User,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Metadata:    httpMetadata{FileMetadata: req.FileMetadata},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, requestError(ProviderHTTP, "marshal request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, requestError(ProviderHTTP, "build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	logging.PerceptionDebug("[HTTP] POST %s model=%s input_len=%d", c.endpoint, c.model, len(payload.Input))
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, requestError(ProviderHTTP, "send request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, requestError(ProviderHTTP,
			fmt.Sprintf("http status %d from provider: %s", resp.StatusCode, strings.TrimSpace(string(snippet))), nil)
	}

	var value map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&value); err != nil {
		return nil, invalidResponse(ProviderHTTP, "decode response", err)
	}

	code, ok := value["code"].(string)
	if !ok {
		return nil, invalidResponse(ProviderHTTP, "missing string field `code`", nil)
	}

	result := &types.TranslateResult{
		Code:            StripCodeFence(code),
		RawProviderMeta: map[string]any{"raw": value},
	}
	if s, ok := value["explanation"].(string); ok {
		result.Explanation = &s
	}
	if f, ok := value["confidence"].(float64); ok {
		conf := float32(f)
		result.Confidence = &conf
	}
	if f, ok := value["tokens"].(float64); ok && f >= 0 && f == float64(uint32(f)) {
		tok := uint32(f)
		result.Tokens = &tok
	}

	logging.PerceptionDebug("[HTTP] translated in %v code_len=%d", time.Since(start), len(result.Code))
	return result, nil
}
