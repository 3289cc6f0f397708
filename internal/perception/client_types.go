package perception

import (
	"context"
	"errors"
	"fmt"
	"time"

	"beeno/internal/types"
)

// Translator turns a request into candidate script source. Implementations
// strip any fenced-code wrapper from the returned code and report failures
// as *ProviderError.
type Translator interface {
	Translate(ctx context.Context, req types.TranslateRequest) (*types.TranslateResult, error)
}

// Provider identifies a translator backend.
type Provider string

const (
	ProviderMock         Provider = "mock"
	ProviderHTTP         Provider = "http"
	ProviderOllama       Provider = "ollama"
	ProviderChatGPT      Provider = "chatgpt"
	ProviderOpenAI       Provider = "openai"
	ProviderOpenRouter   Provider = "openrouter"
	ProviderOpenAICompat Provider = "openai_compat"
	ProviderAnthropic    Provider = "anthropic"
	ProviderGemini       Provider = "gemini"
)

// Default endpoints per backend.
const (
	DefaultHTTPEndpoint       = "http://localhost:8080/translate"
	DefaultOllamaEndpoint     = "http://127.0.0.1:11434"
	DefaultOpenAIEndpoint     = "https://api.openai.com/v1"
	DefaultOpenRouterEndpoint = "https://openrouter.ai/api/v1"
)

// ClientConfig is the resolved configuration shared by all backends.
type ClientConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   uint32
	Timeout     time.Duration // zero means no client timeout
}

// ProviderErrorKind separates transport failures from bad responses.
type ProviderErrorKind int

const (
	// ProviderRequest means the call itself failed (network, status, SDK error).
	ProviderRequest ProviderErrorKind = iota
	// ProviderInvalidResponse means the call succeeded but the payload was unusable.
	ProviderInvalidResponse
)

// ProviderError is returned by every Translator implementation.
type ProviderError struct {
	Kind     ProviderErrorKind
	Provider Provider
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	prefix := "provider request failed"
	if e.Kind == ProviderInvalidResponse {
		prefix = "invalid provider response"
	}
	msg := fmt.Sprintf("%s (%s): %s", prefix, e.Provider, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return e.Err }

func requestError(p Provider, msg string, err error) *ProviderError {
	return &ProviderError{Kind: ProviderRequest, Provider: p, Message: msg, Err: err}
}

func invalidResponse(p Provider, msg string, err error) *ProviderError {
	return &ProviderError{Kind: ProviderInvalidResponse, Provider: p, Message: msg, Err: err}
}

// IsInvalidResponse reports whether err is a malformed-response provider error.
func IsInvalidResponse(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == ProviderInvalidResponse
}

// completionResult builds a TranslateResult from raw model text.
func completionResult(p Provider, raw string, tokens *uint32, meta map[string]any) (*types.TranslateResult, error) {
	code := StripCodeFence(raw)
	if code == "" {
		return nil, invalidResponse(p, "empty completion", nil)
	}
	if meta == nil {
		meta = make(map[string]any)
	}
	meta["provider"] = string(p)
	return &types.TranslateResult{Code: code, Tokens: tokens, RawProviderMeta: meta}, nil
}

func uint32Ptr(n int64) *uint32 {
	if n <= 0 {
		return nil
	}
	v := uint32(n)
	return &v
}
