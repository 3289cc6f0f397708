package config

import (
	"os"
	"strings"
)

// LLMConfig configures the translator backend.
type LLMConfig struct {
	// Provider: mock, http, ollama, chatgpt, openai, openrouter, openai_compat, anthropic, gemini
	Provider    string  `yaml:"provider" validate:"required"`
	Endpoint    string  `yaml:"endpoint"`
	Model       string  `yaml:"model" validate:"required"`
	Temperature float32 `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   uint32  `yaml:"max_tokens" validate:"gt=0"`

	// EndpointEnvVar names the environment variable consulted when Endpoint is blank.
	EndpointEnvVar string `yaml:"endpoint_env_var"`
	// APIKeyEnvVar names the environment variable holding the provider API key.
	APIKeyEnvVar string `yaml:"api_key_env_var"`
}

// ResolveEndpoint returns the configured endpoint, falling back to the
// variable named by EndpointEnvVar. Empty means the backend default.
func (c LLMConfig) ResolveEndpoint() string {
	if ep := strings.TrimSpace(c.Endpoint); ep != "" {
		return ep
	}
	if c.EndpointEnvVar == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(c.EndpointEnvVar))
}

// ResolveAPIKey reads the key from the variable named by APIKeyEnvVar.
func (c LLMConfig) ResolveAPIKey() string {
	if c.APIKeyEnvVar == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(c.APIKeyEnvVar))
}
