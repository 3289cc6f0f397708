package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrConfigExists is returned by InitConfigFile when the target exists and force is false.
var ErrConfigExists = errors.New("config file already exists")

const configTemplate = `# beeno configuration
# Precedence: CLI flags > BEENO_* env > ./.beeno.yaml > ~/.beeno.yaml > defaults

llm:
  # mock | http | ollama | chatgpt | openai | openrouter | openai_compat | anthropic | gemini
  provider: http
  endpoint: ""
  model: gpt-4.1-mini
  temperature: 0.1
  max_tokens: 512
  endpoint_env_var: DENO_NL_ENDPOINT
  api_key_env_var: DENO_NL_API_KEY

policy:
  # YAML, JSON or TOML document with blocked_patterns / risky_patterns / trusted_import_prefixes
  policy_path: ""
  confirm_risky: true

runtime:
  binary: deno
  temp_dir: ""

repl:
  summary_window: 8

timeouts:
  translate_ms: 15000

dev:
  port: 8080
  watch_debounce_ms: 300

logging:
  debug_mode: false
  level: info
  json_format: false

audit:
  enabled: false
  path: .beeno/audit.db
`

// InitConfigFile writes the commented default config to path.
func InitConfigFile(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%w: %s (use --force to overwrite)", ErrConfigExists, path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
