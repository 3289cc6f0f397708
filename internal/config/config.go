package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the home and working directories.
const FileName = ".beeno.yaml"

// Config holds all beeno configuration.
type Config struct {
	LLM      LLMConfig     `yaml:"llm"`
	Policy   PolicyConfig  `yaml:"policy"`
	Runtime  RuntimeConfig `yaml:"runtime"`
	REPL     REPLConfig    `yaml:"repl"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
	Dev      DevConfig     `yaml:"dev"`
	Logging  LoggingConfig `yaml:"logging"`
	Audit    AuditConfig   `yaml:"audit"`
}

// PolicyConfig points at an optional risk policy document.
type PolicyConfig struct {
	// PolicyPath is a YAML, JSON or TOML policy document. Empty means the built-in default.
	PolicyPath   string `yaml:"policy_path"`
	ConfirmRisky bool   `yaml:"confirm_risky"`
}

// RuntimeConfig configures the script runtime subprocess.
type RuntimeConfig struct {
	Binary  string `yaml:"binary" validate:"required"`
	TempDir string `yaml:"temp_dir"` // empty = os.TempDir()
}

// REPLConfig configures the interactive loop.
type REPLConfig struct {
	SummaryWindow int `yaml:"summary_window" validate:"gte=1"`
}

// TimeoutConfig holds per-operation timeouts in milliseconds.
type TimeoutConfig struct {
	TranslateMS int `yaml:"translate_ms" validate:"gte=0"` // 0 disables the client timeout
}

// DevConfig configures `beeno dev`.
type DevConfig struct {
	Port            int `yaml:"port" validate:"gte=1,lte=65535"`
	WatchDebounceMS int `yaml:"watch_debounce_ms" validate:"gte=0"`
}

// AuditConfig configures the SQLite audit journal.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" validate:"required_if=Enabled true"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:       "http",
			Model:          "gpt-4.1-mini",
			Temperature:    0.1,
			MaxTokens:      512,
			EndpointEnvVar: "DENO_NL_ENDPOINT",
			APIKeyEnvVar:   "DENO_NL_API_KEY",
		},
		Policy: PolicyConfig{
			ConfirmRisky: true,
		},
		Runtime: RuntimeConfig{
			Binary: "deno",
		},
		REPL: REPLConfig{
			SummaryWindow: 8,
		},
		Timeouts: TimeoutConfig{
			TranslateMS: 15000,
		},
		Dev: DevConfig{
			Port:            8080,
			WatchDebounceMS: 300,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Audit: AuditConfig{
			Path: filepath.Join(".beeno", "audit.db"),
		},
	}
}

// DefaultPaths returns the config files consulted by LoadLayered, lowest precedence first.
func DefaultPaths() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, FileName))
	}
	return append(paths, FileName)
}

// Load loads configuration from a single YAML file over the defaults.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	return LoadLayered(path)
}

// LoadLayered decodes each existing file over the defaults in order, then
// applies BEENO_* environment overrides. Later files win field by field.
func LoadLayered(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		if strings.TrimSpace(path) == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// GetTranslateTimeout returns the translator client timeout; zero means none.
func (c *Config) GetTranslateTimeout() time.Duration {
	if c.Timeouts.TranslateMS <= 0 {
		return 0
	}
	return time.Duration(c.Timeouts.TranslateMS) * time.Millisecond
}

// GetWatchDebounce returns the dev-mode file watcher debounce.
func (c *Config) GetWatchDebounce() time.Duration {
	return time.Duration(c.Dev.WatchDebounceMS) * time.Millisecond
}

var validate = validator.New()

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s fails %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
