// Package policy decides whether generated or user-supplied source may run.
// Verdicts come from substring pattern lists plus a tree-sitter syntax gate.
package policy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// Config is a policy document. A loaded document replaces the defaults as a
// whole; lists it omits are empty.
type Config struct {
	BlockedPatterns []string `yaml:"blocked_patterns" json:"blocked_patterns" toml:"blocked_patterns" jsonschema:"description=Substrings that make source unconditionally blocked"`
	RiskyPatterns   []string `yaml:"risky_patterns" json:"risky_patterns" toml:"risky_patterns" jsonschema:"description=Substrings that require confirmation before running"`
	// TrustedImportPrefixes is accepted and reported but not consulted by Analyze.
	TrustedImportPrefixes []string `yaml:"trusted_import_prefixes" json:"trusted_import_prefixes" toml:"trusted_import_prefixes" jsonschema:"description=Reserved: import URL prefixes considered trusted"`
}

// DefaultConfig returns the built-in policy.
func DefaultConfig() Config {
	return Config{
		BlockedPatterns: []string{
			"Deno.Command",
			"child_process",
			`import("http://`,
			`import('http://`,
		},
		RiskyPatterns: []string{
			"eval(",
			"Function(",
			"Deno.permissions.request",
			"**/*",
		},
		TrustedImportPrefixes: []string{"https://deno.land"},
	}
}

// Clone returns a copy that shares no slices with c.
func (c Config) Clone() Config {
	return Config{
		BlockedPatterns:       append([]string(nil), c.BlockedPatterns...),
		RiskyPatterns:         append([]string(nil), c.RiskyPatterns...),
		TrustedImportPrefixes: append([]string(nil), c.TrustedImportPrefixes...),
	}
}

// LoadConfig reads a policy document. The format follows the extension:
// .json is JSON, .yaml/.yml is YAML, anything else is TOML.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read policy %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = toml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse policy %s: %w", path, err)
	}
	return cfg, nil
}

// FromSettings builds a policy from a configured path. A blank path yields the default policy.
func FromSettings(path string) (*PatternPolicy, error) {
	if strings.TrimSpace(path) == "" {
		return NewDefaultPolicy(), nil
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return NewPatternPolicy(cfg), nil
}

// Schema returns the JSON schema of a policy document.
func Schema() ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	s := r.Reflect(&Config{})
	s.Title = "beeno policy"
	return json.MarshalIndent(s, "", "  ")
}

// YAML renders the document for `beeno policy show`.
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
