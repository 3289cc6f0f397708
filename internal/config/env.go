package config

import (
	"os"
	"strconv"
	"strings"

	"beeno/internal/logging"
)

// applyEnvOverrides applies BEENO_* environment variable overrides.
// Unparsable values are ignored and the previous value kept.
func (c *Config) applyEnvOverrides() {
	if v, ok := envString("BEENO_PROVIDER"); ok {
		c.LLM.Provider = v
	}
	if v, ok := envString("BEENO_MODEL"); ok {
		c.LLM.Model = v
	}
	if v, ok := envString("BEENO_ENDPOINT"); ok {
		c.LLM.Endpoint = v
	}
	if v, ok := envString("BEENO_TEMPERATURE"); ok {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			c.LLM.Temperature = float32(f)
		} else {
			logging.BootWarn("ignoring BEENO_TEMPERATURE=%q: %v", v, err)
		}
	}
	if v, ok := envString("BEENO_MAX_TOKENS"); ok {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			c.LLM.MaxTokens = uint32(n)
		} else {
			logging.BootWarn("ignoring BEENO_MAX_TOKENS=%q: %v", v, err)
		}
	}
	if v, ok := envString("BEENO_ENDPOINT_ENV_VAR"); ok {
		c.LLM.EndpointEnvVar = v
	}
	if v, ok := envString("BEENO_API_KEY_ENV_VAR"); ok {
		c.LLM.APIKeyEnvVar = v
	}
	if v, ok := envString("BEENO_POLICY_PATH"); ok {
		c.Policy.PolicyPath = v
	}
	if b, ok := envBool("BEENO_CONFIRM_RISKY"); ok {
		c.Policy.ConfirmRisky = b
	}
	if v, ok := envString("BEENO_RUNTIME"); ok {
		c.Runtime.Binary = v
	}
	if n, ok := envInt("BEENO_SUMMARY_WINDOW"); ok {
		c.REPL.SummaryWindow = n
	}
	if n, ok := envInt("BEENO_TRANSLATE_TIMEOUT_MS"); ok {
		c.Timeouts.TranslateMS = n
	}
	if b, ok := envBool("BEENO_DEBUG"); ok {
		c.Logging.DebugMode = b
	}
	if b, ok := envBool("BEENO_AUDIT"); ok {
		c.Audit.Enabled = b
	}
	if v, ok := envString("BEENO_AUDIT_PATH"); ok {
		c.Audit.Path = v
	}
}

func envString(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func envInt(key string) (int, bool) {
	v, ok := envString(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logging.BootWarn("ignoring %s=%q: %v", key, v, err)
		return 0, false
	}
	return n, true
}

func envBool(key string) (bool, bool) {
	v, ok := envString(key)
	if !ok {
		return false, false
	}
	return ParseBool(v)
}

// ParseBool accepts 1/true/yes/y/on and 0/false/no/n/off, case-insensitively.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
