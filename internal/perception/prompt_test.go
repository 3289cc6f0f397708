package perception

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"beeno/internal/types"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"console.log(1);", "console.log(1);"},
		{"  console.log(1);\n", "console.log(1);"},
		{"```ts\nconsole.log(1);\n```", "console.log(1);"},
		{"```javascript\nconst a = 1;\nconsole.log(a);\n```\n", "const a = 1;\nconsole.log(a);"},
		{"```\nlet x = 2;\n```", "let x = 2;"},
		{"```\n```", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripCodeFence(tt.in), "input %q", tt.in)
	}
}

func TestBuildPrompt(t *testing.T) {
	req := types.TranslateRequest{
		Input: "print the current time",
		Mode:  "eval",
		SessionSummary: types.SessionSummary{
			Symbols: []string{"server"},
		},
		FileMetadata: &types.FileMetadata{Path: "app.ts", LanguageHint: "typescript"},
	}

	p := BuildPrompt(req)
	assert.Contains(t, p.System, "TypeScript")
	assert.Contains(t, p.User, "Input mode: eval.")
	assert.Contains(t, p.User, "File: app.ts (typescript)")
	assert.Contains(t, p.User, `"symbols":["server"]`)
	assert.Contains(t, p.User, "Input: print the current time")
	assert.Contains(t, p.Flatten(), p.System)
}

func TestBuildPrompt_OmitsEmptySections(t *testing.T) {
	p := BuildPrompt(types.TranslateRequest{Input: "x", Mode: "repl"})
	assert.NotContains(t, p.User, "Session summary")
	assert.NotContains(t, p.User, "File:")
}
