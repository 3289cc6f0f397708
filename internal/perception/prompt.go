package perception

import (
	"encoding/json"
	"fmt"
	"strings"

	"beeno/internal/types"
)

const systemPrompt = `You translate natural-language instructions and pseudocode into executable TypeScript for the Deno runtime.
Reply with source code only. Do not wrap it in markdown fences and do not explain it.
Prefer Deno built-ins and web-standard APIs. Never spawn subprocesses or import modules over plain http.
Reuse the symbols listed in the session context instead of redeclaring them.`

// Prompt is the rendered instruction pair sent to chat-style backends.
type Prompt struct {
	System string
	User   string
}

// Flatten joins both halves for single-input backends.
func (p Prompt) Flatten() string {
	return p.System + "\n\n" + p.User
}

// BuildPrompt renders a request into a system and user prompt.
func BuildPrompt(req types.TranslateRequest) Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "Translate to executable JS/TS only. Input mode: %s.\n", req.Mode)
	if fm := req.FileMetadata; fm != nil && (fm.Path != "" || fm.LanguageHint != "") {
		fmt.Fprintf(&b, "File: %s", fm.Path)
		if fm.LanguageHint != "" {
			fmt.Fprintf(&b, " (%s)", fm.LanguageHint)
		}
		b.WriteString("\n")
	}
	if !req.SessionSummary.IsEmpty() {
		summary, err := json.Marshal(req.SessionSummary)
		if err == nil {
			fmt.Fprintf(&b, "Session summary: %s\n", summary)
		}
	}
	fmt.Fprintf(&b, "Input: %s", req.Input)
	return Prompt{System: systemPrompt, User: b.String()}
}

// StripCodeFence removes a surrounding ``` fence, with or without a language tag.
func StripCodeFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	body := t[3:]
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	}
	body = strings.TrimSpace(body)
	body = strings.TrimSuffix(body, "```")
	return strings.TrimSpace(body)
}
