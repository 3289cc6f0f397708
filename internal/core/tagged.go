package core

import (
	"context"
	"strings"

	"beeno/internal/logging"
	"beeno/internal/types"
)

const (
	nlOpen  = "/*nl"
	nlClose = "*/"

	// UnterminatedWarning is reported when an opening delimiter has no close.
	UnterminatedWarning = "unterminated nl block; leaving remainder unchanged"
)

// ProcessTaggedScript replaces every /*nl ... */ block in script with its
// translation, leaving all other text byte-identical. Each block is
// translated in mode "run" and analyzed; any Blocked block fails the whole
// call. An unterminated block stops processing with a warning and the rest
// of the script copied verbatim.
func (e *Engine) ProcessTaggedScript(ctx context.Context, script string, summary types.SessionSummary, filePath string) (string, []string, error) {
	var (
		out      strings.Builder
		warnings []string
		cursor   int
		blocks   int
	)

	for {
		rel := strings.Index(script[cursor:], nlOpen)
		if rel < 0 {
			break
		}
		start := cursor + rel
		out.WriteString(script[cursor:start])

		afterTag := start + len(nlOpen)
		endRel := strings.Index(script[afterTag:], nlClose)
		if endRel < 0 {
			logging.CoreWarn("unterminated nl block at byte %d", start)
			warnings = append(warnings, UnterminatedWarning)
			out.WriteString(script[start:])
			return out.String(), warnings, nil
		}
		end := afterTag + endRel

		blocks++
		res, err := e.translator.Translate(ctx, types.TranslateRequest{
			Input:          StripFencedNL(script[afterTag:end]),
			Mode:           ModeRun,
			SessionSummary: summary,
			FileMetadata:   &types.FileMetadata{Path: filePath, LanguageHint: "typescript"},
		})
		if err != nil {
			return "", nil, types.NewProviderError(err)
		}

		risk := e.policy.Analyze(ctx, res.Code)
		if risk.Level == types.RiskBlocked {
			e.emit(types.AuditEvent{Type: types.AuditBlocked, Origin: filePath, Mode: ModeRun, Level: risk.Level, Reasons: risk.Reasons, Detail: res.Code})
			return "", nil, types.NewBlockedError(risk.Reasons)
		}
		e.emit(types.AuditEvent{Type: types.AuditTranslate, Origin: filePath, Mode: ModeRun, Level: risk.Level, Detail: res.Code})

		out.WriteString(res.Code)
		cursor = end + len(nlClose)
	}

	out.WriteString(script[cursor:])
	logging.Core("processed tagged script %q: %d block(s)", filePath, blocks)
	return out.String(), warnings, nil
}

// HasTaggedBlocks reports whether script contains an opening /*nl delimiter.
func HasTaggedBlocks(script string) bool {
	return strings.Contains(script, nlOpen)
}

// StripFencedNL trims body and, when it is wrapped as ```nl ... ```, removes the fence.
func StripFencedNL(body string) string {
	trimmed := strings.TrimSpace(body)
	if len(trimmed) >= len("```nl")+len("```") && strings.HasPrefix(trimmed, "```nl") && strings.HasSuffix(trimmed, "```") {
		inner := strings.TrimSuffix(strings.TrimPrefix(trimmed, "```nl"), "```")
		return strings.TrimSpace(inner)
	}
	return trimmed
}
