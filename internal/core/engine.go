// Package core wires classification, translation and policy into the
// source-preparation pipeline used by every beeno entry point.
package core

import (
	"context"
	"time"

	"github.com/google/uuid"

	"beeno/internal/logging"
	"beeno/internal/perception"
	"beeno/internal/policy"
	"beeno/internal/types"
)

// Modes understood by the pipeline. Only ModeForceNL changes PrepareSource's
// behavior; the rest are passed through to translators as context.
const (
	ModeEval    = "eval"
	ModeRun     = "run"
	ModeRepl    = "repl"
	ModeForceNL = "force_nl"
	ModeForceJS = "force_js"
)

// Engine is the orchestrator. It holds no per-call state and may be shared,
// provided the translator and policy are themselves safe to share.
type Engine struct {
	translator perception.Translator
	policy     policy.RiskPolicy
	onAudit    types.AuditCallback
}

// NewEngine creates an orchestrator over a translator and a policy.
func NewEngine(translator perception.Translator, riskPolicy policy.RiskPolicy) *Engine {
	return &Engine{translator: translator, policy: riskPolicy}
}

// SetAuditCallback registers a callback that receives pipeline events.
func (e *Engine) SetAuditCallback(cb types.AuditCallback) {
	e.onAudit = cb
}

func (e *Engine) emit(ev types.AuditEvent) {
	if e.onAudit == nil {
		return
	}
	ev.ID = uuid.NewString()
	ev.Timestamp = time.Now()
	e.onAudit(ev)
}

// Prepared is the outcome of PrepareSource.
type Prepared struct {
	Source     string
	Translated *types.TranslateResult // nil when the input was used verbatim
	Risk       types.RiskReport       // never Blocked
}

// PrepareSource turns user input into vetted source. Code is used verbatim
// unless mode is ModeForceNL; anything else goes through the translator. The
// result is analyzed and a Blocked verdict becomes an ErrBlocked EngineError.
func (e *Engine) PrepareSource(ctx context.Context, input, mode string, summary types.SessionSummary, meta *types.FileMetadata) (*Prepared, error) {
	timer := logging.StartTimer(logging.CategoryCore, "prepare source")
	defer timer.Stop()

	kind := perception.ClassifyInput(input)
	logging.CoreDebug("prepare: mode=%s kind=%s input_len=%d", mode, kind, len(input))

	out := &Prepared{Source: input}
	if kind == perception.InputPseudocode || mode == ModeForceNL {
		res, err := e.translator.Translate(ctx, types.TranslateRequest{
			Input:          input,
			Mode:           mode,
			SessionSummary: summary,
			FileMetadata:   meta,
		})
		if err != nil {
			logging.CoreWarn("translation failed: %v", err)
			return nil, types.NewProviderError(err)
		}
		out.Source = res.Code
		out.Translated = res
		e.emit(types.AuditEvent{Type: types.AuditTranslate, Mode: mode, Detail: res.Code})
	}

	out.Risk = e.policy.Analyze(ctx, out.Source)
	if out.Risk.Level == types.RiskBlocked {
		e.emit(types.AuditEvent{Type: types.AuditBlocked, Mode: mode, Level: out.Risk.Level, Reasons: out.Risk.Reasons, Detail: out.Source})
		return nil, types.NewBlockedError(out.Risk.Reasons)
	}

	e.emit(types.AuditEvent{Type: types.AuditPrepare, Mode: mode, Level: out.Risk.Level, Reasons: out.Risk.Reasons})
	return out, nil
}
