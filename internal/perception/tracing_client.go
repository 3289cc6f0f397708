package perception

import (
	"context"
	"errors"
	"sync"
	"time"

	"beeno/internal/logging"
	"beeno/internal/types"
)

// TranslationTrace records one translator call.
type TranslationTrace struct {
	Mode       string
	InputLen   int
	CodeLen    int
	Tokens     uint32
	Duration   time.Duration
	Err        error
	StartedAt  time.Time
	ErrorKind  string
	Successful bool
}

// TracingTranslator wraps any Translator and logs and counts every call.
type TracingTranslator struct {
	underlying Translator

	mu     sync.Mutex
	last   *TranslationTrace
	calls  int
	failed int
}

// NewTracingTranslator creates a tracing wrapper around a translator.
func NewTracingTranslator(underlying Translator) *TracingTranslator {
	return &TracingTranslator{underlying: underlying}
}

// Translate implements Translator with tracing.
func (tc *TracingTranslator) Translate(ctx context.Context, req types.TranslateRequest) (*types.TranslateResult, error) {
	trace := TranslationTrace{Mode: req.Mode, InputLen: len(req.Input), StartedAt: time.Now()}
	logging.Perception("translate started: mode=%s input_len=%d", req.Mode, trace.InputLen)

	res, err := tc.underlying.Translate(ctx, req)
	trace.Duration = time.Since(trace.StartedAt)
	trace.Err = err
	if err != nil {
		var pe *ProviderError
		if errors.As(err, &pe) {
			trace.ErrorKind = "request"
			if pe.Kind == ProviderInvalidResponse {
				trace.ErrorKind = "invalid_response"
			}
		}
		logging.PerceptionError("translate failed after %v: %v", trace.Duration, err)
	} else {
		trace.Successful = true
		trace.CodeLen = len(res.Code)
		if res.Tokens != nil {
			trace.Tokens = *res.Tokens
		}
		logging.Perception("translate completed in %v: code_len=%d tokens=%d", trace.Duration, trace.CodeLen, trace.Tokens)
	}

	tc.mu.Lock()
	tc.calls++
	if err != nil {
		tc.failed++
	}
	tc.last = &trace
	tc.mu.Unlock()

	return res, err
}

// Stats returns the number of calls and failures so far.
func (tc *TracingTranslator) Stats() (calls, failed int) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.calls, tc.failed
}

// LastTrace returns a copy of the most recent trace, if any.
func (tc *TracingTranslator) LastTrace() (TranslationTrace, bool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if tc.last == nil {
		return TranslationTrace{}, false
	}
	return *tc.last, true
}
