package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies pipeline failures.
type ErrorKind int

const (
	ErrProvider ErrorKind = iota
	ErrBlocked
	ErrExecution
	ErrIO
)

func (k ErrorKind) String() string {
	switch k {
	case ErrProvider:
		return "provider"
	case ErrBlocked:
		return "blocked"
	case ErrExecution:
		return "execution"
	case ErrIO:
		return "io"
	default:
		return "unknown"
	}
}

// EngineError is the error type surfaced by the orchestrator, the executor and
// the dev server manager. Inspect it with errors.As.
type EngineError struct {
	Kind     ErrorKind
	Message  string
	Reasons  []string
	ExitCode int // set for ErrExecution when the child exited; -1 otherwise
	Err      error
}

func (e *EngineError) Error() string {
	switch e.Kind {
	case ErrBlocked:
		return "blocked by policy: " + strings.Join(e.Reasons, "; ")
	case ErrProvider:
		if e.Err != nil {
			return "provider error: " + e.Err.Error()
		}
		return "provider error: " + e.Message
	case ErrIO:
		if e.Err != nil {
			return fmt.Sprintf("io error: %s: %v", e.Message, e.Err)
		}
		return "io error: " + e.Message
	default:
		if e.Err != nil {
			return fmt.Sprintf("execution error: %s: %v", e.Message, e.Err)
		}
		return "execution error: " + e.Message
	}
}

func (e *EngineError) Unwrap() error { return e.Err }

// Phase names the pipeline stage the error belongs to, for JSON output.
func (e *EngineError) Phase() string {
	switch e.Kind {
	case ErrProvider:
		return "translate"
	case ErrBlocked:
		return "policy"
	default:
		return "execute"
	}
}

func NewProviderError(err error) *EngineError {
	return &EngineError{Kind: ErrProvider, Err: err, ExitCode: -1}
}

func NewBlockedError(reasons []string) *EngineError {
	return &EngineError{Kind: ErrBlocked, Reasons: append([]string(nil), reasons...), ExitCode: -1}
}

func NewExecutionError(msg string, err error) *EngineError {
	return &EngineError{Kind: ErrExecution, Message: msg, Err: err, ExitCode: -1}
}

func NewExitError(code int) *EngineError {
	return &EngineError{Kind: ErrExecution, Message: fmt.Sprintf("runtime exited with status %d", code), ExitCode: code}
}

func NewIOError(msg string, err error) *EngineError {
	return &EngineError{Kind: ErrIO, Message: msg, Err: err, ExitCode: -1}
}

// KindOf returns the kind of the first EngineError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind, true
	}
	return 0, false
}

// IsBlocked reports whether err is a policy refusal.
func IsBlocked(err error) bool {
	k, ok := KindOf(err)
	return ok && k == ErrBlocked
}

// BlockedReasons returns the policy reasons carried by a blocked error.
func BlockedReasons(err error) []string {
	var ee *EngineError
	if errors.As(err, &ee) && ee.Kind == ErrBlocked {
		return ee.Reasons
	}
	return nil
}
