package tactile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"beeno/internal/logging"
	"beeno/internal/types"
)

// Executor runs approved source to completion.
type Executor interface {
	Execute(ctx context.Context, req types.ExecutionRequest) (*ExecutionResult, error)
}

// ExecutionResult describes a finished run.
type ExecutionResult struct {
	ExitCode   int
	ModulePath string
	Args       []string
	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration
}

// ExecutorConfig configures a RuntimeExecutor.
type ExecutorConfig struct {
	// Binary is the script runtime, "deno" by default.
	Binary string
	// TempDir holds temp modules; empty means os.TempDir().
	TempDir string
	// Standard streams handed to the child; nil means the caller's own.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// DefaultExecutorConfig returns a config that runs deno with inherited stdio.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{Binary: "deno"}
}

// RuntimeExecutor writes source to a temp module and runs
// `<binary> run <permission flags> <module>`, blocking until it exits.
type RuntimeExecutor struct {
	mu     sync.RWMutex
	config ExecutorConfig

	auditCallback types.AuditCallback
}

// NewRuntimeExecutor creates an executor.
func NewRuntimeExecutor(config ExecutorConfig) *RuntimeExecutor {
	if config.Binary == "" {
		config.Binary = "deno"
	}
	logging.TactileDebug("Creating RuntimeExecutor: binary=%s temp_dir=%q", config.Binary, config.TempDir)
	return &RuntimeExecutor{config: config}
}

// SetAuditCallback sets the callback for audit events.
func (e *RuntimeExecutor) SetAuditCallback(callback types.AuditCallback) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.auditCallback = callback
}

func (e *RuntimeExecutor) emitAudit(event types.AuditEvent) {
	e.mu.RLock()
	callback := e.auditCallback
	e.mu.RUnlock()

	if callback != nil {
		event.ID = uuid.NewString()
		event.Timestamp = time.Now()
		callback(event)
	}
}

// Execute enforces the grant, writes the module, runs it and removes it.
// A non-zero exit is an ErrExecution EngineError carrying the exit code.
func (e *RuntimeExecutor) Execute(ctx context.Context, req types.ExecutionRequest) (*ExecutionResult, error) {
	timer := logging.StartTimer(logging.CategoryTactile, "runtime execution")
	defer timer.Stop()

	if err := EnforcePermissions(req.Source, req.Permissions); err != nil {
		logging.TactileWarn("permission check failed for %s: %v", req.Origin, err)
		return nil, err
	}

	path, err := WriteModule(e.config.TempDir, "beeno", req.Source)
	if err != nil {
		logging.TactileError("temp module write failed: %v", err)
		return nil, err
	}
	defer RemoveModule(path)

	args := append([]string{"run"}, PermissionArgs(req.Permissions)...)
	args = append(args, path)

	cmd := exec.CommandContext(ctx, e.config.Binary, args...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if e.config.Stdin != nil {
		cmd.Stdin = e.config.Stdin
	}
	if e.config.Stdout != nil {
		cmd.Stdout = e.config.Stdout
	}
	if e.config.Stderr != nil {
		cmd.Stderr = e.config.Stderr
	}

	result := &ExecutionResult{ExitCode: -1, ModulePath: path, Args: args}
	logging.Tactile("Executing: %s %s (origin=%s)", e.config.Binary, strings.Join(args, " "), req.Origin)
	e.emitAudit(types.AuditEvent{Type: types.AuditExecute, Origin: req.Origin, Detail: req.Permissions.String()})

	result.StartedAt = time.Now()
	if err := cmd.Start(); err != nil {
		logging.TactileError("failed to launch %s: %v", e.config.Binary, err)
		return nil, types.NewExecutionError(fmt.Sprintf("failed to launch %s", e.config.Binary), err)
	}
	waitErr := cmd.Wait()
	result.FinishedAt = time.Now()
	result.Duration = result.FinishedAt.Sub(result.StartedAt)

	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return result, types.NewExecutionError("wait for runtime", waitErr)
		}
		result.ExitCode = exitErr.ExitCode()
	} else {
		result.ExitCode = 0
	}

	code := result.ExitCode
	e.emitAudit(types.AuditEvent{Type: types.AuditExit, Origin: req.Origin, ExitCode: &code, Detail: result.Duration.String()})
	logging.Tactile("Runtime exited: code=%d duration=%v", code, result.Duration)

	if code != 0 {
		return result, types.NewExitError(code)
	}
	return result, nil
}
