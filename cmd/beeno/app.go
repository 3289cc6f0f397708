package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"beeno/internal/config"
	"beeno/internal/core"
	"beeno/internal/devserver"
	"beeno/internal/perception"
	"beeno/internal/policy"
	"beeno/internal/store"
	"beeno/internal/tactile"
	"beeno/internal/types"
)

// app is the set of components one command invocation works with.
type app struct {
	cfg        *config.Config
	translator *perception.TracingTranslator
	policy     *policy.PatternPolicy
	engine     *core.Engine
	executor   *tactile.RuntimeExecutor
	server     *devserver.Manager
	audit      *store.AuditStore
}

// newApp builds the pipeline from config. Callers must Close it.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	translator, err := perception.NewTranslator(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create translator: %w", err)
	}
	pol, err := policy.FromSettings(cfg.Policy.PolicyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}

	a := &app{
		cfg:        cfg,
		translator: translator,
		policy:     pol,
		engine:     core.NewEngine(translator, pol),
		executor: tactile.NewRuntimeExecutor(tactile.ExecutorConfig{
			Binary:  cfg.Runtime.Binary,
			TempDir: cfg.Runtime.TempDir,
		}),
		server: devserver.NewManager(devserver.Config{
			Binary:  cfg.Runtime.Binary,
			TempDir: cfg.Runtime.TempDir,
		}),
	}

	if cfg.Audit.Enabled {
		if err := a.openAudit(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *app) openAudit() error {
	s, err := store.Open(a.cfg.Audit.Path)
	if err != nil {
		return fmt.Errorf("failed to open audit journal: %w", err)
	}
	a.audit = s

	// Audit writes must not be cut short by a cancelled command context.
	record := s.Recorder(context.Background())
	a.engine.SetAuditCallback(record)
	a.executor.SetAuditCallback(record)
	a.server.SetAuditCallback(record)
	return nil
}

// Close reports translator usage and releases the audit journal.
func (a *app) Close() {
	if calls, failed := a.translator.Stats(); calls > 0 && logger != nil {
		logger.Debug("translator usage", zap.Int("calls", calls), zap.Int("failed", failed))
	}
	if a.audit != nil {
		if err := a.audit.Close(); err != nil && logger != nil {
			logger.Warn("failed to close audit journal", zap.Error(err))
		}
	}
}

// execute runs prepared source with the given grant.
func (a *app) execute(ctx context.Context, source string, perms types.PermissionSet, origin string) (*tactile.ExecutionResult, error) {
	return a.executor.Execute(ctx, types.ExecutionRequest{
		Source:      source,
		Permissions: perms,
		Origin:      origin,
	})
}
