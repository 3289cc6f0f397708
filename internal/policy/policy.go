package policy

import (
	"context"
	"strings"

	"beeno/internal/logging"
	"beeno/internal/types"
)

// ParseFailureReason is reported when source does not parse.
const ParseFailureReason = "generated source does not parse as JS/TS"

// RiskPolicy inspects source and returns a verdict.
type RiskPolicy interface {
	Analyze(ctx context.Context, source string) types.RiskReport
}

// PatternPolicy is the built-in RiskPolicy. It is immutable after construction
// and safe for concurrent use.
type PatternPolicy struct {
	cfg    Config
	syntax *SyntaxChecker
	hint   string
}

// NewPatternPolicy creates a policy from a document.
func NewPatternPolicy(cfg Config) *PatternPolicy {
	return &PatternPolicy{cfg: cfg.Clone(), syntax: NewSyntaxChecker(), hint: "typescript"}
}

// NewDefaultPolicy creates the built-in policy.
func NewDefaultPolicy() *PatternPolicy {
	return NewPatternPolicy(DefaultConfig())
}

// Config returns a copy of the policy document.
func (p *PatternPolicy) Config() Config {
	return p.cfg.Clone()
}

// Analyze implements RiskPolicy. Blocked patterns are all reported; a parse
// failure always blocks; risky patterns only matter when nothing blocked.
func (p *PatternPolicy) Analyze(ctx context.Context, source string) types.RiskReport {
	var reasons []string
	for _, pat := range p.cfg.BlockedPatterns {
		if pat != "" && strings.Contains(source, pat) {
			reasons = append(reasons, "blocked pattern detected: "+pat)
		}
	}

	if err := p.syntax.Check(ctx, source, p.hint); err != nil {
		logging.PolicyWarn("syntax gate rejected source: %v", err)
		reasons = append(reasons, ParseFailureReason)
		return types.RiskReport{Level: types.RiskBlocked, Reasons: reasons}
	}

	if len(reasons) > 0 {
		logging.Policy("blocked: %s", strings.Join(reasons, "; "))
		return types.RiskReport{Level: types.RiskBlocked, Reasons: reasons}
	}

	for _, pat := range p.cfg.RiskyPatterns {
		if pat != "" && strings.Contains(source, pat) {
			reasons = append(reasons, "risky pattern detected: "+pat)
		}
	}
	if len(reasons) > 0 {
		logging.Policy("risky: %s", strings.Join(reasons, "; "))
		return types.RiskReport{Level: types.RiskRisky, Reasons: reasons, RequiresConfirmation: true}
	}

	logging.PolicyDebug("safe: %d bytes", len(source))
	return types.SafeReport()
}
