// Package types provides shared type definitions used across beeno packages.
// This package exists to break import cycles between core, perception, policy and tactile.
// Types in this package should be foundational data structures with no complex dependencies.
package types

import (
	"fmt"
	"strings"
)

// =============================================================================
// TRANSLATION
// =============================================================================

// FileMetadata describes the file an input came from, when there is one.
type FileMetadata struct {
	Path         string `json:"path,omitempty"`
	LanguageHint string `json:"language_hint,omitempty"`
}

// TranslateRequest is everything a translator sees for one call.
type TranslateRequest struct {
	Input          string         `json:"input"`
	Mode           string         `json:"mode"`
	SessionSummary SessionSummary `json:"session_summary"`
	FileMetadata   *FileMetadata  `json:"file_metadata,omitempty"`
}

// TranslateResult is a translator's answer. Code is the only field the
// pipeline acts on; the rest is advisory.
type TranslateResult struct {
	Code            string         `json:"code"`
	Explanation     *string        `json:"explanation,omitempty"`
	Confidence      *float32       `json:"confidence,omitempty"`
	Tokens          *uint32        `json:"tokens,omitempty"`
	RawProviderMeta map[string]any `json:"raw_provider_meta,omitempty"`
}

// =============================================================================
// RISK
// =============================================================================

// RiskLevel is the policy verdict for a piece of source.
type RiskLevel string

const (
	RiskSafe    RiskLevel = "safe"
	RiskRisky   RiskLevel = "risky"
	RiskBlocked RiskLevel = "blocked"
)

// RiskReport is produced by a RiskPolicy. RequiresConfirmation is true
// exactly when Level is RiskRisky.
type RiskReport struct {
	Level                RiskLevel `json:"level"`
	Reasons              []string  `json:"reasons"`
	RequiresConfirmation bool      `json:"requires_confirmation"`
}

// SafeReport is the verdict for source that matched nothing.
func SafeReport() RiskReport {
	return RiskReport{Level: RiskSafe, Reasons: []string{}}
}

// =============================================================================
// SESSION
// =============================================================================

// ServerContext is the dev server state folded into a session summary.
type ServerContext struct {
	Running bool    `json:"running"`
	URL     *string `json:"url,omitempty"`
	Port    *uint16 `json:"port,omitempty"`
	Mode    string  `json:"mode,omitempty"`
}

// SessionSummary is the rolling context handed to translators.
type SessionSummary struct {
	Symbols       []string       `json:"symbols"`
	Imports       []string       `json:"imports"`
	SideEffects   []string       `json:"side_effects"`
	RecentIntents []string       `json:"recent_intents"`
	Server        *ServerContext `json:"server,omitempty"`
}

// Clone returns a deep copy of the summary.
func (s SessionSummary) Clone() SessionSummary {
	out := SessionSummary{
		Symbols:       append([]string(nil), s.Symbols...),
		Imports:       append([]string(nil), s.Imports...),
		SideEffects:   append([]string(nil), s.SideEffects...),
		RecentIntents: append([]string(nil), s.RecentIntents...),
	}
	if s.Server != nil {
		sc := *s.Server
		if s.Server.URL != nil {
			u := *s.Server.URL
			sc.URL = &u
		}
		if s.Server.Port != nil {
			p := *s.Server.Port
			sc.Port = &p
		}
		out.Server = &sc
	}
	return out
}

// IsEmpty reports whether nothing has been recorded yet.
func (s SessionSummary) IsEmpty() bool {
	return len(s.Symbols) == 0 && len(s.Imports) == 0 && len(s.SideEffects) == 0 &&
		len(s.RecentIntents) == 0 && s.Server == nil
}

// =============================================================================
// EXECUTION
// =============================================================================

// PermissionSet is the capability grant for one execution. The zero value denies everything.
type PermissionSet struct {
	AllowRead  []string `json:"allow_read,omitempty"`
	AllowWrite []string `json:"allow_write,omitempty"`
	AllowNet   []string `json:"allow_net,omitempty"`
	AllowEnv   bool     `json:"allow_env,omitempty"`
	AllowRun   bool     `json:"allow_run,omitempty"`
}

// String renders the grant the way it would appear on a runtime command line.
func (p PermissionSet) String() string {
	var parts []string
	if len(p.AllowRead) > 0 {
		parts = append(parts, "read="+strings.Join(p.AllowRead, ","))
	}
	if len(p.AllowWrite) > 0 {
		parts = append(parts, "write="+strings.Join(p.AllowWrite, ","))
	}
	if len(p.AllowNet) > 0 {
		parts = append(parts, "net="+strings.Join(p.AllowNet, ","))
	}
	if p.AllowEnv {
		parts = append(parts, "env")
	}
	if p.AllowRun {
		parts = append(parts, "run")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}

// ExecutionRequest is one approved source plus the capabilities granted to it.
type ExecutionRequest struct {
	Source      string        `json:"source"`
	Permissions PermissionSet `json:"permissions"`
	Origin      string        `json:"origin"`
}

// ServerStatus describes a running dev server. It is derived on demand and never persisted.
type ServerStatus struct {
	Running bool   `json:"running"`
	Port    uint16 `json:"port"`
	URL     string `json:"url"`
	Mode    string `json:"mode"`
}

// Context converts a status into the form carried by a SessionSummary.
func (s ServerStatus) Context() *ServerContext {
	url := s.URL
	port := s.Port
	return &ServerContext{Running: s.Running, URL: &url, Port: &port, Mode: s.Mode}
}

// ServerURL is the loopback address a dev server on port listens at.
func ServerURL(port uint16) string {
	return fmt.Sprintf("http://127.0.0.1:%d", port)
}

// =============================================================================
// CLI OUTPUT
// =============================================================================

// JSONEnvelope is the machine-readable result printed with --json.
type JSONEnvelope struct {
	Status  string         `json:"status"`
	Phase   string         `json:"phase"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
