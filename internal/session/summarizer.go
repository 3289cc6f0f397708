// Package session keeps the rolling context that is handed to translators.
package session

import (
	"strings"

	"beeno/internal/logging"
	"beeno/internal/types"
)

// DefaultWindow is the per-bucket cap used when none is configured.
const DefaultWindow = 8

// Summarizer folds executed inputs into a SessionSummary.
type Summarizer interface {
	Update(event string) types.SessionSummary
	Current() types.SessionSummary
}

// RollingSummarizer keeps the N most recent entries per bucket, oldest
// evicted first. It is not safe for concurrent use.
type RollingSummarizer struct {
	max     int
	summary types.SessionSummary
}

// NewRollingSummarizer creates a summarizer with a per-bucket cap of max.
func NewRollingSummarizer(max int) *RollingSummarizer {
	if max < 0 {
		max = 0
	}
	return &RollingSummarizer{max: max}
}

// Update routes event into exactly one of imports, symbols or side effects,
// always appends it to recent intents, and returns a snapshot.
func (r *RollingSummarizer) Update(event string) types.SessionSummary {
	event = strings.TrimSpace(event)
	switch {
	case strings.HasPrefix(event, "import "):
		r.summary.Imports = r.push(r.summary.Imports, event)
	case strings.HasPrefix(event, "let "), strings.HasPrefix(event, "const "), strings.HasPrefix(event, "function "):
		r.summary.Symbols = r.push(r.summary.Symbols, symbolName(event))
	default:
		r.summary.SideEffects = r.push(r.summary.SideEffects, event)
	}
	r.summary.RecentIntents = r.push(r.summary.RecentIntents, event)

	logging.ContextDebug("summary updated: symbols=%d imports=%d side_effects=%d intents=%d",
		len(r.summary.Symbols), len(r.summary.Imports), len(r.summary.SideEffects), len(r.summary.RecentIntents))
	return r.summary.Clone()
}

// Current returns a snapshot without mutating anything.
func (r *RollingSummarizer) Current() types.SessionSummary {
	return r.summary.Clone()
}

func (r *RollingSummarizer) push(bucket []string, entry string) []string {
	bucket = append(bucket, entry)
	if over := len(bucket) - r.max; over > 0 {
		bucket = append(bucket[:0:0], bucket[over:]...)
	}
	return bucket
}

// symbolName returns the second whitespace token with leading and trailing
// '{', '(' and ';' removed. The whole event stands in when there is no second token.
func symbolName(event string) string {
	name := event
	if fields := strings.Fields(event); len(fields) >= 2 {
		name = fields[1]
	}
	return strings.Trim(name, "{(;")
}

// WithServer returns a copy of summary with the dev server state attached.
// ok=false (no server running) attaches nothing.
func WithServer(summary types.SessionSummary, status types.ServerStatus, ok bool) types.SessionSummary {
	out := summary.Clone()
	if ok {
		out.Server = status.Context()
	}
	return out
}
