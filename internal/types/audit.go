package types

import "time"

// AuditEventType enumerates the pipeline events worth journaling.
type AuditEventType string

const (
	AuditPrepare     AuditEventType = "prepare"
	AuditTranslate   AuditEventType = "translate"
	AuditBlocked     AuditEventType = "blocked"
	AuditExecute     AuditEventType = "execute"
	AuditExit        AuditEventType = "exit"
	AuditServerStart AuditEventType = "server_start"
	AuditServerStop  AuditEventType = "server_stop"
)

// AuditEvent is emitted through audit callbacks and persisted by the store.
type AuditEvent struct {
	ID        string         `json:"id"`
	Type      AuditEventType `json:"type"`
	Origin    string         `json:"origin,omitempty"`
	Mode      string         `json:"mode,omitempty"`
	Level     RiskLevel      `json:"level,omitempty"`
	Reasons   []string       `json:"reasons,omitempty"`
	ExitCode  *int           `json:"exit_code,omitempty"`
	Detail    string         `json:"detail,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// AuditCallback receives events as they happen.
type AuditCallback func(AuditEvent)
