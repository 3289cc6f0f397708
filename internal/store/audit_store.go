// Package store persists the pipeline audit journal in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"beeno/internal/logging"
	"beeno/internal/types"
)

// DefaultRecentLimit is used by Recent when limit is not positive.
const DefaultRecentLimit = 20

// AuditStore records audit events and lists them back newest first.
type AuditStore struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// Open creates or opens the journal at dbPath, creating parent directories.
func Open(dbPath string) (*AuditStore, error) {
	logging.StoreDebug("Opening audit store at %s", dbPath)

	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &AuditStore{db: db, dbPath: dbPath}
	if err := s.initSchema(); err != nil {
		db.Close()
		logging.StoreError("Failed to initialize audit schema: %v", err)
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Store("Audit store ready: %s", dbPath)
	return s, nil
}

func (s *AuditStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS audit_events (
		id TEXT PRIMARY KEY,
		ts DATETIME NOT NULL,
		type TEXT NOT NULL,
		origin TEXT,
		mode TEXT,
		level TEXT,
		reasons_json TEXT,
		exit_code INTEGER,
		detail TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_audit_ts ON audit_events(ts);
	CREATE INDEX IF NOT EXISTS idx_audit_type ON audit_events(type);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *AuditStore) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *AuditStore) Close() error {
	return s.db.Close()
}

// Record inserts an event. Missing IDs and timestamps are filled in.
func (s *AuditStore) Record(ctx context.Context, event types.AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	var reasons any
	if len(event.Reasons) > 0 {
		b, err := json.Marshal(event.Reasons)
		if err != nil {
			return fmt.Errorf("failed to encode reasons: %w", err)
		}
		reasons = string(b)
	}
	var exitCode any
	if event.ExitCode != nil {
		exitCode = *event.ExitCode
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, ts, type, origin, mode, level, reasons_json, exit_code, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Timestamp.UTC(), string(event.Type), event.Origin, event.Mode,
		string(event.Level), reasons, exitCode, event.Detail)
	if err != nil {
		logging.StoreError("Failed to record %s event: %v", event.Type, err)
		return fmt.Errorf("failed to record audit event: %w", err)
	}
	logging.StoreDebug("Recorded %s event %s", event.Type, event.ID)
	return nil
}

// Recent returns up to limit events, most recently recorded first.
func (s *AuditStore) Recent(ctx context.Context, limit int) ([]types.AuditEvent, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts, type, origin, mode, level, reasons_json, exit_code, detail
		FROM audit_events ORDER BY rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	var events []types.AuditEvent
	for rows.Next() {
		var (
			e                           types.AuditEvent
			typ                         string
			origin, mode, level, detail sql.NullString
			reasons                     sql.NullString
			exitCode                    sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.Timestamp, &typ, &origin, &mode, &level, &reasons, &exitCode, &detail); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		e.Type = types.AuditEventType(typ)
		e.Origin = origin.String
		e.Mode = mode.String
		e.Level = types.RiskLevel(level.String)
		e.Detail = detail.String
		if reasons.Valid && reasons.String != "" {
			if err := json.Unmarshal([]byte(reasons.String), &e.Reasons); err != nil {
				logging.StoreError("Corrupt reasons for event %s: %v", e.ID, err)
			}
		}
		if exitCode.Valid {
			code := int(exitCode.Int64)
			e.ExitCode = &code
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Recorder adapts the store into an audit callback. Write failures are logged.
func (s *AuditStore) Recorder(ctx context.Context) types.AuditCallback {
	return func(event types.AuditEvent) {
		if err := s.Record(ctx, event); err != nil {
			logging.StoreError("audit write dropped: %v", err)
		}
	}
}
