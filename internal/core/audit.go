package core

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// AuditAction represents the type of bulk action being audited.
type AuditAction string

const (
	AuditBulkDelete AuditAction = "bulk_delete"
	AuditBulkSet    AuditAction = "bulk_set"
	AuditBulkRevise AuditAction = "bulk_revise"
)

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityMedium AuditSeverity = "medium"
	SeverityHigh   AuditSeverity = "high"
)

// DefaultAuditLimit is the page size of Recent when the filter sets none.
const DefaultAuditLimit = 50

// AuditEntry records one applied (or failed) bulk action.
type AuditEntry struct {
	ID           string        `json:"id"`
	Action       AuditAction   `json:"action"`
	Severity     AuditSeverity `json:"severity"`
	Feature      string        `json:"feature"`
	ActionID     string        `json:"actionId"`
	SessionID    string        `json:"sessionId,omitempty"`
	IPAddress    string        `json:"ipAddress,omitempty"`
	ColumnName   string        `json:"columnName,omitempty"`
	NewValue     string        `json:"newValue,omitempty"`
	RowKeys      []string      `json:"rowKeys,omitempty"`
	RowsAffected int           `json:"rowsAffected"`
	Error        string        `json:"error,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// AuditFilter narrows Recent. Zero fields match everything.
type AuditFilter struct {
	Feature string
	Action  AuditAction
	Limit   int
}

func (f AuditFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultAuditLimit
	}
	return f.Limit
}

func (f AuditFilter) matches(e AuditEntry) bool {
	return (f.Feature == "" || f.Feature == e.Feature) &&
		(f.Action == "" || f.Action == e.Action)
}

// AuditLog stores bulk action entries.
type AuditLog interface {
	Record(ctx context.Context, e AuditEntry) error
	// Recent returns matching entries, newest first.
	Recent(ctx context.Context, f AuditFilter) ([]AuditEntry, error)
}

// AuditPruner is an AuditLog that can drop old entries.
type AuditPruner interface {
	// Prune deletes entries created before cutoff and returns how many.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// determineSeverity returns the appropriate severity for an action.
func determineSeverity(action AuditAction) AuditSeverity {
	if action == AuditBulkDelete {
		return SeverityHigh
	}
	return SeverityMedium
}

// newAuditEntry fills the request-derived fields of an entry from ctx.
func newAuditEntry(ctx context.Context, f Feature, action AuditAction, actionID string) AuditEntry {
	return AuditEntry{
		ID:        uuid.NewString(),
		Action:    action,
		Severity:  determineSeverity(action),
		Feature:   f.Key,
		ActionID:  actionID,
		SessionID: SessionFromContext(ctx),
		IPAddress: ClientIPFromContext(ctx),
		CreatedAt: time.Now().UTC(),
	}
}

// MemoryAuditLog keeps the most recent entries in memory.
type MemoryAuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
	max     int
}

// NewMemoryAuditLog creates a log holding at most max entries; older ones
// are dropped. A non-positive max keeps 1000.
func NewMemoryAuditLog(max int) *MemoryAuditLog {
	if max <= 0 {
		max = 1000
	}
	return &MemoryAuditLog{max: max}
}

func (l *MemoryAuditLog) Record(ctx context.Context, e AuditEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
	if over := len(l.entries) - l.max; over > 0 {
		l.entries = slices.Delete(l.entries, 0, over)
	}
	return nil
}

func (l *MemoryAuditLog) Recent(ctx context.Context, f AuditFilter) ([]AuditEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := []AuditEntry{}
	for i := len(l.entries) - 1; i >= 0 && len(out) < f.limit(); i-- {
		if f.matches(l.entries[i]) {
			out = append(out, l.entries[i])
		}
	}
	return out, nil
}

func (l *MemoryAuditLog) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	before := len(l.entries)
	l.entries = slices.DeleteFunc(l.entries, func(e AuditEntry) bool {
		return e.CreatedAt.Before(cutoff)
	})
	return int64(before - len(l.entries)), nil
}

// auditTable is the Postgres table behind PostgresAuditLog.
const auditTable = "console_audit_log"

const auditSchemaSQL = `CREATE TABLE IF NOT EXISTS console_audit_log (
	id uuid PRIMARY KEY,
	action text NOT NULL,
	severity text NOT NULL,
	feature text NOT NULL,
	action_id text NOT NULL,
	session_id text,
	ip_address text,
	column_name text,
	new_value text,
	row_keys text[],
	rows_affected integer NOT NULL DEFAULT 0,
	error text,
	created_at timestamptz NOT NULL DEFAULT now()
)`

var auditColumns = []string{
	"id", "action", "severity", "feature", "action_id", "session_id", "ip_address",
	"column_name", "new_value", "row_keys", "rows_affected", "error", "created_at",
}

// PostgresAuditLog stores entries in the console_audit_log table.
type PostgresAuditLog struct {
	db DBTX
}

// NewPostgresAuditLog creates a log over db.
func NewPostgresAuditLog(db DBTX) *PostgresAuditLog {
	return &PostgresAuditLog{db: db}
}

// EnsureSchema creates the audit table when it does not exist.
func (l *PostgresAuditLog) EnsureSchema(ctx context.Context) error {
	if _, err := l.db.Exec(ctx, auditSchemaSQL); err != nil {
		return fmt.Errorf("create %s: %w", auditTable, err)
	}
	return nil
}

func (l *PostgresAuditLog) Record(ctx context.Context, e AuditEntry) error {
	placeholders := make([]string, len(auditColumns))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", auditTable,
		strings.Join(quoteColumns(auditColumns), ", "), strings.Join(placeholders, ", "))

	_, err := l.db.Exec(ctx, sql,
		toPgUUID(e.ID), string(e.Action), string(e.Severity), e.Feature, e.ActionID,
		toPgText(e.SessionID), toPgText(e.IPAddress), toPgText(e.ColumnName), toPgText(e.NewValue),
		e.RowKeys, e.RowsAffected, toPgText(e.Error),
		pgtype.Timestamptz{Time: e.CreatedAt, Valid: !e.CreatedAt.IsZero()},
	)
	if err != nil {
		return fmt.Errorf("insert %s: %w", auditTable, err)
	}
	return nil
}

// buildAuditQuery returns the SELECT for Recent.
func buildAuditQuery(f AuditFilter) (string, []any) {
	wb := NewWhereBuilder()
	wb.Add("feature", f.Feature)
	wb.Add("action", string(f.Action))
	where, args := wb.Build()
	sql := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY created_at DESC, id LIMIT $%d",
		strings.Join(quoteColumns(auditColumns), ", "), auditTable, where, wb.NextArgIndex())
	return sql, append(args, f.limit())
}

func (l *PostgresAuditLog) Recent(ctx context.Context, f AuditFilter) ([]AuditEntry, error) {
	sql, args := buildAuditQuery(f)
	rows, err := l.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", auditTable, err)
	}
	entries, err := pgx.CollectRows(rows, scanAuditEntry)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", auditTable, err)
	}
	return entries, nil
}

func (l *PostgresAuditLog) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := l.db.Exec(ctx, "DELETE FROM "+auditTable+" WHERE created_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune %s: %w", auditTable, err)
	}
	return tag.RowsAffected(), nil
}

func scanAuditEntry(row pgx.CollectableRow) (AuditEntry, error) {
	var (
		e                                     AuditEntry
		id                                    pgtype.UUID
		action, severity                      string
		session, ip, column, value, errorText pgtype.Text
		createdAt                             pgtype.Timestamptz
	)
	err := row.Scan(&id, &action, &severity, &e.Feature, &e.ActionID, &session, &ip,
		&column, &value, &e.RowKeys, &e.RowsAffected, &errorText, &createdAt)
	if err != nil {
		return AuditEntry{}, err
	}
	e.ID = uuidToString(id)
	e.Action = AuditAction(action)
	e.Severity = AuditSeverity(severity)
	e.SessionID = session.String
	e.IPAddress = ip.String
	e.ColumnName = column.String
	e.NewValue = value.String
	e.Error = errorText.String
	e.CreatedAt = createdAt.Time
	return e, nil
}

// Helper functions for type conversion

func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

func toPgUUID(s string) pgtype.UUID {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

func uuidToString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}
