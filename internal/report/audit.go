package report

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Auditor writes the append-only access trail for reports. Every creation,
// view attempt (granted or denied), and purge is recorded. Entries are never
// updated or deleted by application code; only retention purges remove them.
type Auditor struct {
	db *sql.DB
}

// NewAuditor creates an auditor writing to safety_audit_log.
func NewAuditor(db *sql.DB) *Auditor {
	if db == nil {
		panic("report: auditor requires a database handle")
	}
	return &Auditor{db: db}
}

// Record appends one audit entry. ID and timestamp are assigned here when
// the caller leaves them zero.
func (a *Auditor) Record(ctx context.Context, entry AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := a.db.ExecContext(ctx, `
		INSERT INTO safety_audit_log (id, report_id, action, actor_id, purpose, outcome, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.ReportID, entry.Action, entry.ActorID, entry.Purpose, entry.Outcome, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("report: append audit entry: %w", err)
	}
	return nil
}

// MemoryAuditor collects audit entries in memory. Used in tests and in
// memory-backed local deployments.
type MemoryAuditor struct {
	mu      sync.Mutex
	entries []AuditEntry
}

// NewMemoryAuditor creates an empty in-memory auditor.
func NewMemoryAuditor() *MemoryAuditor {
	return &MemoryAuditor{}
}

func (a *MemoryAuditor) Record(_ context.Context, entry AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
	return nil
}

// Entries returns a copy of everything recorded so far.
func (a *MemoryAuditor) Entries() []AuditEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]AuditEntry, len(a.entries))
	copy(out, a.entries)
	return out
}

// ListForReport returns the trail for one report, oldest first.
func (a *Auditor) ListForReport(ctx context.Context, reportID string) ([]AuditEntry, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, report_id, action, actor_id, purpose, outcome, created_at
		FROM safety_audit_log
		WHERE report_id = $1
		ORDER BY created_at ASC`,
		reportID,
	)
	if err != nil {
		return nil, fmt.Errorf("report: query audit trail: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.ReportID, &e.Action, &e.ActorID, &e.Purpose, &e.Outcome, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("report: scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("report: iterate audit trail: %w", err)
	}
	return entries, nil
}
