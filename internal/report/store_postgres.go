package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgxQuerier is the subset of pgxpool.Pool the store needs. pgxmock
// satisfies it in tests.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists reports in the safety_reports table.
type PostgresStore struct {
	db pgxQuerier
}

// NewPostgresStore creates a Postgres-backed store.
func NewPostgresStore(db pgxQuerier) *PostgresStore {
	if db == nil {
		panic("report: postgres store requires a database handle")
	}
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, rep *IncidentReport) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO safety_reports (
			report_id, anonymized_user_id, store_id, category, severity,
			priority, recipients, ciphertext, key_version, occurrence_count,
			created_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		rep.ReportID, rep.AnonymizedUserID, rep.StoreID, rep.Category, rep.Severity,
		rep.Priority, recipientStrings(rep.Recipients), rep.Ciphertext, rep.KeyVersion,
		rep.OccurrenceCount, rep.CreatedAt, rep.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("report: insert report: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, reportID string) (*IncidentReport, error) {
	var rep IncidentReport
	var recipients []string
	err := s.db.QueryRow(ctx, `
		SELECT report_id, anonymized_user_id, store_id, category, severity,
		       priority, recipients, ciphertext, key_version, occurrence_count,
		       created_at, expires_at
		FROM safety_reports
		WHERE report_id = $1`,
		reportID,
	).Scan(
		&rep.ReportID, &rep.AnonymizedUserID, &rep.StoreID, &rep.Category, &rep.Severity,
		&rep.Priority, &recipients, &rep.Ciphertext, &rep.KeyVersion,
		&rep.OccurrenceCount, &rep.CreatedAt, &rep.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("report: select report: %w", err)
	}
	rep.Recipients = recipientRoles(recipients)
	return &rep, nil
}

func (s *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM safety_reports WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("report: delete expired: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

var _ Store = (*PostgresStore)(nil)
