package report

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditor_RecordAssignsIDAndTimestamp(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO safety_audit_log").
		WithArgs(sqlmock.AnyArg(), "SAFE-00aa11bb22cc33dd", ActionReportViewed, "hr-lead-1", "follow-up", OutcomeSuccess, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	auditor := NewAuditor(db)
	err = auditor.Record(context.Background(), AuditEntry{
		ReportID: "SAFE-00aa11bb22cc33dd",
		Action:   ActionReportViewed,
		ActorID:  "hr-lead-1",
		Purpose:  "follow-up",
		Outcome:  OutcomeSuccess,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditor_RecordKeepsProvidedFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO safety_audit_log").
		WithArgs("fixed-id", "", ActionReportsPurged, "retention", "deleted=4", OutcomeSuccess, at).
		WillReturnResult(sqlmock.NewResult(1, 1))

	auditor := NewAuditor(db)
	err = auditor.Record(context.Background(), AuditEntry{
		ID:        "fixed-id",
		Action:    ActionReportsPurged,
		ActorID:   "retention",
		Purpose:   "deleted=4",
		Outcome:   OutcomeSuccess,
		CreatedAt: at,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditor_ListForReport(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "report_id", "action", "actor_id", "purpose", "outcome", "created_at"}).
		AddRow("id-1", "SAFE-00aa11bb22cc33dd", ActionReportCreated, "system", "", OutcomeSuccess, at).
		AddRow("id-2", "SAFE-00aa11bb22cc33dd", ActionReportViewed, "hr-lead-1", "follow-up", OutcomeDenied, at.Add(time.Hour))

	mock.ExpectQuery("SELECT (.+) FROM safety_audit_log").
		WithArgs("SAFE-00aa11bb22cc33dd").
		WillReturnRows(rows)

	auditor := NewAuditor(db)
	entries, err := auditor.ListForReport(context.Background(), "SAFE-00aa11bb22cc33dd")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ActionReportCreated, entries[0].Action)
	assert.Equal(t, OutcomeDenied, entries[1].Outcome)
}
