package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storeassist/safety-platform/internal/policy"
	"github.com/storeassist/safety-platform/internal/report"
	"github.com/storeassist/safety-platform/internal/safety"
)

type fakeSender struct {
	emails []Email
	err    error
}

func (f *fakeSender) Send(_ context.Context, email Email) error {
	if f.err != nil {
		return f.err
	}
	f.emails = append(f.emails, email)
	return nil
}

func testEvent() report.EscalationEvent {
	return report.EscalationEvent{
		ReportID:        "SAFE-00aa11bb22cc33dd",
		StoreID:         "store-77",
		Category:        safety.CategorySelfHarmRisk,
		Severity:        safety.SeverityCritical,
		Priority:        policy.PriorityCriticalImmediate,
		Recipients:      []policy.RecipientRole{policy.RoleHR, policy.RoleMentalHealthTeam},
		OccurrenceCount: 1,
		CreatedAt:       time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
	}
}

func TestEscalationFailure_SendsMetadataOnly(t *testing.T) {
	sender := &fakeSender{}
	alerter := NewEscalationAlerter(sender, "safety-ops@example.com", nil)

	err := alerter.EscalationFailure(context.Background(), testEvent(), errors.New("queue unavailable"))
	require.NoError(t, err)

	require.Len(t, sender.emails, 1)
	email := sender.emails[0]
	assert.Equal(t, "safety-ops@example.com", email.To)
	assert.Contains(t, email.Subject, "SAFE-00aa11bb22cc33dd")
	assert.Contains(t, email.Body, "critical_immediate")
	assert.Contains(t, email.Body, "queue unavailable")
	assert.Contains(t, email.Body, "hr, mental_health_team")
}

func TestEscalationFailure_PropagatesSendError(t *testing.T) {
	alerter := NewEscalationAlerter(&fakeSender{err: errors.New("smtp down")}, "ops@example.com", nil)
	err := alerter.EscalationFailure(context.Background(), testEvent(), errors.New("cause"))
	assert.ErrorContains(t, err, "smtp down")
}

func TestNewEscalationAlerter_Validation(t *testing.T) {
	assert.Panics(t, func() { NewEscalationAlerter(nil, "ops@example.com", nil) })
	assert.Panics(t, func() { NewEscalationAlerter(&fakeSender{}, "", nil) })
}
