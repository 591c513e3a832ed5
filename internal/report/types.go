// Package report implements confidential incident reporting: anonymized,
// encrypted, audited persistence of safety incidents plus priority routing to
// responder teams.
package report

import (
	"time"

	"github.com/storeassist/safety-platform/internal/policy"
	"github.com/storeassist/safety-platform/internal/safety"
)

// IncidentReport is the durable record of one safety incident. Identity
// fields are anonymized and the sensitive detail lives only in the encrypted
// payload.
type IncidentReport struct {
	ReportID         string                    `json:"report_id"`
	AnonymizedUserID string                    `json:"anonymized_user_id"`
	StoreID          string                    `json:"store_id"`
	Category         safety.Category           `json:"category"`
	Severity         safety.Severity           `json:"severity"`
	Priority         policy.EscalationPriority `json:"priority"`
	Recipients       []policy.RecipientRole    `json:"recipients"`
	Ciphertext       string                    `json:"ciphertext"`
	KeyVersion       string                    `json:"key_version"`
	OccurrenceCount  int                       `json:"occurrence_count"`
	CreatedAt        time.Time                 `json:"created_at"`
	ExpiresAt        time.Time                 `json:"expires_at"`
}

// Payload is the sensitive detail sealed inside a report's ciphertext. It is
// never written anywhere in plaintext.
type Payload struct {
	Message          string   `json:"message"`
	DetectedPatterns []string `json:"detected_patterns"`
	Reasoning        string   `json:"reasoning"`
	Confidence       float64  `json:"confidence"`
	SessionID        string   `json:"session_id,omitempty"`
	DeviceID         string   `json:"device_id,omitempty"`
}

// DecryptedView is what an authorized accessor receives from GetReport.
type DecryptedView struct {
	Report  IncidentReport `json:"report"`
	Payload Payload        `json:"payload"`
}

// EscalationEvent is the routing envelope published to the message bus. It
// carries no message text and no real user identity.
type EscalationEvent struct {
	ReportID        string                    `json:"report_id"`
	StoreID         string                    `json:"store_id"`
	Category        safety.Category           `json:"category"`
	Severity        safety.Severity           `json:"severity"`
	Priority        policy.EscalationPriority `json:"priority"`
	Recipients      []policy.RecipientRole    `json:"recipients"`
	OccurrenceCount int                       `json:"occurrence_count"`
	CreatedAt       time.Time                 `json:"created_at"`
}

// AuditEntry is one append-only access-trail record.
type AuditEntry struct {
	ID        string    `json:"id"`
	ReportID  string    `json:"report_id"`
	Action    string    `json:"action"`
	ActorID   string    `json:"actor_id"`
	Purpose   string    `json:"purpose,omitempty"`
	Outcome   string    `json:"outcome"`
	CreatedAt time.Time `json:"created_at"`
}

// Audit actions and outcomes.
const (
	ActionReportCreated = "report_created"
	ActionReportViewed  = "report_viewed"
	ActionReportsPurged = "reports_purged"

	OutcomeSuccess = "success"
	OutcomeDenied  = "denied"
)

// RetentionPolicy maps incident severity to how long a report is kept.
type RetentionPolicy struct {
	Low      time.Duration
	Medium   time.Duration
	High     time.Duration
	Critical time.Duration
}

// DefaultRetentionPolicy mirrors the compliance schedule: 30/90/180/365 days.
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{
		Low:      30 * 24 * time.Hour,
		Medium:   90 * 24 * time.Hour,
		High:     180 * 24 * time.Hour,
		Critical: 365 * 24 * time.Hour,
	}
}

func recipientStrings(roles []policy.RecipientRole) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

func recipientRoles(strs []string) []policy.RecipientRole {
	if len(strs) == 0 {
		return nil
	}
	out := make([]policy.RecipientRole, len(strs))
	for i, s := range strs {
		out[i] = policy.RecipientRole(s)
	}
	return out
}

// For returns the retention window for a severity. Unknown or none-level
// severities use the shortest window.
func (p RetentionPolicy) For(sev safety.Severity) time.Duration {
	switch sev {
	case safety.SeverityCritical:
		return p.Critical
	case safety.SeverityHigh:
		return p.High
	case safety.SeverityMedium:
		return p.Medium
	default:
		return p.Low
	}
}
