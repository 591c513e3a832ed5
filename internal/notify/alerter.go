package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/storeassist/safety-platform/internal/report"
	"github.com/storeassist/safety-platform/pkg/logging"
)

// EscalationAlerter emails operators when an escalation could not be routed
// through the message bus. The alert carries routing metadata only, never
// report content or reporter identity.
type EscalationAlerter struct {
	sender EmailSender
	to     string
	logger *logging.Logger
}

// NewEscalationAlerter creates an alerter delivering to the given address.
func NewEscalationAlerter(sender EmailSender, to string, logger *logging.Logger) *EscalationAlerter {
	if sender == nil {
		panic("notify: alerter requires an email sender")
	}
	if to == "" {
		panic("notify: alerter requires a destination address")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &EscalationAlerter{sender: sender, to: to, logger: logger}
}

// EscalationFailure sends the out-of-band alert for one undelivered event.
func (a *EscalationAlerter) EscalationFailure(ctx context.Context, event report.EscalationEvent, cause error) error {
	recipients := make([]string, len(event.Recipients))
	for i, r := range event.Recipients {
		recipients[i] = string(r)
	}

	body := fmt.Sprintf(
		"An escalation could not be delivered to its responder queue and requires manual follow-up.\n\n"+
			"Report ID:   %s\n"+
			"Store:       %s\n"+
			"Priority:    %s\n"+
			"Severity:    %s\n"+
			"Recipients:  %s\n"+
			"Filed at:    %s\n\n"+
			"Delivery error: %v\n",
		event.ReportID,
		event.StoreID,
		event.Priority,
		event.Severity,
		strings.Join(recipients, ", "),
		event.CreatedAt.Format("2006-01-02 15:04:05 MST"),
		cause,
	)

	err := a.sender.Send(ctx, Email{
		To:      a.to,
		Subject: fmt.Sprintf("[SAFETY ESCALATION UNDELIVERED] %s priority %s", event.ReportID, event.Priority),
		Body:    body,
	})
	if err != nil {
		return fmt.Errorf("notify: escalation alert: %w", err)
	}

	a.logger.Info("escalation alert sent", "report_id", event.ReportID, "priority", event.Priority)
	return nil
}

var _ report.Alerter = (*EscalationAlerter)(nil)
