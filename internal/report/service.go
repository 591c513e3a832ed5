package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/storeassist/safety-platform/internal/observability/metrics"
	"github.com/storeassist/safety-platform/internal/policy"
	"github.com/storeassist/safety-platform/internal/safety"
	"github.com/storeassist/safety-platform/pkg/logging"
)

var reportTracer = otel.Tracer("safetyplatform/report")

// AuditSink receives append-only audit entries. *Auditor is the production
// implementation.
type AuditSink interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// Alerter notifies operators out-of-band when escalation routing has failed
// for a persisted report.
type Alerter interface {
	EscalationFailure(ctx context.Context, event EscalationEvent, cause error) error
}

// SubmitInput is everything needed to file one confidential report.
type SubmitInput struct {
	UserID         string
	Message        string
	Context        safety.Context
	Classification safety.Classification
	Decision       policy.Response
}

// ServiceConfig wires a report Service.
type ServiceConfig struct {
	Store      Store
	Auditor    AuditSink
	Bus        MessageBus
	Anonymizer *Anonymizer
	Encryptor  *Encryptor
	Correlator Correlator
	Alerter    Alerter

	Retention RetentionPolicy

	// AccessList holds the accessor IDs authorized to read reports.
	AccessList []string

	PublishMaxAttempts int
	PublishBackoffBase time.Duration

	Metrics *metrics.SafetyMetrics
	Logger  *logging.Logger

	// Clock overrides time.Now in tests.
	Clock func() time.Time
}

// Service files, serves, and purges confidential incident reports. The
// submit path is strictly ordered: key fetch, encrypt, persist, audit,
// publish. Nothing is persisted before encryption succeeds, and routing only
// happens for reports that are already durable.
type Service struct {
	store      Store
	auditor    AuditSink
	bus        MessageBus
	anonymizer *Anonymizer
	encryptor  *Encryptor
	correlator Correlator
	alerter    Alerter

	retention RetentionPolicy
	access    map[string]struct{}

	publishMaxAttempts int
	publishBackoffBase time.Duration

	metrics *metrics.SafetyMetrics
	logger  *logging.Logger
	clock   func() time.Time
}

// NewService creates a report service. Store, Auditor, Anonymizer and
// Encryptor are required; Bus, Correlator, Alerter and Metrics are optional.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Store == nil {
		panic("report: service requires a store")
	}
	if cfg.Auditor == nil {
		panic("report: service requires an auditor")
	}
	if cfg.Anonymizer == nil {
		panic("report: service requires an anonymizer")
	}
	if cfg.Encryptor == nil {
		panic("report: service requires an encryptor")
	}
	if cfg.Correlator == nil {
		cfg.Correlator = NopCorrelator{}
	}
	if cfg.Retention == (RetentionPolicy{}) {
		cfg.Retention = DefaultRetentionPolicy()
	}
	if cfg.PublishMaxAttempts <= 0 {
		cfg.PublishMaxAttempts = 3
	}
	if cfg.PublishBackoffBase <= 0 {
		cfg.PublishBackoffBase = 200 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	access := make(map[string]struct{}, len(cfg.AccessList))
	for _, id := range cfg.AccessList {
		access[id] = struct{}{}
	}

	return &Service{
		store:              cfg.Store,
		auditor:            cfg.Auditor,
		bus:                cfg.Bus,
		anonymizer:         cfg.Anonymizer,
		encryptor:          cfg.Encryptor,
		correlator:         cfg.Correlator,
		alerter:            cfg.Alerter,
		retention:          cfg.Retention,
		access:             access,
		publishMaxAttempts: cfg.PublishMaxAttempts,
		publishBackoffBase: cfg.PublishBackoffBase,
		metrics:            cfg.Metrics,
		logger:             cfg.Logger,
		clock:              cfg.Clock,
	}
}

// SubmitReport files a confidential report and routes its escalation. On
// ErrPublish the returned report is still valid: it was persisted, audited,
// and an out-of-band alert was attempted.
func (s *Service) SubmitReport(ctx context.Context, in SubmitInput) (*IncidentReport, error) {
	ctx, span := reportTracer.Start(ctx, "report.submit")
	defer span.End()

	anonID := s.anonymizer.AnonymizeUserID(in.UserID)

	payload, err := json.Marshal(Payload{
		Message:          in.Message,
		DetectedPatterns: in.Classification.DetectedPatterns,
		Reasoning:        in.Classification.Reasoning,
		Confidence:       in.Classification.Confidence,
		SessionID:        in.Context.SessionID,
		DeviceID:         in.Context.DeviceID,
	})
	if err != nil {
		return nil, fmt.Errorf("report: marshal payload: %w", err)
	}

	ciphertext, err := s.encryptor.Encrypt(ctx, payload)
	if err != nil {
		s.logger.Error("report encryption failed", "error", err)
		return nil, err
	}

	occurrences, err := s.correlator.RecordOccurrence(ctx, anonID)
	if err != nil {
		// Correlation is advisory; a report is never lost over it.
		s.logger.Warn("correlation unavailable", "error", err)
		occurrences = 1
	}

	now := s.clock().UTC()
	rep := &IncidentReport{
		ReportID:         NewReportID(),
		AnonymizedUserID: anonID,
		StoreID:          in.Context.StoreID,
		Category:         in.Classification.Category,
		Severity:         in.Classification.Severity,
		Priority:         in.Decision.EscalationPriority,
		Recipients:       in.Decision.Recipients,
		Ciphertext:       ciphertext,
		KeyVersion:       s.encryptor.KeyVersion(),
		OccurrenceCount:  occurrences,
		CreatedAt:        now,
		ExpiresAt:        now.Add(s.retention.For(in.Classification.Severity)),
	}

	if err := s.store.Save(ctx, rep); err != nil {
		s.logger.Error("report persistence failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	span.SetAttributes(
		attribute.String("report.id", rep.ReportID),
		attribute.String("report.priority", string(rep.Priority)),
		attribute.Int("report.occurrences", rep.OccurrenceCount),
	)

	if err := s.auditor.Record(ctx, AuditEntry{
		ReportID: rep.ReportID,
		Action:   ActionReportCreated,
		ActorID:  "system",
		Outcome:  OutcomeSuccess,
	}); err != nil {
		// The report is durable; a missing creation entry is an operator
		// problem, not a reporter problem.
		s.logger.Error("audit append failed", "report_id", rep.ReportID, "error", err)
	}

	s.logger.Info("report filed",
		"report_id", rep.ReportID,
		"store_id", rep.StoreID,
		"category", rep.Category,
		"severity", rep.Severity,
		"priority", rep.Priority,
		"occurrences", rep.OccurrenceCount,
	)

	if in.Decision.RequiresEscalation && rep.Priority != policy.PriorityNone {
		if err := s.publishEscalation(ctx, rep); err != nil {
			return rep, err
		}
	}
	return rep, nil
}

// publishEscalation routes the event with bounded retries, then falls back
// to the out-of-band alert channel.
func (s *Service) publishEscalation(ctx context.Context, rep *IncidentReport) error {
	event := EscalationEvent{
		ReportID:        rep.ReportID,
		StoreID:         rep.StoreID,
		Category:        rep.Category,
		Severity:        rep.Severity,
		Priority:        rep.Priority,
		Recipients:      rep.Recipients,
		OccurrenceCount: rep.OccurrenceCount,
		CreatedAt:       rep.CreatedAt,
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: marshal event: %v", ErrPublish, err)
	}

	if s.bus == nil {
		return fmt.Errorf("%w: no message bus configured", ErrPublish)
	}

	topic := TopicForPriority(rep.Priority)
	backoff := s.publishBackoffBase
	var lastErr error
	for attempt := 1; attempt <= s.publishMaxAttempts; attempt++ {
		lastErr = s.bus.Publish(ctx, topic, body)
		if lastErr == nil {
			if s.metrics != nil {
				s.metrics.EscalationPublished(string(rep.Priority))
			}
			return nil
		}

		s.logger.Warn("escalation publish failed",
			"report_id", rep.ReportID,
			"topic", topic,
			"attempt", attempt,
			"error", lastErr,
		)
		if s.metrics != nil {
			s.metrics.PublishRetry(topic)
		}
		if attempt == s.publishMaxAttempts {
			break
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			lastErr = ctx.Err()
			attempt = s.publishMaxAttempts
		case <-timer.C:
			backoff *= 2
		}
	}

	if s.metrics != nil {
		s.metrics.PublishFailure(topic)
	}
	if s.alerter != nil {
		if alertErr := s.alerter.EscalationFailure(ctx, event, lastErr); alertErr != nil {
			s.logger.Error("escalation alert failed", "report_id", rep.ReportID, "error", alertErr)
		}
	}
	return fmt.Errorf("%w: %v", ErrPublish, lastErr)
}

// GetReport returns the decrypted report for an authorized accessor. Every
// attempt is audited, denied ones included. Unauthorized accessors and
// unknown report IDs get the same opaque error.
func (s *Service) GetReport(ctx context.Context, accessorID, reportID, purpose string) (*DecryptedView, error) {
	ctx, span := reportTracer.Start(ctx, "report.get",
		trace.WithAttributes(attribute.String("report.id", reportID)))
	defer span.End()

	deny := func() (*DecryptedView, error) {
		s.audit(ctx, reportID, ActionReportViewed, accessorID, purpose, OutcomeDenied)
		if s.metrics != nil {
			s.metrics.ReportAccess(OutcomeDenied)
		}
		return nil, ErrReportAccess
	}

	if _, ok := s.access[accessorID]; !ok {
		s.logger.Warn("report access denied", "report_id", reportID, "accessor_id", accessorID)
		return deny()
	}

	rep, err := s.store.Get(ctx, reportID)
	if errors.Is(err, ErrNotFound) {
		return deny()
	}
	if err != nil {
		return nil, fmt.Errorf("report: load report: %w", err)
	}

	plaintext, err := s.encryptor.Decrypt(ctx, rep.Ciphertext)
	if err != nil {
		return nil, err
	}
	var payload Payload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, fmt.Errorf("report: decode payload: %w", err)
	}

	s.audit(ctx, reportID, ActionReportViewed, accessorID, purpose, OutcomeSuccess)
	if s.metrics != nil {
		s.metrics.ReportAccess(OutcomeSuccess)
	}
	return &DecryptedView{Report: *rep, Payload: payload}, nil
}

// PurgeExpired deletes reports past their retention window and audits the
// sweep.
func (s *Service) PurgeExpired(ctx context.Context) (int, error) {
	ctx, span := reportTracer.Start(ctx, "report.purge")
	defer span.End()

	deleted, err := s.store.DeleteExpired(ctx, s.clock().UTC())
	if err != nil {
		return deleted, fmt.Errorf("report: purge expired: %w", err)
	}

	if deleted > 0 {
		s.audit(ctx, "", ActionReportsPurged, "retention", fmt.Sprintf("deleted=%d", deleted), OutcomeSuccess)
		s.logger.Info("expired reports purged", "deleted", deleted)
	}
	if s.metrics != nil {
		s.metrics.ReportsPurged(deleted)
	}
	return deleted, nil
}

func (s *Service) audit(ctx context.Context, reportID, action, actorID, purpose, outcome string) {
	err := s.auditor.Record(ctx, AuditEntry{
		ReportID: reportID,
		Action:   action,
		ActorID:  actorID,
		Purpose:  purpose,
		Outcome:  outcome,
	})
	if err != nil {
		s.logger.Error("audit append failed", "report_id", reportID, "action", action, "error", err)
	}
}
